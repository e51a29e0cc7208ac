package checksum

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSumIsStable(t *testing.T) {
	a := Sum([]byte("hello"))
	b := Sum([]byte("hello"))
	require.Equal(t, a, b)
	require.Len(t, a, 64)

	require.NotEqual(t, a, Sum([]byte("hello!")))
}

func TestSumKnownValue(t *testing.T) {
	require.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		Sum([]byte("hello")))
}

func TestShort(t *testing.T) {
	short := Short([]byte("hello"))
	require.True(t, strings.HasPrefix(short, "sha256:"))
	require.Equal(t, "sha256:2cf24dba", short)
}
