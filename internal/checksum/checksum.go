// Package checksum fingerprints generated artifacts so history entries can
// name the exact revision they refer to.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Sum returns the hex-encoded SHA-256 digest of data
func Sum(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// Short returns an abbreviated fingerprint suitable for log lines
func Short(data []byte) string {
	return fmt.Sprintf("sha256:%s", Sum(data)[:8])
}
