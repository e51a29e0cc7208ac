package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iambrandonn/featforge/internal/transcript"
	"github.com/iambrandonn/featforge/internal/translog"
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript <id>",
	Short: "Render a feature's agent session transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		_, store, err := loadStore(cmd, logger)
		if err != nil {
			return err
		}

		path := filepath.Join(store.Dir(args[0]), transcriptFileName)
		records, err := translog.ReadAll(path, logger)
		if err != nil {
			return err
		}

		formatter := transcript.NewFormatter()
		out := cmd.OutOrStdout()
		for _, rec := range records {
			fmt.Fprintln(out, formatter.FormatRecord(rec))
		}
		return nil
	},
}
