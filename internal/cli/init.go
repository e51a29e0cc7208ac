package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iambrandonn/featforge/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default featforge.yaml config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}

		cfg := config.Default()
		if err := cfg.SaveToFile(path); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}
