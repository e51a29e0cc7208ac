package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show a feature's current status and history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		_, store, err := loadStore(cmd, logger)
		if err != nil {
			return err
		}

		f, err := store.Load(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %s\n", f.ID, f.Name)
		fmt.Fprintf(out, "Status: %s\n", f.Status)
		if f.Owner != "" {
			fmt.Fprintf(out, "Owner: %s\n", f.Owner)
		}
		fmt.Fprintln(out)

		// Newest first, matching the status file's layout
		for i := len(f.History) - 1; i >= 0; i-- {
			entry := f.History[i]
			fmt.Fprintf(out, "%s  [%s]  %s\n",
				entry.Timestamp.Format("2006-01-02 15:04:05"),
				entry.Source,
				entry.Message)
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all features and their statuses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		_, store, err := loadStore(cmd, logger)
		if err != nil {
			return err
		}

		features, err := store.List()
		if err != nil {
			return err
		}
		if len(features) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No features")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tNAME")
		for _, f := range features {
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.ID, f.Status, f.Name)
		}
		return w.Flush()
	},
}
