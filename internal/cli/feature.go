package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iambrandonn/featforge/internal/workflow"
)

var newCmd = &cobra.Command{
	Use:   "new <id> <name>",
	Short: "Register a new feature in the requested state",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		_, store, err := loadStore(cmd, logger)
		if err != nil {
			return err
		}

		id := args[0]
		name := strings.Join(args[1:], " ")
		owner, err := cmd.Flags().GetString("owner")
		if err != nil {
			return err
		}

		engine := workflow.New(workflow.Options{
			Store:  store,
			Logger: logger,
			Notify: func(message string) {
				fmt.Fprintln(cmd.OutOrStdout(), message)
			},
		})
		_, err = engine.CreateFeature(id, name, owner)
		return err
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Apply the next human-gated transition for a feature",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		_, store, err := loadStore(cmd, logger)
		if err != nil {
			return err
		}

		engine := workflow.New(workflow.Options{Store: store, Logger: logger})
		f, err := engine.Approve(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", f.ID, f.Status)
		return nil
	},
}

var reworkCmd = &cobra.Command{
	Use:   "rework <id>",
	Short: "Send a feature in code-review or testing back to building",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		_, store, err := loadStore(cmd, logger)
		if err != nil {
			return err
		}

		reason, err := cmd.Flags().GetString("reason")
		if err != nil {
			return err
		}

		engine := workflow.New(workflow.Options{Store: store, Logger: logger})
		f, err := engine.Rework(args[0], reason)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", f.ID, f.Status)
		return nil
	},
}

func init() {
	newCmd.Flags().String("owner", "", "Owner recorded on the feature")
	reworkCmd.Flags().String("reason", "", "Reason recorded in the feature history")
}
