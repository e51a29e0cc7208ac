package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "featforge",
	Short: "Human-gated multi-agent feature workflow",
	Long: `featforge coordinates a multi-stage feature workflow in which generation
agents draft specifications, plans and code, independent reviewers critique
each artifact, and refinement loops run until the work is clean or the
iteration budget is spent. Humans gate every stage transition.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(specCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(reworkCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(transcriptCmd)

	rootCmd.PersistentFlags().StringP("config", "c", "featforge.yaml", "Path to featforge.yaml config file")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
