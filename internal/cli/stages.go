package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// runStage wires an engine for the feature and runs one lifecycle action
// under a signal-cancellable context. Ctrl-C kills the in-flight agent
// session; the feature's status file records how far the stage got.
func runStage(cmd *cobra.Command, featureID string, action func(ctx context.Context, engine engineRunner) error) error {
	engine, cleanup, err := newEngine(cmd, featureID)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return action(ctx, engine)
}

type engineRunner interface {
	GenerateSpec(ctx context.Context, id string) error
	GeneratePlan(ctx context.Context, id string) error
	Build(ctx context.Context, id string) error
}

var specCmd = &cobra.Command{
	Use:   "spec <id>",
	Short: "Draft and review the specification for a requested feature",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, args[0], func(ctx context.Context, engine engineRunner) error {
			return engine.GenerateSpec(ctx, args[0])
		})
	},
}

var planCmd = &cobra.Command{
	Use:   "plan <id>",
	Short: "Expand an approved specification into a phased implementation plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, args[0], func(ctx context.Context, engine engineRunner) error {
			return engine.GeneratePlan(ctx, args[0])
		})
	},
}

var buildCmd = &cobra.Command{
	Use:   "build <id>",
	Short: "Implement the plan phase by phase with code review after each phase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, args[0], func(ctx context.Context, engine engineRunner) error {
			return engine.Build(ctx, args[0])
		})
	},
}
