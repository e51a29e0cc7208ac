package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/iambrandonn/featforge/internal/config"
	"github.com/iambrandonn/featforge/internal/feature"
	"github.com/iambrandonn/featforge/internal/gitdiff"
	"github.com/iambrandonn/featforge/internal/review"
	"github.com/iambrandonn/featforge/internal/session"
	"github.com/iambrandonn/featforge/internal/translog"
	"github.com/iambrandonn/featforge/internal/workflow"
)

// transcriptFileName is the per-feature session transcript within the
// feature's directory.
const transcriptFileName = "transcript.ndjson"

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no config at %s (run 'featforge init' first)", path)
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadStore(cmd *cobra.Command, logger *slog.Logger) (*config.Config, *feature.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return cfg, feature.NewStore(cfg.FeaturesDir, logger), nil
}

// newEngine wires the full workflow engine for one feature. The returned
// cleanup closes the feature's session transcript.
func newEngine(cmd *cobra.Command, featureID string) (*workflow.Engine, func(), error) {
	logger := newLogger()

	cfg, store, err := loadStore(cmd, logger)
	if err != nil {
		return nil, nil, err
	}

	manager := session.NewManager(cfg.Agent.Cmd, cfg.Agent.Env, logger)

	transcriptPath := filepath.Join(store.Dir(featureID), transcriptFileName)
	transcript, err := translog.Open(transcriptPath, logger)
	if err != nil {
		return nil, nil, err
	}
	manager.SetTranscript(transcript)

	runner := session.WithTimeout(manager,
		time.Duration(cfg.Agent.SessionTimeoutS)*time.Second)

	agentReviewer := review.NewAgentReviewer(runner, ".", store, logger)

	var apiReviewer review.Provider
	if cfg.Review.Provider == config.ReviewProviderAPI || cfg.Review.Provider == config.ReviewProviderBoth {
		apiReviewer = review.NewAPIClient(cfg.APIKey(), cfg.Review.Model, store, logger)
	}

	out := cmd.OutOrStdout()
	engine := workflow.New(workflow.Options{
		Store:         store,
		Runner:        runner,
		AgentReviewer: agentReviewer,
		APIReviewer:   apiReviewer,
		Diff:          gitdiff.New(logger),
		Config:        cfg,
		WorkDir:       ".",
		Logger:        logger,
		Notify: func(message string) {
			fmt.Fprintln(out, message)
		},
	})

	cleanup := func() {
		if err := transcript.Close(); err != nil {
			logger.Warn("failed to close transcript", "error", err)
		}
	}
	return engine, cleanup, nil
}
