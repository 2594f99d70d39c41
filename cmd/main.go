package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/survcurve/internal/config"
	"github.com/okian/survcurve/pkg/logger"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// app carries what every subcommand needs once the root has set up.
type app struct {
	cfg *config.Config
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "survcurve",
		Short:        "Time-dependent ROC and precision-recall curves for survival risk scores",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), cmd.ErrOrStderr())
		},
	}
	root.AddCommand(
		newServeCmd(a),
		newCurveCmd(a, curveROC),
		newCurveCmd(a, curvePR),
		newPrepareCmd(a),
	)
	return root
}

// setup loads configuration (defaults -> optional file -> env) and initializes
// logging on w so stdout stays free for CSV output.
func (a *app) setup(ctx context.Context, w io.Writer) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(logger.WithWriter(w), logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	a.cfg = cfg
	a.log = logger.Get()
	return nil
}
