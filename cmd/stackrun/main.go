package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"stackrun/internal/config"
	"stackrun/internal/history"
	"stackrun/internal/logger"
	"stackrun/internal/metrics"
	"stackrun/internal/server"
	"stackrun/internal/supervisor"
	"stackrun/internal/topology"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// UpFlags holds flags for the up command.
type UpFlags struct {
	ConfigPath      string
	ProjectRoot     string
	PollInterval    time.Duration
	ShutdownTimeout time.Duration
	Listen          string
	HistoryDB       string
	LogFile         string
}

func buildRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "stackrun",
		Short: "Local supervisor for the dev service stack",
		Long: `Stackrun starts the gateway and every declared service instance as child
processes, frees their ports of stale listeners first, streams their output,
and stops the whole stack in reverse order on Ctrl+C.

Examples:
  stackrun up --config=config.yaml
  stackrun up --config=config.yaml --listen=127.0.0.1:9090
  stackrun up --config=config.yaml --history-db=stackrun.db`,
		SilenceUsage: true,
	}
	root.AddCommand(createUpCommand())
	return root
}

func createUpCommand() *cobra.Command {
	flags := &UpFlags{}
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start and supervise the stack",
		Long: `Start every service declared in the configuration, gateway first, and
supervise the group until a termination signal arrives or all services die.

Exit codes: 0 after a requested shutdown, 1 on a fatal configuration error,
when no service could be launched, or when every service exited on its own.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := runUp(flags)
			if err != nil {
				return err
			}
			if code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.ConfigPath, "config", "config.yaml", "path to the stack's YAML config")
	cmd.Flags().StringVar(&flags.ProjectRoot, "project-root", ".", "directory the services are launched from")
	cmd.Flags().DurationVar(&flags.PollInterval, "poll-interval", supervisor.DefaultPollInterval, "liveness poll interval")
	cmd.Flags().DurationVar(&flags.ShutdownTimeout, "shutdown-timeout", supervisor.DefaultShutdownTimeout, "global graceful shutdown window")
	cmd.Flags().StringVar(&flags.Listen, "listen", "", "address for the read-only status API (disabled when empty)")
	cmd.Flags().StringVar(&flags.HistoryDB, "history-db", "", "SQLite file recording lifecycle events (disabled when empty)")
	cmd.Flags().StringVar(&flags.LogFile, "log-file", "", "rotated copy of supervisor output (disabled when empty)")
	return cmd
}

// runUp returns the supervisor's exit code. A non-nil error is a fatal
// startup problem; the caller reports it and exits 1.
func runUp(flags *UpFlags) (int, error) {
	log, closer := logger.New(logger.Options{Level: slog.LevelInfo, File: flags.LogFile})
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	slog.SetDefault(log)

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return 1, err
	}
	specs, err := topology.Resolve(cfg)
	if err != nil {
		return 1, fmt.Errorf("resolve topology: %w", err)
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Warn("failed to register metrics", "error", err)
	}

	opts := supervisor.Options{
		ProjectRoot:     flags.ProjectRoot,
		PollInterval:    flags.PollInterval,
		ShutdownTimeout: flags.ShutdownTimeout,
		Logger:          log,
	}
	if flags.HistoryDB != "" {
		st, err := history.Open(flags.HistoryDB)
		if err != nil {
			return 1, err
		}
		defer func() { _ = st.Close() }()
		opts.History = st
	}

	sup := supervisor.New(opts)

	if flags.Listen != "" {
		srv := server.NewServer(flags.Listen, sup)
		defer func() { _ = srv.Close() }()
		log.Info("status API listening", "addr", flags.Listen)
	}

	ctx := context.Background()
	launched := sup.StartAll(ctx, specs)
	if launched == 0 {
		return 1, errors.New("no service could be launched")
	}
	log.Info("all services started, press Ctrl+C to stop", "count", launched)

	return sup.Run(ctx), nil
}
