package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/spendview/internal/metrics"
	"github.com/cleared-dev/spendview/internal/server"
	"github.com/cleared-dev/spendview/internal/tracker"
)

func newServeCommand() *cobra.Command {
	var addr, configPath, logLevel string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload and summary HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr, configPath, logLevel)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config and SPENDVIEW_ADDR)")
	cmd.Flags().StringVar(&configPath, "config", "", "config file path")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level override")

	return cmd
}

func runServe(cmd *cobra.Command, addr, configPath, logLevel string) error {
	// A .env file is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, logger, err := loadConfig(cmd, configPath, logLevel)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if addr != "" {
		cfg.Server.Addr = addr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	svc, err := tracker.NewService(cfg.Range, logger, m)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg.Server, svc, m, reg, logger).Run(ctx)
}
