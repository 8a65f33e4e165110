package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/spendview/internal/config"
	"github.com/cleared-dev/spendview/internal/importer"
	"github.com/cleared-dev/spendview/internal/logging"
	"github.com/cleared-dev/spendview/internal/metrics"
	"github.com/cleared-dev/spendview/internal/model"
	"github.com/cleared-dev/spendview/internal/summary"
	"github.com/cleared-dev/spendview/internal/tracker"
)

type summaryOptions struct {
	from       string
	to         string
	format     string
	out        string
	configPath string
	logLevel   string
}

func newSummaryCommand() *cobra.Command {
	var opts summaryOptions

	cmd := &cobra.Command{
		Use:   "summary [file|dir]...",
		Short: "Summarize credit spending across CSV exports",
		Long: `Reads Wells Fargo CSV exports (directories are scanned for *.csv),
keeps the credit rows dated within --from and --to, and prints each
transaction's share of the total followed by per-file totals.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "", "first day to include, YYYY-MM-DD (default: configured start)")
	cmd.Flags().StringVar(&opts.to, "to", "", "last day to include, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "output format: text, json, csv or xlsx")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write output to this file instead of stdout")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file path")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level override")

	return cmd
}

func runSummary(cmd *cobra.Command, args []string, opts summaryOptions) error {
	switch opts.format {
	case "text", "json", "csv":
	case "xlsx":
		if opts.out == "" {
			return errors.New("xlsx output requires --out")
		}
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}

	cfg, logger, err := loadConfig(cmd, opts.configPath, opts.logLevel)
	if err != nil {
		return err
	}

	svc, err := tracker.NewService(cfg.Range, logger, metrics.New(prometheus.NewRegistry()))
	if err != nil {
		return err
	}

	uploads, err := importer.Load(args)
	if err != nil {
		return err
	}
	if len(uploads) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), tracker.NoFilesMessage)
		return nil
	}

	rng, err := parseRange(svc.DefaultRange(), opts.from, opts.to)
	if err != nil {
		return err
	}

	res, err := svc.Run(uploads, rng)
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), opts, res.Summary)
}

// parseRange overrides the bounds of def with any YYYY-MM-DD values given.
func parseRange(def model.DateRange, from, to string) (model.DateRange, error) {
	rng := def
	if from != "" {
		t, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return rng, fmt.Errorf("parsing --from: %w", err)
		}
		rng.Start = t
	}
	if to != "" {
		t, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return rng, fmt.Errorf("parsing --to: %w", err)
		}
		rng.End = t
	}
	return rng, nil
}

func writeOutput(stdout io.Writer, opts summaryOptions, s summary.Summary) (err error) {
	w := stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing output: %w", cerr)
			}
		}()
		w = f
	}

	switch opts.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "csv":
		return summary.WriteCSV(w, s)
	case "xlsx":
		return summary.WriteXLSX(w, s)
	default:
		return summary.WriteText(w, s)
	}
}

// loadConfig resolves the config file and builds a stderr logger from it.
func loadConfig(cmd *cobra.Command, path, level string) (*config.Config, *slog.Logger, error) {
	cfg, loaded, err := config.Resolve(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if level != "" {
		cfg.Log.Level = level
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	if loaded != "" {
		logger.Debug("loaded config", "path", loaded)
	}
	return cfg, logger, nil
}
