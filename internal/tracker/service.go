package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cleared-dev/spendview/internal/config"
	"github.com/cleared-dev/spendview/internal/importer"
	"github.com/cleared-dev/spendview/internal/ledger"
	"github.com/cleared-dev/spendview/internal/metrics"
	"github.com/cleared-dev/spendview/internal/model"
	"github.com/cleared-dev/spendview/internal/summary"
)

// ErrInvalidRange is returned when a date range is reversed or out of bounds.
var ErrInvalidRange = errors.New("invalid date range")

// NoFilesMessage is shown when a run has nothing to analyze.
const NoFilesMessage = "Upload a CSV to start"

// Service runs the ingest-classify-summarize pipeline. It holds no state
// between runs: every Run rebuilds partitions and totals from its inputs.
type Service struct {
	parser       importer.Parser
	defaultStart time.Time
	minDate      time.Time
	now          func() time.Time
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the clock used for "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service bounded by the configured dates.
func NewService(rc config.RangeConfig, logger *slog.Logger, m *metrics.Metrics, opts ...Option) (*Service, error) {
	defaultStart, minDate, err := rc.Dates()
	if err != nil {
		return nil, err
	}
	s := &Service{
		parser:       &importer.WellsFargoParser{},
		defaultStart: model.Day(defaultStart),
		minDate:      model.Day(minDate),
		now:          time.Now,
		logger:       logger,
		metrics:      m,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Result is the outcome of one Run.
type Result struct {
	// Empty is set when no files were given; nothing else is populated.
	Empty   bool
	Book    *ledger.Book
	Summary summary.Summary
}

// Today returns the current calendar date.
func (s *Service) Today() time.Time { return model.Day(s.now()) }

// MinDate returns the earliest selectable date.
func (s *Service) MinDate() time.Time { return s.minDate }

// DefaultRange returns [default start, today], clamped to [min date, today].
func (s *Service) DefaultRange() model.DateRange {
	today := s.Today()
	start := s.defaultStart
	if start.Before(s.minDate) {
		start = s.minDate
	}
	if start.After(today) {
		start = today
	}
	return model.DateRange{Start: start, End: today}
}

// ValidateRange checks that rng is ordered and inside [min date, today].
func (s *Service) ValidateRange(rng model.DateRange) error {
	today := s.Today()
	switch {
	case rng.Start.After(rng.End):
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange,
			rng.Start.Format(time.DateOnly), rng.End.Format(time.DateOnly))
	case rng.Start.Before(s.minDate):
		return fmt.Errorf("%w: start %s is before %s", ErrInvalidRange,
			rng.Start.Format(time.DateOnly), s.minDate.Format(time.DateOnly))
	case rng.End.After(today):
		return fmt.Errorf("%w: end %s is after today (%s)", ErrInvalidRange,
			rng.End.Format(time.DateOnly), today.Format(time.DateOnly))
	}
	return nil
}

// Run ingests uploads and summarizes credits within rng. No uploads
// short-circuits to an Empty result. Any malformed file fails the run.
func (s *Service) Run(uploads []importer.Upload, rng model.DateRange) (*Result, error) {
	started := s.now()
	rng = model.NewDateRange(rng.Start, rng.End)

	if len(uploads) == 0 {
		s.metrics.RecordRun(metrics.OutcomeEmpty, s.now().Sub(started))
		s.logger.Info("no files uploaded")
		return &Result{Empty: true}, nil
	}

	if err := s.ValidateRange(rng); err != nil {
		s.metrics.RecordRun(metrics.OutcomeInvalidRange, s.now().Sub(started))
		return nil, err
	}

	book, err := ledger.Ingest(s.parser, uploads)
	if err != nil {
		s.metrics.RecordRun(metrics.OutcomeIngestError, s.now().Sub(started))
		s.logger.Error("ingestion failed", "files", len(uploads), "error", err)
		return nil, fmt.Errorf("ingesting: %w", err)
	}

	for _, f := range book.Files {
		s.metrics.RecordFile(metrics.FileParsed)
		s.logger.Debug("file ingested", "source", f.Source, "hash", f.Hash, "credit_total", f.Total.StringFixed(2))
	}
	for _, name := range book.Duplicates {
		s.metrics.RecordFile(metrics.FileDuplicate)
		s.logger.Warn("skipping duplicate upload", "name", name)
	}
	s.metrics.RecordPartitions(book.Partitions)

	sum := summary.Build(book.Partitions.Credits, rng, book.Files)

	s.metrics.RecordSpend(sum.GrandTotal.InexactFloat64())
	s.metrics.RecordRun(metrics.OutcomeOK, s.now().Sub(started))
	s.logger.Info("summary built",
		"range", rng.String(),
		"files", len(book.Files),
		"credits", len(book.Partitions.Credits),
		"debits", len(book.Partitions.Debits),
		"zeros", len(book.Partitions.Zeros),
		"in_range", len(sum.Slices),
		"grand_total", sum.GrandTotal.StringFixed(2),
	)

	return &Result{Book: book, Summary: sum}, nil
}
