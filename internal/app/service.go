// Package service evaluates time-dependent ROC and precision-recall curves on
// behalf of the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/okian/survcurve/pkg/frame"
	"github.com/okian/survcurve/pkg/logger"
	"github.com/okian/survcurve/pkg/metrics"
	"github.com/okian/survcurve/pkg/survival"
)

// Kind selects which curves an evaluation returns.
type Kind string

// Evaluation kinds.
const (
	KindROC Kind = "roc"
	KindPR  Kind = "pr"
	KindAll Kind = "all"
)

// ParseKind parses roc, pr or all.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindROC, KindPR, KindAll:
		return k, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownKind)
	}
}

// Request describes one evaluation.
type Request struct {
	Kind Kind
	Data frame.Source
	// Columns left empty fall back to the service defaults.
	Columns  survival.Columns
	Horizons []float64
	// TieMode overrides the service default when set.
	TieMode string
	// Key identifies the request content. Concurrent requests with the same
	// non-empty key share one computation.
	Key string
}

// Result carries the computed curves and their per-horizon summaries.
type Result struct {
	ID               string
	Kind             Kind
	Horizons         []survival.HorizonSummary
	ROC              []survival.ROCRow
	PR               []survival.PRRow
	AUC              []survival.HorizonArea
	AveragePrecision []survival.HorizonArea
	Duration         time.Duration
}

// Service evaluates curve requests.
type Service struct {
	mu sync.RWMutex

	workers         int
	tieMode         survival.TieMode
	columns         survival.Columns
	maxHorizons     int
	maxObservations int

	group   singleflight.Group
	metrics *metrics.Manager
	logger  logger.Logger

	evaluations atomic.Int64
	failures    atomic.Int64
	shared      atomic.Int64
	lastID      string
	lastAt      time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkers bounds concurrent horizon tabulation per evaluation.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithTieMode sets the default tie mode.
func WithTieMode(mode survival.TieMode) Option {
	return func(s *Service) {
		s.tieMode = mode
	}
}

// WithColumns sets the default column names. Empty names are ignored.
func WithColumns(cols survival.Columns) Option {
	return func(s *Service) {
		s.columns = mergeColumns(cols, s.columns)
	}
}

// WithLimits caps horizons and observations per request.
func WithLimits(maxHorizons, maxObservations int) Option {
	return func(s *Service) {
		if maxHorizons > 0 {
			s.maxHorizons = maxHorizons
		}
		if maxObservations > 0 {
			s.maxObservations = maxObservations
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records into m instead of the global manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workers:         runtime.NumCPU(),
		tieMode:         survival.TieStable,
		columns:         survival.Columns{Risk: "risk", Event: "event", Time: "time"},
		maxHorizons:     1_000,
		maxObservations: 5_000_000,
		metrics:         metrics.Global(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.Named("service")
	return s
}

// Evaluate computes the curves req asks for. Requests with the same Key share
// one computation; a caller whose ctx ends stops waiting without cancelling
// the work for the others.
func (s *Service) Evaluate(ctx context.Context, req Request) (*Result, error) {
	if req.Key == "" {
		return s.evaluate(ctx, req)
	}
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(string(req.Kind)+"/"+req.Key, func() (any, error) {
		return s.evaluate(detached, req)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Shared {
			s.shared.Add(1)
		}
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Result), nil
	}
}

func (s *Service) evaluate(ctx context.Context, req Request) (*Result, error) {
	id := uuid.NewString()
	start := time.Now()
	s.metrics.AddInflight(1)
	defer s.metrics.AddInflight(-1)

	res, err := s.compute(ctx, req)
	if err != nil {
		s.failures.Add(1)
		s.metrics.RecordError(ErrorKind(err))
		s.logger.Warn(ctx, "evaluation failed",
			logger.String("id", id),
			logger.String("kind", string(req.Kind)),
			logger.Error(err),
		)
		return nil, err
	}
	res.ID = id
	res.Duration = time.Since(start)

	s.evaluations.Add(1)
	s.mu.Lock()
	s.lastID, s.lastAt = id, start
	s.mu.Unlock()
	s.record(res)
	s.logger.Debug(ctx, "evaluation done",
		logger.String("id", id),
		logger.String("kind", string(res.Kind)),
		logger.Int("horizons", len(res.Horizons)),
		logger.Duration("took", res.Duration),
	)
	return res, nil
}

func (s *Service) compute(ctx context.Context, req Request) (*Result, error) {
	kind, err := ParseKind(string(req.Kind))
	if err != nil {
		return nil, err
	}
	if req.Data == nil {
		return nil, fmt.Errorf("no data: %w", ErrInvalidRequest)
	}
	if len(req.Horizons) > s.maxHorizons {
		return nil, fmt.Errorf("%d > %d: %w", len(req.Horizons), s.maxHorizons, ErrTooManyHorizons)
	}
	mode := s.tieMode
	if req.TieMode != "" {
		if mode, err = survival.ParseTieMode(req.TieMode); err != nil {
			return nil, err
		}
	}
	cols := mergeColumns(req.Columns, s.columns)
	if err := frame.RequireColumns(req.Data, cols.Risk, cols.Event, cols.Time); err != nil {
		return nil, err
	}
	if len(req.Horizons) == 0 {
		return nil, survival.ErrNoHorizons
	}

	f, err := frame.CollectIfLazy(ctx, req.Data)
	if err != nil {
		return nil, err
	}
	if f.Height() > s.maxObservations {
		return nil, fmt.Errorf("%d > %d: %w", f.Height(), s.maxObservations, ErrTooManyObservations)
	}
	obs, err := survival.Observations(f, cols)
	if err != nil {
		return nil, err
	}
	set, err := survival.Curves(ctx, obs, req.Horizons,
		survival.WithTieMode(mode),
		survival.WithWorkers(s.workers),
	)
	if err != nil {
		return nil, err
	}

	res := &Result{Kind: kind, Horizons: set.Horizons}
	if kind != KindPR {
		res.ROC = set.ROC
		res.AUC = survival.AUC(set.ROC)
	}
	if kind != KindROC {
		res.PR = set.PR
		res.AveragePrecision = survival.AveragePrecision(set.PR)
	}
	return res, nil
}

func (s *Service) record(res *Result) {
	s.metrics.RecordEvaluationLatency(float64(res.Duration.Microseconds()) / 1000)
	for _, h := range res.Horizons {
		s.metrics.RecordHorizon(h.TotalPos == 0, h.TotalNeg == 0)
	}
	if res.ROC != nil {
		_ = s.metrics.RecordCurve(metrics.KindROC)
		s.metrics.RecordRowsTabulated(len(res.ROC))
	}
	if res.PR != nil {
		_ = s.metrics.RecordCurve(metrics.KindPR)
		if res.ROC == nil {
			s.metrics.RecordRowsTabulated(len(res.PR))
		}
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"evaluations":     s.evaluations.Load(),
		"failures":        s.failures.Load(),
		"shared":          s.shared.Load(),
		"workers":         s.workers,
		"tieMode":         s.tieMode.String(),
		"maxHorizons":     s.maxHorizons,
		"maxObservations": s.maxObservations,
	}
	if s.lastID != "" {
		stats["lastEvaluationID"] = s.lastID
		stats["lastEvaluationAt"] = s.lastAt.UTC().Format(time.RFC3339)
	}
	return stats
}

func mergeColumns(c, fallback survival.Columns) survival.Columns {
	if c.Risk == "" {
		c.Risk = fallback.Risk
	}
	if c.Event == "" {
		c.Event = fallback.Event
	}
	if c.Time == "" {
		c.Time = fallback.Time
	}
	return c
}

// ErrorKind labels err for metrics and HTTP status mapping.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrTooManyHorizons), errors.Is(err, ErrTooManyObservations):
		return "limit"
	case errors.Is(err, frame.ErrColumnNotFound):
		return "missing_column"
	case errors.Is(err, ErrUnknownKind), errors.Is(err, ErrInvalidRequest),
		errors.Is(err, survival.ErrNoHorizons), errors.Is(err, survival.ErrNullValue),
		errors.Is(err, survival.ErrTieMode), errors.Is(err, frame.ErrKind):
		return "invalid_input"
	default:
		return "internal"
	}
}
