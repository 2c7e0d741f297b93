// Package service ties parsing, estimation and output together and runs the
// watch-mode job pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/splits/internal/adapters/mq/queue"
	workerpool "github.com/okian/splits/internal/adapters/mq/worker"
	"github.com/okian/splits/internal/adapters/repository"
	"github.com/okian/splits/internal/adapters/sink"
	"github.com/okian/splits/internal/adapters/source"
	"github.com/okian/splits/internal/domain/dedupe"
	"github.com/okian/splits/internal/domain/estimator"
	"github.com/okian/splits/internal/domain/model"
	"github.com/okian/splits/internal/domain/timecodec"
	"github.com/okian/splits/pkg/logger"
	"github.com/okian/splits/pkg/metrics"
)

const stopTimeout = 30 * time.Second

// Service runs estimations and keeps their reports.
type Service struct {
	mu sync.RWMutex

	// Core components
	reports    *repository.MemoryStore
	deduper    dedupe.Deduper
	jobQueue   *jobqueue.InMemoryQueue
	workerPool *workerpool.Pool

	// Configuration
	layout      model.Layout
	lenient     bool
	parallelism int
	render      sink.Render
	outFormat   sink.Format
	outDir      string
	workerCount int
	queueSize   int
	dedupeSize  int
	storeSize   int

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Request is one cohort to estimate.
type Request struct {
	Source  string       // file name or request label recorded in the report
	Table   model.Table  // raw text table
	Layout  model.Layout // zero value uses the service layout
	Lenient bool
}

// Outcome is a stored report plus the patched table.
type Outcome struct {
	Report model.Report
	Table  model.Table
}

// New constructs a Service. The report store is ready immediately; the job
// pipeline starts with Start.
func New(opts ...Option) *Service {
	s := &Service{
		layout:      model.DefaultLayout(),
		parallelism: runtime.NumCPU(),
		render:      sink.RenderSeconds,
		outFormat:   sink.FormatCSV,
		workerCount: 2,
		queueSize:   1024,
		dedupeSize:  10_000,
		storeSize:   256,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.Named("service")
	s.reports = repository.NewMemoryStore(context.Background(), repository.WithCapacity(s.storeSize))
	return s
}

// Layout returns the default layout.
func (s *Service) Layout() model.Layout { return s.layout }

// Lenient reports the default rejection mode.
func (s *Service) Lenient() bool { return s.lenient }

// Render returns the default render mode.
func (s *Service) Render() sink.Render { return s.render }

// OutputFormat returns the format ProcessFile writes.
func (s *Service) OutputFormat() sink.Format { return s.outFormat }

// Start initializes and starts the watch-mode job pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.outDir == "" {
		return ErrNoOutDir
	}
	if err := os.MkdirAll(s.outDir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	s.logger.Info(ctx, "starting fill service...")

	// Workers outlive ctx so Stop can drain the queue; Stop cancels after
	// the pool has shut down.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s, workerpool.WithLogger(s.logger))
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "fill service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("outDir", s.outDir),
	)
	return nil
}

// Stop drains queued jobs, stops workers and closes the report store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	if s.started {
		s.logger.Info(ctx, "stopping fill service...")
		sctx, cancel := context.WithTimeout(ctx, stopTimeout)
		if err := s.workerPool.Shutdown(sctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
		cancel()
		s.cancel()
		s.started = false
		s.logger.Info(ctx, "fill service stopped")
	}
	_ = s.reports.Close()
}

// Process estimates one cohort and stores its report.
func (s *Service) Process(ctx context.Context, req Request) (Outcome, error) {
	out, err := s.estimate(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	if err := s.reports.Put(ctx, out.Report); err != nil {
		return Outcome{}, fmt.Errorf("store report: %w", err)
	}
	return out, nil
}

// ProcessFile reads path, estimates it with the service defaults and writes
// the result to the output directory.
func (s *Service) ProcessFile(ctx context.Context, path string) (model.Report, error) {
	if s.outDir == "" {
		return model.Report{}, ErrNoOutDir
	}
	table, err := source.ReadFile(ctx, path)
	if err != nil {
		return model.Report{}, err
	}
	out, err := s.estimate(ctx, Request{Source: path, Table: table, Lenient: s.lenient})
	if err != nil {
		return model.Report{}, err
	}

	dest := sink.FilledPath(s.outDir, path, s.outFormat)
	if err := writeFile(dest, out.Table, s.outFormat, s.render); err != nil {
		return model.Report{}, err
	}
	out.Report.Output = dest
	if err := s.reports.Put(ctx, out.Report); err != nil {
		return model.Report{}, fmt.Errorf("store report: %w", err)
	}
	s.logger.Info(ctx, "filled file",
		logger.String("input", path),
		logger.String("output", dest),
		logger.Int("rows", out.Report.Rows),
		logger.Int("estimated", out.Report.Estimated),
		logger.Int("rejected", len(out.Report.Rejected)),
	)
	return out.Report, nil
}

// ProcessJob implements worker.Processor.
func (s *Service) ProcessJob(ctx context.Context, j model.Job) error {
	_, err := s.ProcessFile(ctx, j.Path)
	return err
}

// Submit queues path unless this version of the file was already seen.
func (s *Service) Submit(ctx context.Context, path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return ErrNotStarted
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return nil
	}

	version := dedupe.Version(fi)
	key := dedupe.Key(path, version)
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordJobDuplicate()
		s.logger.Debug(ctx, "duplicate file event, skipping", logger.String("path", path))
		return nil
	}

	job := model.Job{ID: uuid.NewString(), Path: path, Version: version, Enqueued: time.Now()}
	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, key)
		return fmt.Errorf("enqueue %s: %w", path, err)
	}
	s.logger.Debug(ctx, "queued file", logger.String("job_id", job.ID), logger.String("path", path))
	return nil
}

// Report returns a stored report.
func (s *Service) Report(ctx context.Context, id string) (model.Report, error) {
	return s.reports.Get(ctx, id)
}

// Reports returns up to n reports, newest first.
func (s *Service) Reports(ctx context.Context, n int) ([]model.Report, error) {
	return s.reports.Recent(ctx, n)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"segments":    s.layout.Segments,
		"totalKey":    s.layout.TotalKey,
		"lenient":     s.lenient,
		"reports":     s.reports.Count(ctx),
	}

	if s.started {
		processed, failed := s.workerPool.Processed()
		stats["queueLength"] = s.jobQueue.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
		stats["jobsProcessed"] = processed
		stats["jobsFailed"] = failed
	}
	return stats
}

// estimate parses, estimates and summarises a cohort without storing it.
func (s *Service) estimate(ctx context.Context, req Request) (Outcome, error) {
	start := time.Now()
	layout := req.Layout
	if len(layout.Segments) == 0 && layout.TotalKey == "" {
		layout = s.layout
	}
	if err := layout.Validate(); err != nil {
		return Outcome{}, err
	}
	if err := layout.CheckHeader(req.Table.Columns); err != nil {
		metrics.RecordCohortError(reason(err))
		return Outcome{}, err
	}

	// Parse every row; idx maps cohort positions back to table rows.
	var (
		cohort   = make([]model.Row, 0, len(req.Table.Rows))
		idx      = make([]int, 0, len(req.Table.Rows))
		rejected []model.Rejection
	)
	for i, raw := range req.Table.Rows {
		row, err := timecodec.ParseRow(raw, layout)
		if err != nil {
			metrics.RecordRowRejected(reason(err))
			if !req.Lenient {
				metrics.RecordCohortError(reason(err))
				return Outcome{}, &estimator.RowError{Index: i, Err: err}
			}
			rejected = append(rejected, model.Rejection{Index: i, Reason: err.Error()})
			continue
		}
		cohort = append(cohort, row)
		idx = append(idx, i)
	}
	metrics.RecordRowsParsed(len(cohort))

	est := estimator.New(layout,
		estimator.WithParallelism(s.parallelism),
		estimator.WithLenient(req.Lenient),
	)
	res, err := est.Estimate(ctx, cohort)
	if err != nil {
		metrics.RecordCohortError(reason(err))
		var rerr *estimator.RowError
		if errors.As(err, &rerr) {
			return Outcome{}, &estimator.RowError{Index: idx[rerr.Index], Err: rerr.Err}
		}
		return Outcome{}, err
	}

	dropped := make(map[int]struct{}, len(res.Rejected))
	for _, r := range res.Rejected {
		dropped[r.Index] = struct{}{}
		metrics.RecordRowRejected(reason(r.Err))
		rejected = append(rejected, model.Rejection{Index: idx[r.Index], Reason: r.Err.Error()})
	}
	sort.Slice(rejected, func(a, b int) bool { return rejected[a].Index < rejected[b].Index })

	for i, row := range cohort {
		if _, ok := dropped[i]; ok {
			continue
		}
		for _, seg := range estimator.Missing(row, layout) {
			metrics.RecordSegmentEstimated(seg)
		}
	}
	metrics.RecordRowsPatched(res.Patched)

	took := time.Since(start)
	metrics.RecordCohortProcessed(took.Seconds())

	if rejected == nil {
		rejected = []model.Rejection{}
	}
	report := model.Report{
		ID:          uuid.NewString(),
		Source:      req.Source,
		CreatedAt:   start.UTC(),
		Duration:    took,
		Layout:      layout,
		Proportions: res.Proportions.Floats(),
		Rows:        len(req.Table.Rows),
		Patched:     res.Patched,
		Estimated:   res.Estimated,
		Rejected:    rejected,
	}
	return Outcome{
		Report: report,
		Table:  model.Table{Columns: req.Table.Columns, Rows: res.Rows},
	}, nil
}

// writeFile writes through a hidden temp file and renames it into place, so
// readers and the directory watcher never see a partial output.
func writeFile(dest string, t model.Table, f sink.Format, r sink.Render) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+"-*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := sink.Write(tmp, t, f, sink.WithRender(r)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

// reason maps an error to a metrics label.
func reason(err error) string {
	switch {
	case errors.Is(err, timecodec.ErrFormat):
		return "format"
	case errors.Is(err, estimator.ErrNegativeUncounted):
		return "negative_uncounted"
	case errors.Is(err, estimator.ErrDegenerateRow):
		return "degenerate_row"
	case errors.Is(err, estimator.ErrDegenerateCohort):
		return "degenerate_cohort"
	case errors.Is(err, estimator.ErrUnknownSegment):
		return "unknown_segment"
	case errors.Is(err, estimator.ErrColumn):
		return "column"
	case errors.Is(err, model.ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
