package service

import (
	"github.com/okian/splits/internal/adapters/sink"
	"github.com/okian/splits/internal/domain/model"
	"github.com/okian/splits/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLayout sets the default segment layout.
func WithLayout(l model.Layout) Option {
	return func(s *Service) {
		if len(l.Segments) > 0 && l.TotalKey != "" {
			s.layout = l
		}
	}
}

// WithLenient makes rejected rows drop out of the output instead of failing
// the whole cohort.
func WithLenient(lenient bool) Option {
	return func(s *Service) {
		s.lenient = lenient
	}
}

// WithParallelism bounds the goroutines used by the patch pass.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithRender sets how durations are written to output files.
func WithRender(r sink.Render) Option {
	return func(s *Service) {
		if r != "" {
			s.render = r
		}
	}
}

// WithOutputFormat sets the format of files written by ProcessFile.
func WithOutputFormat(f sink.Format) Option {
	return func(s *Service) {
		if f != "" {
			s.outFormat = f
		}
	}
}

// WithOutDir sets where ProcessFile writes filled files.
func WithOutDir(dir string) Option {
	return func(s *Service) {
		s.outDir = dir
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the file-version deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithReportStoreSize bounds how many reports are kept.
func WithReportStoreSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.storeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
