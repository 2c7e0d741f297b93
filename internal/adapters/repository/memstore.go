package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/splits/internal/domain/model"
	"github.com/okian/splits/pkg/metrics"
)

// MemoryStore is a bounded, in-memory Store. Reports are evicted in
// insertion order once capacity is reached.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]model.Report
	order    []string // oldest first
	capacity int

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs a store and starts its metrics updater, which
// runs until ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:                  make(map[string]model.Report),
		capacity:              256,
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background goroutine.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Put implements Store.Put.
func (s *MemoryStore) Put(ctx context.Context, r model.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ID == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[r.ID]; ok {
		return ErrDuplicateID
	}
	for len(s.order) >= s.capacity {
		delete(s.byID, s.order[0])
		s.order = s.order[1:]
	}
	s.byID[r.ID] = r
	s.order = append(s.order, r.ID)
	metrics.UpdateStoredReports(len(s.order))
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.Report, error) {
	if err := ctx.Err(); err != nil {
		return model.Report{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return model.Report{}, ErrNotFound
	}
	return r, nil
}

// Recent implements Store.Recent.
func (s *MemoryStore) Recent(ctx context.Context, n int) ([]model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.order) {
		n = len(s.order)
	}
	out := make([]model.Report, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.byID[s.order[i]])
	}
	return out, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateStoredReports(s.Count(ctx))
			}
		}
	}()
}
