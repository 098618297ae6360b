package systems

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/observability/log"
	"github.com/zeusync/tickworld/internal/core/world"
)

// System represents a game logic processor run once per tick or frame.
type System interface {
	Name() string
	Update(ctx context.Context, w *world.World, dt time.Duration) error
}

// AfterUpdater is implemented by systems that need a hook once every system has run.
type AfterUpdater interface {
	AfterUpdate(ctx context.Context, w *world.World, entities []*models.Entity)
}

// Metrics provides per-system execution statistics
type Metrics struct {
	Executions         uint64
	Errors             uint64
	LastExecutionTime  time.Duration
	TotalExecutionTime time.Duration
}

// Scheduler runs systems in registration order. After the update pass it runs every
// AfterUpdater in the same order, then drains the world's event queue, so events raised in
// a tick are visible to every system of that tick and to no later one.
type Scheduler struct {
	systems []System
	logger  log.Log

	mu      sync.Mutex
	metrics map[string]*Metrics
}

func NewScheduler(logger log.Log, systems ...System) *Scheduler {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Scheduler{
		logger:  logger.With(log.String("component", "scheduler")),
		metrics: make(map[string]*Metrics),
	}
	for _, sys := range systems {
		s.Register(sys)
	}
	return s
}

// Register appends sys to the execution order.
func (s *Scheduler) Register(sys System) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systems = append(s.systems, sys)
	if _, ok := s.metrics[sys.Name()]; !ok {
		s.metrics[sys.Name()] = &Metrics{}
	}
}

// Order returns the system names in execution order.
func (s *Scheduler) Order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.systems))
	for i, sys := range s.systems {
		names[i] = sys.Name()
	}
	return names
}

// Run executes one pass. A cancelled ctx is only checked before the pass starts; once a
// system has run, the tick completes and the event queue is drained. A failing system is
// logged and does not stop the others; the joined errors are returned.
func (s *Scheduler) Run(ctx context.Context, w *world.World, dt time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	systems := append([]System(nil), s.systems...)
	s.mu.Unlock()

	var all error
	for _, sys := range systems {
		start := time.Now()
		err := sys.Update(ctx, w, dt)
		s.record(sys.Name(), time.Since(start), err)
		if err != nil {
			s.logger.WithContext(ctx).Error("System update failed",
				log.String("system", sys.Name()),
				log.Error(err))
			all = errors.Join(all, err)
		}
	}

	entities := w.Entities()
	for _, sys := range systems {
		if after, ok := sys.(AfterUpdater); ok {
			after.AfterUpdate(ctx, w, entities)
		}
	}
	w.Events().AfterUpdate(entities)
	return all
}

func (s *Scheduler) record(name string, elapsed time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.metrics[name]
	if !ok {
		m = &Metrics{}
		s.metrics[name] = m
	}
	m.Executions++
	m.LastExecutionTime = elapsed
	m.TotalExecutionTime += elapsed
	if err != nil {
		m.Errors++
	}
}

func (s *Scheduler) GetMetrics(name string) (Metrics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.metrics[name]
	if !ok {
		return Metrics{}, false
	}
	return *m, true
}
