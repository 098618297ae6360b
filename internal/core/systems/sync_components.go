package systems

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/observability/log"
	"github.com/zeusync/tickworld/internal/core/protocol"
	"github.com/zeusync/tickworld/internal/core/world"
)

type recordKey struct {
	entity models.EntityID
	kind   models.Kind
}

// SyncComponentsSystem applies replicated records received from the server to the client
// world. Frames are queued by the receive goroutine and applied in arrival order at the
// start of the next frame. A record byte-identical to the last one applied for the same
// entity and kind is skipped.
type SyncComponentsSystem struct {
	logger log.Log

	mu      sync.Mutex
	pending []protocol.Frame

	applied  map[recordKey]uint64
	lastTick uint64
}

func NewSyncComponentsSystem(logger log.Log) *SyncComponentsSystem {
	if logger == nil {
		logger = log.NewNop()
	}
	return &SyncComponentsSystem{
		logger:  logger.With(log.String("system", "sync_components")),
		applied: make(map[recordKey]uint64),
	}
}

func (s *SyncComponentsSystem) Name() string { return "sync_components" }

// Enqueue hands a received frame to the system. Safe for concurrent use.
func (s *SyncComponentsSystem) Enqueue(frame protocol.Frame) {
	s.mu.Lock()
	s.pending = append(s.pending, frame)
	s.mu.Unlock()
}

// Pending returns how many frames wait to be applied.
func (s *SyncComponentsSystem) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// LastTick is the server tick of the most recently applied frame.
func (s *SyncComponentsSystem) LastTick() uint64 {
	return s.lastTick
}

func (s *SyncComponentsSystem) Update(ctx context.Context, w *world.World, _ time.Duration) error {
	s.mu.Lock()
	frames := s.pending
	s.pending = nil
	s.mu.Unlock()

	logger := s.logger.WithContext(ctx)
	var all error
	for _, frame := range frames {
		for _, raw := range frame.Records {
			if err := s.apply(w, raw); err != nil {
				logger.Warn("Dropping record", log.Uint64("server_tick", frame.Tick), log.Error(err))
				all = errors.Join(all, err)
			}
		}
		if frame.Tick > s.lastTick {
			s.lastTick = frame.Tick
		}
	}
	return all
}

func (s *SyncComponentsSystem) apply(w *world.World, raw json.RawMessage) error {
	record, err := protocol.DecodeRecord(raw)
	if err != nil {
		return err
	}
	id := record.Entity()

	switch rec := record.(type) {
	case models.EntityDestroyedRecord:
		s.forget(id)
		w.DestroyEntity(id)
		return nil

	case models.ComponentRemovedRecord:
		delete(s.applied, recordKey{entity: id, kind: rec.Removed})
		if e, ok := w.Entity(id); ok && !e.IsDestroyed() {
			w.RemoveComponent(e, rec.Removed)
		}
		return nil

	case models.ChatMessageRecord:
		w.Events().AddEvent(models.NewChatMessageEvent(id, rec.Sender, rec.Content))
		return nil

	case models.InputRecord:
		// Input only travels client to server.
		return nil
	}

	key := recordKey{entity: id, kind: record.Tag()}
	sum := xxhash.Sum64(raw)
	if last, ok := s.applied[key]; ok && last == sum {
		return nil
	}

	c, err := protocol.ToComponent(record)
	if err != nil {
		return err
	}

	e, ok := w.Entity(id)
	if !ok {
		if e, err = w.CreateEntityWithID(id); err != nil {
			return err
		}
	}
	if e.IsDestroyed() {
		return nil
	}

	if e.HasComponent(c.Kind()) {
		// Changed state: replaced in place and announced locally, as the server announced it.
		if err := e.AddComponent(c); err != nil {
			return err
		}
		w.Events().OnComponentAdded(c)
	} else if err := w.AddComponent(e, c); err != nil {
		return err
	}
	s.applied[key] = sum
	return nil
}

func (s *SyncComponentsSystem) forget(id models.EntityID) {
	for key := range s.applied {
		if key.entity == id {
			delete(s.applied, key)
		}
	}
}
