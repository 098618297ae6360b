package systems

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/tickworld/internal/core/events"
	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/observability/log"
	"github.com/zeusync/tickworld/internal/core/world"
)

// MeshLoader loads the asset named by a ServerMeshComponent. Events raised while loading go
// to emit; they reach the world only if the load succeeds.
type MeshLoader interface {
	LoadMesh(ctx context.Context, entity models.EntityID, path string, emit events.Emitter) error
}

// MeshLoaderFunc adapts a function to MeshLoader.
type MeshLoaderFunc func(ctx context.Context, entity models.EntityID, path string, emit events.Emitter) error

func (f MeshLoaderFunc) LoadMesh(ctx context.Context, entity models.EntityID, path string, emit events.Emitter) error {
	return f(ctx, entity, path, emit)
}

type meshLoad struct {
	entity   models.EntityID
	path     string
	deferred *events.Deferred
	err      error
}

// ServerMeshSystem is the client's awaited load phase: Update blocks until every mesh
// announced this frame has loaded. Loads run concurrently, each buffering its events in its
// own Deferred; successful buffers are flushed into the live queue in announcement order
// before Update returns, so systems later in the frame see them.
type ServerMeshSystem struct {
	loader      MeshLoader
	logger      log.Log
	timeout     time.Duration
	concurrency int

	loaded map[models.EntityID]string
}

func NewServerMeshSystem(loader MeshLoader, timeout time.Duration, logger log.Log) *ServerMeshSystem {
	if logger == nil {
		logger = log.NewNop()
	}
	return &ServerMeshSystem{
		loader:      loader,
		logger:      logger.With(log.String("system", "server_mesh")),
		timeout:     timeout,
		concurrency: 8,
		loaded:      make(map[models.EntityID]string),
	}
}

func (s *ServerMeshSystem) Name() string { return "server_mesh" }

// Loaded returns the mesh path loaded for an entity.
func (s *ServerMeshSystem) Loaded(id models.EntityID) (string, bool) {
	path, ok := s.loaded[id]
	return path, ok
}

func (s *ServerMeshSystem) Update(ctx context.Context, w *world.World, _ time.Duration) error {
	for _, ev := range events.EventsOf[*models.EntityDestroyedEvent](w.Events(), models.KindEntityDestroyed) {
		delete(s.loaded, ev.EntityID())
	}
	for _, removed := range w.Events().EventsWrapped(models.KindComponentRemovedEvent, models.KindServerMesh) {
		delete(s.loaded, removed.EntityID())
	}

	added := w.Events().EventsWrapped(models.KindComponentAddedEvent, models.KindServerMesh)
	if len(added) == 0 || s.loader == nil {
		return nil
	}

	loads := make([]*meshLoad, 0, len(added))
	for _, wrapper := range added {
		mesh, ok := wrapper.Payload().(*models.ServerMeshComponent)
		if !ok {
			continue
		}
		if s.loaded[mesh.EntityID()] == mesh.Path {
			continue
		}
		loads = append(loads, &meshLoad{entity: mesh.EntityID(), path: mesh.Path, deferred: events.NewDeferred()})
	}
	if len(loads) == 0 {
		return nil
	}

	loadCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, l := range loads {
		g.Go(func() error {
			l.err = s.loader.LoadMesh(loadCtx, l.entity, l.path, l.deferred)
			return nil
		})
	}
	_ = g.Wait()

	logger := s.logger.WithContext(ctx)
	var failed int
	for _, l := range loads {
		if l.err != nil {
			failed++
			l.deferred.Discard()
			logger.Error("Mesh load failed",
				log.Uint64("entity_id", uint64(l.entity)),
				log.String("path", l.path),
				log.Error(l.err))
			continue
		}
		w.Events().Flush(l.deferred)
		s.loaded[l.entity] = l.path
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d mesh loads failed", failed, len(loads))
	}
	return nil
}
