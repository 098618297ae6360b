package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeusync/tickworld/internal/core/events"
	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/observability/log"
)

// FileMeshLoader resolves mesh paths against a local asset directory. It only checks that
// the asset exists; a renderer would parse it here.
type FileMeshLoader struct {
	Root string
}

func (l FileMeshLoader) LoadMesh(ctx context.Context, _ models.EntityID, path string, _ events.Emitter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := filepath.Join(l.Root, filepath.Clean("/"+path))
	info, err := os.Stat(full)
	if err != nil {
		return fmt.Errorf("mesh %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("mesh %s is a directory", path)
	}
	return nil
}

// LogHUD writes chat lines to a logger.
type LogHUD struct {
	Logger log.Log
}

func (h LogHUD) ShowChat(sender, content string) {
	h.Logger.Info("Chat", log.String("sender", sender), log.String("content", content))
}
