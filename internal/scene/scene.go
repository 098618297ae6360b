// Package scene describes the initial entities of a world in YAML or JSON.
package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/world"
	"github.com/zeusync/tickworld/pkg/geom"
)

// Scene is the list of entities spawned when a world starts.
type Scene struct {
	Name     string   `json:"name" yaml:"name"`
	Entities []Entity `json:"entities" yaml:"entities"`
}

// Entity lists the components of one entity. Absent fields mean no component.
type Entity struct {
	Position *Vec3  `json:"position,omitempty" yaml:"position,omitempty"`
	Rotation *Quat  `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	Size     *Size  `json:"size,omitempty" yaml:"size,omitempty"`
	Color    string `json:"color,omitempty" yaml:"color,omitempty"`
	Mesh     string `json:"mesh,omitempty" yaml:"mesh,omitempty"`
}

type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

type Quat struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
	W float64 `json:"w" yaml:"w"`
}

type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Depth  float64 `json:"depth" yaml:"depth"`
}

// LoadJSON loads a scene from a JSON reader. Unknown fields are rejected.
func LoadJSON(r io.Reader) (*Scene, error) {
	var s Scene
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, err
	}
	return &s, s.Validate()
}

// LoadYAML loads a scene from a YAML reader. Unknown fields are rejected.
func LoadYAML(r io.Reader) (*Scene, error) {
	var s Scene
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, err
	}
	return &s, s.Validate()
}

// LoadFile picks the decoder from the file extension.
func LoadFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(f)
	case ".yaml", ".yml":
		return LoadYAML(f)
	default:
		return nil, fmt.Errorf("unsupported scene format: %s", path)
	}
}

func (s *Scene) Validate() error {
	for i, e := range s.Entities {
		if e.Color != "" {
			if _, err := geom.ParseHexColor(e.Color); err != nil {
				return fmt.Errorf("entity %d: %w", i, err)
			}
		}
		if e.Size != nil && (e.Size.Width <= 0 || e.Size.Height <= 0 || e.Size.Depth <= 0) {
			return fmt.Errorf("entity %d: size must be positive", i)
		}
	}
	return nil
}

// Spawn creates the scene's entities in w, in file order, and returns their ids.
func (s *Scene) Spawn(w *world.World) ([]models.EntityID, error) {
	ids := make([]models.EntityID, 0, len(s.Entities))
	for i, def := range s.Entities {
		e := w.CreateEntity()
		for _, c := range def.components(e.ID()) {
			if err := w.AddComponent(e, c); err != nil {
				return ids, fmt.Errorf("spawn entity %d: %w", i, err)
			}
		}
		ids = append(ids, e.ID())
	}
	return ids, nil
}

func (def Entity) components(id models.EntityID) []models.Component {
	var out []models.Component
	if def.Position != nil {
		out = append(out, models.NewPositionComponent(id, def.Position.X, def.Position.Y, def.Position.Z))
	}
	if def.Rotation != nil {
		q := geom.Quat{X: def.Rotation.X, Y: def.Rotation.Y, Z: def.Rotation.Z, W: def.Rotation.W}.Normalize()
		out = append(out, models.NewRotationComponent(id, q.X, q.Y, q.Z, q.W))
	}
	if def.Size != nil {
		out = append(out, models.NewSizeComponent(id, def.Size.Width, def.Size.Height, def.Size.Depth))
	}
	if def.Color != "" {
		// Validated on load.
		c, _ := geom.ParseHexColor(def.Color)
		out = append(out, models.NewColorComponent(id, c))
	}
	if def.Mesh != "" {
		out = append(out, models.NewServerMeshComponent(id, def.Mesh))
	}
	return out
}
