package scene

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/world"
	"github.com/zeusync/tickworld/pkg/geom"
)

const arenaYAML = `
name: arena
entities:
  - position: {x: 1, y: 2, z: 3}
    rotation: {x: 0, y: 0, z: 0, w: 2}
    size: {width: 2, height: 1, depth: 1}
    color: "#ff0000"
    mesh: meshes/tree.glb
  - position: {x: -1, y: 0, z: 0}
`

func TestLoadYAMLAndSpawn(t *testing.T) {
	sc, err := LoadYAML(strings.NewReader(arenaYAML))
	require.NoError(t, err)
	assert.Equal(t, "arena", sc.Name)
	require.Len(t, sc.Entities, 2)

	w := world.New(nil)
	ids, err := sc.Spawn(w)
	require.NoError(t, err)
	assert.Equal(t, []models.EntityID{1, 2}, ids)

	e, ok := w.Entity(ids[0])
	require.True(t, ok)
	assert.Equal(t, []models.Kind{
		models.KindPosition, models.KindRotation, models.KindSize, models.KindColor, models.KindServerMesh,
	}, e.Kinds())

	rot, ok := models.Get[*models.RotationComponent](e, models.KindRotation)
	require.True(t, ok)
	assert.Equal(t, geom.IdentityQuat, rot.Quat, "rotations are normalized")

	color, ok := models.Get[*models.ColorComponent](e, models.KindColor)
	require.True(t, ok)
	assert.Equal(t, geom.Color{R: 1}, color.Value)

	// Every spawned broadcast component is announced for the network.
	assert.Len(t, w.Events().NetworkEvents(), 6)
}

func TestLoadJSON(t *testing.T) {
	sc, err := LoadJSON(strings.NewReader(`{"name":"tiny","entities":[{"mesh":"a.glb"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "a.glb", sc.Entities[0].Mesh)
}

func TestUnknownFieldsAreRejected(t *testing.T) {
	_, err := LoadYAML(strings.NewReader("entities:\n  - mesh: a.glb\n    tags: [floor]\n"))
	assert.ErrorContains(t, err, "tags")

	_, err = LoadJSON(strings.NewReader(`{"entities":[{"mesh":"a.glb","tags":["floor"]}]}`))
	assert.ErrorContains(t, err, "tags")
}

func TestValidate(t *testing.T) {
	_, err := LoadYAML(strings.NewReader("entities:\n  - color: purple\n"))
	assert.ErrorContains(t, err, "entity 0")

	_, err = LoadYAML(strings.NewReader("entities:\n  - {}\n  - size: {width: 0, height: 1, depth: 1}\n"))
	assert.ErrorContains(t, err, "entity 1: size must be positive")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "arena.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(arenaYAML), 0o600))
	sc, err := LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Len(t, sc.Entities, 2)

	txtPath := filepath.Join(dir, "arena.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte(arenaYAML), 0o600))
	_, err = LoadFile(txtPath)
	assert.ErrorContains(t, err, "unsupported scene format")

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestBundledArenaScene(t *testing.T) {
	sc, err := LoadFile(filepath.Join("..", "..", "scenes", "arena.yaml"))
	require.NoError(t, err)

	ids, err := sc.Spawn(world.New(nil))
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	q := sc.Entities[1].Rotation
	require.NotNil(t, q)
	assert.Less(t, math.Abs(q.Y*q.Y+q.W*q.W-1), 0.01)
}
