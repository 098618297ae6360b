package models

import "github.com/zeusync/tickworld/pkg/geom"

var (
	_ NetworkComponent = (*PositionComponent)(nil)
	_ NetworkComponent = (*RotationComponent)(nil)
	_ NetworkComponent = (*SizeComponent)(nil)
	_ NetworkComponent = (*ColorComponent)(nil)
	_ NetworkComponent = (*ServerMeshComponent)(nil)
	_ NetworkComponent = (*InputComponent)(nil)
	_ Component        = (*RenderTransformComponent)(nil)
)

// PositionComponent is the authoritative world position of an entity.
type PositionComponent struct {
	Base
	geom.Vec3
}

func NewPositionComponent(owner EntityID, x, y, z float64) *PositionComponent {
	return &PositionComponent{Base: Base{Owner: owner}, Vec3: geom.Vec3{X: x, Y: y, Z: z}}
}

func (c *PositionComponent) Kind() Kind { return KindPosition }

func (c *PositionComponent) Clone() Component {
	cp := *c
	return &cp
}

func (c *PositionComponent) Serialize() Record {
	return PositionRecord{
		T:  KindPosition,
		ID: c.Owner,
		X:  Round2(c.X),
		Y:  Round2(c.Y),
		Z:  Round2(c.Z),
	}
}

// RotationComponent stores orientation as a unit quaternion.
type RotationComponent struct {
	Base
	geom.Quat
}

func NewRotationComponent(owner EntityID, x, y, z, w float64) *RotationComponent {
	return &RotationComponent{Base: Base{Owner: owner}, Quat: geom.Quat{X: x, Y: y, Z: z, W: w}}
}

func (c *RotationComponent) Kind() Kind { return KindRotation }

func (c *RotationComponent) Clone() Component {
	cp := *c
	return &cp
}

func (c *RotationComponent) Serialize() Record {
	return RotationRecord{
		T:  KindRotation,
		ID: c.Owner,
		X:  Round2(c.X),
		Y:  Round2(c.Y),
		Z:  Round2(c.Z),
		W:  Round2(c.W),
	}
}

// SizeComponent holds the bounding extents (width, height, depth) of an entity.
type SizeComponent struct {
	Base
	Width, Height, Depth float64
}

func NewSizeComponent(owner EntityID, width, height, depth float64) *SizeComponent {
	return &SizeComponent{Base: Base{Owner: owner}, Width: width, Height: height, Depth: depth}
}

func (c *SizeComponent) Kind() Kind { return KindSize }

func (c *SizeComponent) Clone() Component {
	cp := *c
	return &cp
}

func (c *SizeComponent) Vec() geom.Vec3 {
	return geom.Vec3{X: c.Width, Y: c.Height, Z: c.Depth}
}

func (c *SizeComponent) Serialize() Record {
	return SizeRecord{
		T:      KindSize,
		ID:     c.Owner,
		Width:  Round2(c.Width),
		Height: Round2(c.Height),
		Depth:  Round2(c.Depth),
	}
}

type ColorComponent struct {
	Base
	Value geom.Color
}

func NewColorComponent(owner EntityID, value geom.Color) *ColorComponent {
	return &ColorComponent{Base: Base{Owner: owner}, Value: value}
}

func (c *ColorComponent) Kind() Kind { return KindColor }

func (c *ColorComponent) Clone() Component {
	cp := *c
	return &cp
}

func (c *ColorComponent) Serialize() Record {
	return ColorRecord{T: KindColor, ID: c.Owner, Color: c.Value.Hex()}
}

// ServerMeshComponent names an asset the client has to load before the entity can render.
type ServerMeshComponent struct {
	Base
	Path string
}

func NewServerMeshComponent(owner EntityID, path string) *ServerMeshComponent {
	return &ServerMeshComponent{Base: Base{Owner: owner}, Path: path}
}

func (c *ServerMeshComponent) Kind() Kind { return KindServerMesh }

func (c *ServerMeshComponent) Clone() Component {
	cp := *c
	return &cp
}

func (c *ServerMeshComponent) Serialize() Record {
	return ServerMeshRecord{T: KindServerMesh, ID: c.Owner, Path: c.Path}
}

// InputComponent holds the movement intents of a player for the current frame.
type InputComponent struct {
	Base
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	Jump     bool
}

func NewInputComponent(owner EntityID) *InputComponent {
	return &InputComponent{Base: Base{Owner: owner}}
}

func (c *InputComponent) Kind() Kind { return KindInput }

func (c *InputComponent) Clone() Component {
	cp := *c
	return &cp
}

func (c *InputComponent) Serialize() Record {
	return InputRecord{
		T:        KindInput,
		ID:       c.Owner,
		Forward:  c.Forward,
		Backward: c.Backward,
		Left:     c.Left,
		Right:    c.Right,
		Jump:     c.Jump,
	}
}

// Direction converts the intents into a normalized XZ direction.
func (c *InputComponent) Direction() geom.Vec3 {
	var d geom.Vec3
	if c.Forward {
		d.Z -= 1
	}
	if c.Backward {
		d.Z += 1
	}
	if c.Left {
		d.X -= 1
	}
	if c.Right {
		d.X += 1
	}
	return d.Normalize()
}

// RenderTransformComponent is the client-side interpolated state the renderer reads.
type RenderTransformComponent struct {
	Base
	Position geom.Vec3
	Rotation geom.Quat
	Size     geom.Vec3
	Color    geom.Color
}

func NewRenderTransformComponent(owner EntityID) *RenderTransformComponent {
	return &RenderTransformComponent{
		Base:     Base{Owner: owner},
		Rotation: geom.IdentityQuat,
		Size:     geom.Vec3{X: 1, Y: 1, Z: 1},
	}
}

func (c *RenderTransformComponent) Kind() Kind { return KindRenderTransform }

func (c *RenderTransformComponent) Clone() Component {
	cp := *c
	return &cp
}
