package models

// Record is the compact wire form of a replicated component: { "t": <tag>, ...fields }.
type Record interface {
	Tag() Kind
	Entity() EntityID
}

type PositionRecord struct {
	T  Kind     `json:"t"`
	ID EntityID `json:"id"`
	X  float64  `json:"x"`
	Y  float64  `json:"y"`
	Z  float64  `json:"z"`
}

type RotationRecord struct {
	T  Kind     `json:"t"`
	ID EntityID `json:"id"`
	X  float64  `json:"x"`
	Y  float64  `json:"y"`
	Z  float64  `json:"z"`
	W  float64  `json:"w"`
}

type SizeRecord struct {
	T      Kind     `json:"t"`
	ID     EntityID `json:"id"`
	Width  float64  `json:"w"`
	Height float64  `json:"h"`
	Depth  float64  `json:"d"`
}

type ColorRecord struct {
	T     Kind     `json:"t"`
	ID    EntityID `json:"id"`
	Color string   `json:"c"`
}

type EntityDestroyedRecord struct {
	T  Kind     `json:"t"`
	ID EntityID `json:"id"`
}

type ChatMessageRecord struct {
	T       Kind     `json:"t"`
	ID      EntityID `json:"id"`
	Sender  string   `json:"s"`
	Content string   `json:"m"`
}

type ServerMeshRecord struct {
	T    Kind     `json:"t"`
	ID   EntityID `json:"id"`
	Path string   `json:"p"`
}

type ComponentRemovedRecord struct {
	T       Kind     `json:"t"`
	ID      EntityID `json:"id"`
	Removed Kind     `json:"k"`
}

type InputRecord struct {
	T        Kind     `json:"t"`
	ID       EntityID `json:"id"`
	Forward  bool     `json:"f,omitempty"`
	Backward bool     `json:"b,omitempty"`
	Left     bool     `json:"l,omitempty"`
	Right    bool     `json:"r,omitempty"`
	Jump     bool     `json:"j,omitempty"`
}

func (r PositionRecord) Tag() Kind                { return r.T }
func (r PositionRecord) Entity() EntityID         { return r.ID }
func (r RotationRecord) Tag() Kind                { return r.T }
func (r RotationRecord) Entity() EntityID         { return r.ID }
func (r SizeRecord) Tag() Kind                    { return r.T }
func (r SizeRecord) Entity() EntityID             { return r.ID }
func (r ColorRecord) Tag() Kind                   { return r.T }
func (r ColorRecord) Entity() EntityID            { return r.ID }
func (r EntityDestroyedRecord) Tag() Kind         { return r.T }
func (r EntityDestroyedRecord) Entity() EntityID  { return r.ID }
func (r ChatMessageRecord) Tag() Kind             { return r.T }
func (r ChatMessageRecord) Entity() EntityID      { return r.ID }
func (r ServerMeshRecord) Tag() Kind              { return r.T }
func (r ServerMeshRecord) Entity() EntityID       { return r.ID }
func (r ComponentRemovedRecord) Tag() Kind        { return r.T }
func (r ComponentRemovedRecord) Entity() EntityID { return r.ID }
func (r InputRecord) Tag() Kind                   { return r.T }
func (r InputRecord) Entity() EntityID            { return r.ID }
