package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/zeusync/tickworld/internal/core/models"
	"github.com/zeusync/tickworld/internal/core/world"
	"github.com/zeusync/tickworld/pkg/geom"
)

// Frame is one server tick worth of replicated records, in emission order.
type Frame struct {
	Tick    uint64            `json:"tick"`
	Records []json.RawMessage `json:"records"`
}

// EncodeFrame serializes the network components of a tick. Components without a wire form
// are skipped.
func EncodeFrame(tick uint64, components []models.NetworkComponent) (Frame, error) {
	frame := Frame{Tick: tick, Records: make([]json.RawMessage, 0, len(components))}
	for _, c := range components {
		record := c.Serialize()
		if record == nil {
			continue
		}
		raw, err := json.Marshal(record)
		if err != nil {
			return Frame{}, fmt.Errorf("serialize %s of entity %d: %w", c.Kind(), c.EntityID(), err)
		}
		frame.Records = append(frame.Records, raw)
	}
	return frame, nil
}

// Snapshot serializes the full broadcast state of w, used for peers that just joined.
func Snapshot(w *world.World) (Frame, error) {
	var components []models.NetworkComponent
	for _, e := range w.Entities() {
		if e.IsDestroyed() {
			continue
		}
		for _, c := range e.Components() {
			nc, ok := c.(models.NetworkComponent)
			if !ok || !c.Kind().Broadcast() {
				continue
			}
			components = append(components, nc)
		}
	}
	return EncodeFrame(w.Tick(), components)
}

// FrameMessage wraps a frame into an envelope.
func FrameMessage(frame Frame) (Message, error) {
	return NewMessage(MessageTypeFrame, frame)
}

type recordHeader struct {
	T models.Kind `json:"t"`
}

// DecodeRecord parses one tagged record into its concrete type.
func DecodeRecord(raw json.RawMessage) (models.Record, error) {
	var header recordHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, fmt.Errorf("%w: record header: %v", ErrInvalidMessage, err)
	}

	var (
		record models.Record
		err    error
	)
	switch header.T {
	case models.KindPosition:
		record, err = decodeAs[models.PositionRecord](raw)
	case models.KindRotation:
		record, err = decodeAs[models.RotationRecord](raw)
	case models.KindSize:
		record, err = decodeAs[models.SizeRecord](raw)
	case models.KindColor:
		record, err = decodeAs[models.ColorRecord](raw)
	case models.KindEntityDestroyed:
		record, err = decodeAs[models.EntityDestroyedRecord](raw)
	case models.KindChatMessage:
		record, err = decodeAs[models.ChatMessageRecord](raw)
	case models.KindServerMesh:
		record, err = decodeAs[models.ServerMeshRecord](raw)
	case models.KindComponentRemoved:
		record, err = decodeAs[models.ComponentRemovedRecord](raw)
	case models.KindInput:
		record, err = decodeAs[models.InputRecord](raw)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownRecordTag, header.T)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s record: %v", ErrInvalidMessage, header.T, err)
	}
	return record, nil
}

func decodeAs[R models.Record](raw json.RawMessage) (models.Record, error) {
	var r R
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return r, nil
}

// ToComponent turns a decoded state record back into the component it describes. Event
// records (destroy, removal, chat) have no component form and return ErrInvalidMessage.
func ToComponent(r models.Record) (models.Component, error) {
	switch rec := r.(type) {
	case models.PositionRecord:
		return models.NewPositionComponent(rec.ID, rec.X, rec.Y, rec.Z), nil
	case models.RotationRecord:
		return models.NewRotationComponent(rec.ID, rec.X, rec.Y, rec.Z, rec.W), nil
	case models.SizeRecord:
		return models.NewSizeComponent(rec.ID, rec.Width, rec.Height, rec.Depth), nil
	case models.ColorRecord:
		c, err := geom.ParseHexColor(rec.Color)
		if err != nil {
			return nil, fmt.Errorf("%w: color of entity %d: %v", ErrInvalidMessage, rec.ID, err)
		}
		return models.NewColorComponent(rec.ID, c), nil
	case models.ServerMeshRecord:
		return models.NewServerMeshComponent(rec.ID, rec.Path), nil
	case models.InputRecord:
		in := models.NewInputComponent(rec.ID)
		in.Forward, in.Backward, in.Left, in.Right, in.Jump = rec.Forward, rec.Backward, rec.Left, rec.Right, rec.Jump
		return in, nil
	default:
		return nil, fmt.Errorf("%w: %s record has no component form", ErrInvalidMessage, r.Tag())
	}
}
