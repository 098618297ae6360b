package models

import "strconv"

// Kind tags a concrete component type. Replicated kinds carry their wire tag as value.
type Kind uint8

const (
	KindUnknown Kind = iota

	KindPosition
	KindRotation
	KindSize
	KindColor
	KindEntityDestroyed
	KindChatMessage
	KindServerMesh
	KindComponentRemoved
	KindInput

	// Local kinds below never appear on the wire.

	KindEventList Kind = 64 + iota
	KindNetworkData
	KindComponentAddedEvent
	KindComponentRemovedEvent
	KindRenderTransform
)

var kindNames = map[Kind]string{
	KindPosition:              "position",
	KindRotation:              "rotation",
	KindSize:                  "size",
	KindColor:                 "color",
	KindEntityDestroyed:       "entity_destroyed",
	KindChatMessage:           "chat_message",
	KindServerMesh:            "server_mesh",
	KindComponentRemoved:      "component_removed",
	KindInput:                 "input",
	KindEventList:             "event_list",
	KindNetworkData:           "network_data",
	KindComponentAddedEvent:   "component_added_event",
	KindComponentRemovedEvent: "component_removed_event",
	KindRenderTransform:       "render_transform",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Replicated reports whether the kind has a wire representation.
func (k Kind) Replicated() bool {
	return k > KindUnknown && k < KindEventList
}

// Broadcast reports whether server state of this kind is sent to clients. Input travels
// the other way only.
func (k Kind) Broadcast() bool {
	return k.Replicated() && k != KindInput
}
