package model

import (
	"encoding/json"
	"time"
)

// ChatMessage is a persisted chat message. ID and Timestamp are assigned by the
// store, never by the client.
type ChatMessage struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// InboundMessage is the payload of a client "chat message" event.
// Absent fields decode to the empty string and are stored as-is.
type InboundMessage struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// EventName identifies an application event on the channel.
type EventName string

const (
	// EventHistory carries the recent messages, sent once after connect.
	EventHistory EventName = "history"

	// EventChatMessage is used in both directions: inbound with an
	// InboundMessage payload, outbound with a persisted ChatMessage.
	EventChatMessage EventName = "chat message"
)

// Event is the envelope of every frame exchanged over the channel.
type Event struct {
	Event EventName       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals payload into an Event envelope.
func NewEvent(name EventName, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{Event: name, Data: data}, nil
}

// EncodeEvent returns the wire form of an event with the given payload.
func EncodeEvent(name EventName, payload any) ([]byte, error) {
	evt, err := NewEvent(name, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(evt)
}

// DecodeInbound extracts the chat payload from an event. A missing or null
// data field yields an empty InboundMessage.
func (e *Event) DecodeInbound() (InboundMessage, error) {
	var in InboundMessage
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return in, nil
	}
	if err := json.Unmarshal(e.Data, &in); err != nil {
		return InboundMessage{}, err
	}
	return in, nil
}
