package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecodeInbound_MissingFieldsPassThroughEmpty(t *testing.T) {
	req := require.New(t)

	cases := map[string]InboundMessage{
		`{"event":"chat message","data":{"user":"a","text":"hi"}}`: {User: "a", Text: "hi"},
		`{"event":"chat message","data":{"text":"hi"}}`:            {User: "", Text: "hi"},
		`{"event":"chat message","data":{}}`:                       {},
		`{"event":"chat message","data":null}`:                     {},
		`{"event":"chat message"}`:                                 {},
	}

	for raw, want := range cases {
		var evt Event
		req.NoError(json.Unmarshal([]byte(raw), &evt), raw)
		got, err := evt.DecodeInbound()
		req.NoError(err, raw)
		req.Equal(want, got, raw)
	}
}

func TestDecodeInbound_WrongShape(t *testing.T) {
	evt := Event{Event: EventChatMessage, Data: json.RawMessage(`"just a string"`)}
	_, err := evt.DecodeInbound()
	require.Error(t, err)
}

func TestEncodeEvent_ChatMessageWireShape(t *testing.T) {
	req := require.New(t)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	data, err := EncodeEvent(EventChatMessage, &ChatMessage{ID: "X", User: "b", Message: "yo", Timestamp: ts})
	req.NoError(err)

	var decoded struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	req.NoError(json.Unmarshal(data, &decoded))
	req.Equal("chat message", decoded.Event)
	req.Equal("X", decoded.Data["id"])
	req.Equal("b", decoded.Data["user"])
	req.Equal("yo", decoded.Data["message"])
	req.Equal("2024-05-01T12:00:00Z", decoded.Data["timestamp"])
	req.NotContains(decoded.Data, "text")
}
