package models

import "encoding/json"

// EventKind classifies a decoded StreamEvent.
type EventKind int

const (
	// EventUnknown means no recognized field was populated. Unknown events are
	// skipped by consumers without aborting the stream.
	EventUnknown EventKind = iota
	// EventToken carries an incremental piece of the assistant reply.
	EventToken
	// EventDone signals normal end of the reply.
	EventDone
	// EventError carries a server-side failure message in place of content.
	EventError
)

// StreamEvent is the wire envelope carried on each "data: " line of the
// streaming endpoint. Exactly one variant is populated per event.
type StreamEvent struct {
	Token string `json:"token,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
}

// Kind reports which variant of the union is populated. Error wins over done
// so a malformed server that sets both still surfaces its failure.
func (e StreamEvent) Kind() EventKind {
	switch {
	case e.Error != "":
		return EventError
	case e.Done:
		return EventDone
	case e.Token != "":
		return EventToken
	default:
		return EventUnknown
	}
}

// TokenEvent encodes a token event as a JSON payload for the wire.
func TokenEvent(token string) string {
	b, _ := json.Marshal(StreamEvent{Token: token})
	return string(b)
}

// DoneEvent encodes the terminal done event.
func DoneEvent() string {
	b, _ := json.Marshal(StreamEvent{Done: true})
	return string(b)
}

// ErrorEvent encodes a server-signaled error event.
func ErrorEvent(msg string) string {
	b, _ := json.Marshal(StreamEvent{Error: msg})
	return string(b)
}
