package models

import "time"

// Role identifies the author of a conversation entry.
type Role string

const (
	// RoleUser marks an entry authored by the patient-facing user. User text is
	// never interpreted as markup anywhere in the system.
	RoleUser Role = "user"
	// RoleAssistant marks an entry produced by the language model.
	RoleAssistant Role = "assistant"
)

// Message is a single conversation entry. It is immutable once stored; the
// assistant entry for an in-flight stream is only persisted after the stream
// reaches a terminal state.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
