package models

import "time"

// MessageKind distinguishes transcript entries.

type MessageKind string

const (
	KindUser      MessageKind = "user"
	KindAssistant MessageKind = "assistant"
	KindError     MessageKind = "error"
)

// ChatMessage is a single transcript entry. Entries are append-only and are
// never mutated after creation.
type ChatMessage struct {
	ID        int64       `json:"id"`
	Kind      MessageKind `json:"kind"`
	Content   string      `json:"content"`
	Sources   []Source    `json:"sources"`
	Visuals   []Visual    `json:"visuals"`
	CreatedAt time.Time   `json:"created_at"`
}

// Source points at the document passage an answer was grounded on.
type Source struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// Visual describes a figure or table referenced by an answer.
type Visual struct {
	Type    string `json:"type"`
	Image   string `json:"image,omitempty"`
	Caption string `json:"caption,omitempty"`
}
