package models

// Sender tags the author tier of a message or reply.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is a persisted, user-authored ledger entry. Messages are
// append-only: never edited or deleted individually, only removed by
// whole-chat deletion.
type Message struct {
	ID     string `json:"id"`
	Chat   string `json:"chat"`
	Sender Sender `json:"sender"`
	TS     int64  `json:"ts"`
	Text   string `json:"text"`
}
