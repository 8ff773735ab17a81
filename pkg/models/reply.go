package models

// Reply is an AI-authored overlay entry. Replies exist only in process
// memory and are never written to durable storage.
type Reply struct {
	ID     string `json:"id"`
	Chat   string `json:"chat"`
	Sender Sender `json:"sender"`
	TS     int64  `json:"ts"`
	Text   string `json:"text"`
	// ReplyTo names the persisted message that triggered this reply. It
	// is a non-owning back-reference; if the target message is gone the
	// reply is orphaned and excluded from merged views.
	ReplyTo string `json:"reply_to"`
}

// Entry is one element of a merged chat view: either a ledger message
// or a non-orphaned overlay reply.
type Entry struct {
	ID      string `json:"id"`
	Sender  Sender `json:"sender"`
	TS      int64  `json:"ts"`
	Text    string `json:"text"`
	ReplyTo string `json:"reply_to,omitempty"`
}
