package models

type Chat struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	// Seq is a monotonic creation counter; listings use it to break ties
	// between chats that share the same UpdatedTS.
	Seq uint64 `json:"seq,omitempty"`
	// Created timestamp (ns)
	CreatedTS int64 `json:"created_ts,omitempty"`
	// Updated timestamp (ns) - bumped on every ledger append, never on
	// overlay changes
	UpdatedTS int64 `json:"updated_ts,omitempty"`
}
