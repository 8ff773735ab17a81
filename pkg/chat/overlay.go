// Package chat implements the dual-tier conversation store: a durable
// per-chat ledger of user messages, an in-memory overlay of AI replies,
// and the merged time-ordered view of both.
package chat

import (
	"sync"

	"chatledger/pkg/models"
)

// Overlay holds AI replies keyed by chat id and triggering message id.
// It is process memory only: a restart always starts from an empty
// overlay, and nothing here is ever serialized.
type Overlay struct {
	mu      sync.RWMutex
	replies map[string]map[string]models.Reply
}

func NewOverlay() *Overlay {
	return &Overlay{replies: make(map[string]map[string]models.Reply)}
}

// Set stores a reply under its chat and triggering message id. A second
// reply for the same trigger overwrites the first (last write wins), so
// retries can replace an earlier failure placeholder.
func (o *Overlay) Set(r models.Reply) {
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.replies[r.Chat]
	if !ok {
		m = make(map[string]models.Reply)
		o.replies[r.Chat] = m
	}
	m[r.ReplyTo] = r
}

// Get returns the reply triggered by the given message, if any.
func (o *Overlay) Get(chatID, msgID string) (models.Reply, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	r, ok := o.replies[chatID][msgID]
	return r, ok
}

// Snapshot returns a copy of a chat's replies keyed by triggering
// message id.
func (o *Overlay) Snapshot(chatID string) map[string]models.Reply {
	o.mu.RLock()
	defer o.mu.RUnlock()
	src := o.replies[chatID]
	out := make(map[string]models.Reply, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Clear drops all replies for a chat. Called on chat deletion and on
// explicit session reset.
func (o *Overlay) Clear(chatID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.replies, chatID)
}

// Remove drops a single reply by chat and triggering message id.
func (o *Overlay) Remove(chatID, msgID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.replies[chatID]
	if !ok {
		return
	}
	delete(m, msgID)
	if len(m) == 0 {
		delete(o.replies, chatID)
	}
}

// Chats returns the chat ids currently holding overlay entries.
func (o *Overlay) Chats() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]string, 0, len(o.replies))
	for id := range o.replies {
		out = append(out, id)
	}
	return out
}

// Len returns the total number of overlay entries across all chats.
func (o *Overlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	n := 0
	for _, m := range o.replies {
		n += len(m)
	}
	return n
}
