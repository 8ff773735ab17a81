package chat

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"chatledger/pkg/ids"
	"chatledger/pkg/logger"
	"chatledger/pkg/models"
	"chatledger/pkg/store"
)

// Directory owns all chat records and the active-chat pointer. Durable
// state (metadata, ledgers, active pointer) lives in the store; the
// overlay is attached so chat deletion can invalidate replies.
type Directory struct {
	mu      sync.Mutex
	store   *store.Store
	overlay *Overlay
	seq     uint64
}

// NewDirectory builds a directory over an opened store. The creation
// counter resumes from the highest persisted chat Seq so listing
// tie-breaks stay stable across restarts.
func NewDirectory(st *store.Store, ov *Overlay) (*Directory, error) {
	d := &Directory{store: st, overlay: ov}
	chats, err := st.ListChats()
	if err != nil {
		return nil, err
	}
	for _, c := range chats {
		if c.Seq > d.seq {
			d.seq = c.Seq
		}
	}
	return d, nil
}

// Overlay returns the attached reply overlay.
func (d *Directory) Overlay() *Overlay { return d.overlay }

// CreateChat inserts a new chat with equal created/updated timestamps
// and makes it active. An empty id mints one. Creating an id that
// already exists overwrites the old chat: its ledger range and overlay
// entries are removed first so nothing stale leaks into the new chat.
func (d *Directory) CreateChat(chatID, title string) (models.Chat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if chatID == "" {
		chatID = ids.NewChat()
	}
	if d.store.HasChat(chatID) {
		logger.Warn("chat_overwrite", "chat", chatID)
		if err := d.store.DeleteChat(chatID); err != nil {
			return models.Chat{}, err
		}
		d.overlay.Clear(chatID)
	}
	now := time.Now().UTC().UnixNano()
	c := models.Chat{
		ID:        chatID,
		Title:     title,
		Seq:       atomic.AddUint64(&d.seq, 1),
		CreatedTS: now,
		UpdatedTS: now,
	}
	if err := d.store.SaveChat(c); err != nil {
		return models.Chat{}, err
	}
	if err := d.store.SetActive(chatID); err != nil {
		return models.Chat{}, err
	}
	logger.Info("chat_created", "chat", chatID, "title", title)
	return c, nil
}

// SwitchActive points the active pointer at an existing chat. Unknown
// ids are a silent no-op; callers verify existence or fall back to
// CreateChat.
func (d *Directory) SwitchActive(chatID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.store.HasChat(chatID) {
		logger.Debug("switch_active_missing", "chat", chatID)
		return nil
	}
	return d.store.SetActive(chatID)
}

// ActiveChat returns the active chat's metadata, or ok=false when the
// pointer is unset.
func (d *Directory) ActiveChat() (models.Chat, bool, error) {
	id, err := d.store.GetActive()
	if err != nil {
		return models.Chat{}, false, err
	}
	if id == "" {
		return models.Chat{}, false, nil
	}
	c, err := d.store.GetChat(id)
	if err == store.ErrNotFound {
		// dangling pointer; treat as unset
		return models.Chat{}, false, nil
	}
	if err != nil {
		return models.Chat{}, false, err
	}
	return c, true, nil
}

// GetChat returns a chat's metadata.
func (d *Directory) GetChat(chatID string) (models.Chat, error) {
	return d.store.GetChat(chatID)
}

// DeleteChat removes a chat, its ledger and its overlay entries. The
// active pointer is cleared if it referenced the chat.
func (d *Directory) DeleteChat(chatID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.store.DeleteChat(chatID); err != nil {
		return err
	}
	d.overlay.Clear(chatID)
	return nil
}

// ListChats returns a snapshot of all chats ordered by UpdatedTS
// descending; equal timestamps keep insertion order.
func (d *Directory) ListChats() ([]models.Chat, error) {
	chats, err := d.store.ListChats()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(chats, func(i, j int) bool {
		if chats[i].UpdatedTS != chats[j].UpdatedTS {
			return chats[i].UpdatedTS > chats[j].UpdatedTS
		}
		return chats[i].Seq < chats[j].Seq
	})
	return chats, nil
}

// AppendUserMessage appends a user-authored message to an existing
// chat's ledger and bumps the chat's UpdatedTS. The chat must exist;
// auto-creation is the caller's call, not the ledger's.
func (d *Directory) AppendUserMessage(chatID, text string) (models.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.store.GetChat(chatID)
	if err != nil {
		return models.Message{}, err
	}
	now := time.Now().UTC().UnixNano()
	m := models.Message{
		ID:     ids.New("msg"),
		Chat:   chatID,
		Sender: models.SenderUser,
		TS:     now,
		Text:   text,
	}
	if err := d.store.AppendMessage(m); err != nil {
		return models.Message{}, err
	}
	// UpdatedTS is monotonic: never moved backwards even if clocks skew.
	if now > c.UpdatedTS {
		c.UpdatedTS = now
	}
	if err := d.store.SaveChat(c); err != nil {
		return models.Message{}, err
	}
	return m, nil
}

// SetReply records an AI reply in the overlay, keyed by the triggering
// message id. The write is a no-op when the chat no longer exists, so a
// reply landing after chat deletion cannot resurrect it. Overlay writes
// never touch the ledger or UpdatedTS.
func (d *Directory) SetReply(chatID, msgID, text string) (string, bool) {
	if !d.store.HasChat(chatID) {
		logger.Debug("reply_dropped_chat_gone", "chat", chatID, "msg", msgID)
		return "", false
	}
	r := models.Reply{
		ID:      ids.New("reply"),
		Chat:    chatID,
		Sender:  models.SenderAI,
		TS:      time.Now().UTC().UnixNano(),
		Text:    text,
		ReplyTo: msgID,
	}
	d.overlay.Set(r)
	return r.ID, true
}

// SweepOrphans walks the overlay and removes replies whose chat no
// longer exists or whose triggering message is no longer in the ledger.
// Such entries can only accumulate after deletions; they never appear
// in any view, so sweeping is purely a memory reclaim.
func (d *Directory) SweepOrphans() (int, error) {
	removed := 0
	for _, chatID := range d.overlay.Chats() {
		if !d.store.HasChat(chatID) {
			removed += len(d.overlay.Snapshot(chatID))
			d.overlay.Clear(chatID)
			continue
		}
		msgs, err := d.store.ListMessages(chatID)
		if err != nil {
			return removed, err
		}
		present := make(map[string]struct{}, len(msgs))
		for _, m := range msgs {
			present[m.ID] = struct{}{}
		}
		for msgID := range d.overlay.Snapshot(chatID) {
			if _, ok := present[msgID]; !ok {
				d.overlay.Remove(chatID, msgID)
				removed++
			}
		}
	}
	return removed, nil
}

// View returns the merged ledger+overlay sequence for a chat.
func (d *Directory) View(chatID string) ([]models.Entry, error) {
	if _, err := d.store.GetChat(chatID); err != nil {
		return nil, err
	}
	msgs, err := d.store.ListMessages(chatID)
	if err != nil {
		return nil, err
	}
	return BuildView(msgs, d.overlay.Snapshot(chatID)), nil
}
