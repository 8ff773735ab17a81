package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"chatledger/pkg/logger"
	"chatledger/pkg/models"
)

// ErrNotFound is returned when a chat or pointer key does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the durable side of the conversation store: chat metadata,
// per-chat message ledgers and the active-chat pointer, all in a Pebble
// database. Only user-authored messages are ever written here; the
// reply overlay lives upstream in memory and never reaches disk.
type Store struct {
	db   *pebble.DB
	path string
	// seq reduces key collisions when multiple messages share the same
	// nanosecond timestamp.
	seq uint64
}

const activeKey = "state:active"

// Open opens (or creates) a Pebble database at the given path.
func Open(path string) (*Store, error) {
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	logger.Info("pebble_opened", "path", path)
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	logger.Info("pebble_closed", "path", s.path)
	return nil
}

// Ready reports whether the store is opened and usable.
func (s *Store) Ready() bool { return s != nil && s.db != nil }

// Path returns the on-disk location of the database.
func (s *Store) Path() string { return s.path }

func chatMetaKey(chatID string) []byte {
	return []byte("chat:" + chatID + ":meta")
}

func chatMsgPrefix(chatID string) []byte {
	return []byte("chat:" + chatID + ":msg:")
}

// prefixEnd returns the smallest key greater than every key with the
// given prefix, for range deletes.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// SaveChat writes chat metadata under its reserved key.
func (s *Store) SaveChat(c models.Chat) error {
	if s.db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal chat: %w", err)
	}
	if err := s.db.Set(chatMetaKey(c.ID), data, pebble.Sync); err != nil {
		logger.Error("save_chat_failed", "chat", c.ID, "error", err)
		return err
	}
	logger.Debug("chat_saved", "chat", c.ID)
	return nil
}

// GetChat returns the stored metadata for a chat id.
func (s *Store) GetChat(chatID string) (models.Chat, error) {
	var c models.Chat
	if s.db == nil {
		return c, fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := s.db.Get(chatMetaKey(chatID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return c, ErrNotFound
		}
		return c, err
	}
	defer closer.Close()
	if err := json.Unmarshal(v, &c); err != nil {
		return c, fmt.Errorf("invalid chat metadata: %w", err)
	}
	return c, nil
}

// HasChat reports whether a chat exists.
func (s *Store) HasChat(chatID string) bool {
	_, err := s.GetChat(chatID)
	return err == nil
}

// ListChats returns all stored chat metadata. Order is key order; the
// caller sorts by recency.
func (s *Store) ListChats() ([]models.Chat, error) {
	if s.db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := []byte("chat:")
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.Chat
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		if !bytes.HasSuffix(iter.Key(), []byte(":meta")) {
			continue
		}
		var c models.Chat
		if err := json.Unmarshal(iter.Value(), &c); err != nil {
			logger.Warn("skip_invalid_chat_meta", "key", string(iter.Key()), "error", err)
			continue
		}
		out = append(out, c)
	}
	return out, iter.Error()
}

// AppendMessage appends a user message to a chat's ledger by inserting
// a new key with a sortable timestamp prefix, so iteration order equals
// append order. The ledger only ever holds user-authored entries.
func (s *Store) AppendMessage(m models.Message) error {
	if s.db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if m.Sender != models.SenderUser {
		return fmt.Errorf("ledger accepts only user messages, got sender %q", m.Sender)
	}
	ts := time.Now().UTC().UnixNano()
	n := atomic.AddUint64(&s.seq, 1)
	key := fmt.Sprintf("%s%020d-%06d", chatMsgPrefix(m.Chat), ts, n)

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := s.db.Set([]byte(key), data, pebble.Sync); err != nil {
		logger.Error("append_message_failed", "chat", m.Chat, "key", key, "error", err)
		return err
	}
	logger.Debug("message_appended", "chat", m.Chat, "msg_id", m.ID)
	return nil
}

// ListMessages returns all messages for a chat in append order.
func (s *Store) ListMessages(chatID string) ([]models.Message, error) {
	if s.db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := chatMsgPrefix(chatID)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.Message
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var m models.Message
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			return nil, fmt.Errorf("invalid message at %s: %w", string(iter.Key()), err)
		}
		out = append(out, m)
	}
	return out, iter.Error()
}

// DeleteChat removes a chat's metadata and its whole message range. If
// the active pointer referenced the chat it is cleared as well.
func (s *Store) DeleteChat(chatID string) error {
	if s.db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if err := s.db.Delete(chatMetaKey(chatID), pebble.Sync); err != nil {
		logger.Error("delete_chat_failed", "chat", chatID, "error", err)
		return err
	}
	prefix := chatMsgPrefix(chatID)
	if err := s.db.DeleteRange(prefix, prefixEnd(prefix), pebble.Sync); err != nil {
		logger.Error("delete_chat_messages_failed", "chat", chatID, "error", err)
		return err
	}
	if act, err := s.GetActive(); err == nil && act == chatID {
		if err := s.ClearActive(); err != nil {
			return err
		}
	}
	logger.Info("chat_deleted", "chat", chatID)
	return nil
}

// SetActive persists the active-chat pointer.
func (s *Store) SetActive(chatID string) error {
	if s.db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return s.db.Set([]byte(activeKey), []byte(chatID), pebble.Sync)
}

// GetActive returns the active chat id, or "" when unset.
func (s *Store) GetActive() (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := s.db.Get([]byte(activeKey))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	defer closer.Close()
	return string(v), nil
}

// ClearActive unsets the active-chat pointer.
func (s *Store) ClearActive() error {
	if s.db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return s.db.Delete([]byte(activeKey), pebble.Sync)
}
