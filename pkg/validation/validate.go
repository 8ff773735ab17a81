package validation

import (
	"fmt"
	"strings"
)

// Rules bounds caller-supplied strings. Zero values fall back to the
// defaults below.
type Rules struct {
	MaxTextLen     int
	MaxTitleLen    int
	AllowEmptyText bool
}

const (
	defaultMaxTextLen  = 8192
	defaultMaxTitleLen = 256
)

var rules = Rules{MaxTextLen: defaultMaxTextLen, MaxTitleLen: defaultMaxTitleLen}

// SetRules installs limits from config.
func SetRules(r Rules) {
	if r.MaxTextLen <= 0 {
		r.MaxTextLen = defaultMaxTextLen
	}
	if r.MaxTitleLen <= 0 {
		r.MaxTitleLen = defaultMaxTitleLen
	}
	rules = r
}

// ValidateMessageText checks a user message body before it reaches the
// ledger.
func ValidateMessageText(text string) error {
	if !rules.AllowEmptyText && strings.TrimSpace(text) == "" {
		return fmt.Errorf("text is required")
	}
	if len(text) > rules.MaxTextLen {
		return fmt.Errorf("text exceeds max length: %d > %d", len(text), rules.MaxTextLen)
	}
	return nil
}

// ValidateChatTitle checks a chat title.
func ValidateChatTitle(title string) error {
	if len(title) > rules.MaxTitleLen {
		return fmt.Errorf("title exceeds max length: %d > %d", len(title), rules.MaxTitleLen)
	}
	return nil
}
