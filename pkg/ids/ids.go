// Package ids mints collision-resistant identifiers for chats and
// messages. Uniqueness is probabilistic: ids combine a scope tag, a
// millisecond timestamp and random entropy, and callers tolerate the
// (vanishingly rare) collision as an accepted risk.
package ids

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// New returns `<scope>-<unix-ms>-<suffix>` where the suffix is the
// entropy half of a ULID (80 random bits).
func New(scope string) string {
	now := time.Now().UTC()
	u := ulid.Make()
	// chars 10..25 of a ULID encode the entropy; the leading 10 encode
	// the timestamp we already carry explicitly.
	suffix := strings.ToLower(u.String()[10:])
	return fmt.Sprintf("%s-%d-%s", scope, now.UnixMilli(), suffix)
}

// NewChat returns a fresh chat id for callers that do not supply one.
func NewChat() string {
	return "chat-" + uuid.NewString()
}
