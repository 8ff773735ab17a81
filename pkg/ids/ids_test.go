package ids

import (
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestNewShape(t *testing.T) {
	before := time.Now().UTC().UnixMilli()
	id := New("msg")
	after := time.Now().UTC().UnixMilli()

	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 {
		t.Fatalf("expected scope-ms-suffix; got %q", id)
	}
	if parts[0] != "msg" {
		t.Fatalf("expected scope msg; got %q", parts[0])
	}
	ms, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		t.Fatalf("timestamp part not numeric: %v", err)
	}
	if ms < before || ms > after {
		t.Fatalf("timestamp %d outside [%d, %d]", ms, before, after)
	}
	if len(parts[2]) != 16 {
		t.Fatalf("expected 16-char entropy suffix; got %q", parts[2])
	}
}

func TestNewDistinct(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := New("m")
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id after %d iterations: %s", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestNewChatPrefix(t *testing.T) {
	a := NewChat()
	b := NewChat()
	if !strings.HasPrefix(a, "chat-") {
		t.Fatalf("expected chat- prefix; got %q", a)
	}
	if a == b {
		t.Fatalf("two chat ids collided: %s", a)
	}
}
