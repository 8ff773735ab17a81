package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chatledger/pkg/models"
)

// Canned is a deterministic local generator used when no provider is
// configured. It echoes the question together with the joined context,
// after an optional artificial delay.
type Canned struct {
	Delay time.Duration
}

func (g Canned) GenerateReply(ctx context.Context, text string, history []models.Entry) (string, error) {
	if g.Delay > 0 {
		select {
		case <-time.After(g.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	parts := make([]string, 0, len(history))
	for _, e := range history {
		parts = append(parts, e.Text)
	}
	joined := strings.Join(parts, " | ")
	if joined == "" {
		joined = "no history"
	}
	return fmt.Sprintf("Reply to: %q (context: %s)", text, joined), nil
}
