package chat

import (
	"sort"

	"chatledger/pkg/models"
)

// BuildView merges a chat's ledger with its reply overlay into one
// chronological sequence. Pure function: for each ledger message in
// append order it emits the message and then its reply (if one exists
// for that id), and finally stable-sorts by timestamp so ties keep
// ledger order with each reply directly after its trigger. Overlay
// entries whose triggering id is not in the ledger are orphans and are
// excluded.
func BuildView(msgs []models.Message, replies map[string]models.Reply) []models.Entry {
	out := make([]models.Entry, 0, len(msgs)*2)
	for _, m := range msgs {
		out = append(out, models.Entry{
			ID:     m.ID,
			Sender: m.Sender,
			TS:     m.TS,
			Text:   m.Text,
		})
		if r, ok := replies[m.ID]; ok {
			out = append(out, models.Entry{
				ID:      r.ID,
				Sender:  r.Sender,
				TS:      r.TS,
				Text:    r.Text,
				ReplyTo: r.ReplyTo,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TS < out[j].TS })
	return out
}
