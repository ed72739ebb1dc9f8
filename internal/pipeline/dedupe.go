package pipeline

import (
	"strings"

	"github.com/Camprch/osint-tool/internal/domain"
)

type dedupeKey struct {
	kind    string // "title" or "text", so the two keyspaces never collide
	source  string
	channel string
	country string
	text    string
}

// Dedupe collapses near-duplicate events within a run. When an event carries
// a title the key is (source, channel, country, title); otherwise the
// translated-or-raw text takes the title's place. The country component is
// the raw, unnormalized string on purpose: duplicate grouping wants literal
// source fidelity, unlike aggregation. First occurrence wins, relative order
// is preserved, and the operation is idempotent.
func Dedupe(events []domain.Event) []domain.Event {
	seen := make(map[dedupeKey]bool, len(events))
	out := make([]domain.Event, 0, len(events))

	for _, e := range events {
		key := dedupeKey{
			source:  strings.TrimSpace(e.Source),
			channel: strings.TrimSpace(e.Channel),
			country: strings.TrimSpace(e.Country),
		}
		if title := strings.TrimSpace(e.Title); title != "" {
			key.kind, key.text = "title", title
		} else {
			key.kind, key.text = "text", strings.TrimSpace(e.Text())
		}

		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}
