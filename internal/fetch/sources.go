package fetch

import "strings"

// Source is one configured messaging channel with its editorial orientation
// label.
type Source struct {
	Channel     string
	Orientation string
}

// ParseSources reads the "channel:label,channel2:label2,channel3" source
// list. Leading '@' is stripped, channel names are reduced to
// [A-Za-z0-9_], empty entries are dropped. A missing label becomes
// "inconnu".
func ParseSources(raw string) []Source {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var out []Source
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.TrimPrefix(part, "@")

		chan_, label := part, ""
		if i := strings.Index(part, ":"); i >= 0 {
			chan_, label = part[:i], part[i+1:]
		}

		chan_ = sanitizeChannel(chan_)
		if chan_ == "" {
			continue
		}

		label = strings.ToLower(strings.TrimSpace(label))
		if label == "" {
			label = "inconnu"
		}

		out = append(out, Source{Channel: chan_, Orientation: label})
	}
	return out
}

func sanitizeChannel(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
