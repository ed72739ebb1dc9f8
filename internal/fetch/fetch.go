package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Camprch/osint-tool/internal/domain"
)

// Fetcher supplies raw messages for a bounded look-back window. Channel
// failures are per-channel and non-fatal to the overall fetch.
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.Event, error)
}

// HTTPFetcher pulls recent channel messages from a message export service:
// GET <base>/<channel>?limit=N returning the channel title and its latest
// messages.
type HTTPFetcher struct {
	client        *http.Client
	baseURL       string
	sources       []Source
	lookback      time.Duration
	maxPerChannel int
}

func NewHTTPFetcher(baseURL string, sources []Source, lookback time.Duration, maxPerChannel int) *HTTPFetcher {
	return &HTTPFetcher{
		client:        &http.Client{Timeout: 30 * time.Second},
		baseURL:       strings.TrimRight(baseURL, "/"),
		sources:       sources,
		lookback:      lookback,
		maxPerChannel: maxPerChannel,
	}
}

type exportMessage struct {
	ID   int64     `json:"id"`
	Date time.Time `json:"date"`
	Text string    `json:"text"`
}

type exportResponse struct {
	Title    string          `json:"title"`
	Messages []exportMessage `json:"messages"`
}

// Fetch collects messages newer than the look-back cutoff from every
// configured channel. Unreachable channels are logged and skipped.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]domain.Event, error) {
	if len(f.sources) == 0 {
		log.Printf("[fetch] no channels configured")
		return nil, nil
	}
	if f.baseURL == "" {
		return nil, fmt.Errorf("no export URL configured")
	}

	cutoff := time.Now().UTC().Add(-f.lookback)
	var results []domain.Event

	for _, src := range f.sources {
		msgs, title, err := f.fetchChannel(ctx, src.Channel)
		if err != nil {
			log.Printf("[fetch] channel %s: %v", src.Channel, err)
			continue
		}

		source := title
		if source == "" {
			source = src.Channel
		}

		for _, m := range msgs {
			if m.Date.IsZero() || m.Date.Before(cutoff) {
				continue
			}
			text := flattenText(m.Text)
			if text == "" {
				continue
			}
			date := m.Date
			results = append(results, domain.Event{
				Source:            source,
				Channel:           src.Channel,
				Orientation:       src.Orientation,
				RawText:           text,
				EventTimestamp:    &date,
				ExternalMessageID: m.ID,
			})
		}
	}

	log.Printf("[fetch] collected %d messages within %s look-back", len(results), f.lookback)
	return results, nil
}

func (f *HTTPFetcher) fetchChannel(ctx context.Context, channel string) ([]exportMessage, string, error) {
	url := fmt.Sprintf("%s/%s?limit=%d", f.baseURL, channel, f.maxPerChannel)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "osint-tool/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	var export exportResponse
	if err := json.Unmarshal(body, &export); err != nil {
		return nil, "", fmt.Errorf("decode export: %w", err)
	}

	msgs := export.Messages
	if len(msgs) > f.maxPerChannel {
		msgs = msgs[:f.maxPerChannel]
	}
	return msgs, export.Title, nil
}
