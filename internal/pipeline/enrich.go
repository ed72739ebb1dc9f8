package pipeline

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/Camprch/osint-tool/internal/domain"
	"github.com/Camprch/osint-tool/internal/llm"
	"github.com/Camprch/osint-tool/internal/metrics"
)

const enrichHeader = `You are an OSINT information-extraction system.
For every message below, produce ONE JSON line (JSONL format):
{"id": <int>, "country": "...", "region": "...", "location": "...", "title": "...", "source": "...", "timestamp": "..."}

Rules:
- 'id' = the identifier given in the input.
- 'country' = main impacted country name(s) in French ("Pays1, Pays2, ..."), or "" when uncertain.
- 'region' = wide area (province, region, ...) or "".
- 'location' = city / precise place or "".
- 'title' = short sentence (8-18 words) summarizing the event.
- 'source' = explicit source named in the text, else "".
- 'timestamp' = explicit ISO 8601 timestamp, else "".
No text outside JSON, no commentary.

Messages:
`

// Enrichment is the structured extraction for one message. All fields are
// optional; empty means unknown.
type Enrichment struct {
	Country   string
	Region    string
	Location  string
	Title     string
	Source    string
	Timestamp string
}

// Enricher extracts structured event fields from translated texts, one LLM
// call per chunk with the same tolerant parsing discipline as the
// translator. There is no text fallback here: a miss yields an all-unknown
// record and the run continues.
type Enricher struct {
	client    llm.Client
	batchSize int
}

func NewEnricher(client llm.Client, batchSize int) *Enricher {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Enricher{client: client, batchSize: batchSize}
}

// Enrich mutates events in place. Country, region, location and title are
// applied; source and timestamp are extracted but stay advisory (the fetch
// collaborator already supplies authoritative values for both).
func (e *Enricher) Enrich(ctx context.Context, events []domain.Event) {
	for start := 0; start < len(events); start += e.batchSize {
		end := start + e.batchSize
		if end > len(events) {
			end = len(events)
		}

		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = events[start+i].Text()
		}

		enrichments := e.enrichChunk(ctx, texts)
		for i, enr := range enrichments {
			events[start+i].Country = enr.Country
			events[start+i].Region = enr.Region
			events[start+i].Location = enr.Location
			events[start+i].Title = enr.Title
		}
	}
}

// enrichChunk returns one Enrichment per input text, aligned by position.
// Ids never answered for stay all-unknown; the first valid line per id wins.
func (e *Enricher) enrichChunk(ctx context.Context, texts []string) []Enrichment {
	enrichments := make([]Enrichment, len(texts))
	if len(texts) == 0 {
		return enrichments
	}

	var sb strings.Builder
	sb.WriteString(enrichHeader)
	for i, txt := range texts {
		sb.WriteString("[")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString("] ")
		sb.WriteString(txt)
		sb.WriteString("\n")
	}

	raw, err := e.client.Complete(ctx, sb.String())
	if err != nil {
		log.Printf("[enrich] chunk of %d failed, fields stay unknown: %v", len(texts), err)
		metrics.LLMCalls.WithLabelValues("enrich", "error").Inc()
		return enrichments
	}
	metrics.LLMCalls.WithLabelValues("enrich", "ok").Inc()

	objects, skipped := llm.DecodeLines(raw)
	if skipped > 0 {
		log.Printf("[enrich] skipped %d unparseable response lines", skipped)
		metrics.SkippedLines.WithLabelValues("enrich").Add(float64(skipped))
	}

	seen := make(map[int]bool)
	for _, obj := range objects {
		id, ok := llm.IntField(obj, "id")
		if !ok || id < 0 || id >= len(texts) || seen[id] {
			continue
		}
		seen[id] = true
		enrichments[id] = Enrichment{
			Country:   coerceString(obj["country"]),
			Region:    coerceString(obj["region"]),
			Location:  coerceString(obj["location"]),
			Title:     coerceString(obj["title"]),
			Source:    coerceString(obj["source"]),
			Timestamp: coerceString(obj["timestamp"]),
		}
	}
	return enrichments
}

// coerceString maps any JSON value to a string field: nil and absence become
// unknown, non-string scalars are rendered as text rather than discarded.
func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}
