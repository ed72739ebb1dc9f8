package pipeline

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/Camprch/osint-tool/internal/domain"
	"github.com/Camprch/osint-tool/internal/llm"
	"github.com/Camprch/osint-tool/internal/metrics"
)

const translateHeader = `You are a professional translator.
You will be given a numbered list of messages.
For every message, answer STRICTLY in JSON Lines:
{"index": <int>, "translation": "<translated text>"}
One JSON object per line, same order as the indices.
No text outside JSON, no commentary.
IMPORTANT: translate every message into natural French, even when the
original is in English or another language.
Keep proper nouns, hashtags and untranslatable expressions as they are,
quoted inside the French translation.
Messages:
`

// Translator fills in TranslatedText for a batch of events, one LLM call per
// chunk. A failed or garbled chunk falls back to the source text for its
// items and never affects other chunks.
type Translator struct {
	client    llm.Client
	batchSize int
}

func NewTranslator(client llm.Client, batchSize int) *Translator {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Translator{client: client, batchSize: batchSize}
}

// Translate mutates events in place, preserving order.
func (t *Translator) Translate(ctx context.Context, events []domain.Event) {
	for start := 0; start < len(events); start += t.batchSize {
		end := start + t.batchSize
		if end > len(events) {
			end = len(events)
		}

		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = events[start+i].RawText
		}

		translations := t.translateChunk(ctx, texts)
		for i, tr := range translations {
			events[start+i].TranslatedText = tr
		}
	}
}

// translateChunk returns one translation per input text, aligned by
// position. Indices the model never answered for fall back to the source
// text, so a translation is never empty.
func (t *Translator) translateChunk(ctx context.Context, texts []string) []string {
	translations := make([]string, len(texts))
	if len(texts) == 0 {
		return translations
	}

	var sb strings.Builder
	sb.WriteString(translateHeader)
	for i, txt := range texts {
		sb.WriteString("[")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString("] ")
		sb.WriteString(txt)
		sb.WriteString("\n")
	}

	raw, err := t.client.Complete(ctx, sb.String())
	if err != nil {
		log.Printf("[translate] chunk of %d failed, keeping source text: %v", len(texts), err)
		metrics.LLMCalls.WithLabelValues("translate", "error").Inc()
		copy(translations, texts)
		return translations
	}
	metrics.LLMCalls.WithLabelValues("translate", "ok").Inc()

	objects, skipped := llm.DecodeLines(raw)
	if skipped > 0 {
		log.Printf("[translate] skipped %d unparseable response lines", skipped)
		metrics.SkippedLines.WithLabelValues("translate").Add(float64(skipped))
	}

	for _, obj := range objects {
		idx, ok := llm.IntField(obj, "index")
		if !ok || idx < 0 || idx >= len(texts) {
			continue
		}
		tr, ok := llm.StringField(obj, "translation")
		if !ok {
			continue
		}
		translations[idx] = tr
	}

	for i, tr := range translations {
		if tr == "" {
			translations[i] = texts[i]
		}
	}
	return translations
}
