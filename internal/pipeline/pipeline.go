package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Camprch/osint-tool/internal/domain"
	"github.com/Camprch/osint-tool/internal/fetch"
	"github.com/Camprch/osint-tool/internal/metrics"
)

// EventStore is the storage contract the pipeline depends on.
type EventStore interface {
	ExistingKeys(keys []domain.MessageKey) (map[domain.MessageKey]struct{}, error)
	InsertEvents(events []domain.Event) error
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// Pipeline runs one ingestion cycle: fetch, filter already-stored messages,
// translate, enrich, dedupe, persist, prune. Stages are strictly sequential;
// an empty intermediate result short-circuits to a successful no-op. The
// design assumes a single run at a time — the already-stored check is not
// safe against concurrent writers.
type Pipeline struct {
	fetcher    fetch.Fetcher
	translator *Translator
	enricher   *Enricher
	store      EventStore
	retention  time.Duration
}

func New(fetcher fetch.Fetcher, translator *Translator, enricher *Enricher, store EventStore, retention time.Duration) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		translator: translator,
		enricher:   enricher,
		store:      store,
		retention:  retention,
	}
}

// Run executes a single ingestion cycle.
func (p *Pipeline) Run(ctx context.Context) error {
	events, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	metrics.EventsFetched.Add(float64(len(events)))
	if len(events) == 0 {
		log.Printf("[pipeline] nothing fetched, run is a no-op")
		return nil
	}

	events, err = p.filterExisting(events)
	if err != nil {
		return fmt.Errorf("filter existing: %w", err)
	}
	if len(events) == 0 {
		log.Printf("[pipeline] all fetched messages already stored, run is a no-op")
		return nil
	}

	p.translator.Translate(ctx, events)
	p.enricher.Enrich(ctx, events)

	deduped := Dedupe(events)
	if dropped := len(events) - len(deduped); dropped > 0 {
		log.Printf("[pipeline] dropped %d intra-run duplicates", dropped)
		metrics.EventsDeduplicated.Add(float64(dropped))
	}

	if err := p.store.InsertEvents(deduped); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	metrics.EventsPersisted.Add(float64(len(deduped)))
	log.Printf("[pipeline] persisted %d events", len(deduped))

	cutoff := time.Now().UTC().Add(-p.retention)
	pruned, err := p.store.DeleteOlderThan(cutoff)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	if pruned > 0 {
		log.Printf("[pipeline] pruned %d events older than %s", pruned, p.retention)
		metrics.EventsPruned.Add(float64(pruned))
	}

	return nil
}

// filterExisting drops events whose (channel, external message id) pair is
// already stored. Events lacking either part of the key pass through.
func (p *Pipeline) filterExisting(events []domain.Event) ([]domain.Event, error) {
	var keys []domain.MessageKey
	for _, e := range events {
		if k, ok := e.Key(); ok {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return events, nil
	}

	existing, err := p.store.ExistingKeys(keys)
	if err != nil {
		return nil, err
	}

	out := events[:0]
	for _, e := range events {
		if k, ok := e.Key(); ok {
			if _, dup := existing[k]; dup {
				metrics.EventsAlreadyStored.Inc()
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}
