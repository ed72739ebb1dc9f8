package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Camprch/osint-tool/internal/domain"
)

type fakeFetcher struct {
	events []domain.Event
	err    error
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([]domain.Event, error) {
	return f.events, f.err
}

type fakeStore struct {
	existing      map[domain.MessageKey]struct{}
	inserted      [][]domain.Event
	prunedBefore  []time.Time
	existingCalls int
}

func (s *fakeStore) ExistingKeys(keys []domain.MessageKey) (map[domain.MessageKey]struct{}, error) {
	s.existingCalls++
	out := make(map[domain.MessageKey]struct{})
	for _, k := range keys {
		if _, ok := s.existing[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out, nil
}

func (s *fakeStore) InsertEvents(events []domain.Event) error {
	s.inserted = append(s.inserted, events)
	return nil
}

func (s *fakeStore) DeleteOlderThan(cutoff time.Time) (int64, error) {
	s.prunedBefore = append(s.prunedBefore, cutoff)
	return 0, nil
}

func newTestPipeline(fetcher *fakeFetcher, store *fakeStore, client *fakeClient) *Pipeline {
	return New(fetcher, NewTranslator(client, 10), NewEnricher(client, 10), store, 7*24*time.Hour)
}

func TestRunPersistsAndPrunes(t *testing.T) {
	fetcher := &fakeFetcher{events: []domain.Event{
		{Source: "s", Channel: "chan", ExternalMessageID: 1, RawText: "message one"},
		{Source: "s", Channel: "chan", ExternalMessageID: 2, RawText: "message two"},
	}}
	store := &fakeStore{}
	client := &fakeClient{responses: []string{
		`{"index": 0, "translation": "message un"}
{"index": 1, "translation": "message deux"}`,
		`{"id": 0, "country": "Mali", "title": "Premier"}
{"id": 1, "country": "Niger", "title": "Deuxième"}`,
	}}

	if err := newTestPipeline(fetcher, store, client).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("expected one insert batch, got %d", len(store.inserted))
	}
	batch := store.inserted[0]
	if len(batch) != 2 {
		t.Fatalf("expected 2 persisted events, got %d", len(batch))
	}
	if batch[0].TranslatedText != "message un" || batch[0].Country != "Mali" {
		t.Errorf("first event not enriched: %+v", batch[0])
	}
	if len(store.prunedBefore) != 1 {
		t.Fatalf("expected one prune pass, got %d", len(store.prunedBefore))
	}
	wantCutoff := time.Now().UTC().Add(-7 * 24 * time.Hour)
	if diff := store.prunedBefore[0].Sub(wantCutoff); diff < -time.Minute || diff > time.Minute {
		t.Errorf("prune cutoff %v not near retention window", store.prunedBefore[0])
	}
}

func TestRunEmptyFetchIsNoOp(t *testing.T) {
	store := &fakeStore{}
	client := &fakeClient{}

	err := newTestPipeline(&fakeFetcher{}, store, client).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if store.existingCalls != 0 || len(store.inserted) != 0 || len(store.prunedBefore) != 0 {
		t.Error("empty fetch must short-circuit without touching storage")
	}
	if len(client.prompts) != 0 {
		t.Error("empty fetch must not call the LLM")
	}
}

func TestRunFiltersAlreadyStored(t *testing.T) {
	fetcher := &fakeFetcher{events: []domain.Event{
		{Source: "s", Channel: "chan", ExternalMessageID: 1, RawText: "old"},
		{Source: "s", Channel: "chan", ExternalMessageID: 2, RawText: "new"},
	}}
	store := &fakeStore{existing: map[domain.MessageKey]struct{}{
		{Channel: "chan", ExternalMessageID: 1}: {},
	}}
	client := &fakeClient{responses: []string{
		`{"index": 0, "translation": "nouveau"}`,
		`{"id": 0, "country": "Mali"}`,
	}}

	if err := newTestPipeline(fetcher, store, client).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.inserted) != 1 || len(store.inserted[0]) != 1 {
		t.Fatalf("expected exactly the new event persisted, got %v", store.inserted)
	}
	if store.inserted[0][0].RawText != "new" {
		t.Errorf("wrong event persisted: %+v", store.inserted[0][0])
	}
}

func TestRunAllStoredIsNoOp(t *testing.T) {
	fetcher := &fakeFetcher{events: []domain.Event{
		{Source: "s", Channel: "chan", ExternalMessageID: 1, RawText: "old"},
	}}
	store := &fakeStore{existing: map[domain.MessageKey]struct{}{
		{Channel: "chan", ExternalMessageID: 1}: {},
	}}
	client := &fakeClient{}

	if err := newTestPipeline(fetcher, store, client).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.inserted) != 0 || len(store.prunedBefore) != 0 {
		t.Error("all-already-stored must short-circuit before translation and persist")
	}
	if len(client.prompts) != 0 {
		t.Error("no LLM calls expected when nothing is new")
	}
}

func TestRunIntraRunDuplicatesCollapsed(t *testing.T) {
	fetcher := &fakeFetcher{events: []domain.Event{
		{Source: "s", Channel: "chan", ExternalMessageID: 1, RawText: "alpha"},
		{Source: "s", Channel: "chan", ExternalMessageID: 2, RawText: "beta"},
	}}
	store := &fakeStore{}
	// Both items enrich to the same (source, channel, country, title) key.
	client := &fakeClient{responses: []string{
		`{"index": 0, "translation": "alpha fr"}
{"index": 1, "translation": "beta fr"}`,
		`{"id": 0, "country": "Mali", "title": "Même titre"}
{"id": 1, "country": "Mali", "title": "Même titre"}`,
	}}

	if err := newTestPipeline(fetcher, store, client).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.inserted) != 1 || len(store.inserted[0]) != 1 {
		t.Fatalf("expected duplicates collapsed to 1 event, got %v", store.inserted)
	}
	if store.inserted[0][0].RawText != "alpha" {
		t.Errorf("first occurrence must win, got %+v", store.inserted[0][0])
	}
}

func TestRunFetchErrorPropagates(t *testing.T) {
	store := &fakeStore{}
	p := newTestPipeline(&fakeFetcher{err: errors.New("network down")}, store, &fakeClient{})

	if err := p.Run(context.Background()); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
	if len(store.inserted) != 0 {
		t.Error("no events may be persisted after a fetch failure")
	}
}
