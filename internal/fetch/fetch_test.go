package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func TestParseSources(t *testing.T) {
	tests := []struct {
		in   string
		want []Source
	}{
		{"", nil},
		{"   ", nil},
		{"chan1:pro,chan2:anti,chan3", []Source{
			{Channel: "chan1", Orientation: "pro"},
			{Channel: "chan2", Orientation: "anti"},
			{Channel: "chan3", Orientation: "inconnu"},
		}},
		{"@chan_1:Pro", []Source{{Channel: "chan_1", Orientation: "pro"}}},
		{"bad name!:x", []Source{{Channel: "badname", Orientation: "x"}}},
		{"épé,valid", []Source{{Channel: "p", Orientation: "inconnu"}, {Channel: "valid", Orientation: "inconnu"}}},
		{",,", nil},
	}
	for _, tt := range tests {
		if got := ParseSources(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseSources(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFlattenText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  plain text  ", "plain text"},
		{"<b>Urgent</b> : attaque à <i>Gao</i>", "Urgent : attaque à Gao"},
		{"<p>ligne une</p><p>ligne deux</p>", "ligne une ligne deux"},
		{"<script>alert(1)</script>visible", "visible"},
	}
	for _, tt := range tests {
		if got := flattenText(tt.in); got != tt.want {
			t.Errorf("flattenText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFetchCollectsRecentMessages(t *testing.T) {
	now := time.Now().UTC()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := exportResponse{
			Title: "Canal Test",
			Messages: []exportMessage{
				{ID: 1, Date: now.Add(-time.Hour), Text: "recent message"},
				{ID: 2, Date: now.Add(-48 * time.Hour), Text: "too old"},
				{ID: 3, Date: now.Add(-time.Hour), Text: "   "},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, []Source{{Channel: "test", Orientation: "pro"}}, 24*time.Hour, 50)
	events, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event (cutoff and blank filtered), got %d", len(events))
	}
	e := events[0]
	if e.Source != "Canal Test" || e.Channel != "test" || e.Orientation != "pro" {
		t.Errorf("event identity wrong: %+v", e)
	}
	if e.RawText != "recent message" || e.ExternalMessageID != 1 {
		t.Errorf("event content wrong: %+v", e)
	}
	if e.EventTimestamp == nil {
		t.Error("expected event timestamp to be set")
	}
}

func TestFetchChannelFailureIsNonFatal(t *testing.T) {
	now := time.Now().UTC()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(exportResponse{
			Messages: []exportMessage{{ID: 7, Date: now, Text: "ok"}},
		})
	}))
	defer srv.Close()

	sources := []Source{
		{Channel: "broken", Orientation: "inconnu"},
		{Channel: "healthy", Orientation: "inconnu"},
	}
	f := NewHTTPFetcher(srv.URL, sources, 24*time.Hour, 50)
	events, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(events) != 1 || events[0].Channel != "healthy" {
		t.Fatalf("expected only the healthy channel's event, got %v", events)
	}
	// Title absent: channel name is the source fallback.
	if events[0].Source != "healthy" {
		t.Errorf("source fallback wrong: %q", events[0].Source)
	}
}

func TestFetchCapsPerChannel(t *testing.T) {
	now := time.Now().UTC()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msgs []exportMessage
		for i := 1; i <= 10; i++ {
			msgs = append(msgs, exportMessage{ID: int64(i), Date: now, Text: fmt.Sprintf("message %d", i)})
		}
		json.NewEncoder(w).Encode(exportResponse{Messages: msgs})
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, []Source{{Channel: "chan", Orientation: "inconnu"}}, 24*time.Hour, 3)
	events, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("expected per-channel cap of 3, got %d", len(events))
	}
}

func TestFetchNoSourcesIsEmpty(t *testing.T) {
	f := NewHTTPFetcher("http://unused", nil, 24*time.Hour, 50)
	events, err := f.Fetch(context.Background())
	if err != nil || len(events) != 0 {
		t.Errorf("no sources must be an empty fetch, got %v, %v", events, err)
	}
}
