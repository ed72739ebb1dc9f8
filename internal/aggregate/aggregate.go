// Package aggregate computes the country-centric read views over stored
// events: active countries over a window, per-country activity for a day,
// and per-country events grouped into zones.
package aggregate

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Camprch/osint-tool/internal/domain"
	"github.com/Camprch/osint-tool/internal/geo"
)

var (
	// ErrUnknownCountry marks a country that is not canonical or not
	// geo-referenced.
	ErrUnknownCountry = errors.New("country not normalized or not geo-referenced")
	// ErrNoEvents marks a known country with no matching events. Callers
	// must surface this, never an empty payload.
	ErrNoEvents = errors.New("no events for this country")
)

const dateFormat = "2006-01-02"

// EventSource is the read-only storage contract the aggregator depends on.
type EventSource interface {
	EventsWithCountrySince(t time.Time) ([]domain.Event, error)
	EventsWithCountryOn(day time.Time) ([]domain.Event, error)
	EventsWithCountry() ([]domain.Event, error)
	EventsOn(day time.Time) ([]domain.Event, error)
	RecentDates(n int) ([]time.Time, error)
}

// Aggregator answers the dashboard queries. It is stateless between calls
// and safe to use concurrently with an in-flight ingestion run.
type Aggregator struct {
	source        EventSource
	resolver      *geo.Resolver
	messagingHost string
}

func New(source EventSource, resolver *geo.Resolver, messagingHost string) *Aggregator {
	return &Aggregator{source: source, resolver: resolver, messagingHost: messagingHost}
}

type CountryStatus struct {
	Country     string `json:"country"`
	EventsCount int    `json:"events_count"`
	LastDate    string `json:"last_date"`
}

type ActiveCountries struct {
	Countries        []CountryStatus `json:"countries"`
	IgnoredCountries []string        `json:"ignored_countries"`
}

// ActiveCountries lists canonical, geo-referenced countries with event
// counts and last activity, either for an exact date (wins when set) or a
// trailing window of days. Raw country strings that resolve to nothing are
// returned as the sorted ignored list instead of being dropped.
func (a *Aggregator) ActiveCountries(exact *time.Time, days int) (*ActiveCountries, error) {
	var events []domain.Event
	var err error
	if exact != nil {
		events, err = a.source.EventsWithCountryOn(*exact)
	} else {
		if days <= 0 {
			days = 30
		}
		since := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
		events, err = a.source.EventsWithCountrySince(since)
	}
	if err != nil {
		return nil, err
	}

	type stat struct {
		count    int
		lastDate time.Time
	}
	stats := make(map[string]*stat)
	var order []string
	ignored := make(map[string]bool)

	for _, e := range events {
		raw := strings.TrimSpace(e.Country)
		if raw == "" {
			continue
		}
		canonicals := a.resolver.Resolve(raw)
		if len(canonicals) == 0 {
			ignored[raw] = true
			continue
		}
		day := e.CreatedAt.UTC().Truncate(24 * time.Hour)
		for _, c := range canonicals {
			s, ok := stats[c]
			if !ok {
				s = &stat{lastDate: day}
				stats[c] = s
				order = append(order, c)
			}
			s.count++
			if day.After(s.lastDate) {
				s.lastDate = day
			}
		}
	}

	out := &ActiveCountries{IgnoredCountries: []string{}}
	for _, c := range order {
		if !a.resolver.GeoReferenced(c) {
			continue
		}
		s := stats[c]
		out.Countries = append(out.Countries, CountryStatus{
			Country:     c,
			EventsCount: s.count,
			LastDate:    s.lastDate.Format(dateFormat),
		})
	}
	sort.SliceStable(out.Countries, func(i, j int) bool {
		return out.Countries[i].EventsCount > out.Countries[j].EventsCount
	})

	for raw := range ignored {
		out.IgnoredCountries = append(out.IgnoredCountries, raw)
	}
	sort.Strings(out.IgnoredCountries)

	return out, nil
}

type CountryActivity struct {
	Country     string `json:"country"`
	EventsCount int    `json:"events_count"`
}

// CountryActivity counts events per raw country string for one ingestion
// date. Unlike ActiveCountries this view groups on the literal stored value.
func (a *Aggregator) CountryActivity(day time.Time) ([]CountryActivity, error) {
	events, err := a.source.EventsOn(day)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	var order []string
	for _, e := range events {
		country := strings.TrimSpace(e.Country)
		if country == "" {
			continue
		}
		if _, ok := counts[country]; !ok {
			order = append(order, country)
		}
		counts[country]++
	}

	out := make([]CountryActivity, 0, len(order))
	for _, c := range order {
		out = append(out, CountryActivity{Country: c, EventsCount: counts[c]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EventsCount > out[j].EventsCount
	})
	return out, nil
}

// RecentDates returns the 10 most recent distinct ingestion dates, newest
// first, formatted as YYYY-MM-DD.
func (a *Aggregator) RecentDates() ([]string, error) {
	dates, err := a.source.RecentDates(10)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(dateFormat))
	}
	return out, nil
}
