package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Camprch/osint-tool/internal/domain"
	"github.com/Camprch/osint-tool/internal/geo"
)

// unknownZone is the display sentinel for events carrying neither region nor
// location.
const unknownZone = "Zone inconnue"

type selectorMode int

const (
	modeAllDates selectorMode = iota
	modeLatestDate
	modeExactDate
)

// DateSelector picks which events of a country the zoned view covers.
type DateSelector struct {
	mode selectorMode
	date time.Time
}

func AllDates() DateSelector { return DateSelector{mode: modeAllDates} }

func LatestDate() DateSelector { return DateSelector{mode: modeLatestDate} }

func ExactDate(d time.Time) DateSelector { return DateSelector{mode: modeExactDate, date: d} }

type EventView struct {
	ID                string     `json:"id"`
	ExternalMessageID int64      `json:"external_message_id,omitempty"`
	Channel           string     `json:"channel,omitempty"`
	Title             string     `json:"title,omitempty"`
	Source            string     `json:"source"`
	Orientation       string     `json:"orientation,omitempty"`
	EventTimestamp    *time.Time `json:"event_timestamp,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	URL               string     `json:"url,omitempty"`
	TranslatedText    string     `json:"translated_text"`
	Preview           string     `json:"preview"`
}

type Zone struct {
	Region      string      `json:"region,omitempty"`
	Location    string      `json:"location,omitempty"`
	EventsCount int         `json:"events_count"`
	Events      []EventView `json:"events"`
}

type CountryEvents struct {
	Date    string `json:"date"`
	Country string `json:"country"`
	Zones   []Zone `json:"zones"`
}

// CountryEvents groups a country's events into zones. The country must
// already be canonical and geo-referenced (ErrUnknownCountry otherwise); a
// known country with zero matching events yields ErrNoEvents, never an empty
// success.
func (a *Aggregator) CountryEvents(country string, sel DateSelector) (*CountryEvents, error) {
	if country == "" || !a.resolver.GeoReferenced(country) {
		return nil, ErrUnknownCountry
	}

	switch sel.mode {
	case modeAllDates:
		return a.countryAllEvents(country)
	case modeLatestDate:
		day, err := a.latestDayFor(country)
		if err != nil {
			return nil, err
		}
		return a.countryEventsOn(country, day)
	default:
		return a.countryEventsOn(country, sel.date)
	}
}

// countryAllEvents buckets every event of the country by a single display
// name: region, else location, else the unknown-zone sentinel.
func (a *Aggregator) countryAllEvents(country string) (*CountryEvents, error) {
	events, err := a.source.EventsWithCountry()
	if err != nil {
		return nil, err
	}
	matching := a.filterCountry(events, country)
	if len(matching) == 0 {
		return nil, ErrNoEvents
	}

	lastDate := matching[0].CreatedAt
	for _, e := range matching {
		if e.CreatedAt.After(lastDate) {
			lastDate = e.CreatedAt
		}
	}

	buckets := make(map[string][]domain.Event)
	var order []string
	for _, e := range matching {
		key := geo.Normalize(displayName(&e))
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], e)
	}

	var zones []Zone
	for _, key := range order {
		items := buckets[key]
		zones = append(zones, Zone{
			Region:      displayName(&items[0]),
			EventsCount: len(items),
			Events:      a.renderEvents(items),
		})
	}
	sortZones(zones)

	return &CountryEvents{
		Date:    lastDate.UTC().Format(dateFormat),
		Country: country,
		Zones:   zones,
	}, nil
}

// countryEventsOn buckets one day's events by the (normalized region,
// normalized location) pair.
func (a *Aggregator) countryEventsOn(country string, day time.Time) (*CountryEvents, error) {
	events, err := a.source.EventsWithCountryOn(day)
	if err != nil {
		return nil, err
	}
	matching := a.filterCountry(events, country)
	if len(matching) == 0 {
		return nil, ErrNoEvents
	}

	type zoneKey struct{ region, location string }
	buckets := make(map[zoneKey][]domain.Event)
	var order []zoneKey
	for _, e := range matching {
		key := zoneKey{geo.Normalize(e.Region), geo.Normalize(e.Location)}
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], e)
	}

	var zones []Zone
	for _, key := range order {
		items := buckets[key]
		zones = append(zones, Zone{
			Region:      firstNonEmpty(items, func(e *domain.Event) string { return e.Region }),
			Location:    firstNonEmpty(items, func(e *domain.Event) string { return e.Location }),
			EventsCount: len(items),
			Events:      a.renderEvents(items),
		})
	}
	sortZones(zones)

	return &CountryEvents{
		Date:    day.UTC().Format(dateFormat),
		Country: country,
		Zones:   zones,
	}, nil
}

// latestDayFor finds the most recent ingestion day on which the country has
// any event.
func (a *Aggregator) latestDayFor(country string) (time.Time, error) {
	events, err := a.source.EventsWithCountry()
	if err != nil {
		return time.Time{}, err
	}
	var last time.Time
	found := false
	for _, e := range a.filterCountry(events, country) {
		if !found || e.CreatedAt.After(last) {
			last = e.CreatedAt
			found = true
		}
	}
	if !found {
		return time.Time{}, ErrNoEvents
	}
	return last.UTC(), nil
}

func (a *Aggregator) filterCountry(events []domain.Event, country string) []domain.Event {
	var out []domain.Event
	for _, e := range events {
		for _, c := range a.resolver.Resolve(e.Country) {
			if c == country {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func (a *Aggregator) renderEvents(events []domain.Event) []EventView {
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		var url string
		if e.Channel != "" && e.ExternalMessageID != 0 {
			url = fmt.Sprintf("https://%s/%s/%d", a.messagingHost, e.Channel, e.ExternalMessageID)
		}
		full := strings.TrimSpace(e.Text())
		out = append(out, EventView{
			ID:                e.ID,
			ExternalMessageID: e.ExternalMessageID,
			Channel:           e.Channel,
			Title:             e.Title,
			Source:            e.Source,
			Orientation:       e.Orientation,
			EventTimestamp:    e.EventTimestamp,
			CreatedAt:         e.CreatedAt,
			URL:               url,
			TranslatedText:    full,
			Preview:           preview(full),
		})
	}
	return out
}

// preview truncates a text longer than 280 characters to its first 277 plus
// an ellipsis marker; shorter texts pass through unchanged.
func preview(full string) string {
	runes := []rune(full)
	if len(runes) > 280 {
		return string(runes[:277]) + "..."
	}
	return full
}

func displayName(e *domain.Event) string {
	if r := strings.TrimSpace(e.Region); r != "" {
		return r
	}
	if l := strings.TrimSpace(e.Location); l != "" {
		return l
	}
	return unknownZone
}

func firstNonEmpty(events []domain.Event, field func(*domain.Event) string) string {
	for i := range events {
		if v := field(&events[i]); v != "" {
			return v
		}
	}
	return ""
}

func sortZones(zones []Zone) {
	sort.SliceStable(zones, func(i, j int) bool {
		return zones[i].EventsCount > zones[j].EventsCount
	})
}
