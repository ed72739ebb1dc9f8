package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Camprch/osint-tool/internal/domain"
)

//go:embed schema.sql
var schema string

const eventColumns = `id, external_message_id, source, channel, orientation,
	raw_text, translated_text, country, region, location, title,
	event_timestamp, created_at`

// Store handles event persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and initializes the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertEvents persists a batch of events in one transaction, assigning each
// an id and a server-side created_at.
func (s *Store) InsertEvents(events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, e := range events {
		_, err := stmt.Exec(
			uuid.New().String(),
			nullableInt64(e.ExternalMessageID),
			e.Source,
			e.Channel,
			e.Orientation,
			e.RawText,
			e.TranslatedText,
			e.Country,
			e.Region,
			e.Location,
			e.Title,
			nullableTime(e.EventTimestamp),
			now,
		)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ExistingKeys returns the subset of the given (channel, external message id)
// pairs already present in storage.
func (s *Store) ExistingKeys(keys []domain.MessageKey) (map[domain.MessageKey]struct{}, error) {
	existing := make(map[domain.MessageKey]struct{})
	if len(keys) == 0 {
		return existing, nil
	}

	channels := make(map[string]bool)
	ids := make(map[int64]bool)
	for _, k := range keys {
		channels[k.Channel] = true
		ids[k.ExternalMessageID] = true
	}

	args := make([]any, 0, len(channels)+len(ids))
	for c := range channels {
		args = append(args, c)
	}
	for id := range ids {
		args = append(args, id)
	}

	query := fmt.Sprintf(
		`SELECT channel, external_message_id FROM events
		 WHERE channel IN (%s) AND external_message_id IN (%s)`,
		placeholders(len(channels)), placeholders(len(ids)),
	)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query existing keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var channel sql.NullString
		var id sql.NullInt64
		if err := rows.Scan(&channel, &id); err != nil {
			return nil, fmt.Errorf("scan existing key: %w", err)
		}
		if channel.Valid && id.Valid {
			existing[domain.MessageKey{Channel: channel.String, ExternalMessageID: id.Int64}] = struct{}{}
		}
	}
	return existing, rows.Err()
}

// DeleteOlderThan removes events whose event timestamp predates cutoff and
// returns the number deleted. Events without a timestamp are kept.
func (s *Store) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM events WHERE event_timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old events: %w", err)
	}
	return res.RowsAffected()
}

// EventsWithCountrySince returns events with a non-empty country ingested at
// or after t.
func (s *Store) EventsWithCountrySince(t time.Time) ([]domain.Event, error) {
	return s.queryEvents(`SELECT `+eventColumns+` FROM events
		WHERE country != '' AND created_at >= ? ORDER BY created_at`, t)
}

// EventsWithCountryOn returns events with a non-empty country ingested on
// the given day.
func (s *Store) EventsWithCountryOn(day time.Time) ([]domain.Event, error) {
	start, end := dayBounds(day)
	return s.queryEvents(`SELECT `+eventColumns+` FROM events
		WHERE country != '' AND created_at >= ? AND created_at < ? ORDER BY created_at`, start, end)
}

// EventsWithCountry returns every stored event with a non-empty country.
func (s *Store) EventsWithCountry() ([]domain.Event, error) {
	return s.queryEvents(`SELECT ` + eventColumns + ` FROM events
		WHERE country != '' ORDER BY created_at`)
}

// EventsOn returns every event ingested on the given day.
func (s *Store) EventsOn(day time.Time) ([]domain.Event, error) {
	start, end := dayBounds(day)
	return s.queryEvents(`SELECT `+eventColumns+` FROM events
		WHERE created_at >= ? AND created_at < ? ORDER BY created_at`, start, end)
}

// RecentDates returns the most recent n distinct ingestion dates, newest
// first.
func (s *Store) RecentDates(n int) ([]time.Time, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT date(created_at) FROM events ORDER BY 1 DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		t, err := time.ParseInLocation("2006-01-02", d, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", d, err)
		}
		dates = append(dates, t)
	}
	return dates, rows.Err()
}

func (s *Store) queryEvents(query string, args ...any) ([]domain.Event, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var extID sql.NullInt64
		var eventTS sql.NullTime
		err := rows.Scan(
			&e.ID, &extID, &e.Source, &e.Channel, &e.Orientation,
			&e.RawText, &e.TranslatedText, &e.Country, &e.Region, &e.Location,
			&e.Title, &eventTS, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if extID.Valid {
			e.ExternalMessageID = extID.Int64
		}
		if eventTS.Valid {
			ts := eventTS.Time
			e.EventTimestamp = &ts
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// nullableInt64 returns nil for 0 (meaning no external id) else the value.
func nullableInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
