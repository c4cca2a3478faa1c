package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"atui/timeline"
)

// EventStore persists timeline events per conversation. Sequence
// numbers are unique and strictly increasing within a conversation;
// they are the pagination cursor.
type EventStore struct {
	db *sql.DB
}

// EventMatch is one search hit inside a conversation's events.
type EventMatch struct {
	Seq       int64
	EventID   string
	Type      string
	Timestamp time.Time
	Preview   string
}

func NewEventStore(dataDir string) (*EventStore, error) {
	dbPath := filepath.Join(dataDir, "events.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &EventStore{db: db}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (es *EventStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		conversation_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		event_id TEXT NOT NULL,
		type TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL,
		PRIMARY KEY (conversation_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(conversation_id, type);
	`

	if _, err := es.db.Exec(schema); err != nil {
		return err
	}

	// Migration: add the content column if it doesn't exist
	// This handles existing databases that were created before search support
	if err := es.migrateSchema(); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	return nil
}

// migrateSchema adds missing columns to existing databases
func (es *EventStore) migrateSchema() error {
	hasContent, err := es.columnExists("events", "content")
	if err != nil {
		return fmt.Errorf("failed to check for content column: %w", err)
	}

	if !hasContent {
		_, err := es.db.Exec(`ALTER TABLE events ADD COLUMN content TEXT NOT NULL DEFAULT ''`)
		if err != nil {
			return fmt.Errorf("failed to add content column: %w", err)
		}
	}

	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info
func (es *EventStore) columnExists(tableName, columnName string) (bool, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", tableName)
	rows, err := es.db.Query(query)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var defaultValue sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return false, err
		}
		if name == columnName {
			return true, nil
		}
	}

	return false, rows.Err()
}

// Append stores one event. A zero Seq is assigned the next sequence
// number for the conversation; the stored event is returned with its
// final Seq.
func (es *EventStore) Append(conversationID string, ev timeline.Event) (timeline.Event, error) {
	if ev.Seq == 0 {
		next, err := es.NextSeq(conversationID)
		if err != nil {
			return ev, err
		}
		ev.Seq = next
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return ev, fmt.Errorf("failed to marshal event: %w", err)
	}

	query := `
	INSERT INTO events (conversation_id, seq, event_id, type, timestamp, content, payload)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = es.db.Exec(query,
		conversationID,
		ev.Seq,
		ev.ID,
		ev.Type,
		ev.Timestamp,
		searchableText(ev),
		string(payload),
	)
	if err != nil {
		return ev, fmt.Errorf("failed to insert event: %w", err)
	}

	return ev, nil
}

// AppendBatch stores events in one transaction, assigning sequence
// numbers in slice order after the conversation's current tail.
func (es *EventStore) AppendBatch(conversationID string, events []timeline.Event) error {
	if len(events) == 0 {
		return nil
	}

	next, err := es.NextSeq(conversationID)
	if err != nil {
		return err
	}

	tx, err := es.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT INTO events (conversation_id, seq, event_id, type, timestamp, content, payload)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if ev.Seq == 0 {
			ev.Seq = next
			next++
		} else if ev.Seq >= next {
			next = ev.Seq + 1
		}

		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}

		if _, err := stmt.Exec(
			conversationID,
			ev.Seq,
			ev.ID,
			ev.Type,
			ev.Timestamp,
			searchableText(ev),
			string(payload),
		); err != nil {
			return fmt.Errorf("failed to insert event %s: %w", ev.ID, err)
		}
	}

	return tx.Commit()
}

// NextSeq returns the next free sequence number for a conversation.
func (es *EventStore) NextSeq(conversationID string) (int64, error) {
	var max sql.NullInt64
	err := es.db.QueryRow(
		`SELECT MAX(seq) FROM events WHERE conversation_id = ?`,
		conversationID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to read max seq: %w", err)
	}
	return max.Int64 + 1, nil
}

// Count returns how many events a conversation holds.
func (es *EventStore) Count(conversationID string) (int, error) {
	var n int
	err := es.db.QueryRow(
		`SELECT COUNT(*) FROM events WHERE conversation_id = ?`,
		conversationID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// ListBefore returns up to limit events with seq < beforeSeq in
// ascending order, plus whether older events remain beyond them. A
// beforeSeq <= 0 means "from the tail"; this is the pagination entry
// point for loading history backwards.
func (es *EventStore) ListBefore(conversationID string, beforeSeq int64, limit int) ([]timeline.Event, bool, error) {
	if limit <= 0 {
		return []timeline.Event{}, false, nil
	}

	query := `
	SELECT payload FROM events
	WHERE conversation_id = ? AND seq < ?
	ORDER BY seq DESC
	LIMIT ?
	`
	cursor := beforeSeq
	if cursor <= 0 {
		cursor = math.MaxInt64
	}

	// Fetch one extra row to learn whether more history exists.
	rows, err := es.db.Query(query, conversationID, cursor, limit+1)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(events) > limit
	if hasMore {
		events = events[:limit]
	}

	// Rows came newest-first; present them in timeline order.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}

	return events, hasMore, nil
}

// ListAfter returns up to limit events with seq > afterSeq in ascending
// order, plus whether newer events remain beyond them.
func (es *EventStore) ListAfter(conversationID string, afterSeq int64, limit int) ([]timeline.Event, bool, error) {
	if limit <= 0 {
		return []timeline.Event{}, false, nil
	}

	query := `
	SELECT payload FROM events
	WHERE conversation_id = ? AND seq > ?
	ORDER BY seq ASC
	LIMIT ?
	`

	rows, err := es.db.Query(query, conversationID, afterSeq, limit+1)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(events) > limit
	if hasMore {
		events = events[:limit]
	}

	return events, hasMore, nil
}

// Tail returns the newest limit events in ascending order, plus
// whether older history exists before them.
func (es *EventStore) Tail(conversationID string, limit int) ([]timeline.Event, bool, error) {
	return es.ListBefore(conversationID, 0, limit)
}

// All returns every event of a conversation in ascending order.
func (es *EventStore) All(conversationID string) ([]timeline.Event, error) {
	query := `
	SELECT payload FROM events
	WHERE conversation_id = ?
	ORDER BY seq ASC
	`

	rows, err := es.db.Query(query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Search finds events whose searchable text contains the query,
// case-insensitively, in ascending seq order.
func (es *EventStore) Search(conversationID, query string, limit int) ([]EventMatch, error) {
	if strings.TrimSpace(query) == "" {
		return []EventMatch{}, nil
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := es.db.Query(`
	SELECT seq, event_id, type, timestamp, content FROM events
	WHERE conversation_id = ? AND content != '' AND instr(lower(content), lower(?)) > 0
	ORDER BY seq ASC
	LIMIT ?
	`, conversationID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}
	defer rows.Close()

	var matches []EventMatch
	for rows.Next() {
		var m EventMatch
		var content string
		if err := rows.Scan(&m.Seq, &m.EventID, &m.Type, &m.Timestamp, &content); err != nil {
			continue
		}
		m.Preview = makePreview(content)
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// DeleteConversation removes every event of a conversation.
func (es *EventStore) DeleteConversation(conversationID string) error {
	_, err := es.db.Exec(`DELETE FROM events WHERE conversation_id = ?`, conversationID)
	return err
}

func (es *EventStore) Close() error {
	if es.db != nil {
		return es.db.Close()
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]timeline.Event, error) {
	var events []timeline.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			continue
		}
		var ev timeline.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			continue // Skip corrupted rows
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// searchableText extracts the text a human would search for from an
// event: message/thought content, tool output, or the tool name.
func searchableText(ev timeline.Event) string {
	switch ev.Type {
	case timeline.TypeAct:
		return ev.ToolName
	case timeline.TypeObserve:
		if ev.ToolOutput != "" {
			return ev.ToolName + " " + ev.ToolOutput
		}
		return ev.ToolName
	case timeline.TypeWorkPlan:
		if ev.Plan == nil {
			return ""
		}
		var parts []string
		for _, step := range ev.Plan.Steps {
			parts = append(parts, step.Description)
		}
		return strings.Join(parts, " ")
	default:
		return ev.Content
	}
}

func makePreview(content string) string {
	content = strings.ReplaceAll(content, "\n", " ")
	if len(content) > 100 {
		content = content[:100] + "..."
	}
	return content
}
