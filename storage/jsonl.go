package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"atui/timeline"
)

// maxLineSize bounds one JSONL line; tool outputs can run long.
const maxLineSize = 4 * 1024 * 1024

// ImportResult is what reading a JSONL transcript produced.
type ImportResult struct {
	Events  []timeline.Event
	Skipped int // malformed or typeless lines
}

// ReadJSONL parses a transcript with one event object per line. Blank
// lines are ignored; lines that fail to parse or carry no type are
// counted and skipped rather than failing the import. The returned
// events always carry IDs and strictly increasing sequence numbers.
func ReadJSONL(path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	result := &ImportResult{}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var ev timeline.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			result.Skipped++
			continue
		}
		if ev.Type == "" {
			result.Skipped++
			continue
		}
		if ev.ID == "" {
			ev.ID = uuid.New().String()
		}

		result.Events = append(result.Events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	normalizeSeqs(result.Events)

	return result, nil
}

// normalizeSeqs ensures strictly increasing sequence numbers. When the
// file carries a consistent ordering it is kept; anything partial or
// out of order is renumbered from 1 in file order.
func normalizeSeqs(events []timeline.Event) {
	usable := len(events) > 0
	for i, ev := range events {
		if ev.Seq <= 0 || (i > 0 && ev.Seq <= events[i-1].Seq) {
			usable = false
			break
		}
	}
	if usable {
		return
	}

	// Prefer the file's own seq ordering when every seq is present.
	allSet := true
	for _, ev := range events {
		if ev.Seq <= 0 {
			allSet = false
			break
		}
	}
	if allSet {
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Seq < events[j].Seq
		})
		// Duplicates may remain after sorting; fall through to renumber.
		dup := false
		for i := 1; i < len(events); i++ {
			if events[i].Seq == events[i-1].Seq {
				dup = true
				break
			}
		}
		if !dup {
			return
		}
	}

	for i := range events {
		events[i].Seq = int64(i + 1)
	}
}

// WriteJSONL exports events as one JSON object per line.
func WriteJSONL(path string, events []timeline.Event) error {
	// Ensure directory exists (0700 - user-only access)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", ev.ID, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}

	return nil
}
