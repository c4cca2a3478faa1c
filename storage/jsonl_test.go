package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"atui/timeline"
)

func TestReadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	lines := []string{
		`{"id":"e1","type":"user_message","timestamp":"2025-06-10T12:00:00Z","seq":1,"role":"user","content":"hello"}`,
		``,
		`{"id":"e2","type":"thought","timestamp":"2025-06-10T12:00:01Z","seq":2,"content":"greeting back"}`,
		`not json at all`,
		`{"id":"e3","type":"act","timestamp":"2025-06-10T12:00:02Z","seq":3,"tool_name":"clock","execution_id":"ex-1"}`,
		`{"id":"e4","timestamp":"2025-06-10T12:00:03Z","seq":4}`,
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	result, err := ReadJSONL(path)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if len(result.Events) != 3 {
		t.Fatalf("event count: got %d, want 3", len(result.Events))
	}
	if result.Skipped != 2 {
		t.Errorf("skipped count: got %d, want 2", result.Skipped)
	}
	if result.Events[0].Content != "hello" {
		t.Errorf("first event content: got %q, want %q", result.Events[0].Content, "hello")
	}
	if result.Events[2].ToolName != "clock" {
		t.Errorf("act tool name: got %q, want %q", result.Events[2].ToolName, "clock")
	}
	if result.Events[2].ExecutionID != "ex-1" {
		t.Errorf("act execution id: got %q, want %q", result.Events[2].ExecutionID, "ex-1")
	}

	want := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	if !result.Events[0].Timestamp.Equal(want) {
		t.Errorf("timestamp: got %v, want %v", result.Events[0].Timestamp, want)
	}
}

func TestReadJSONLAssignsMissingIDsAndSeqs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	lines := []string{
		`{"type":"user_message","content":"no id or seq"}`,
		`{"type":"thought","content":"also bare"}`,
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	result, err := ReadJSONL(path)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if len(result.Events) != 2 {
		t.Fatalf("event count: got %d, want 2", len(result.Events))
	}
	for i, ev := range result.Events {
		if ev.ID == "" {
			t.Errorf("event %d has no id", i)
		}
		if ev.Seq != int64(i+1) {
			t.Errorf("event %d seq: got %d, want %d", i, ev.Seq, i+1)
		}
	}
}

func TestReadJSONLReordersBySeq(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	lines := []string{
		`{"id":"e2","type":"thought","seq":20,"content":"second"}`,
		`{"id":"e1","type":"user_message","seq":10,"content":"first"}`,
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	result, err := ReadJSONL(path)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if len(result.Events) != 2 {
		t.Fatalf("event count: got %d, want 2", len(result.Events))
	}
	if result.Events[0].ID != "e1" || result.Events[1].ID != "e2" {
		t.Errorf("order: got [%s %s], want [e1 e2]", result.Events[0].ID, result.Events[1].ID)
	}
	// The file's own seq values survive when they are consistent.
	if result.Events[0].Seq != 10 || result.Events[1].Seq != 20 {
		t.Errorf("seqs: got [%d %d], want [10 20]", result.Events[0].Seq, result.Events[1].Seq)
	}
}

func TestReadJSONLRenumbersDuplicateSeqs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	lines := []string{
		`{"id":"e1","type":"user_message","seq":7,"content":"a"}`,
		`{"id":"e2","type":"thought","seq":7,"content":"b"}`,
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	result, err := ReadJSONL(path)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if result.Events[0].Seq != 1 || result.Events[1].Seq != 2 {
		t.Errorf("seqs: got [%d %d], want [1 2]", result.Events[0].Seq, result.Events[1].Seq)
	}
}

func TestWriteAndReadJSONLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export", "out.jsonl")
	events := []timeline.Event{
		{
			ID:        "e1",
			Type:      timeline.TypeUserMessage,
			Timestamp: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
			Seq:       1,
			Role:      "user",
			Content:   "round trip",
		},
		{
			ID:          "e2",
			Type:        timeline.TypeAct,
			Timestamp:   time.Date(2025, 6, 10, 12, 0, 1, 0, time.UTC),
			Seq:         2,
			ToolName:    "bash",
			ToolInput:   map[string]any{"command": "uptime"},
			ExecutionID: "ex-9",
		},
	}

	if err := WriteJSONL(path, events); err != nil {
		t.Fatalf("failed to write: %v", err)
	}

	result, err := ReadJSONL(path)
	if err != nil {
		t.Fatalf("failed to read back: %v", err)
	}
	if len(result.Events) != 2 {
		t.Fatalf("event count: got %d, want 2", len(result.Events))
	}
	if result.Skipped != 0 {
		t.Errorf("skipped: got %d, want 0", result.Skipped)
	}
	got := result.Events[1]
	if got.ToolName != "bash" || got.ExecutionID != "ex-9" {
		t.Errorf("act fields: got %+v", got)
	}
	if cmd, ok := got.ToolInput["command"].(string); !ok || cmd != "uptime" {
		t.Errorf("tool input: got %v", got.ToolInput)
	}
}

func TestReadJSONLMissingFile(t *testing.T) {
	if _, err := ReadJSONL(filepath.Join(t.TempDir(), "nope.jsonl")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
