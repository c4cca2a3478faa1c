package storage

import (
	"strings"
	"testing"
	"time"
)

func TestConversationStoreRoundTrip(t *testing.T) {
	store, err := NewConversationStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	conv := &Conversation{Title: "Deploy investigation", Source: "demo"}
	if err := store.Save(conv); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if conv.ID == "" {
		t.Fatal("save should assign an ID")
	}
	if conv.CreatedAt.IsZero() || conv.UpdatedAt.IsZero() {
		t.Fatal("save should stamp timestamps")
	}

	loaded, err := store.Load(conv.ID)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if loaded.Title != "Deploy investigation" {
		t.Errorf("title: got %q, want %q", loaded.Title, "Deploy investigation")
	}
	if loaded.Source != "demo" {
		t.Errorf("source: got %q, want %q", loaded.Source, "demo")
	}
}

func TestConversationStoreListNewestFirst(t *testing.T) {
	store, err := NewConversationStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	older := &Conversation{Title: "older"}
	if err := store.Save(older); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	newer := &Conversation{Title: "newer"}
	if err := store.Save(newer); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	list, err := store.List()
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list length: got %d, want 2", len(list))
	}
	if list[0].Title != "newer" {
		t.Errorf("first entry: got %q, want %q", list[0].Title, "newer")
	}
}

func TestConversationStoreDeleteAndRename(t *testing.T) {
	store, err := NewConversationStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	conv := &Conversation{Title: "temp"}
	if err := store.Save(conv); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	if err := store.Rename(conv.ID, "renamed"); err != nil {
		t.Fatalf("failed to rename: %v", err)
	}
	loaded, err := store.Load(conv.ID)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if loaded.Title != "renamed" {
		t.Errorf("title after rename: got %q, want %q", loaded.Title, "renamed")
	}

	if err := store.Delete(conv.ID); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, err := store.Load(conv.ID); err == nil {
		t.Error("load after delete should fail")
	}
}

func TestConversationStoreCurrentID(t *testing.T) {
	store, err := NewConversationStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := store.SaveCurrentID("abc-123"); err != nil {
		t.Fatalf("failed to save current id: %v", err)
	}
	id, err := store.LoadCurrentID()
	if err != nil {
		t.Fatalf("failed to load current id: %v", err)
	}
	if id != "abc-123" {
		t.Errorf("current id: got %q, want %q", id, "abc-123")
	}
}

func TestGenerateTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "short message", input: "fix the login bug", want: "fix the login bug"},
		{
			name:  "long message truncated",
			input: strings.Repeat("a", 60),
			want:  strings.Repeat("a", 40) + "...",
		},
		{name: "newlines flattened", input: "fix\nthe\nbug", want: "fix the bug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateTitle(tt.input); got != tt.want {
				t.Errorf("GenerateTitle(%q): got %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	// Empty input falls back to a dated title.
	if got := GenerateTitle(""); !strings.HasPrefix(got, "Conversation ") {
		t.Errorf("fallback title: got %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "spaces and slashes", input: "my test/file", want: "my-test-file"},
		{name: "trimmed punctuation", input: "--hello--", want: "hello"},
		{name: "empty falls back", input: "///", want: "conversation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q): got %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestInstanceLock(t *testing.T) {
	store, err := NewConversationStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	locked, _, err := store.CheckInstanceLock()
	if err != nil {
		t.Fatalf("failed to check lock: %v", err)
	}
	if locked {
		t.Fatal("fresh store should not be locked")
	}

	if err := store.LockInstance(); err != nil {
		t.Fatalf("failed to lock: %v", err)
	}
	locked, pid, err := store.CheckInstanceLock()
	if err != nil {
		t.Fatalf("failed to check lock: %v", err)
	}
	if !locked {
		t.Fatal("store should report locked")
	}
	if pid <= 0 {
		t.Errorf("pid: got %d, want > 0", pid)
	}

	if err := store.UnlockInstance(); err != nil {
		t.Fatalf("failed to unlock: %v", err)
	}
	locked, _, err = store.CheckInstanceLock()
	if err != nil {
		t.Fatalf("failed to check lock: %v", err)
	}
	if locked {
		t.Error("store should be unlocked")
	}

	// Unlocking twice is fine.
	if err := store.UnlockInstance(); err != nil {
		t.Errorf("second unlock: %v", err)
	}
}
