package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Conversation is the stored metadata of one timeline. The events
// themselves live in the event store; this record only carries what
// the picker and title bar need.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source,omitempty"` // import path, "demo", or empty
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationStore handles conversation metadata persistence
type ConversationStore struct {
	conversationsDir string
}

// NewConversationStore creates a new conversation store under dataDir
func NewConversationStore(dataDir string) (*ConversationStore, error) {
	conversationsDir := filepath.Join(dataDir, "conversations")

	// Create conversations directory if it doesn't exist (0700 - user-only access)
	if err := os.MkdirAll(conversationsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create conversations directory: %w", err)
	}

	return &ConversationStore{
		conversationsDir: conversationsDir,
	}, nil
}

// Save saves a conversation's metadata to disk
func (cs *ConversationStore) Save(conv *Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}

	conv.UpdatedAt = time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = conv.UpdatedAt
	}

	path := filepath.Join(cs.conversationsDir, conv.ID+".json")

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	// Use 0600 permissions - conversations may reference sensitive transcripts
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write conversation file: %w", err)
	}

	return nil
}

// Load loads a conversation's metadata from disk
func (cs *ConversationStore) Load(id string) (*Conversation, error) {
	path := filepath.Join(cs.conversationsDir, id+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation file: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}

	return &conv, nil
}

// List returns all conversations, sorted by update time (newest first)
func (cs *ConversationStore) List() ([]Conversation, error) {
	entries, err := os.ReadDir(cs.conversationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversations directory: %w", err)
	}

	var conversations []Conversation

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(cs.conversationsDir, entry.Name()))
		if err != nil {
			continue // Skip corrupted files
		}

		var conv Conversation
		if err := json.Unmarshal(data, &conv); err != nil {
			continue // Skip corrupted files
		}

		conversations = append(conversations, conv)
	}

	// Sort by UpdatedAt (newest first)
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})

	return conversations, nil
}

// Delete deletes a conversation's metadata from disk
func (cs *ConversationStore) Delete(id string) error {
	path := filepath.Join(cs.conversationsDir, id+".json")

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete conversation file: %w", err)
	}

	return nil
}

// Rename updates the title of a conversation
func (cs *ConversationStore) Rename(id string, newTitle string) error {
	conv, err := cs.Load(id)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	conv.Title = newTitle

	if err := cs.Save(conv); err != nil {
		return fmt.Errorf("failed to save renamed conversation: %w", err)
	}

	return nil
}

// SaveCurrentID saves the ID of the conversation being viewed
func (cs *ConversationStore) SaveCurrentID(id string) error {
	path := filepath.Join(filepath.Dir(cs.conversationsDir), "current_conversation.id")
	return os.WriteFile(path, []byte(id), 0600)
}

// LoadCurrentID loads the ID of the last viewed conversation
func (cs *ConversationStore) LoadCurrentID() (string, error) {
	path := filepath.Join(filepath.Dir(cs.conversationsDir), "current_conversation.id")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// GenerateTitle derives a conversation title from its first user message
func GenerateTitle(firstMessage string) string {
	if firstMessage == "" {
		return fmt.Sprintf("Conversation %s", time.Now().Format("Jan 2, 3:04 PM"))
	}

	name := firstMessage
	if len(name) > 40 {
		name = name[:40] + "..."
	}

	name = strings.ReplaceAll(name, "\n", " ")
	name = strings.ReplaceAll(name, "\r", " ")
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Sprintf("Conversation %s", time.Now().Format("Jan 2, 3:04 PM"))
	}

	return name
}

// SanitizeFilename removes or replaces characters that are invalid in filenames
func SanitizeFilename(name string) string {
	for _, bad := range []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", " ", "\n", "\r"} {
		name = strings.ReplaceAll(name, bad, "-")
	}

	// Remove leading/trailing hyphens and dots
	name = strings.Trim(name, "-.")

	// Limit length
	if len(name) > 50 {
		name = name[:50]
	}

	// If empty after sanitization, use generic name
	if name == "" {
		name = "conversation"
	}

	return name
}

// GenerateExportPath generates a default export path for a conversation
func GenerateExportPath(title string) string {
	homeDir := os.Getenv("HOME")
	if homeDir == "" {
		homeDir = os.Getenv("USERPROFILE") // Windows fallback
	}

	downloadsDir := filepath.Join(homeDir, "Downloads")
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("atui-conversation-%s-%s.jsonl", SanitizeFilename(title), timestamp)

	return filepath.Join(downloadsDir, filename)
}

// LockInstance creates a global lock to ensure single-instance operation.
// Lock file: <data_dir>/atui.lock, content: PID of the running instance.
// Two instances appending to the same event database would interleave
// sequence numbers.
func (cs *ConversationStore) LockInstance() error {
	lockPath := filepath.Join(filepath.Dir(cs.conversationsDir), "atui.lock")
	return os.WriteFile(lockPath, []byte(fmt.Sprintf("%d", os.Getpid())), 0600)
}

// UnlockInstance removes the global instance lock
func (cs *ConversationStore) UnlockInstance() error {
	lockPath := filepath.Join(filepath.Dir(cs.conversationsDir), "atui.lock")

	err := os.Remove(lockPath)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}

// CheckInstanceLock checks if another instance is currently running.
// Returns (isLocked bool, runningPID int, err error).
func (cs *ConversationStore) CheckInstanceLock() (bool, int, error) {
	lockPath := filepath.Join(filepath.Dir(cs.conversationsDir), "atui.lock")

	data, err := os.ReadFile(lockPath)
	if os.IsNotExist(err) {
		return false, 0, nil // No lock file, not locked
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to read lock file: %w", err)
	}

	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		// Invalid lock file, clean it up
		_ = os.Remove(lockPath)
		return false, 0, nil
	}

	// os.FindProcess always succeeds on Unix; good enough as a basic
	// cross-platform liveness check without signaling.
	if _, err := os.FindProcess(pid); err != nil {
		_ = os.Remove(lockPath)
		return false, 0, nil
	}

	return true, pid, nil
}
