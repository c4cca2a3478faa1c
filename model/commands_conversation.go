package model

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"atui/config"
	"atui/storage"
	"atui/timeline"
)

// FetchConversationList retrieves the list of saved conversations with
// their event counts
func (m *Model) FetchConversationList() tea.Cmd {
	if m.Conversations == nil {
		return nil
	}
	store := m.Conversations
	events := m.Events
	return func() tea.Msg {
		conversations, err := store.List()
		if err != nil {
			return ConversationsListMsg{Err: err}
		}
		return ConversationsListMsg{
			Conversations: conversations,
			Counts:        countEvents(events, conversations),
		}
	}
}

// countEvents collects per-conversation event counts for list display.
// Count failures leave the entry at zero rather than failing the list.
func countEvents(events *storage.EventStore, conversations []storage.Conversation) map[string]int {
	counts := make(map[string]int, len(conversations))
	if events == nil {
		return counts
	}
	for _, conv := range conversations {
		n, err := events.Count(conv.ID)
		if err != nil {
			continue
		}
		counts[conv.ID] = n
	}
	return counts
}

// LoadConversation loads a conversation and the newest page of its
// events
func (m *Model) LoadConversation(conversationID string) tea.Cmd {
	if m.Conversations == nil || m.Events == nil {
		return nil
	}

	conversations := m.Conversations
	events := m.Events
	pageSize := m.Config.PageSize

	return func() tea.Msg {
		conv, err := conversations.Load(conversationID)
		if err != nil {
			return ConversationLoadedMsg{Err: err}
		}

		tail, hasMore, err := events.Tail(conversationID, pageSize)
		if err != nil {
			return ConversationLoadedMsg{Conversation: conv, Err: err}
		}

		total, err := events.Count(conversationID)
		if err != nil {
			return ConversationLoadedMsg{Conversation: conv, Err: err}
		}

		// Remember as current for the next startup
		_ = conversations.SaveCurrentID(conversationID)

		return ConversationLoadedMsg{
			Conversation: conv,
			Events:       tail,
			HasMore:      hasMore,
			Total:        total,
		}
	}
}

// LoadConversationAll loads a conversation with its entire event
// history, used when a search jump targets an event older than the
// loaded window
func (m *Model) LoadConversationAll(conversationID string) tea.Cmd {
	if m.Conversations == nil || m.Events == nil {
		return nil
	}

	conversations := m.Conversations
	events := m.Events

	return func() tea.Msg {
		conv, err := conversations.Load(conversationID)
		if err != nil {
			return ConversationLoadedMsg{Err: err}
		}

		all, err := events.All(conversationID)
		if err != nil {
			return ConversationLoadedMsg{Conversation: conv, Err: err}
		}

		return ConversationLoadedMsg{
			Conversation: conv,
			Events:       all,
			HasMore:      false,
			Total:        len(all),
		}
	}
}

// CreateConversation creates and persists a new empty conversation
func (m *Model) CreateConversation(title string) tea.Cmd {
	if m.Conversations == nil {
		return nil
	}

	if title == "" {
		title = "New Conversation"
	}

	store := m.Conversations
	return func() tea.Msg {
		conv := &storage.Conversation{
			Title:     title,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := store.Save(conv); err != nil {
			return ConversationCreatedMsg{Err: fmt.Errorf("failed to save conversation: %w", err)}
		}
		if err := store.SaveCurrentID(conv.ID); err != nil {
			return ConversationCreatedMsg{Err: fmt.Errorf("failed to save current conversation ID: %w", err)}
		}
		return ConversationCreatedMsg{Conversation: conv}
	}
}

// RenameConversationCmd renames a conversation and refreshes the list
func (m *Model) RenameConversationCmd(conversationID, newTitle string) tea.Cmd {
	return func() tea.Msg {
		if m.Conversations == nil {
			return ConversationRenamedMsg{Err: fmt.Errorf("conversation storage not initialized")}
		}

		if err := m.Conversations.Rename(conversationID, newTitle); err != nil {
			return ConversationRenamedMsg{Err: err}
		}

		conversations, err := m.Conversations.List()
		if err != nil {
			return ConversationRenamedMsg{Err: err}
		}

		return ConversationsListMsg{
			Conversations: conversations,
			Counts:        countEvents(m.Events, conversations),
		}
	}
}

// DeleteConversationCmd deletes a conversation's metadata and events,
// then refreshes the list
func (m *Model) DeleteConversationCmd(conversationID string) tea.Cmd {
	return func() tea.Msg {
		if m.Conversations == nil || m.Events == nil {
			return ConversationDeletedMsg{ID: conversationID, Err: fmt.Errorf("storage not initialized")}
		}

		if err := m.Conversations.Delete(conversationID); err != nil {
			return ConversationDeletedMsg{ID: conversationID, Err: err}
		}
		if err := m.Events.DeleteConversation(conversationID); err != nil {
			return ConversationDeletedMsg{ID: conversationID, Err: err}
		}

		return ConversationDeletedMsg{ID: conversationID}
	}
}

// ExportConversationCmd exports a conversation's events to a JSONL file
func (m *Model) ExportConversationCmd(ctx context.Context, conversationID, exportPath string) tea.Cmd {
	return func() tea.Msg {
		// Cancellation point 1: Before loading
		select {
		case <-ctx.Done():
			return ConversationExportedMsg{Cancelled: true}
		default:
		}

		if m.Events == nil {
			return ConversationExportedMsg{Err: fmt.Errorf("event storage not initialized")}
		}

		events, err := m.Events.All(conversationID)
		if err != nil {
			return ConversationExportedMsg{Err: err}
		}
		if len(events) == 0 {
			return ConversationExportedMsg{Err: fmt.Errorf("conversation has no events")}
		}

		// Cancellation point 2: Before writing
		select {
		case <-ctx.Done():
			return ConversationExportedMsg{Cancelled: true}
		default:
		}

		if err := storage.WriteJSONL(exportPath, events); err != nil {
			return ConversationExportedMsg{Err: err}
		}

		return ConversationExportedMsg{Path: exportPath}
	}
}

// ImportTranscriptCmd imports a JSONL transcript as a new conversation
func (m *Model) ImportTranscriptCmd(ctx context.Context, filePath string) tea.Cmd {
	return func() tea.Msg {
		// Cancellation point 1: Start
		select {
		case <-ctx.Done():
			return TranscriptImportedMsg{Cancelled: true}
		default:
		}

		if m.Conversations == nil || m.Events == nil {
			return TranscriptImportedMsg{Err: fmt.Errorf("storage not initialized")}
		}

		expandedPath := config.ExpandPath(filePath)

		result, err := storage.ReadJSONL(expandedPath)
		if err != nil {
			return TranscriptImportedMsg{Err: fmt.Errorf("failed to read transcript: %w", err)}
		}
		if len(result.Events) == 0 {
			return TranscriptImportedMsg{Err: fmt.Errorf("no events found in %s", filePath)}
		}

		// Cancellation point 2: After read
		select {
		case <-ctx.Done():
			return TranscriptImportedMsg{Cancelled: true}
		default:
		}

		conv := &storage.Conversation{
			Title:     storage.GenerateTitle(firstUserContent(result.Events)),
			Source:    expandedPath,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := m.Conversations.Save(conv); err != nil {
			return TranscriptImportedMsg{Err: fmt.Errorf("failed to save conversation: %w", err)}
		}

		// Cancellation point 3: Before the batch insert
		select {
		case <-ctx.Done():
			return TranscriptImportedMsg{Cancelled: true}
		default:
		}

		if err := m.Events.AppendBatch(conv.ID, result.Events); err != nil {
			return TranscriptImportedMsg{Err: fmt.Errorf("failed to store events: %w", err)}
		}

		return TranscriptImportedMsg{
			Conversation: conv,
			Imported:     len(result.Events),
			Skipped:      result.Skipped,
		}
	}
}

// firstUserContent returns the content of the first user message, used
// to derive a conversation title from an imported transcript.
func firstUserContent(events []timeline.Event) string {
	for _, ev := range events {
		if ev.Type == timeline.TypeUserMessage {
			return ev.Content
		}
	}
	return ""
}

// CleanupPartialFileCmd removes a partial export file
func (m *Model) CleanupPartialFileCmd(filePath string) tea.Cmd {
	return func() tea.Msg {
		// Delete the partial file
		if err := os.Remove(filePath); err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("Failed to cleanup partial file: %v", err)
			}
		}
		return ExportCleanupDoneMsg{}
	}
}

// CleanupPartialDataExportCmd removes a partial data export file
func (m *Model) CleanupPartialDataExportCmd(filePath string) tea.Cmd {
	return func() tea.Msg {
		// Delete the partial data export file
		if err := os.Remove(filePath); err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("Failed to cleanup partial data export: %v", err)
			}
		}
		return DataExportCleanupDoneMsg{}
	}
}
