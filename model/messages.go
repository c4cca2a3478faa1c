package model

import (
	"atui/storage"
	"atui/timeline"
)

type ConversationsListMsg struct {
	Conversations []storage.Conversation
	Counts        map[string]int
	Err           error
}

type ConversationLoadedMsg struct {
	Conversation *storage.Conversation
	Events       []timeline.Event
	HasMore      bool
	Total        int
	Err          error
}

type ConversationCreatedMsg struct {
	Conversation *storage.Conversation
	Err          error
}

type ConversationRenamedMsg struct {
	Err error
}

type ConversationDeletedMsg struct {
	ID  string
	Err error
}

type ConversationExportedMsg struct {
	Path      string
	Err       error
	Cancelled bool
}

type ExportCleanupDoneMsg struct{}

type DataExportedMsg struct {
	Path      string
	Err       error
	Cancelled bool
}

type DataExportCleanupDoneMsg struct{}

type TranscriptImportedMsg struct {
	Conversation *storage.Conversation
	Imported     int
	Skipped      int
	Err          error
	Cancelled    bool
}

// HistoryPageMsg delivers one page of older events. Generation ties it
// to the request that asked for it; stale pages are discarded.
type HistoryPageMsg struct {
	ConversationID string
	Generation     uint64
	Events         []timeline.Event
	HasMore        bool
	Err            error
}

type IndicatorDelayMsg struct {
	Generation uint64
}

type LoadTimeoutMsg struct {
	Generation uint64
}

type SearchResultsMsg struct {
	Query   string
	Matches []storage.EventMatch
	Err     error
}

type ReplayLoadedMsg struct {
	ConversationID string
	Events         []timeline.Event
	Err            error
}

type ReplayTickMsg struct {
	Generation uint64
}

type FlashTickMsg struct{}
