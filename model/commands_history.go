package model

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"atui/config"
	"atui/scroll"
)

// LoadOlderEvents fetches the page of history a preload trigger asked
// for. The context is cancelled on conversation switch; a cancelled
// load reports nothing. The generation travels with the result so
// stale pages are positively rejected in Update.
func (m *Model) LoadOlderEvents(ctx context.Context, req scroll.LoadRequest) tea.Cmd {
	if m.Events == nil {
		return nil
	}

	events := m.Events
	return func() tea.Msg {
		page, hasMore, err := events.ListBefore(req.ConversationID, req.BeforeSeq, req.Limit)

		select {
		case <-ctx.Done():
			if config.DebugLog != nil {
				config.DebugLog.Printf("[History] load gen=%d dropped: conversation switched", req.Generation)
			}
			return nil
		default:
		}

		return HistoryPageMsg{
			ConversationID: req.ConversationID,
			Generation:     req.Generation,
			Events:         page,
			HasMore:        hasMore,
			Err:            err,
		}
	}
}

// ScheduleIndicatorDelay arms the spinner reveal for one load request.
// Fast loads complete before it fires, so they never flash a spinner.
func ScheduleIndicatorDelay(d time.Duration, generation uint64) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return IndicatorDelayMsg{Generation: generation}
	})
}

// ScheduleLoadTimeout arms the loading-flag self-clear for one load
// request. It is the last-resort unblock when a completion never
// arrives.
func ScheduleLoadTimeout(d time.Duration, generation uint64) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return LoadTimeoutMsg{Generation: generation}
	})
}

// SearchEventsCmd searches the stored events of a conversation
func (m *Model) SearchEventsCmd(conversationID, query string) tea.Cmd {
	if m.Events == nil {
		return nil
	}

	events := m.Events
	return func() tea.Msg {
		matches, err := events.Search(conversationID, query, 100)
		return SearchResultsMsg{
			Query:   query,
			Matches: matches,
			Err:     err,
		}
	}
}
