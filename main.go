package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"atui/config"
	"atui/model"
	"atui/storage"
	"atui/ui"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

func main() {
	// A data directory switch from Settings quits the UI with a
	// restart flag; each pass reopens config and storage fresh.
	for {
		restart, code := run()
		if !restart {
			os.Exit(code)
		}
	}
}

func run() (restart bool, exitCode int) {
	cfg, err := config.Load()
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to load configuration:\n\n%v\n\n"+
			"Check the settings file or unset ATUI_DATA_DIR and try again.", err)

		errorModal := ui.NewErrorModal("Configuration Error", errorMsg)
		p := tea.NewProgram(
			errorModal,
			tea.WithAltScreen(),
		)
		if _, err := p.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return false, 1
	}

	// Initialize debug logging after config is loaded
	config.InitDebugLog(cfg.DataDir())

	conversations, err := storage.NewConversationStore(cfg.DataDir())
	if err != nil {
		fmt.Printf("Failed to initialize conversation storage: %v\n", err)
		return false, 1
	}

	events, err := storage.NewEventStore(cfg.DataDir())
	if err != nil {
		fmt.Printf("Failed to initialize event storage: %v\n", err)
		return false, 1
	}
	defer func() {
		if err := events.Close(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("Warning: failed to close event store: %v", err)
		}
	}()

	// One instance per data directory: the event store has a single
	// writer
	isLocked, runningPID, err := conversations.CheckInstanceLock()
	if err != nil {
		fmt.Printf("Failed to check instance lock: %v\n", err)
		return false, 1
	}
	if isLocked {
		p := tea.NewProgram(
			ui.NewInstanceLockedModal(runningPID),
			tea.WithAltScreen(),
		)

		finalModel, err := p.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return false, 1
		}

		m, ok := finalModel.(ui.InstanceLockedModal)
		if !ok || !m.ForceDelete() {
			return false, 0
		}
		if err := conversations.UnlockInstance(); err != nil {
			fmt.Printf("Failed to remove lock file: %v\n", err)
			return false, 1
		}
	}

	if err := conversations.LockInstance(); err != nil {
		fmt.Printf("Failed to lock instance: %v\n", err)
		return false, 1
	}
	defer func() {
		if err := conversations.UnlockInstance(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("Warning: failed to unlock instance: %v", err)
		}
	}()

	// First run: seed a demo conversation so the timeline has content
	if list, err := conversations.List(); err == nil && len(list) == 0 {
		if _, err := model.SeedDemo(conversations, events); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("Warning: failed to seed demo conversation: %v", err)
		}
	}

	// Resume the last open conversation when known
	var lastConversation *storage.Conversation
	if lastID, err := conversations.LoadCurrentID(); err == nil && lastID != "" {
		lastConversation, _ = conversations.Load(lastID)
	}

	p := tea.NewProgram(
		ui.NewAppView(cfg, conversations, events, lastConversation, Version, License),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	finalModel, err := p.Run()
	if err != nil {
		fmt.Printf("Error running atui: %v\n", err)
		return false, 1
	}

	if av, ok := finalModel.(ui.AppView); ok && av.RestartAfterQuit {
		return true, 0
	}
	return false, 0
}
