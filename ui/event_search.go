package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"atui/storage"
	"atui/timeline"
)

func renderEventSearch(a AppView, searchInput textinput.Model, results []storage.EventMatch, selectedIdx, scrollIdx, width, height int) string {
	modalWidth := width - 4
	if modalWidth > 100 {
		modalWidth = 100
	}

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(1, 2)

	title := TitleStyle.Render("🔍 Search Current Conversation")
	searchView := searchInput.View()

	resultsView := ""
	if len(results) == 0 {
		if searchInput.Value() == "" {
			resultsView = DimStyle.Render("Type to search events in current conversation...")
		} else {
			resultsView = DimStyle.Render("No matches found")
		}
	} else {
		// Calculate fixed overhead precisely
		// Border(2) + Padding(2) + Title(1) + Blank(1) + SearchInput(1) + Blank(1) +
		// "Found X matches:"(1) + Blank(1) + Footer(1) + Blank(1) = 12 lines
		fixedOverhead := 12

		// Reserve space for scroll indicators if needed
		scrollIndicatorSpace := 4 // "↑ X more above" (2) + "↓ X more below" (2)

		availableLines := height - fixedOverhead - scrollIndicatorSpace
		if availableLines < 3 {
			availableLines = 3 // Minimum to show at least 1 result
		}

		// Use very conservative estimate for lines per result (accounts for worst-case wrapping)
		linesPerResult := 6
		maxVisibleResults := availableLines / linesPerResult
		if maxVisibleResults < 1 {
			maxVisibleResults = 1
		}

		startIdx := scrollIdx
		endIdx := scrollIdx + maxVisibleResults
		if endIdx > len(results) {
			endIdx = len(results)
		}

		resultsView = fmt.Sprintf("Found %d matches:\n\n", len(results))

		if startIdx > 0 {
			resultsView += DimStyle.Render(fmt.Sprintf("↑ %d more above\n\n", startIdx))
		}

		for i := startIdx; i < endIdx; i++ {
			match := results[i]

			label, labelStyle := eventTypeLabel(match.Type)

			matchText := fmt.Sprintf("%s [%s] %s\n  %s",
				labelStyle.Render(label),
				match.Timestamp.Format("Jan 2, 3:04 PM"),
				DimStyle.Render(fmt.Sprintf("#%d", match.Seq)),
				match.Preview,
			)

			if i == selectedIdx {
				matchText = SelectedStyle.Render("> " + matchText)
			} else {
				matchText = "  " + matchText
			}

			resultsView += matchText + "\n\n"
		}

		if endIdx < len(results) {
			resultsView += DimStyle.Render(fmt.Sprintf("↓ %d more below", len(results)-endIdx))
		}
	}

	footer := FormatFooter("Type", "to search", a.formatKeyDisplay("primary", "J/K"), "Navigate", "Enter", "Jump", "Esc", "Close")

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		searchView,
		"",
		resultsView,
		"",
		footer,
	)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		modalStyle.Width(modalWidth).Render(content))
}

// eventTypeLabel maps a stored event type to a short display label and
// its style.
func eventTypeLabel(eventType string) (string, lipgloss.Style) {
	switch eventType {
	case timeline.TypeUserMessage:
		return "user", UserStyle
	case timeline.TypeAssistantMessage:
		return "assistant", AssistantStyle
	case timeline.TypeThought:
		return "thought", ThoughtStyle
	case timeline.TypeAct:
		return "tool call", HighlightStyle
	case timeline.TypeObserve:
		return "tool result", DimStyle
	case timeline.TypeWorkPlan:
		return "plan", AssistantStyle
	case timeline.TypeStepStart, timeline.TypeStepEnd:
		return "step", DimStyle
	case timeline.TypeClarificationAsked, timeline.TypeDecisionAsked, timeline.TypeEnvVarRequested:
		return "question", StatusStyle
	case timeline.TypeClarificationAnswered, timeline.TypeDecisionAnswered, timeline.TypeEnvVarProvided:
		return "answer", UserStyle
	default:
		return eventType, DimStyle
	}
}
