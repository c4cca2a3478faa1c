package ui

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"atui/config"
	"atui/timeline"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// updateViewportContent re-renders every item of the active view mode
// into the timeline pane. Overlays (loading spinner, new-below) live in
// the chrome, never in the content, so item offsets stay stable and the
// scroll anchor survives refreshes.
func (a *AppView) updateViewportContent() {
	width := a.width
	if width < 20 {
		width = 20
	}

	var blocks []string

	if a.dataModel.ViewMode == config.ViewModeRaw {
		// Raw rows resolve each act against its observe up front
		data := timeline.ExtractExecutionData(a.dataModel.Timeline)
		actIdx := 0
		for i, ev := range a.dataModel.Timeline {
			var resolved *timeline.ToolCall
			if ev.Type == timeline.TypeAct && actIdx < len(data.ToolCalls) {
				resolved = &data.ToolCalls[actIdx]
				actIdx++
			}
			blocks = append(blocks, a.renderRawEvent(ev, resolved, i, width))
		}
	} else {
		for i, g := range a.dataModel.Groups {
			blocks = append(blocks, a.renderGroup(g, i, width))
		}
	}

	// Accumulated delta text since the last text_start renders as a
	// trailing block with a cursor
	if r := a.dataModel.Replay; r != nil && r.TextActive {
		blocks = append(blocks, renderStreamingText(r.TextBuffer, width))
	}

	if len(blocks) == 0 {
		empty := DimStyle.Render(fmt.Sprintf("No events yet. Press %s to import a transcript.", a.formatKeyDisplay("primary", "I")))
		blocks = append(blocks, empty+"\n")
	}

	a.timeline.SetItems(blocks)
}

func (a *AppView) renderGroup(g timeline.Group, idx, width int) string {
	highlightPrefix := ""
	if idx == a.highlightedItemIdx && a.highlightFlashCount%2 == 1 {
		highlightPrefix = HighlightStyle.Render(">>> ")
	}

	timestamp := DimStyle.Render(g.Timestamp.Format("[15:04]"))

	if g.Kind == timeline.GroupUser {
		return formatUserBlock(highlightPrefix, timestamp, UserStyle.Render("You"), g.Content)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s%s %s\n", highlightPrefix, timestamp, AssistantStyle.Render("Assistant")))

	if g.Plan != nil {
		b.WriteString(renderPlan(g.Plan, width))
	}

	for _, thought := range g.Thoughts {
		b.WriteString(ThoughtStyle.Render(strings.TrimRight(wordWrapWithIndent(thought, "∴ ", width-4), "\n")))
		b.WriteString("\n")
	}

	for _, tc := range g.ToolCalls {
		b.WriteString(renderToolCall(tc, width))
	}

	if g.Content != "" {
		b.WriteString(wordWrap(g.Content, width-2))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	return b.String()
}

func renderPlan(p *timeline.Plan, width int) string {
	statusStyle := DimStyle
	switch p.Status {
	case timeline.PlanCompleted:
		statusStyle = UserStyle
	case timeline.PlanFailed:
		statusStyle = lipgloss.NewStyle().Foreground(dangerColor)
	case timeline.PlanInProgress:
		statusStyle = AssistantStyle
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 %s\n", statusStyle.Render("Plan: "+p.Status)))

	for _, step := range p.Steps {
		marker := "•"
		switch {
		case p.Status == timeline.PlanCompleted || step.StepNumber < p.CurrentStep:
			marker = "✓"
		case step.StepNumber == p.CurrentStep && p.Status == timeline.PlanFailed:
			marker = "✗"
		case step.StepNumber == p.CurrentStep:
			marker = "▶"
		}
		b.WriteString(wordWrapWithIndent(step.Description, fmt.Sprintf("  %s %d. ", marker, step.StepNumber), width-4))
	}

	return b.String()
}

func renderToolCall(tc timeline.ToolCall, width int) string {
	nameStyle := lipgloss.NewStyle().Bold(true)

	var icon string
	switch tc.Status {
	case timeline.ToolSuccess:
		icon = lipgloss.NewStyle().Foreground(successColor).Render("✓")
	case timeline.ToolError:
		icon = lipgloss.NewStyle().Foreground(dangerColor).Render("✗")
	default:
		icon = StatusStyle.Render("…")
	}

	duration := ""
	if tc.Duration > 0 {
		duration = DimStyle.Render(fmt.Sprintf(" (%s)", formatDuration(tc.Duration)))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s%s%s\n", icon, nameStyle.Render(tc.Name), DimStyle.Render(formatToolInput(tc.Input)), duration))

	// One-line outcome preview under the call
	if tc.Status == timeline.ToolError && tc.Error != "" {
		preview := truncateLine(firstLine(tc.Error), width-8)
		b.WriteString(lipgloss.NewStyle().Foreground(dangerColor).Render("  ╰── " + preview))
		b.WriteString("\n")
	} else if tc.Result != "" {
		preview := truncateLine(firstLine(tc.Result), width-8)
		b.WriteString(DimStyle.Render("  ╰── " + preview))
		b.WriteString("\n")
	}

	return b.String()
}

func (a *AppView) renderRawEvent(ev timeline.Event, resolved *timeline.ToolCall, idx, width int) string {
	highlightPrefix := ""
	if idx == a.highlightedItemIdx && a.highlightFlashCount%2 == 1 {
		highlightPrefix = HighlightStyle.Render(">>> ")
	}

	seq := DimStyle.Render(fmt.Sprintf("%6d", ev.Seq))
	timestamp := DimStyle.Render(ev.Timestamp.Format("15:04:05"))
	label, labelStyle := eventTypeLabel(ev.Type)
	head := fmt.Sprintf("%s%s %s %s", highlightPrefix, seq, timestamp, labelStyle.Render(fmt.Sprintf("%-11s", label)))

	// Detail is truncated before styling so the row stays on one line
	budget := width - 34
	if budget < 10 {
		budget = 10
	}

	var detail string
	switch ev.Type {
	case timeline.TypeAct:
		status := "…"
		duration := ""
		if resolved != nil {
			switch resolved.Status {
			case timeline.ToolSuccess:
				status = "✓"
			case timeline.ToolError:
				status = "✗"
			}
			if resolved.Duration > 0 {
				duration = fmt.Sprintf(" (%s)", formatDuration(resolved.Duration))
			}
		}
		detail = truncateLine(fmt.Sprintf("%s %s%s%s", status, ev.ToolName, formatToolInput(ev.ToolInput), duration), budget)

	case timeline.TypeObserve:
		prefix := ""
		if ev.IsError {
			prefix = "✗ "
		}
		detail = truncateLine(prefix+firstLine(ev.ToolOutput), budget)

	case timeline.TypeWorkPlan:
		if ev.Plan != nil {
			detail = truncateLine(fmt.Sprintf("%d steps (%s)", len(ev.Plan.Steps), timeline.NormalizePlanStatus(ev.Plan.Status)), budget)
		}

	case timeline.TypeStepStart, timeline.TypeStepEnd:
		detail = truncateLine(fmt.Sprintf("step %d: %s", ev.StepIndex, ev.StepDescription), budget)

	default:
		detail = truncateLine(firstLine(ev.Content), budget)
	}

	return head + " " + detail + "\n"
}

func renderStreamingText(buffer string, width int) string {
	timestamp := DimStyle.Render(time.Now().Format("[15:04]"))
	role := AssistantStyle.Render("Assistant")

	text := buffer + "▋"
	return fmt.Sprintf("%s %s\n%s\n\n", timestamp, role, wordWrap(text, width-2))
}

func (a AppView) renderTitleBar() string {
	atuiText := AssistantStyle.Render("ATUI")

	convName := "No Conversation"
	if a.dataModel.CurrentConversation != nil && a.dataModel.CurrentConversation.Title != "" {
		convName = a.dataModel.CurrentConversation.Title
	}
	convText := UserStyle.Render(fmt.Sprintf(" - %s", convName))

	countText := TitleStyle.Render(fmt.Sprintf(" - %d events", a.dataModel.TotalEvents))
	modeText := DimStyle.Render(fmt.Sprintf(" | %s", a.dataModel.ViewMode))

	title := atuiText + convText + countText + modeText

	if a.dataModel.Streaming {
		live := " | ● LIVE"
		if r := a.dataModel.Replay; r != nil && r.Paused {
			live = " | ⏸ PAUSED"
		}
		title += lipgloss.NewStyle().Foreground(dangerColor).Bold(true).Render(live)
	}

	if a.scrollState.ShowIndicator() {
		title += DimStyle.Render(" | ") + a.loadingSpinner.View() + DimStyle.Render("loading history...")
	}

	return title
}

func (a AppView) renderStatusBar() string {
	// Status bar with bold user green descriptions
	descStyle := lipgloss.NewStyle().Foreground(successColor).Bold(true)
	statusBar := fmt.Sprintf("Alt+Q %s  Alt+S %s  Alt+F %s  Alt+T %s  Alt+R %s  Alt+H %s",
		descStyle.Render("Quit"),
		descStyle.Render("Conversations"),
		descStyle.Render("Search"),
		descStyle.Render("View"),
		descStyle.Render("Replay"),
		descStyle.Render("Help"),
	)
	statusBar = StatusStyle.Render(statusBar)

	if a.newBelow {
		statusBar += "  " + HighlightStyle.Render("● New events below (G)")
	}

	return statusBar
}

func formatUserBlock(highlightPrefix, timestamp, role, content string) string {
	greenBold := "\x1b[32;1m"
	reset := "\x1b[0m"
	bar := greenBold + "┃" + reset

	lines := strings.Split(content, "\n")

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s%s %s %s\n", highlightPrefix, bar, timestamp, role))

	for _, line := range lines {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}

	result.WriteString("\n")

	return result.String()
}

// formatToolInput compacts a tool input map into "(k: v, ...)" with
// deterministic key order.
func formatToolInput(input map[string]any) string {
	if len(input) == 0 {
		return ""
	}

	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fmt.Sprintf("%v", input[k])
		v = truncateLine(firstLine(v), 40)
		parts = append(parts, fmt.Sprintf("%s: %s", k, v))
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func truncateLine(s string, max int) string {
	if max < 4 {
		max = 4
	}
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// wordWrapWithIndent wraps text to maxWidth while preserving indentation for continuation lines
func wordWrapWithIndent(text string, prefix string, maxWidth int) string {
	// Calculate available width for text
	prefixLen := len(stripANSI(prefix))
	availableWidth := maxWidth - prefixLen

	if availableWidth <= 0 {
		return prefix + text
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return prefix
	}

	var result strings.Builder
	var currentLine strings.Builder
	indent := strings.Repeat(" ", prefixLen)
	isFirstLine := true

	for _, word := range words {
		// Check if adding this word would exceed width
		testLen := currentLine.Len()
		if testLen > 0 {
			testLen++ // Space before word
		}
		testLen += len(word)

		if testLen > availableWidth && currentLine.Len() > 0 {
			// Flush current line
			if isFirstLine {
				result.WriteString(prefix)
				isFirstLine = false
			} else {
				result.WriteString(indent)
			}
			result.WriteString(currentLine.String())
			result.WriteString("\n")
			currentLine.Reset()
		}

		// Add word to current line
		if currentLine.Len() > 0 {
			currentLine.WriteString(" ")
		}
		currentLine.WriteString(word)
	}

	// Flush remaining line
	if currentLine.Len() > 0 {
		if isFirstLine {
			result.WriteString(prefix)
		} else {
			result.WriteString(indent)
		}
		result.WriteString(currentLine.String())
		result.WriteString("\n")
	}

	return result.String()
}

// stripANSI removes ANSI escape codes for accurate length calculation
func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// formatDuration formats duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	seconds := float64(d.Milliseconds()) / 1000.0
	return fmt.Sprintf("%.1fs", seconds)
}
