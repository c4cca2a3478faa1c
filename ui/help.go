package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"atui/config"
)

func (a AppView) renderHelpModal(width, height int) string {
	kb := a.dataModel.Config.Keybindings
	if kb == nil {
		kb = config.DefaultKeybindings()
	}

	green := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)

	title := green.Render("ATUI - Keyboard Shortcuts")

	blue := lipgloss.NewStyle().Foreground(accentColor)

	globalActions := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Global Actions"),
		fmt.Sprintf("• %-13s Conversations", kb.DisplayActionKey("conversation_picker")),
		fmt.Sprintf("• %-13s Import transcript", kb.DisplayActionKey("import_transcript")),
		fmt.Sprintf("• %-13s Export conversation", kb.DisplayActionKey("export_conversation")),
		fmt.Sprintf("• %-13s Search events", kb.DisplayActionKey("search_events")),
		fmt.Sprintf("• %-13s Replay conversation", kb.DisplayActionKey("replay")),
		fmt.Sprintf("• %-13s Settings", kb.DisplayActionKey("settings")),
		fmt.Sprintf("• %-13s About", kb.DisplayActionKey("about")),
		fmt.Sprintf("• %-13s Toggle this help", kb.DisplayActionKey("help")),
		fmt.Sprintf("• %-13s Quit", kb.DisplayActionKey("quit")),
	)

	timelineNavigation := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Timeline Navigation"),
		fmt.Sprintf("• %-13s Scroll down 1 line", kb.DisplayActionKey("scroll_down")),
		fmt.Sprintf("• %-13s Scroll up 1 line", kb.DisplayActionKey("scroll_up")),
		fmt.Sprintf("• %-13s Half page down", kb.DisplayActionKey("half_page_down")),
		fmt.Sprintf("• %-13s Half page up", kb.DisplayActionKey("half_page_up")),
		fmt.Sprintf("• %-13s Full page down", kb.DisplayActionKey("page_down")),
		fmt.Sprintf("• %-13s Full page up", kb.DisplayActionKey("page_up")),
		fmt.Sprintf("• %-13s Jump to top", kb.DisplayActionKey("scroll_to_top")),
		fmt.Sprintf("• %-13s Jump to bottom", kb.DisplayActionKey("scroll_to_bottom")),
	)

	timelineActions := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Timeline Actions"),
		fmt.Sprintf("• %-13s Toggle grouped/raw view", kb.DisplayActionKey("toggle_view")),
		fmt.Sprintf("• %-13s Copy last response group", kb.DisplayActionKey("yank_group")),
		fmt.Sprintf("• %-13s Copy conversation", kb.DisplayActionKey("yank_conversation")),
	)

	tips := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Tips"),
		"• "+"Scrolling up pages in older events",
		"• "+"Replay follows the tail until you scroll up",
		"• "+"Transparency Preserved",
	)

	column1 := lipgloss.JoinVertical(
		lipgloss.Left,
		globalActions,
		"",
		tips,
	)

	column2 := lipgloss.JoinVertical(
		lipgloss.Left,
		timelineNavigation,
		"",
		timelineActions,
	)

	columnStyle := lipgloss.NewStyle().Width(42).PaddingLeft(8)

	twoColumns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		columnStyle.Render(column1),
		"    ",
		columnStyle.Render(column2),
	)

	footer := lipgloss.NewStyle().
		Foreground(dimColor).
		Render(fmt.Sprintf("      Press %s or Esc to close this help", kb.DisplayActionKey("help")))

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		twoColumns,
		"",
		footer,
	)

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(1, 2).
		Width(100)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		helpBox.Render(content),
	)
}
