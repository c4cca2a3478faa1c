package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"atui/storage"
)

func renderConversationPicker(conversations []storage.Conversation, counts map[string]int, selectedIdx int, currentConversationID string, renameMode bool, renameInput textinput.Model, exportMode bool, exportInput textinput.Model, exporting bool, exportCleaningUp bool, exportSpinner spinner.Model, exportSuccess string, importPicker FilePickerState, confirmDelete *storage.Conversation, filterMode bool, filterInput textinput.Model, filteredConversations []storage.Conversation, width, height int) string {
	// Modal dimensions
	modalWidth := width - 10
	if modalWidth > 110 {
		modalWidth = 110
	}
	modalHeight := height - 6

	// Show delete confirmation if set
	if confirmDelete != nil {
		warningText := lipgloss.NewStyle().Foreground(dangerColor).Render("This deletes its stored events as well.")
		return RenderConfirmationModal(ConfirmationState{
			Active:  true,
			Title:   "⚠ Delete Conversation",
			Message: fmt.Sprintf("Are you sure you want to delete:\n\n\"%s\"\n\n%s", confirmDelete.Title, warningText),
		}, width, height)
	}

	// Show import modal if in import mode
	if importPicker.Active {
		return RenderFilePickerModal(importPicker, width, height)
	}

	// Show export modal if in export mode
	if exportMode {
		return renderExportModal(exportInput, exporting, exportCleaningUp, exportSpinner, exportSuccess, width, height)
	}

	// Title section (no borders)
	titleSection := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Conversations")

	// Header: show filter input or count
	var header string
	if filterMode {
		header = filterInput.View()
	} else {
		displayList := conversations
		if len(filteredConversations) > 0 {
			displayList = filteredConversations
		}
		if len(conversations) == len(displayList) {
			header = fmt.Sprintf("%d conversations", len(conversations))
		} else {
			header = fmt.Sprintf("%d of %d conversations", len(displayList), len(conversations))
		}
	}

	// Header section (with top and bottom borders)
	headerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(header)

	// Determine which list to display
	displayList := conversations
	if filterMode && len(filteredConversations) > 0 {
		displayList = filteredConversations
	}

	// Conversation list
	var conversationLines []string
	maxLines := modalHeight - 8 // Reserve space for title, borders, header, footer

	if len(displayList) == 0 {
		emptyMsg := ""
		if filterMode {
			emptyMsg = "No matches found"
		} else {
			emptyMsg = "No conversations yet. Import a transcript to create one!"
		}
		emptyMsgStyled := lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render(emptyMsg)
		conversationLines = append(conversationLines, emptyMsgStyled)
	} else {
		startIdx := 0
		endIdx := len(displayList)

		// Scroll if needed
		if len(displayList) > maxLines {
			if selectedIdx < maxLines/2 {
				endIdx = maxLines
			} else if selectedIdx >= len(displayList)-maxLines/2 {
				startIdx = len(displayList) - maxLines
			} else {
				startIdx = selectedIdx - maxLines/2
				endIdx = startIdx + maxLines
			}
		}

		for i := startIdx; i < endIdx && i < len(displayList); i++ {
			conv := displayList[i]

			// Format conversation line
			indicator := "  "
			if i == selectedIdx {
				indicator = "▶ "
			}

			// Conversation title (truncate if needed)
			name := conv.Title
			maxNameWidth := modalWidth - 40 // Reserve space for metadata + padding (no side borders)

			// Show textinput if in rename mode for this conversation
			var nameDisplay string
			var hasBullet bool
			if renameMode && i == selectedIdx {
				// Show textinput inline with accent color
				styledInput := lipgloss.NewStyle().
					Foreground(accentColor).
					Bold(true).
					Render(renameInput.View())
				nameDisplay = styledInput
			} else {
				if len(name) > maxNameWidth {
					name = name[:maxNameWidth-3] + "..."
				}
				nameDisplay = name

				// Imported conversations carry their source path (bullet added after spacing calculation)
				if conv.Source != "" {
					hasBullet = true
				}
			}

			// Check if this is the current conversation (marker added after spacing calculation)
			hasCurrentMarker := false
			if conv.ID == currentConversationID && !renameMode {
				hasCurrentMarker = true
			}

			// Event count
			evCount := fmt.Sprintf("%d events", counts[conv.ID])
			if counts[conv.ID] == 1 {
				evCount = "1 event"
			}

			// Time ago
			timeAgo := formatTimeAgo(conv.UpdatedAt)

			// Style the name display individually BEFORE building leftSide
			nameStyled := nameDisplay
			if i == selectedIdx {
				nameStyled = lipgloss.NewStyle().Foreground(successColor).Bold(true).Render(nameDisplay)
			} else if conv.ID == currentConversationID {
				nameStyled = lipgloss.NewStyle().Foreground(accentColor).Bold(true).Render(nameDisplay)
			}

			// Left side: indicator + styled name (no marker yet - added after spacing)
			leftSide := fmt.Sprintf("%s%s", indicator, nameStyled)

			// Right side: event count, timeAgo (right-aligned)
			rightSide := fmt.Sprintf("%12s  %8s", evCount, timeAgo)

			// Calculate spacing using VISUAL width (not including ANSI codes)
			leftVisualWidth := len(indicator) + len(nameDisplay)
			spacing := modalWidth - 4 - leftVisualWidth - len(rightSide) // No side borders, just padding

			// Account for VISUAL width of styled markers we'll add (prevents line wrapping from ANSI codes)
			if hasCurrentMarker {
				spacing -= 10 // " (current)" = 10 visible characters
			}
			if hasBullet {
				spacing -= 2 // " •" = 2 visible characters
			}

			if spacing < 2 {
				spacing = 2
			}

			// Add styled markers after spacing calculation
			if hasCurrentMarker {
				// Use green when selected, blue when current but not selected
				markerColor := accentColor
				if i == selectedIdx {
					markerColor = successColor
				}
				currentStyled := lipgloss.NewStyle().Foreground(markerColor).Render("(current)")
				leftSide = leftSide + " " + currentStyled
			}
			if hasBullet {
				bulletStyled := lipgloss.NewStyle().Foreground(accentColor).Render("•")
				leftSide = leftSide + " " + bulletStyled
			}

			// Style the right side individually BEFORE building line
			rightSideStyled := rightSide
			if i == selectedIdx {
				rightSideStyled = lipgloss.NewStyle().Foreground(successColor).Bold(true).Render(rightSide)
			} else if conv.ID == currentConversationID {
				rightSideStyled = lipgloss.NewStyle().Foreground(accentColor).Bold(true).Render(rightSide)
			}

			// Build the final line with all styled components
			styledLine := fmt.Sprintf("  %s%s%s  ", leftSide, strings.Repeat(" ", spacing), rightSideStyled)

			paddedLine := lipgloss.NewStyle().
				Width(modalWidth).
				Render(styledLine)

			conversationLines = append(conversationLines, paddedLine)
		}
	}

	// Add empty line before and after list
	emptyLine := strings.Repeat(" ", modalWidth)
	conversationLines = append([]string{emptyLine}, conversationLines...)
	conversationLines = append(conversationLines, emptyLine)

	// Footer
	var footerText string
	if renameMode {
		footerText = FormatFooter("Alt+U", "Clear", "Enter", "Save", "Esc", "Cancel")
	} else if filterMode {
		footerText = FormatFooter("Type", "to filter", "Alt+J/K", "Navigate", "Enter", "Load", "Esc", "Cancel")
	} else {
		footerText = FormatFooter("/", "Filter", "j/k", "Navigate", "Enter", "Load", "n", "New", "r", "Rename", "i", "Import", "x", "Export", "d", "Delete", "Esc", "Exit")
	}
	// Footer section (with top border only)
	footerSection := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footerText)

	// Combine all sections
	var sections []string
	sections = append(sections, titleSection)
	sections = append(sections, headerSection)
	for _, line := range conversationLines {
		sections = append(sections, line)
	}
	sections = append(sections, footerSection)

	content := strings.Join(sections, "\n")

	// Center the modal
	modalStyle := lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center)

	return modalStyle.Render(content)
}

// formatTimeAgo formats a time as a relative string (e.g., "2h ago", "3d ago")
func formatTimeAgo(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		mins := int(duration.Minutes())
		return fmt.Sprintf("%dm ago", mins)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		return fmt.Sprintf("%dh ago", hours)
	} else if duration < 7*24*time.Hour {
		days := int(duration.Hours() / 24)
		return fmt.Sprintf("%dd ago", days)
	} else if duration < 30*24*time.Hour {
		weeks := int(duration.Hours() / 24 / 7)
		return fmt.Sprintf("%dw ago", weeks)
	} else {
		months := int(duration.Hours() / 24 / 30)
		return fmt.Sprintf("%dmo ago", months)
	}
}

func renderExportModal(exportInput textinput.Model, exporting bool, cleaningUp bool, exportSpinner spinner.Model, successPath string, width, height int) string {
	// Check for success state first
	if successPath != "" {
		return renderExportSuccess(successPath, "Export", width, height)
	}

	modalWidth := width - 10
	if modalWidth > 80 {
		modalWidth = 80
	}

	// State 3: Cleaning up (BorderTop/BorderBottom pattern like import cleanup)
	if cleaningUp {
		var contentLines []string
		contentLines = append(contentLines, strings.Repeat(" ", modalWidth)) // Top padding

		cleanupLine := fmt.Sprintf("%s Cleaning up...", exportSpinner.View())
		styledCleanup := lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Bold(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render(cleanupLine)

		contentLines = append(contentLines, styledCleanup)
		contentLines = append(contentLines, strings.Repeat(" ", modalWidth)) // Bottom padding

		content := lipgloss.NewStyle().
			BorderTop(true).
			BorderBottom(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(dimColor).
			Width(modalWidth).
			Render(strings.Join(contentLines, "\n"))

		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
	}

	// State 2: Processing export (borderless 3-section)
	if exporting {
		title := "Processing Export"

		var messageLines []string
		messageLines = append(messageLines, strings.Repeat(" ", modalWidth)) // Top padding

		exportLine := fmt.Sprintf("%s Exporting conversation...", exportSpinner.View())
		styledExport := lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Bold(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render(exportLine)

		messageLines = append(messageLines, styledExport)
		messageLines = append(messageLines, strings.Repeat(" ", modalWidth)) // Bottom padding

		footer := "Press Esc to cancel"

		return RenderThreeSectionModal(
			title,
			messageLines,
			footer,
			ModalTypeInfo,
			modalWidth,
			width,
			height,
		)
	}

	// State 1: Input mode (borderless 3-section)
	title := "Export Conversation to JSONL"

	var messageLines []string
	messageLines = append(messageLines, strings.Repeat(" ", modalWidth)) // Top padding

	promptStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Align(lipgloss.Left)

	messageLines = append(messageLines, promptStyle.Render("  Export to:"))

	inputLine := lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true).
		Width(modalWidth).
		Align(lipgloss.Left).
		Render("  " + exportInput.View())

	messageLines = append(messageLines, inputLine)
	messageLines = append(messageLines, strings.Repeat(" ", modalWidth)) // Bottom padding

	footer := "Esc Cancel  Enter Export  Alt+U Clear"

	return RenderThreeSectionModal(
		title,
		messageLines,
		footer,
		ModalTypeInfo,
		modalWidth,
		width,
		height,
	)
}

func renderExportSuccess(exportPath string, operationType string, width, height int) string {
	modalWidth := 70
	if width < modalWidth+10 {
		modalWidth = width - 10
	}

	// Title is dynamic: "✓ Export Successful"
	successTitle := "✓ " + operationType + " Successful"

	// Build message lines with file path
	var messageLines []string
	messageLines = append(messageLines, strings.Repeat(" ", modalWidth)) // Top padding

	pathMsg := fmt.Sprintf("Exported to:\n%s", exportPath)
	wrappedMsg := wordWrap(pathMsg, modalWidth-4)
	messageStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Foreground(accentColor).
		Align(lipgloss.Left)

	for _, line := range strings.Split(wrappedMsg, "\n") {
		styledLine := messageStyle.Render("  " + line)
		messageLines = append(messageLines, styledLine)
	}

	messageLines = append(messageLines, strings.Repeat(" ", modalWidth)) // Bottom padding

	// Format footer
	footer := "Press Enter to acknowledge"

	// Custom rendering to use successColor for title (same as renderFilePickerSuccess)
	var titleColor lipgloss.Color = successColor

	// Title section - manually centered
	titleVisualWidth := lipgloss.Width(successTitle)
	leftPad := (modalWidth - titleVisualWidth) / 2
	if leftPad < 0 {
		leftPad = 0
	}
	rightPad := modalWidth - titleVisualWidth - leftPad
	centeredTitle := strings.Repeat(" ", leftPad) + successTitle + strings.Repeat(" ", rightPad)

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Foreground(titleColor).
		Render(centeredTitle)

	// Message section (with top border)
	messageSection := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Width(modalWidth).
		Render(strings.Join(messageLines, "\n"))

	// Footer section (with top border)
	footerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footer)

	// Combine sections
	sections := []string{titleSection, messageSection, footerSection}
	content := strings.Join(sections, "\n")

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
