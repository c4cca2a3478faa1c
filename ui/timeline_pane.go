package ui

import (
	"strings"

	"atui/scroll"
	"atui/virtual"
)

// TimelinePane is the scrollable viewport over the rendered timeline.
// Unlike a plain text viewport it keeps one rendered block per list
// item and maps rows through a virtual height index, so scroll
// positions survive prepends and only the visible window is joined
// into the frame.
type TimelinePane struct {
	Width  int
	Height int

	list     *virtual.List
	rendered []string
	yOffset  int
}

// NewTimelinePane returns a pane whose unmeasured items are assumed to
// be estimate rows tall until their first render.
func NewTimelinePane(estimate int) TimelinePane {
	return TimelinePane{
		list:     virtual.NewList(estimate),
		rendered: []string{},
	}
}

// SetSize updates the viewport geometry and re-clamps the position.
func (p *TimelinePane) SetSize(width, height int) {
	p.Width = width
	p.Height = height
	p.SetYOffset(p.yOffset)
}

// SetItems replaces the rendered items wholesale and re-measures every
// height. The scroll position is re-clamped but otherwise kept, so a
// refresh that doesn't change heights is invisible.
func (p *TimelinePane) SetItems(rendered []string) {
	p.rendered = rendered
	p.list.SetCount(len(rendered))
	for i, block := range rendered {
		p.list.Measure(i, strings.Count(block, "\n")+1)
	}
	p.SetYOffset(p.yOffset)
}

// Count returns the number of items.
func (p *TimelinePane) Count() int {
	return p.list.Count()
}

// YOffset returns the current scroll position in rows.
func (p *TimelinePane) YOffset() int {
	return p.yOffset
}

// SetYOffset moves to an absolute row, clamped to valid positions.
func (p *TimelinePane) SetYOffset(n int) {
	max := scroll.MaxScrollTop(p.Metrics())
	if n > max {
		n = max
	}
	if n < 0 {
		n = 0
	}
	p.yOffset = n
}

// Metrics returns the scrollTop/scrollHeight/clientHeight triple the
// scroll controller reasons about.
func (p *TimelinePane) Metrics() scroll.Metrics {
	return scroll.Metrics{
		ScrollTop:    p.yOffset,
		ScrollHeight: p.list.TotalSize(),
		ClientHeight: p.Height,
	}
}

// FirstVisible returns the index of the topmost visible item and its
// first row in content coordinates. Index is -1 for an empty pane.
func (p *TimelinePane) FirstVisible() (index, offset int) {
	index = p.list.IndexAt(p.yOffset)
	if index < 0 {
		return -1, 0
	}
	return index, p.list.OffsetOf(index)
}

// OffsetOf returns the first row of item i; OffsetOf(Count()) is the
// bottom edge.
func (p *TimelinePane) OffsetOf(i int) int {
	return p.list.OffsetOf(i)
}

// TotalLineCount returns the full content height in rows.
func (p *TimelinePane) TotalLineCount() int {
	return p.list.TotalSize()
}

// AtBottom reports whether the last content row is visible.
func (p *TimelinePane) AtBottom() bool {
	return p.yOffset >= scroll.MaxScrollTop(p.Metrics())
}

func (p *TimelinePane) ScrollDown(n int) {
	p.SetYOffset(p.yOffset + n)
}

func (p *TimelinePane) ScrollUp(n int) {
	p.SetYOffset(p.yOffset - n)
}

func (p *TimelinePane) HalfPageDown() {
	p.SetYOffset(p.yOffset + p.Height/2)
}

func (p *TimelinePane) HalfPageUp() {
	p.SetYOffset(p.yOffset - p.Height/2)
}

func (p *TimelinePane) PageDown() {
	p.SetYOffset(p.yOffset + p.Height)
}

func (p *TimelinePane) PageUp() {
	p.SetYOffset(p.yOffset - p.Height)
}

func (p *TimelinePane) GotoTop() {
	p.SetYOffset(0)
}

func (p *TimelinePane) GotoBottom() {
	p.SetYOffset(scroll.MaxScrollTop(p.Metrics()))
}

// CenterOn scrolls so item i sits as close to the vertical middle of
// the viewport as the bounds allow.
func (p *TimelinePane) CenterOn(i int) {
	if i < 0 || i >= p.list.Count() {
		return
	}
	itemMiddle := p.list.OffsetOf(i) + p.list.Height(i)/2
	p.SetYOffset(itemMiddle - p.Height/2)
}

// View joins the visible window into one frame, slicing partially
// scrolled items at the edges and padding short content to full
// height.
func (p *TimelinePane) View() string {
	if p.Height <= 0 {
		return ""
	}

	first, last := p.list.Window(p.yOffset, p.Height)
	var lines []string
	if last >= first {
		for i := first; i <= last && i < len(p.rendered); i++ {
			lines = append(lines, strings.Split(p.rendered[i], "\n")...)
		}
		// Drop the rows of the first item that sit above the viewport.
		skip := p.yOffset - p.list.OffsetOf(first)
		if skip > 0 && skip <= len(lines) {
			lines = lines[skip:]
		}
		if len(lines) > p.Height {
			lines = lines[:p.Height]
		}
	}

	for len(lines) < p.Height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
