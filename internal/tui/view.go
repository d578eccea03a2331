package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/wikitrail/internal/nav"
)

const maxVisibleLinks = 8

func (m *model) View() string {
	switch m.stage {
	case stageSearch:
		return m.viewSearch()
	case stageBrowse:
		return m.viewBrowse()
	case stagePalette:
		return m.viewPalette()
	default:
		return ""
	}
}

func (m *model) viewSearch() string {
	parts := []string{
		m.styles.title.Render("wikitrail"),
		m.styles.helper.Render("Follow links across the encyclopedia, one pane per hop."),
		m.composer.View(),
	}
	if m.trail.Len() > 0 {
		parts = append(parts, m.styles.helper.Render("Esc returns to the open trail."))
	}
	return joinNonEmpty(append(parts, m.statusLines()...))
}

func (m *model) viewBrowse() string {
	if m.trail.Len() == 0 {
		return m.viewSearch()
	}
	columns := m.layoutColumns()
	height := m.paneHeight()

	rendered := make([]string, 0, len(columns)*2)
	for i, col := range columns {
		if i > 0 {
			rendered = append(rendered, m.renderDivider(height))
		}
		rendered = append(rendered, m.renderPane(col, height))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	return joinNonEmpty(append([]string{body}, m.statusLines()...))
}

func (m *model) viewPalette() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Links"))
	b.WriteRune('\n')
	b.WriteString(m.paletteInput.View())
	b.WriteRune('\n')
	b.WriteString(m.styles.helper.Render("Enter to follow, Esc to cancel."))
	b.WriteRune('\n')
	b.WriteRune('\n')
	if len(m.paletteMatches) == 0 {
		b.WriteString(m.styles.helper.Render("No links match this filter."))
	} else {
		for idx, link := range m.paletteMatches {
			label := "  " + link.Text
			if idx == m.paletteCursor {
				label = m.styles.linkCursor.Render("▸ " + link.Text)
			} else if m.isVisited(link.Target) {
				label = m.styles.visitedLink.Render(label)
			}
			b.WriteString(label)
			b.WriteRune('\n')
		}
	}
	return joinNonEmpty(append([]string{b.String()}, m.statusLines()...))
}

func (m *model) renderPane(col paneColumn, height int) string {
	pane := m.trail.Pane(col.Index)
	focused := col.Index == m.trail.Active()

	border := m.styles.paneBorder
	if focused {
		border = m.styles.focusedBorder
	}
	innerWidth := col.Cells - 4
	if innerWidth < 10 {
		innerWidth = 10
	}
	innerHeight := height - 2
	if innerHeight < 4 {
		innerHeight = 4
	}

	title := m.styles.paneTitle.Render(trimmedTitle(pane.Title))
	linkLines := m.renderLinks(pane, focused, innerWidth)

	contentBudget := innerHeight - 1 - len(linkLines)
	if contentBudget < 1 {
		contentBudget = 1
	}
	lines := strings.Split(wordwrap.String(pane.Content, innerWidth), "\n")
	offset := 0
	if focused {
		offset = m.scrollOffset
		if offset > len(lines)-1 {
			offset = len(lines) - 1
		}
		if offset < 0 {
			offset = 0
		}
	}
	if offset < len(lines) {
		lines = lines[offset:]
	}
	if len(lines) > contentBudget {
		lines = lines[:contentBudget]
	}

	parts := append([]string{title}, strings.Join(lines, "\n"))
	parts = append(parts, linkLines...)
	return border.Width(innerWidth + 2).Height(innerHeight).Render(strings.Join(parts, "\n"))
}

func (m *model) renderLinks(pane nav.Pane, focused bool, width int) []string {
	links := pane.Links
	if len(links) == 0 {
		return nil
	}
	start := 0
	if focused && m.linkCursor >= maxVisibleLinks {
		start = m.linkCursor - maxVisibleLinks + 1
	}
	end := start + maxVisibleLinks
	if end > len(links) {
		end = len(links)
	}

	lines := []string{m.styles.helper.Render(fmt.Sprintf("Links (%d)", len(links)))}
	for i := start; i < end; i++ {
		link := links[i]
		label := truncateCell("  "+link.Text, width)
		switch {
		case focused && i == m.linkCursor:
			label = m.styles.linkCursor.Render(truncateCell("▸ "+link.Text, width))
		case m.isVisited(link.Target):
			label = m.styles.visitedLink.Render(label)
		default:
			label = m.styles.link.Render(label)
		}
		lines = append(lines, label)
	}
	return lines
}

func (m *model) renderDivider(height int) string {
	bar := strings.TrimSuffix(strings.Repeat("│\n", height), "\n")
	return m.styles.divider.Render(bar)
}

func (m *model) statusLines() []string {
	var parts []string
	if m.errorMessage != "" {
		parts = append(parts, m.styles.errorText.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.loading() {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		parts = append(parts, m.styles.helper.Render(message))
	}
	parts = append(parts, m.statusBarView())
	return parts
}

func (m *model) statusBarView() string {
	stats := []string{fmt.Sprintf("Panes %d", m.trail.Len())}
	if active := m.trail.Active(); active >= 0 {
		stats = append(stats, fmt.Sprintf("Active %d/%d", active+1, m.trail.Len()))
	}
	if m.config.Tracker != nil {
		stats = append(stats, fmt.Sprintf("Visited %d", m.config.Tracker.Count()))
	}
	if m.loading() {
		stats = append(stats, fmt.Sprintf("Fetching %d", m.pendingFetches))
	}
	stats = append(stats, "/ search  o links  x close  q quit")
	return m.styles.statusBar.Render(strings.Join(stats, "  •  "))
}

func (m *model) isVisited(target string) bool {
	return m.config.Tracker != nil && m.config.Tracker.IsVisited(target)
}

func truncateCell(value string, width int) string {
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	if width < 1 {
		return ""
	}
	return string(runes[:width-1]) + "…"
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}
