package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/docqa/internal/docs"
	"github.com/csheth/docqa/internal/session"
)

func (m *model) View() string {
	switch m.stage {
	case stagePicker:
		return joinNonEmpty([]string{m.headerView(), m.pickerView(), m.statusBarView()})
	case stageConfirm:
		return joinNonEmpty([]string{m.headerView(), m.confirmView(), m.statusBarView()})
	default:
		return m.viewChat()
	}
}

func (m *model) viewChat() string {
	header := m.headerView()
	status := m.statusBarView()
	notice := m.noticeView(m.chatNotice, m.wrapWidth(0))
	composer := m.composerPanel()

	var compact string
	if m.layout.stacked() {
		compact = m.compactSidebarView()
	}
	m.fitViewport(header, status, compact, notice, composer)
	m.refreshTranscriptIfDirty()

	chat := joinNonEmpty([]string{m.viewport.View(), notice, composer})
	var body string
	if m.layout.stacked() {
		body = joinNonEmpty([]string{compact, chat})
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(lipgloss.Height(chat)), "  ", chat)
	}
	return joinNonEmpty([]string{header, body, status})
}

func (m *model) headerView() string {
	parts := []string{titleStyle.Render(appTitle), m.healthBadge()}
	if m.config.BackendURL != "" {
		parts = append(parts, helperStyle.Render(m.config.BackendURL))
	}
	return strings.Join(parts, "  ")
}

func (m *model) healthBadge() string {
	switch m.health {
	case healthOnline:
		return onlineStyle.Render("● " + healthOnline)
	case healthOffline:
		return offlineStyle.Render("● " + healthOffline)
	default:
		return unknownStyle.Render("● " + healthUnknown)
	}
}

// sidebarView renders the document pane no taller than height rows,
// borders included. Names that do not fit are summarised.
func (m *model) sidebarView(height int) string {
	inner := sidebarWidth - 4
	lines := []string{sectionHeaderStyle.Render("Documents")}
	if m.registry.Uploading() {
		lines = append(lines,
			helperStyle.Render(m.spinner.View()+" "+sidebarUploadingText),
			helperStyle.Render(wordwrap.String(m.uploading, inner)),
		)
	} else {
		lines = append(lines, helperStyle.Render(sidebarUploadHint))
	}
	lines = append(lines, helperStyle.Render(wordwrap.String(docs.AcceptedHint, inner)))
	if notice := m.noticeView(m.docNotice, inner); notice != "" {
		lines = append(lines, "", notice)
	}
	lines = append(lines, "")

	names := m.registry.Documents()
	if len(names) == 0 {
		lines = append(lines, helperStyle.Render(sidebarEmptyText))
		return sidebarStyle.Width(sidebarWidth - 2).Render(strings.Join(lines, "\n"))
	}

	var footer string
	if m.registry.Clearing() {
		footer = helperStyle.Render(m.spinner.View() + " " + sidebarClearingText)
	} else {
		footer = helperStyle.Render(sidebarClearHint)
	}
	lines = append(lines, sectionHeaderStyle.Render(fmt.Sprintf("Uploaded Documents (%d)", len(names))))
	room := height - 2 - lipgloss.Height(strings.Join(lines, "\n")) - 2
	for i, name := range names {
		if room <= 1 && i < len(names)-1 {
			lines = append(lines, helperStyle.Render(fmt.Sprintf("… %d more", len(names)-i)))
			break
		}
		lines = append(lines, "• "+previewText(name, inner-2))
		room--
	}
	lines = append(lines, "", footer)
	return sidebarStyle.Width(sidebarWidth - 2).Render(strings.Join(lines, "\n"))
}

// compactSidebarView squeezes the document pane into a few lines for
// narrow terminals.
func (m *model) compactSidebarView() string {
	width := m.layout.windowWidth
	if width <= 0 {
		width = 80
	}
	names := m.registry.Documents()
	summary := sidebarEmptyText
	if len(names) > 0 {
		summary = fmt.Sprintf("Uploaded Documents (%d): %s", len(names), strings.Join(names, ", "))
	}
	hints := []string{sidebarUploadHint}
	switch {
	case m.registry.Uploading():
		hints = []string{m.spinner.View() + " " + sidebarUploadingText + " " + m.uploading}
	case m.registry.Clearing():
		hints = append(hints, m.spinner.View()+" "+sidebarClearingText)
	case len(names) > 0:
		hints = append(hints, sidebarClearHint)
	}
	summaryLines := strings.Split(wordwrap.String(summary, width), "\n")
	if len(summaryLines) > compactSummaryLines {
		summaryLines = summaryLines[:compactSummaryLines]
		last := []rune(strings.TrimSpace(summaryLines[compactSummaryLines-1]))
		if len(last) > width-1 {
			last = last[:width-1]
		}
		summaryLines[compactSummaryLines-1] = string(last) + "…"
	}
	lines := []string{
		strings.Join(summaryLines, "\n"),
		helperStyle.Render(wordwrap.String(strings.Join(hints, " • "), width)),
	}
	if notice := m.noticeView(m.docNotice, width); notice != "" {
		lines = append(lines, notice)
	}
	return strings.Join(lines, "\n")
}

func (m *model) composerPanel() string {
	if m.registry.HasDocuments() {
		m.composer.Placeholder = composerReadyPlaceholder
	} else {
		m.composer.Placeholder = composerNoDocsPlaceholder
	}
	return composerStyle.Width(m.layout.viewportWidth).Render(m.composer.View())
}

func (m *model) noticeView(slot noticeSlot, width int) string {
	if slot.notice == nil {
		return ""
	}
	text := slot.notice.Text
	switch slot.notice.Kind {
	case session.NoticeError:
		return errorStyle.Render(wordwrap.String("⚠ "+text, width))
	case session.NoticeSuccess:
		return successStyle.Render(wordwrap.String("✓ "+text, width))
	default:
		return helperStyle.Render(wordwrap.String(text, width))
	}
}

func (m *model) statusBarView() string {
	stats := []string{
		fmt.Sprintf("Docs %d", len(m.registry.Documents())),
		fmt.Sprintf("Turns %d", m.conversation.Len()),
		fmt.Sprintf("Q&A %s", m.conversation.Phase()),
	}
	if badges := m.jobStatusBadges(); len(badges) > 0 {
		stats = append(stats, badges...)
	}
	bar := statusBarStyle.Render(strings.Join(stats, "  •  "))
	if m.busy() {
		bar = m.spinner.View() + " " + bar
	}
	legend := m.keyLegend()
	if m.layout.windowWidth > 0 {
		legend = wordwrap.String(legend, m.layout.windowWidth)
	}
	return joinNonEmpty([]string{bar, helperStyle.Render(legend)})
}

func (m *model) keyLegend() string {
	switch m.stage {
	case stagePicker:
		return pickerHint
	case stageConfirm:
		return "←/→: choose • Enter: confirm • Esc: cancel"
	default:
		return composerHelpText
	}
}

func (m *model) jobStatusBadges() []string {
	var badges []string
	for _, kind := range []jobKind{jobKindUpload, jobKindClear, jobKindAsk, jobKindHealth} {
		if snapshot, ok := m.running[kind]; ok && snapshot.Status == jobStatusRunning {
			badges = append(badges, fmt.Sprintf("%s…", kind))
		}
	}
	return badges
}

func (m *model) pickerView() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Upload a Document"))
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render(m.picker.CurrentDirectory))
	b.WriteRune('\n')
	b.WriteRune('\n')
	b.WriteString(m.picker.View())
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render(docs.AcceptedHint))
	if notice := m.noticeView(m.docNotice, m.wrapWidth(0)); notice != "" {
		b.WriteRune('\n')
		b.WriteString(notice)
	}
	return b.String()
}

func (m *model) confirmView() string {
	if m.confirm == nil {
		return ""
	}
	return dialogStyle.Render(m.confirm.View())
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
