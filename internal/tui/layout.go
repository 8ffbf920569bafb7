package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

type pageLayout struct {
	windowWidth   int
	windowHeight  int
	sidebarWidth  int
	viewportWidth int
}

func newPageLayout() pageLayout {
	return pageLayout{viewportWidth: 80}
}

// Update recomputes the pane widths for a window of the given size. Narrow
// windows stack the document list above the chat instead of beside it.
// Heights depend on what is rendered around the transcript and are settled
// by fitHeight on every frame.
func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height

	l.sidebarWidth = 0
	if width >= sidebarBreakpoint {
		l.sidebarWidth = sidebarWidth
	}

	innerWidth := width - l.sidebarWidth - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
}

func (l pageLayout) stacked() bool {
	return l.sidebarWidth == 0
}

// fitHeight returns the rows left in the window once every block has been
// placed. joinNonEmpty puts a blank line between blocks, which is counted
// here too.
func (l pageLayout) fitHeight(blocks ...string) int {
	height := l.windowHeight
	for _, block := range blocks {
		height -= blockHeight(block)
	}
	if height < minViewportHeight {
		height = minViewportHeight
	}
	return height
}

func blockHeight(block string) int {
	if strings.TrimSpace(block) == "" {
		return 0
	}
	return lipgloss.Height(block) + 1
}

func (l pageLayout) pickerHeight() int {
	height := l.windowHeight - pickerChromeHeight
	if height < minViewportHeight {
		height = minViewportHeight
	}
	return height
}

// buildTranscript renders the conversation for the viewport.
func (m *model) buildTranscript() string {
	cb := &strings.Builder{}
	turns := m.conversation.Turns()
	if len(turns) == 0 {
		cb.WriteString(sectionHeaderStyle.Render(welcomeTitle))
		cb.WriteRune('\n')
		text := welcomeWithoutDocuments
		if m.registry.HasDocuments() {
			text = welcomeWithDocuments
		}
		cb.WriteString(helperStyle.Render(wordwrap.String(text, m.wrapWidth(0))))
		cb.WriteRune('\n')
		return cb.String()
	}

	wrap := m.wrapWidth(2)
	for idx, turn := range turns {
		if idx > 0 {
			cb.WriteRune('\n')
		}
		cb.WriteString(userLabelStyle.Render(transcriptUserLabel))
		cb.WriteRune('\n')
		cb.WriteString(indentMultiline(wordwrap.String(turn.Question, wrap), "  "))
		cb.WriteRune('\n')

		cb.WriteString(assistantStyle.Render(transcriptAssistantLabel))
		cb.WriteRune('\n')
		if turn.Pending() {
			cb.WriteString(helperStyle.Render("  " + thinkingText))
			cb.WriteRune('\n')
			continue
		}
		cb.WriteString(m.renderer.Render(turn.Answer))
		cb.WriteRune('\n')
		if len(turn.Sources) > 0 {
			sources := "Sources: " + strings.Join(turn.Sources, ", ")
			cb.WriteString(sourcesStyle.Render(indentMultiline(wordwrap.String(sources, wrap), "  ")))
			cb.WriteRune('\n')
		}
	}
	return cb.String()
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func previewText(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}
