package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

var (
	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#a3be8c"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	userLabelStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd166"))
	assistantStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8ecae6"))
	sourcesStyle       = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("110"))

	accentColor = lipgloss.Color("#ff8c00")

	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	onlineStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#a3be8c")).Padding(0, 1)
	offlineStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fff4d0")).Background(lipgloss.Color("#bf616a")).Padding(0, 1)
	unknownStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	sidebarStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accentColor).Padding(0, 1)
	composerStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
	dialogStyle    = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(1, 2)
)

// answerRenderer turns backend answers, which are often Markdown, into
// terminal text. It falls back to plain word wrapping when glamour fails.
type answerRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

func newAnswerRenderer(style string, width int) *answerRenderer {
	r := &answerRenderer{style: style}
	r.resize(width)
	return r
}

func (r *answerRenderer) resize(width int) {
	if width < minViewportWidth {
		width = minViewportWidth
	}
	if r.renderer != nil && r.width == width {
		return
	}
	r.width = width
	styleOpt := glamour.WithAutoStyle()
	if r.style != "" && r.style != "auto" {
		styleOpt = glamour.WithStandardStyle(r.style)
	}
	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		r.renderer = nil
		return
	}
	r.renderer = renderer
}

func (r *answerRenderer) Render(text string) string {
	if r.renderer != nil {
		if out, err := r.renderer.Render(text); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return wordwrap.String(text, r.width)
}
