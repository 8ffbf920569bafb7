package tui

import (
	"github.com/csheth/docqa/internal/backend"
	"github.com/csheth/docqa/internal/session"
)

type stage int

const (
	stageChat stage = iota
	stagePicker
	stageConfirm
)

const appTitle = "docqa"

const (
	minViewportWidth          = 40
	minViewportHeight         = 5
	viewportHorizontalPadding = 4
	sidebarWidth              = 32
	sidebarBreakpoint         = 90
	pickerChromeHeight        = 9
	compactSummaryLines       = 2
)

const (
	composerReadyPlaceholder  = "Ask a question..."
	composerNoDocsPlaceholder = "Upload a document first..."
	welcomeTitle              = "Welcome!"
	welcomeWithDocuments      = "Ask a question about your uploaded documents to get started."
	welcomeWithoutDocuments   = "Upload a document first, then ask questions about it."
	thinkingText              = "Thinking…"
	confirmClearTitle         = "Are you sure you want to clear all documents?"
	pickerHint                = "Enter to upload the highlighted file, Esc to cancel."
	nothingToCopyText         = "No answer to copy yet."
	copiedText                = "Answer copied to clipboard."
	healthUnknown             = "checking"
	healthOnline              = "online"
	healthOffline             = "offline"
	transcriptUserLabel       = "You"
	transcriptAssistantLabel  = "Assistant"
	sidebarEmptyText          = "No documents uploaded yet."
	sidebarClearHint          = "Ctrl+X: Clear All"
	sidebarUploadHint         = "Ctrl+O: Upload Document"
	sidebarUploadingText      = "Uploading..."
	sidebarClearingText       = "Clearing..."
	composerHelpText          = "Enter: ask • Esc: clear • PgUp/PgDn: scroll • Ctrl+Y: copy • Ctrl+C: quit"
)

// FileDetected asks the UI to upload a file that appeared in a watched
// directory.
type FileDetected struct {
	Path string
}

type uploadResultMsg struct {
	ticket *session.Upload
	result backend.UploadResult
	err    error
}

type clearResultMsg struct {
	op  *session.ClearOp
	err error
}

type askResultMsg struct {
	id     string
	answer backend.Answer
	err    error
}

type healthResultMsg struct {
	health backend.Health
	err    error
}

type noticeExpiredMsg struct {
	seq int
}

// noticeSlot holds the notice shown in one area of the screen. seq ties an
// expiry tick to the notice it was scheduled for.
type noticeSlot struct {
	notice *session.Notice
	seq    int
}

func (s *noticeSlot) clear() {
	s.notice = nil
}
