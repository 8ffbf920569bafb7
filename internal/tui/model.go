package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"go.uber.org/zap"

	"github.com/csheth/docqa/internal/backend"
	"github.com/csheth/docqa/internal/docs"
	"github.com/csheth/docqa/internal/session"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Backend    backend.Service
	BackendURL string
	Logger     *zap.Logger
	// Style is the glamour style used for answers: auto, dark, light or notty.
	Style string
	// StartDir is where the upload picker opens. Defaults to the working directory.
	StartDir  string
	Clipboard func(string) error
}

type model struct {
	config Config
	logger *zap.Logger
	stage  stage
	layout pageLayout

	registry     *session.Registry
	conversation *session.Conversation
	jobs         *jobBus
	running      map[jobKind]jobSnapshot

	composer  textinput.Model
	spinner   spinner.Model
	viewport  viewport.Model
	picker    filepicker.Model
	confirm   *huh.Form
	confirmed bool
	renderer  *answerRenderer

	docNotice  noticeSlot
	chatNotice noticeSlot
	noticeSeq  int

	uploading       string
	queued          []string
	health          string
	transcriptDirty bool
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("tui")
	if config.Clipboard == nil {
		config.Clipboard = clipboard.WriteAll
	}
	if config.StartDir == "" {
		if wd, err := os.Getwd(); err == nil {
			config.StartDir = wd
		} else {
			config.StartDir = "."
		}
	}

	composer := textinput.New()
	composer.Placeholder = composerNoDocsPlaceholder
	composer.Prompt = "› "
	composer.CharLimit = 1000
	composer.Width = 70
	composer.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	picker := filepicker.New()
	picker.AllowedTypes = append([]string(nil), docs.AcceptedExtensions...)
	picker.CurrentDirectory = config.StartDir

	registry := session.NewRegistry()
	conversation := session.NewConversation(registry)
	registry.OnReset(conversation)

	return &model{
		config:          config,
		logger:          logger,
		stage:           stageChat,
		layout:          newPageLayout(),
		registry:        registry,
		conversation:    conversation,
		jobs:            newJobBus(logger),
		running:         map[jobKind]jobSnapshot{},
		composer:        composer,
		spinner:         spin,
		viewport:        vp,
		picker:          picker,
		renderer:        newAnswerRenderer(config.Style, vp.Width-2),
		health:          healthUnknown,
		transcriptDirty: true,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.checkHealth())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		if m.stage == stagePicker {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		}
		return m, nil
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case jobSignalMsg:
		m.running[msg.Snapshot.Kind] = msg.Snapshot
		return m, nil
	case jobResultEnvelope:
		if current, ok := m.running[msg.Snapshot.Kind]; ok && current.ID == msg.Snapshot.ID {
			delete(m.running, msg.Snapshot.Kind)
		}
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case uploadResultMsg:
		return m, m.handleUploadResult(msg)
	case clearResultMsg:
		return m, m.handleClearResult(msg)
	case askResultMsg:
		return m, m.handleAskResult(msg)
	case healthResultMsg:
		m.handleHealthResult(msg)
		return m, nil
	case noticeExpiredMsg:
		m.expireNotice(msg.seq)
		return m, nil
	case FileDetected:
		return m, m.startUpload(msg.Path)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.stage {
		case stagePicker:
			return m.updatePicker(msg)
		case stageConfirm:
			return m.updateConfirm(msg)
		default:
			return m.handleChatKey(msg)
		}
	case tea.MouseMsg:
		if m.stage == stageChat {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch m.stage {
	case stagePicker:
		return m.updatePicker(msg)
	case stageConfirm:
		return m.updateConfirm(msg)
	default:
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(msg)
		return m, cmd
	}
}

func (m *model) handleChatKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "enter":
		return m, m.submitQuestion()
	case "esc":
		m.chatNotice.clear()
		m.docNotice.clear()
		if !m.conversation.Submitting() {
			m.composer.SetValue("")
		}
		return m, nil
	case "ctrl+o":
		return m, m.openPicker()
	case "ctrl+x":
		return m, m.openConfirm()
	case "ctrl+y":
		return m, m.copyLastAnswer()
	case "ctrl+r":
		return m, m.checkHealth()
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(key)
		return m, cmd
	}
	if m.conversation.Submitting() {
		return m, nil
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(key)
	return m, cmd
}

// submitQuestion hands the composer text to the conversation and starts the
// ask job. The input is cleared only once the question is accepted.
func (m *model) submitQuestion() tea.Cmd {
	sub, err := m.conversation.Submit(m.composer.Value())
	switch {
	case errors.Is(err, session.ErrBlankQuestion), errors.Is(err, session.ErrBusy):
		return nil
	case errors.Is(err, session.ErrNoDocuments):
		return m.post(&m.chatNotice, session.ErrorNotice(session.MsgNeedsDocument))
	case err != nil:
		m.logger.Warn("submit rejected", zap.Error(err))
		return nil
	}

	m.chatNotice.clear()
	m.composer.SetValue("")
	m.transcriptDirty = true
	m.logger.Info("question submitted",
		zap.String("submission", sub.ID),
		zap.Int("history", len(sub.Request.ChatHistory)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	m.conversation.Attach(sub.ID, cancel)
	return tea.Batch(m.spinner.Tick, m.jobs.StartContext(ctx, jobKindAsk, askJob(m.config.Backend, sub)))
}

func (m *model) handleAskResult(msg askResultMsg) tea.Cmd {
	outcome, ok := m.conversation.Settle(msg.id, msg.answer, msg.err)
	if !ok {
		m.logger.Debug("dropping stale answer", zap.String("submission", msg.id))
		return nil
	}
	m.transcriptDirty = true
	if !outcome.Failed {
		m.logger.Info("question answered",
			zap.String("submission", msg.id),
			zap.Int("sources", len(msg.answer.Sources)),
		)
		return nil
	}
	m.composer.SetValue(outcome.Restore)
	m.composer.CursorEnd()
	return m.post(&m.chatNotice, outcome.Notice)
}

// startUpload begins uploading path, or queues it when another upload holds
// the gate.
func (m *model) startUpload(path string) tea.Cmd {
	ticket, err := m.registry.BeginUpload(path)
	switch {
	case errors.Is(err, session.ErrBusy):
		m.queued = append(m.queued, path)
		m.logger.Debug("upload queued", zap.String("path", path), zap.Int("queued", len(m.queued)))
		return nil
	case err != nil:
		return m.post(&m.docNotice, session.ErrorNotice("Select a file to upload."))
	}

	m.docNotice.clear()
	m.uploading = ticket.Name
	if info, err := docs.Inspect(ticket.Path); err == nil {
		m.uploading = info.Summary()
	} else {
		m.logger.Warn("inspect upload", zap.String("path", ticket.Path), zap.Error(err))
	}
	m.logger.Info("uploading document", zap.String("path", ticket.Path))
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindUpload, uploadJob(m.config.Backend, ticket)))
}

func (m *model) handleUploadResult(msg uploadResultMsg) tea.Cmd {
	var (
		notice session.Notice
		ok     bool
	)
	if msg.err != nil {
		notice, ok = m.registry.FailUpload(msg.ticket, msg.err)
	} else {
		notice, ok = m.registry.CompleteUpload(msg.ticket, msg.result.Chunks)
	}
	if !ok {
		return nil
	}
	if msg.err == nil {
		m.logger.Info("document uploaded",
			zap.String("name", msg.ticket.Name),
			zap.String("filename", msg.result.Filename),
			zap.Int("chunks", msg.result.Chunks),
		)
	}
	m.uploading = ""
	m.transcriptDirty = true
	cmds := []tea.Cmd{m.post(&m.docNotice, notice)}
	if len(m.queued) > 0 {
		next := m.queued[0]
		m.queued = m.queued[1:]
		cmds = append(cmds, m.startUpload(next))
	}
	return tea.Batch(cmds...)
}

func (m *model) openPicker() tea.Cmd {
	if m.registry.Uploading() {
		return nil
	}
	m.stage = stagePicker
	m.composer.Blur()
	cmds := []tea.Cmd{m.picker.Init()}
	if m.layout.windowHeight > 0 {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(tea.WindowSizeMsg{
			Width:  m.layout.windowWidth,
			Height: m.layout.pickerHeight(),
		})
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m *model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		m.closeOverlay()
		return m, nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.closeOverlay()
		return m, tea.Batch(cmd, m.startUpload(path))
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		text := fmt.Sprintf("%s is not supported. %s", filepath.Base(path), docs.AcceptedHint)
		return m, tea.Batch(cmd, m.post(&m.docNotice, session.ErrorNotice(text)))
	}
	return m, cmd
}

func (m *model) openConfirm() tea.Cmd {
	if !m.registry.HasDocuments() || m.registry.Clearing() {
		return nil
	}
	m.confirmed = false
	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(confirmClearTitle).
				Affirmative("Clear All").
				Negative("Cancel").
				Value(&m.confirmed),
		),
	).WithShowHelp(false)
	m.stage = stageConfirm
	m.composer.Blur()
	return m.confirm.Init()
}

func (m *model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.confirm == nil {
		m.closeOverlay()
		return m, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		return m, m.resolveConfirm(false)
	}
	fm, cmd := m.confirm.Update(msg)
	if f, ok := fm.(*huh.Form); ok {
		m.confirm = f
	}
	switch m.confirm.State {
	case huh.StateCompleted:
		return m, tea.Batch(cmd, m.resolveConfirm(m.confirmed))
	case huh.StateAborted:
		return m, tea.Batch(cmd, m.resolveConfirm(false))
	}
	return m, cmd
}

// resolveConfirm closes the dialog and, when confirmed, starts the clear job.
func (m *model) resolveConfirm(confirmed bool) tea.Cmd {
	m.closeOverlay()
	op, err := m.registry.BeginClear(confirmed)
	if err != nil {
		m.logger.Debug("clear rejected", zap.Error(err))
		return nil
	}
	if op == nil {
		m.logger.Debug("clear declined")
		return nil
	}
	m.docNotice.clear()
	m.logger.Info("clearing documents", zap.Int("documents", len(m.registry.Documents())))
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindClear, clearJob(m.config.Backend, op)))
}

func (m *model) handleClearResult(msg clearResultMsg) tea.Cmd {
	var (
		notice session.Notice
		ok     bool
	)
	if msg.err != nil {
		notice, ok = m.registry.FailClear(msg.op, msg.err)
	} else {
		notice, ok = m.registry.CompleteClear(msg.op)
	}
	if !ok {
		return nil
	}
	m.transcriptDirty = true
	return m.post(&m.docNotice, notice)
}

func (m *model) closeOverlay() {
	m.stage = stageChat
	m.confirm = nil
	m.composer.Focus()
}

func (m *model) checkHealth() tea.Cmd {
	if m.config.Backend == nil {
		return nil
	}
	return m.jobs.Start(jobKindHealth, healthJob(m.config.Backend))
}

func (m *model) handleHealthResult(msg healthResultMsg) {
	if msg.err != nil {
		m.health = healthOffline
		m.logger.Warn("backend health check failed", zap.Error(msg.err))
		return
	}
	m.health = healthOnline
	m.logger.Debug("backend health", zap.String("status", msg.health.Status))
}

func (m *model) copyLastAnswer() tea.Cmd {
	turns := m.conversation.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Answer == "" {
			continue
		}
		if err := m.config.Clipboard(turns[i].Answer); err != nil {
			m.logger.Warn("copy answer", zap.Error(err))
			return m.post(&m.chatNotice, session.ErrorNotice("Could not copy answer: "+err.Error()))
		}
		return m.post(&m.chatNotice, session.InfoNotice(copiedText))
	}
	return m.post(&m.chatNotice, session.InfoNotice(nothingToCopyText))
}

// post shows notice in slot. Expiring notices schedule their own dismissal;
// a newer notice in the same slot makes the old tick a no-op.
func (m *model) post(slot *noticeSlot, notice session.Notice) tea.Cmd {
	m.noticeSeq++
	slot.notice = &notice
	slot.seq = m.noticeSeq
	if !notice.Expires() {
		return nil
	}
	seq := m.noticeSeq
	return tea.Tick(session.NoticeLifetime, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

func (m *model) expireNotice(seq int) {
	for _, slot := range []*noticeSlot{&m.docNotice, &m.chatNotice} {
		if slot.notice != nil && slot.seq == seq {
			slot.clear()
		}
	}
}

func (m *model) busy() bool {
	return m.registry.Uploading() || m.registry.Clearing() || m.conversation.Submitting()
}

func (m *model) resize(width, height int) {
	m.layout.Update(width, height)
	m.viewport.Width = m.layout.viewportWidth
	m.composer.Width = m.layout.viewportWidth - 6
	m.renderer.resize(m.layout.viewportWidth - 4)
	m.transcriptDirty = true
}

// fitViewport gives the transcript whatever height the surrounding blocks
// leave. Before the first WindowSizeMsg the default height is kept.
func (m *model) fitViewport(blocks ...string) {
	if m.layout.windowHeight <= 0 {
		return
	}
	height := m.layout.fitHeight(blocks...)
	if height != m.viewport.Height {
		m.viewport.Height = height
		m.transcriptDirty = true
	}
}

func (m *model) refreshTranscriptIfDirty() {
	if !m.transcriptDirty {
		return
	}
	m.transcriptDirty = false
	m.viewport.SetContent(m.buildTranscript())
	m.viewport.GotoBottom()
}
