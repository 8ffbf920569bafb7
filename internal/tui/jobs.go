package tui

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type jobKind string

type jobStatus string

const (
	jobKindUpload jobKind = "upload"
	jobKindClear  jobKind = "clear"
	jobKindAsk    jobKind = "ask"
	jobKindHealth jobKind = "health"
)

const (
	jobStatusRunning   jobStatus = "running"
	jobStatusSucceeded jobStatus = "succeeded"
	jobStatusFailed    jobStatus = "failed"
)

type jobSnapshot struct {
	ID          string
	Kind        jobKind
	Status      jobStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Err         string
	Duration    time.Duration
}

type jobSignalMsg struct {
	Snapshot jobSnapshot
}

type jobResultEnvelope struct {
	Snapshot jobSnapshot
	Payload  tea.Msg
}

// jobRunner performs one remote call. The payload is delivered to Update
// whether or not err is set; err only drives the job's status.
type jobRunner func(context.Context) (tea.Msg, error)

type jobBus struct {
	counter int64
	logger  *zap.Logger
}

func newJobBus(logger *zap.Logger) *jobBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &jobBus{logger: logger.Named("jobs")}
}

func (b *jobBus) nextID(kind jobKind) string {
	idx := atomic.AddInt64(&b.counter, 1)
	return fmt.Sprintf("%s-%d", kind, idx)
}

func (b *jobBus) Start(kind jobKind, runner jobRunner) tea.Cmd {
	return b.StartContext(context.Background(), kind, runner)
}

// StartContext runs runner under ctx so the caller can abandon it.
func (b *jobBus) StartContext(ctx context.Context, kind jobKind, runner jobRunner) tea.Cmd {
	id := b.nextID(kind)
	started := time.Now()
	startSnapshot := jobSnapshot{ID: id, Kind: kind, Status: jobStatusRunning, StartedAt: started}
	startCmd := func() tea.Msg {
		return jobSignalMsg{Snapshot: startSnapshot}
	}

	runCmd := func() tea.Msg {
		payload, err := runner(ctx)
		snapshot := jobSnapshot{
			ID:          id,
			Kind:        kind,
			StartedAt:   started,
			CompletedAt: time.Now(),
		}
		if err != nil {
			snapshot.Status = jobStatusFailed
			snapshot.Err = err.Error()
		} else {
			snapshot.Status = jobStatusSucceeded
		}
		snapshot.Duration = snapshot.CompletedAt.Sub(started)
		fields := []zap.Field{
			zap.String("id", id),
			zap.String("kind", string(kind)),
			zap.String("status", string(snapshot.Status)),
			zap.Duration("duration", snapshot.Duration),
		}
		if err != nil {
			b.logger.Warn("job finished", append(fields, zap.Error(err))...)
		} else {
			b.logger.Debug("job finished", fields...)
		}
		return jobResultEnvelope{Snapshot: snapshot, Payload: payload}
	}

	return tea.Sequence(startCmd, runCmd)
}
