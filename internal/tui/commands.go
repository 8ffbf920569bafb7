package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/docqa/internal/backend"
	"github.com/csheth/docqa/internal/session"
)

const healthTimeout = 5 * time.Second

func uploadJob(service backend.Service, ticket *session.Upload) jobRunner {
	path := ticket.Path
	return func(ctx context.Context) (tea.Msg, error) {
		result, err := service.Upload(ctx, path)
		return uploadResultMsg{ticket: ticket, result: result, err: err}, err
	}
}

func clearJob(service backend.Service, op *session.ClearOp) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		err := service.Clear(ctx)
		return clearResultMsg{op: op, err: err}, err
	}
}

func askJob(service backend.Service, sub *session.Submission) jobRunner {
	id := sub.ID
	req := sub.Request
	return func(ctx context.Context) (tea.Msg, error) {
		answer, err := service.Ask(ctx, req)
		return askResultMsg{id: id, answer: answer, err: err}, err
	}
}

func healthJob(service backend.Service) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, healthTimeout)
		defer cancel()
		health, err := service.Health(ctx)
		return healthResultMsg{health: health, err: err}, err
	}
}
