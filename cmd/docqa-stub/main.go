package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/docqa/internal/config"
	"github.com/csheth/docqa/internal/logger"
	"github.com/csheth/docqa/internal/stubserver"
)

const stubLongDesc string = `Run a local stand-in for the document Q&A service.

The stub accepts uploads, splits them into overlapping chunks and answers
questions by keyword overlap. It is meant for trying docqa without the real
retrieval stack.

Examples:
  docqa-stub
  docqa-stub --listen :9000 --debug
  docqa-stub --fail-ask "index unavailable"`

type stubCommander struct {
	cfg     config.StubConfig
	failAsk string
}

func main() {
	if err := newStubCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "docqa-stub:", err)
		os.Exit(1)
	}
}

func newStubCmd() *cobra.Command {
	c := &stubCommander{cfg: config.DefaultStub()}
	cmd := &cobra.Command{
		Use:           "docqa-stub",
		Short:         "Local fake of the document Q&A service",
		Long:          stubLongDesc,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&c.cfg.ListenAddr, "listen", "l", c.cfg.ListenAddr, "Address to listen on")
	cmd.Flags().BoolVar(&c.cfg.Debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&c.failAsk, "fail-ask", "", "Answer every /ask with HTTP 500 and this detail")
	return cmd
}

func (c *stubCommander) run(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	log := logger.NewWithWriter(os.Stderr, c.cfg.Debug, isatty.IsTerminal(os.Stderr.Fd()))
	defer func() { _ = log.Sync() }()

	server := stubserver.New(stubserver.Options{Logger: log, FailAsk: c.failAsk})

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Listen(c.cfg.ListenAddr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		if err := server.Shutdown(); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("shutdown", zap.Error(err))
			return err
		}
		return nil
	}
}
