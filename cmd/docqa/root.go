package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/csheth/docqa/internal/backend"
	"github.com/csheth/docqa/internal/config"
	"github.com/csheth/docqa/internal/logger"
	"github.com/csheth/docqa/internal/tui"
	"github.com/csheth/docqa/internal/watch"
)

const rootLongDesc string = `Ask questions about your documents from the terminal.

docqa uploads files to a document question-answering service and keeps a
conversation with it. Each question is sent with the previous turns so
follow-ups have context.

Settings are read from $XDG_CONFIG_HOME/docqa/config.toml (or --config /
DOCQA_CONFIG), then DOCQA_BACKEND_URL, then flags.

Examples:
  docqa
  docqa --backend http://10.0.0.5:8000
  docqa --watch ~/Documents/inbox --style dark`

const rootShortDesc string = "Terminal client for a document Q&A service"

type rootCommander struct {
	configPath  string
	backendURL  string
	logFile     string
	debug       bool
	noAltScreen bool
	watchDir    string
	style       string
	timeout     time.Duration
}

func newRootCmd() *cobra.Command {
	cmder := &rootCommander{}
	return cmder.command()
}

func (c *rootCommander) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "docqa",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.resolve(cmd, os.Getenv)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&c.configPath, "config", "c", "", "Path to a TOML config file")
	flags.StringVarP(&c.backendURL, "backend", "b", "", "Base URL of the document Q&A service")
	flags.StringVar(&c.logFile, "log-file", "", "Write logs to this file (empty string disables logging)")
	flags.BoolVar(&c.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&c.noAltScreen, "no-alt-screen", false, "Disable the alternate screen buffer")
	flags.StringVarP(&c.watchDir, "watch", "w", "", "Upload documents that appear in this directory")
	flags.StringVar(&c.style, "style", "", "Answer style: auto, dark, light or notty")
	flags.DurationVar(&c.timeout, "timeout", 0, "HTTP timeout for backend calls")

	return cmd
}

// resolve layers flags the user actually set over the loaded config.
func (c *rootCommander) resolve(cmd *cobra.Command, getenv func(string) string) (config.Config, error) {
	cfg, err := config.Load(c.configPath, getenv)
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend.URL = c.backendURL
	}
	if flags.Changed("timeout") {
		cfg.Backend.Timeout = config.Duration{Duration: c.timeout}
	}
	if flags.Changed("log-file") {
		cfg.Log.File = c.logFile
	}
	if flags.Changed("debug") {
		cfg.Log.Debug = c.debug
	}
	if flags.Changed("no-alt-screen") {
		cfg.UI.NoAltScreen = c.noAltScreen
	}
	if flags.Changed("watch") {
		cfg.Watch.Dir = c.watchDir
	}
	if flags.Changed("style") {
		cfg.UI.Style = c.style
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func run(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	log, err := logger.New(cfg.Log.File, cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("docqa starting",
		zap.String("backend", cfg.Backend.URL),
		zap.Duration("timeout", cfg.Backend.Timeout.Duration),
		zap.String("watch", cfg.Watch.Dir),
	)

	client := backend.New(backend.Config{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout.Duration,
		Logger:  log,
	})

	var watcher *watch.Watcher
	startDir := ""
	if cfg.Watch.Dir != "" {
		watcher, err = watch.New(cfg.Watch.Dir, log)
		if err != nil {
			return err
		}
		startDir = watcher.Dir()
	}

	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if !cfg.UI.NoAltScreen && isatty.IsTerminal(os.Stdout.Fd()) {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Backend:    client,
			BackendURL: client.BaseURL(),
			Logger:     log,
			Style:      cfg.UI.Style,
			StartDir:   startDir,
		}),
		opts...,
	)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	group, groupCtx := errgroup.WithContext(ctx)

	if watcher != nil {
		group.Go(func() error {
			return watcher.Run(groupCtx, func(path string) {
				program.Send(tui.FileDetected{Path: path})
			})
		})
	}
	group.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("program error: %w", err)
		}
		return nil
	})

	err = group.Wait()
	log.Info("docqa stopped", zap.Error(err))
	return err
}
