package tuitest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
)

const (
	defaultWidth   = 120
	defaultHeight  = 32
	defaultTimeout = 5 * time.Second
)

// Step is one scripted interaction replayed against the pseudo terminal.
// Delay is waited before Input is written; Before runs after the delay and
// lets a script change the outside world, e.g. drop a file into a watched
// directory.
type Step struct {
	Delay  time.Duration
	Before func()
	Input  []byte
}

// Wait pauses the script for d.
func Wait(d time.Duration) Step {
	return Step{Delay: d}
}

// Type writes text as if typed at the keyboard.
func Type(text string) Step {
	return Step{Input: []byte(text)}
}

// Press writes a raw key sequence such as KeyEnter.
func Press(key []byte) Step {
	return Step{Input: key}
}

// Do runs fn at this point of the script.
func Do(fn func()) Step {
	return Step{Before: fn}
}

// Config configures how the harness spawns and drives the docqa binary.
type Config struct {
	Command          []string
	Dir              string
	Env              []string
	Width            int
	Height           int
	Steps            []Step
	Timeout          time.Duration
	AllowedExitCodes []int
	AllowInterrupt   bool
	// Background is the colour scheme the fake terminal reports. Defaults to dark.
	Background Background
}

// Recording contains the raw terminal stream plus parsed frames.
type Recording struct {
	Raw      []byte
	Frames   []Frame
	Duration time.Duration
	// Queries lists the terminal queries the program made, in order.
	Queries []string
}

// Run executes the configured command inside a PTY, replays the scripted
// inputs, and captures every byte written to the terminal.
func Run(ctx context.Context, cfg Config) (*Recording, error) {
	if len(cfg.Command) == 0 {
		return nil, errors.New("tuitest: command is required")
	}
	cfg = withDefaults(cfg)
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cfg.Command[0], cfg.Command[1:]...)
	cmd.Dir = cfg.Dir
	cmd.Env = buildEnv(cfg.Env)

	winsize := &pty.Winsize{Rows: uint16(cfg.Height), Cols: uint16(cfg.Width)}
	ptmx, err := pty.StartWithSize(cmd, winsize)
	if err != nil {
		return nil, fmt.Errorf("tuitest: start program: %w", err)
	}
	defer func() { _ = ptmx.Close() }()

	var output bytes.Buffer
	responder := newTerminalResponder(ptmx, cfg.Background)
	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		buf := make([]byte, 4096)
		for {
			n, readErr := ptmx.Read(buf)
			if n > 0 {
				chunk := buf[:n]
				responder.Process(chunk)
				_, _ = output.Write(chunk)
			}
			if readErr != nil {
				return
			}
		}
	}()

	start := time.Now()
	if err := replay(ctx, ptmx, cfg.Steps); err != nil {
		return nil, err
	}
	if err := awaitExit(ctx, cmd, cfg); err != nil {
		return nil, err
	}

	// Closing the PTY lets the reader goroutine finish draining.
	_ = ptmx.Close()
	<-copyDone

	raw := output.Bytes()
	return &Recording{
		Raw:      raw,
		Frames:   parseFrames(raw),
		Duration: time.Since(start),
		Queries:  responder.Answered(),
	}, nil
}

func withDefaults(cfg Config) Config {
	if cfg.Width <= 0 {
		cfg.Width = defaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = defaultHeight
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Background == "" {
		cfg.Background = BackgroundDark
	}
	return cfg
}

func replay(ctx context.Context, w io.Writer, steps []Step) error {
	for _, step := range steps {
		if step.Delay > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("tuitest: context cancelled before script finished: %w", ctx.Err())
			case <-time.After(step.Delay):
			}
		}
		if step.Before != nil {
			step.Before()
		}
		if len(step.Input) > 0 {
			if _, err := w.Write(step.Input); err != nil {
				return fmt.Errorf("tuitest: write input: %w", err)
			}
		}
	}
	return nil
}

func awaitExit(ctx context.Context, cmd *exec.Cmd, cfg Config) error {
	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case err := <-waitErr:
		if err == nil || exitAllowed(err, cfg) {
			return nil
		}
		return fmt.Errorf("tuitest: program exited with error: %w", err)
	case <-ctx.Done():
		return fmt.Errorf("tuitest: timeout waiting for program exit: %w", ctx.Err())
	}
}

func exitAllowed(err error, cfg Config) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	for _, code := range cfg.AllowedExitCodes {
		if exitErr.ExitCode() == code {
			return true
		}
	}
	return cfg.AllowInterrupt && strings.Contains(exitErr.Error(), "signal: interrupt")
}

func buildEnv(extra []string) []string {
	env := os.Environ()
	env = append(env, extra...)
	termSet := false
	for _, entry := range env {
		if strings.HasPrefix(entry, "TERM=") {
			termSet = true
			break
		}
	}
	if !termSet {
		env = append(env, "TERM=xterm-256color")
	}
	return env
}

var (
	// KeyEnter sends a carriage return to the PTY.
	KeyEnter = []byte{'\r'}
	// KeyCtrlC requests the program to terminate.
	KeyCtrlC = []byte{3}
	// KeyEsc closes the picker and the confirmation dialog.
	KeyEsc = []byte{27}
	// KeyCtrlO opens the upload picker.
	KeyCtrlO = []byte{15}
	// KeyCtrlX asks to clear every document.
	KeyCtrlX = []byte{24}
	// KeyLeft moves between dialog buttons.
	KeyLeft = []byte("\x1b[D")
)
