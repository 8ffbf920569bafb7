package tuitest

import (
	"bytes"
	"io"
)

// Background selects the colours reported to OSC 10/11 queries. lipgloss and
// glamour's auto style pick their palette from the reply.
type Background string

const (
	BackgroundDark  Background = "dark"
	BackgroundLight Background = "light"
)

type palette struct {
	foreground string
	background string
}

func paletteFor(bg Background) palette {
	if bg == BackgroundLight {
		return palette{foreground: "rgb:1111/1111/1111", background: "rgb:ffff/ffff/ffff"}
	}
	return palette{foreground: "rgb:cccc/cccc/cccc", background: "rgb:0000/0000/0000"}
}

// terminalQuery is a request the program writes to the terminal and expects
// an answer to on stdin.
type terminalQuery struct {
	name    string
	pattern []byte
	reply   func(p palette) []byte
}

const (
	bel = "\x07"
	st  = "\x1b\\"
)

var terminalQueries = []terminalQuery{
	{name: "cursor-position", pattern: []byte("\x1b[6n"), reply: fixed("\x1b[1;1R")},
	{name: "device-attributes", pattern: []byte("\x1b[c"), reply: fixed("\x1b[?62;22c")},
	{name: "device-attributes", pattern: []byte("\x1b[0c"), reply: fixed("\x1b[?62;22c")},
	{name: "foreground", pattern: []byte("\x1b]10;?" + bel), reply: color("10", bel, func(p palette) string { return p.foreground })},
	{name: "foreground", pattern: []byte("\x1b]10;?" + st), reply: color("10", st, func(p palette) string { return p.foreground })},
	{name: "background", pattern: []byte("\x1b]11;?" + bel), reply: color("11", bel, func(p palette) string { return p.background })},
	{name: "background", pattern: []byte("\x1b]11;?" + st), reply: color("11", st, func(p palette) string { return p.background })},
}

func fixed(reply string) func(palette) []byte {
	return func(palette) []byte { return []byte(reply) }
}

func color(code, terminator string, pick func(palette) string) func(palette) []byte {
	return func(p palette) []byte {
		return []byte("\x1b]" + code + ";" + pick(p) + terminator)
	}
}

// terminalResponder plays the terminal side of the PTY: it watches program
// output for queries and writes the replies back as input.
type terminalResponder struct {
	w        io.Writer
	palette  palette
	buf      []byte
	answered []string
}

func newTerminalResponder(w io.Writer, bg Background) *terminalResponder {
	return &terminalResponder{w: w, palette: paletteFor(bg), buf: make([]byte, 0, 128)}
}

// Process feeds a chunk of program output. Queries split across chunks are
// answered once complete.
func (tr *terminalResponder) Process(chunk []byte) {
	tr.buf = append(tr.buf, chunk...)
	for tr.answerNext() {
	}
	if len(tr.buf) > 256 {
		tr.buf = tr.buf[len(tr.buf)-64:]
	}
}

// answerNext replies to the earliest query in the buffer so answers arrive
// in the order they were asked.
func (tr *terminalResponder) answerNext() bool {
	first, at := -1, -1
	for i, q := range terminalQueries {
		idx := bytes.Index(tr.buf, q.pattern)
		if idx >= 0 && (at < 0 || idx < at) {
			first, at = i, idx
		}
	}
	if first < 0 {
		return false
	}
	q := terminalQueries[first]
	tr.buf = tr.buf[at+len(q.pattern):]
	tr.answered = append(tr.answered, q.name)
	_, _ = tr.w.Write(q.reply(tr.palette))
	return true
}

// Answered lists the queries replied to so far, in order.
func (tr *terminalResponder) Answered() []string {
	return append([]string(nil), tr.answered...)
}
