package tuitest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponderAnswersInQueryOrder(t *testing.T) {
	var replies bytes.Buffer
	tr := newTerminalResponder(&replies, BackgroundDark)

	// termenv asks for the background colour, then device attributes.
	tr.Process([]byte("\x1b]11;?\x07\x1b[c"))

	assert.Equal(t, "\x1b]11;rgb:0000/0000/0000\x07\x1b[?62;22c", replies.String())
	assert.Equal(t, []string{"background", "device-attributes"}, tr.Answered())
}

func TestResponderJoinsQueriesSplitAcrossReads(t *testing.T) {
	var replies bytes.Buffer
	tr := newTerminalResponder(&replies, BackgroundLight)

	tr.Process([]byte("frame\x1b]10;"))
	require.Zero(t, replies.Len())
	tr.Process([]byte("?\x1b\\more output\x1b[6n"))

	assert.Equal(t, "\x1b]10;rgb:1111/1111/1111\x1b\\\x1b[1;1R", replies.String())
	assert.Equal(t, []string{"foreground", "cursor-position"}, tr.Answered())
}

func TestResponderIgnoresPlainOutput(t *testing.T) {
	var replies bytes.Buffer
	tr := newTerminalResponder(&replies, BackgroundDark)
	tr.Process(bytes.Repeat([]byte("Uploaded Documents (1)\r\n"), 40))

	assert.Zero(t, replies.Len())
	assert.Empty(t, tr.Answered())
	assert.LessOrEqual(t, len(tr.buf), 256)
}

func TestWithDefaultsFillsUnsetFields(t *testing.T) {
	cfg := withDefaults(Config{Command: []string{"docqa"}})
	assert.Equal(t, defaultWidth, cfg.Width)
	assert.Equal(t, defaultHeight, cfg.Height)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.Equal(t, BackgroundDark, cfg.Background)
}
