package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/docqa/internal/backend"
	"github.com/csheth/docqa/internal/docs"
)

func TestUploadScenario(t *testing.T) {
	r := NewRegistry()
	ticket, err := r.BeginUpload("/home/ada/notes.pdf")
	require.NoError(t, err)
	assert.True(t, r.Uploading())
	assert.Equal(t, "notes.pdf", ticket.Name)

	notice, ok := r.CompleteUpload(ticket, 12)
	require.True(t, ok)
	assert.Equal(t, NoticeSuccess, notice.Kind)
	assert.Contains(t, notice.Text, "notes.pdf")
	assert.Contains(t, notice.Text, "12 chunks")
	assert.True(t, notice.Expires())
	assert.Equal(t, []string{"notes.pdf"}, r.Documents())
	assert.False(t, r.Uploading())
}

func TestUploadRecordsDisplayName(t *testing.T) {
	r := NewRegistry()
	path := "/srv/inbox/Quarterly Report.docx"
	ticket, err := r.BeginUpload(path)
	require.NoError(t, err)
	assert.Equal(t, docs.DisplayName(path), ticket.Name)

	_, ok := r.CompleteUpload(ticket, 1)
	require.True(t, ok)
	assert.Equal(t, []string{docs.DisplayName(path)}, r.Documents())
}

func TestUploadRequiresFileAndSingleFlight(t *testing.T) {
	r := NewRegistry()
	_, err := r.BeginUpload("  ")
	assert.ErrorIs(t, err, ErrNoFile)

	_, err = r.BeginUpload("a.txt")
	require.NoError(t, err)
	_, err = r.BeginUpload("b.txt")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestUploadFailureKeepsDocumentSet(t *testing.T) {
	r := registryWith(t, "a.md")
	ticket, err := r.BeginUpload("b.md")
	require.NoError(t, err)

	notice, ok := r.FailUpload(ticket, &backend.APIError{Op: "upload", Status: 500, Detail: "Unsupported file type"})
	require.True(t, ok)
	assert.Equal(t, Notice{Kind: NoticeError, Text: "Unsupported file type"}, notice)
	assert.False(t, notice.Expires())
	assert.Equal(t, []string{"a.md"}, r.Documents())

	ticket, err = r.BeginUpload("c.md")
	require.NoError(t, err)
	notice, _ = r.FailUpload(ticket, errors.New("connection reset"))
	assert.Equal(t, MsgUploadFailed, notice.Text)
}

func TestDocumentSetIsNotDeduplicated(t *testing.T) {
	r := registryWith(t, "notes.pdf", "notes.pdf")
	assert.Equal(t, []string{"notes.pdf", "notes.pdf"}, r.Documents())
}

func TestStaleUploadTicketIgnored(t *testing.T) {
	r := NewRegistry()
	_, ok := r.CompleteUpload(&Upload{ID: "nope", Name: "x"}, 1)
	assert.False(t, ok)
	assert.Empty(t, r.Documents())
}

type resetCounter struct{ calls int }

func (r *resetCounter) Reset() { r.calls++ }

func TestClearConfirmedEmptiesDocumentsAndTranscript(t *testing.T) {
	r := registryWith(t, "notes.pdf")
	c := NewConversation(r)
	r.OnReset(c)
	counter := &resetCounter{}
	r.OnReset(counter)

	sub, err := c.Submit("q")
	require.NoError(t, err)
	_, _ = c.Settle(sub.ID, backend.Answer{Answer: "a"}, nil)

	op, err := r.BeginClear(true)
	require.NoError(t, err)
	require.NotNil(t, op)
	assert.True(t, r.Clearing())

	notice, ok := r.CompleteClear(op)
	require.True(t, ok)
	assert.Equal(t, Notice{Kind: NoticeSuccess, Text: MsgCleared}, notice)
	assert.Empty(t, r.Documents())
	assert.Zero(t, c.Len())
	assert.Equal(t, 1, counter.calls)
}

func TestClearDeclinedChangesNothing(t *testing.T) {
	r := registryWith(t, "notes.pdf")
	c := NewConversation(r)
	r.OnReset(c)
	sub, _ := c.Submit("q")
	_, _ = c.Settle(sub.ID, backend.Answer{Answer: "a"}, nil)

	op, err := r.BeginClear(false)
	assert.NoError(t, err)
	assert.Nil(t, op)
	assert.False(t, r.Clearing())
	assert.Equal(t, []string{"notes.pdf"}, r.Documents())
	assert.Equal(t, 1, c.Len())
}

func TestClearFailureLeavesState(t *testing.T) {
	r := registryWith(t, "notes.pdf")
	c := NewConversation(r)
	r.OnReset(c)
	sub, _ := c.Submit("q")
	_, _ = c.Settle(sub.ID, backend.Answer{Answer: "a"}, nil)

	op, err := r.BeginClear(true)
	require.NoError(t, err)
	_, err = r.BeginClear(true)
	assert.ErrorIs(t, err, ErrBusy)

	notice, ok := r.FailClear(op, &backend.APIError{Op: "clear", Status: 503})
	require.True(t, ok)
	assert.Equal(t, MsgClearFailed, notice.Text)
	assert.Equal(t, []string{"notes.pdf"}, r.Documents())
	assert.Equal(t, 1, c.Len())
	assert.False(t, r.Clearing())
}
