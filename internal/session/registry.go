package session

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/csheth/docqa/internal/backend"
	"github.com/csheth/docqa/internal/docs"
)

// ResetListener owns state derived from the Document Set and must drop it
// when every document is cleared.
type ResetListener interface {
	Reset()
}

// DocumentGate reports whether any document is registered.
type DocumentGate interface {
	HasDocuments() bool
}

// Upload is the ticket for one in-flight upload.
type Upload struct {
	ID   string
	Path string
	Name string
}

// ClearOp is the ticket for one in-flight clear-all.
type ClearOp struct {
	ID string
}

// Registry is the client's log of documents believed to be ingested by the
// backend. It is not deduplicated against server-side identity.
type Registry struct {
	documents []string
	upload    *Upload
	clear     *ClearOp
	listeners []ResetListener
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// OnReset subscribes l to the clear-all broadcast.
func (r *Registry) OnReset(l ResetListener) {
	r.listeners = append(r.listeners, l)
}

// Documents returns a copy of the Document Set in upload order.
func (r *Registry) Documents() []string {
	return append([]string(nil), r.documents...)
}

func (r *Registry) HasDocuments() bool {
	return len(r.documents) > 0
}

func (r *Registry) Uploading() bool {
	return r.upload != nil
}

func (r *Registry) Clearing() bool {
	return r.clear != nil
}

// BeginUpload takes the upload gate for the file at path.
func (r *Registry) BeginUpload(path string) (*Upload, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrNoFile
	}
	if r.upload != nil {
		return nil, ErrBusy
	}
	r.upload = &Upload{ID: uuid.NewString(), Path: path, Name: docs.DisplayName(path)}
	return r.upload, nil
}

// CompleteUpload records the uploaded document. A stale ticket is ignored
// and reported through ok.
func (r *Registry) CompleteUpload(ticket *Upload, chunks int) (Notice, bool) {
	if !r.owns(ticket) {
		return Notice{}, false
	}
	r.upload = nil
	r.documents = append(r.documents, ticket.Name)
	return successNotice(fmt.Sprintf("Document \"%s\" uploaded successfully! %d chunks created.", ticket.Name, chunks)), true
}

// FailUpload releases the gate without touching the Document Set.
func (r *Registry) FailUpload(ticket *Upload, err error) (Notice, bool) {
	if !r.owns(ticket) {
		return Notice{}, false
	}
	r.upload = nil
	return errorNotice(backend.DetailOr(err, MsgUploadFailed)), true
}

func (r *Registry) owns(ticket *Upload) bool {
	return ticket != nil && r.upload != nil && r.upload.ID == ticket.ID
}

// BeginClear starts a clear-all once the user has confirmed. A declined
// confirmation returns (nil, nil) and changes nothing.
func (r *Registry) BeginClear(confirmed bool) (*ClearOp, error) {
	if !confirmed {
		return nil, nil
	}
	if r.clear != nil {
		return nil, ErrBusy
	}
	r.clear = &ClearOp{ID: uuid.NewString()}
	return r.clear, nil
}

// CompleteClear empties the Document Set and broadcasts the reset.
func (r *Registry) CompleteClear(op *ClearOp) (Notice, bool) {
	if op == nil || r.clear == nil || r.clear.ID != op.ID {
		return Notice{}, false
	}
	r.clear = nil
	r.documents = nil
	for _, l := range r.listeners {
		l.Reset()
	}
	return successNotice(MsgCleared), true
}

// FailClear releases the clear gate; documents and listeners are untouched.
func (r *Registry) FailClear(op *ClearOp, err error) (Notice, bool) {
	if op == nil || r.clear == nil || r.clear.ID != op.ID {
		return Notice{}, false
	}
	r.clear = nil
	return errorNotice(backend.DetailOr(err, MsgClearFailed)), true
}
