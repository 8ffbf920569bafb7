// Package session holds the client-side state machines of docqa: the
// Registry tracking uploaded documents and the Conversation reconciling
// questions with backend answers. Nothing here performs I/O; callers run
// the returned requests and feed the outcomes back in.
package session

import (
	"errors"
	"time"
)

// NoticeLifetime is how long a success notice stays visible.
const NoticeLifetime = 3 * time.Second

var (
	// ErrBusy reports that the operation's gate is already held by an in-flight request.
	ErrBusy = errors.New("operation already in progress")
	// ErrNoFile reports an upload started without a selected file.
	ErrNoFile = errors.New("no file selected")
	// ErrBlankQuestion reports a question that is empty after trimming.
	ErrBlankQuestion = errors.New("question is blank")
	// ErrNoDocuments reports a question asked before any document was registered.
	ErrNoDocuments = errors.New("no documents registered")
)

// Generic notice texts used when the backend provides no detail.
const (
	MsgUploadFailed  = "Failed to upload document"
	MsgClearFailed   = "Failed to clear documents"
	MsgAskFailed     = "Failed to get answer"
	MsgNeedsDocument = "Please upload at least one document before asking questions"
	MsgCleared       = "All documents cleared successfully!"
)

// NoticeKind separates error notices from success notices.
type NoticeKind int

const (
	NoticeError NoticeKind = iota
	NoticeSuccess
	NoticeInfo
)

// Notice is a transient, user-visible message. It is cosmetic; nothing
// reads it back as state.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Expires reports whether the notice should auto-dismiss. Errors stay
// until something replaces them.
func (n Notice) Expires() bool {
	return n.Kind != NoticeError
}

func errorNotice(text string) Notice {
	return Notice{Kind: NoticeError, Text: text}
}

// ErrorNotice builds a persistent notice for failures detected outside the
// session types, such as local validation.
func ErrorNotice(text string) Notice {
	return errorNotice(text)
}

// InfoNotice builds an auto-dismissing informational notice.
func InfoNotice(text string) Notice {
	return Notice{Kind: NoticeInfo, Text: text}
}

func successNotice(text string) Notice {
	return Notice{Kind: NoticeSuccess, Text: text}
}
