package session

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/csheth/docqa/internal/backend"
)

// ErrEmptyAnswer is used when the backend reports success without any
// answer text; the submission is rolled back like any other failure.
var ErrEmptyAnswer = errors.New("backend returned an empty answer")

// Turn is one question and, once resolved, its answer.
type Turn struct {
	Question string
	Answer   string
	Sources  []string
}

// Pending reports whether the turn is still waiting for its answer.
func (t Turn) Pending() bool {
	return t.Answer == ""
}

// Phase is the Conversation's pending request state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
)

func (p Phase) String() string {
	if p == PhaseSubmitting {
		return "submitting"
	}
	return "idle"
}

// Submission is the ticket for one accepted question.
type Submission struct {
	ID       string
	Question string
	Request  backend.AskRequest
}

// Outcome describes how a settled submission changed the conversation.
// On failure Restore holds the text to put back into the input field.
type Outcome struct {
	Failed  bool
	Restore string
	Notice  Notice
}

type inFlight struct {
	Submission
	index    int
	snapshot []Turn
	cancel   context.CancelFunc
}

// Conversation owns the transcript and reconciles it with answers that
// arrive asynchronously. Only one submission is in flight at a time.
type Conversation struct {
	gate    DocumentGate
	turns   []Turn
	pending *inFlight
}

// NewConversation returns an empty Conversation gated by gate.
func NewConversation(gate DocumentGate) *Conversation {
	return &Conversation{gate: gate}
}

// Turns returns a deep copy of the transcript.
func (c *Conversation) Turns() []Turn {
	return cloneTurns(c.turns)
}

func (c *Conversation) Len() int {
	return len(c.turns)
}

func (c *Conversation) Phase() Phase {
	if c.pending != nil {
		return PhaseSubmitting
	}
	return PhaseIdle
}

func (c *Conversation) Submitting() bool {
	return c.pending != nil
}

// InFlight returns the submission awaiting an answer, if any.
func (c *Conversation) InFlight() (Submission, bool) {
	if c.pending == nil {
		return Submission{}, false
	}
	return c.pending.Submission, true
}

// Submit validates text, optimistically appends a pending turn and returns
// the request to send. The history in the request covers prior turns only.
func (c *Conversation) Submit(text string) (*Submission, error) {
	question := strings.TrimSpace(text)
	if question == "" {
		return nil, ErrBlankQuestion
	}
	if c.gate == nil || !c.gate.HasDocuments() {
		return nil, ErrNoDocuments
	}
	if c.pending != nil {
		return nil, ErrBusy
	}

	history := make([]backend.HistoryEntry, 0, len(c.turns))
	for _, turn := range c.turns {
		history = append(history, backend.HistoryEntry{Human: turn.Question, AI: turn.Answer})
	}

	c.pending = &inFlight{
		Submission: Submission{
			ID:       uuid.NewString(),
			Question: question,
			Request:  backend.AskRequest{Question: question, ChatHistory: history},
		},
		index:    len(c.turns),
		snapshot: cloneTurns(c.turns),
	}
	c.turns = append(c.turns, Turn{Question: question})
	sub := c.pending.Submission
	return &sub, nil
}

// Attach registers the cancel func of the request carrying submission id,
// so a reset can abandon it.
func (c *Conversation) Attach(id string, cancel context.CancelFunc) {
	if c.pending == nil || c.pending.ID != id {
		if cancel != nil {
			cancel()
		}
		return
	}
	c.pending.cancel = cancel
}

// Settle applies the backend outcome for submission id. Results for a
// submission that is no longer in flight are dropped and ok is false.
func (c *Conversation) Settle(id string, answer backend.Answer, err error) (outcome Outcome, ok bool) {
	if c.pending == nil || c.pending.ID != id {
		return Outcome{}, false
	}
	if err == nil && strings.TrimSpace(answer.Answer) == "" {
		err = ErrEmptyAnswer
	}
	if err != nil {
		return c.fail(err), true
	}
	c.resolve(answer)
	return Outcome{}, true
}

func (c *Conversation) resolve(answer backend.Answer) {
	turn := &c.turns[c.pending.index]
	turn.Answer = answer.Answer
	if len(answer.Sources) > 0 {
		turn.Sources = append([]string(nil), answer.Sources...)
	}
	c.release()
}

func (c *Conversation) fail(err error) Outcome {
	question := c.pending.Question
	c.turns = c.pending.snapshot
	c.release()
	return Outcome{
		Failed:  true,
		Restore: question,
		Notice:  errorNotice(backend.DetailOr(err, MsgAskFailed)),
	}
}

func (c *Conversation) release() {
	if c.pending.cancel != nil {
		c.pending.cancel()
	}
	c.pending = nil
}

// Reset empties the transcript. An in-flight request is cancelled and its
// eventual result ignored.
func (c *Conversation) Reset() {
	if c.pending != nil {
		c.release()
	}
	c.turns = nil
}

func cloneTurns(turns []Turn) []Turn {
	if turns == nil {
		return nil
	}
	out := make([]Turn, len(turns))
	for i, turn := range turns {
		out[i] = turn
		if turn.Sources != nil {
			out[i].Sources = append([]string(nil), turn.Sources...)
		}
	}
	return out
}
