// Package edit implements inline text editing of a single item.
//
// A Session moves Viewing -> Editing -> one of CommittedSave, CommittedDelete or
// Cancelled, and then straight back to Viewing. The edit surface only holds a
// draft string: committing reads the draft, cancelling discards it.
package edit

import (
	"errors"
	"strings"
)

// State is a Session state.
type State int

const (
	Viewing State = iota
	Editing
	CommittedSave
	CommittedDelete
	Cancelled
)

func (s State) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case CommittedSave:
		return "committed-save"
	case CommittedDelete:
		return "committed-delete"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a session.
func (s State) Terminal() bool {
	return s == CommittedSave || s == CommittedDelete || s == Cancelled
}

var (
	ErrAlreadyEditing = errors.New("an edit session is already open")
	ErrNotEditing     = errors.New("no edit session is open")
	ErrEmptyID        = errors.New("item id must not be empty")
)

// Outcome describes how a session ended.
// Text is the trimmed draft for CommittedSave and the original text otherwise.
type Outcome struct {
	State    State
	ID       string
	Text     string
	Original string
}

// Session is the state of one inline edit. The zero value is Viewing.
type Session struct {
	state    State
	last     State
	id       string
	original string
	draft    string
}

func (s *Session) State() State { return s.state }

// Last returns the terminal state of the most recent finished session, or Viewing.
func (s *Session) Last() State { return s.last }

func (s *Session) Editing() bool { return s.state == Editing }

// ID returns the id being edited, or "".
func (s *Session) ID() string { return s.id }

func (s *Session) Original() string { return s.original }

func (s *Session) Draft() string { return s.draft }

// Begin opens a session on id, seeding the draft with text.
func (s *Session) Begin(id, text string) error {
	if s.state == Editing {
		return ErrAlreadyEditing
	}
	if strings.TrimSpace(id) == "" {
		return ErrEmptyID
	}
	s.state = Editing
	s.id = id
	s.original = text
	s.draft = text
	return nil
}

// SetDraft replaces the draft. Ignored outside Editing.
func (s *Session) SetDraft(text string) {
	if s.state != Editing {
		return
	}
	s.draft = text
}

// Commit ends the session with the current draft. A blank draft ends in CommittedDelete.
func (s *Session) Commit() (Outcome, error) {
	if s.state != Editing {
		return Outcome{}, ErrNotEditing
	}
	text := strings.TrimSpace(s.draft)
	if text == "" {
		return s.finish(CommittedDelete, s.original), nil
	}
	return s.finish(CommittedSave, text), nil
}

// Blur is a loss of focus; it commits.
func (s *Session) Blur() (Outcome, error) {
	return s.Commit()
}

// Cancel ends the session keeping the original text.
func (s *Session) Cancel() (Outcome, error) {
	if s.state != Editing {
		return Outcome{}, ErrNotEditing
	}
	return s.finish(Cancelled, s.original), nil
}

func (s *Session) finish(terminal State, text string) Outcome {
	out := Outcome{State: terminal, ID: s.id, Text: text, Original: s.original}
	s.last = terminal
	s.state = Viewing
	s.id = ""
	s.original = ""
	s.draft = ""
	return out
}
