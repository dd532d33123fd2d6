package edit

// Mutator applies committed edits to the collection.
type Mutator interface {
	Edit(id, text string) (bool, error)
	Delete(id string) (bool, error)
}

// Surface is the display side of an edit.
type Surface interface {
	// Release removes edit affordances (focus, editable state) from the row.
	Release(id string)
	// Restore puts the original text back on the row without a full redraw.
	Restore(id, original string)
}

type nopSurface struct{}

func (nopSurface) Release(string)         {}
func (nopSurface) Restore(string, string) {}

// Editor drives a Session against a Mutator and a Surface.
//
// Opening a session on another item while one is open commits the open one first.
// On every terminal transition the surface is released before anything else happens.
type Editor struct {
	session Session
	mut     Mutator
	surface Surface
}

func NewEditor(mut Mutator, surface Surface) *Editor {
	if surface == nil {
		surface = nopSurface{}
	}
	return &Editor{mut: mut, surface: surface}
}

// Session exposes the current session for inspection.
func (e *Editor) Session() *Session {
	return &e.session
}

// Begin opens a session on id. When a session on a different item is open it is
// committed first and its outcome returned with prior=true; an error from that commit is
// returned alongside the newly opened session.
// Begin on the item already being edited is a no-op.
func (e *Editor) Begin(id, text string) (prev Outcome, prior bool, err error) {
	if e.session.Editing() {
		if e.session.ID() == id {
			return Outcome{}, false, nil
		}
		// A failed commit still opens the new session.
		prev, err = e.Commit()
		prior = true
		if bErr := e.session.Begin(id, text); bErr != nil {
			return prev, prior, bErr
		}
		return prev, prior, err
	}
	return prev, prior, e.session.Begin(id, text)
}

// Input updates the draft.
func (e *Editor) Input(text string) {
	e.session.SetDraft(text)
}

// Commit ends the open session with the draft; a blank draft deletes the item.
// The returned error comes from the mutator; the session is closed either way.
func (e *Editor) Commit() (Outcome, error) {
	out, err := e.session.Commit()
	if err != nil {
		return out, err
	}
	return out, e.apply(out)
}

// Blur commits the open session.
func (e *Editor) Blur() (Outcome, error) {
	out, err := e.session.Blur()
	if err != nil {
		return out, err
	}
	return out, e.apply(out)
}

// Cancel ends the open session and restores the original text locally.
func (e *Editor) Cancel() (Outcome, error) {
	out, err := e.session.Cancel()
	if err != nil {
		return out, err
	}
	return out, e.apply(out)
}

func (e *Editor) apply(out Outcome) error {
	e.surface.Release(out.ID)
	switch out.State {
	case CommittedSave:
		_, err := e.mut.Edit(out.ID, out.Text)
		return err
	case CommittedDelete:
		_, err := e.mut.Delete(out.ID)
		return err
	case Cancelled:
		e.surface.Restore(out.ID, out.Original)
	}
	return nil
}
