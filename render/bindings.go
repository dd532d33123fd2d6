package render

// Action is a per-row interaction.
type Action int

const (
	ActionToggle Action = iota
	ActionDelete
	ActionEdit
)

func (a Action) String() string {
	switch a {
	case ActionToggle:
		return "toggle"
	case ActionDelete:
		return "delete"
	case ActionEdit:
		return "edit"
	default:
		return "unknown"
	}
}

// Handlers are invoked with the id of the row the action targets.
type Handlers struct {
	Toggle func(id string)
	Delete func(id string)
	Edit   func(id string)
}

// Bindings holds the handlers attached to the most recent display.
// Every Bind replaces the previous table and starts a new generation; dispatches
// carrying an older generation are dropped.
type Bindings struct {
	gen      uint64
	rows     map[string]struct{}
	order    []string
	handlers Handlers
}

// Bind attaches handlers to every row of d and returns the new generation.
func (b *Bindings) Bind(d Display, h Handlers) uint64 {
	b.gen++
	b.rows = make(map[string]struct{}, len(d.Rows))
	b.order = b.order[:0]
	for _, r := range d.Rows {
		b.rows[r.ID] = struct{}{}
		b.order = append(b.order, r.ID)
	}
	b.handlers = h
	return b.gen
}

// Generation returns the current generation.
func (b *Bindings) Generation() uint64 {
	return b.gen
}

// At returns the id bound at row position i.
func (b *Bindings) At(i int) (string, bool) {
	if i < 0 || i >= len(b.order) {
		return "", false
	}
	return b.order[i], true
}

// Len returns the number of bound rows.
func (b *Bindings) Len() int {
	return len(b.order)
}

// Dispatch runs the handler for action on id. It reports false, without calling anything,
// when gen is stale, id is not bound or no handler is set.
func (b *Bindings) Dispatch(gen uint64, action Action, id string) bool {
	if gen != b.gen {
		return false
	}
	if _, ok := b.rows[id]; !ok {
		return false
	}
	var fn func(string)
	switch action {
	case ActionToggle:
		fn = b.handlers.Toggle
	case ActionDelete:
		fn = b.handlers.Delete
	case ActionEdit:
		fn = b.handlers.Edit
	}
	if fn == nil {
		return false
	}
	fn(id)
	return true
}
