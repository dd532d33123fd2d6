package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"minitodo/logging"
	"minitodo/model"
	"minitodo/view"
)

// ResetPrompt is the question put to the Confirmer before ResetAll.
const ResetPrompt = "Delete all to-dos? This cannot be undone."

var (
	ErrNotFound      = errors.New("item not found")
	ErrAmbiguousID   = errors.New("id prefix matches more than one item")
	ErrInvalidFilter = errors.New("invalid filter")
)

// Persister writes the full collection. store.Adapter satisfies it.
type Persister interface {
	Save(model.Collection) error
}

// Confirmer is a blocking yes/no gate.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// ChangeKind tells listeners whether the collection or only the view changed.
type ChangeKind int

const (
	ChangeCollection ChangeKind = iota
	ChangeView
)

// Change is passed to the listener after every effective operation.
type Change struct {
	Kind ChangeKind
	Op   string
	// SaveErr is set when the collection changed but could not be persisted.
	SaveErr error
}

// Service owns the collection and the view state.
// Every mutation that changes the collection saves once and notifies once; no-ops do neither.
type Service struct {
	items model.Collection
	view  model.ViewState

	persist  Persister
	confirm  Confirmer
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
	listener func(Change)
}

type Option func(*Service)

func WithPersister(p Persister) Option {
	return func(s *Service) { s.persist = p }
}

func WithConfirmer(c Confirmer) Option {
	return func(s *Service) { s.confirm = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a service over a copy of items with the default view state.
func NewService(items model.Collection, opts ...Option) *Service {
	s := &Service{
		view:    model.NewViewState(),
		persist: nopPersister{},
		confirm: ConfirmFunc(func(string) bool { return false }),
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "app")
	s.items = s.normalize(items)
	return s
}

// OnChange sets the listener, replacing any previous one.
func (s *Service) OnChange(fn func(Change)) {
	s.listener = fn
}

// SetConfirmer replaces the gate used by ResetAll.
func (s *Service) SetConfirmer(c Confirmer) {
	s.confirm = c
}

// Items returns a copy of the collection.
func (s *Service) Items() model.Collection {
	return s.items.Clone()
}

// Item returns the item with the given id.
func (s *Service) Item(id string) (model.Item, bool) {
	i := s.items.Index(id)
	if i < 0 {
		return model.Item{}, false
	}
	return s.items[i], true
}

func (s *Service) View() model.ViewState {
	return s.view
}

// Visible returns the items matching the current view state.
func (s *Service) Visible() []model.Item {
	return view.Visible(s.items, s.view)
}

func (s *Service) Counts() model.Counts {
	return view.Summarize(s.items)
}

// Resolve maps an exact id or a unique id prefix to an id.
func (s *Service) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrNotFound
	}
	if s.items.Index(ref) >= 0 {
		return ref, nil
	}
	match := ""
	for _, it := range s.items {
		if strings.HasPrefix(it.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("%w: %s", ErrAmbiguousID, ref)
			}
			match = it.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return match, nil
}

// Add prepends a new item. Blank text is a no-op.
func (s *Service) Add(text string) (model.Item, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Item{}, false, nil
	}
	item := model.Item{
		ID:        s.uniqueID(),
		Text:      text,
		Done:      false,
		CreatedAt: s.now().UnixMilli(),
	}
	items := make(model.Collection, 0, len(s.items)+1)
	items = append(items, item)
	s.items = append(items, s.items...)
	return item, true, s.commit("add")
}

// Toggle flips the done flag. Unknown ids are a no-op.
func (s *Service) Toggle(id string) (bool, error) {
	i := s.items.Index(id)
	if i < 0 {
		return false, nil
	}
	s.items[i].Done = !s.items[i].Done
	return true, s.commit("toggle")
}

// Delete removes the item. Unknown ids are a no-op.
func (s *Service) Delete(id string) (bool, error) {
	i := s.items.Index(id)
	if i < 0 {
		return false, nil
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	return true, s.commit("delete")
}

// Edit replaces the item text with the trimmed text. Blank text deletes the item;
// unknown ids and unchanged text are no-ops.
func (s *Service) Edit(id, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.Delete(id)
	}
	i := s.items.Index(id)
	if i < 0 || s.items[i].Text == text {
		return false, nil
	}
	s.items[i].Text = text
	return true, s.commit("edit")
}

// ClearDone removes every done item and returns how many were removed.
func (s *Service) ClearDone() (int, error) {
	kept := make(model.Collection, 0, len(s.items))
	for _, it := range s.items {
		if !it.Done {
			kept = append(kept, it)
		}
	}
	removed := len(s.items) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	s.items = kept
	return removed, s.commit("clear-done")
}

// ResetAll empties the collection after the confirmer agrees.
// An empty collection is left alone without asking.
func (s *Service) ResetAll() (bool, error) {
	if len(s.items) == 0 {
		return false, nil
	}
	if !s.confirm.Confirm(ResetPrompt) {
		s.logger.Debug("reset declined")
		return false, nil
	}
	s.items = model.Collection{}
	return true, s.commit("reset")
}

// SetFilter changes the view filter. It never saves.
func (s *Service) SetFilter(f model.Filter) error {
	switch f {
	case model.FilterAll, model.FilterActive, model.FilterDone:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFilter, f)
	}
	if s.view.Filter == f {
		return nil
	}
	s.view.Filter = f
	s.notify(Change{Kind: ChangeView, Op: "filter"})
	return nil
}

// SetQuery stores the raw search text. It never saves.
func (s *Service) SetQuery(q string) {
	if s.view.Query == q {
		return
	}
	s.view.Query = q
	s.notify(Change{Kind: ChangeView, Op: "query"})
}

func (s *Service) commit(op string) error {
	err := s.persist.Save(s.items.Clone())
	if err != nil {
		s.logger.Warn("change kept in memory but not saved", "op", op, "err", err)
	} else {
		s.logger.Debug("saved", "op", op, "items", len(s.items))
	}
	s.notify(Change{Kind: ChangeCollection, Op: op, SaveErr: err})
	return err
}

func (s *Service) notify(c Change) {
	if s.listener != nil {
		s.listener(c)
	}
}

func (s *Service) uniqueID() string {
	for {
		id := s.newID()
		if id != "" && s.items.Index(id) < 0 {
			return id
		}
	}
}

// normalize copies items, giving a fresh id to entries whose id is blank or repeated.
func (s *Service) normalize(items model.Collection) model.Collection {
	out := items.Clone()
	seen := make(map[string]struct{}, len(out))
	for i := range out {
		if _, dup := seen[out[i].ID]; out[i].ID == "" || dup {
			old := out[i].ID
			out[i].ID = s.freshID(seen)
			s.logger.Warn("reassigned item id", "old", old, "new", out[i].ID)
		}
		seen[out[i].ID] = struct{}{}
	}
	return out
}

func (s *Service) freshID(seen map[string]struct{}) string {
	for {
		id := s.newID()
		if _, taken := seen[id]; id != "" && !taken {
			return id
		}
	}
}

type nopPersister struct{}

func (nopPersister) Save(model.Collection) error { return nil }
