package app

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"minitodo/model"
	"minitodo/store"
)

// fakePersister counts saves and can fail on demand.
type fakePersister struct {
	saves []model.Collection
	err   error
}

func (f *fakePersister) Save(c model.Collection) error {
	if f.err != nil {
		return f.err
	}
	f.saves = append(f.saves, c.Clone())
	return nil
}

type harness struct {
	svc     *Service
	persist *fakePersister
	changes []Change
	confirm bool
	asked   int
}

func newHarness(t *testing.T, items model.Collection) *harness {
	t.Helper()
	h := &harness{persist: &fakePersister{}}
	seq := 0
	clock := time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC)
	h.svc = NewService(items,
		WithPersister(h.persist),
		WithConfirmer(ConfirmFunc(func(string) bool {
			h.asked++
			return h.confirm
		})),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	)
	h.svc.OnChange(func(c Change) { h.changes = append(h.changes, c) })
	return h
}

func mustAdd(t *testing.T, svc *Service, text string) model.Item {
	t.Helper()
	it, changed, err := svc.Add(text)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !changed {
		t.Fatalf("expected add of %q to change the collection", text)
	}
	return it
}

func texts(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Text)
	}
	return out
}

func TestScenarioAddToggleFilterClear(t *testing.T) {
	h := newHarness(t, nil)
	svc := h.svc

	milk := mustAdd(t, svc, "buy milk")
	if got := svc.Items(); len(got) != 1 || got[0].Text != "buy milk" || got[0].Done {
		t.Fatalf("unexpected collection after first add: %+v", got)
	}

	mustAdd(t, svc, "walk dog")
	if got := texts(svc.Items()); !reflect.DeepEqual(got, []string{"walk dog", "buy milk"}) {
		t.Fatalf("expected newest first, got %v", got)
	}

	if _, err := svc.Toggle(milk.ID); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if it, _ := svc.Item(milk.ID); !it.Done {
		t.Fatalf("expected buy milk done")
	}
	if c := svc.Counts(); c.Active != 1 || c.Done != 1 || c.Total != 2 {
		t.Fatalf("unexpected counts %+v", c)
	}

	if err := svc.SetFilter(model.FilterDone); err != nil {
		t.Fatalf("set filter failed: %v", err)
	}
	if got := texts(svc.Visible()); !reflect.DeepEqual(got, []string{"buy milk"}) {
		t.Fatalf("unexpected visible after done filter: %v", got)
	}

	removed, err := svc.ClearDone()
	if err != nil {
		t.Fatalf("clear done failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if got := texts(svc.Items()); !reflect.DeepEqual(got, []string{"walk dog"}) {
		t.Fatalf("unexpected collection after clear: %v", got)
	}

	// add, add, toggle, clear = four saves; the filter change saved nothing.
	if len(h.persist.saves) != 4 {
		t.Fatalf("expected 4 saves, got %d", len(h.persist.saves))
	}
	if len(h.changes) != 5 {
		t.Fatalf("expected 5 notifications, got %d", len(h.changes))
	}
}

func TestAddStoresTrimmedTextAndTimestamp(t *testing.T) {
	h := newHarness(t, nil)
	it := mustAdd(t, h.svc, "  buy milk  ")

	if it.Text != "buy milk" {
		t.Fatalf("expected trimmed text, got %q", it.Text)
	}
	if it.ID != "id-1" {
		t.Fatalf("expected generated id, got %q", it.ID)
	}
	want := time.Date(2026, 2, 19, 12, 0, 1, 0, time.UTC).UnixMilli()
	if it.CreatedAt != want {
		t.Fatalf("expected createdAt %d, got %d", want, it.CreatedAt)
	}
}

func TestBlankAddIsSilentNoop(t *testing.T) {
	h := newHarness(t, nil)

	_, changed, err := h.svc.Add("   ")
	if err != nil || changed {
		t.Fatalf("expected silent no-op, got changed=%v err=%v", changed, err)
	}
	if len(h.svc.Items()) != 0 {
		t.Fatalf("expected collection unchanged")
	}
	if len(h.persist.saves) != 0 || len(h.changes) != 0 {
		t.Fatalf("no-op must not save or notify")
	}
}

func TestUnknownIDOperationsAreNoops(t *testing.T) {
	h := newHarness(t, nil)
	mustAdd(t, h.svc, "keep me")
	before := h.svc.Items()
	beforeView := h.svc.View()
	saves := len(h.persist.saves)
	changes := len(h.changes)

	if changed, err := h.svc.Toggle("missing"); changed || err != nil {
		t.Fatalf("toggle missing: changed=%v err=%v", changed, err)
	}
	if changed, err := h.svc.Delete("missing"); changed || err != nil {
		t.Fatalf("delete missing: changed=%v err=%v", changed, err)
	}
	if changed, err := h.svc.Edit("missing", "text"); changed || err != nil {
		t.Fatalf("edit missing: changed=%v err=%v", changed, err)
	}
	if changed, err := h.svc.Edit("missing", "  "); changed || err != nil {
		t.Fatalf("blank edit missing: changed=%v err=%v", changed, err)
	}

	if !reflect.DeepEqual(before, h.svc.Items()) || h.svc.View() != beforeView {
		t.Fatalf("state changed by no-op operations")
	}
	if len(h.persist.saves) != saves || len(h.changes) != changes {
		t.Fatalf("no-op operations must not save or notify")
	}
}

func TestEditToBlankEqualsDelete(t *testing.T) {
	a := newHarness(t, nil)
	b := newHarness(t, nil)
	for _, h := range []*harness{a, b} {
		mustAdd(t, h.svc, "one")
		mustAdd(t, h.svc, "two")
	}
	target := a.svc.Items()[1].ID

	if changed, err := a.svc.Edit(target, "   "); !changed || err != nil {
		t.Fatalf("edit to blank: changed=%v err=%v", changed, err)
	}
	if changed, err := b.svc.Delete(target); !changed || err != nil {
		t.Fatalf("delete: changed=%v err=%v", changed, err)
	}
	if !reflect.DeepEqual(a.svc.Items(), b.svc.Items()) {
		t.Fatalf("edit-to-blank differs from delete\nedit=%+v\ndelete=%+v", a.svc.Items(), b.svc.Items())
	}
}

func TestEditTrimsAndKeepsPosition(t *testing.T) {
	h := newHarness(t, nil)
	first := mustAdd(t, h.svc, "first")
	mustAdd(t, h.svc, "second")

	if changed, err := h.svc.Edit(first.ID, "  first, edited "); !changed || err != nil {
		t.Fatalf("edit: changed=%v err=%v", changed, err)
	}
	got := h.svc.Items()
	if got[1].ID != first.ID || got[1].Text != "first, edited" {
		t.Fatalf("unexpected collection after edit: %+v", got)
	}

	saves := len(h.persist.saves)
	if changed, _ := h.svc.Edit(first.ID, "first, edited"); changed {
		t.Fatalf("edit with identical text must be a no-op")
	}
	if len(h.persist.saves) != saves {
		t.Fatalf("identical edit must not save")
	}
}

func TestToggleTwiceRestoresDone(t *testing.T) {
	h := newHarness(t, nil)
	it := mustAdd(t, h.svc, "flip")

	for i := 0; i < 2; i++ {
		if _, err := h.svc.Toggle(it.ID); err != nil {
			t.Fatalf("toggle %d failed: %v", i, err)
		}
	}
	if got, _ := h.svc.Item(it.ID); got.Done {
		t.Fatalf("expected not done after two toggles")
	}
	if len(h.persist.saves) != 3 {
		t.Fatalf("expected one save per effective toggle, got %d", len(h.persist.saves))
	}
}

func TestClearDoneWithNothingDoneIsNoop(t *testing.T) {
	h := newHarness(t, nil)
	mustAdd(t, h.svc, "open")
	saves := len(h.persist.saves)

	removed, err := h.svc.ClearDone()
	if err != nil || removed != 0 {
		t.Fatalf("expected no-op, got removed=%d err=%v", removed, err)
	}
	if len(h.persist.saves) != saves {
		t.Fatalf("clear-done no-op must not save")
	}
}

func TestResetAllRequiresConfirmation(t *testing.T) {
	h := newHarness(t, nil)
	mustAdd(t, h.svc, "a")
	mustAdd(t, h.svc, "b")
	saves := len(h.persist.saves)
	changes := len(h.changes)

	h.confirm = false
	if changed, err := h.svc.ResetAll(); changed || err != nil {
		t.Fatalf("declined reset: changed=%v err=%v", changed, err)
	}
	if len(h.svc.Items()) != 2 || len(h.persist.saves) != saves || len(h.changes) != changes {
		t.Fatalf("declined reset must be a full abort")
	}

	h.confirm = true
	if changed, err := h.svc.ResetAll(); !changed || err != nil {
		t.Fatalf("confirmed reset: changed=%v err=%v", changed, err)
	}
	if len(h.svc.Items()) != 0 {
		t.Fatalf("expected empty collection after reset")
	}
	if len(h.persist.saves) != saves+1 {
		t.Fatalf("expected exactly one save for reset")
	}
	if h.asked != 2 {
		t.Fatalf("expected confirmer asked twice, got %d", h.asked)
	}

	if changed, _ := h.svc.ResetAll(); changed {
		t.Fatalf("reset of empty collection must be a no-op")
	}
	if h.asked != 2 {
		t.Fatalf("empty reset must not prompt")
	}
}

func TestDefaultConfirmerDeclines(t *testing.T) {
	svc := NewService(model.Collection{{ID: "x", Text: "x"}})
	if changed, _ := svc.ResetAll(); changed {
		t.Fatalf("expected reset declined without a confirmer")
	}
}

func TestViewStateChangesNotifyWithoutSaving(t *testing.T) {
	h := newHarness(t, nil)

	h.svc.SetQuery("  Milk ")
	if h.svc.View().Query != "  Milk " {
		t.Fatalf("query must be stored verbatim, got %q", h.svc.View().Query)
	}
	if err := h.svc.SetFilter(model.FilterActive); err != nil {
		t.Fatalf("set filter failed: %v", err)
	}
	if err := h.svc.SetFilter("todo"); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}

	if len(h.persist.saves) != 0 {
		t.Fatalf("view changes must not save")
	}
	if len(h.changes) != 2 || h.changes[0].Kind != ChangeView || h.changes[1].Kind != ChangeView {
		t.Fatalf("expected two view notifications, got %+v", h.changes)
	}

	h.svc.SetQuery("  Milk ")
	if len(h.changes) != 2 {
		t.Fatalf("unchanged query must not notify")
	}
}

func TestSaveFailureKeepsInMemoryState(t *testing.T) {
	h := newHarness(t, nil)
	h.persist.err = fmt.Errorf("%w: quota exceeded", store.ErrSaveFailed)

	it, changed, err := h.svc.Add("unsaved")
	if !changed {
		t.Fatalf("expected in-memory change despite save failure")
	}
	if !errors.Is(err, store.ErrSaveFailed) {
		t.Fatalf("expected ErrSaveFailed, got %v", err)
	}
	if _, ok := h.svc.Item(it.ID); !ok {
		t.Fatalf("item lost after failed save")
	}
	last := h.changes[len(h.changes)-1]
	if last.Kind != ChangeCollection || !errors.Is(last.SaveErr, store.ErrSaveFailed) {
		t.Fatalf("expected listener to see the save error, got %+v", last)
	}

	h.persist.err = nil
	if _, err := h.svc.Toggle(it.ID); err != nil {
		t.Fatalf("toggle after recovery failed: %v", err)
	}
	saved := h.persist.saves[len(h.persist.saves)-1]
	if len(saved) != 1 || saved[0].Text != "unsaved" || !saved[0].Done {
		t.Fatalf("expected next save to carry the in-memory state, got %+v", saved)
	}
}

func TestOnChangeReplacesListener(t *testing.T) {
	h := newHarness(t, nil)
	first, second := 0, 0
	h.svc.OnChange(func(Change) { first++ })
	h.svc.OnChange(func(Change) { second++ })

	mustAdd(t, h.svc, "x")
	if first != 0 || second != 1 {
		t.Fatalf("expected only the latest listener to fire, got first=%d second=%d", first, second)
	}
}

func TestNewServiceRepairsMissingAndDuplicateIDs(t *testing.T) {
	h := newHarness(t, model.Collection{
		{ID: "a", Text: "one"},
		{ID: "a", Text: "two"},
		{ID: "", Text: "three"},
	})
	got := h.svc.Items()
	seen := map[string]bool{}
	for _, it := range got {
		if it.ID == "" || seen[it.ID] {
			t.Fatalf("ids not unique after load: %+v", got)
		}
		seen[it.ID] = true
	}
	if got[0].ID != "a" || !reflect.DeepEqual(texts(got), []string{"one", "two", "three"}) {
		t.Fatalf("repair must keep order and the first id, got %+v", got)
	}
	if len(h.persist.saves) != 0 {
		t.Fatalf("loading must not save")
	}
}

func TestResolveIDPrefix(t *testing.T) {
	svc := NewService(model.Collection{
		{ID: "abc123", Text: "x"},
		{ID: "abd456", Text: "y"},
	})

	if id, err := svc.Resolve("abc"); err != nil || id != "abc123" {
		t.Fatalf("resolve unique prefix: id=%q err=%v", id, err)
	}
	if id, err := svc.Resolve("abd456"); err != nil || id != "abd456" {
		t.Fatalf("resolve exact: id=%q err=%v", id, err)
	}
	if _, err := svc.Resolve("ab"); !errors.Is(err, ErrAmbiguousID) {
		t.Fatalf("expected ErrAmbiguousID, got %v", err)
	}
	if _, err := svc.Resolve("zz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceWithStoreAdapterRoundTrip(t *testing.T) {
	adapter := store.New(store.NewMemorySlot(), nil)
	svc := NewService(adapter.Load(), WithPersister(adapter))
	mustAdd(t, svc, "buy milk")
	walk := mustAdd(t, svc, "walk dog")
	if _, err := svc.Toggle(walk.ID); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	reloaded := NewService(adapter.Load())
	if !reflect.DeepEqual(svc.Items(), reloaded.Items()) {
		t.Fatalf("reload mismatch\nwant=%+v\ngot=%+v", svc.Items(), reloaded.Items())
	}
	if reloaded.View() != model.NewViewState() {
		t.Fatalf("view state must reset on start, got %+v", reloaded.View())
	}
}
