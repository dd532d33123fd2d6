package model

import (
	"fmt"
	"strings"
	"time"
)

// Filter represents which items should be shown.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterActive Filter = "active"
	FilterDone   Filter = "done"
)

// Filters lists every filter in selector order.
var Filters = []Filter{FilterAll, FilterActive, FilterDone}

// ParseFilter accepts a filter name, ignoring case and surrounding space.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterAll, FilterActive, FilterDone:
		return f, nil
	case "":
		return FilterAll, nil
	default:
		return "", fmt.Errorf("unknown filter %q (want all, active or done)", s)
	}
}

// Next returns the filter after f in selector order, wrapping around.
func (f Filter) Next() Filter {
	for i, candidate := range Filters {
		if candidate == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// Item is an individual to-do entry.
// CreatedAt is stored as Unix milliseconds.
type Item struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Done      bool   `json:"done"`
	CreatedAt int64  `json:"createdAt"`
}

// Created returns CreatedAt as a time value.
func (i Item) Created() time.Time {
	return time.UnixMilli(i.CreatedAt)
}

// Collection is the ordered item list, newest first.
type Collection []Item

// Index returns the position of the item with the given id, or -1.
func (c Collection) Index(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns an independent copy of c. A nil collection clones to an empty one.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// ViewState is the ephemeral filter and search state. It is never persisted.
type ViewState struct {
	Filter Filter
	Query  string
}

// NewViewState returns the startup view state.
func NewViewState() ViewState {
	return ViewState{Filter: FilterAll}
}

// Snapshot is the persisted document.
type Snapshot struct {
	Todos Collection `json:"todos"`
}

// Counts summarises a collection.
type Counts struct {
	Total  int
	Active int
	Done   int
}
