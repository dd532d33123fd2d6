// Package view projects the collection through the active filter and search query.
package view

import (
	"strings"

	"golang.org/x/text/cases"

	"minitodo/model"
)

// Visible returns the items matching both the filter and the query, in collection order.
func Visible(c model.Collection, vs model.ViewState) []model.Item {
	q := fold(strings.TrimSpace(vs.Query))
	out := make([]model.Item, 0, len(c))
	for _, it := range c {
		if !MatchesFilter(vs.Filter, it) {
			continue
		}
		if q != "" && !strings.Contains(fold(it.Text), q) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// MatchesFilter reports whether it belongs to filter. Unknown filters behave like all.
func MatchesFilter(filter model.Filter, it model.Item) bool {
	switch filter {
	case model.FilterActive:
		return !it.Done
	case model.FilterDone:
		return it.Done
	default:
		return true
	}
}

// MatchesQuery reports whether the item text contains query, ignoring case.
// A blank query matches everything.
func MatchesQuery(query string, it model.Item) bool {
	q := fold(strings.TrimSpace(query))
	return q == "" || strings.Contains(fold(it.Text), q)
}

// Summarize counts total, active and done items.
func Summarize(c model.Collection) model.Counts {
	counts := model.Counts{Total: len(c)}
	for _, it := range c {
		if it.Done {
			counts.Done++
		}
	}
	counts.Active = counts.Total - counts.Done
	return counts
}

// foldCaser is reset by every String call. Callers stay on one goroutine.
var foldCaser = cases.Fold()

func fold(s string) string {
	// Full case folding: "Straße" and "STRASSE" fold alike.
	return foldCaser.String(s)
}
