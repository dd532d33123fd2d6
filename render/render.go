// Package render turns the visible items into a display list and keeps the
// per-row interaction handlers in step with it.
package render

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"

	"minitodo/model"
)

// EmptyMessage is shown in place of rows when nothing is visible.
const EmptyMessage = "No matching to-dos."

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape entity-escapes the five markup-significant characters.
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// Terminal strips escape sequences and control characters so item text cannot
// drive the terminal. Newlines and tabs become spaces.
func Terminal(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			return ' '
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, s)
}

// Row is one rendered item.
type Row struct {
	ID   string
	Done bool
	// Text is the raw item text; HTML is the same text entity-escaped.
	Text string
	HTML string
}

// Display is the rendered list. When nothing is visible it has no rows and Placeholder is set.
type Display struct {
	Rows        []Row
	Placeholder string
}

// Empty reports whether the display shows the placeholder instead of rows.
func (d Display) Empty() bool {
	return len(d.Rows) == 0
}

// Render builds the display for the visible items.
func Render(visible []model.Item) Display {
	if len(visible) == 0 {
		return Display{Placeholder: EmptyMessage}
	}
	rows := make([]Row, 0, len(visible))
	for _, it := range visible {
		rows = append(rows, Row{
			ID:   it.ID,
			Done: it.Done,
			Text: it.Text,
			HTML: Escape(it.Text),
		})
	}
	return Display{Rows: rows}
}

// HTML returns the list items as markup. Ids are escaped as attribute values.
func (d Display) HTML() string {
	var b strings.Builder
	if d.Empty() {
		b.WriteString(`<li class="muted">`)
		b.WriteString(Escape(d.Placeholder))
		b.WriteString("</li>\n")
		return b.String()
	}
	for _, r := range d.Rows {
		class := "item"
		if r.Done {
			class += " done"
		}
		b.WriteString(`<li class="` + class + `" data-id="` + Escape(r.ID) + `">`)
		b.WriteString(`<button class="check" type="button" aria-label="toggle done"></button>`)
		b.WriteString(`<div class="text" tabindex="0">` + r.HTML + `</div>`)
		b.WriteString(`<button class="del" type="button" aria-label="delete">&#10005;</button>`)
		b.WriteString("</li>\n")
	}
	return b.String()
}
