package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"

	"minitodo/model"
	"minitodo/render"
)

var (
	headerStyle = color.New(color.FgCyan, color.Bold)
	doneStyle   = color.New(color.FgHiBlack, color.CrossedOut)
	idStyle     = color.New(color.FgYellow)
	okStyle     = color.New(color.FgGreen)
	mutedStyle  = color.New(color.FgHiBlack)
	errorStyle  = color.New(color.FgRed, color.Bold)
)

const (
	shortIDLen  = 8
	markdownMin = 40
)

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// writeList prints the display as a checklist followed by the counts line.
func writeList(w io.Writer, d render.Display, counts model.Counts) {
	if d.Empty() {
		fmt.Fprintln(w, mutedStyle.Sprint(d.Placeholder))
	}
	for _, r := range d.Rows {
		check := "[ ]"
		text := render.Terminal(r.Text)
		if r.Done {
			check = "[x]"
			text = doneStyle.Sprint(text)
		}
		fmt.Fprintf(w, "%s %s  %s\n", check, idStyle.Sprint(padRight(shortID(r.ID), shortIDLen)), text)
	}
	fmt.Fprintln(w, mutedStyle.Sprintf("%d items (active %d / done %d)", counts.Total, counts.Active, counts.Done))
}

func padRight(s string, width int) string {
	if gap := width - runewidth.StringWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// markdownList renders the display as a GitHub task list.
func markdownList(d render.Display, counts model.Counts) string {
	var b strings.Builder
	b.WriteString("# To-dos\n\n")
	if d.Empty() {
		b.WriteString("_" + d.Placeholder + "_\n")
	}
	for _, r := range d.Rows {
		check := " "
		if r.Done {
			check = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s `%s`\n", check, escapeMarkdown(render.Terminal(r.Text)), shortID(r.ID))
	}
	fmt.Fprintf(&b, "\n%d items (active %d / done %d)\n", counts.Total, counts.Active, counts.Done)
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "<", `\<`, "#", `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// renderMarkdown styles md for the terminal. Non-terminal output gets the plain notty style.
func renderMarkdown(w io.Writer, md string) (string, error) {
	style := "notty"
	if isTerminalWriter(w) {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		// Fixed style: auto-detection queries the terminal and can block.
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(terminalWidth(), markdownMin)),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

func terminalWidth() int {
	if v := os.Getenv("COLUMNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 80
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// stdinIsTerminal is swapped out in tests.
var stdinIsTerminal = isInteractiveStdin

func isInteractiveStdin() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}
