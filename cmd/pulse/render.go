package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// renderer prints markdown through glamour on a terminal and as plain text otherwise.
type renderer struct {
	out io.Writer
	tty bool
	md  *glamour.TermRenderer
}

func newRenderer(f *os.File) *renderer {
	r := &renderer{out: f, tty: term.IsTerminal(int(f.Fd()))}
	if !r.tty {
		return r
	}

	width := 80
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
		width = w
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err == nil {
		r.md = md
	}
	return r
}

func (r *renderer) Prompt() {
	if r.tty {
		fmt.Fprint(r.out, "\n\033[1;36myou ›\033[0m ")
	}
}

func (r *renderer) Stream(chunk string) {
	fmt.Fprint(r.out, chunk)
}

func (r *renderer) EndStream() {
	fmt.Fprintln(r.out)
}

func (r *renderer) Println(s string) {
	fmt.Fprintln(r.out, s)
}

func (r *renderer) Markdown(s string) {
	if r.md != nil {
		if rendered, err := r.md.Render(s); err == nil {
			fmt.Fprint(r.out, rendered)
			return
		}
	}
	fmt.Fprintln(r.out, s)
}
