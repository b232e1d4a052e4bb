// Package output renders command results in one of several modes: styled
// text for terminals, markdown for pipes and CI logs, and JSON for
// machines.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Mode selects an output format.
type Mode string

const (
	// ModeAuto picks text on a terminal and markdown otherwise.
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes command output in a given mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles Styles
}

// NewRenderer creates a renderer. Unknown modes fall back to auto.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	switch mode {
	case ModeText, ModeMarkdown, ModeJSON:
	default:
		mode = ModeAuto
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		styles: DefaultStyles(),
	}
}

// EffectiveMode resolves ModeAuto against the output destination.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if f, ok := r.out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return ModeText
	}
	return ModeMarkdown
}

// Styles returns the style set for direct rendering. In non-text modes the
// styles degrade to plain text.
func (r *Renderer) Styles() Styles {
	if r.EffectiveMode() == ModeText {
		return r.styles
	}
	return PlainStyles()
}

// Println writes a line to standard output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted output to standard output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Success prints a success line.
func (r *Renderer) Success(msg string) {
	r.Println(r.Styles().Success.Render("✓ " + msg))
}

// Warning prints a warning line to stderr.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.Styles().Warning.Render("! "+msg))
}

// Error prints an error line to stderr.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.Styles().Error.Render("✗ "+msg))
}

// Header prints a heading at the given level. Text mode styles it;
// markdown mode emits #-prefixed headings.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeMarkdown {
		prefix := ""
		for i := 0; i < level; i++ {
			prefix += "#"
		}
		r.Println(prefix + " " + text)
		return
	}
	style := r.Styles().Header1
	if level > 1 {
		style = r.Styles().Header2
	}
	r.Println(style.Render(text))
}

// StatusLine prints a name with a status marker: "success", "failed",
// "skipped", or anything else rendered muted.
func (r *Renderer) StatusLine(name, status, note string) {
	styles := r.Styles()
	var marker string
	switch status {
	case "success":
		marker = styles.StatusSuccess.String()
	case "failed":
		marker = styles.StatusFailed.String()
	case "skipped":
		marker = styles.Muted.Render("-")
	default:
		marker = styles.Muted.Render("·")
	}
	line := fmt.Sprintf("  %s %s", marker, name)
	if note != "" {
		line += "  " + styles.Muted.Render(note)
	}
	r.Println(line)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
