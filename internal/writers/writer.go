package writers

import (
	"fmt"
	"strings"
)

// Options controls indentation of generated text.
type Options struct {
	IndentWidth int
	UseTabs     bool
}

func (o Options) withDefaults() Options {
	if o.IndentWidth <= 0 {
		o.IndentWidth = 4
	}
	return o
}

// Writer accumulates generated source and keeps track of indentation. Lines
// written at the start of a line get the current indent.
type Writer struct {
	opt         Options
	buf         []byte
	indentLevel int
	atLineStart bool
}

// NewWriter creates a writer positioned at the start of an empty line.
func NewWriter(opt Options) *Writer {
	return &Writer{
		opt:         opt.withDefaults(),
		buf:         make([]byte, 0, 4096),
		atLineStart: true,
	}
}

// Bytes returns the accumulated output.
func (w *Writer) Bytes() []byte { return w.buf }

// String returns the accumulated output as a string.
func (w *Writer) String() string { return string(w.buf) }

func (w *Writer) writeIndent() {
	if !w.atLineStart {
		return
	}
	if w.opt.UseTabs {
		for range w.indentLevel {
			w.buf = append(w.buf, '\t')
		}
	} else {
		for range w.indentLevel * w.opt.IndentWidth {
			w.buf = append(w.buf, ' ')
		}
	}
	w.atLineStart = false
}

// WriteString writes s, indenting every line that starts inside it.
func (w *Writer) WriteString(s string) {
	for s != "" {
		line, rest, nl := strings.Cut(s, "\n")
		if line != "" {
			w.writeIndent()
			w.buf = append(w.buf, line...)
		}
		if nl {
			w.buf = append(w.buf, '\n')
			w.atLineStart = true
		}
		s = rest
	}
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(b byte) error {
	if b == '\n' {
		w.buf = append(w.buf, b)
		w.atLineStart = true
		return nil
	}
	w.writeIndent()
	w.buf = append(w.buf, b)
	return nil
}

// Line writes a formatted line terminated by a newline.
func (w *Writer) Line(format string, args ...any) {
	if len(args) == 0 {
		w.WriteString(format)
	} else {
		w.WriteString(fmt.Sprintf(format, args...))
	}
	w.Newline()
}

// Newline ends the current line.
func (w *Writer) Newline() {
	w.buf = append(w.buf, '\n')
	w.atLineStart = true
}

// Blank emits an empty line unless the output already ends with one.
func (w *Writer) Blank() {
	n := len(w.buf)
	if n == 0 || (n >= 2 && w.buf[n-1] == '\n' && w.buf[n-2] == '\n') {
		return
	}
	if w.buf[n-1] != '\n' {
		w.buf = append(w.buf, '\n')
	}
	w.buf = append(w.buf, '\n')
	w.atLineStart = true
}

// IndentPush increases the indentation level.
func (w *Writer) IndentPush() { w.indentLevel++ }

// IndentPop decreases the indentation level.
func (w *Writer) IndentPop() {
	if w.indentLevel > 0 {
		w.indentLevel--
	}
}

// Block writes open, runs body one level deeper and writes close.
func (w *Writer) Block(open string, body func(), close string) {
	w.Line("%s", open)
	w.IndentPush()
	body()
	w.IndentPop()
	w.Line("%s", close)
}
