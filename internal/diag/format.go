package diag

import (
	"strings"
)

// FormatShort renders diagnostics one per line, in bag order:
//
//	ERROR META1007 Test.Shapes.Shape.Move: message
func FormatShort(diags []Diagnostic, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	var b strings.Builder
	for _, d := range diags {
		writeLine(&b, d.Severity.String(), d.Code.ID(), d.Primary, d.Message)
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			b.WriteString("  ")
			writeLine(&b, "note", "", n.Loc, n.Msg)
		}
	}
	return b.String()
}

func writeLine(b *strings.Builder, sev, code string, loc Location, msg string) {
	b.WriteString(sev)
	if code != "" {
		b.WriteByte(' ')
		b.WriteString(code)
	}
	if !loc.IsZero() {
		b.WriteByte(' ')
		b.WriteString(loc.String())
	}
	b.WriteString(": ")
	b.WriteString(msg)
	b.WriteByte('\n')
}
