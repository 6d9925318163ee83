package diag

import "strings"

// Location points at a metadata entity instead of a source span.
// Empty fields are omitted when rendered.
type Location struct {
	Module    string
	Namespace string
	Type      string // full dotted type name
	Member    string
}

// IsZero reports whether the location names nothing.
func (l Location) IsZero() bool {
	return l == Location{}
}

func (l Location) String() string {
	var b strings.Builder
	if l.Module != "" {
		b.WriteString(l.Module)
		b.WriteByte(':')
	}
	switch {
	case l.Type != "":
		b.WriteString(l.Type)
	case l.Namespace != "":
		b.WriteString(l.Namespace)
	}
	if l.Member != "" {
		b.WriteByte('.')
		b.WriteString(l.Member)
	}
	return b.String()
}

type Note struct {
	Loc Location
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}

func New(sev Severity, code Code, primary Location, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary Location, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(loc Location, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Loc: loc, Msg: msg})
	return d
}

// Error lets a fatal diagnostic travel as an error value.
func (d Diagnostic) Error() string {
	return d.Code.ID() + " " + d.Primary.String() + ": " + d.Message
}
