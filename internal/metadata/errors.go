package metadata

import (
	"fmt"
	"strings"
)

// ErrorKind classifies metadata integrity failures.
type ErrorKind uint8

const (
	// ErrDanglingRef indicates a type reference that resolves to no TypeDef.
	ErrDanglingRef ErrorKind = iota + 1
	// ErrMissingDefaultInterface indicates a class with interfaces but no [Default] one.
	ErrMissingDefaultInterface
	// ErrAttributeConflict indicates an attribute that may appear once appearing more often.
	ErrAttributeConflict
	// ErrMalformedAttribute indicates attribute arguments of an unexpected shape.
	ErrMalformedAttribute
	// ErrContractHistory indicates overlapping or unordered contract ranges.
	ErrContractHistory
	// ErrMissingGuid indicates an interface or delegate without a [Guid].
	ErrMissingGuid
)

func (k ErrorKind) String() string {
	switch k {
	case ErrDanglingRef:
		return "dangling type reference"
	case ErrMissingDefaultInterface:
		return "missing default interface"
	case ErrAttributeConflict:
		return "attribute conflict"
	case ErrMalformedAttribute:
		return "malformed attribute"
	case ErrContractHistory:
		return "invalid contract history"
	case ErrMissingGuid:
		return "missing guid"
	}
	return fmt.Sprintf("metadata error %d", uint8(k))
}

// ResolutionError is a metadata integrity error scoped to one type.
type ResolutionError struct {
	Kind   ErrorKind
	Type   string // full dotted name of the offending type
	Member string // optional member name
	// Ref names the type the failure originated in when it is not Type,
	// e.g. the broken class a method parameter refers to.
	Ref    string
	Detail string
}

func (e *ResolutionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Type)
	if e.Member != "" {
		b.WriteByte('.')
		b.WriteString(e.Member)
	}
	e.writeCause(&b)
	return b.String()
}

// Reason is the message without the location of Type and Member.
func (e *ResolutionError) Reason() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	e.writeCause(&b)
	return b.String()
}

func (e *ResolutionError) writeCause(b *strings.Builder) {
	if e.Ref != "" {
		b.WriteString(": ")
		b.WriteString(e.Ref)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
}

// ConfigError reports a user configuration problem detected against metadata.
type ConfigError struct {
	Namespace string
	Path      string
	Msg       string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Namespace != "":
		return fmt.Sprintf("namespace %q: %s", e.Namespace, e.Msg)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Path, e.Msg)
	}
	return e.Msg
}
