package types

import (
	"strings"

	"github.com/google/uuid"
)

// pinterfaceNamespace is the name-based UUID namespace WinRT uses to derive
// parameterised interface IDs.
var pinterfaceNamespace = uuid.MustParse("11f47ad5-7b73-42c0-abae-878b1e16adee")

// SignatureBuilder accumulates a WinRT type signature.
type SignatureBuilder struct {
	b strings.Builder
}

func (s *SignatureBuilder) WriteString(v string) { s.b.WriteString(v) }
func (s *SignatureBuilder) AppendByte(c byte)    { s.b.WriteByte(c) }

// WriteGuid writes a braced lowercase GUID.
func (s *SignatureBuilder) WriteGuid(g uuid.UUID) {
	s.b.WriteByte('{')
	s.b.WriteString(g.String())
	s.b.WriteByte('}')
}

func (s *SignatureBuilder) String() string { return s.b.String() }

// Signature returns the WinRT signature of t.
func Signature(t Type) (string, error) {
	var b SignatureBuilder
	if err := t.AppendSignature(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// IID returns the interface identifier of t: the declared [Guid] for
// interfaces and delegates, the SHA-1 name-based UUID of the signature for
// generic instances, and the default interface's IID for classes.
func IID(t Type) (uuid.UUID, error) {
	switch v := t.(type) {
	case *Interface:
		return v.Guid, nil
	case *Delegate:
		return v.Guid, nil
	case *Class:
		if v.Default == nil {
			return uuid.Nil, v.noDefault("interface id")
		}
		return IID(v.Default)
	case *GenericInst:
		sig, err := Signature(v)
		if err != nil {
			return uuid.Nil, err
		}
		return uuid.NewSHA1(pinterfaceNamespace, []byte(sig)), nil
	case *Mapped:
		if v.kind == MappedIAsyncInfo {
			return uuid.MustParse("00000036-0000-0000-c000-000000000046"), nil
		}
	}
	return uuid.Nil, &InvalidTypeError{Type: t.FullName(), Op: "interface id", Reason: t.Kind().String() + " has no interface id"}
}
