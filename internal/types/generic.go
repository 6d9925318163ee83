package types

import (
	"strings"

	"github.com/google/uuid"
)

// GenericInst is a generic interface or delegate bound to concrete
// arguments. Within one Cache, equal instantiations share one value.
type GenericInst struct {
	// Generic is the open definition, an *Interface or *Delegate.
	Generic Type
	Args    []Type

	// Methods and Requires are the definition's members with the arguments
	// substituted; both stay empty for open instances.
	Methods  []*Method
	Requires []Type

	key string
}

func (g *GenericInst) Kind() Kind        { return KindGenericInst }
func (g *GenericInst) Namespace() string { return g.Generic.Namespace() }
func (g *GenericInst) Name() string      { return g.Generic.Name() }
func (g *GenericInst) sealed()           {}

// Key is the canonical identity used for deduplication.
func (g *GenericInst) Key() string { return g.key }

func instKey(generic Type, args []Type) string {
	var b strings.Builder
	b.WriteString(generic.FullName())
	b.WriteByte('<')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		if inst, ok := a.(*GenericInst); ok {
			b.WriteString(inst.key)
			continue
		}
		b.WriteString(a.FullName())
	}
	b.WriteByte('>')
	return b.String()
}

func (g *GenericInst) FullName() string { return g.key }

// IsOpen reports whether some argument is still an unbound parameter.
func (g *GenericInst) IsOpen() bool {
	for _, a := range g.Args {
		switch v := a.(type) {
		case *GenericParam:
			return true
		case *GenericInst:
			if v.IsOpen() {
				return true
			}
		}
	}
	return false
}

// IsDelegate reports whether the definition is a delegate.
func (g *GenericInst) IsDelegate() bool { return g.Generic.Kind() == KindDelegate }

func (g *GenericInst) SwiftFullName() string {
	return SwiftNamespace(g.Namespace()) + "." + SwiftName(g.Name()) + "<" + swiftTypeList(g.Args) + ">"
}

func (g *GenericInst) MangledName() string {
	var b strings.Builder
	b.WriteString(instPrefix)
	b.WriteString(cName(g.Name()))
	for _, a := range g.Args {
		b.WriteByte('_')
		b.WriteString(a.GenericParamMangledName())
	}
	return b.String()
}

func (g *GenericInst) ABIName() string                 { return g.MangledName() }
func (g *GenericInst) GenericParamMangledName() string { return g.MangledName() }

func (g *GenericInst) IsExperimental() bool {
	if g.Generic.IsExperimental() {
		return true
	}
	for _, a := range g.Args {
		if a.IsExperimental() {
			return true
		}
	}
	return false
}

func (g *GenericInst) AppendSignature(b *SignatureBuilder) error {
	var piid uuid.UUID
	switch def := g.Generic.(type) {
	case *Interface:
		piid = def.Guid
	case *Delegate:
		piid = def.Guid
	default:
		invariant("generic instance of non-generic kind %s", g.Generic.Kind())
	}
	b.WriteString("pinterface(")
	b.WriteGuid(piid)
	for _, a := range g.Args {
		b.AppendByte(';')
		if err := a.AppendSignature(b); err != nil {
			return err
		}
	}
	b.AppendByte(')')
	return nil
}

func (g *GenericInst) CABIParam() (string, error) { return g.MangledName() + "*", nil }

func (g *GenericInst) CForwardDeclaration() (string, error) {
	return fwdInterface(g.MangledName()), nil
}

// Invoke returns the substituted Invoke method of a delegate instance.
func (g *GenericInst) Invoke() (*Method, bool) {
	if !g.IsDelegate() || len(g.Methods) == 0 {
		return nil, false
	}
	return g.Methods[0], true
}
