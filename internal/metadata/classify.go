package metadata

import (
	"fmt"

	"github.com/google/uuid"

	"swiftwinrt/internal/winmd"
)

// DefaultInterfaceOf returns the [Default] interface of a class.
//
// A class without interfaces has no default interface and that is not an
// error (static classes). A class with interfaces but no [Default] one, or
// with several, is malformed.
func (c *Cache) DefaultInterfaceOf(class TypeDef) (Ref, bool, error) {
	impls := class.InterfaceImpls()
	if len(impls) == 0 {
		return Ref{}, false, nil
	}
	var (
		found Ref
		count int
	)
	for _, impl := range impls {
		if impl.IsDefault() {
			found = impl.Interface()
			count++
		}
	}
	switch count {
	case 0:
		return Ref{}, false, &ResolutionError{
			Kind:   ErrMissingDefaultInterface,
			Type:   class.FullName(),
			Detail: fmt.Sprintf("implements %d interface(s) but none is marked [Default]", len(impls)),
		}
	case 1:
		return found, true, nil
	}
	return Ref{}, false, &ResolutionError{
		Kind:   ErrAttributeConflict,
		Type:   class.FullName(),
		Detail: fmt.Sprintf("%d interfaces are marked [Default]", count),
	}
}

// BaseClassOf resolves the Extends relation of a class. Classes extending
// System.Object have no base class.
func (c *Cache) BaseClassOf(t TypeDef) (TypeDef, bool, error) {
	ext := t.Extends()
	if ext.IsNull() {
		return TypeDef{}, false, nil
	}
	ns, _, ok := ext.Name()
	if ok && ns == winmd.SystemNamespace {
		return TypeDef{}, false, nil
	}
	base, err := c.Resolve(ext)
	if err != nil {
		if re, ok := err.(*ResolutionError); ok {
			return TypeDef{}, false, &ResolutionError{Kind: re.Kind, Type: t.FullName(), Ref: re.Type, Detail: "base class not found"}
		}
		return TypeDef{}, false, err
	}
	return base, true, nil
}

// BaseChain returns the base classes of t from nearest to farthest.
func (c *Cache) BaseChain(t TypeDef) ([]TypeDef, error) {
	var chain []TypeDef
	seen := map[TypeDef]bool{t: true}
	for cur := t; ; {
		base, ok, err := c.BaseClassOf(cur)
		if err != nil || !ok {
			return chain, err
		}
		if seen[base] {
			return chain, &ResolutionError{Kind: ErrDanglingRef, Type: t.FullName(), Detail: "base class cycle through " + base.FullName()}
		}
		seen[base] = true
		chain = append(chain, base)
		cur = base
	}
}

// ExclusiveTo follows [ExclusiveTo] to the class that owns an interface.
func (c *Cache) ExclusiveTo(t TypeDef) (TypeDef, bool, error) {
	attrs := FindAttributes(t.Attributes(), AttrExclusiveTo)
	switch len(attrs) {
	case 0:
		return TypeDef{}, false, nil
	case 1:
	default:
		return TypeDef{}, false, &ResolutionError{Kind: ErrAttributeConflict, Type: t.FullName(), Detail: "multiple [ExclusiveTo] attributes"}
	}
	name, err := DecodeTypeArg(attrs[0])
	if err != nil {
		return TypeDef{}, false, withType(err, t)
	}
	owner, ok := c.FindFull(name)
	if !ok {
		return TypeDef{}, false, &ResolutionError{Kind: ErrDanglingRef, Type: t.FullName(), Detail: "exclusive owner " + name + " not found"}
	}
	return owner, true, nil
}

// GuidOf decodes the [Guid] of an interface or delegate.
func GuidOf(t TypeDef) (uuid.UUID, error) {
	attrs := FindAttributes(t.Attributes(), AttrGuid)
	switch len(attrs) {
	case 0:
		return uuid.Nil, &ResolutionError{Kind: ErrMissingGuid, Type: t.FullName()}
	case 1:
	default:
		return uuid.Nil, &ResolutionError{Kind: ErrAttributeConflict, Type: t.FullName(), Detail: "multiple [Guid] attributes"}
	}
	g, err := DecodeGuid(attrs[0])
	if err != nil {
		return uuid.Nil, withType(err, t)
	}
	return g, nil
}

// IsExperimental reports whether t carries [Experimental].
func IsExperimental(t TypeDef) bool {
	return HasAttribute(t.Attributes(), AttrExperimental)
}

// DeprecationOf decodes the first [Deprecated] of t.
func DeprecationOf(attrs []Attribute) (Deprecation, bool, error) {
	a, ok := FindAttribute(attrs, AttrDeprecated)
	if !ok {
		return Deprecation{}, false, nil
	}
	d, err := DecodeDeprecated(a)
	if err != nil {
		return Deprecation{}, false, err
	}
	return d, true, nil
}

// IsAlwaysDisabled reports whether t is feature-staged as AlwaysDisabled.
func IsAlwaysDisabled(t TypeDef) (bool, error) {
	a, ok := FindAttribute(t.Attributes(), AttrFeature)
	if !ok {
		return false, nil
	}
	stage, err := DecodeFeature(a)
	if err != nil {
		return false, withType(err, t)
	}
	return stage == FeatureAlwaysDisabled, nil
}

// FastABIOwner returns the [FastAbi] class whose default interface is iface.
// The interface→class map is built once on first use.
func (c *Cache) FastABIOwner(iface TypeDef) (TypeDef, bool) {
	c.fastabiOnce.Do(c.buildFastABI)
	owner, ok := c.fastabi[iface]
	return owner, ok
}

func (c *Cache) buildFastABI() {
	c.fastabi = make(map[TypeDef]TypeDef)
	for _, ns := range c.namespaces {
		for _, class := range ns.Classes {
			if !HasAttribute(class.Attributes(), AttrFastAbi) {
				continue
			}
			ref, ok, err := c.DefaultInterfaceOf(class)
			if err != nil || !ok || ref.Index.Tag == winmd.TagTypeSpec {
				continue
			}
			iface, err := c.Resolve(ref)
			if err != nil {
				continue
			}
			c.fastabi[iface] = class
		}
	}
}

func withType(err error, t TypeDef) error {
	if re, ok := err.(*ResolutionError); ok {
		out := *re
		if out.Ref == "" && out.Type != t.FullName() {
			out.Ref = out.Type
		}
		out.Type = t.FullName()
		return &out
	}
	return fmt.Errorf("%s: %w", t.FullName(), err)
}
