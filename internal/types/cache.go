package types

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"swiftwinrt/internal/metadata"
	"swiftwinrt/internal/settings"
	"swiftwinrt/internal/winmd"
)

// Cache resolves metadata into Type values. Every TypeDef and every distinct
// generic instantiation maps to exactly one value. Resolution is serialised
// by one mutex; values are complete and immutable once a public call returns.
type Cache struct {
	md      *metadata.Cache
	prefix  settings.PrefixMode
	fastABI bool
	log     *zap.Logger

	mu    sync.Mutex
	defs  map[metadata.TypeDef]Type
	insts map[string]*GenericInst
	errs  map[metadata.TypeDef]error

	blit *blitEngine
}

// NewCache builds an empty type cache over md.
func NewCache(md *metadata.Cache, s *settings.Settings, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Cache{
		md:    md,
		log:   log,
		defs:  make(map[metadata.TypeDef]Type, 256),
		insts: make(map[string]*GenericInst, 64),
		errs:  make(map[metadata.TypeDef]error),
		blit:  newBlitEngine(),
	}
	if s != nil {
		c.prefix = s.Prefix
		c.fastABI = s.FastABI
	}
	return c
}

// Metadata returns the underlying metadata index.
func (c *Cache) Metadata() *metadata.Cache { return c.md }

// Prefix returns the namespace-prefix mode names are rendered with.
func (c *Cache) Prefix() settings.PrefixMode { return c.prefix }

// TypeOf resolves a TypeDef.
func (c *Cache) TypeOf(def metadata.TypeDef) (Type, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typeOf(def)
}

// Find resolves a type by namespace and name. Mapped types are consulted
// before metadata.
func (c *Cache) Find(ns, name string) (Type, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.builtin(ns, name); ok {
		return t, nil
	}
	def, ok := c.md.Find(ns, name)
	if !ok {
		return nil, &metadata.ResolutionError{Kind: metadata.ErrDanglingRef, Type: metadata.JoinName(ns, name), Detail: "no such type"}
	}
	return c.typeOf(def)
}

// Instantiate binds a generic interface or delegate to args.
func (c *Cache) Instantiate(generic Type, args []Type) (*GenericInst, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.instantiate(generic, args)
}

// FastABIOwner returns the [FastAbi] class whose default interface is iface.
// It always reports false unless fast ABI is enabled in the settings.
func (c *Cache) FastABIOwner(iface *Interface) (*Class, bool) {
	if !c.fastABI || iface == nil {
		return nil, false
	}
	owner, ok := c.md.FastABIOwner(iface.def)
	if !ok {
		return nil, false
	}
	t, err := c.TypeOf(owner)
	if err != nil {
		return nil, false
	}
	cls, ok := t.(*Class)
	return cls, ok
}

type scope struct {
	params []*GenericParam
	args   []Type
}

func (s scope) lookup(i uint32) (Type, bool) {
	if s.args != nil {
		if int(i) < len(s.args) {
			return s.args[i], true
		}
		return nil, false
	}
	if int(i) < len(s.params) {
		return s.params[i], true
	}
	return &GenericParam{Index: i, Param: "T" + strconv.FormatUint(uint64(i), 10)}, true
}

func (c *Cache) builtin(ns, name string) (Type, bool) {
	if m, ok := LookupMapped(ns, name); ok {
		return m, true
	}
	if ns == winmd.SystemNamespace && name == winmd.GuidName {
		return FundamentalOf(Guid), true
	}
	return nil, false
}

func (c *Cache) typeOf(def metadata.TypeDef) (Type, error) {
	if t, ok := c.defs[def]; ok {
		return t, nil
	}
	if err, ok := c.errs[def]; ok {
		return nil, err
	}
	if t, ok := c.builtin(def.Namespace(), def.Name()); ok {
		return t, nil
	}
	t, err := c.build(def)
	if err != nil {
		delete(c.defs, def)
		c.errs[def] = err
		c.log.Debug("type resolution failed", zap.String("type", def.FullName()), zap.Error(err))
		return nil, err
	}
	return t, nil
}

// build registers the variant before filling its members so that cycles
// through signatures terminate.
func (c *Cache) build(def metadata.TypeDef) (Type, error) {
	base := typeDefBase{def: def, prefix: c.prefix}
	switch c.md.Category(def) {
	case metadata.CategoryStruct:
		s := &Struct{typeDefBase: base}
		c.defs[def] = s
		return s, c.fillStruct(s)
	case metadata.CategoryEnum:
		e := &Enum{typeDefBase: base}
		c.defs[def] = e
		return e, c.fillEnum(e)
	case metadata.CategoryInterface:
		guid, err := metadata.GuidOf(def)
		if err != nil {
			return nil, err
		}
		i := &Interface{typeDefBase: base, Guid: guid, GenericParams: genericParams(def)}
		c.defs[def] = i
		return i, c.fillInterface(i)
	case metadata.CategoryDelegate:
		guid, err := metadata.GuidOf(def)
		if err != nil {
			return nil, err
		}
		d := &Delegate{typeDefBase: base, Guid: guid, GenericParams: genericParams(def)}
		c.defs[def] = d
		return d, c.fillDelegate(d)
	}
	cls := &Class{typeDefBase: base, Sealed: def.Flags().Has(winmd.TypeSealed)}
	c.defs[def] = cls
	return cls, c.fillClass(cls)
}

func genericParams(def metadata.TypeDef) []*GenericParam {
	names := def.GenericParams()
	if len(names) == 0 {
		return nil
	}
	out := make([]*GenericParam, len(names))
	for i, name := range names {
		out[i] = &GenericParam{Index: uint32(i), Param: name}
	}
	return out
}

func (c *Cache) fillStruct(s *Struct) error {
	for _, f := range s.def.Fields() {
		if f.IsStatic() {
			continue
		}
		t, err := c.resolveSig(f.Database(), f.Signature(), scope{})
		if err != nil {
			return memberErr(s.def, f.Name(), err)
		}
		s.Fields = append(s.Fields, Field{Name: f.Name(), Type: t})
	}
	return nil
}

func (c *Cache) fillEnum(e *Enum) error {
	e.Flags = metadata.IsFlagsEnum(e.def)
	for _, f := range e.def.Fields() {
		if !f.IsLiteral() {
			if f.Name() == "value__" && f.Signature().Elem == winmd.ElemU4 {
				e.Flags = true
			}
			continue
		}
		k := f.Constant()
		if k == nil {
			return &metadata.ResolutionError{Kind: metadata.ErrMalformedAttribute, Type: e.FullName(), Member: f.Name(), Detail: "enum literal without constant"}
		}
		e.Values = append(e.Values, EnumValue{Name: f.Name(), Value: k.Value})
	}
	return nil
}

func (c *Cache) fillInterface(i *Interface) error {
	sc := scope{params: i.GenericParams}
	for _, m := range i.def.Methods() {
		if m.IsConstructor() {
			continue
		}
		method, err := c.method(i.def, m, sc)
		if err != nil {
			return err
		}
		i.Methods = append(i.Methods, method)
	}
	for _, impl := range i.def.InterfaceImpls() {
		t, err := c.resolveRef(impl.Interface(), sc)
		if err != nil {
			return memberErr(i.def, "", err)
		}
		i.Requires = append(i.Requires, t)
	}
	owner, ok, err := c.md.ExclusiveTo(i.def)
	if err != nil {
		return err
	}
	if ok {
		i.ExclusiveTo = owner.FullName()
	}
	return nil
}

func (c *Cache) fillDelegate(d *Delegate) error {
	sc := scope{params: d.GenericParams}
	for _, m := range d.def.Methods() {
		if m.Name() != "Invoke" {
			continue
		}
		method, err := c.method(d.def, m, sc)
		if err != nil {
			return err
		}
		d.Invoke = method
		return nil
	}
	return &metadata.ResolutionError{Kind: metadata.ErrDanglingRef, Type: d.FullName(), Detail: "delegate without Invoke"}
}

func (c *Cache) fillClass(cls *Class) error {
	def := cls.def
	ref, ok, err := c.md.DefaultInterfaceOf(def)
	if err != nil {
		return err
	}
	if ok {
		if cls.Default, err = c.resolveRef(ref, scope{}); err != nil {
			return memberErr(def, "", err)
		}
	}
	baseDef, ok, err := c.md.BaseClassOf(def)
	if err != nil {
		return err
	}
	if ok {
		t, err := c.typeOf(baseDef)
		if err != nil {
			return memberErr(def, "", err)
		}
		base, isClass := t.(*Class)
		if !isClass {
			return &metadata.ResolutionError{Kind: metadata.ErrDanglingRef, Type: cls.FullName(), Detail: "base " + t.FullName() + " is not a class"}
		}
		cls.Base = base
	}
	for _, impl := range def.InterfaceImpls() {
		t, err := c.resolveRef(impl.Interface(), scope{})
		if err != nil {
			return memberErr(def, "", err)
		}
		cls.Interfaces = append(cls.Interfaces, t)
	}
	attrs := def.Attributes()
	for _, a := range metadata.FindAttributes(attrs, metadata.AttrActivatable) {
		f, err := metadata.DecodeActivatable(a)
		if err != nil {
			return memberErr(def, "", err)
		}
		if f.Interface == "" {
			cls.Activatable = true
			continue
		}
		t, err := c.findFull(def, f.Interface)
		if err != nil {
			return err
		}
		cls.Factories = append(cls.Factories, t)
	}
	for _, a := range metadata.FindAttributes(attrs, metadata.AttrStatic) {
		f, err := metadata.DecodeStatic(a)
		if err != nil {
			return memberErr(def, "", err)
		}
		t, err := c.findFull(def, f.Interface)
		if err != nil {
			return err
		}
		cls.Statics = append(cls.Statics, t)
	}
	for _, a := range metadata.FindAttributes(attrs, metadata.AttrComposable) {
		f, err := metadata.DecodeComposable(a)
		if err != nil {
			return memberErr(def, "", err)
		}
		t, err := c.findFull(def, f.Interface)
		if err != nil {
			return err
		}
		cls.Composable = append(cls.Composable, t)
	}
	return nil
}

func (c *Cache) findFull(owner metadata.TypeDef, full string) (Type, error) {
	ns, name := metadata.SplitName(full)
	if t, ok := c.builtin(ns, name); ok {
		return t, nil
	}
	def, ok := c.md.FindFull(full)
	if !ok {
		return nil, &metadata.ResolutionError{Kind: metadata.ErrDanglingRef, Type: owner.FullName(), Detail: full + " not found"}
	}
	t, err := c.typeOf(def)
	if err != nil {
		return nil, memberErr(owner, "", err)
	}
	return t, nil
}

func (c *Cache) method(owner metadata.TypeDef, m metadata.Method, sc scope) (*Method, error) {
	sig := m.Signature()
	rows := m.Params()
	out := &Method{Def: m, Name: m.Name(), SpecialName: m.IsSpecialName()}
	if a, ok := metadata.FindAttribute(m.Attributes(), metadata.AttrOverload); ok {
		name, err := metadata.DecodeOverload(a)
		if err != nil {
			return nil, memberErr(owner, m.Name(), err)
		}
		out.Overload = name
	}
	if sig.Return != nil {
		t, err := c.resolveSig(m.Database(), *sig.Return, sc)
		if err != nil {
			return nil, memberErr(owner, m.Name(), err)
		}
		ret := newParam("result", t, *sig.Return, true)
		out.Return = &ret
	}
	for i, ps := range sig.Params {
		name := "p" + strconv.Itoa(i)
		paramOut := ps.ByRef
		if i < len(rows) {
			name = rows[i].Name
			paramOut = paramOut || rows[i].Flags.Has(winmd.ParamOut)
		}
		t, err := c.resolveSig(m.Database(), ps, sc)
		if err != nil {
			return nil, memberErr(owner, m.Name(), err)
		}
		out.Params = append(out.Params, newParam(name, t, ps, paramOut))
	}
	return out, nil
}

func (c *Cache) resolveRef(ref metadata.Ref, sc scope) (Type, error) {
	if ref.IsNull() {
		return nil, errors.New("null type reference")
	}
	if spec, ok := ref.Spec(); ok {
		return c.resolveSig(ref.DB, spec, sc)
	}
	if ns, name, ok := ref.Name(); ok {
		if t, ok := c.builtin(ns, name); ok {
			return t, nil
		}
	}
	def, err := c.md.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return c.typeOf(def)
}

func (c *Cache) resolveSig(db *winmd.Database, sig winmd.TypeSig, sc scope) (Type, error) {
	switch sig.Elem {
	case winmd.ElemVar:
		t, ok := sc.lookup(sig.GenericParam)
		if !ok {
			return nil, fmt.Errorf("generic parameter !%d out of scope", sig.GenericParam)
		}
		return t, nil
	case winmd.ElemValueType, winmd.ElemClass:
		return c.resolveRef(metadata.Ref{DB: db, Index: sig.Type}, sc)
	case winmd.ElemGenericInst:
		generic, err := c.resolveRef(metadata.Ref{DB: db, Index: sig.Type}, sc)
		if err != nil {
			return nil, err
		}
		args := make([]Type, len(sig.GenericArgs))
		for i, a := range sig.GenericArgs {
			if args[i], err = c.resolveSig(db, a, sc); err != nil {
				return nil, err
			}
		}
		return c.instantiate(generic, args)
	}
	if f, ok := FundamentalForElement(sig.Elem); ok {
		return f, nil
	}
	return nil, fmt.Errorf("unsupported signature element %s", sig.Elem)
}

func (c *Cache) instantiate(generic Type, args []Type) (*GenericInst, error) {
	var (
		params []*GenericParam
		def    metadata.TypeDef
	)
	switch g := generic.(type) {
	case *Interface:
		params, def = g.GenericParams, g.def
	case *Delegate:
		params, def = g.GenericParams, g.def
	default:
		return nil, &InvalidTypeError{Type: generic.FullName(), Op: "instantiate", Reason: generic.Kind().String() + " is not generic"}
	}
	if len(params) == 0 || len(params) != len(args) {
		return nil, &InvalidTypeError{
			Type:   generic.FullName(),
			Op:     "instantiate",
			Reason: fmt.Sprintf("expected %d type arguments, got %d", len(params), len(args)),
		}
	}
	key := instKey(generic, args)
	if inst, ok := c.insts[key]; ok {
		return inst, nil
	}
	inst := &GenericInst{Generic: generic, Args: args, key: key}
	c.insts[key] = inst
	if inst.IsOpen() {
		return inst, nil
	}
	sc := scope{args: args}
	for _, m := range def.Methods() {
		if m.IsConstructor() || generic.Kind() == KindDelegate && m.Name() != "Invoke" {
			continue
		}
		method, err := c.method(def, m, sc)
		if err != nil {
			delete(c.insts, key)
			return nil, err
		}
		inst.Methods = append(inst.Methods, method)
	}
	for _, impl := range def.InterfaceImpls() {
		t, err := c.resolveRef(impl.Interface(), sc)
		if err != nil {
			delete(c.insts, key)
			return nil, memberErr(def, "", err)
		}
		inst.Requires = append(inst.Requires, t)
	}
	return inst, nil
}

// memberErr re-scopes an error to the type (and member) being resolved. A
// resolution error from another type keeps its own detail and names that
// type as Ref, so the message states each location once.
func memberErr(owner metadata.TypeDef, member string, err error) error {
	var re *metadata.ResolutionError
	if !errors.As(err, &re) {
		return &metadata.ResolutionError{Kind: metadata.ErrDanglingRef, Type: owner.FullName(), Member: member, Detail: err.Error()}
	}
	if re.Type == owner.FullName() && re.Member != "" {
		return err
	}
	ref := re.Ref
	if ref == "" && re.Type != owner.FullName() {
		ref = re.Type
	}
	return &metadata.ResolutionError{Kind: re.Kind, Type: owner.FullName(), Member: member, Ref: ref, Detail: re.Detail}
}
