package metadata

import (
	"fmt"

	"github.com/google/uuid"

	"swiftwinrt/internal/winmd"
)

// AttributeKind enumerates the attributes the generator understands.
type AttributeKind uint8

const (
	AttrUnknown AttributeKind = iota
	AttrDefault
	AttrExclusiveTo
	AttrGuid
	AttrVersion
	AttrContractVersion
	AttrPreviousContractVersion
	AttrDeprecated
	AttrExperimental
	AttrActivatable
	AttrStatic
	AttrComposable
	AttrOverload
	AttrDefaultOverload
	AttrFastAbi
	AttrFeature
	AttrApiContract
	AttrNoException
	AttrOverridable
	AttrProtected
	AttrFlags
)

var attributeKinds = map[string]AttributeKind{
	"DefaultAttribute":                 AttrDefault,
	"ExclusiveToAttribute":             AttrExclusiveTo,
	"GuidAttribute":                    AttrGuid,
	"VersionAttribute":                 AttrVersion,
	"ContractVersionAttribute":         AttrContractVersion,
	"PreviousContractVersionAttribute": AttrPreviousContractVersion,
	"DeprecatedAttribute":              AttrDeprecated,
	"ExperimentalAttribute":            AttrExperimental,
	"ActivatableAttribute":             AttrActivatable,
	"StaticAttribute":                  AttrStatic,
	"ComposableAttribute":              AttrComposable,
	"OverloadAttribute":                AttrOverload,
	"DefaultOverloadAttribute":         AttrDefaultOverload,
	"FastAbiAttribute":                 AttrFastAbi,
	"FeatureAttribute":                 AttrFeature,
	"ApiContractAttribute":             AttrApiContract,
	"NoExceptionAttribute":             AttrNoException,
	"OverridableAttribute":             AttrOverridable,
	"ProtectedAttribute":               AttrProtected,
}

// Attribute is a handle to a CustomAttribute row.
type Attribute struct {
	db  *winmd.Database
	row uint32
}

func attributesOf(db *winmd.Database, parent winmd.HasCustomAttribute) []Attribute {
	lo, hi := db.AttributesOf(parent)
	if lo == hi {
		return nil
	}
	out := make([]Attribute, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, Attribute{db: db, row: rowOf(i)})
	}
	return out
}

// Name returns the attribute class namespace and name.
func (a Attribute) Name() (string, string) {
	ns, name, _ := a.db.TypeRefName(a.db.CustomAttributes[a.row].Type)
	return ns, name
}

// Args returns the raw constructor arguments.
func (a Attribute) Args() []winmd.AttrArg { return a.db.CustomAttributes[a.row].Args }

// Kind classifies the attribute; anything outside the known set is AttrUnknown.
func (a Attribute) Kind() AttributeKind {
	ns, name := a.Name()
	switch ns {
	case winmd.MetadataNamespace:
		return attributeKinds[name]
	case winmd.SystemNamespace:
		if name == winmd.FlagsAttributeName {
			return AttrFlags
		}
	}
	return AttrUnknown
}

// FindAttribute returns the first attribute of the given kind.
func FindAttribute(attrs []Attribute, kind AttributeKind) (Attribute, bool) {
	for _, a := range attrs {
		if a.Kind() == kind {
			return a, true
		}
	}
	return Attribute{}, false
}

// FindAttributes returns every attribute of the given kind.
func FindAttributes(attrs []Attribute, kind AttributeKind) []Attribute {
	var out []Attribute
	for _, a := range attrs {
		if a.Kind() == kind {
			out = append(out, a)
		}
	}
	return out
}

// HasAttribute reports whether an attribute of the given kind is present.
func HasAttribute(attrs []Attribute, kind AttributeKind) bool {
	_, ok := FindAttribute(attrs, kind)
	return ok
}

func malformed(a Attribute, format string, args ...any) error {
	ns, name := a.Name()
	return &ResolutionError{
		Kind:   ErrMalformedAttribute,
		Type:   JoinName(ns, name),
		Detail: fmt.Sprintf(format, args...),
	}
}

func argUint(a Attribute, arg winmd.AttrArg, bits int) (uint64, error) {
	var v uint64
	switch arg.Kind {
	case winmd.ArgUint:
		v = arg.Uint
	case winmd.ArgInt:
		if arg.Int < 0 {
			return 0, malformed(a, "negative value %d", arg.Int)
		}
		v = uint64(arg.Int)
	default:
		return 0, malformed(a, "expected integer argument, got %s", arg.Kind)
	}
	if bits < 64 && v >= 1<<bits {
		return 0, malformed(a, "value %d does not fit in %d bits", v, bits)
	}
	return v, nil
}

// DecodeGuid decodes GuidAttribute(uint32, uint16, uint16, uint8 x8).
func DecodeGuid(a Attribute) (uuid.UUID, error) {
	args := a.Args()
	if len(args) != 11 {
		return uuid.Nil, malformed(a, "expected 11 arguments, got %d", len(args))
	}
	var g uuid.UUID
	d1, err := argUint(a, args[0], 32)
	if err != nil {
		return uuid.Nil, err
	}
	d2, err := argUint(a, args[1], 16)
	if err != nil {
		return uuid.Nil, err
	}
	d3, err := argUint(a, args[2], 16)
	if err != nil {
		return uuid.Nil, err
	}
	g[0], g[1], g[2], g[3] = byte(d1>>24), byte(d1>>16), byte(d1>>8), byte(d1)
	g[4], g[5] = byte(d2>>8), byte(d2)
	g[6], g[7] = byte(d3>>8), byte(d3)
	for i := 0; i < 8; i++ {
		b, err := argUint(a, args[3+i], 8)
		if err != nil {
			return uuid.Nil, err
		}
		g[8+i] = byte(b)
	}
	return g, nil
}

// DecodeTypeArg decodes an attribute whose first argument is a System.Type.
func DecodeTypeArg(a Attribute) (string, error) {
	args := a.Args()
	if len(args) == 0 || args[0].Kind != winmd.ArgType || args[0].Str == "" {
		return "", malformed(a, "expected a type argument")
	}
	return args[0].Str, nil
}

// ContractVersion is a (contract, version) pair. An empty Name denotes the
// platform version of pre-contract metadata.
type ContractVersion struct {
	Name    string
	Version uint32
}

// DecodeContractVersion accepts (Type, uint32), (string, uint32) and (uint32).
func DecodeContractVersion(a Attribute) (ContractVersion, error) {
	args := a.Args()
	switch len(args) {
	case 1:
		v, err := argUint(a, args[0], 32)
		return ContractVersion{Version: uint32(v)}, err
	case 2:
		if args[0].Kind != winmd.ArgType && args[0].Kind != winmd.ArgString {
			return ContractVersion{}, malformed(a, "expected contract name, got %s", args[0].Kind)
		}
		v, err := argUint(a, args[1], 32)
		return ContractVersion{Name: args[0].Str, Version: uint32(v)}, err
	}
	return ContractVersion{}, malformed(a, "expected 1 or 2 arguments, got %d", len(args))
}

// ContractRange is one previous-contract entry: versions [Low, High) of Name,
// after which the type moved to To.
type ContractRange struct {
	Name string
	Low  uint32
	High uint32
	To   string
}

// DecodePreviousContract decodes PreviousContractVersionAttribute(string, uint32, uint32[, string]).
func DecodePreviousContract(a Attribute) (ContractRange, error) {
	args := a.Args()
	if len(args) != 3 && len(args) != 4 {
		return ContractRange{}, malformed(a, "expected 3 or 4 arguments, got %d", len(args))
	}
	if args[0].Kind != winmd.ArgString && args[0].Kind != winmd.ArgType {
		return ContractRange{}, malformed(a, "expected contract name")
	}
	low, err := argUint(a, args[1], 32)
	if err != nil {
		return ContractRange{}, err
	}
	high, err := argUint(a, args[2], 32)
	if err != nil {
		return ContractRange{}, err
	}
	r := ContractRange{Name: args[0].Str, Low: uint32(low), High: uint32(high)}
	if len(args) == 4 {
		r.To = args[3].Str
	}
	return r, nil
}

// DeprecationKind mirrors Windows.Foundation.Metadata.DeprecationType.
type DeprecationKind uint8

const (
	DeprecationDeprecate DeprecationKind = iota
	DeprecationRemove
)

// Deprecation is a decoded DeprecatedAttribute.
type Deprecation struct {
	Message  string
	Kind     DeprecationKind
	Version  uint32
	Contract string
}

// DecodeDeprecated decodes DeprecatedAttribute(string, DeprecationType, uint32[, contract]).
func DecodeDeprecated(a Attribute) (Deprecation, error) {
	args := a.Args()
	if len(args) < 3 || len(args) > 4 {
		return Deprecation{}, malformed(a, "expected 3 or 4 arguments, got %d", len(args))
	}
	if args[0].Kind != winmd.ArgString {
		return Deprecation{}, malformed(a, "expected message string")
	}
	var kind int64
	switch args[1].Kind {
	case winmd.ArgEnum, winmd.ArgInt:
		kind = args[1].Int
	case winmd.ArgUint:
		kind = int64(args[1].Uint)
	default:
		return Deprecation{}, malformed(a, "expected deprecation type")
	}
	if kind != int64(DeprecationDeprecate) && kind != int64(DeprecationRemove) {
		return Deprecation{}, malformed(a, "unknown deprecation type %d", kind)
	}
	v, err := argUint(a, args[2], 32)
	if err != nil {
		return Deprecation{}, err
	}
	d := Deprecation{Message: args[0].Str, Kind: DeprecationKind(kind), Version: uint32(v)}
	if len(args) == 4 {
		d.Contract = args[3].Str
	}
	return d, nil
}

// Factory is a decoded ActivatableAttribute / StaticAttribute / ComposableAttribute.
// Interface is empty for default activation.
type Factory struct {
	Interface string
	Version   ContractVersion
	Public    bool // composable factories only
}

// DecodeActivatable accepts (uint32), (uint32, string), (Type, uint32) and (Type, uint32, string).
func DecodeActivatable(a Attribute) (Factory, error) {
	args := a.Args()
	if len(args) == 0 {
		return Factory{}, malformed(a, "missing arguments")
	}
	var f Factory
	rest := args
	if args[0].Kind == winmd.ArgType {
		f.Interface = args[0].Str
		rest = args[1:]
	}
	if len(rest) == 0 || len(rest) > 2 {
		return Factory{}, malformed(a, "expected version and optional contract")
	}
	v, err := argUint(a, rest[0], 32)
	if err != nil {
		return Factory{}, err
	}
	f.Version.Version = uint32(v)
	if len(rest) == 2 {
		f.Version.Name = rest[1].Str
	}
	return f, nil
}

// DecodeStatic decodes StaticAttribute(Type, uint32[, string]).
func DecodeStatic(a Attribute) (Factory, error) {
	f, err := DecodeActivatable(a)
	if err != nil {
		return Factory{}, err
	}
	if f.Interface == "" {
		return Factory{}, malformed(a, "static attribute without interface")
	}
	return f, nil
}

// DecodeComposable decodes ComposableAttribute(Type, CompositionType, uint32[, string]).
func DecodeComposable(a Attribute) (Factory, error) {
	args := a.Args()
	if len(args) < 3 || args[0].Kind != winmd.ArgType {
		return Factory{}, malformed(a, "expected factory type, composition type and version")
	}
	f := Factory{Interface: args[0].Str}
	// CompositionType: Protected = 1, Public = 2
	f.Public = args[1].Int == 2 || args[1].Uint == 2
	v, err := argUint(a, args[2], 32)
	if err != nil {
		return Factory{}, err
	}
	f.Version.Version = uint32(v)
	if len(args) == 4 {
		f.Version.Name = args[3].Str
	}
	return f, nil
}

// DecodeOverload decodes OverloadAttribute(string).
func DecodeOverload(a Attribute) (string, error) {
	args := a.Args()
	if len(args) != 1 || args[0].Kind != winmd.ArgString || args[0].Str == "" {
		return "", malformed(a, "expected overload name")
	}
	return args[0].Str, nil
}

// FeatureStage mirrors Windows.Foundation.Metadata.FeatureStage.
type FeatureStage int32

const (
	FeatureAlwaysDisabled    FeatureStage = 0
	FeatureDisabledByDefault FeatureStage = 1
	FeatureEnabledByDefault  FeatureStage = 2
	FeatureAlwaysEnabled     FeatureStage = 3
)

// DecodeFeature decodes FeatureAttribute(FeatureStage[, bool]).
func DecodeFeature(a Attribute) (FeatureStage, error) {
	args := a.Args()
	if len(args) == 0 {
		return 0, malformed(a, "missing feature stage")
	}
	switch args[0].Kind {
	case winmd.ArgEnum, winmd.ArgInt:
		return FeatureStage(args[0].Int), nil
	case winmd.ArgUint:
		return FeatureStage(args[0].Uint), nil
	}
	return 0, malformed(a, "expected feature stage")
}
