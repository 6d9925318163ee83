package writers

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"swiftwinrt/internal/types"
)

var swiftKeywords = map[string]struct{}{
	"associatedtype": {}, "class": {}, "deinit": {}, "enum": {}, "extension": {},
	"fileprivate": {}, "func": {}, "import": {}, "init": {}, "inout": {},
	"internal": {}, "let": {}, "open": {}, "operator": {}, "private": {},
	"protocol": {}, "public": {}, "rethrows": {}, "static": {}, "struct": {},
	"subscript": {}, "typealias": {}, "var": {}, "break": {}, "case": {},
	"continue": {}, "default": {}, "defer": {}, "do": {}, "else": {},
	"fallthrough": {}, "for": {}, "guard": {}, "if": {}, "in": {}, "repeat": {},
	"return": {}, "switch": {}, "where": {}, "while": {}, "as": {}, "Any": {},
	"catch": {}, "false": {}, "is": {}, "nil": {}, "super": {}, "self": {},
	"Self": {}, "throw": {}, "throws": {}, "true": {}, "try": {}, "Type": {},
	"Protocol": {},
}

// lowerFirst lowercases the leading run of capitals, keeping the last one of
// a longer run when a lowercase letter follows: "GetNames" → "getNames",
// "IPAddress" → "ipAddress", "UI" → "ui".
func lowerFirst(s string) string {
	runes := []rune(s)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	switch {
	case n == 0:
		return s
	case n == 1 || n == len(runes):
		for i := range n {
			runes[i] = unicode.ToLower(runes[i])
		}
	default:
		for i := range n - 1 {
			runes[i] = unicode.ToLower(runes[i])
		}
	}
	return string(runes)
}

// swiftIdent escapes Swift keywords with backticks.
func swiftIdent(s string) string {
	if _, ok := swiftKeywords[s]; ok {
		return "`" + s + "`"
	}
	return s
}

// memberName is the Swift name of a method, property or event.
func memberName(name string) string { return swiftIdent(lowerFirst(name)) }

// paramName is the Swift name of a parameter; unnamed parameters get a
// positional name.
func paramName(p types.Param, i int) string {
	if p.Name == "" {
		return fmt.Sprintf("_%d", i)
	}
	return swiftIdent(lowerFirst(p.Name))
}

// swiftType spells t in the wrapper layer. Reference types are optional.
func swiftType(t types.Type) string {
	switch v := t.(type) {
	case *types.Fundamental:
		if v.FundamentalKind() == types.Object {
			return "Any?"
		}
		return v.SwiftFullName()
	case *types.Interface:
		return "(any " + t.SwiftFullName() + ")?"
	case *types.GenericInst:
		if v.IsDelegate() {
			return t.SwiftFullName() + "?"
		}
		return "(any " + t.SwiftFullName() + ")?"
	case *types.Class, *types.Delegate:
		return t.SwiftFullName() + "?"
	case *types.Mapped:
		if v.MappedKind() == types.MappedIAsyncInfo {
			return "(any " + t.SwiftFullName() + ")?"
		}
	}
	return t.SwiftFullName()
}

func swiftParamType(p types.Param) string {
	if p.Array {
		return "[" + strings.TrimSuffix(swiftType(p.Type), "?") + "]"
	}
	return swiftType(p.Type)
}

// swiftDefault is the zero value of a wrapper-layer type.
func swiftDefault(t types.Type) string {
	switch v := t.(type) {
	case *types.Fundamental:
		switch v.FundamentalKind() {
		case types.Boolean:
			return "false"
		case types.String:
			return `""`
		case types.Char16:
			return `"\0"`
		case types.Object:
			return "nil"
		case types.Guid:
			return ".init()"
		}
		return "0"
	case *types.Struct, *types.Enum:
		return ".init()"
	case *types.Mapped:
		if v.MappedKind() == types.MappedIAsyncInfo {
			return "nil"
		}
		return ".init()"
	}
	return "nil"
}

// iidLiteral renders a GUID as a Swift IID initializer.
func iidLiteral(g uuid.UUID) string {
	b := g[:]
	var sb strings.Builder
	fmt.Fprintf(&sb, ".init(Data1: 0x%02X%02X%02X%02X, Data2: 0x%02X%02X, Data3: 0x%02X%02X, Data4: (",
		b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7])
	for i := 8; i < 16; i++ {
		if i > 8 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "0x%02X", b[i])
	}
	sb.WriteString("))")
	return sb.String()
}

// swiftString quotes s as a Swift string literal.
func swiftString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u{%x}`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// guardName is the include guard of a generated header.
func guardName(file string) string {
	var b strings.Builder
	b.WriteString("SWIFTWINRT_")
	for _, r := range file {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(unicode.ToUpper(r))
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// methodsOf returns the methods of an interface-like type.
func methodsOf(t types.Type) []*types.Method {
	switch v := t.(type) {
	case *types.Interface:
		return v.Methods
	case *types.GenericInst:
		return v.Methods
	}
	return nil
}

// abiMethodName is the vtable slot name; [Overload] wins over the
// metadata name.
func abiMethodName(m *types.Method) string {
	if m.Overload != "" {
		return m.Overload
	}
	return m.Name
}

// isGenericDefinition reports whether t is an open generic interface or
// delegate; those are only emitted per instantiation.
func isGenericDefinition(t types.Type) bool {
	switch v := t.(type) {
	case *types.Interface:
		return v.IsGeneric()
	case *types.Delegate:
		return v.IsGeneric()
	}
	return false
}
