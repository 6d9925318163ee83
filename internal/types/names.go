package types

import (
	"strings"

	"swiftwinrt/internal/settings"
)

const (
	abiPrefix   = "__x_ABI_C"
	plainPrefix = "__x_"
	instPrefix  = "__F"
)

// cName replaces the generic arity backtick, which is not a C identifier character.
func cName(name string) string { return strings.ReplaceAll(name, "`", "_") }

func cNamespace(ns string) string { return strings.ReplaceAll(ns, ".", "_C") }

func mangledTypeName(ns, name string) string {
	return abiPrefix + cNamespace(ns) + "_C" + cName(name)
}

func plainTypeName(ns, name string) string {
	return plainPrefix + cNamespace(ns) + "_C" + cName(name)
}

func abiTypeName(ns, name string, mode settings.PrefixMode) string {
	if mode == settings.PrefixNever {
		return plainTypeName(ns, name)
	}
	return mangledTypeName(ns, name)
}

func paramMangledName(ns, name string) string {
	return strings.ReplaceAll(ns, ".", "__C") + "__C" + cName(name)
}

// SwiftNamespace is the Swift module-level prefix of a namespace.
func SwiftNamespace(ns string) string { return strings.ReplaceAll(ns, ".", "") }

// SwiftName strips the generic arity suffix.
func SwiftName(name string) string {
	if i := strings.IndexByte(name, '`'); i >= 0 {
		return name[:i]
	}
	return name
}

// CAlias returns the unprefixed alias emitted next to a TypeDef-backed ABI
// name in optional prefix mode.
func CAlias(t Type, mode settings.PrefixMode) (string, bool) {
	if mode != settings.PrefixOptional {
		return "", false
	}
	switch t.Kind() {
	case KindClass, KindInterface, KindStruct, KindEnum, KindDelegate:
		return plainTypeName(t.Namespace(), t.Name()), true
	}
	return "", false
}

func fwdInterface(name string) string {
	var b strings.Builder
	b.WriteString("#ifndef __")
	b.WriteString(name)
	b.WriteString("_FWD_DEFINED__\n#define __")
	b.WriteString(name)
	b.WriteString("_FWD_DEFINED__\ntypedef interface ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(";\n#endif\n")
	return b.String()
}
