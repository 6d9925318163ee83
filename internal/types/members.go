package types

import (
	"strings"

	"swiftwinrt/internal/metadata"
	"swiftwinrt/internal/winmd"
)

// Param is a resolved method parameter or return value.
type Param struct {
	Name     string
	Type     Type
	Array    bool
	Out      bool
	ByRef    bool
	Category ParamCategory
}

// Method is a resolved interface or delegate method.
type Method struct {
	Def         metadata.Method
	Name        string
	Overload    string // [Overload] name, empty when absent
	SpecialName bool
	Return      *Param
	Params      []Param
}

// Field is a resolved struct field.
type Field struct {
	Name string
	Type Type
}

// EnumValue is one enum literal.
type EnumValue struct {
	Name  string
	Value int64
}

func newParam(name string, t Type, sig winmd.TypeSig, out bool) Param {
	return Param{
		Name:     name,
		Type:     t,
		Array:    sig.SZArray,
		Out:      out,
		ByRef:    sig.ByRef,
		Category: CategoryOf(t, sig.SZArray),
	}
}

// Types returns every type the method mentions, return first.
func (m *Method) Types() []Type {
	out := make([]Type, 0, len(m.Params)+1)
	if m.Return != nil {
		out = append(out, m.Return.Type)
	}
	for _, p := range m.Params {
		out = append(out, p.Type)
	}
	return out
}

// Property groups get_/put_ accessor methods.
type Property struct {
	Name   string
	Type   Type
	Getter *Method
	Setter *Method
}

// Event groups add_/remove_ accessor methods.
type Event struct {
	Name    string
	Handler Type
	Add     *Method
	Remove  *Method
}

// PropertiesOf derives properties from accessor methods, in order of first
// appearance.
func PropertiesOf(methods []*Method) []Property {
	var out []Property
	index := make(map[string]int)
	slot := func(name string) *Property {
		if i, ok := index[name]; ok {
			return &out[i]
		}
		index[name] = len(out)
		out = append(out, Property{Name: name})
		return &out[len(out)-1]
	}
	for _, m := range methods {
		if !m.SpecialName {
			continue
		}
		switch {
		case strings.HasPrefix(m.Name, "get_") && m.Return != nil:
			p := slot(strings.TrimPrefix(m.Name, "get_"))
			p.Getter, p.Type = m, m.Return.Type
		case strings.HasPrefix(m.Name, "put_") && len(m.Params) == 1:
			p := slot(strings.TrimPrefix(m.Name, "put_"))
			p.Setter = m
			if p.Type == nil {
				p.Type = m.Params[0].Type
			}
		}
	}
	return out
}

// EventsOf derives events from accessor methods.
func EventsOf(methods []*Method) []Event {
	var out []Event
	index := make(map[string]int)
	for _, m := range methods {
		if !m.SpecialName {
			continue
		}
		var name string
		add := strings.HasPrefix(m.Name, "add_")
		switch {
		case add && len(m.Params) == 1:
			name = strings.TrimPrefix(m.Name, "add_")
		case strings.HasPrefix(m.Name, "remove_"):
			name = strings.TrimPrefix(m.Name, "remove_")
		default:
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, Event{Name: name})
		}
		if add {
			out[i].Add = m
			out[i].Handler = m.Params[0].Type
		} else {
			out[i].Remove = m
		}
	}
	return out
}

// IsAccessor reports whether m is a property or event accessor.
func (m *Method) IsAccessor() bool {
	if !m.SpecialName {
		return false
	}
	for _, p := range [...]string{"get_", "put_", "add_", "remove_"} {
		if strings.HasPrefix(m.Name, p) {
			return true
		}
	}
	return false
}
