// Package filter decides which metadata types take part in a generation pass.
package filter

import (
	"slices"
	"strings"
)

// Filter is a set of include and exclude name prefixes. The longest matching
// prefix decides; on a tie between an include and an exclude the exclude wins.
// A name matching no rule is included only when there are no include rules.
//
// A Filter is immutable and safe for concurrent use.
type Filter struct {
	include []string
	exclude []string
}

// New builds a filter. Empty patterns are ignored; a trailing ".*" or "*" is
// stripped so "Windows.Foundation.*" and "Windows.Foundation" mean the same.
func New(include, exclude []string) *Filter {
	return &Filter{include: normalize(include), exclude: normalize(exclude)}
}

func normalize(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		p = strings.TrimSuffix(p, "*")
		p = strings.TrimSuffix(p, ".")
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Includes reports whether the dotted full name passes the filter.
func (f *Filter) Includes(fullName string) bool {
	if f == nil {
		return true
	}
	in := longest(f.include, fullName)
	ex := longest(f.exclude, fullName)
	if in < 0 && ex < 0 {
		return len(f.include) == 0
	}
	return in > ex
}

// IncludesType reports whether namespace.name passes the filter.
func (f *Filter) IncludesType(namespace, name string) bool {
	if namespace == "" {
		return f.Includes(name)
	}
	return f.Includes(namespace + "." + name)
}

// MayInclude reports whether some type of the namespace could pass: either
// the namespace itself passes or an include rule reaches below it.
func (f *Filter) MayInclude(namespace string) bool {
	if f == nil || f.Includes(namespace) {
		return true
	}
	for _, p := range f.include {
		if strings.HasPrefix(p, namespace+".") && !f.excludedWhole(namespace) {
			return true
		}
	}
	return false
}

func (f *Filter) excludedWhole(namespace string) bool {
	ex := longest(f.exclude, namespace)
	return ex >= 0 && ex >= longest(f.include, namespace)
}

// IsEmpty reports whether the filter has no rules and passes everything.
func (f *Filter) IsEmpty() bool { return f == nil || len(f.include)+len(f.exclude) == 0 }

// Include returns the normalised include prefixes.
func (f *Filter) Include() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.include)
}

// Exclude returns the normalised exclude prefixes.
func (f *Filter) Exclude() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.exclude)
}

// String renders the rules in a stable form, used in fingerprints.
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "*"
	}
	var b strings.Builder
	for _, p := range f.include {
		b.WriteString("+")
		b.WriteString(p)
		b.WriteString(";")
	}
	for _, p := range f.exclude {
		b.WriteString("-")
		b.WriteString(p)
		b.WriteString(";")
	}
	return b.String()
}

// longest returns the length of the longest prefix in rules matching name,
// or -1.
func longest(rules []string, name string) int {
	best := -1
	for _, p := range rules {
		if len(p) > best && strings.HasPrefix(name, p) {
			best = len(p)
		}
	}
	return best
}
