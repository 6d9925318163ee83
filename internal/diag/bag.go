package diag

import (
	"cmp"
	"slices"
)

type Bag struct {
	items []Diagnostic
	max   int
}

// NewBag creates a bag holding at most max diagnostics; max <= 0 means no limit.
func NewBag(max int) *Bag {
	capHint := max
	if capHint <= 0 || capHint > 64 {
		capHint = 64
	}
	return &Bag{
		items: make([]Diagnostic, 0, capHint),
		max:   max,
	}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если диагностика не добавлена (достигнут лимит).
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// HasErrors возвращает true, если есть хотя бы одна диагностика с Severity >= Error
func (b *Bag) HasErrors() bool {
	_, ok := b.FirstError()
	return ok
}

// FirstError returns the first error in insertion order.
func (b *Bag) FirstError() (Diagnostic, bool) {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return b.items[i], true
		}
	}
	return Diagnostic{}, false
}

// HasWarnings возвращает true, если есть хотя бы одна диагностика с Severity >= Warning
func (b *Bag) HasWarnings() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevWarning {
			return true
		}
	}
	return false
}

// длина
func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice диагностик.
// ВАЖНО: не модифицируйте возвращаемый срез!
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge объединяет диагностики из другого Bag, лимит расширяется.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	if b.max > 0 && len(b.items)+len(other.items) > b.max {
		b.max = len(b.items) + len(other.items)
	}
	b.items = append(b.items, other.items...)
}

// Sort orders diagnostics by module, namespace, type, member, then
// severity (desc) and code, for deterministic output.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(di, dj Diagnostic) int {
		pi, pj := di.Primary, dj.Primary
		if c := cmp.Compare(pi.Module, pj.Module); c != 0 {
			return c
		}
		if c := cmp.Compare(pi.Namespace, pj.Namespace); c != 0 {
			return c
		}
		if c := cmp.Compare(pi.Type, pj.Type); c != 0 {
			return c
		}
		if c := cmp.Compare(pi.Member, pj.Member); c != 0 {
			return c
		}
		if di.Severity != dj.Severity {
			return cmp.Compare(dj.Severity, di.Severity)
		}
		if c := cmp.Compare(di.Code, dj.Code); c != 0 {
			return c
		}
		return cmp.Compare(di.Message, dj.Message)
	})
}

// простая дедупликация (по Code+Primary+Message)
func (b *Bag) Dedup() {
	seen := make(map[dedupKey]bool, len(b.items))
	out := b.items[:0]
	for _, d := range b.items {
		key := dedupKey{code: d.Code, sev: d.Severity, loc: d.Primary, msg: d.Message}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	b.items = out
}
