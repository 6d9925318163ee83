package metadata

import "fmt"

// ContractHistory is the ordered contract membership of a type: previous
// ranges oldest to newest, then the current contract.
type ContractHistory struct {
	Previous []ContractRange
	Current  ContractVersion
}

// ContractHistoryOf builds the history of t from [ContractVersion] and
// [PreviousContractVersion]. The boolean is false when t carries no
// [ContractVersion].
func ContractHistoryOf(t TypeDef) (ContractHistory, bool, error) {
	attrs := t.Attributes()
	cur, ok := FindAttribute(attrs, AttrContractVersion)
	if !ok {
		return ContractHistory{}, false, nil
	}
	current, err := DecodeContractVersion(cur)
	if err != nil {
		return ContractHistory{}, false, withType(err, t)
	}
	var ranges []ContractRange
	for _, a := range FindAttributes(attrs, AttrPreviousContractVersion) {
		r, err := DecodePreviousContract(a)
		if err != nil {
			return ContractHistory{}, false, withType(err, t)
		}
		ranges = append(ranges, r)
	}
	h := ContractHistory{Previous: chainRanges(ranges), Current: current}
	if err := h.Validate(); err != nil {
		return ContractHistory{}, false, &ResolutionError{Kind: ErrContractHistory, Type: t.FullName(), Detail: err.Error()}
	}
	return h, true, nil
}

// chainRanges orders ranges by following To links from the range no other
// range points at. Ranges without usable links keep declaration order.
func chainRanges(ranges []ContractRange) []ContractRange {
	if len(ranges) < 2 {
		return ranges
	}
	pointed := make(map[string]bool, len(ranges))
	byName := make(map[string]int, len(ranges))
	for i, r := range ranges {
		if r.To != "" {
			pointed[r.To] = true
		}
		if _, dup := byName[r.Name]; dup {
			return ranges
		}
		byName[r.Name] = i
	}
	start := -1
	for i, r := range ranges {
		if !pointed[r.Name] {
			if start >= 0 {
				return ranges
			}
			start = i
		}
	}
	if start < 0 {
		return ranges
	}
	out := make([]ContractRange, 0, len(ranges))
	used := make([]bool, len(ranges))
	for i := start; i >= 0 && !used[i]; {
		used[i] = true
		out = append(out, ranges[i])
		next, ok := byName[ranges[i].To]
		if !ok {
			break
		}
		i = next
	}
	if len(out) != len(ranges) {
		return ranges
	}
	return out
}

// Validate checks that every range is non-empty and that ranges of the same
// contract do not overlap and increase.
func (h ContractHistory) Validate() error {
	last := make(map[string]uint32, len(h.Previous))
	for i, r := range h.Previous {
		if r.Low >= r.High {
			return fmt.Errorf("range %d of %s is empty [%d, %d)", i, r.Name, r.Low, r.High)
		}
		if end, seen := last[r.Name]; seen && r.Low < end {
			return fmt.Errorf("range %d of %s [%d, %d) overlaps an earlier range", i, r.Name, r.Low, r.High)
		}
		last[r.Name] = r.High
	}
	if end, seen := last[h.Current.Name]; seen && h.Current.Version < end {
		return fmt.Errorf("current contract %s version %d precedes its previous range", h.Current.Name, h.Current.Version)
	}
	return nil
}

// Len is the number of indexable entries: previous ranges plus the current contract.
func (h ContractHistory) Len() int { return len(h.Previous) + 1 }

// ContractIndex maps (contract, version) to the index of the entry that
// contains it: the first previous range with Low <= version < High, else the
// current contract when version >= its version.
func (h ContractHistory) ContractIndex(contract string, version uint32) (int, bool) {
	for i, r := range h.Previous {
		if r.Name == contract && r.Low <= version && version < r.High {
			return i, true
		}
	}
	if h.Current.Name == contract && version >= h.Current.Version {
		return len(h.Previous), true
	}
	return 0, false
}

// ContractFromIndex returns the contract and the floor version of entry i.
func (h ContractHistory) ContractFromIndex(i int) (ContractVersion, bool) {
	switch {
	case i < 0 || i > len(h.Previous):
		return ContractVersion{}, false
	case i == len(h.Previous):
		return h.Current, true
	}
	r := h.Previous[i]
	return ContractVersion{Name: r.Name, Version: r.Low}, true
}

// FirstIntroduced returns the oldest contract version the type belongs to.
func (h ContractHistory) FirstIntroduced() ContractVersion {
	if len(h.Previous) > 0 {
		return ContractVersion{Name: h.Previous[0].Name, Version: h.Previous[0].Low}
	}
	return h.Current
}
