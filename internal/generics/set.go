// Package generics collects the generic instantiations a module needs.
package generics

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"swiftwinrt/internal/types"
)

// State is the lifecycle of a Set.
type State uint8

const (
	// Discovering accepts Record calls.
	Discovering State = iota
	// Deduplicating merges instantiations with equal signatures.
	Deduplicating
	// Frozen rejects Record calls; entries are final.
	Frozen
)

func (s State) String() string {
	switch s {
	case Discovering:
		return "discovering"
	case Deduplicating:
		return "deduplicating"
	case Frozen:
		return "frozen"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// ErrFrozen is returned by Record once the set is frozen.
var ErrFrozen = errors.New("generic instantiation set is frozen")

// Recorder receives instantiations discovered while walking signatures.
type Recorder interface {
	RecordInstantiation(inst *types.GenericInst, namespace string) error
}

// Entry is one deduplicated instantiation.
type Entry struct {
	Inst      *types.GenericInst
	Signature string
	// Namespaces lists the namespaces that reference the instantiation, sorted.
	Namespaces []string
}

// MangledName is the stable identity writers emit.
func (e *Entry) MangledName() string { return e.Inst.MangledName() }

type record struct {
	inst       *types.GenericInst
	sig        string
	namespaces map[string]struct{}
}

// Set is the per-module instantiation map. It is safe for concurrent Record
// calls from namespace walkers.
type Set struct {
	module string

	mu      sync.Mutex
	state   State
	pending map[string]*record // by instance key
	bySig   map[string]*Entry
	entries []*Entry
}

var _ Recorder = (*Set)(nil)

// NewSet creates an empty set for module.
func NewSet(module string) *Set {
	return &Set{module: module, pending: make(map[string]*record)}
}

// Module returns the owning module name.
func (s *Set) Module() string { return s.module }

// State returns the current lifecycle state.
func (s *Set) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Record registers inst as referenced from namespace. Open instances are
// rejected; so is any call after Freeze.
func (s *Set) Record(inst *types.GenericInst, namespace string) error {
	if inst == nil {
		return errors.New("nil generic instance")
	}
	if inst.IsOpen() {
		return fmt.Errorf("cannot record open generic instance %s", inst.FullName())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Discovering {
		return fmt.Errorf("%w: module %s: %s", ErrFrozen, s.module, inst.FullName())
	}
	r, ok := s.pending[inst.Key()]
	if !ok {
		sig, err := types.Signature(inst)
		if err != nil {
			return err
		}
		r = &record{inst: inst, sig: sig, namespaces: make(map[string]struct{}, 1)}
		s.pending[inst.Key()] = r
	}
	if namespace != "" {
		r.namespaces[namespace] = struct{}{}
	}
	return nil
}

// RecordInstantiation implements Recorder.
func (s *Set) RecordInstantiation(inst *types.GenericInst, namespace string) error {
	return s.Record(inst, namespace)
}

// Freeze merges instantiations by signature, orders them by mangled name
// and freezes the set. Later calls return the same entries.
func (s *Set) Freeze() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Frozen {
		return s.entries
	}
	s.state = Deduplicating
	s.bySig = make(map[string]*Entry, len(s.pending))
	merged := make(map[string]map[string]struct{}, len(s.pending))
	for _, r := range s.pending {
		e, ok := s.bySig[r.sig]
		if !ok {
			e = &Entry{Inst: r.inst, Signature: r.sig}
			s.bySig[r.sig] = e
			merged[r.sig] = make(map[string]struct{}, len(r.namespaces))
		} else if r.inst.Key() < e.Inst.Key() {
			e.Inst = r.inst
		}
		for ns := range r.namespaces {
			merged[r.sig][ns] = struct{}{}
		}
	}
	s.entries = make([]*Entry, 0, len(s.bySig))
	for sig, e := range s.bySig {
		for ns := range merged[sig] {
			e.Namespaces = append(e.Namespaces, ns)
		}
		slices.Sort(e.Namespaces)
		s.entries = append(s.entries, e)
	}
	slices.SortFunc(s.entries, func(a, b *Entry) int {
		if c := strings.Compare(a.MangledName(), b.MangledName()); c != 0 {
			return c
		}
		return strings.Compare(a.Signature, b.Signature)
	})
	s.pending = nil
	s.state = Frozen
	return s.entries
}

// Entries returns the frozen entries; nil before Freeze.
func (s *Set) Entries() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Frozen {
		return nil
	}
	return s.entries
}

// Require looks inst up in the frozen set. An instantiation discovered only
// after freezing is a logic error in the walk and is reported as such.
func (s *Set) Require(inst *types.GenericInst) (*Entry, error) {
	sig, err := types.Signature(inst)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Frozen {
		return nil, fmt.Errorf("module %s: generic set queried while %s", s.module, s.state)
	}
	e, ok := s.bySig[sig]
	if !ok {
		return nil, fmt.Errorf("%w: module %s: %s was not discovered before freezing", ErrFrozen, s.module, inst.FullName())
	}
	return e, nil
}
