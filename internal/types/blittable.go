package types

import "sync"

// blitEngine memoises struct blittability. A struct reached again while it
// is being computed is a recursive value type and counts as not blittable.
type blitEngine struct {
	mu       sync.Mutex
	memo     map[*Struct]bool
	visiting map[*Struct]struct{}
}

func newBlitEngine() *blitEngine {
	return &blitEngine{
		memo:     make(map[*Struct]bool, 64),
		visiting: make(map[*Struct]struct{}, 8),
	}
}

// IsBlittable reports whether t has the same memory layout on both sides of
// the ABI. Numeric fundamentals, Guid, enums, HResult and
// EventRegistrationToken are blittable; structs are when every field is.
func (c *Cache) IsBlittable(t Type) bool {
	c.blit.mu.Lock()
	defer c.blit.mu.Unlock()
	return c.blit.of(t)
}

// IsBlittableParam is IsBlittable in parameter context: arrays never are.
func (c *Cache) IsBlittableParam(p Param) bool {
	if p.Array {
		return false
	}
	return c.IsBlittable(p.Type)
}

func (e *blitEngine) of(t Type) bool {
	switch v := t.(type) {
	case *Fundamental:
		return v.info().blittable
	case *Mapped:
		return v.info().blittable
	case *Enum:
		return true
	case *Struct:
		return e.structOf(v)
	}
	return false
}

func (e *blitEngine) structOf(s *Struct) bool {
	if v, ok := e.memo[s]; ok {
		return v
	}
	if _, ok := e.visiting[s]; ok {
		return false
	}
	e.visiting[s] = struct{}{}
	result := true
	for _, f := range s.Fields {
		if !e.of(f.Type) {
			result = false
			break
		}
	}
	delete(e.visiting, s)
	e.memo[s] = result
	return result
}
