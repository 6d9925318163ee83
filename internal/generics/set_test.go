package generics

import (
	"errors"
	"sync"
	"testing"

	"swiftwinrt/internal/metadata"
	"swiftwinrt/internal/settings"
	"swiftwinrt/internal/types"
	"swiftwinrt/internal/winmd"
)

const collectionsNS = "Windows.Foundation.Collections"

func vectorCache(t *testing.T) (*types.Cache, types.Type) {
	t.Helper()
	b := winmd.NewBuilder("Collections.winmd")
	vec := b.Interface(collectionsNS, "IVector`1", "913337e9-11a1-4345-a3a2-4e7f956e222d").Generic("T")
	ret := winmd.Var(0)
	vec.Method("GetAt", winmd.MethodSig{Return: &ret, Params: []winmd.TypeSig{winmd.Prim(winmd.ElemU4)}}, "index")
	md, err := metadata.New([]*winmd.Database{b.Build()}, nil, nil)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	c := types.NewCache(md, &settings.Settings{}, nil)
	def, err := c.Find(collectionsNS, "IVector`1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	return c, def
}

func instantiate(t *testing.T, c *types.Cache, def types.Type, arg types.Type) *types.GenericInst {
	t.Helper()
	inst, err := c.Instantiate(def, []types.Type{arg})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	return inst
}

func TestVectorOfStringDedupAcrossNamespaces(t *testing.T) {
	c, def := vectorCache(t)
	set := NewSet("M")
	str := types.FundamentalOf(types.String)

	var wg sync.WaitGroup
	for _, ns := range []string{"NS1", "NS2"} {
		inst := instantiate(t, c, def, str)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := set.Record(inst, ns); err != nil {
				t.Errorf("record: %v", err)
			}
		}()
	}
	wg.Wait()

	entries := set.Freeze()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	e := entries[0]
	if e.MangledName() != "__FIVector_1_HSTRING" {
		t.Fatalf("unexpected mangled name %s", e.MangledName())
	}
	if len(e.Namespaces) != 2 || e.Namespaces[0] != "NS1" || e.Namespaces[1] != "NS2" {
		t.Fatalf("unexpected namespaces %v", e.Namespaces)
	}
	if got, err := set.Require(instantiate(t, c, def, str)); err != nil || got != e {
		t.Fatalf("Require = %v, %v", got, err)
	}
}

func TestRecordAfterFreezeFails(t *testing.T) {
	c, def := vectorCache(t)
	set := NewSet("M")
	if set.Entries() != nil {
		t.Fatalf("entries before freeze should be nil")
	}
	if err := set.Record(instantiate(t, c, def, types.FundamentalOf(types.Int32)), "NS"); err != nil {
		t.Fatalf("record: %v", err)
	}
	set.Freeze()
	if set.State() != Frozen {
		t.Fatalf("state = %s", set.State())
	}

	late := instantiate(t, c, def, types.FundamentalOf(types.Double))
	if err := set.Record(late, "NS"); !errors.Is(err, ErrFrozen) {
		t.Fatalf("expected ErrFrozen, got %v", err)
	}
	if _, err := set.Require(late); !errors.Is(err, ErrFrozen) {
		t.Fatalf("expected ErrFrozen from Require, got %v", err)
	}
	if _, err := set.Require(instantiate(t, c, def, types.FundamentalOf(types.Int32))); err != nil {
		t.Fatalf("Require known: %v", err)
	}
	if again := set.Freeze(); len(again) != 1 {
		t.Fatalf("second freeze changed entries: %d", len(again))
	}
}

func TestEntriesSortedByMangledName(t *testing.T) {
	c, def := vectorCache(t)
	set := NewSet("M")
	for _, k := range []types.FundamentalKind{types.UInt8, types.Boolean, types.String} {
		if err := set.Record(instantiate(t, c, def, types.FundamentalOf(k)), "NS"); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	entries := set.Freeze()
	want := []string{"__FIVector_1_HSTRING", "__FIVector_1_UINT8", "__FIVector_1_boolean"}
	for i, e := range entries {
		if e.MangledName() != want[i] {
			t.Fatalf("entry %d = %s, want %s", i, e.MangledName(), want[i])
		}
	}
}

func TestOpenInstanceRejected(t *testing.T) {
	c, def := vectorCache(t)
	open := instantiate(t, c, def, &types.GenericParam{Param: "T"})
	if err := NewSet("M").Record(open, "NS"); err == nil {
		t.Fatalf("open instance should be rejected")
	}
}
