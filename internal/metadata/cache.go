package metadata

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"fortio.org/safecast"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swiftwinrt/internal/winmd"
)

// NamespaceMembers lists the TypeDefs of one namespace by category, each
// slice sorted by name.
type NamespaceMembers struct {
	Name       string
	Types      map[string]TypeDef
	Interfaces []TypeDef
	Classes    []TypeDef
	Structs    []TypeDef
	Enums      []TypeDef
	Delegates  []TypeDef
	Attributes []TypeDef
	Contracts  []TypeDef
}

// All returns every member in a deterministic order.
func (m *NamespaceMembers) All() []TypeDef {
	names := make([]string, 0, len(m.Types))
	for name := range m.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]TypeDef, 0, len(names))
	for _, name := range names {
		out = append(out, m.Types[name])
	}
	return out
}

// Cache indexes one or more metadata containers. It is immutable after
// construction and safe for concurrent readers.
type Cache struct {
	databases  []*winmd.Database
	reference  map[*winmd.Database]bool
	namespaces map[string]*NamespaceMembers
	byName     map[string]TypeDef
	categories map[TypeDef]Category
	log        *zap.Logger

	fastabiOnce sync.Once
	fastabi     map[TypeDef]TypeDef
}

// Load opens inputs and references concurrently and indexes them.
// A missing or unreadable container is a configuration error.
func Load(ctx context.Context, inputs, references []string, log *zap.Logger) (*Cache, error) {
	if len(inputs) == 0 {
		return nil, &ConfigError{Msg: "no metadata inputs"}
	}
	paths := append(slices.Clone(inputs), references...)
	dbs := make([]*winmd.Database, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			db, err := winmd.Open(path)
			if err != nil {
				return &ConfigError{Path: path, Msg: fmt.Sprintf("cannot load metadata: %v", err)}
			}
			dbs[i] = db
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return New(dbs[:len(inputs)], dbs[len(inputs):], log)
}

// New indexes already opened databases. Types appearing in several inputs
// keep the first definition; reference duplicates of inputs are ignored.
func New(inputs, references []*winmd.Database, log *zap.Logger) (*Cache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Cache{
		reference:  make(map[*winmd.Database]bool, len(references)),
		namespaces: make(map[string]*NamespaceMembers),
		byName:     make(map[string]TypeDef),
		categories: make(map[TypeDef]Category),
		log:        log,
	}
	for _, db := range inputs {
		c.add(db, false)
	}
	for _, db := range references {
		c.add(db, true)
	}
	for _, ns := range c.namespaces {
		for _, list := range [][]TypeDef{ns.Interfaces, ns.Classes, ns.Structs, ns.Enums, ns.Delegates, ns.Attributes, ns.Contracts} {
			slices.SortFunc(list, func(a, b TypeDef) int {
				switch {
				case a.Name() < b.Name():
					return -1
				case a.Name() > b.Name():
					return 1
				}
				return 0
			})
		}
	}
	log.Debug("metadata indexed",
		zap.Int("databases", len(c.databases)),
		zap.Int("namespaces", len(c.namespaces)),
		zap.Int("types", len(c.byName)))
	return c, nil
}

func (c *Cache) add(db *winmd.Database, reference bool) {
	c.databases = append(c.databases, db)
	c.reference[db] = reference
	for i := range db.TypeDefs {
		t := TypeDef{db: db, row: rowOf(i)}
		if t.Name() == "<Module>" || !t.Flags().Has(winmd.TypeWindowsRuntime) {
			continue
		}
		full := t.FullName()
		if prev, dup := c.byName[full]; dup {
			if !reference {
				c.log.Warn("duplicate type definition ignored",
					zap.String("type", full),
					zap.String("kept", prev.Database().String()),
					zap.String("ignored", db.String()))
			}
			continue
		}
		c.byName[full] = t
		cat := CategoryOf(t)
		c.categories[t] = cat

		ns := c.namespaces[t.Namespace()]
		if ns == nil {
			ns = &NamespaceMembers{Name: t.Namespace(), Types: make(map[string]TypeDef)}
			c.namespaces[t.Namespace()] = ns
		}
		ns.Types[t.Name()] = t
		switch cat {
		case CategoryInterface:
			ns.Interfaces = append(ns.Interfaces, t)
		case CategoryClass:
			if IsAttributeType(t) {
				ns.Attributes = append(ns.Attributes, t)
			} else {
				ns.Classes = append(ns.Classes, t)
			}
		case CategoryStruct:
			if IsApiContract(t) {
				ns.Contracts = append(ns.Contracts, t)
			} else {
				ns.Structs = append(ns.Structs, t)
			}
		case CategoryEnum:
			ns.Enums = append(ns.Enums, t)
		case CategoryDelegate:
			ns.Delegates = append(ns.Delegates, t)
		}
	}
}

// Databases returns every indexed container, inputs first.
func (c *Cache) Databases() []*winmd.Database { return c.databases }

// IsReference reports whether t was loaded from a reference-only container.
func (c *Cache) IsReference(t TypeDef) bool { return c.reference[t.db] }

// Namespace returns the members of ns.
func (c *Cache) Namespace(ns string) (*NamespaceMembers, bool) {
	m, ok := c.namespaces[ns]
	return m, ok
}

// Namespaces returns all namespace names, sorted.
func (c *Cache) Namespaces() []string {
	out := make([]string, 0, len(c.namespaces))
	for ns := range c.namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// InputNamespaces returns the namespaces that have at least one type from an
// input (non-reference) container, sorted.
func (c *Cache) InputNamespaces() []string {
	var out []string
	for ns, members := range c.namespaces {
		for _, t := range members.Types {
			if !c.reference[t.db] {
				out = append(out, ns)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// Find looks a type up by namespace and name.
func (c *Cache) Find(ns, name string) (TypeDef, bool) {
	t, ok := c.byName[JoinName(ns, name)]
	return t, ok
}

// FindFull looks a type up by its dotted full name.
func (c *Cache) FindFull(full string) (TypeDef, bool) {
	t, ok := c.byName[full]
	return t, ok
}

// Category returns the cached category of t.
func (c *Cache) Category(t TypeDef) Category {
	if cat, ok := c.categories[t]; ok {
		return cat
	}
	return CategoryOf(t)
}

// Resolve resolves a TypeDef or TypeRef index to its definition.
// TypeSpec indexes cannot be resolved to a TypeDef.
func (c *Cache) Resolve(r Ref) (TypeDef, error) {
	switch r.Index.Tag {
	case winmd.TagTypeDef:
		return TypeDef{db: r.DB, row: r.Index.Row}, nil
	case winmd.TagTypeRef:
		ns, name, ok := r.Name()
		if !ok {
			return TypeDef{}, &ResolutionError{Kind: ErrDanglingRef, Type: r.Index.String(), Detail: "bad typeref row"}
		}
		if t, ok := c.Find(ns, name); ok {
			return t, nil
		}
		return TypeDef{}, &ResolutionError{Kind: ErrDanglingRef, Type: JoinName(ns, name), Detail: "no definition in any metadata input"}
	case winmd.TagTypeSpec:
		return TypeDef{}, fmt.Errorf("cannot resolve %s to a type definition", r.Index)
	}
	return TypeDef{}, fmt.Errorf("null type reference")
}

func rowOf(i int) uint32 {
	v, err := safecast.Conv[uint32](i)
	if err != nil {
		panic(fmt.Errorf("row index overflow: %w", err))
	}
	return v
}
