package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"swiftwinrt/internal/metadata"
	"swiftwinrt/internal/settings"
	"swiftwinrt/internal/winmd"
)

const (
	shapesNS      = "Test.Shapes"
	collectionsNS = "Windows.Foundation.Collections"
	iShapeGUID    = "8f3b4a1e-0d2c-4b6e-9a5f-1c2d3e4f5a6b"
	handlerGUID   = "6a2c4e8f-1b3d-4f5a-9c7e-0b2d4f6a8c1e"
	iterableGUID  = "faa585ea-6214-4217-afda-7f46de5869b3"
	vectorGUID    = "913337e9-11a1-4345-a3a2-4e7f956e222d"
)

func ptr[T any](v T) *T { return &v }

// buildShapes lays out a small but complete namespace: structs, an enum, a
// delegate, an interface with a property and an event, a class using it as
// default, a static class, and the generic IIterable/IVector pair.
func buildShapes(extra func(b *winmd.Builder)) *winmd.Database {
	b := winmd.NewBuilder("Shapes.winmd")
	i4 := winmd.Prim(winmd.ElemI4)

	point := b.Struct(shapesNS, "Point").Field("X", i4).Field("Y", i4)
	b.Struct(shapesNS, "Pair").Field("A", winmd.Prim(winmd.ElemString)).Field("B", i4)
	color := b.Enum(shapesNS, "Color", false).Value("Red", 0).Value("Green", 1)
	b.Enum(shapesNS, "Sides", true).Value("None", 0).Value("Left", 1)
	b.Struct(shapesNS, "Styled").Field("Origin", winmd.ValueOf(point.Ref())).Field("Fill", winmd.ValueOf(color.Ref()))
	b.Struct(shapesNS, "Status").Field("Code", winmd.ValueOf(b.Ref(winmd.FoundationNamespace, "HResult")))

	handler := b.Delegate(shapesNS, "ShapeChangedHandler", handlerGUID,
		winmd.MethodSig{Params: []winmd.TypeSig{winmd.Prim(winmd.ElemI4)}}, "delta")

	shape := b.Interface(shapesNS, "IShape", iShapeGUID)
	get := shape.Method("get_Origin", winmd.MethodSig{Return: ptr(winmd.ValueOf(point.Ref()))}).SpecialName()
	put := shape.Method("put_Origin", winmd.MethodSig{Params: []winmd.TypeSig{winmd.ValueOf(point.Ref())}}, "value").SpecialName()
	shape.Property("Origin", winmd.ValueOf(point.Ref()), get, put)
	token := winmd.ValueOf(b.Ref(winmd.FoundationNamespace, "EventRegistrationToken"))
	add := shape.Method("add_Changed", winmd.MethodSig{Return: &token, Params: []winmd.TypeSig{winmd.ClassOf(handler.Ref())}}, "handler").SpecialName()
	remove := shape.Method("remove_Changed", winmd.MethodSig{Params: []winmd.TypeSig{token}}, "token").SpecialName()
	shape.Event("Changed", handler.Ref(), add, remove)
	shape.Method("Scale", winmd.MethodSig{Params: []winmd.TypeSig{winmd.Prim(winmd.ElemR8), winmd.Prim(winmd.ElemU1).Array()}}, "factor", "data")
	shape.ExclusiveTo(shapesNS + ".Shape")

	cls := b.Class(shapesNS, "Shape").Contract(shapesNS+".ShapesContract", 1)
	cls.Attr(winmd.MetadataNamespace, "ActivatableAttribute", winmd.UintArg(1))
	cls.Implements(shape.Ref()).Default()
	b.Class(shapesNS, "Helpers").SetFlags(winmd.TypePublic | winmd.TypeAbstract | winmd.TypeSealed | winmd.TypeWindowsRuntime)

	iterable := b.Interface(collectionsNS, "IIterable`1", iterableGUID).Generic("T")
	vector := b.Interface(collectionsNS, "IVector`1", vectorGUID).Generic("T")
	vector.Method("GetAt", winmd.MethodSig{Return: ptr(winmd.Var(0)), Params: []winmd.TypeSig{winmd.Prim(winmd.ElemU4)}}, "index")
	vector.Method("get_Size", winmd.MethodSig{Return: ptr(winmd.Prim(winmd.ElemU4))}).SpecialName()
	vector.Implements(b.Spec(winmd.GenericOf(iterable.Ref(), winmd.Var(0))))

	if extra != nil {
		extra(b)
	}
	return b.Build()
}

func newCache(t *testing.T, db *winmd.Database, prefix settings.PrefixMode) *Cache {
	t.Helper()
	md, err := metadata.New([]*winmd.Database{db}, nil, nil)
	require.NoError(t, err)
	return NewCache(md, &settings.Settings{Prefix: prefix}, nil)
}

func find(t *testing.T, c *Cache, ns, name string) Type {
	t.Helper()
	typ, err := c.Find(ns, name)
	require.NoError(t, err)
	return typ
}
