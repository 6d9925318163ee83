// Package testkit provides metadata fixtures and output checks shared by
// package tests.
package testkit

import (
	"swiftwinrt/internal/winmd"
)

const (
	ShapesNS      = "Test.Shapes"
	WidgetsNS     = "Test.Widgets"
	HiddenNS      = "Test.Hidden"
	CollectionsNS = "Windows.Foundation.Collections"

	IShapeGUID      = "8f3b4a1e-0d2c-4b6e-9a5f-1c2d3e4f5a6b"
	HandlerGUID     = "6a2c4e8f-1b3d-4f5a-9c7e-0b2d4f6a8c1e"
	IWidgetGUID     = "2d7c9e41-5a3b-4c8d-8e1f-7a6b5c4d3e2f"
	IPeekGUID       = "c4e5f6a7-b8c9-4d0e-9f1a-2b3c4d5e6f70"
	IIterableGUID   = "faa585ea-6214-4217-afda-7f46de5869b3"
	IIteratorGUID   = "6a79e863-4300-459a-9966-cbb660963ee1"
	IVectorGUID     = "913337e9-11a1-4345-a3a2-4e7f956e222d"
	IVectorViewGUID = "bbe1fa4c-b0e3-4583-baef-1f1b2e483e56"
)

func ptr[T any](v T) *T { return &v }

// Metadata builds a container with three namespaces that share generic
// instantiations:
//
//	Test.Shapes   Point, Color, ShapeChangedHandler, IShape, Shape, Helpers
//	Test.Widgets  IWidget, Widget, IPeek (refers to Test.Hidden.Secret)
//	Test.Hidden   Secret
//
// plus the Windows.Foundation.Collections generics. IShape and IWidget both
// return IVector<String>. extra may add types before the container is built.
func Metadata(extra func(b *winmd.Builder)) *winmd.Database {
	b := winmd.NewBuilder("Test.winmd")
	i4 := winmd.Prim(winmd.ElemI4)
	str := winmd.Prim(winmd.ElemString)

	iterable := b.Interface(CollectionsNS, "IIterable`1", IIterableGUID).Generic("T")
	iterator := b.Interface(CollectionsNS, "IIterator`1", IIteratorGUID).Generic("T")
	iterator.Method("get_Current", winmd.MethodSig{Return: ptr(winmd.Var(0))}).SpecialName()
	iterator.Method("MoveNext", winmd.MethodSig{Return: ptr(winmd.Prim(winmd.ElemBoolean))})
	iterable.Method("First", winmd.MethodSig{Return: ptr(winmd.GenericOf(iterator.Ref(), winmd.Var(0)))})
	view := b.Interface(CollectionsNS, "IVectorView`1", IVectorViewGUID).Generic("T")
	view.Method("GetAt", winmd.MethodSig{Return: ptr(winmd.Var(0)), Params: []winmd.TypeSig{winmd.Prim(winmd.ElemU4)}}, "index")
	view.Implements(b.Spec(winmd.GenericOf(iterable.Ref(), winmd.Var(0))))
	vector := b.Interface(CollectionsNS, "IVector`1", IVectorGUID).Generic("T")
	vector.Method("GetAt", winmd.MethodSig{Return: ptr(winmd.Var(0)), Params: []winmd.TypeSig{winmd.Prim(winmd.ElemU4)}}, "index")
	vector.Method("get_Size", winmd.MethodSig{Return: ptr(winmd.Prim(winmd.ElemU4))}).SpecialName()
	vector.Method("GetView", winmd.MethodSig{Return: ptr(winmd.GenericOf(view.Ref(), winmd.Var(0)))})
	vector.Method("Append", winmd.MethodSig{Params: []winmd.TypeSig{winmd.Var(0)}}, "value")
	vector.Implements(b.Spec(winmd.GenericOf(iterable.Ref(), winmd.Var(0))))
	vectorOfString := winmd.GenericOf(vector.Ref(), str)

	point := b.Struct(ShapesNS, "Point").Field("X", i4).Field("Y", i4)
	color := b.Enum(ShapesNS, "Color", false).Value("Red", 0).Value("Green", 1).Value("Blue", 2)
	handler := b.Delegate(ShapesNS, "ShapeChangedHandler", HandlerGUID,
		winmd.MethodSig{Params: []winmd.TypeSig{winmd.ValueOf(color.Ref())}}, "color")

	shape := b.Interface(ShapesNS, "IShape", IShapeGUID)
	get := shape.Method("get_Origin", winmd.MethodSig{Return: ptr(winmd.ValueOf(point.Ref()))}).SpecialName()
	put := shape.Method("put_Origin", winmd.MethodSig{Params: []winmd.TypeSig{winmd.ValueOf(point.Ref())}}, "value").SpecialName()
	shape.Property("Origin", winmd.ValueOf(point.Ref()), get, put)
	token := winmd.ValueOf(b.Ref(winmd.FoundationNamespace, "EventRegistrationToken"))
	add := shape.Method("add_Changed", winmd.MethodSig{Return: &token, Params: []winmd.TypeSig{winmd.ClassOf(handler.Ref())}}, "handler").SpecialName()
	remove := shape.Method("remove_Changed", winmd.MethodSig{Params: []winmd.TypeSig{token}}, "token").SpecialName()
	shape.Event("Changed", handler.Ref(), add, remove)
	shape.Method("GetNames", winmd.MethodSig{Return: ptr(vectorOfString)})
	shape.Method("Scale", winmd.MethodSig{Params: []winmd.TypeSig{winmd.Prim(winmd.ElemR8)}}, "factor")
	shape.ExclusiveTo(ShapesNS + ".Shape")

	cls := b.Class(ShapesNS, "Shape").Contract(ShapesNS+".ShapesContract", 1)
	cls.Attr(winmd.MetadataNamespace, "ActivatableAttribute", winmd.UintArg(1))
	cls.Implements(shape.Ref()).Default()
	b.Class(ShapesNS, "Helpers").SetFlags(winmd.TypePublic | winmd.TypeAbstract | winmd.TypeSealed | winmd.TypeWindowsRuntime)
	b.ApiContract(ShapesNS, "ShapesContract")

	secret := b.Struct(HiddenNS, "Secret").Field("Value", i4)

	widget := b.Interface(WidgetsNS, "IWidget", IWidgetGUID)
	widget.Method("GetLabels", winmd.MethodSig{Return: ptr(vectorOfString)})
	widget.Method("MoveTo", winmd.MethodSig{Params: []winmd.TypeSig{winmd.ValueOf(point.Ref())}}, "where")
	widget.ExclusiveTo(WidgetsNS + ".Widget")
	wcls := b.Class(WidgetsNS, "Widget")
	wcls.Attr(winmd.MetadataNamespace, "ActivatableAttribute", winmd.UintArg(1))
	wcls.Implements(widget.Ref()).Default()
	peek := b.Interface(WidgetsNS, "IPeek", IPeekGUID)
	peek.Method("Peek", winmd.MethodSig{Return: ptr(winmd.ValueOf(secret.Ref()))})

	if extra != nil {
		extra(b)
	}
	return b.Build()
}
