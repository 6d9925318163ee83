package types

import "swiftwinrt/internal/winmd"

// MappedKind enumerates the hand-mapped well-known types.
type MappedKind uint8

const (
	MappedHResult MappedKind = iota
	MappedEventRegistrationToken
	MappedAsyncStatus
	MappedIAsyncInfo
	mappedCount
)

type mappedInfo struct {
	name      string
	swift     string
	abi       string
	param     string
	sig       string
	category  ParamCategory
	blittable bool
	fwd       bool
}

var mappedTable = [mappedCount]mappedInfo{
	MappedHResult: {
		name: "HResult", swift: "HRESULT", abi: "HRESULT", param: "HRESULT",
		sig: "struct(Windows.Foundation.HResult;i4)", category: ParamFundamental, blittable: true,
	},
	MappedEventRegistrationToken: {
		name: "EventRegistrationToken", swift: "EventRegistrationToken", abi: "EventRegistrationToken", param: "EventRegistrationToken",
		sig: "struct(Windows.Foundation.EventRegistrationToken;i8)", category: ParamStruct, blittable: true,
	},
	MappedAsyncStatus: {
		name: "AsyncStatus", swift: "AsyncStatus", abi: "AsyncStatus", param: "AsyncStatus",
		sig: "enum(Windows.Foundation.AsyncStatus;i4)", category: ParamEnum, blittable: true,
	},
	MappedIAsyncInfo: {
		name: "IAsyncInfo", swift: "IAsyncInfo", abi: "IAsyncInfo", param: "IAsyncInfo",
		sig: "{00000036-0000-0000-c000-000000000046}", category: ParamObject, fwd: true,
	},
}

// Mapped is a well-known type that bypasses metadata resolution. There is
// exactly one value per (namespace, name).
type Mapped struct {
	kind MappedKind
}

var mappedTypes = func() map[string]*Mapped {
	out := make(map[string]*Mapped, mappedCount)
	for k := MappedKind(0); k < mappedCount; k++ {
		out[mappedTable[k].name] = &Mapped{kind: k}
	}
	return out
}()

// LookupMapped returns the mapped type for (namespace, name), if any.
func LookupMapped(namespace, name string) (*Mapped, bool) {
	if namespace != winmd.FoundationNamespace {
		return nil, false
	}
	m, ok := mappedTypes[name]
	return m, ok
}

func (m *Mapped) info() mappedInfo { return mappedTable[m.kind] }

// MappedKind returns which well-known type m is.
func (m *Mapped) MappedKind() MappedKind { return m.kind }

func (m *Mapped) Kind() Kind        { return KindMapped }
func (m *Mapped) Namespace() string { return winmd.FoundationNamespace }
func (m *Mapped) Name() string      { return m.info().name }
func (m *Mapped) FullName() string  { return winmd.FoundationNamespace + "." + m.info().name }

func (m *Mapped) SwiftFullName() string {
	return SwiftNamespace(winmd.FoundationNamespace) + "." + m.info().swift
}

func (m *Mapped) ABIName() string                 { return m.info().abi }
func (m *Mapped) MangledName() string             { return m.info().abi }
func (m *Mapped) GenericParamMangledName() string { return m.info().param }
func (m *Mapped) IsExperimental() bool            { return false }
func (m *Mapped) sealed()                         {}

func (m *Mapped) AppendSignature(b *SignatureBuilder) error {
	b.WriteString(m.info().sig)
	return nil
}

func (m *Mapped) CABIParam() (string, error) {
	switch m.info().category {
	case ParamObject:
		return m.info().abi + "*", nil
	case ParamStruct:
		return "struct " + m.info().abi, nil
	case ParamEnum:
		return "enum " + m.info().abi, nil
	}
	return m.info().abi, nil
}

func (m *Mapped) CForwardDeclaration() (string, error) {
	if !m.info().fwd {
		return "", nil
	}
	return fwdInterface(m.info().abi), nil
}
