package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Целостность метаданных
	MetaInfo                    Code = 1000
	MetaDanglingRef             Code = 1001
	MetaMissingDefaultInterface Code = 1002
	MetaAttributeConflict       Code = 1003
	MetaMalformedAttribute      Code = 1004
	MetaContractHistory         Code = 1005
	MetaMissingGuid             Code = 1006
	MetaFilteredReference       Code = 1007
	MetaInvalidType             Code = 1008

	// Конфигурация
	CfgInfo             Code = 2000
	CfgEmptyNamespace   Code = 2001
	CfgUnknownNamespace Code = 2002
	CfgModuleCycle      Code = 2003
	CfgModuleOverlap    Code = 2004

	// Генерация
	EmitInfo        Code = 3000
	EmitWriteFailed Code = 3001
	EmitSkipped     Code = 3002
	EmitUpToDate    Code = 3003
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	MetaInfo:                    "Metadata information",
	MetaDanglingRef:             "Dangling type reference",
	MetaMissingDefaultInterface: "Class has no default interface",
	MetaAttributeConflict:       "Conflicting attributes",
	MetaMalformedAttribute:      "Malformed attribute",
	MetaContractHistory:         "Invalid contract history",
	MetaMissingGuid:             "Missing GUID",
	MetaFilteredReference:       "Reference to a filtered type",
	MetaInvalidType:             "Type cannot be projected",
	CfgInfo:                     "Configuration information",
	CfgEmptyNamespace:           "Namespace has no types after filtering",
	CfgUnknownNamespace:         "Unknown namespace",
	CfgModuleCycle:              "Module dependency cycle",
	CfgModuleOverlap:            "Namespace assigned to several modules",
	EmitInfo:                    "Emission information",
	EmitWriteFailed:             "Cannot write output",
	EmitSkipped:                 "Type skipped",
	EmitUpToDate:                "Module is up to date",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("META%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("EMIT%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
