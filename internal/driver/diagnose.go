package driver

import (
	"errors"

	"swiftwinrt/internal/diag"
	"swiftwinrt/internal/metadata"
	"swiftwinrt/internal/types"
)

var kindCodes = map[metadata.ErrorKind]diag.Code{
	metadata.ErrDanglingRef:             diag.MetaDanglingRef,
	metadata.ErrMissingDefaultInterface: diag.MetaMissingDefaultInterface,
	metadata.ErrAttributeConflict:       diag.MetaAttributeConflict,
	metadata.ErrMalformedAttribute:      diag.MetaMalformedAttribute,
	metadata.ErrContractHistory:         diag.MetaContractHistory,
	metadata.ErrMissingGuid:             diag.MetaMissingGuid,
}

// diagnosticFor turns a type-scoped error into a diagnostic. loc names the
// type being compiled; the error may narrow it to another type or a member.
func diagnosticFor(err error, loc diag.Location) diag.Diagnostic {
	var (
		re  *metadata.ResolutionError
		ie  *types.InvalidTypeError
		fe  *FilteredReferenceError
		ire *InvalidReferenceError
	)
	switch {
	case errors.As(err, &fe):
		loc.Type, loc.Member = fe.Type, fe.Member
		return diag.NewError(diag.MetaFilteredReference, loc, err.Error()).
			WithNote(diag.Location{Type: fe.Ref}, "excluded by the projection filter")
	case errors.As(err, &ire):
		loc.Type, loc.Member = ire.Type, ire.Member
		return diag.NewError(diag.MetaInvalidType, loc, ire.Err.Error()).
			WithNote(diag.Location{Type: ire.Err.Type}, ire.Err.Reason)
	case errors.As(err, &re):
		code, ok := kindCodes[re.Kind]
		if !ok {
			code = diag.MetaInvalidType
		}
		d := diag.NewError(code, loc, re.Reason())
		if re.Type != "" && re.Type != loc.Type {
			d = d.WithNote(diag.Location{Type: re.Type, Member: re.Member}, re.Kind.String())
		} else {
			d.Primary.Member = re.Member
		}
		if re.Ref != "" && re.Ref != loc.Type {
			d = d.WithNote(diag.Location{Type: re.Ref}, "fails to resolve")
		}
		return d
	case errors.As(err, &ie):
		return diag.NewError(diag.MetaInvalidType, loc, err.Error())
	}
	return diag.NewError(diag.MetaInvalidType, loc, err.Error())
}
