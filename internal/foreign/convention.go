// Package foreign describes how throwing host functions surface errors to
// the selector-based runtime: a sentinel return value plus an error
// out-parameter injected into the exploded parameter list.
package foreign

import (
	"fmt"

	"expose/internal/types"
)

// ConventionKind selects the sentinel that signals failure.
type ConventionKind uint8

const (
	// ZeroResult: a zero return value (e.g. false) signals failure.
	ZeroResult ConventionKind = iota
	// NonZeroResult: a non-zero return value signals failure.
	NonZeroResult
	// ZeroPreservedResult: zero signals failure but the result is preserved.
	ZeroPreservedResult
	// NilResult: a nil object result signals failure.
	NilResult
	// NonNilError: failure is indicated only through the error out-parameter.
	NonNilError
)

func (k ConventionKind) String() string {
	switch k {
	case ZeroResult:
		return "zero result"
	case NonZeroResult:
		return "non-zero result"
	case ZeroPreservedResult:
		return "zero preserved result"
	case NilResult:
		return "nil result"
	case NonNilError:
		return "non-nil error"
	default:
		return fmt.Sprintf("ConventionKind(%d)", k)
	}
}

// ErrorConvention records where the error out-parameter goes and which
// sentinel the foreign caller checks. Computed once per throwing declaration
// and inherited verbatim by throwing overrides.
type ErrorConvention struct {
	Kind       ConventionKind
	ParamIndex uint32
	// Owned reports whether the callee takes ownership of the error object.
	// Always false in this subsystem.
	Owned bool
	// ReplacesParam reports that the error out-parameter replaced an
	// existing host parameter (with Void) rather than being appended.
	ReplacesParam bool
	// ParamType is the canonical injected-parameter type: an optional
	// out-pointer to an optional error object.
	ParamType types.TypeID
	// ResultType is the sentinel result type; set only for ZeroResult and
	// NonZeroResult conventions.
	ResultType types.TypeID
}

// GetZeroResult builds a ZeroResult convention.
func GetZeroResult(index uint32, owned, replaces bool, paramType, resultType types.TypeID) ErrorConvention {
	return ErrorConvention{
		Kind: ZeroResult, ParamIndex: index, Owned: owned,
		ReplacesParam: replaces, ParamType: paramType, ResultType: resultType,
	}
}

// GetNonZeroResult builds a NonZeroResult convention.
func GetNonZeroResult(index uint32, owned, replaces bool, paramType, resultType types.TypeID) ErrorConvention {
	return ErrorConvention{
		Kind: NonZeroResult, ParamIndex: index, Owned: owned,
		ReplacesParam: replaces, ParamType: paramType, ResultType: resultType,
	}
}

// GetZeroPreservedResult builds a ZeroPreservedResult convention.
func GetZeroPreservedResult(index uint32, owned, replaces bool, paramType types.TypeID) ErrorConvention {
	return ErrorConvention{
		Kind: ZeroPreservedResult, ParamIndex: index, Owned: owned,
		ReplacesParam: replaces, ParamType: paramType,
	}
}

// GetNilResult builds a NilResult convention.
func GetNilResult(index uint32, owned, replaces bool, paramType types.TypeID) ErrorConvention {
	return ErrorConvention{
		Kind: NilResult, ParamIndex: index, Owned: owned,
		ReplacesParam: replaces, ParamType: paramType,
	}
}

// ErrorParameterReplacedWithVoid reports whether the host signature keeps a
// Void placeholder where the foreign signature has the error out-parameter.
func (c ErrorConvention) ErrorParameterReplacedWithVoid() bool {
	return c.ReplacesParam
}
