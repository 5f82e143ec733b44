package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Graph loading (fixture parsing and resolution).
	LoadInfo            Code = 1000
	LoadBadManifest     Code = 1001
	LoadUnknownType     Code = 1002
	LoadUnknownDecl     Code = 1003
	LoadBadTypeExpr     Code = 1004
	LoadBadAttr         Code = 1005
	LoadBadSelector     Code = 1006
	LoadDuplicateModule Code = 1007

	// Exposure checking: representability.
	ExpInfo                   Code = 4000
	ExpVariadicParam          Code = 4001
	ExpInOutParam             Code = 4002
	ExpParamNotRepresentable  Code = 4003
	ExpResultNotRepresentable Code = 4004
	ExpInvalidWithGenerics    Code = 4005
	ExpInForeignRefClass      Code = 4006
	ExpInRuntimeOnlyClass     Code = 4007
	ExpInConstrainedExtension Code = 4008
	ExpInGenericExtension     Code = 4009
	ExpOperator               Code = 4010
	ExpOperatorInProtocol     Code = 4011
	ExpAccessorStorage        Code = 4012
	ExpObservingAccessor      Code = 4013
	ExpAddressorAccessor      Code = 4014
	ExpVarNotRepresentable    Code = 4015
	ExpSubscriptType          Code = 4016
	ExpSubscriptKeyType       Code = 4017

	// Exposure checking: error conventions.
	ExpThrowsFailingInit   Code = 4030
	ExpThrowsOptionalInNil Code = 4031
	ExpThrowsBadResult     Code = 4032

	// Exposure checking: class-level inference.
	ExpAttrOnGenericClass  Code = 4040
	ExpAttrNativeRooted    Code = 4041
	ExpInteropDisabled     Code = 4042
	ExpDynamicDeprecated   Code = 4043
	ExpDynamicNeedsExposed Code = 4044

	// Exposure finalization.
	ExpNeverExposeConflict    Code = 4050
	ExpSelectorMismatch       Code = 4051
	ExpPropertyNameMismatch   Code = 4052
	ExpAmbiguousNameInference Code = 4053
	ExpReservedClassSelector  Code = 4054
	ExpLegacyMemberInference  Code = 4055
)

func (c Code) String() string {
	return fmt.Sprintf("XG%04d", uint16(c))
}
