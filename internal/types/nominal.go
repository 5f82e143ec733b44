package types

import (
	"fmt"

	"fortio.org/safecast"

	"expose/internal/source"
)

// NominalInfo stores metadata for class, struct, enum and protocol types.
// The owning declaration is tracked by the declaration graph, keyed by
// TypeID.
type NominalInfo struct {
	Name source.StringID
	Decl source.Span
}

// RegisterNominal allocates a nominal type of the given kind (KindClass,
// KindStruct, KindEnum or KindProtocol) and returns its TypeID. Nominals are
// never deduplicated: two declarations with the same name are distinct types.
func (in *Interner) RegisterNominal(kind Kind, name source.StringID, decl source.Span) TypeID {
	switch kind {
	case KindClass, KindStruct, KindEnum, KindProtocol:
	default:
		panic(fmt.Errorf("types: %v is not a nominal kind", kind))
	}
	slot, err := safecast.Conv[uint32](len(in.nominals))
	if err != nil {
		panic(fmt.Errorf("nominal info overflow: %w", err))
	}
	in.nominals = append(in.nominals, NominalInfo{Name: name, Decl: decl})
	return in.internRaw(Type{Kind: kind, Payload: slot})
}

// NominalInfo returns metadata for a class, struct, enum or protocol TypeID.
func (in *Interner) NominalInfo(id TypeID) (*NominalInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok {
		return nil, false
	}
	switch tt.Kind {
	case KindClass, KindStruct, KindEnum, KindProtocol:
	default:
		return nil, false
	}
	if int(tt.Payload) >= len(in.nominals) {
		return nil, false
	}
	return &in.nominals[tt.Payload], true
}

// FindNominal returns the first nominal of the given kind with the name.
func (in *Interner) FindNominal(kind Kind, name source.StringID) (TypeID, bool) {
	for id := TypeID(1); int(id) < len(in.types); id++ {
		if in.types[id].Kind != kind {
			continue
		}
		if in.nominals[in.types[id].Payload].Name == name {
			return id, true
		}
	}
	return NoTypeID, false
}
