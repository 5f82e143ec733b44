package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// ExistentialInfo stores the layout of a protocol-composition type: the
// declared types of the member protocols plus an optional superclass bound.
// The empty composition ("any object at all") has no protocols and no bound.
type ExistentialInfo struct {
	Protocols  []TypeID
	Superclass TypeID
}

// RegisterExistential creates or finds a protocol-composition type.
func (in *Interner) RegisterExistential(protocols []TypeID, superclass TypeID) TypeID {
	for id := TypeID(1); int(id) < len(in.types); id++ {
		tt := in.types[id]
		if tt.Kind != KindExistential {
			continue
		}
		info := in.existentials[tt.Payload]
		if info.Superclass == superclass && slices.Equal(info.Protocols, protocols) {
			return id
		}
	}
	slot, err := safecast.Conv[uint32](len(in.existentials))
	if err != nil {
		panic(fmt.Errorf("existential info overflow: %w", err))
	}
	in.existentials = append(in.existentials, ExistentialInfo{
		Protocols:  slices.Clone(protocols),
		Superclass: superclass,
	})
	return in.internRaw(Type{Kind: KindExistential, Payload: slot})
}

// ExistentialInfo returns composition metadata by TypeID.
func (in *Interner) ExistentialInfo(id TypeID) (*ExistentialInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindExistential {
		return nil, false
	}
	if int(tt.Payload) >= len(in.existentials) {
		return nil, false
	}
	return &in.existentials[tt.Payload], true
}
