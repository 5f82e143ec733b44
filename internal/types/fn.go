package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// FnInfo stores metadata for function types.
type FnInfo struct {
	Params []TypeID
	Result TypeID
	Throws bool
}

// RegisterFn creates or finds a function type.
func (in *Interner) RegisterFn(params []TypeID, result TypeID, throws bool) TypeID {
	for id := TypeID(1); int(id) < len(in.types); id++ {
		tt := in.types[id]
		if tt.Kind != KindFn {
			continue
		}
		info := in.fns[tt.Payload]
		if info.Result == result && info.Throws == throws && slices.Equal(info.Params, params) {
			return id
		}
	}
	slot, err := safecast.Conv[uint32](len(in.fns))
	if err != nil {
		panic(fmt.Errorf("fn info overflow: %w", err))
	}
	in.fns = append(in.fns, FnInfo{
		Params: slices.Clone(params),
		Result: result,
		Throws: throws,
	})
	return in.internRaw(Type{Kind: KindFn, Payload: slot})
}

// FnInfo retrieves function type metadata by TypeID.
func (in *Interner) FnInfo(id TypeID) (*FnInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindFn {
		return nil, false
	}
	if int(tt.Payload) >= len(in.fns) {
		return nil, false
	}
	return &in.fns[tt.Payload], true
}
