package driver

import (
	"crypto/sha256"
	"encoding/hex"

	"expose/internal/expose"
)

// Digest is a SHA-256 content hash, the cache key for fixture results.
type Digest [sha256.Size]byte

// HashBytes digests raw fixture content.
func HashBytes(content []byte) Digest {
	return sha256.Sum256(content)
}

// IsZero reports an unset digest.
func (d Digest) IsZero() bool {
	var z Digest
	return d == z
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// langSignature encodes language overrides for cache-key mixing. Nil and the
// all-unset value both map to nil so plain runs keep their plain keys.
func langSignature(o *expose.LangOverrides) []byte {
	if o == nil {
		return nil
	}
	flag := func(p *bool) (byte, byte) {
		if p == nil {
			return 0, 0
		}
		if *p {
			return 1, 1
		}
		return 1, 0
	}
	sig := make([]byte, 0, 8)
	set := false
	for _, p := range []*bool{o.LegacyInference, o.AttrRequiresForeignRoot, o.InteropEnabled} {
		present, value := flag(p)
		set = set || present == 1
		sig = append(sig, present, value)
	}
	if o.LegacyWarnings != nil {
		set = true
		sig = append(sig, 1, byte(*o.LegacyWarnings))
	} else {
		sig = append(sig, 0, 0)
	}
	if !set {
		return nil
	}
	return sig
}
