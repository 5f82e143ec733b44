package decls

import (
	"strings"

	"expose/internal/source"
)

// Selector is the foreign runtime's method-name encoding: ordered name
// pieces, one per argument, or a single bare piece for zero arguments.
type Selector struct {
	NumArgs uint32
	Pieces  []source.StringID
}

// MakeSelector builds a selector. For zero arguments pass exactly one piece.
func MakeSelector(numArgs uint32, pieces ...source.StringID) Selector {
	return Selector{NumArgs: numArgs, Pieces: pieces}
}

// Equal compares selector shapes piece by piece.
func (s Selector) Equal(o Selector) bool {
	if s.NumArgs != o.NumArgs || len(s.Pieces) != len(o.Pieces) {
		return false
	}
	for i := range s.Pieces {
		if s.Pieces[i] != o.Pieces[i] {
			return false
		}
	}
	return true
}

// String renders the canonical form: "name" or "piece:piece:".
func (s Selector) String(strs *source.Interner) string {
	if len(s.Pieces) == 0 {
		return ""
	}
	piece := func(id source.StringID) string {
		if strs == nil {
			return "?"
		}
		p, _ := strs.Lookup(id)
		return p
	}
	if s.NumArgs == 0 {
		return piece(s.Pieces[0])
	}
	var b strings.Builder
	for _, p := range s.Pieces {
		b.WriteString(piece(p))
		b.WriteByte(':')
	}
	return b.String()
}

// ParseSelector splits the canonical form back into a selector, interning
// the pieces. "name" gives zero args; "a:b:" gives two.
func ParseSelector(strs *source.Interner, text string) (Selector, bool) {
	if text == "" {
		return Selector{}, false
	}
	if !strings.Contains(text, ":") {
		return MakeSelector(0, strs.Intern(text)), true
	}
	if !strings.HasSuffix(text, ":") {
		return Selector{}, false
	}
	parts := strings.Split(strings.TrimSuffix(text, ":"), ":")
	pieces := make([]source.StringID, 0, len(parts))
	for _, part := range parts {
		pieces = append(pieces, strs.Intern(part))
	}
	return Selector{NumArgs: uint32(len(pieces)), Pieces: pieces}, true
}

// LastWord returns the trailing camel-case word of a name: "withError" ->
// "Error", "error" -> "error".
func LastWord(name string) string {
	for i := len(name) - 1; i > 0; i-- {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			return name[i:]
		}
	}
	return name
}
