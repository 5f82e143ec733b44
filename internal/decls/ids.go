package decls

// DeclID identifies a declaration inside a Graph.
type DeclID uint32

// NoDeclID marks the absence of a declaration (file scope, no override, ...).
const NoDeclID DeclID = 0

// IsValid reports whether the ID refers to a real declaration.
func (id DeclID) IsValid() bool {
	return id != NoDeclID
}
