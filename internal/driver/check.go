// Package driver orchestrates exposure checks over fixture files: loading,
// pass ordering, result caching and parallel execution.
package driver

import (
	"expose/internal/decls"
	"expose/internal/diag"
	"expose/internal/expose"
	"expose/internal/graphio"
	"expose/internal/source"
)

// Stats summarizes one checked fixture.
type Stats struct {
	Declarations int
	Exposed      int
}

// Result is the outcome of checking one fixture file.
type Result struct {
	Path      string
	Hash      Digest
	Bag       *diag.Bag
	Stats     Stats
	Files     *source.FileSet
	FromCache bool
}

// HasErrors reports whether the check produced error diagnostics.
func (r *Result) HasErrors() bool {
	return r.Bag != nil && r.Bag.HasErrors()
}

// maxDiagnostics bounds one fixture's output; past this point more messages
// stop helping.
const maxDiagnostics = 256

// CheckBytes checks an in-memory fixture.
func CheckBytes(name string, content []byte) (*Result, error) {
	return CheckBytesWith(name, content, nil)
}

// CheckBytesWith checks an in-memory fixture with language-mode overrides
// layered over the options the fixture declares.
func CheckBytesWith(name string, content []byte, lang *expose.LangOverrides) (*Result, error) {
	fs := source.NewFileSet()
	bag := diag.NewBag(maxDiagnostics)
	rep := diag.BagReporter{Bag: bag}

	build, err := graphio.BuildGraphBytes(fs, name, content, rep)
	if err != nil {
		return nil, err
	}
	build.Opts = lang.Apply(build.Opts)
	stats := Stats{}
	if !bag.HasErrors() {
		stats = runPasses(build, rep)
	}
	bag.Sort()
	bag.Dedup()
	return &Result{
		Path:  name,
		Hash:  HashBytes(content),
		Bag:   bag,
		Stats: stats,
		Files: fs,
	}, nil
}

// runPasses drives the checker over the graph in dependency order: classes
// and protocols first (members consult their exposure), then storage and
// methods, then accessors and destructors (which consult their storage and
// class).
func runPasses(b *graphio.Build, rep diag.Reporter) Stats {
	c := expose.NewChecker(b.Graph, b.Types, b.Strings, rep, b.Opts)
	stats := Stats{}

	for _, id := range b.Graph.All() {
		d := b.Graph.Get(id)
		if d.Exposed {
			continue // prelude declarations arrive pre-exposed
		}
		switch d.Kind {
		case decls.DeclClass:
			if r, ok := c.InferReason(id, false); ok {
				c.MarkExposed(id, &r, nil)
			} else {
				c.MarkExposed(id, nil, nil)
			}
		case decls.DeclProtocol:
			if d.Attrs.Has(decls.AttrExposed) {
				r := expose.Reason{Kind: expose.ReasonExplicitAttr}
				c.MarkExposed(id, &r, nil)
			}
		}
	}

	for _, id := range b.Graph.All() {
		d := b.Graph.Get(id)
		switch d.Kind {
		case decls.DeclFunc, decls.DeclInit:
			checkFuncLike(c, id)
		case decls.DeclVar:
			checkVar(c, id)
		case decls.DeclSubscript:
			checkSubscript(c, id)
		}
	}

	for _, id := range b.Graph.All() {
		d := b.Graph.Get(id)
		switch d.Kind {
		case decls.DeclAccessor:
			checkAccessor(c, b.Graph, id)
		case decls.DeclDestructor:
			checkFuncLike(c, id)
		}
	}

	for _, id := range b.Graph.All() {
		d := b.Graph.Get(id)
		if d.Span.Empty() {
			continue // prelude declarations carry no fixture span
		}
		stats.Declarations++
		if d.Exposed {
			stats.Exposed++
		}
	}
	return stats
}

func checkFuncLike(c *expose.Checker, id decls.DeclID) {
	r, ok := c.InferReason(id, false)
	if !ok {
		c.MarkExposed(id, nil, nil)
		return
	}
	conv, ok := c.FuncIsRepresentable(id, r)
	if !ok {
		c.MarkExposed(id, nil, nil)
		return
	}
	c.MarkExposed(id, &r, conv)
}

func checkVar(c *expose.Checker, id decls.DeclID) {
	r, ok := c.InferReason(id, false)
	if !ok {
		c.MarkExposed(id, nil, nil)
		return
	}
	if !c.VarIsRepresentable(id, r) {
		c.MarkExposed(id, nil, nil)
		return
	}
	c.MarkExposed(id, &r, nil)
}

func checkSubscript(c *expose.Checker, id decls.DeclID) {
	r, ok := c.InferReason(id, false)
	if !ok {
		c.MarkExposed(id, nil, nil)
		return
	}
	if !c.SubscriptIsRepresentable(id, r) {
		c.MarkExposed(id, nil, nil)
		return
	}
	c.MarkExposed(id, &r, nil)
}

// checkAccessor exposes accessors of exposed storage with the silent
// accessor reason; everything else goes through ordinary inference.
func checkAccessor(c *expose.Checker, g *decls.Graph, id decls.DeclID) {
	d := g.Get(id)
	var r expose.Reason
	ok := false
	if storage := g.Get(d.Storage); storage != nil && storage.Exposed {
		r, ok = expose.Reason{Kind: expose.ReasonAccessor}, true
	} else {
		r, ok = c.InferReason(id, false)
	}
	if !ok {
		c.MarkExposed(id, nil, nil)
		return
	}
	conv, repOK := c.FuncIsRepresentable(id, r)
	if !repOK {
		c.MarkExposed(id, nil, nil)
		return
	}
	c.MarkExposed(id, &r, conv)
}
