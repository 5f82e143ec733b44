package graphio

import (
	"fmt"
	"strings"
	"unicode"

	"expose/internal/types"
)

// ResolveFunc maps a (module, name) pair to a type. An empty module means
// the fixture's own scope, which includes the prelude.
type ResolveFunc func(module, name string) (types.TypeID, bool)

// ParseTypeExpr parses the fixture type-expression grammar:
//
//	Int32?  OutPointer<Bar>  (Int, Bool)  fn(A) -> B  fn throws() -> C
//	any Renderer & std.Error  foreign.ObjectRoot
func ParseTypeExpr(src string, in *types.Interner, resolve ResolveFunc) (types.TypeID, error) {
	p := &typeParser{src: src, in: in, resolve: resolve}
	t, err := p.parseType()
	if err != nil {
		return types.NoTypeID, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return types.NoTypeID, fmt.Errorf("trailing input %q in type expression %q", p.src[p.pos:], src)
	}
	return t, nil
}

type typeParser struct {
	src     string
	pos     int
	in      *types.Interner
	resolve ResolveFunc
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) eat(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) expect(c byte) error {
	if !p.eat(c) {
		return fmt.Errorf("expected %q at offset %d in %q", string(c), p.pos, p.src)
	}
	return nil
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *typeParser) parseType() (types.TypeID, error) {
	t, err := p.parsePrimary()
	if err != nil {
		return types.NoTypeID, err
	}
	for p.eat('?') {
		t = p.in.Optional(t)
	}
	return t, nil
}

func (p *typeParser) parsePrimary() (types.TypeID, error) {
	if p.peek() == '(' {
		return p.parseTuple()
	}

	save := p.pos
	name := p.ident()
	switch name {
	case "":
		return types.NoTypeID, fmt.Errorf("expected a type at offset %d in %q", p.pos, p.src)
	case "fn":
		return p.parseFn()
	case "any":
		return p.parseExistential()
	case "OutPointer":
		if err := p.expect('<'); err != nil {
			return types.NoTypeID, err
		}
		elem, err := p.parseType()
		if err != nil {
			return types.NoTypeID, err
		}
		if err := p.expect('>'); err != nil {
			return types.NoTypeID, err
		}
		return p.in.Pointer(elem), nil
	}
	p.pos = save
	return p.parseRef()
}

func (p *typeParser) parseTuple() (types.TypeID, error) {
	if err := p.expect('('); err != nil {
		return types.NoTypeID, err
	}
	var elems []types.TypeID
	if p.peek() != ')' {
		for {
			e, err := p.parseType()
			if err != nil {
				return types.NoTypeID, err
			}
			elems = append(elems, e)
			if !p.eat(',') {
				break
			}
		}
	}
	if err := p.expect(')'); err != nil {
		return types.NoTypeID, err
	}
	if len(elems) == 1 {
		return elems[0], nil
	}
	return p.in.RegisterTuple(elems), nil
}

func (p *typeParser) parseFn() (types.TypeID, error) {
	throws := false
	save := p.pos
	if word := p.ident(); word == "throws" {
		throws = true
	} else {
		p.pos = save
	}
	if err := p.expect('('); err != nil {
		return types.NoTypeID, err
	}
	var params []types.TypeID
	if p.peek() != ')' {
		for {
			t, err := p.parseType()
			if err != nil {
				return types.NoTypeID, err
			}
			params = append(params, t)
			if !p.eat(',') {
				break
			}
		}
	}
	if err := p.expect(')'); err != nil {
		return types.NoTypeID, err
	}
	result := p.in.Builtins().Void
	if p.eat('-') {
		if err := p.expect('>'); err != nil {
			return types.NoTypeID, err
		}
		r, err := p.parseType()
		if err != nil {
			return types.NoTypeID, err
		}
		result = r
	}
	return p.in.RegisterFn(params, result, throws), nil
}

func (p *typeParser) parseExistential() (types.TypeID, error) {
	var protocols []types.TypeID
	superclass := types.NoTypeID
	for {
		t, err := p.parseRef()
		if err != nil {
			return types.NoTypeID, err
		}
		if tt, ok := p.in.Lookup(t); ok && tt.Kind == types.KindClass {
			superclass = t
		} else {
			protocols = append(protocols, t)
		}
		if !p.eat('&') {
			break
		}
	}
	return p.in.RegisterExistential(protocols, superclass), nil
}

func (p *typeParser) parseRef() (types.TypeID, error) {
	name := p.ident()
	if name == "" {
		return types.NoTypeID, fmt.Errorf("expected a type name at offset %d in %q", p.pos, p.src)
	}
	module := ""
	if p.eat('.') {
		module = name
		name = p.ident()
		if name == "" {
			return types.NoTypeID, fmt.Errorf("expected a name after %q. in %q", module, p.src)
		}
	}
	if module == "" {
		if t, ok := builtinType(p.in, name); ok {
			return t, nil
		}
	}
	if t, ok := p.resolve(module, name); ok {
		return t, nil
	}
	full := name
	if module != "" {
		full = module + "." + name
	}
	return types.NoTypeID, fmt.Errorf("unknown type %q", full)
}

// builtinType maps the primitive spellings of the fixture grammar.
func builtinType(in *types.Interner, name string) (types.TypeID, bool) {
	b := in.Builtins()
	switch name {
	case "Void":
		return b.Void, true
	case "Never":
		return b.Never, true
	case "Bool":
		return b.Bool, true
	case "String":
		return b.String, true
	case "Int":
		return b.Int, true
	case "UInt":
		return in.Intern(types.MakeUint(types.Width64)), true
	case "Float":
		return b.Float, true
	}
	width := func(w types.Width, make func(types.Width) types.Type) (types.TypeID, bool) {
		return in.Intern(make(w)), true
	}
	switch {
	case strings.HasPrefix(name, "Int"):
		if w, ok := parseWidth(name[3:]); ok {
			return width(w, types.MakeInt)
		}
	case strings.HasPrefix(name, "UInt"):
		if w, ok := parseWidth(name[4:]); ok {
			return width(w, types.MakeUint)
		}
	case strings.HasPrefix(name, "Float"):
		if w, ok := parseWidth(name[5:]); ok && w >= types.Width32 {
			return width(w, types.MakeFloat)
		}
	}
	return types.NoTypeID, false
}

func parseWidth(s string) (types.Width, bool) {
	switch s {
	case "8":
		return types.Width8, true
	case "16":
		return types.Width16, true
	case "32":
		return types.Width32, true
	case "64":
		return types.Width64, true
	default:
		return types.WidthAny, false
	}
}
