package types

import (
	"strings"
)

// ParseString parses a type as a checker renders it in messages
// ("Optional[List[int]]", "int | None", "Dict[<type>, <type>]").
// `<type>` placeholders become Unknown. It reports false on anything else.
func ParseString(s string, res Resolver) (Expr, bool) {
	p := &typeParser{src: s, res: res}
	t, ok := p.union()
	if !ok {
		return Unknown(), false
	}
	p.space()
	if p.pos != len(p.src) {
		return Unknown(), false
	}
	return t, true
}

type typeParser struct {
	src string
	pos int
	res Resolver
}

func (p *typeParser) space() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) eat(c byte) bool {
	p.space()
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) union() (Expr, bool) {
	first, ok := p.atom()
	if !ok {
		return Unknown(), false
	}
	members := []Expr{first}
	for p.eat('|') {
		next, ok := p.atom()
		if !ok {
			return Unknown(), false
		}
		members = append(members, next)
	}
	if len(members) == 1 {
		return first, true
	}
	return Union(members...), true
}

func (p *typeParser) atom() (Expr, bool) {
	p.space()
	if strings.HasPrefix(p.src[p.pos:], "<type>") {
		p.pos += len("<type>")
		return Unknown(), true
	}
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	name := p.src[start:p.pos]
	if name == "" {
		return Unknown(), false
	}
	// builtins.str, typing.List, module.Class
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	base := fromName(name, p.res)
	if !p.eat('[') {
		return base, true
	}
	var args []Expr
	if p.eat('(') {
		// Tuple[()]
		if !p.eat(')') {
			return Unknown(), false
		}
	} else {
		for {
			a, ok := p.union()
			if !ok {
				return Unknown(), false
			}
			args = append(args, a)
			if !p.eat(',') {
				break
			}
		}
	}
	if !p.eat(']') {
		return Unknown(), false
	}
	switch base.Name {
	case "Optional":
		if len(args) != 1 {
			return Unknown(), false
		}
		return Optional(args[0]), true
	case "Union":
		return Union(args...), true
	}
	if base.Kind != KindNamed {
		return Unknown(), false
	}
	base.Args = args
	return base, true
}
