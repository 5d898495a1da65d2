package predicate

import (
	"strings"
	"unicode"
)

// Markers of the category mini-language.
const (
	NotMarker = "非"
	OrMarker  = "或"
)

// Kind tags an expression node.
type Kind int

const (
	KindAtom Kind = iota
	KindAnd
	KindOr
	KindNot
)

func (k Kind) String() string {
	switch k {
	case KindAtom:
		return "atom"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindNot:
		return "not"
	default:
		return "invalid"
	}
}

// Expr is a parsed category expression.
// Atom nodes carry Name; And/Or carry Children; Not carries exactly one child.
type Expr struct {
	Kind     Kind
	Name     string
	Children []Expr
}

// Atom builds an atom node.
func Atom(name string) Expr { return Expr{Kind: KindAtom, Name: name} }

// And builds a conjunction node.
func And(children ...Expr) Expr { return Expr{Kind: KindAnd, Children: children} }

// Or builds a disjunction node.
func Or(children ...Expr) Expr { return Expr{Kind: KindOr, Children: children} }

// Not builds a negation node.
func Not(child Expr) Expr { return Expr{Kind: KindNot, Children: []Expr{child}} }

// String renders the expression in the mini-language. Trees the language has
// no grouping for (a negated conjunction, say) render flat.
func (e Expr) String() string {
	switch e.Kind {
	case KindAtom:
		return e.Name
	case KindNot:
		return NotMarker + " " + e.Children[0].operand()
	case KindOr:
		parts := make([]string, len(e.Children))
		for i, c := range e.Children {
			parts[i] = c.String()
		}
		return strings.Join(parts, " "+OrMarker+" ")
	case KindAnd:
		parts := make([]string, len(e.Children))
		for i, c := range e.Children {
			parts[i] = c.operand()
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// Atoms returns the distinct atom names in e, in first-occurrence order.
func (e Expr) Atoms() []string {
	var out []string
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(n Expr) {
		if n.Kind == KindAtom {
			if !seen[n.Name] {
				seen[n.Name] = true
				out = append(out, n.Name)
			}
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(e)
	return out
}

// operand renders a child of a tighter-binding operator. Compound children
// that cannot be written in place are glued into a single token.
func (e Expr) operand() string {
	switch e.Kind {
	case KindAtom, KindNot:
		return e.String()
	case KindAnd:
		if len(e.Children) == 1 {
			return e.Children[0].operand()
		}
	case KindOr:
		parts := make([]string, len(e.Children))
		glued := true
		for i, c := range e.Children {
			if c.Kind != KindAtom {
				glued = false
				break
			}
			parts[i] = c.Name
		}
		if glued {
			return strings.Join(parts, OrMarker)
		}
	}
	// No grouping syntax exists; fall back to the flat form.
	return e.String()
}

// =============================================================================
// PARSER
// =============================================================================

// Parse turns an expression string into a tree. It never fails: every input
// has a reading, and unknown names simply become atoms.
//
//	expr  := conj ("或" conj)*     standalone 或 token
//	conj  := unary+               whitespace conjunction
//	unary := "非" unary | token    standalone 非 token
//	token := glued text; an embedded 非 negates the rest of the token,
//	         an embedded 或 splits it into alternatives
//
// An empty expression is the empty conjunction (true). A dangling operator
// takes the empty atom as its operand.
func Parse(expression string) Expr {
	p := &parser{tokens: strings.FieldsFunc(expression, unicode.IsSpace)}
	return p.parseOr()
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.tokens) {
		return "", false
	}
	return p.tokens[p.pos], true
}

func (p *parser) parseOr() Expr {
	alts := []Expr{p.parseAnd()}
	for {
		tok, ok := p.peek()
		if !ok || tok != OrMarker {
			break
		}
		p.pos++
		alts = append(alts, p.parseAnd())
	}
	if len(alts) == 1 {
		return alts[0]
	}
	return Or(alts...)
}

func (p *parser) parseAnd() Expr {
	var terms []Expr
	for {
		tok, ok := p.peek()
		if !ok || tok == OrMarker {
			break
		}
		terms = append(terms, p.parseUnary())
	}
	if terms == nil {
		// Nothing before a standalone 或, or an empty expression.
		if p.pos == 0 && len(p.tokens) == 0 {
			return And()
		}
		return Atom("")
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return And(terms...)
}

func (p *parser) parseUnary() Expr {
	tok, ok := p.peek()
	if !ok || tok == OrMarker {
		return Atom("")
	}
	p.pos++
	if tok == NotMarker {
		return Not(p.parseUnary())
	}
	return parseToken(tok)
}

// parseToken reads a single whitespace-free token. Negation is checked before
// disjunction, so 非A或B reads as NOT(A或B).
func parseToken(tok string) Expr {
	if strings.Contains(tok, NotMarker) {
		return Not(parseToken(strings.Replace(tok, NotMarker, "", 1)))
	}
	if strings.Contains(tok, OrMarker) {
		parts := strings.Split(tok, OrMarker)
		alts := make([]Expr, len(parts))
		for i, part := range parts {
			alts[i] = parseToken(strings.TrimSpace(part))
		}
		return Or(alts...)
	}
	return Atom(tok)
}
