// Package predicate evaluates category expressions against reading records.
//
// An expression is a whitespace-separated conjunction of terms. A term may be
// negated with 非 or split into alternatives with 或, either as standalone
// tokens ("銳音 非 莊組", "一等 或 二等") or glued inside a token ("非開口",
// "一等或二等"). Atoms name category tests such as 開口, 三等, 入聲, A類 or a
// rhyme group like 尤侯韻.
//
// Unknown atoms evaluate to false. Nothing in this package returns an error.
package predicate

import (
	"sync"

	"kwangun/internal/logging"
	"kwangun/internal/types"
)

// Evaluator resolves atoms through a stack of catalogs and resolvers and
// evaluates expressions. It is immutable after construction and safe for
// concurrent use.
type Evaluator struct {
	atoms     Catalog
	resolvers []Resolver

	parsed   sync.Map // expression string -> Expr
	resolved sync.Map // atom name -> Test; a nil Test marks an unknown atom
}

// New builds an evaluator over the given catalogs. Later catalogs override
// atoms of earlier ones. The rhyme-group resolver is always installed.
func New(catalogs ...Catalog) *Evaluator {
	merged := make(Catalog)
	for _, c := range catalogs {
		for name, test := range c {
			merged[name] = test
		}
	}
	return &Evaluator{
		atoms:     merged,
		resolvers: []Resolver{RhymeGroupResolver},
	}
}

// WithResolvers returns a new evaluator that additionally consults rs, ahead
// of the built-in resolvers.
func (ev *Evaluator) WithResolvers(rs ...Resolver) *Evaluator {
	next := &Evaluator{
		atoms:     ev.atoms,
		resolvers: append(append([]Resolver{}, rs...), ev.resolvers...),
	}
	return next
}

var (
	defaultOnce sync.Once
	defaultEval *Evaluator
)

// Default returns the shared evaluator over the base catalog.
func Default() *Evaluator {
	defaultOnce.Do(func() {
		defaultEval = New(Base())
	})
	return defaultEval
}

// Evaluate reports whether record satisfies expression under the base catalog.
func Evaluate(record types.Record, expression string) bool {
	return Default().Is(record, expression)
}

// Is reports whether record satisfies expression.
func (ev *Evaluator) Is(record types.Record, expression string) bool {
	return ev.Eval(record, ev.Parse(expression))
}

// Parse returns the cached tree for expression.
func (ev *Evaluator) Parse(expression string) Expr {
	if cached, ok := ev.parsed.Load(expression); ok {
		return cached.(Expr)
	}
	e := Parse(expression)
	ev.parsed.Store(expression, e)
	return e
}

// Eval evaluates a parsed tree.
func (ev *Evaluator) Eval(record types.Record, e Expr) bool {
	switch e.Kind {
	case KindAtom:
		return ev.atom(record, e.Name)
	case KindNot:
		return !ev.Eval(record, e.Children[0])
	case KindAnd:
		for _, c := range e.Children {
			if !ev.Eval(record, c) {
				return false
			}
		}
		return true
	case KindOr:
		for _, c := range e.Children {
			if ev.Eval(record, c) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Known reports whether name resolves to a test.
func (ev *Evaluator) Known(name string) bool {
	return ev.lookup(name) != nil
}

// Unknown returns the atoms of expression that resolve to no test. A dangling
// operator shows up as the empty name.
func (ev *Evaluator) Unknown(expression string) []string {
	var out []string
	for _, name := range ev.Parse(expression).Atoms() {
		if !ev.Known(name) {
			out = append(out, name)
		}
	}
	return out
}

func (ev *Evaluator) atom(record types.Record, name string) bool {
	test := ev.lookup(name)
	if test == nil {
		logging.PredicateDebug("unknown category %q evaluates false", name)
		return false
	}
	return test(ev, record)
}

func (ev *Evaluator) lookup(name string) Test {
	if test, ok := ev.atoms[name]; ok {
		return test
	}
	if cached, ok := ev.resolved.Load(name); ok {
		return cached.(Test)
	}
	var found Test
	for _, r := range ev.resolvers {
		if test, ok := r(name); ok {
			found = test
			break
		}
	}
	ev.resolved.Store(name, found)
	return found
}

func logMissing(f types.Feature) {
	logging.PredicateDebug("record has no %s feature; test evaluates false", f)
}
