package booldec

import "strings"

// Identifier values uniquely identify declared variables and
// reformulated subexpressions within a single Problem. For a compound
// expression the Identifier is its canonical key: a deterministic
// string derived from the expression structure, with operand keys
// joined in the order the operands were supplied. Expressions that
// differ only in operand order therefore have distinct keys and are
// treated as distinct subexpressions.
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// Expr is a boolean formula over declared decision variables. The set
// of implementations is closed: Decision leaves obtained from
// Problem.AddVar, and the Not, And and Or compositions built by the
// constructors in this package. Expressions are immutable values and
// may be freely shared and reused across assertions.
type Expr interface {
	// Key returns the canonical key identifying this expression's
	// structure. Key equality, never value identity, is what the
	// Problem uses for memoization and deduplication.
	Key() Identifier
	// Eval returns the truth value of the expression under the
	// given assignment. It panics if a referenced variable has no
	// binding.
	Eval(model map[Identifier]bool) bool
	String() string

	expr() // closed set marker
}

// Decision is a leaf expression referencing a declared variable. The
// zero value is not valid; obtain one from Problem.AddVar.
type Decision struct {
	name Identifier
}

func (d Decision) Key() Identifier {
	return d.name
}

func (d Decision) Eval(model map[Identifier]bool) bool {
	b, ok := model[d.name]
	if !ok {
		panic("no binding for variable " + d.name.String())
	}
	return b
}

func (d Decision) String() string {
	return d.name.String()
}

func (d Decision) expr() {}

type not [1]Expr

// Not returns the negation of e.
func Not(e Expr) Expr {
	return not{e}
}

func (n not) Key() Identifier {
	return "Not(" + n[0].Key() + ")"
}

func (n not) Eval(model map[Identifier]bool) bool {
	return !n[0].Eval(model)
}

func (n not) String() string {
	return "~" + n[0].String()
}

func (n not) expr() {}

type and []Expr

// And returns the conjunction of the given subexpressions, which are
// kept in the order supplied. At least one operand is required.
func And(es ...Expr) Expr {
	return and(es)
}

func (a and) Key() Identifier {
	return "And(" + joinKeys(a) + ")"
}

func (a and) Eval(model map[Identifier]bool) bool {
	for _, e := range a {
		if !e.Eval(model) {
			return false
		}
	}
	return true
}

func (a and) String() string {
	return "(" + joinStrings(a, " & ") + ")"
}

func (a and) expr() {}

type or []Expr

// Or returns the disjunction of the given subexpressions, which are
// kept in the order supplied. At least one operand is required.
func Or(es ...Expr) Expr {
	return or(es)
}

func (o or) Key() Identifier {
	return "Or(" + joinKeys(o) + ")"
}

func (o or) Eval(model map[Identifier]bool) bool {
	for _, e := range o {
		if e.Eval(model) {
			return true
		}
	}
	return false
}

func (o or) String() string {
	return "(" + joinStrings(o, " | ") + ")"
}

func (o or) expr() {}

// Implies returns an expression that is true unless a is true and b
// is false.
func Implies(a, b Expr) Expr {
	return Or(Not(a), b)
}

// Equiv returns an expression that is true when a and b have the same
// truth value.
func Equiv(a, b Expr) Expr {
	return And(Or(Not(a), b), Or(a, Not(b)))
}

// Xor returns an expression that is true when exactly one of a and b
// is true.
func Xor(a, b Expr) Expr {
	return And(Or(Not(a), Not(b)), Or(a, b))
}

func joinKeys(es []Expr) Identifier {
	keys := make([]string, len(es))
	for i, e := range es {
		keys[i] = e.Key().String()
	}
	return Identifier(strings.Join(keys, "_"))
}

func joinStrings(es []Expr, sep string) string {
	strs := make([]string, len(es))
	for i, e := range es {
		strs[i] = e.String()
	}
	return strings.Join(strs, sep)
}
