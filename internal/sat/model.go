// Package sat implements the mip.Model contract on top of the gini
// SAT solver for pure feasibility questions. It accepts exactly the
// linear constraints that are expressible as a single propositional
// clause, which covers everything the reformulation engine emits, and
// rejects any nonzero objective.
package sat

import (
	"math"

	"github.com/go-air/gini"
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"

	"github.com/booldec/booldec/pkg/mip"
)

const (
	satisfiable   = 1
	unsatisfiable = -1
)

// ErrNotClausal is returned for linear constraints that have no
// single-clause representation over 0/1 variables.
var ErrNotClausal = errors.New("constraint is not expressible as a clause")

// Model maps variable names to gini literals and feeds clauses to the
// solver as constraints arrive.
type Model struct {
	g       inter.S
	lits    map[string]z.Lit
	inorder []string
	solved  bool
	sat     bool
}

var _ mip.Model = (*Model)(nil)

// New returns an empty model backed by a fresh gini solver.
func New() *Model {
	return &Model{g: gini.New(), lits: make(map[string]z.Lit)}
}

// AddBinary declares a new 0/1 variable.
func (m *Model) AddBinary(name string) error {
	if _, ok := m.lits[name]; ok {
		return errors.Errorf("binary variable %q already declared", name)
	}
	m.lits[name] = m.g.Lit()
	m.inorder = append(m.inorder, name)
	return nil
}

// AddConstraint adds a hard linear constraint, which must be
// expressible as a single clause: after merging duplicate variables,
// every coefficient is +/-1 and the bound matches the clause form, or
// the constraint is trivially true or trivially false.
func (m *Model) AddConstraint(c mip.Constraint) error {
	forms, err := atLeastForms(c)
	if err != nil {
		return err
	}
	for _, f := range forms {
		clause, ok, err := m.clauseOf(f)
		if err != nil {
			return err
		}
		if !ok { // trivially true
			continue
		}
		for _, l := range clause {
			m.g.Add(l)
		}
		m.g.Add(z.LitNull)
	}
	return nil
}

// SetObjective rejects any nonzero objective: this backend only
// answers feasibility.
func (m *Model) SetObjective(terms []mip.Term) error {
	if len(terms) > 0 {
		return errors.New("sat backend does not support an objective")
	}
	return nil
}

// Solve runs the SAT solver. A feasible assignment is reported as
// Optimal, since with an empty objective every feasible assignment
// is.
func (m *Model) Solve() (mip.Status, error) {
	m.solved = false
	switch m.g.Solve() {
	case satisfiable:
		m.solved = true
		m.sat = true
		return mip.Optimal, nil
	case unsatisfiable:
		m.solved = true
		m.sat = false
		return mip.Infeasible, nil
	}
	return mip.NotSolved, nil
}

// Value returns the resolved value of a declared variable after a
// satisfiable Solve.
func (m *Model) Value(name string) (float64, error) {
	if !m.solved || !m.sat {
		return 0, errors.New("model has no satisfying assignment")
	}
	l, ok := m.lits[name]
	if !ok {
		return 0, errors.Errorf("variable %q not declared", name)
	}
	if m.g.Value(l) {
		return 1, nil
	}
	return 0, nil
}

// atLeastForm is a normalized constraint sum(coeff*var) >= bound with
// integer coefficients.
type atLeastForm struct {
	vars   []string
	coeffs []int
	bound  int
}

// atLeastForms rewrites c into one or two at-least forms, merging
// duplicate variables and checking integrality.
func atLeastForms(c mip.Constraint) ([]atLeastForm, error) {
	var (
		order  []string
		coeffs = make(map[string]int, len(c.Terms))
	)
	round := func(x float64) (int, error) {
		r := math.Round(x)
		if math.Abs(x-r) > 1e-9 {
			return 0, errors.Wrapf(ErrNotClausal, "non-integral coefficient %v", x)
		}
		return int(r), nil
	}
	for _, t := range c.Terms {
		w, err := round(t.Coeff)
		if err != nil {
			return nil, err
		}
		if _, ok := coeffs[t.Var]; !ok {
			order = append(order, t.Var)
		}
		coeffs[t.Var] += w
	}
	bound, err := round(c.Bound)
	if err != nil {
		return nil, err
	}
	form := func(neg bool) atLeastForm {
		f := atLeastForm{bound: bound}
		if neg {
			f.bound = -bound
		}
		for _, name := range order {
			w := coeffs[name]
			if w == 0 {
				continue
			}
			if neg {
				w = -w
			}
			f.vars = append(f.vars, name)
			f.coeffs = append(f.coeffs, w)
		}
		return f
	}
	switch c.Sense {
	case mip.GreaterEq:
		return []atLeastForm{form(false)}, nil
	case mip.LessEq:
		return []atLeastForm{form(true)}, nil
	case mip.Equal:
		return []atLeastForm{form(false), form(true)}, nil
	}
	return nil, errors.Errorf("unknown constraint sense %d", c.Sense)
}

// clauseOf turns an at-least form into a clause. With coefficients in
// {-1,+1}, sum(coeff*var) ranges over [-#neg, #pos]; the form is a
// clause exactly when bound == 1-#neg, trivially true when bound is
// at or below the minimum, and trivially false when bound exceeds the
// maximum.
func (m *Model) clauseOf(f atLeastForm) ([]z.Lit, bool, error) {
	neg := 0
	for _, w := range f.coeffs {
		if w != 1 && w != -1 {
			return nil, false, errors.Wrapf(ErrNotClausal, "coefficient %d", w)
		}
		if w == -1 {
			neg++
		}
	}
	pos := len(f.coeffs) - neg
	switch {
	case f.bound <= -neg:
		return nil, false, nil
	case f.bound > pos:
		// Unsatisfiable on its own: the empty clause.
		return []z.Lit{}, true, nil
	case f.bound != 1-neg:
		return nil, false, errors.Wrapf(ErrNotClausal, "bound %d over %d terms", f.bound, len(f.coeffs))
	}
	clause := make([]z.Lit, 0, len(f.vars))
	for i, name := range f.vars {
		l, ok := m.lits[name]
		if !ok {
			return nil, false, errors.Errorf("variable %q not declared", name)
		}
		if f.coeffs[i] == -1 {
			l = l.Not()
		}
		clause = append(clause, l)
	}
	return clause, true, nil
}
