// Package pb implements the mip.Model contract on top of the
// gophersat pseudo-boolean solver. Linear constraints over binary
// variables are lowered to hard pseudo-boolean constraints, and the
// maximize objective becomes a set of unit-weight soft clauses, so
// that the MaxSAT optimum coincides with the requested optimum.
package pb

import (
	"fmt"
	"math"
	"strings"

	"github.com/crillab/gophersat/maxsat"
	"github.com/pkg/errors"

	"github.com/booldec/booldec/pkg/mip"
)

// maxScale caps the power-of-ten factor used to turn real
// coefficients into the integer weights gophersat works with.
// Coefficients that are not integral at this precision are rounded.
const maxScale = 1e6

// maxSoft bounds how many soft clauses the objective expands into.
// The objective scale is reduced, rounding coefficients, when the
// expansion would exceed it.
const maxSoft = 100000

// Model accumulates variables, constraints and an objective, then
// lowers everything to a single gophersat problem on Solve.
type Model struct {
	declared  map[string]struct{}
	inorder   []string
	constrs   []mip.Constraint
	objective []mip.Term
	values    maxsat.Model
	solved    bool
}

var _ mip.Model = (*Model)(nil)

// New returns an empty model.
func New() *Model {
	return &Model{declared: make(map[string]struct{})}
}

// AddBinary declares a new 0/1 variable.
func (m *Model) AddBinary(name string) error {
	if _, ok := m.declared[name]; ok {
		return errors.Errorf("binary variable %q already declared", name)
	}
	m.declared[name] = struct{}{}
	m.inorder = append(m.inorder, name)
	return nil
}

// AddConstraint adds a hard linear constraint. All referenced
// variables must be declared.
func (m *Model) AddConstraint(c mip.Constraint) error {
	if err := m.checkTerms(c.Terms); err != nil {
		return err
	}
	m.constrs = append(m.constrs, c)
	return nil
}

// SetObjective replaces the maximize objective.
func (m *Model) SetObjective(terms []mip.Term) error {
	if err := m.checkTerms(terms); err != nil {
		return err
	}
	m.objective = terms
	return nil
}

func (m *Model) checkTerms(terms []mip.Term) error {
	for _, t := range terms {
		if _, ok := m.declared[t.Var]; !ok {
			return errors.Errorf("variable %q not declared", t.Var)
		}
		if math.IsNaN(t.Coeff) || math.IsInf(t.Coeff, 0) {
			return errors.Errorf("coefficient %v of %q is not finite", t.Coeff, t.Var)
		}
	}
	return nil
}

// Solve lowers the model to a gophersat MaxSAT problem and runs it.
func (m *Model) Solve() (mip.Status, error) {
	m.solved = false
	scale := scaleFor(m.constrs, nil)

	var constrs []maxsat.Constr
	// Registering every declared variable through a tautology
	// keeps variables that appear nowhere else resolvable.
	for _, name := range m.inorder {
		constrs = append(constrs, maxsat.HardClause(maxsat.Var(name), maxsat.Not(name)))
	}
	for _, c := range m.constrs {
		lowered, err := lower(c, scale)
		if err != nil {
			return mip.NotSolved, err
		}
		constrs = append(constrs, lowered...)
	}
	// Maximizing c*x means paying c whenever x is false. The solver's
	// strengthening loop only terminates reliably on unit weights, so
	// a weight-w term becomes w unit-weight soft clauses rather than
	// one clause of weight w.
	objScale := objectiveScale(m.objective)
	for _, t := range m.objective {
		w := int(math.Round(t.Coeff * objScale))
		lit := maxsat.Var(t.Var)
		if w < 0 {
			w = -w
			lit = maxsat.Not(t.Var)
		}
		for i := 0; i < w; i++ {
			constrs = append(constrs, maxsat.SoftClause(lit))
		}
	}

	model, cost := maxsat.New(constrs...).Solve()
	if model == nil {
		if cost != -1 {
			return mip.NotSolved, errors.Errorf("solver returned no model with cost %d", cost)
		}
		return mip.Infeasible, nil
	}
	m.values = model
	m.solved = true
	return mip.Optimal, nil
}

// Value returns the resolved value of a declared variable after a
// successful Solve.
func (m *Model) Value(name string) (float64, error) {
	if !m.solved {
		return 0, errors.New("model has not been solved")
	}
	if _, ok := m.declared[name]; !ok {
		return 0, errors.Errorf("variable %q not declared", name)
	}
	if m.values[name] {
		return 1, nil
	}
	return 0, nil
}

// String renders the model in an OPB-like text form, useful for
// debugging the lowered encoding.
func (m *Model) String() string {
	var b strings.Builder
	if len(m.objective) > 0 {
		b.WriteString("max:")
		for _, t := range m.objective {
			fmt.Fprintf(&b, " %+g %s", t.Coeff, t.Var)
		}
		b.WriteString(" ;\n")
	}
	for _, c := range m.constrs {
		for _, t := range c.Terms {
			fmt.Fprintf(&b, "%+g %s ", t.Coeff, t.Var)
		}
		fmt.Fprintf(&b, "%s %g ;\n", c.Sense, c.Bound)
	}
	return b.String()
}

// lower translates one linear constraint into equivalent hard
// pseudo-boolean constraints in at-least form with positive weights.
// Duplicate variables within a constraint are merged first; negative
// weights are eliminated by the substitution x = 1 - !x. Trivially
// true forms are dropped and trivially false ones become the empty
// clause.
func lower(c mip.Constraint, scale float64) ([]maxsat.Constr, error) {
	var (
		order  []string
		coeffs = make(map[string]int, len(c.Terms))
	)
	for _, t := range c.Terms {
		if _, ok := coeffs[t.Var]; !ok {
			order = append(order, t.Var)
		}
		coeffs[t.Var] += int(math.Round(t.Coeff * scale))
	}
	bound := int(math.Round(c.Bound * scale))

	atLeast := func(flip bool) (maxsat.Constr, bool) {
		var (
			lits    []maxsat.Lit
			weights []int
			sum     int
		)
		b := bound
		if flip {
			b = -b
		}
		for _, name := range order {
			w := coeffs[name]
			if flip {
				w = -w
			}
			switch {
			case w > 0:
				lits = append(lits, maxsat.Var(name))
			case w < 0:
				w = -w
				b += w
				lits = append(lits, maxsat.Not(name))
			default:
				continue
			}
			weights = append(weights, w)
			sum += w
		}
		if b <= 0 { // trivially true
			return maxsat.Constr{}, false
		}
		if b > sum { // trivially false
			return maxsat.HardClause(), true
		}
		return maxsat.HardPBConstr(lits, weights, b), true
	}

	var out []maxsat.Constr
	appendForm := func(flip bool) {
		if constr, ok := atLeast(flip); ok {
			out = append(out, constr)
		}
	}
	switch c.Sense {
	case mip.GreaterEq:
		appendForm(false)
	case mip.LessEq:
		appendForm(true)
	case mip.Equal:
		appendForm(false)
		appendForm(true)
	default:
		return nil, errors.Errorf("unknown constraint sense %d", c.Sense)
	}
	return out, nil
}

// objectiveScale picks the scale for objective weights: the smallest
// power of ten making every coefficient integral, then reduced until
// the total unit-clause expansion fits the maxSoft budget.
func objectiveScale(objective []mip.Term) float64 {
	total := func(scale float64) int {
		var n int
		for _, t := range objective {
			w := int(math.Round(t.Coeff * scale))
			if w < 0 {
				w = -w
			}
			n += w
		}
		return n
	}
	scale := scaleFor(nil, objective)
	for total(scale) > maxSoft && scale > 1/maxScale {
		scale /= 10
	}
	return scale
}

// scaleFor picks the smallest power of ten that makes every
// coefficient and bound integral, up to maxScale.
func scaleFor(constrs []mip.Constraint, objective []mip.Term) float64 {
	const eps = 1e-9
	integral := func(scale float64) bool {
		near := func(x float64) bool {
			x *= scale
			return math.Abs(x-math.Round(x)) <= eps*math.Max(1, math.Abs(x))
		}
		for _, c := range constrs {
			if !near(c.Bound) {
				return false
			}
			for _, t := range c.Terms {
				if !near(t.Coeff) {
					return false
				}
			}
		}
		for _, t := range objective {
			if !near(t.Coeff) {
				return false
			}
		}
		return true
	}
	for scale := 1.0; scale <= maxScale; scale *= 10 {
		if integral(scale) {
			return scale
		}
	}
	return maxScale
}
