// Package booldec models boolean decision problems: maximize a linear
// objective over binary decisions subject to boolean constraints. The
// boolean structure is lowered to linear inequalities over 0/1
// variables and handed to a linear optimization backend for solving.
package booldec

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/booldec/booldec/internal/pb"
	"github.com/booldec/booldec/pkg/mip"
)

// DuplicateName is returned when declaring a variable, including an
// auxiliary generated during reformulation, whose name already exists
// in the Problem.
type DuplicateName Identifier

func (e DuplicateName) Error() string {
	return fmt.Sprintf("variable %q already exists", Identifier(e))
}

// ErrInvalidExpression is returned when an operation expected to
// receive an expression built from this package's constructors
// receives something else.
var ErrInvalidExpression = errors.New("not a boolean expression")

// Variable is a declared binary decision, either user-facing or an
// auxiliary introduced by reformulation. Auxiliaries always carry an
// objective coefficient of zero and never appear in solutions.
type Variable struct {
	name      Identifier
	coeff     float64
	auxiliary bool
}

// Identifier returns the Identifier that uniquely identifies this
// Variable among all other Variables in a given Problem.
func (v *Variable) Identifier() Identifier {
	return v.name
}

// ObjectiveCoeff returns the variable's coefficient in the maximize
// objective.
func (v *Variable) ObjectiveCoeff() float64 {
	return v.coeff
}

// Auxiliary reports whether the variable was introduced by
// reformulation rather than declared by the caller.
func (v *Variable) Auxiliary() bool {
	return v.auxiliary
}

// Decision returns the leaf expression referencing this variable.
func (v *Variable) Decision() Decision {
	return Decision{name: v.name}
}

func (v *Variable) String() string {
	return v.name.String()
}

// Problem is a single boolean optimization session. It owns all
// variables and constraints it creates and is mutated only through
// AddVar, AssertTrue and Solve. A Problem is not safe for concurrent
// use; calls must be sequenced by a single caller.
type Problem struct {
	name     string
	vars     map[Identifier]*Variable
	inorder  []*Variable
	asserted map[Identifier]struct{}
	model    mip.Model
	status   mip.Status
}

// Option configures a Problem during construction.
type Option func(p *Problem) error

// WithName sets a human-readable name for the problem.
func WithName(name string) Option {
	return func(p *Problem) error {
		p.name = name
		return nil
	}
}

// WithModel sets the optimization backend. The default is a
// pseudo-boolean backend that needs no external solver process.
func WithModel(m mip.Model) Option {
	return func(p *Problem) error {
		if m == nil {
			return errors.New("nil model")
		}
		p.model = m
		return nil
	}
}

var defaults = []Option{
	func(p *Problem) error {
		if p.model == nil {
			p.model = pb.New()
		}
		return nil
	},
}

// New returns an empty Problem.
func New(options ...Option) (*Problem, error) {
	p := Problem{
		vars:     make(map[Identifier]*Variable),
		asserted: make(map[Identifier]struct{}),
	}
	for _, option := range append(options, defaults...) {
		if err := option(&p); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// Name returns the name given at construction, if any.
func (p *Problem) Name() string {
	return p.name
}

// AddVar declares a new binary decision variable with the given
// objective coefficient and returns its leaf expression. Declaring a
// name twice returns a DuplicateName error and leaves the Problem
// unchanged.
func (p *Problem) AddVar(name string, coeff float64) (Decision, error) {
	v, err := p.addVar(Identifier(name), coeff, false)
	if err != nil {
		return Decision{}, err
	}
	return v.Decision(), nil
}

func (p *Problem) addVar(name Identifier, coeff float64, auxiliary bool) (*Variable, error) {
	if _, ok := p.vars[name]; ok {
		return nil, DuplicateName(name)
	}
	if err := p.model.AddBinary(name.String()); err != nil {
		return nil, errors.Wrapf(err, "declaring variable %q", name)
	}
	v := &Variable{name: name, coeff: coeff, auxiliary: auxiliary}
	p.vars[name] = v
	p.inorder = append(p.inorder, v)
	return v, nil
}

// AssertTrue adds the hard constraint that e must be true in every
// solution. Asserting the same expression more than once is a no-op.
func (p *Problem) AssertTrue(e Expr) error {
	if e == nil {
		return errors.Wrap(ErrInvalidExpression, "cannot assert nil")
	}
	if d, ok := e.(Decision); ok {
		key := d.Key()
		if _, ok := p.vars[key]; !ok {
			return errors.Wrapf(ErrInvalidExpression, "variable %q not declared here", key)
		}
		if _, ok := p.asserted[key]; ok {
			return nil
		}
		c := mip.Constraint{
			Terms: []mip.Term{{Var: key.String(), Coeff: 1}},
			Sense: mip.Equal,
			Bound: 1,
		}
		if err := p.model.AddConstraint(c); err != nil {
			return errors.Wrapf(err, "fixing variable %q", key)
		}
		p.asserted[key] = struct{}{}
		return nil
	}
	v, err := p.reformulate(e)
	if err != nil {
		return err
	}
	return p.AssertTrue(v.Decision())
}

// Solve assembles the maximize objective from all variables with a
// nonzero coefficient and runs the backend. The returned status is
// data: Infeasible and Unbounded are expected outcomes, not errors.
// Solve blocks for a solver-dependent, unbounded duration; ctx is
// only consulted before the backend call.
func (p *Problem) Solve(ctx context.Context) (mip.Status, error) {
	if err := ctx.Err(); err != nil {
		return mip.NotSolved, err
	}
	var terms []mip.Term
	for _, v := range p.inorder {
		if v.coeff != 0 {
			terms = append(terms, mip.Term{Var: v.name.String(), Coeff: v.coeff})
		}
	}
	if err := p.model.SetObjective(terms); err != nil {
		return mip.NotSolved, errors.Wrap(err, "setting objective")
	}
	status, err := p.model.Solve()
	if err != nil {
		// A stale Optimal status must not keep serving the previous
		// solution through Solution.
		p.status = mip.NotSolved
		return mip.NotSolved, errors.Wrap(err, "solving")
	}
	p.status = status
	return status, nil
}

// Solution returns every non-auxiliary variable whose resolved value
// exceeds 0.5, in declaration order. It is only meaningful after a
// Solve that reported Optimal; auxiliary variables are never
// included.
func (p *Problem) Solution() ([]Variable, error) {
	if p.status != mip.Optimal {
		return nil, nil
	}
	var sol []Variable
	for _, v := range p.inorder {
		if v.auxiliary {
			continue
		}
		val, err := p.model.Value(v.name.String())
		if err != nil {
			return nil, errors.Wrapf(err, "reading value of %q", v.name)
		}
		if val > 0.5 {
			sol = append(sol, *v)
		}
	}
	return sol, nil
}
