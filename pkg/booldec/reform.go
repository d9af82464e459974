package booldec

import (
	"github.com/pkg/errors"

	"github.com/booldec/booldec/pkg/mip"
)

// reformulate recursively lowers e into a single binary variable plus
// linear constraints forcing that variable to equal e's truth value
// under every 0/1 assignment to its leaves. Results are memoized by
// canonical key, so repeated and shared subexpressions reuse one
// auxiliary and never regenerate constraints.
func (p *Problem) reformulate(e Expr) (*Variable, error) {
	if e == nil {
		return nil, errors.Wrap(ErrInvalidExpression, "cannot reformulate nil")
	}
	key := e.Key()
	if v, ok := p.vars[key]; ok {
		return v, nil
	}

	switch e := e.(type) {
	case Decision:
		// Leaves are declared through AddVar; an unknown one
		// belongs to a different Problem.
		return nil, errors.Wrapf(ErrInvalidExpression, "variable %q not declared here", key)
	case not:
		// Operands lower first so a failure leaves no auxiliary for
		// the enclosing expression behind.
		op, err := p.reformulate(e[0])
		if err != nil {
			return nil, err
		}
		aux, err := p.addVar(key, 0, true)
		if err != nil {
			return nil, err
		}
		// aux is the negation of its operand: aux + v = 1.
		c := mip.Constraint{
			Terms: []mip.Term{
				{Var: aux.name.String(), Coeff: 1},
				{Var: op.name.String(), Coeff: 1},
			},
			Sense: mip.Equal,
			Bound: 1,
		}
		if err := p.model.AddConstraint(c); err != nil {
			return nil, errors.Wrapf(err, "encoding %q", key)
		}
		return aux, nil
	case and:
		if len(e) == 0 {
			return nil, errors.Wrap(ErrInvalidExpression, "empty conjunction")
		}
		ops, err := p.reformulateAll(e)
		if err != nil {
			return nil, err
		}
		aux, err := p.addVar(key, 0, true)
		if err != nil {
			return nil, err
		}
		// Any false operand forces aux to false: aux <= v.
		for _, op := range ops {
			c := mip.Constraint{
				Terms: []mip.Term{
					{Var: aux.name.String(), Coeff: 1},
					{Var: op.name.String(), Coeff: -1},
				},
				Sense: mip.LessEq,
				Bound: 0,
			}
			if err := p.model.AddConstraint(c); err != nil {
				return nil, errors.Wrapf(err, "encoding %q", key)
			}
		}
		// All operands true forces aux to true:
		// sum(v) <= aux + n - 1.
		c := mip.Constraint{Sense: mip.LessEq, Bound: float64(len(ops) - 1)}
		for _, op := range ops {
			c.Terms = append(c.Terms, mip.Term{Var: op.name.String(), Coeff: 1})
		}
		c.Terms = append(c.Terms, mip.Term{Var: aux.name.String(), Coeff: -1})
		if err := p.model.AddConstraint(c); err != nil {
			return nil, errors.Wrapf(err, "encoding %q", key)
		}
		return aux, nil
	case or:
		if len(e) == 0 {
			return nil, errors.Wrap(ErrInvalidExpression, "empty disjunction")
		}
		ops, err := p.reformulateAll(e)
		if err != nil {
			return nil, err
		}
		aux, err := p.addVar(key, 0, true)
		if err != nil {
			return nil, err
		}
		// Any true operand forces aux to true: aux >= v.
		for _, op := range ops {
			c := mip.Constraint{
				Terms: []mip.Term{
					{Var: aux.name.String(), Coeff: 1},
					{Var: op.name.String(), Coeff: -1},
				},
				Sense: mip.GreaterEq,
				Bound: 0,
			}
			if err := p.model.AddConstraint(c); err != nil {
				return nil, errors.Wrapf(err, "encoding %q", key)
			}
		}
		// All operands false forces aux to false: sum(v) >= aux.
		c := mip.Constraint{Sense: mip.GreaterEq, Bound: 0}
		for _, op := range ops {
			c.Terms = append(c.Terms, mip.Term{Var: op.name.String(), Coeff: 1})
		}
		c.Terms = append(c.Terms, mip.Term{Var: aux.name.String(), Coeff: -1})
		if err := p.model.AddConstraint(c); err != nil {
			return nil, errors.Wrapf(err, "encoding %q", key)
		}
		return aux, nil
	default:
		// The Expr set is closed, so this branch is unreachable
		// unless a new variant is added without handling here.
		return nil, errors.Wrapf(ErrInvalidExpression, "unhandled expression %T", e)
	}
}

func (p *Problem) reformulateAll(es []Expr) ([]*Variable, error) {
	vs := make([]*Variable, len(es))
	for i, e := range es {
		v, err := p.reformulate(e)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}
