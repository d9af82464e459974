// Package mip defines the contract between booldec and a linear
// optimization backend. A backend owns the actual solving algorithm;
// this package only fixes the vocabulary: binary variables, linear
// constraints with real coefficients, a single maximize objective,
// and a discrete solve status.
package mip

import "fmt"

// Status is the outcome of a call to Model.Solve. Infeasible and
// Unbounded are expected outcomes of optimization, not errors, and
// are returned as data. Callers must inspect the status before
// trusting variable values.
type Status int

const (
	// NotSolved means no conclusive answer was produced.
	NotSolved Status = iota
	// Optimal means an optimal feasible assignment was found.
	Optimal
	// Infeasible means the constraints admit no assignment.
	Infeasible
	// Unbounded means the objective can grow without limit. A
	// model containing only binary variables never reports it, but
	// backends over more general variable domains may.
	Unbounded
)

func (s Status) String() string {
	switch s {
	case NotSolved:
		return "not solved"
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	}
	return fmt.Sprintf("unknown status %d", int(s))
}

// Sense is the direction of a linear constraint.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	}
	return fmt.Sprintf("unknown sense %d", int(s))
}

// Term is a single coefficient-variable product in a linear form.
type Term struct {
	Var   string
	Coeff float64
}

// Constraint states that the sum of Terms relates to Bound according
// to Sense. Every referenced variable must already be declared on the
// model.
type Constraint struct {
	Terms []Term
	Sense Sense
	Bound float64
}

// Model is a linear optimization model over binary variables.
// Implementations are not safe for concurrent use; booldec sequences
// all calls from a single Problem.
type Model interface {
	// AddBinary declares a new 0/1 variable. Declaring the same
	// name twice is an error.
	AddBinary(name string) error
	// AddConstraint adds a hard linear constraint.
	AddConstraint(c Constraint) error
	// SetObjective sets the linear objective, to be maximized.
	// Terms replace any previously set objective.
	SetObjective(terms []Term) error
	// Solve runs the backend. The returned error reports internal
	// backend failures only; infeasibility is a Status.
	Solve() (Status, error)
	// Value returns the resolved value of a declared variable
	// after a successful Solve.
	Value(name string) (float64, error)
}
