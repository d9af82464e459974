package pb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booldec/booldec/pkg/mip"
)

func declare(t *testing.T, m *Model, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, m.AddBinary(name))
	}
}

func TestAddBinaryDuplicate(t *testing.T) {
	m := New()
	declare(t, m, "x")
	assert.Error(t, m.AddBinary("x"))
}

func TestUndeclaredVariableRejected(t *testing.T) {
	m := New()
	declare(t, m, "x")

	err := m.AddConstraint(mip.Constraint{
		Terms: []mip.Term{{Var: "y", Coeff: 1}},
		Sense: mip.GreaterEq,
		Bound: 1,
	})
	assert.Error(t, err)

	assert.Error(t, m.SetObjective([]mip.Term{{Var: "y", Coeff: 1}}))
}

func TestSolveMaximize(t *testing.T) {
	m := New()
	declare(t, m, "x", "y")

	// x + y <= 1, maximize 2x + 3y: choose y.
	require.NoError(t, m.AddConstraint(mip.Constraint{
		Terms: []mip.Term{{Var: "x", Coeff: 1}, {Var: "y", Coeff: 1}},
		Sense: mip.LessEq,
		Bound: 1,
	}))
	require.NoError(t, m.SetObjective([]mip.Term{{Var: "x", Coeff: 2}, {Var: "y", Coeff: 3}}))

	status, err := m.Solve()
	require.NoError(t, err)
	require.Equal(t, mip.Optimal, status)

	x, err := m.Value("x")
	require.NoError(t, err)
	y, err := m.Value("y")
	require.NoError(t, err)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 1.0, y)
}

func TestSolveNegativeCoefficients(t *testing.T) {
	m := New()
	declare(t, m, "x", "y")

	// x - y >= 0 with maximize -x + 3y forces both on.
	require.NoError(t, m.AddConstraint(mip.Constraint{
		Terms: []mip.Term{{Var: "x", Coeff: 1}, {Var: "y", Coeff: -1}},
		Sense: mip.GreaterEq,
	}))
	require.NoError(t, m.SetObjective([]mip.Term{{Var: "x", Coeff: -1}, {Var: "y", Coeff: 3}}))

	status, err := m.Solve()
	require.NoError(t, err)
	require.Equal(t, mip.Optimal, status)

	x, err := m.Value("x")
	require.NoError(t, err)
	y, err := m.Value("y")
	require.NoError(t, err)
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 1.0, y)
}

func TestSolveFractionalCoefficients(t *testing.T) {
	m := New()
	declare(t, m, "x", "y")

	require.NoError(t, m.AddConstraint(mip.Constraint{
		Terms: []mip.Term{{Var: "x", Coeff: 1}, {Var: "y", Coeff: 1}},
		Sense: mip.LessEq,
		Bound: 1,
	}))
	require.NoError(t, m.SetObjective([]mip.Term{{Var: "x", Coeff: 1.5}, {Var: "y", Coeff: 2.5}}))

	status, err := m.Solve()
	require.NoError(t, err)
	require.Equal(t, mip.Optimal, status)

	y, err := m.Value("y")
	require.NoError(t, err)
	assert.Equal(t, 1.0, y)
}

func TestSolveOpposingObjectiveTerms(t *testing.T) {
	m := New()
	declare(t, m, "x")

	// Soft clauses pulling x both ways must still converge: paying 2
	// for x false beats paying 3 for x true.
	require.NoError(t, m.SetObjective([]mip.Term{{Var: "x", Coeff: 2}, {Var: "x", Coeff: -3}}))

	status, err := m.Solve()
	require.NoError(t, err)
	require.Equal(t, mip.Optimal, status)

	x, err := m.Value("x")
	require.NoError(t, err)
	assert.Equal(t, 0.0, x)
}

func TestSolveInfeasible(t *testing.T) {
	m := New()
	declare(t, m, "x")

	for _, bound := range []float64{0, 1} {
		require.NoError(t, m.AddConstraint(mip.Constraint{
			Terms: []mip.Term{{Var: "x", Coeff: 1}},
			Sense: mip.Equal,
			Bound: bound,
		}))
	}

	status, err := m.Solve()
	require.NoError(t, err)
	assert.Equal(t, mip.Infeasible, status)
}

func TestUnconstrainedVariableResolvable(t *testing.T) {
	m := New()
	declare(t, m, "x")

	status, err := m.Solve()
	require.NoError(t, err)
	require.Equal(t, mip.Optimal, status)

	_, err = m.Value("x")
	assert.NoError(t, err)
}

func TestValueBeforeSolve(t *testing.T) {
	m := New()
	declare(t, m, "x")

	_, err := m.Value("x")
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	m := New()
	declare(t, m, "x", "y")

	require.NoError(t, m.AddConstraint(mip.Constraint{
		Terms: []mip.Term{{Var: "x", Coeff: 1}, {Var: "y", Coeff: 1}},
		Sense: mip.LessEq,
		Bound: 1,
	}))
	require.NoError(t, m.SetObjective([]mip.Term{{Var: "x", Coeff: 2}}))

	s := m.String()
	assert.Contains(t, s, "max: +2 x ;")
	assert.Contains(t, s, "+1 x +1 y <= 1 ;")
}

func TestObjectiveScale(t *testing.T) {
	type tc struct {
		Name  string
		Terms []mip.Term
		Scale float64
	}

	for _, tt := range []tc{
		{
			Name:  "integral",
			Terms: []mip.Term{{Var: "x", Coeff: 2}, {Var: "y", Coeff: -3}},
			Scale: 1,
		},
		{
			Name:  "tenths",
			Terms: []mip.Term{{Var: "x", Coeff: 0.5}},
			Scale: 10,
		},
		{
			Name:  "huge weights shrink below one",
			Terms: []mip.Term{{Var: "x", Coeff: 1e9}},
			Scale: 1e-4,
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			assert.InEpsilon(t, tt.Scale, objectiveScale(tt.Terms), 1e-12)
		})
	}
}

func TestScaleFor(t *testing.T) {
	type tc struct {
		Name   string
		Coeffs []float64
		Scale  float64
	}

	for _, tt := range []tc{
		{Name: "integral", Coeffs: []float64{1, -3, 7}, Scale: 1},
		{Name: "tenths", Coeffs: []float64{0.5, 2}, Scale: 10},
		{Name: "hundredths", Coeffs: []float64{0.25, 1.5}, Scale: 100},
		{Name: "irrational falls back to cap", Coeffs: []float64{1.0 / 3.0}, Scale: maxScale},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			terms := make([]mip.Term, len(tt.Coeffs))
			for i, c := range tt.Coeffs {
				terms[i] = mip.Term{Var: "x", Coeff: c}
			}
			assert.Equal(t, tt.Scale, scaleFor(nil, terms))
		})
	}
}
