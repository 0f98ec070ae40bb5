package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddConstraint_UniqueLabels(t *testing.T) {
	m := NewModel(2)

	assert.Equal(t, "team_limit_NE", m.AddConstraint(Constraint{Label: "team_limit_NE", Sense: LessEq, RHS: 3}))
	assert.Equal(t, "team_limit_NE#2", m.AddConstraint(Constraint{Label: "team_limit_NE", Sense: LessEq, RHS: 3}))
	assert.Equal(t, "team_limit_NE#3", m.AddConstraint(Constraint{Label: "team_limit_NE", Sense: LessEq, RHS: 3}))
	assert.Equal(t, "c3", m.AddConstraint(Constraint{Sense: LessEq}))

	seen := map[string]bool{}
	for _, c := range m.Constraints {
		require.False(t, seen[c.Label], c.Label)
		seen[c.Label] = true
	}
}

func TestViolations(t *testing.T) {
	m := NewModel(3)
	m.AddConstraint(Constraint{Label: "total", Terms: []Term{{0, 1}, {1, 1}, {2, 1}}, Sense: Equal, RHS: 2})
	m.AddConstraint(Constraint{Label: "cap", Terms: []Term{{0, 5}, {1, 5}}, Sense: LessEq, RHS: 5})
	m.AddConstraint(Constraint{Label: "need2", Terms: []Term{{2, 1}}, Sense: GreaterEq, RHS: 1})

	assert.Empty(t, m.Violations([]float64{1, 0, 1}))
	assert.Equal(t, []string{"cap", "need2"}, m.Violations([]float64{1, 1, 0}))
}

func TestSetObjective_LengthMismatch(t *testing.T) {
	m := NewModel(2)
	assert.Error(t, m.SetObjective([]float64{1}))
	require.NoError(t, m.SetObjective([]float64{1, 2}))
	assert.Equal(t, 3.0, m.Value([]float64{1, 1}))
}

func TestSolution_Selected(t *testing.T) {
	s := &Solution{Values: []float64{0, 1, 0.9999999, 0}}
	assert.Equal(t, []int{1, 2}, s.Selected())
}
