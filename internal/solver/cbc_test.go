package solver

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLP(t *testing.T) {
	m := NewModel(3)
	require.NoError(t, m.SetObjective([]float64{22, 14.5, 0}))
	m.AddConstraint(Constraint{Label: "salary max", Terms: []Term{{0, 7500}, {1, 6000}, {2, 5500}}, Sense: LessEq, RHS: 50000})
	m.AddConstraint(Constraint{Label: "stack NE/QB", Terms: []Term{{1, 1}, {2, 1}, {0, -2}}, Sense: GreaterEq, RHS: 0})
	m.AddConstraint(Constraint{Label: "noop", Sense: LessEq, RHS: 0})

	var buf bytes.Buffer
	require.NoError(t, WriteLP(&buf, m))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Maximize\n obj: 22 x0 + 14.5 x1 + 0 x2\n"))
	assert.Contains(t, out, " c0_salary_max: 7500 x0 + 6000 x1 + 5500 x2 <= 50000\n")
	assert.Contains(t, out, " c1_stack_NE_QB: 1 x1 + 1 x2 - 2 x0 >= 0\n")
	assert.NotContains(t, out, "noop")
	assert.Contains(t, out, "Binaries\n x0 x1 x2\nEnd\n")
}

func TestParseSolution(t *testing.T) {
	m := NewModel(3)
	require.NoError(t, m.SetObjective([]float64{1, 2, 3}))

	sol, err := ParseSolution(strings.NewReader(
		"Optimal - objective value 4.00000000\n"+
			"      0 c0_total                 2                       0\n"+
			"      0 x0                       1                      -1\n"+
			"**    2 x2                       1                      -3\n"), m)
	require.NoError(t, err)
	assert.Equal(t, Optimal, sol.Status)
	assert.Equal(t, []float64{1, 0, 1}, sol.Values)
	assert.Equal(t, 4.0, sol.Objective)

	sol, err = ParseSolution(strings.NewReader("Infeasible - objective value 0.00000000\n"), m)
	require.NoError(t, err)
	assert.Equal(t, Infeasible, sol.Status)

	_, err = ParseSolution(strings.NewReader("Stopped on time - objective value 3\n"), m)
	assert.Error(t, err)
}
