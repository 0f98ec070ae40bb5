// Package solver holds the binary integer model produced by the constraint
// compiler and the backends that solve it.
package solver

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

// Sense is the relation of a constraint's left side to its right side
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
	return "?"
}

// FeasTol is the tolerance used when checking constraint satisfaction
const FeasTol = 1e-6

type Term struct {
	Var  int
	Coef float64
}

// Constraint is a labelled linear row over binary variables
type Constraint struct {
	Label string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Eval returns the row activity for assignment x
func (c Constraint) Eval(x []float64) float64 {
	total := 0.0
	for _, t := range c.Terms {
		total += t.Coef * x[t.Var]
	}
	return total
}

func (c Constraint) Satisfied(x []float64) bool {
	return satisfied(c.Eval(x), c.Sense, c.RHS)
}

func satisfied(lhs float64, sense Sense, rhs float64) bool {
	switch sense {
	case LessEq:
		return lhs <= rhs+FeasTol
	case GreaterEq:
		return lhs >= rhs-FeasTol
	default:
		return math.Abs(lhs-rhs) <= FeasTol
	}
}

// Model is a maximization over binary variables. Labels are unique.
type Model struct {
	Names       []string
	Objective   []float64
	Constraints []Constraint
	labels      map[string]struct{}
}

// NewModel creates a model with n binary variables named x0..x(n-1)
func NewModel(n int) *Model {
	names := make([]string, n)
	for i := range names {
		names[i] = "x" + strconv.Itoa(i)
	}
	return &Model{
		Names:     names,
		Objective: make([]float64, n),
		labels:    make(map[string]struct{}),
	}
}

func (m *Model) NumVars() int {
	return len(m.Names)
}

// SetObjective replaces the objective weights
func (m *Model) SetObjective(weights []float64) error {
	if len(weights) != len(m.Names) {
		return fmt.Errorf("objective has %d weights for %d variables", len(weights), len(m.Names))
	}
	copy(m.Objective, weights)
	return nil
}

// AddConstraint appends c and returns the label it was stored under; a
// colliding label gets a numeric suffix.
func (m *Model) AddConstraint(c Constraint) string {
	if m.labels == nil {
		m.labels = make(map[string]struct{})
	}
	if c.Label == "" {
		c.Label = "c" + strconv.Itoa(len(m.Constraints))
	}
	label := c.Label
	for n := 2; ; n++ {
		if _, taken := m.labels[label]; !taken {
			break
		}
		label = c.Label + "#" + strconv.Itoa(n)
	}
	c.Label = label
	m.labels[label] = struct{}{}
	m.Constraints = append(m.Constraints, c)
	return label
}

// Value is the objective value of x
func (m *Model) Value(x []float64) float64 {
	total := 0.0
	for i, w := range m.Objective {
		total += w * x[i]
	}
	return total
}

// Violations lists the labels of constraints x does not satisfy
func (m *Model) Violations(x []float64) []string {
	var out []string
	for _, c := range m.Constraints {
		if !c.Satisfied(x) {
			out = append(out, c.Label)
		}
	}
	return out
}

// Status of a solve
type Status int

const (
	Optimal Status = iota
	Infeasible
)

func (s Status) String() string {
	if s == Optimal {
		return "optimal"
	}
	return "infeasible"
}

type Solution struct {
	Status    Status
	Values    []float64
	Objective float64
}

// Selected returns the variables set to one
func (s *Solution) Selected() []int {
	var out []int
	for i, v := range s.Values {
		if v > 0.5 {
			out = append(out, i)
		}
	}
	return out
}

// Solver solves a Model. Infeasibility is reported through Solution.Status,
// errors are reserved for backend failures.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Solution, error)
}
