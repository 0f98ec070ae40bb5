package solver

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	boundEps    = 1e-7
	integralTol = 1e-6
)

// BranchAndBound is an in-process binary solver. Every node solves its LP
// relaxation with a warm-started dual simplex, and nonbasic variables whose
// reduced cost already exceeds the gap to the incumbent are fixed for the
// rest of the subtree.
type BranchAndBound struct {
	logger *logrus.Logger
}

func NewBranchAndBound(logger *logrus.Logger) *BranchAndBound {
	return &BranchAndBound{logger: logger}
}

func (b *BranchAndBound) Solve(ctx context.Context, m *Model) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("branch and bound: %w", err)
	}

	start := time.Now()
	s := &search{
		ctx:     ctx,
		model:   m,
		lp:      newBoxedLP(m),
		bestVal: math.Inf(-1),
	}
	if err := s.node(); err != nil {
		return nil, fmt.Errorf("branch and bound: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"variables":   m.NumVars(),
		"constraints": len(m.Constraints),
		"nodes":       s.nodes,
		"pivots":      s.lp.pivots,
		"rc_fixed":    s.rcFixed,
		"lp_failures": s.lpFailures,
		"found":       s.best != nil,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Branch and bound finished")

	if s.best == nil {
		return &Solution{Status: Infeasible}, nil
	}
	return &Solution{Status: Optimal, Values: s.best, Objective: s.bestVal}, nil
}

type search struct {
	ctx   context.Context
	model *Model
	lp    *boxedLP

	best       []float64
	bestVal    float64
	nodes      int
	rcFixed    int
	lpFailures int
}

// consider keeps x when it is feasible and strictly improves the incumbent
func (s *search) consider(x []float64) {
	if len(s.model.Violations(x)) > 0 {
		return
	}
	if val := s.model.Value(x); s.best == nil || val > s.bestVal+boundEps {
		s.best = append([]float64(nil), x...)
		s.bestVal = val
	}
}

func (s *search) node() error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	s.nodes++

	status, err := s.lp.solve()
	if err != nil {
		s.lpFailures++
		s.lp.reset()
		status, err = s.lp.solve()
	}
	if err != nil {
		// no usable relaxation here; branch without a bound
		return s.branch(s.firstFree(), 1)
	}
	if status == lpInfeasible {
		return nil
	}

	bound := s.lp.objective()
	if s.best != nil && bound <= s.bestVal+boundEps {
		return nil
	}

	fixed := s.fixByReducedCost(bound)
	defer s.lp.release(fixed)

	x := s.lp.structural()
	j := s.mostFractional(x)
	if j < 0 {
		rounded := make([]float64, len(x))
		for i, v := range x {
			rounded[i] = math.Round(v)
		}
		if len(s.model.Violations(rounded)) == 0 {
			s.consider(rounded)
			return nil
		}
		j = s.firstFree()
	}

	first := 0.0
	if j >= 0 && x[j] >= 0.5 {
		first = 1
	}
	return s.branch(j, first)
}

// branch explores v = first then the other value. With no free variable left
// the fixed assignment itself is the only candidate.
func (s *search) branch(j int, first float64) error {
	if j < 0 {
		x := make([]float64, s.lp.n)
		copy(x, s.lp.lo[:s.lp.n])
		s.consider(x)
		return nil
	}
	for _, v := range []float64{first, 1 - first} {
		s.lp.fix(j, v)
		err := s.node()
		s.lp.release([]int{j})
		if err != nil {
			return err
		}
	}
	return nil
}

// fixByReducedCost pins nonbasic variables that cannot move off their bound
// without dropping the relaxation below the incumbent
func (s *search) fixByReducedCost(bound float64) []int {
	if s.best == nil {
		return nil
	}
	gap := bound - s.bestVal - boundEps
	var fixed []int
	for j := 0; j < s.lp.n; j++ {
		if s.lp.row[j] >= 0 || !s.lp.isFree(j) {
			continue
		}
		if math.Abs(s.lp.d[j]) > gap {
			s.lp.fix(j, s.lp.value[j])
			fixed = append(fixed, j)
		}
	}
	s.rcFixed += len(fixed)
	return fixed
}

func (s *search) mostFractional(x []float64) int {
	best, bestFrac := -1, integralTol
	for j, v := range x {
		if !s.lp.isFree(j) {
			continue
		}
		if frac := math.Abs(v - math.Round(v)); frac > bestFrac {
			best, bestFrac = j, frac
		}
	}
	return best
}

func (s *search) firstFree() int {
	for j := 0; j < s.lp.n; j++ {
		if s.lp.isFree(j) {
			return j
		}
	}
	return -1
}
