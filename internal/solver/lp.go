package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	primalTol     = 1e-9
	dualTol       = 1e-9
	pivotTol      = 1e-9
	refactorEvery = 200
)

var errIterationLimit = errors.New("dual simplex iteration limit reached")

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
)

// boxedLP is the LP relaxation of a Model kept as a dense tableau:
//
//	min cost·z  s.t.  [A | I] z = b,  lo <= z <= hi
//
// with one column per model variable followed by one slack per row. Every
// structural column is boxed, so any basis can be made dual feasible by
// parking each nonbasic column at the bound its reduced cost prefers. Bound
// changes between solves keep that property, which lets every solve resume
// from the previous basis with the dual simplex.
type boxedLP struct {
	n, m int

	a      *mat.Dense // [A | I] with rows scaled to unit max coefficient
	b      []float64
	cost   []float64
	lo, hi []float64

	tab   *mat.Dense // B⁻¹[A | I]
	basis []int      // column basic in each row
	row   []int      // row of a basic column, -1 when nonbasic
	value []float64
	d     []float64 // reduced costs

	pivots int
}

func newBoxedLP(model *Model) *boxedLP {
	n := model.NumVars()
	constraints := model.Constraints
	if len(constraints) == 0 {
		// gonum matrices need at least one row
		constraints = []Constraint{{Label: "empty", Sense: LessEq}}
	}
	m := len(constraints)
	cols := n + m

	lp := &boxedLP{
		n:     n,
		m:     m,
		a:     mat.NewDense(m, cols, nil),
		b:     make([]float64, m),
		cost:  make([]float64, cols),
		lo:    make([]float64, cols),
		hi:    make([]float64, cols),
		tab:   mat.NewDense(m, cols, nil),
		basis: make([]int, m),
		row:   make([]int, cols),
		value: make([]float64, cols),
		d:     make([]float64, cols),
	}

	for j := 0; j < n; j++ {
		lp.cost[j] = -model.Objective[j]
		lp.hi[j] = 1
	}

	for i, c := range constraints {
		coefs := lp.a.RawRowView(i)
		for _, t := range c.Terms {
			coefs[t.Var] += t.Coef
		}
		scale := 0.0
		for _, v := range coefs[:n] {
			scale = math.Max(scale, math.Abs(v))
		}
		if scale == 0 {
			scale = 1
		}
		floats.Scale(1/scale, coefs[:n])
		lp.b[i] = c.RHS / scale

		slack := n + i
		coefs[slack] = 1
		switch c.Sense {
		case LessEq:
			lp.hi[slack] = math.Inf(1)
		case GreaterEq:
			lp.lo[slack] = math.Inf(-1)
		}
	}

	lp.reset()
	return lp
}

// reset returns to the all-slack basis
func (lp *boxedLP) reset() {
	lp.tab.Copy(lp.a)
	for j := range lp.row {
		lp.row[j] = -1
	}
	for i := range lp.basis {
		lp.basis[i] = lp.n + i
		lp.row[lp.n+i] = i
	}
	copy(lp.d, lp.cost)
	for j := lp.n; j < lp.n+lp.m; j++ {
		lp.d[j] = 0
	}
	for j := 0; j < lp.n; j++ {
		lp.value[j] = lp.lo[j]
	}
	lp.pivots = 0
}

func (lp *boxedLP) fix(j int, v float64) {
	lp.lo[j], lp.hi[j] = v, v
}

func (lp *boxedLP) release(vars []int) {
	for _, j := range vars {
		lp.lo[j], lp.hi[j] = 0, 1
	}
}

func (lp *boxedLP) isFree(j int) bool {
	return lp.lo[j] < lp.hi[j]
}

// place moves each nonbasic column to the bound its reduced cost prefers
func (lp *boxedLP) place() {
	for j := range lp.value {
		if lp.row[j] >= 0 {
			continue
		}
		lo, hi := lp.lo[j], lp.hi[j]
		v := lp.value[j]
		switch {
		case lo == hi:
			v = lo
		case v != lo && v != hi:
			v = lo
			if lp.d[j] < 0 || math.IsInf(lo, -1) {
				v = hi
			}
		case v == lo && lp.d[j] < -dualTol && !math.IsInf(hi, 1):
			v = hi
		case v == hi && lp.d[j] > dualTol && !math.IsInf(lo, -1):
			v = lo
		}
		lp.value[j] = v
	}
}

// computeBasic sets the basic values to B⁻¹(b - N·z_N)
func (lp *boxedLP) computeBasic() {
	rhs := make([]float64, lp.m)
	copy(rhs, lp.b)
	for j, v := range lp.value {
		if lp.row[j] >= 0 || v == 0 {
			continue
		}
		for i := 0; i < lp.m; i++ {
			rhs[i] -= lp.a.At(i, j) * v
		}
	}
	for i := 0; i < lp.m; i++ {
		binv := lp.tab.RawRowView(i)[lp.n:]
		lp.value[lp.basis[i]] = floats.Dot(binv, rhs)
	}
}

func (lp *boxedLP) computeReducedCosts() {
	copy(lp.d, lp.cost)
	for i, col := range lp.basis {
		if c := lp.cost[col]; c != 0 {
			floats.AddScaled(lp.d, -c, lp.tab.RawRowView(i))
		}
	}
	for _, col := range lp.basis {
		lp.d[col] = 0
	}
}

// refactor rebuilds the tableau from the current basis to shed rounding error
func (lp *boxedLP) refactor() error {
	basisMatrix := mat.NewDense(lp.m, lp.m, nil)
	for k, col := range lp.basis {
		for i := 0; i < lp.m; i++ {
			basisMatrix.Set(i, k, lp.a.At(i, col))
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(basisMatrix); err != nil {
		return fmt.Errorf("refactor basis: %w", err)
	}
	lp.tab.Mul(&inv, lp.a)
	lp.computeReducedCosts()
	lp.computeBasic()
	return nil
}

// solve runs the dual simplex from the current basis under the current bounds
func (lp *boxedLP) solve() (lpStatus, error) {
	lp.place()
	lp.computeBasic()

	limit := 50*(lp.n+lp.m) + 1000
	for iter := 0; iter < limit; iter++ {
		r, target := lp.leaving()
		if r < 0 {
			return lpOptimal, nil
		}
		q := lp.entering(r, target)
		if q < 0 {
			return lpInfeasible, nil
		}
		lp.pivot(r, q, target)

		if lp.pivots%refactorEvery == 0 {
			if err := lp.refactor(); err != nil {
				return lpInfeasible, err
			}
		}
	}
	return lpInfeasible, errIterationLimit
}

// leaving picks the most infeasible basic column and the bound it moves to
func (lp *boxedLP) leaving() (int, float64) {
	best, worst, target := -1, primalTol, 0.0
	for i, col := range lp.basis {
		v := lp.value[col]
		if gap := lp.lo[col] - v; gap > worst {
			best, worst, target = i, gap, lp.lo[col]
		}
		if gap := v - lp.hi[col]; gap > worst {
			best, worst, target = i, gap, lp.hi[col]
		}
	}
	return best, target
}

// entering is the dual ratio test with a Harris pass: among columns within
// tolerance of the smallest ratio the largest pivot wins.
func (lp *boxedLP) entering(r int, target float64) int {
	alphas := lp.tab.RawRowView(r)
	increase := lp.value[lp.basis[r]] < target

	eligible := func(j int) bool {
		if lp.row[j] >= 0 || !lp.isFree(j) {
			return false
		}
		alpha := alphas[j]
		if math.Abs(alpha) < pivotTol {
			return false
		}
		atUpper := lp.value[j] == lp.hi[j]
		if increase {
			return (!atUpper && alpha < 0) || (atUpper && alpha > 0)
		}
		return (!atUpper && alpha > 0) || (atUpper && alpha < 0)
	}

	limit := math.Inf(1)
	for j := range alphas {
		if !eligible(j) {
			continue
		}
		if ratio := (math.Abs(lp.d[j]) + dualTol) / math.Abs(alphas[j]); ratio < limit {
			limit = ratio
		}
	}
	if math.IsInf(limit, 1) {
		return -1
	}

	q, pivot := -1, 0.0
	for j := range alphas {
		if !eligible(j) {
			continue
		}
		alpha := math.Abs(alphas[j])
		if math.Abs(lp.d[j])/alpha <= limit && alpha > pivot {
			q, pivot = j, alpha
		}
	}
	return q
}

func (lp *boxedLP) pivot(r, q int, target float64) {
	leave := lp.basis[r]
	alpha := lp.tab.At(r, q)
	step := (lp.value[leave] - target) / alpha

	for i, col := range lp.basis {
		if a := lp.tab.At(i, q); a != 0 {
			lp.value[col] -= step * a
		}
	}
	lp.value[q] += step
	lp.value[leave] = target

	pivotRow := lp.tab.RawRowView(r)
	floats.Scale(1/alpha, pivotRow)
	for i := 0; i < lp.m; i++ {
		if i == r {
			continue
		}
		rowI := lp.tab.RawRowView(i)
		if f := rowI[q]; f != 0 {
			floats.AddScaled(rowI, -f, pivotRow)
		}
	}
	if dq := lp.d[q]; dq != 0 {
		floats.AddScaled(lp.d, -dq, pivotRow)
	}
	lp.d[q] = 0

	lp.basis[r] = q
	lp.row[q] = r
	lp.row[leave] = -1
	lp.pivots++
}

// objective is the relaxation value in the model's maximization sense
func (lp *boxedLP) objective() float64 {
	return -floats.Dot(lp.cost[:lp.n], lp.value[:lp.n])
}

func (lp *boxedLP) structural() []float64 {
	return append([]float64(nil), lp.value[:lp.n]...)
}
