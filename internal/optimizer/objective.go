package optimizer

import (
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/pool"
)

// Objective produces the per-solve player weights. With randomness R > 0
// each weight is drawn from Normal(projection, stddev*R/100).
type Objective struct {
	mean       []float64
	sigma      []float64
	randomness float64
	src        rand.Source
}

// NewObjective seeds the sampler; seed 0 picks a time-based seed
func NewObjective(p *pool.PlayerPool, randomness float64, seed uint64) *Objective {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	o := &Objective{
		mean:       make([]float64, p.Len()),
		sigma:      make([]float64, p.Len()),
		randomness: randomness,
		src:        rand.NewSource(seed),
	}
	for i := 0; i < p.Len(); i++ {
		player := p.Player(i)
		o.mean[i] = player.ProjectedPoints
		o.sigma[i] = player.StdDev * randomness / 100
	}
	return o
}

func (o *Objective) Randomized() bool {
	return o.randomness > 0
}

// Sample returns a fresh weight vector
func (o *Objective) Sample() []float64 {
	weights := make([]float64, len(o.mean))
	if !o.Randomized() {
		copy(weights, o.mean)
		return weights
	}
	for i := range weights {
		weights[i] = distuv.Normal{Mu: o.mean[i], Sigma: o.sigma[i], Src: o.src}.Rand()
	}
	return weights
}
