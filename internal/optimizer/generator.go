package optimizer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/solver"
)

// GeneratorState tracks a generator through its run
type GeneratorState int

const (
	StateReady GeneratorState = iota
	StateDoneFull
	StateDonePartial
	StateFailed
)

func (s GeneratorState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateDoneFull:
		return "done"
	case StateDonePartial:
		return "done_partial"
	default:
		return "failed"
	}
}

var ErrGeneratorUsed = errors.New("generator has already run")

// ProgressFunc is called after each lineup is produced
type ProgressFunc func(produced, requested int)

// GenerationResult holds the raw solver lineups of one run
type GenerationResult struct {
	Lineups   []models.Lineup
	Requested int
	Shortfall int
	State     GeneratorState
}

// Generator owns a compiled model for the duration of one run and grows it
// with a no-repeat cut after every solve.
type Generator struct {
	compiled   *Compiled
	solver     solver.Solver
	objective  *Objective
	numUniques int
	state      GeneratorState
	logger     *logrus.Entry
}

func NewGenerator(compiled *Compiled, s solver.Solver, objective *Objective, numUniques int, logger *logrus.Entry) *Generator {
	if numUniques < 1 {
		numUniques = 1
	}
	return &Generator{
		compiled:   compiled,
		solver:     s,
		objective:  objective,
		numUniques: numUniques,
		state:      StateReady,
		logger:     logger,
	}
}

func (g *Generator) State() GeneratorState {
	return g.state
}

// Generate solves until n lineups exist or the model becomes infeasible.
// Infeasibility ends the run with a shortfall; solver errors are returned
// along with the lineups produced so far.
func (g *Generator) Generate(ctx context.Context, n int, progress ProgressFunc) (*GenerationResult, error) {
	if g.state != StateReady {
		return nil, ErrGeneratorUsed
	}

	result := &GenerationResult{Requested: n}
	model := g.compiled.Model
	rosterSize := g.compiled.Site.RosterSize()

	for len(result.Lineups) < n {
		if err := model.SetObjective(g.objective.Sample()); err != nil {
			g.state = StateFailed
			return g.finish(result), err
		}

		sol, err := g.solver.Solve(ctx, model)
		if err != nil {
			g.state = StateFailed
			return g.finish(result), fmt.Errorf("solve %d: %w", len(result.Lineups)+1, err)
		}

		if sol.Status == solver.Infeasible {
			g.logger.WithFields(logrus.Fields{
				"produced":  len(result.Lineups),
				"requested": n,
			}).Warn("Model became infeasible, stopping generation")
			g.state = StateDonePartial
			return g.finish(result), nil
		}

		selected := sol.Selected()
		lineup := models.Lineup{Players: make([]models.Player, len(selected))}
		for i, idx := range selected {
			lineup.Players[i] = g.compiled.Pool.Player(idx)
		}
		if len(selected) != rosterSize {
			g.state = StateFailed
			return g.finish(result), fmt.Errorf("solver returned %d players, need %d", len(selected), rosterSize)
		}
		if err := g.compiled.Constraints.ValidateLineup(lineup); err != nil {
			g.state = StateFailed
			return g.finish(result), fmt.Errorf("solver returned an invalid lineup: %w", err)
		}

		result.Lineups = append(result.Lineups, lineup)

		model.AddConstraint(solver.Constraint{
			Label: "no_repeat_" + strconv.Itoa(len(result.Lineups)),
			Terms: varTerms(selected, 1),
			Sense: solver.LessEq,
			RHS:   float64(len(selected) - g.numUniques),
		})

		if progress != nil {
			progress(len(result.Lineups), n)
		}
	}

	g.state = StateDoneFull
	return g.finish(result), nil
}

func (g *Generator) finish(result *GenerationResult) *GenerationResult {
	result.Shortfall = result.Requested - len(result.Lineups)
	result.State = g.state
	return result
}
