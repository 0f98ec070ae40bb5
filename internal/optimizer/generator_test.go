package optimizer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/pool"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/rules"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/solver"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/logger"
)

func newTestGenerator(t *testing.T, p *pool.PlayerPool, rs *rules.RuleSet, s solver.Solver, numUniques int) *Generator {
	t.Helper()
	compiled, err := Compile(p, rs, testSite(t, models.SiteDraftKings), testEntry())
	require.NoError(t, err)
	return NewGenerator(compiled, s, NewObjective(p, rs.Randomness, rs.Seed), numUniques, testEntry())
}

func nativeSolver() solver.Solver {
	return solver.NewBranchAndBound(logger.Discard())
}

func TestGenerate_QBStack(t *testing.T) {
	p := newTestPool(t, slatePlayers())

	t.Run("without stack rule", func(t *testing.T) {
		gen := newTestGenerator(t, p, defaultRules(), nativeSolver(), 1)
		result, err := gen.Generate(context.Background(), 1, nil)
		require.NoError(t, err)
		require.Len(t, result.Lineups, 1)

		names := lineupNames(result.Lineups[0])
		assert.True(t, names["ne qb"])
		assert.False(t, names["ne wr1"])
		assert.False(t, names["ne wr2"])
		assert.InDelta(t, 131.5, result.Lineups[0].ProjectedPoints(), 1e-9)
	})

	t.Run("with stack rule", func(t *testing.T) {
		rs := defaultRules()
		rs.PairRules = []rules.PairRule{qbStackRule()}

		gen := newTestGenerator(t, p, rs, nativeSolver(), 1)
		result, err := gen.Generate(context.Background(), 1, nil)
		require.NoError(t, err)
		require.Len(t, result.Lineups, 1)

		names := lineupNames(result.Lineups[0])
		assert.True(t, names["ne qb"])
		assert.True(t, names["ne wr1"])
		assert.Equal(t, 49500, result.Lineups[0].Salary())
		assert.InDelta(t, 131.0, result.Lineups[0].ProjectedPoints(), 1e-9)
	})
}

func TestGenerate_Properties(t *testing.T) {
	p := newTestPool(t, slatePlayers())
	rs := defaultRules()
	rs.PairRules = []rules.PairRule{qbStackRule()}
	rs.Randomness = 40
	rs.Seed = 7

	const requested, uniques = 5, 2
	var progressCalls []int

	gen := newTestGenerator(t, p, rs, nativeSolver(), uniques)
	result, err := gen.Generate(context.Background(), requested, func(produced, total int) {
		assert.Equal(t, requested, total)
		progressCalls = append(progressCalls, produced)
	})
	require.NoError(t, err)

	assert.Equal(t, StateDoneFull, result.State)
	assert.Equal(t, StateDoneFull, gen.State())
	assert.Equal(t, 0, result.Shortfall)
	require.Len(t, result.Lineups, requested)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, progressCalls)

	lc := GetConstraintsForSite(testSite(t, models.SiteDraftKings), true)
	for i, lineup := range result.Lineups {
		require.NoError(t, lc.ValidateLineup(lineup))

		names := lineupNames(lineup)
		if names["ne qb"] {
			assert.True(t, names["ne wr1"] || names["ne wr2"], "lineup %d", i)
		}
		if names["buf qb"] {
			assert.True(t, names["buf wr"] || names["buf te"], "lineup %d", i)
		}

		for j := 0; j < i; j++ {
			common := commonPlayers(lineup, result.Lineups[j])
			assert.GreaterOrEqual(t, 9-common, uniques, "lineups %d and %d", j, i)
		}
	}

	_, err = gen.Generate(context.Background(), 1, nil)
	assert.ErrorIs(t, err, ErrGeneratorUsed)
}

// buildShortSlate has eight mandatory players and three cheap flex options.
// Only lineups that drop two of the flex options stay inside the salary
// window, so exactly three lineups exist.
func buildShortSlate() []models.Player {
	return []models.Player{
		testPlayer("qb", models.PositionQB, "AAA", 7000, 20),
		testPlayer("rb one", models.PositionRB, "BBB", 6000, 15),
		testPlayer("rb two", models.PositionRB, "CCC", 6000, 14),
		testPlayer("wr one", models.PositionWR, "DDD", 6000, 13),
		testPlayer("wr two", models.PositionWR, "EEE", 6000, 12),
		testPlayer("wr three", models.PositionWR, "FFF", 6000, 11),
		testPlayer("te one", models.PositionTE, "GGG", 5000, 8),
		testPlayer("dst", models.PositionDST, "HHH", 5000, 6),
		testPlayer("rb flex", models.PositionRB, "III", 1000, 5),
		testPlayer("wr flex", models.PositionWR, "JJJ", 1000, 4),
		testPlayer("te flex", models.PositionTE, "KKK", 1000, 3),
	}
}

func TestGenerate_Shortfall(t *testing.T) {
	p := newTestPool(t, buildShortSlate())

	gen := newTestGenerator(t, p, defaultRules(), nativeSolver(), 1)
	result, err := gen.Generate(context.Background(), 50, nil)
	require.NoError(t, err)

	assert.Len(t, result.Lineups, 3)
	assert.Equal(t, 47, result.Shortfall)
	assert.Equal(t, StateDonePartial, result.State)

	flex := make(map[string]bool)
	for _, lineup := range result.Lineups {
		assert.Equal(t, 48000, lineup.Salary())
		for _, player := range lineup.Players {
			if player.Salary == 1000 {
				flex[player.Name] = true
			}
		}
	}
	assert.Len(t, flex, 3)

	// highest projected flex first
	assert.True(t, lineupNames(result.Lineups[0])["rb flex"])
}

func TestGenerate_DuplicateSolvesCollapse(t *testing.T) {
	p := newTestPool(t, slatePlayers())
	selection := []int{0, 2, 3, 6, 8, 9, 10, 12, 14}
	fake := &scriptedSolver{selections: [][]int{selection, selection}}

	gen := newTestGenerator(t, p, defaultRules(), fake, 1)
	result, err := gen.Generate(context.Background(), 3, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, fake.calls)
	require.Len(t, result.Lineups, 2)
	assert.Equal(t, 1, result.Shortfall)

	collapsed, removed := CollapseDuplicates(result.Lineups)
	assert.Len(t, collapsed, 1)
	assert.Equal(t, 1, removed)
}

func TestGenerate_RejectsInvalidSolution(t *testing.T) {
	p := newTestPool(t, slatePlayers())
	// two quarterbacks and over the cap
	fake := &scriptedSolver{selections: [][]int{{0, 1, 2, 3, 6, 8, 9, 12, 14}}}

	gen := newTestGenerator(t, p, defaultRules(), fake, 1)
	result, err := gen.Generate(context.Background(), 2, nil)
	require.Error(t, err)
	assert.Equal(t, StateFailed, gen.State())
	assert.Empty(t, result.Lineups)
}

func TestGenerate_AddsNoRepeatCuts(t *testing.T) {
	p := newTestPool(t, slatePlayers())

	gen := newTestGenerator(t, p, defaultRules(), nativeSolver(), 3)
	before := len(gen.compiled.Model.Constraints)

	result, err := gen.Generate(context.Background(), 2, nil)
	require.NoError(t, err)
	require.Len(t, result.Lineups, 2)

	cut := findConstraint(t, gen.compiled.Model, "no_repeat_1")
	assert.Equal(t, solver.LessEq, cut.Sense)
	assert.Equal(t, 6.0, cut.RHS)
	assert.Len(t, cut.Terms, 9)
	assert.Equal(t, before+2, len(gen.compiled.Model.Constraints))

	assert.LessOrEqual(t, commonPlayers(result.Lineups[0], result.Lineups[1]), 6)
}

// fullSlate builds games*2 teams of 2 QB, 4 RB, 6 WR, 3 TE and 1 DST
func fullSlate(rng *rand.Rand, games int) []models.Player {
	roster := []struct {
		pos   string
		count int
	}{
		{models.PositionQB, 2}, {models.PositionRB, 4}, {models.PositionWR, 6},
		{models.PositionTE, 3}, {models.PositionDST, 1},
	}
	var players []models.Player
	for g := 0; g < games; g++ {
		away, home := fmt.Sprintf("A%02d", g), fmt.Sprintf("H%02d", g)
		matchup := away + "@" + home
		for _, side := range [][2]string{{away, home}, {home, away}} {
			for _, r := range roster {
				for k := 1; k <= r.count; k++ {
					p := testPlayer(fmt.Sprintf("%s %s%d", side[0], r.pos, k), r.pos, side[0],
						3000+100*rng.Intn(60), 2+rng.Float64()*24)
					p.Opponent = side[1]
					p.Matchup = matchup
					players = append(players, p)
				}
			}
		}
	}
	return players
}

func TestGenerate_FullSlate(t *testing.T) {
	if testing.Short() {
		t.Skip("full slate generation")
	}
	p := newTestPool(t, fullSlate(rand.New(rand.NewSource(42)), 10))
	require.Equal(t, 320, p.Len())

	rs := defaultRules()
	rs.PairRules = []rules.PairRule{qbStackRule()}
	rs.Randomness = 25
	rs.Seed = 9

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	gen := newTestGenerator(t, p, rs, nativeSolver(), 2)
	result, err := gen.Generate(ctx, 5, nil)
	require.NoError(t, err)
	require.Len(t, result.Lineups, 5)
	assert.Equal(t, 0, result.Shortfall)

	site := testSite(t, models.SiteDraftKings)
	for i, lineup := range result.Lineups {
		require.Len(t, lineup.Players, 9)
		assert.GreaterOrEqual(t, lineup.Salary(), site.SalaryFloor)
		assert.LessOrEqual(t, lineup.Salary(), site.SalaryCap)
		for j := 0; j < i; j++ {
			assert.LessOrEqual(t, commonPlayers(lineup, result.Lineups[j]), 7)
		}
	}
}
