package optimizer

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/pool"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/rules"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/solver"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/logger"
)

var nextTestID int64 = 1000

func testPlayer(name, position, team string, salary int, fpts float64) models.Player {
	nextTestID++
	return models.Player{
		Name:            name,
		Position:        position,
		Team:            team,
		Salary:          salary,
		ProjectedPoints: fpts,
		Ownership:       5,
		StdDev:          fpts * 0.4,
		Ceiling:         fpts * 1.4,
		ExternalID:      nextTestID,
	}
}

func testEntry() *logrus.Entry {
	return logger.Discard().WithField("test", true)
}

func testSite(t *testing.T, key string) models.Site {
	t.Helper()
	site, err := models.GetSite(key)
	require.NoError(t, err)
	return site
}

func newTestPool(t *testing.T, players []models.Player) *pool.PlayerPool {
	t.Helper()
	p, err := pool.New(players)
	require.NoError(t, err)
	return p
}

func defaultRules() *rules.RuleSet {
	return &rules.RuleSet{UseDoubleTE: true, RequireIDs: true}
}

// slatePlayers is a two game slate (NE@BUF, MIA@NYJ) with one QB per side
// of the NE game. Without stacking rules the best lineup rosters the NE QB
// and none of his receivers.
func slatePlayers() []models.Player {
	game := func(p models.Player, opp, matchup string) models.Player {
		p.Opponent = opp
		p.Matchup = matchup
		return p
	}
	ne := func(p models.Player) models.Player { return game(p, "BUF", "NE@BUF") }
	buf := func(p models.Player) models.Player { return game(p, "NE", "NE@BUF") }
	mia := func(p models.Player) models.Player { return game(p, "NYJ", "MIA@NYJ") }
	nyj := func(p models.Player) models.Player { return game(p, "MIA", "MIA@NYJ") }

	return []models.Player{
		ne(testPlayer("ne qb", models.PositionQB, "NE", 7500, 22)),
		buf(testPlayer("buf qb", models.PositionQB, "BUF", 6000, 15)),
		mia(testPlayer("mia rb1", models.PositionRB, "MIA", 7000, 18)),
		buf(testPlayer("buf rb", models.PositionRB, "BUF", 6500, 16)),
		nyj(testPlayer("nyj rb1", models.PositionRB, "NYJ", 5000, 14.5)),
		nyj(testPlayer("nyj rb2", models.PositionRB, "NYJ", 4000, 6)),
		ne(testPlayer("ne wr1", models.PositionWR, "NE", 6000, 14)),
		ne(testPlayer("ne wr2", models.PositionWR, "NE", 5500, 12)),
		mia(testPlayer("mia wr1", models.PositionWR, "MIA", 5000, 15)),
		mia(testPlayer("mia wr2", models.PositionWR, "MIA", 5000, 15)),
		buf(testPlayer("buf wr", models.PositionWR, "BUF", 5000, 15)),
		nyj(testPlayer("nyj wr", models.PositionWR, "NYJ", 3500, 7)),
		buf(testPlayer("buf te", models.PositionTE, "BUF", 4500, 9)),
		nyj(testPlayer("nyj te", models.PositionTE, "NYJ", 3000, 5)),
		nyj(testPlayer("nyj dst", models.PositionDST, "NYJ", 3000, 7)),
		mia(testPlayer("mia dst", models.PositionDST, "MIA", 2500, 5)),
	}
}

func qbStackRule() rules.PairRule {
	return rules.PairRule{
		Key:       models.PositionQB,
		Positions: []string{models.PositionWR, models.PositionTE},
		Count:     1,
		Type:      rules.SameTeam,
	}
}

func lineupNames(l models.Lineup) map[string]bool {
	names := make(map[string]bool, len(l.Players))
	for _, p := range l.Players {
		names[p.Name] = true
	}
	return names
}

func playersNamed(t *testing.T, p *pool.PlayerPool, names ...string) []models.Player {
	t.Helper()
	out := make([]models.Player, 0, len(names))
	for _, name := range names {
		ids := p.ByName(name)
		require.Len(t, ids, 1, name)
		out = append(out, p.Player(ids[0]))
	}
	return out
}

// scriptedSolver replays fixed selections and reports infeasible once they run out
type scriptedSolver struct {
	selections [][]int
	calls      int
}

func (s *scriptedSolver) Solve(_ context.Context, m *solver.Model) (*solver.Solution, error) {
	if s.calls >= len(s.selections) {
		s.calls++
		return &solver.Solution{Status: solver.Infeasible}, nil
	}
	values := make([]float64, m.NumVars())
	for _, v := range s.selections[s.calls] {
		values[v] = 1
	}
	s.calls++
	return &solver.Solution{Status: solver.Optimal, Values: values, Objective: m.Value(values)}, nil
}
