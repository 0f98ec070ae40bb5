package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/rules"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/solver"
)

func compileWith(t *testing.T, players []models.Player, rs *rules.RuleSet) *Compiled {
	t.Helper()
	compiled, err := Compile(newTestPool(t, players), rs, testSite(t, models.SiteDraftKings), testEntry())
	require.NoError(t, err)
	return compiled
}

func stackLabels(m *solver.Model) []string {
	var out []string
	for _, label := range constraintLabels(m) {
		if len(label) > 6 && label[:6] == "stack_" {
			out = append(out, label)
		}
	}
	return out
}

func TestPairStack_SameTeam(t *testing.T) {
	rs := defaultRules()
	rs.PairRules = []rules.PairRule{qbStackRule()}

	compiled := compileWith(t, slatePlayers(), rs)

	// MIA and NYJ carry no QB, so only NE and BUF get a constraint
	assert.Equal(t, []string{"stack_pair_0_NE", "stack_pair_0_BUF"}, stackLabels(compiled.Model))

	ne := findConstraint(t, compiled.Model, "stack_pair_0_NE")
	assert.Equal(t, solver.GreaterEq, ne.Sense)
	assert.Equal(t, 0.0, ne.RHS)
	assert.Equal(t, map[int]float64{0: -1, 6: 1, 7: 1}, termMap(ne))

	buf := findConstraint(t, compiled.Model, "stack_pair_0_BUF")
	assert.Equal(t, map[int]float64{1: -1, 10: 1, 12: 1}, termMap(buf))
}

func TestPairStack_OppTeamAndExclusions(t *testing.T) {
	rule := qbStackRule()
	rule.Type = rules.OppTeam
	rule.Count = 2
	rule.ExcludeTeams = []string{"BUF"}

	rs := defaultRules()
	rs.PairRules = []rules.PairRule{rule}

	compiled := compileWith(t, slatePlayers(), rs)
	assert.Equal(t, []string{"stack_pair_0_NE"}, stackLabels(compiled.Model))

	ne := findConstraint(t, compiled.Model, "stack_pair_0_NE")
	assert.Equal(t, map[int]float64{0: -2, 10: 1, 12: 1}, termMap(ne))
}

func TestPairStack_SameGameDropsAnchor(t *testing.T) {
	rule := qbStackRule()
	rule.Type = rules.SameGame
	rule.Positions = []string{models.PositionQB, models.PositionWR}

	rs := defaultRules()
	rs.PairRules = []rules.PairRule{rule}

	compiled := compileWith(t, slatePlayers(), rs)

	ne := findConstraint(t, compiled.Model, "stack_pair_0_NE")
	assert.Equal(t, map[int]float64{0: -1, 6: 1, 7: 1, 1: 1, 10: 1}, termMap(ne))
}

func TestPairStack_MissingOpponent(t *testing.T) {
	players := slatePlayers()
	for i := range players {
		players[i].Opponent = ""
	}
	rule := qbStackRule()
	rule.Type = rules.OppTeam

	rs := defaultRules()
	rs.PairRules = []rules.PairRule{rule}

	compiled := compileWith(t, players, rs)
	assert.Empty(t, stackLabels(compiled.Model))
	require.Len(t, compiled.Warnings, 4)
	assert.Contains(t, compiled.Warnings[0], "no opponent known for NE")
	assert.Equal(t, "stack pair 0 skipped for MIA: no QB anchor", compiled.Warnings[2])
}

func TestPairStack_MissingAnchorWarns(t *testing.T) {
	rs := defaultRules()
	rs.PairRules = []rules.PairRule{qbStackRule()}

	compiled := compileWith(t, slatePlayers(), rs)

	assert.Equal(t, []string{"stack_pair_0_NE", "stack_pair_0_BUF"}, stackLabels(compiled.Model))
	assert.Equal(t, []string{
		"stack pair 0 skipped for MIA: no QB anchor",
		"stack pair 0 skipped for NYJ: no QB anchor",
	}, compiled.Warnings)
}

func TestLimitStack(t *testing.T) {
	rs := defaultRules()
	rs.LimitRules = []rules.LimitRule{{
		Positions: []string{models.PositionRB},
		Count:     1,
		Type:      rules.SameTeam,
	}}

	compiled := compileWith(t, slatePlayers(), rs)

	// NE has no running backs
	assert.Equal(t, []string{"stack_limit_0_BUF", "stack_limit_0_MIA", "stack_limit_0_NYJ"}, stackLabels(compiled.Model))

	nyj := findConstraint(t, compiled.Model, "stack_limit_0_NYJ")
	assert.Equal(t, solver.LessEq, nyj.Sense)
	assert.Equal(t, 1.0, nyj.RHS)
	assert.Equal(t, map[int]float64{4: 1, 5: 1}, termMap(nyj))
}

func TestLimitStack_Unless(t *testing.T) {
	rs := defaultRules()
	rs.LimitRules = []rules.LimitRule{
		{
			Positions:       []string{models.PositionRB},
			Count:           1,
			Type:            rules.SameTeam,
			UnlessPositions: []string{models.PositionQB},
			UnlessType:      rules.SameTeam,
		},
		{
			Positions:       []string{models.PositionWR, models.PositionTE},
			Count:           1,
			Type:            rules.SameTeam,
			UnlessPositions: []string{models.PositionWR},
			UnlessType:      rules.SameTeam,
			ExcludeTeams:    []string{"NE", "MIA", "NYJ"},
		},
	}

	compiled := compileWith(t, slatePlayers(), rs)

	buf := findConstraint(t, compiled.Model, "stack_limit_0_BUF")
	assert.Equal(t, map[int]float64{3: 1, 1: -1}, termMap(buf))

	nyj := findConstraint(t, compiled.Model, "stack_limit_0_NYJ")
	assert.Equal(t, map[int]float64{4: 1, 5: 1}, termMap(nyj))

	// exempt players already in the bounded set are not subtracted
	overlap := findConstraint(t, compiled.Model, "stack_limit_1_BUF")
	assert.Equal(t, map[int]float64{10: 1, 12: 1}, termMap(overlap))
	assert.NotContains(t, constraintLabels(compiled.Model), "stack_limit_1_NE")
}

func TestWithout(t *testing.T) {
	assert.Equal(t, []int{1, 3}, without([]int{1, 2, 3, 1}, 2))
	assert.Equal(t, []int{}, without(nil))
}
