package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
)

var (
	validNames = []string{"ne qb", "mia rb1", "buf rb", "ne wr1", "mia wr1", "mia wr2", "buf wr", "buf te", "nyj dst"}
	otherNames = []string{"buf qb", "mia rb1", "nyj rb1", "buf rb", "ne wr1", "mia wr1", "buf wr", "buf te", "nyj dst"}
	twoQBNames = []string{"ne qb", "buf qb", "mia rb1", "buf rb", "mia wr1", "mia wr2", "buf wr", "buf te", "nyj dst"}
)

func TestAssignPlayersToSlots(t *testing.T) {
	site := testSite(t, models.SiteDraftKings)
	p := newTestPool(t, slatePlayers())
	players := playersNamed(t, p, validNames...)

	for seed := uint64(1); seed <= 20; seed++ {
		assignments, err := AssignPlayersToSlots(players, site.Slots, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		require.Len(t, assignments, len(site.Slots))

		placed := make(map[models.PlayerKey]int)
		for i, a := range assignments {
			assert.Equal(t, site.Slots[i].SlotName, a.SlotName)
			assert.True(t, CanPlayerFillSlot(a.Player, site.Slots[i]), "%s in %s", a.Player.Name, a.SlotName)
			placed[a.Player.Key()]++
		}
		assert.Len(t, placed, len(players))
	}
}

func TestAssignPlayersToSlots_Deterministic(t *testing.T) {
	site := testSite(t, models.SiteDraftKings)
	players := playersNamed(t, newTestPool(t, slatePlayers()), validNames...)

	first, err := AssignPlayersToSlots(players, site.Slots, rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	second, err := AssignPlayersToSlots(players, site.Slots, rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAssignPlayersToSlots_Infeasible(t *testing.T) {
	site := testSite(t, models.SiteDraftKings)
	p := newTestPool(t, slatePlayers())

	_, err := AssignPlayersToSlots(playersNamed(t, p, twoQBNames...), site.Slots, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrAssignmentInfeasible)

	_, err = AssignPlayersToSlots(playersNamed(t, p, "ne qb"), site.Slots, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestAssignLineups(t *testing.T) {
	site := testSite(t, models.SiteDraftKings)
	p := newTestPool(t, slatePlayers())

	lineups := []models.Lineup{
		{Players: playersNamed(t, p, validNames...)},
		{Players: playersNamed(t, p, twoQBNames...)},
		{Players: playersNamed(t, p, otherNames...)},
	}

	assigned, dropped, err := AssignLineups(context.Background(), lineups, site, 2, 11, testEntry())
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	require.Len(t, assigned, 2)

	assert.ElementsMatch(t, lineups[0].Players, assigned[0].Players())
	assert.ElementsMatch(t, lineups[2].Players, assigned[1].Players())

	again, _, err := AssignLineups(context.Background(), lineups, site, 1, 11, testEntry())
	require.NoError(t, err)
	assert.Equal(t, assigned, again)
}

func TestAssignLineups_Cancelled(t *testing.T) {
	site := testSite(t, models.SiteDraftKings)
	p := newTestPool(t, slatePlayers())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := AssignLineups(ctx, []models.Lineup{{Players: playersNamed(t, p, validNames...)}}, site, 2, 1, testEntry())
	assert.ErrorIs(t, err, context.Canceled)
}
