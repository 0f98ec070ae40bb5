package optimizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
)

// MaxSlotRestarts bounds the randomized slot search for one lineup
const MaxSlotRestarts = 1000

var ErrAssignmentInfeasible = errors.New("no valid slot assignment found")

// CanPlayerFillSlot checks if a player can fill a specific slot
func CanPlayerFillSlot(player models.Player, slot models.PositionSlot) bool {
	return slot.Allows(player.Position)
}

// AssignPlayersToSlots places each player into one slot of the template.
// Slots are visited in a shuffled order and filled with a random eligible
// unplaced player; a dead end restarts from empty with a new shuffle, up to
// MaxSlotRestarts times. Assignments come back in template order.
func AssignPlayersToSlots(players []models.Player, slots []models.PositionSlot, rng *rand.Rand) ([]models.SlotAssignment, error) {
	if len(players) != len(slots) {
		return nil, fmt.Errorf("cannot place %d players into %d slots", len(players), len(slots))
	}

	filled := make([]int, len(slots))
	placed := make([]bool, len(players))
	eligible := make([]int, 0, len(players))

	for restarts := 0; restarts < MaxSlotRestarts; restarts++ {
		for i := range filled {
			filled[i] = -1
		}
		for i := range placed {
			placed[i] = false
		}

		order := make([]int, len(slots))
		for i := range order {
			order[i] = i
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		deadEnd := false
		for _, s := range order {
			eligible = eligible[:0]
			for p, player := range players {
				if !placed[p] && CanPlayerFillSlot(player, slots[s]) {
					eligible = append(eligible, p)
				}
			}
			if len(eligible) == 0 {
				deadEnd = true
				break
			}
			pick := eligible[rng.Intn(len(eligible))]
			filled[s] = pick
			placed[pick] = true
		}
		if deadEnd {
			continue
		}

		assignments := make([]models.SlotAssignment, len(slots))
		for s, p := range filled {
			assignments[s] = models.SlotAssignment{SlotName: slots[s].SlotName, Player: players[p]}
		}
		return assignments, nil
	}

	return nil, ErrAssignmentInfeasible
}

// AssignLineups slot-assigns lineups on up to workers goroutines. Lineup i
// uses its own generator seeded with seed+i. Lineups with no assignment are
// dropped and counted; survivors keep their order.
func AssignLineups(ctx context.Context, lineups []models.Lineup, site models.Site, workers int, seed uint64, logger *logrus.Entry) ([]models.AssignedLineup, int, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([][]models.SlotAssignment, len(lineups))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range lineups {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seed + uint64(i)))
			slots, err := AssignPlayersToSlots(lineups[i].Players, site.Slots, rng)
			if err != nil {
				logger.WithError(err).WithField("lineup", i).Warn("Dropping lineup without a slot assignment")
				return nil
			}
			results[i] = slots
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	out := make([]models.AssignedLineup, 0, len(lineups))
	for _, slots := range results {
		if slots != nil {
			out = append(out, models.AssignedLineup{Slots: slots})
		}
	}
	return out, len(lineups) - len(out), nil
}
