package optimizer

import (
	"sort"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
)

func lineupSignature(l models.Lineup) string {
	sig := ""
	for _, k := range l.SortedKeys() {
		sig += k.String() + "|"
	}
	return sig
}

// CollapseDuplicates keeps the first of every set-identical lineup, order preserved
func CollapseDuplicates(lineups []models.Lineup) ([]models.Lineup, int) {
	seen := make(map[string]bool, len(lineups))
	out := make([]models.Lineup, 0, len(lineups))
	for _, l := range lineups {
		sig := lineupSignature(l)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, l)
	}
	return out, len(lineups) - len(out)
}

func commonPlayers(a, b models.Lineup) int {
	keys := make(map[models.PlayerKey]bool, len(a.Players))
	for _, p := range a.Players {
		keys[p.Key()] = true
	}
	n := 0
	for _, p := range b.Players {
		if keys[p.Key()] {
			n++
		}
	}
	return n
}

// FilterUnique drops lineups that differ from another retained lineup by
// fewer than numUniques players. Candidates are visited from lowest to
// highest projection and compared with every lineup still in the set, so the
// lower-projected lineup of a conflicting pair is the one dropped. Survivors
// keep their original order.
func FilterUnique(lineups []models.Lineup, rosterSize, numUniques int) ([]models.Lineup, int) {
	if numUniques <= 1 || len(lineups) < 2 {
		return lineups, 0
	}

	order := make([]int, len(lineups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return lineups[order[a]].ProjectedPoints() < lineups[order[b]].ProjectedPoints()
	})

	retained := make([]bool, len(lineups))
	for i := range retained {
		retained[i] = true
	}

	for _, cand := range order {
		for other := range lineups {
			if other == cand || !retained[other] {
				continue
			}
			if rosterSize-commonPlayers(lineups[cand], lineups[other]) < numUniques {
				retained[cand] = false
				break
			}
		}
	}

	out := make([]models.Lineup, 0, len(lineups))
	for i, l := range lineups {
		if retained[i] {
			out = append(out, l)
		}
	}
	return out, len(lineups) - len(out)
}
