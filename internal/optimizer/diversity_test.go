package optimizer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
)

// synthetic players p0..p19; only identity and projection matter here
func syntheticLineup(points map[int]float64, ids ...int) models.Lineup {
	l := models.Lineup{}
	for _, id := range ids {
		fpts, ok := points[id]
		if !ok {
			fpts = 10
		}
		l.Players = append(l.Players, models.Player{
			Name:            fmt.Sprintf("p%d", id),
			Position:        models.PositionWR,
			Team:            "AAA",
			Salary:          5000,
			ProjectedPoints: fpts,
		})
	}
	return l
}

func TestCollapseDuplicates(t *testing.T) {
	a := syntheticLineup(nil, 0, 1, 2, 3, 4, 5, 6, 7, 8)
	sameSetReordered := syntheticLineup(nil, 8, 7, 6, 5, 4, 3, 2, 1, 0)
	b := syntheticLineup(nil, 0, 1, 2, 3, 4, 5, 6, 7, 9)

	out, removed := CollapseDuplicates([]models.Lineup{a, b, sameSetReordered, b})
	assert.Equal(t, 2, removed)
	assert.Equal(t, []models.Lineup{a, b}, out)
}

func TestFilterUnique(t *testing.T) {
	points := map[int]float64{9: 5, 10: 1, 11: 1, 12: 1}
	high := syntheticLineup(points, 0, 1, 2, 3, 4, 5, 6, 7, 8)   // 90
	near := syntheticLineup(points, 0, 1, 2, 3, 4, 5, 6, 7, 9)   // 85, one swap from high
	far := syntheticLineup(points, 0, 1, 2, 3, 4, 5, 10, 11, 12) // 63

	out, removed := FilterUnique([]models.Lineup{high, near, far}, 9, 2)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []models.Lineup{high, far}, out)

	for i := range out {
		for j := i + 1; j < len(out); j++ {
			assert.GreaterOrEqual(t, 9-commonPlayers(out[i], out[j]), 2)
		}
	}
}

func TestFilterUnique_ComparesAgainstUnvisited(t *testing.T) {
	points := map[int]float64{8: 1, 9: 2, 10: 3}
	low := syntheticLineup(points, 0, 1, 2, 3, 4, 5, 6, 7, 8)
	mid := syntheticLineup(points, 0, 1, 2, 3, 4, 5, 6, 7, 9)
	top := syntheticLineup(points, 0, 1, 2, 3, 4, 5, 6, 7, 10)

	// every pair conflicts, so only the best projected lineup survives
	out, removed := FilterUnique([]models.Lineup{top, low, mid}, 9, 2)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []models.Lineup{top}, out)
}

func TestFilterUnique_Disabled(t *testing.T) {
	a := syntheticLineup(nil, 0, 1, 2, 3, 4, 5, 6, 7, 8)
	b := syntheticLineup(nil, 0, 1, 2, 3, 4, 5, 6, 7, 9)

	out, removed := FilterUnique([]models.Lineup{a, b}, 9, 1)
	assert.Equal(t, 0, removed)
	assert.Len(t, out, 2)
}
