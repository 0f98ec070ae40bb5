package export

import (
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
)

// Aggregate computes the report columns for an assigned lineup
func Aggregate(lineup models.AssignedLineup) models.LineupStats {
	players := lineup.Players()

	fpts := make([]float64, len(players))
	ceiling := make([]float64, len(players))
	ownership := make([]float64, len(players))
	stddev := make([]float64, len(players))
	salary := 0
	for i, p := range players {
		fpts[i] = p.ProjectedPoints
		ceiling[i] = p.Ceiling
		ownership[i] = p.Ownership
		stddev[i] = p.StdDev
		salary += p.Salary
	}

	stats := models.LineupStats{
		Salary:          salary,
		ProjectedPoints: round2(floats.Sum(fpts)),
		Ceiling:         floats.Sum(ceiling),
		OwnershipSum:    floats.Sum(ownership),
		StdDev:          floats.Sum(stddev),
		Stack:           StackLabel(players),
	}
	if len(ownership) > 0 {
		stats.OwnershipProduct = floats.Prod(ownership)
	}
	return stats
}

// StackLabel describes the quarterback stack as "QB+k", k being the
// teammates rostered with the QB. A lineup without a QB gets an empty label.
func StackLabel(players []models.Player) string {
	team := ""
	found := false
	for _, p := range players {
		if p.Position == models.PositionQB {
			team = p.Team
			found = true
			break
		}
	}
	if !found {
		return ""
	}

	k := 0
	for _, p := range players {
		if p.Position != models.PositionQB && p.Team == team {
			k++
		}
	}
	if k == 0 {
		return models.PositionQB
	}
	return models.PositionQB + "+" + strconv.Itoa(k)
}

func round2(v float64) float64 {
	return scalar.Round(v, 2)
}
