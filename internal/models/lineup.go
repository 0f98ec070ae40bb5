package models

import "sort"

// Lineup is an unordered selection of players returned by one solve
type Lineup struct {
	Players []Player `json:"players"`
}

// SortedKeys returns the identity keys in a canonical order, used to compare lineups as sets
func (l Lineup) SortedKeys() []PlayerKey {
	keys := make([]PlayerKey, len(l.Players))
	for i, p := range l.Players {
		keys[i] = p.Key()
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

func (l Lineup) ProjectedPoints() float64 {
	total := 0.0
	for _, p := range l.Players {
		total += p.ProjectedPoints
	}
	return total
}

func (l Lineup) Salary() int {
	total := 0
	for _, p := range l.Players {
		total += p.Salary
	}
	return total
}

// SlotAssignment represents a player assigned to a specific slot
type SlotAssignment struct {
	SlotName string `json:"slot"`
	Player   Player `json:"player"`
}

// LineupStats holds the per-lineup aggregates written to reports
type LineupStats struct {
	Salary           int     `json:"salary"`
	ProjectedPoints  float64 `json:"projected_points"`
	Ceiling          float64 `json:"ceiling"`
	OwnershipSum     float64 `json:"ownership_sum"`
	OwnershipProduct float64 `json:"ownership_product"`
	StdDev           float64 `json:"stddev"`
	Stack            string  `json:"stack"`
}

// AssignedLineup is a lineup whose players have been placed into site slots
type AssignedLineup struct {
	Slots []SlotAssignment `json:"slots"`
	Stats LineupStats      `json:"stats"`
}

func (l AssignedLineup) Players() []Player {
	players := make([]Player, len(l.Slots))
	for i, s := range l.Slots {
		players[i] = s.Player
	}
	return players
}
