package optimizer

import (
	"fmt"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
)

// PositionConstraint defines constraints for a specific position
type PositionConstraint struct {
	Position      string
	MinRequired   int
	MaxAllowed    int
	EligibleSlots []string // flex slots this position can also fill
}

func (pc PositionConstraint) Exact() bool {
	return pc.MinRequired == pc.MaxAllowed
}

// LineupConstraints holds all constraints for lineup validation
type LineupConstraints struct {
	SalaryCap           int
	SalaryFloor         int
	RosterSize          int
	PositionConstraints []PositionConstraint
}

// GetConstraintsForSite derives position ranges from the site's slot template:
// the minimum is the number of dedicated slots, the maximum adds every flex
// slot the position may fill. Without double TE the TE range collapses to its minimum.
func GetConstraintsForSite(site models.Site, useDoubleTE bool) *LineupConstraints {
	lc := &LineupConstraints{
		SalaryCap:   site.SalaryCap,
		SalaryFloor: site.SalaryFloor,
		RosterSize:  site.RosterSize(),
	}

	for _, pos := range models.Positions {
		pc := PositionConstraint{Position: pos}
		for _, slot := range site.Slots {
			if !slot.Allows(pos) {
				continue
			}
			if slot.IsFlex() {
				pc.MaxAllowed++
				pc.EligibleSlots = append(pc.EligibleSlots, slot.SlotName)
			} else {
				pc.MinRequired++
				pc.MaxAllowed++
			}
		}
		if pos == models.PositionTE && !useDoubleTE {
			pc.MaxAllowed = pc.MinRequired
		}
		lc.PositionConstraints = append(lc.PositionConstraints, pc)
	}

	return lc
}

// ValidateLineup checks salary, composition and roster size
func (lc *LineupConstraints) ValidateLineup(lineup models.Lineup) error {
	if len(lineup.Players) != lc.RosterSize {
		return fmt.Errorf("lineup has %d players, need %d", len(lineup.Players), lc.RosterSize)
	}

	if err := lc.validateSalary(lineup); err != nil {
		return err
	}

	return lc.validatePositions(lineup)
}

func (lc *LineupConstraints) validateSalary(lineup models.Lineup) error {
	salary := lineup.Salary()
	if salary > lc.SalaryCap {
		return fmt.Errorf("lineup exceeds salary cap: %d > %d", salary, lc.SalaryCap)
	}

	if salary < lc.SalaryFloor {
		return fmt.Errorf("lineup is under the salary floor: %d < %d", salary, lc.SalaryFloor)
	}

	return nil
}

func (lc *LineupConstraints) validatePositions(lineup models.Lineup) error {
	positionCounts := make(map[string]int)
	for _, player := range lineup.Players {
		positionCounts[player.Position]++
	}

	for _, constraint := range lc.PositionConstraints {
		count := positionCounts[constraint.Position]

		if count < constraint.MinRequired {
			return fmt.Errorf("position %s requires at least %d players, got %d", constraint.Position, constraint.MinRequired, count)
		}

		if count > constraint.MaxAllowed {
			return fmt.Errorf("position %s allows at most %d players, got %d", constraint.Position, constraint.MaxAllowed, count)
		}
	}

	return nil
}
