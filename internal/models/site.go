package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownSite = errors.New("unknown site")

// PositionSlot represents a position slot in a lineup
type PositionSlot struct {
	SlotName         string   `json:"slot_name"`         // e.g., "QB", "FLEX"
	AllowedPositions []string `json:"allowed_positions"` // e.g., ["QB"] or ["RB", "WR", "TE"]
}

func (s PositionSlot) Allows(position string) bool {
	for _, allowed := range s.AllowedPositions {
		if allowed == position {
			return true
		}
	}
	return false
}

// IsFlex reports whether more than one position may fill the slot
func (s PositionSlot) IsFlex() bool {
	return len(s.AllowedPositions) > 1
}

// Site carries the salary rules, slot template and export column names of a DFS site
type Site struct {
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	SalaryCap   int            `json:"salary_cap"`
	SalaryFloor int            `json:"salary_floor"`
	Slots       []PositionSlot `json:"slots"`

	// roster-export columns
	NameColumn string `json:"-"`
	IDColumn   string `json:"-"`
}

func (s Site) RosterSize() int {
	return len(s.Slots)
}

// SlotNames returns the slot labels in display order
func (s Site) SlotNames() []string {
	names := make([]string, len(s.Slots))
	for i, slot := range s.Slots {
		names[i] = slot.SlotName
	}
	return names
}

func nflSlots(defenseSlot string) []PositionSlot {
	return []PositionSlot{
		{SlotName: "QB", AllowedPositions: []string{PositionQB}},
		{SlotName: "RB", AllowedPositions: []string{PositionRB}},
		{SlotName: "RB", AllowedPositions: []string{PositionRB}},
		{SlotName: "WR", AllowedPositions: []string{PositionWR}},
		{SlotName: "WR", AllowedPositions: []string{PositionWR}},
		{SlotName: "WR", AllowedPositions: []string{PositionWR}},
		{SlotName: "TE", AllowedPositions: []string{PositionTE}},
		{SlotName: "FLEX", AllowedPositions: []string{PositionRB, PositionWR, PositionTE}},
		{SlotName: defenseSlot, AllowedPositions: []string{PositionDST}},
	}
}

const (
	SiteDraftKings = "dk"
	SiteFanDuel    = "fd"
)

// GetSite returns the site definition for a site key ("dk" or "fd")
func GetSite(key string) (Site, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case SiteDraftKings, "draftkings":
		return Site{
			Key:         SiteDraftKings,
			Name:        "DraftKings",
			SalaryCap:   50000,
			SalaryFloor: 45000,
			Slots:       nflSlots("DST"),
			NameColumn:  "Name",
			IDColumn:    "ID",
		}, nil
	case SiteFanDuel, "fanduel":
		return Site{
			Key:         SiteFanDuel,
			Name:        "FanDuel",
			SalaryCap:   60000,
			SalaryFloor: 55000,
			Slots:       nflSlots("DEF"),
			NameColumn:  "Nickname",
			IDColumn:    "Id",
		}, nil
	}
	return Site{}, fmt.Errorf("%w: %q", ErrUnknownSite, key)
}
