package optimizer

import (
	"sort"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
)

// TeamExposure counts lineups that roster at least one player of a team
type TeamExposure struct {
	Team    string  `json:"team"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// ExposureReport summarizes player and team usage across delivered lineups
type ExposureReport struct {
	TotalLineups    int                     `json:"total_lineups"`
	PlayerExposures []models.PlayerExposure `json:"player_exposures"`
	TeamExposures   []TeamExposure          `json:"team_exposures"`
}

// GenerateExposureReport counts how often each player and team appears
func GenerateExposureReport(lineups []models.AssignedLineup) *ExposureReport {
	report := &ExposureReport{
		TotalLineups:    len(lineups),
		PlayerExposures: make([]models.PlayerExposure, 0),
		TeamExposures:   make([]TeamExposure, 0),
	}
	if len(lineups) == 0 {
		return report
	}

	playerCount := make(map[models.PlayerKey]int)
	playerOrder := make([]models.PlayerKey, 0)
	displayNames := make(map[models.PlayerKey]string)
	teamCount := make(map[string]int)
	teamOrder := make([]string, 0)

	for _, lineup := range lineups {
		teams := make(map[string]bool)
		for _, slot := range lineup.Slots {
			key := slot.Player.Key()
			if playerCount[key] == 0 {
				playerOrder = append(playerOrder, key)
				displayNames[key] = slot.Player.DisplayName()
			}
			playerCount[key]++
			teams[slot.Player.Team] = true
		}
		for _, slot := range lineup.Slots {
			team := slot.Player.Team
			if !teams[team] {
				continue
			}
			if teamCount[team] == 0 {
				teamOrder = append(teamOrder, team)
			}
			teamCount[team]++
			teams[team] = false
		}
	}

	total := float64(len(lineups))
	for _, key := range playerOrder {
		count := playerCount[key]
		report.PlayerExposures = append(report.PlayerExposures, models.PlayerExposure{
			Name:     displayNames[key],
			Position: key.Position,
			Team:     key.Team,
			Count:    count,
			Percent:  float64(count) / total * 100,
		})
	}
	for _, team := range teamOrder {
		report.TeamExposures = append(report.TeamExposures, TeamExposure{
			Team:    team,
			Count:   teamCount[team],
			Percent: float64(teamCount[team]) / total * 100,
		})
	}

	sort.SliceStable(report.PlayerExposures, func(i, j int) bool {
		return report.PlayerExposures[i].Count > report.PlayerExposures[j].Count
	})
	sort.SliceStable(report.TeamExposures, func(i, j int) bool {
		return report.TeamExposures[i].Count > report.TeamExposures[j].Count
	})

	return report
}
