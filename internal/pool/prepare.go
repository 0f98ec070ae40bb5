package pool

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
)

// Prepare builds a pool from players that arrive already joined, such as an
// API request body. Names, teams and positions are normalized and the same
// minimum, default and id rules as Load are applied.
func Prepare(players []models.Player, opts LoadOptions, log *logrus.Entry) (*PlayerPool, *LoadReport, error) {
	fractions := opts.StdDevFractions
	if len(fractions) == 0 {
		fractions = DefaultStdDevFractions
	}

	report := &LoadReport{}
	seen := make(map[models.PlayerKey]bool, len(players))
	kept := make([]models.Player, 0, len(players))
	for _, p := range players {
		if p.SourceName == "" {
			p.SourceName = strings.TrimSpace(p.Name)
		}
		p.Name = models.NormalizeName(p.Name)
		p.Team = models.NormalizeTeam(p.Team)
		p.Position = models.NormalizePosition(p.Position)
		p.Opponent = models.NormalizeTeam(p.Opponent)

		if p.ProjectedPoints < opts.ProjectionMinimum && p.Position != models.PositionDST {
			report.SkippedBelowMinimum++
			continue
		}
		if p.Ownership == 0 {
			p.Ownership = MinOwnership
		}
		if p.StdDev <= 0 {
			p.StdDev = p.ProjectedPoints * fractions[p.Position]
		}
		if p.Ceiling == 0 {
			p.Ceiling = p.ProjectedPoints + p.StdDev
		}

		if seen[p.Key()] {
			report.Duplicates++
			continue
		}
		seen[p.Key()] = true
		kept = append(kept, p)
	}

	report.Loaded = len(kept)
	for _, p := range kept {
		if p.HasExternalID() {
			report.Joined++
		}
	}
	report.MissingIDs = report.Loaded - report.Joined

	if opts.RequireIDs && report.MissingIDs > 0 {
		withIDs := kept[:0]
		for _, p := range kept {
			if p.HasExternalID() {
				withIDs = append(withIDs, p)
			}
		}
		report.Removed = len(kept) - len(withIDs)
		kept = withIDs
		log.WithField("removed", report.Removed).Warn("Players without a site id")
	}

	p, err := New(kept)
	if err != nil {
		return nil, nil, err
	}
	return p, report, nil
}
