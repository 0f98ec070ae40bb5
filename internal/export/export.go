// Package export writes delivered lineups as upload-ready CSV reports.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
)

// StatHeaders follow the slot columns in every report
var StatHeaders = []string{"Salary", "Fpts Proj", "Ceiling", "Own. Sum", "Own. Product", "STDDEV", "Stack"}

// ExportService handles lineup exports for a site
type ExportService struct {
	logger *logrus.Entry
}

func NewExportService(logger *logrus.Entry) *ExportService {
	return &ExportService{logger: logger.WithField("component", "export")}
}

// Headers returns the report header row for a site
func Headers(site models.Site) []string {
	headers := append([]string{}, site.SlotNames()...)
	return append(headers, StatHeaders...)
}

// ExportLineups renders lineups to CSV. Lineups holding a player without a
// site ID are skipped with a warning and counted.
func (s *ExportService) ExportLineups(lineups []models.AssignedLineup, site models.Site) ([]byte, int, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(Headers(site)); err != nil {
		return nil, 0, fmt.Errorf("failed to write headers: %w", err)
	}

	skipped := 0
	for i, lineup := range lineups {
		row, err := formatLineup(lineup, site)
		if err != nil {
			s.logger.WithError(err).WithField("lineup", i).Warn("Skipping lineup in export")
			skipped++
			continue
		}
		if err := writer.Write(row); err != nil {
			return nil, skipped, fmt.Errorf("failed to write lineup: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, skipped, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), skipped, nil
}

// WriteFile exports lineups to path, creating parent directories as needed
func (s *ExportService) WriteFile(path string, lineups []models.AssignedLineup, site models.Site) (int, error) {
	data, skipped, err := s.ExportLineups(lineups, site)
	if err != nil {
		return skipped, err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return skipped, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return skipped, fmt.Errorf("failed to write %s: %w", path, err)
	}

	s.logger.WithFields(logrus.Fields{
		"path":    path,
		"lineups": len(lineups) - skipped,
		"skipped": skipped,
	}).Info("Lineups exported")
	return skipped, nil
}

// PlayerCell renders a player as "Display Name (ID)"
func PlayerCell(p models.Player) string {
	return fmt.Sprintf("%s (%d)", p.DisplayName(), p.ExternalID)
}

func formatLineup(lineup models.AssignedLineup, site models.Site) ([]string, error) {
	if len(lineup.Slots) != len(site.Slots) {
		return nil, fmt.Errorf("lineup fills %d of %d slots", len(lineup.Slots), len(site.Slots))
	}

	row := make([]string, 0, len(site.Slots)+len(StatHeaders))
	for _, slot := range lineup.Slots {
		if !slot.Player.HasExternalID() {
			return nil, fmt.Errorf("player %s has no site ID", slot.Player.DisplayName())
		}
		row = append(row, PlayerCell(slot.Player))
	}

	stats := lineup.Stats
	if stats == (models.LineupStats{}) {
		stats = Aggregate(lineup)
	}

	return append(row,
		strconv.Itoa(stats.Salary),
		strconv.FormatFloat(stats.ProjectedPoints, 'f', 2, 64),
		strconv.FormatFloat(stats.Ceiling, 'f', 2, 64),
		strconv.FormatFloat(stats.OwnershipSum, 'f', 2, 64),
		strconv.FormatFloat(stats.OwnershipProduct, 'g', 6, 64),
		strconv.FormatFloat(stats.StdDev, 'f', 2, 64),
		stats.Stack,
	), nil
}
