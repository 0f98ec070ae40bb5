package pool

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
)

// DefaultStdDevFractions are applied when a projection row carries no usable std-dev
var DefaultStdDevFractions = map[string]float64{
	models.PositionQB:  0.33,
	models.PositionRB:  0.40,
	models.PositionWR:  0.45,
	models.PositionTE:  0.45,
	models.PositionDST: 0.50,
}

// MinOwnership replaces a reported ownership of zero
const MinOwnership = 0.1

// LoadOptions controls how projection and roster files are read
type LoadOptions struct {
	Site              models.Site
	ProjectionMinimum float64
	StdDevFractions   map[string]float64
	RequireIDs        bool
}

// LoadReport summarizes a load for logging and API responses
type LoadReport struct {
	Loaded              int `json:"loaded"`
	SkippedBelowMinimum int `json:"skipped_below_minimum"`
	Duplicates          int `json:"duplicates"`
	Joined              int `json:"joined"`
	MissingIDs          int `json:"missing_ids"`
	Removed             int `json:"removed"`
}

// ParseError locates a malformed cell
type ParseError struct {
	Source string
	Row    int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s row %d column %q: %v", e.Source, e.Row, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var ErrMissingColumn = errors.New("missing required column")

type csvTable struct {
	source  string
	columns map[string]int
	rows    [][]string
}

func readTable(r io.Reader, source string) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file", source)
	}

	header := records[0]
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	return &csvTable{source: source, columns: columns, rows: records[1:]}, nil
}

func (t *csvTable) has(column string) bool {
	_, ok := t.columns[strings.ToLower(column)]
	return ok
}

// firstColumn returns the first of the candidate columns present in the header
func (t *csvTable) firstColumn(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if t.has(c) {
			return c, true
		}
	}
	return "", false
}

func (t *csvTable) require(columns ...string) error {
	for _, c := range columns {
		if !t.has(c) {
			return fmt.Errorf("%s: %w %q", t.source, ErrMissingColumn, c)
		}
	}
	return nil
}

func (t *csvTable) cell(row []string, column string) string {
	i, ok := t.columns[strings.ToLower(column)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *csvTable) float(row []string, rowNum int, column string) (float64, error) {
	v, err := strconv.ParseFloat(t.cell(row, column), 64)
	if err != nil {
		return 0, &ParseError{Source: t.source, Row: rowNum, Column: column, Err: err}
	}
	return v, nil
}

// optionalFloat treats a missing column or blank cell as absent
func (t *csvTable) optionalFloat(row []string, rowNum int, column string) (float64, bool, error) {
	if t.cell(row, column) == "" {
		return 0, false, nil
	}
	v, err := t.float(row, rowNum, column)
	return v, err == nil, err
}

func (t *csvTable) int(row []string, rowNum int, column string) (int, error) {
	raw := t.cell(row, column)
	if v, err := strconv.Atoi(raw); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		if err == nil {
			err = fmt.Errorf("not an integer: %q", raw)
		}
		return 0, &ParseError{Source: t.source, Row: rowNum, Column: column, Err: err}
	}
	return int(f), nil
}

// ReadProjections parses a projections file. Players below the projection
// minimum are skipped except defenses; later duplicates of a key are dropped.
func ReadProjections(r io.Reader, source string, opts LoadOptions, report *LoadReport) ([]models.Player, error) {
	table, err := readTable(r, source)
	if err != nil {
		return nil, err
	}
	if err := table.require("Name", "Position", "Team", "Salary", "Fpts"); err != nil {
		return nil, err
	}

	fractions := opts.StdDevFractions
	if len(fractions) == 0 {
		fractions = DefaultStdDevFractions
	}

	seen := make(map[models.PlayerKey]bool)
	players := make([]models.Player, 0, len(table.rows))
	for i, row := range table.rows {
		rowNum := i + 2
		name := table.cell(row, "Name")
		if name == "" {
			continue
		}

		fpts, err := table.float(row, rowNum, "Fpts")
		if err != nil {
			return nil, err
		}
		salary, err := table.int(row, rowNum, "Salary")
		if err != nil {
			return nil, err
		}

		position := models.NormalizePosition(table.cell(row, "Position"))
		if fpts < opts.ProjectionMinimum && position != models.PositionDST {
			report.SkippedBelowMinimum++
			continue
		}

		ownership := 0.0
		if table.has("Own%") {
			if ownership, _, err = table.optionalFloat(row, rowNum, "Own%"); err != nil {
				return nil, err
			}
		}
		if ownership == 0 {
			ownership = MinOwnership
		}

		stddev, _, err := table.optionalFloat(row, rowNum, "StdDev")
		if err != nil {
			return nil, err
		}
		if stddev <= 0 {
			stddev = fpts * fractions[position]
		}

		ceiling, ok, err := table.optionalFloat(row, rowNum, "Ceiling")
		if err != nil {
			return nil, err
		}
		if !ok {
			ceiling = fpts + stddev
		}

		player := models.Player{
			Name:            models.NormalizeName(name),
			SourceName:      strings.TrimSpace(name),
			Position:        position,
			Team:            models.NormalizeTeam(table.cell(row, "Team")),
			Salary:          salary,
			ProjectedPoints: fpts,
			Ownership:       ownership,
			Ceiling:         ceiling,
			StdDev:          stddev,
		}

		key := player.Key()
		if seen[key] {
			report.Duplicates++
			continue
		}
		seen[key] = true
		players = append(players, player)
	}

	report.Loaded = len(players)
	return players, nil
}

// JoinRoster assigns site ids, opponents and matchups from a roster export.
// Players are matched on (normalized name, first roster position, team).
func JoinRoster(players []models.Player, r io.Reader, source string, site models.Site, report *LoadReport) error {
	table, err := readTable(r, source)
	if err != nil {
		return err
	}
	teamColumn, ok := table.firstColumn("TeamAbbrev", "Team")
	if !ok {
		return fmt.Errorf("%s: %w %q", source, ErrMissingColumn, "TeamAbbrev")
	}
	positionColumn, ok := table.firstColumn("Roster Position", "Position")
	if !ok {
		return fmt.Errorf("%s: %w %q", source, ErrMissingColumn, "Roster Position")
	}
	if err := table.require(site.NameColumn, site.IDColumn); err != nil {
		return err
	}
	gameColumn, _ := table.firstColumn("Game Info", "Game")

	index := make(map[models.PlayerKey]int, len(players))
	for i, p := range players {
		index[p.Key()] = i
	}

	for i, row := range table.rows {
		rowNum := i + 2
		key := models.PlayerKey{
			Name:     models.NormalizeName(table.cell(row, site.NameColumn)),
			Position: models.NormalizePosition(strings.Split(table.cell(row, positionColumn), "/")[0]),
			Team:     models.NormalizeTeam(table.cell(row, teamColumn)),
		}
		idx, ok := index[key]
		if !ok {
			continue
		}

		id, err := parseExternalID(table.cell(row, site.IDColumn))
		if err != nil {
			return &ParseError{Source: source, Row: rowNum, Column: site.IDColumn, Err: err}
		}

		player := &players[idx]
		if player.ExternalID == 0 {
			report.Joined++
		}
		player.ExternalID = id
		if gameColumn != "" {
			player.Matchup, player.Opponent = parseGameInfo(table.cell(row, gameColumn), key.Team)
		}
	}

	return nil
}

// parseExternalID accepts plain integer ids and FanDuel's "<slate>-<player>" form
func parseExternalID(raw string) (int64, error) {
	if parts := strings.Split(raw, "-"); len(parts) > 1 {
		raw = parts[1]
	}
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}

// parseGameInfo turns "AWY@HOM 10/01/2023 01:00PM ET" into the matchup id and the team's opponent
func parseGameInfo(info, team string) (matchup, opponent string) {
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return "", ""
	}
	teams := strings.Split(fields[0], "@")
	if len(teams) != 2 {
		return "", ""
	}
	away, home := models.NormalizeTeam(teams[0]), models.NormalizeTeam(teams[1])
	matchup = away + "@" + home
	if away != team {
		return matchup, away
	}
	return matchup, home
}

// Load reads the projection file and, when given, joins the roster export,
// then builds the pool. With RequireIDs, players left without an id are removed.
func Load(projectionPath, rosterPath string, opts LoadOptions, log *logrus.Entry) (*PlayerPool, *LoadReport, error) {
	report := &LoadReport{}
	if opts.RequireIDs && rosterPath == "" {
		return nil, nil, errors.New("site ids are required but no roster export was given")
	}

	f, err := os.Open(projectionPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open projections: %w", err)
	}
	defer f.Close()

	players, err := ReadProjections(f, projectionPath, opts, report)
	if err != nil {
		return nil, nil, err
	}

	if rosterPath != "" {
		rf, err := os.Open(rosterPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open roster export: %w", err)
		}
		defer rf.Close()

		if err := JoinRoster(players, rf, rosterPath, opts.Site, report); err != nil {
			return nil, nil, err
		}
	}

	report.MissingIDs = report.Loaded - report.Joined
	if opts.RequireIDs {
		kept := players[:0]
		for _, p := range players {
			if p.HasExternalID() {
				kept = append(kept, p)
			}
		}
		report.Removed = len(players) - len(kept)
		players = kept
	}

	fields := logrus.Fields{
		"loaded":                report.Loaded,
		"joined":                report.Joined,
		"skipped_below_minimum": report.SkippedBelowMinimum,
	}
	if report.Duplicates > 0 {
		log.WithFields(fields).WithField("duplicates", report.Duplicates).Warn("Duplicate projection rows ignored")
	}
	if report.MissingIDs > 0 {
		log.WithFields(fields).WithFields(logrus.Fields{
			"missing_ids": report.MissingIDs,
			"removed":     report.Removed,
		}).Warn("Players without a site id")
	}

	p, err := New(players)
	if err != nil {
		return nil, nil, err
	}

	log.WithFields(fields).WithField("pool_size", p.Len()).Info("Player pool loaded")
	return p, report, nil
}
