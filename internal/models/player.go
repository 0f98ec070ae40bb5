package models

import "strings"

// NameSentinel replaces hyphens in normalized names and is reversed on export.
const NameSentinel = "#"

// PlayerKey identifies a player within a pool
type PlayerKey struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Team     string `json:"team"`
}

func (k PlayerKey) String() string {
	return k.Name + "/" + k.Position + "/" + k.Team
}

// Player is one entry of the projection pool
type Player struct {
	Name            string  `json:"name"`
	SourceName      string  `json:"source_name,omitempty"`
	Position        string  `json:"position"`
	Team            string  `json:"team"`
	Opponent        string  `json:"opponent,omitempty"`
	Matchup         string  `json:"matchup,omitempty"`
	Salary          int     `json:"salary"`
	ProjectedPoints float64 `json:"projected_points"`
	Ownership       float64 `json:"ownership"`
	Ceiling         float64 `json:"ceiling"`
	StdDev          float64 `json:"stddev"`
	ExternalID      int64   `json:"external_id"`
}

func (p Player) Key() PlayerKey {
	return PlayerKey{Name: p.Name, Position: p.Position, Team: p.Team}
}

// DisplayName is the name as the projections file spelled it, falling back
// to the normalized name with the hyphen sentinel reversed
func (p Player) DisplayName() string {
	if p.SourceName != "" {
		return p.SourceName
	}
	return strings.ReplaceAll(p.Name, NameSentinel, "-")
}

func (p Player) HasExternalID() bool {
	return p.ExternalID != 0
}

// NormalizeName lowercases, trims and protects hyphens so names from
// different sources join on the same key.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(name, "-", NameSentinel)))
}

var teamRenames = map[string]string{
	"LA": "LAR",
}

// NormalizeTeam applies the team rename table
func NormalizeTeam(team string) string {
	team = strings.ToUpper(strings.TrimSpace(team))
	if renamed, ok := teamRenames[team]; ok {
		return renamed
	}
	return team
}

// NormalizePosition maps site-specific defense labels onto DST
func NormalizePosition(position string) string {
	position = strings.ToUpper(strings.TrimSpace(position))
	switch position {
	case "D", "DEF", "D/ST":
		return PositionDST
	}
	return position
}

const (
	PositionQB  = "QB"
	PositionRB  = "RB"
	PositionWR  = "WR"
	PositionTE  = "TE"
	PositionDST = "DST"
)

// Positions lists the NFL positions in roster order
var Positions = []string{PositionQB, PositionRB, PositionWR, PositionTE, PositionDST}
