// Package rules turns the declarative optimizer configuration into a validated RuleSet.
package rules

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
)

var ErrInvalidRule = errors.New("invalid rule")

// Relation selects players relative to a team
type Relation string

const (
	SameTeam Relation = "same-team"
	OppTeam  Relation = "opp-team"
	SameGame Relation = "same-game"
)

func ParseRelation(s string) (Relation, error) {
	switch r := Relation(strings.ToLower(strings.TrimSpace(s))); r {
	case SameTeam, OppTeam, SameGame:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown stack type %q", ErrInvalidRule, s)
}

// GroupBound bounds how many players of a named group may be rostered
type GroupBound struct {
	Count int
	Names []string
}

// EntityBound bounds the players of a team or matchup
type EntityBound struct {
	Key   string
	Count int
}

// PairRule requires Count co-occurring players whenever a team's anchor at Key is rostered
type PairRule struct {
	Key          string
	Positions    []string
	Count        int
	Type         Relation
	ExcludeTeams []string
}

// LimitRule caps the players selected by Positions/Type for each team, unless
// the optional exemption group is also rostered.
type LimitRule struct {
	Positions       []string
	Count           int
	Type            Relation
	ExcludeTeams    []string
	UnlessPositions []string
	UnlessType      Relation
}

func (r LimitRule) HasExemption() bool {
	return len(r.UnlessPositions) > 0
}

// RuleSet is the validated, read-only view over a rule configuration
type RuleSet struct {
	AtLeast         []GroupBound
	AtMost          []GroupBound
	TeamLimits      []EntityBound
	GlobalTeamLimit int // 0 means unlimited
	MatchupLimits   []EntityBound
	MatchupAtLeast  []EntityBound
	PairRules       []PairRule
	LimitRules      []LimitRule

	ProjectionMinimum float64
	Randomness        float64
	UseDoubleTE       bool
	StdDevFractions   map[string]float64
	RequireIDs        bool
	Seed              uint64

	ProjectionPath string
	PlayerPath     string
}

func excluded(teams []string, team string) bool {
	for _, t := range teams {
		if t == team {
			return true
		}
	}
	return false
}

func (r PairRule) Excludes(team string) bool  { return excluded(r.ExcludeTeams, team) }
func (r LimitRule) Excludes(team string) bool { return excluded(r.ExcludeTeams, team) }

// FromConfig validates a raw configuration
func FromConfig(cfg Config) (*RuleSet, error) {
	rs := &RuleSet{
		GlobalTeamLimit:   cfg.GlobalTeamLimit,
		ProjectionMinimum: cfg.ProjectionMinimum,
		Randomness:        cfg.Randomness,
		UseDoubleTE:       true,
		RequireIDs:        true,
		Seed:              cfg.Seed,
		ProjectionPath:    cfg.ProjectionPath,
		PlayerPath:        cfg.PlayerPath,
	}
	if cfg.UseDoubleTE != nil {
		rs.UseDoubleTE = *cfg.UseDoubleTE
	}
	if cfg.RequireIDs != nil {
		rs.RequireIDs = *cfg.RequireIDs
	}
	if rs.Randomness < 0 {
		return nil, fmt.Errorf("%w: negative randomness %v", ErrInvalidRule, rs.Randomness)
	}
	if rs.GlobalTeamLimit < 0 {
		return nil, fmt.Errorf("%w: negative global_team_limit %d", ErrInvalidRule, rs.GlobalTeamLimit)
	}

	var err error
	if rs.AtLeast, err = groupBounds("at_least", cfg.AtLeast); err != nil {
		return nil, err
	}
	if rs.AtMost, err = groupBounds("at_most", cfg.AtMost); err != nil {
		return nil, err
	}
	if rs.TeamLimits, err = entityBounds("team_limits", cfg.TeamLimits); err != nil {
		return nil, err
	}
	if rs.MatchupLimits, err = entityBounds("matchup_limits", cfg.MatchupLimits); err != nil {
		return nil, err
	}
	if rs.MatchupAtLeast, err = entityBounds("matchup_at_least", cfg.MatchupAtLeast); err != nil {
		return nil, err
	}

	if len(cfg.StdDevFractions) > 0 {
		rs.StdDevFractions = make(map[string]float64, len(cfg.StdDevFractions))
		for pos, frac := range cfg.StdDevFractions {
			if frac < 0 {
				return nil, fmt.Errorf("%w: negative stddev fraction for %s", ErrInvalidRule, pos)
			}
			rs.StdDevFractions[models.NormalizePosition(pos)] = frac
		}
	}

	for i, raw := range cfg.StackRules.Pair {
		rule, err := pairRule(raw)
		if err != nil {
			return nil, fmt.Errorf("stack_rules.pair[%d]: %w", i, err)
		}
		rs.PairRules = append(rs.PairRules, rule)
	}
	for i, raw := range cfg.StackRules.Limit {
		rule, err := limitRule(raw)
		if err != nil {
			return nil, fmt.Errorf("stack_rules.limit[%d]: %w", i, err)
		}
		rs.LimitRules = append(rs.LimitRules, rule)
	}

	return rs, nil
}

// groupBounds orders bounds by count, keeping group order within a count
func groupBounds(field string, raw map[string][][]string) ([]GroupBound, error) {
	counts := make([]int, 0, len(raw))
	byCount := make(map[int][][]string, len(raw))
	for key, groups := range raw {
		count, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("%w: %s key %q is not an integer", ErrInvalidRule, field, key)
		}
		if count < 0 {
			return nil, fmt.Errorf("%w: %s count %d is negative", ErrInvalidRule, field, count)
		}
		if _, ok := byCount[count]; !ok {
			counts = append(counts, count)
		}
		byCount[count] = append(byCount[count], groups...)
	}
	sort.Ints(counts)

	var out []GroupBound
	for _, count := range counts {
		for _, names := range byCount[count] {
			out = append(out, GroupBound{Count: count, Names: names})
		}
	}
	return out, nil
}

// entityBounds keys are upper-cased since config readers may fold case
func entityBounds(field string, raw map[string]int) ([]EntityBound, error) {
	out := make([]EntityBound, 0, len(raw))
	for key, count := range raw {
		if count < 0 {
			return nil, fmt.Errorf("%w: %s %q count %d is negative", ErrInvalidRule, field, key, count)
		}
		out = append(out, EntityBound{Key: strings.ToUpper(strings.TrimSpace(key)), Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func positions(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		out = append(out, models.NormalizePosition(p))
	}
	return out
}

func teams(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		out = append(out, models.NormalizeTeam(t))
	}
	return out
}

func pairRule(raw PairConfig) (PairRule, error) {
	if strings.TrimSpace(raw.Key) == "" {
		return PairRule{}, fmt.Errorf("%w: missing key position", ErrInvalidRule)
	}
	if len(raw.Positions) == 0 {
		return PairRule{}, fmt.Errorf("%w: no stack positions", ErrInvalidRule)
	}
	if raw.Count < 0 {
		return PairRule{}, fmt.Errorf("%w: negative count %d", ErrInvalidRule, raw.Count)
	}
	rel, err := ParseRelation(raw.Type)
	if err != nil {
		return PairRule{}, err
	}
	return PairRule{
		Key:          models.NormalizePosition(raw.Key),
		Positions:    positions(raw.Positions),
		Count:        raw.Count,
		Type:         rel,
		ExcludeTeams: teams(raw.ExcludeTeams),
	}, nil
}

func limitRule(raw LimitConfig) (LimitRule, error) {
	if len(raw.Positions) == 0 {
		return LimitRule{}, fmt.Errorf("%w: no limit positions", ErrInvalidRule)
	}
	if raw.Count < 0 {
		return LimitRule{}, fmt.Errorf("%w: negative count %d", ErrInvalidRule, raw.Count)
	}
	rel, err := ParseRelation(raw.Type)
	if err != nil {
		return LimitRule{}, err
	}
	rule := LimitRule{
		Positions:    positions(raw.Positions),
		Count:        raw.Count,
		Type:         rel,
		ExcludeTeams: teams(raw.ExcludeTeams),
	}

	hasPositions, hasType := len(raw.UnlessPositions) > 0, strings.TrimSpace(raw.UnlessType) != ""
	if hasPositions != hasType {
		return LimitRule{}, fmt.Errorf("%w: unless_positions and unless_type must be given together", ErrInvalidRule)
	}
	if hasPositions {
		if rule.UnlessType, err = ParseRelation(raw.UnlessType); err != nil {
			return LimitRule{}, err
		}
		rule.UnlessPositions = positions(raw.UnlessPositions)
	}
	return rule, nil
}
