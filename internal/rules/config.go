package rules

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the raw rule document as written by users (JSON, YAML or TOML)
type Config struct {
	ProjectionPath    string                `mapstructure:"projection_path" json:"projection_path,omitempty"`
	PlayerPath        string                `mapstructure:"player_path" json:"player_path,omitempty"`
	AtLeast           map[string][][]string `mapstructure:"at_least" json:"at_least,omitempty"`
	AtMost            map[string][][]string `mapstructure:"at_most" json:"at_most,omitempty"`
	TeamLimits        map[string]int        `mapstructure:"team_limits" json:"team_limits,omitempty"`
	GlobalTeamLimit   int                   `mapstructure:"global_team_limit" json:"global_team_limit,omitempty"`
	ProjectionMinimum float64               `mapstructure:"projection_minimum" json:"projection_minimum,omitempty"`
	Randomness        float64               `mapstructure:"randomness" json:"randomness,omitempty"`
	UseDoubleTE       *bool                 `mapstructure:"use_double_te" json:"use_double_te,omitempty"`
	StackRules        StackRulesConfig      `mapstructure:"stack_rules" json:"stack_rules,omitempty"`
	MatchupLimits     map[string]int        `mapstructure:"matchup_limits" json:"matchup_limits,omitempty"`
	MatchupAtLeast    map[string]int        `mapstructure:"matchup_at_least" json:"matchup_at_least,omitempty"`
	StdDevFractions   map[string]float64    `mapstructure:"stddev_fractions" json:"stddev_fractions,omitempty"`
	RequireIDs        *bool                 `mapstructure:"require_ids" json:"require_ids,omitempty"`
	Seed              uint64                `mapstructure:"seed" json:"seed,omitempty"`
}

type StackRulesConfig struct {
	Pair  []PairConfig  `mapstructure:"pair" json:"pair,omitempty"`
	Limit []LimitConfig `mapstructure:"limit" json:"limit,omitempty"`
}

type PairConfig struct {
	Key          string   `mapstructure:"key" json:"key"`
	Positions    []string `mapstructure:"positions" json:"positions"`
	Count        int      `mapstructure:"count" json:"count"`
	Type         string   `mapstructure:"type" json:"type"`
	ExcludeTeams []string `mapstructure:"exclude_teams" json:"exclude_teams,omitempty"`
}

type LimitConfig struct {
	Positions       []string `mapstructure:"positions" json:"positions"`
	Count           int      `mapstructure:"count" json:"count"`
	Type            string   `mapstructure:"type" json:"type"`
	ExcludeTeams    []string `mapstructure:"exclude_teams" json:"exclude_teams,omitempty"`
	UnlessPositions []string `mapstructure:"unless_positions" json:"unless_positions,omitempty"`
	UnlessType      string   `mapstructure:"unless_type" json:"unless_type,omitempty"`
}

// ReadConfig decodes a rule document; the format follows the file extension
func ReadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."); ext == "" {
		v.SetConfigType("json")
	}

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("failed to read rules %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode rules %s: %w", path, err)
	}

	// relative input paths resolve against the rule file
	dir := filepath.Dir(path)
	if cfg.ProjectionPath != "" && !filepath.IsAbs(cfg.ProjectionPath) {
		cfg.ProjectionPath = filepath.Join(dir, cfg.ProjectionPath)
	}
	if cfg.PlayerPath != "" && !filepath.IsAbs(cfg.PlayerPath) {
		cfg.PlayerPath = filepath.Join(dir, cfg.PlayerPath)
	}

	return cfg, nil
}

// LoadFile reads and validates a rule document
func LoadFile(path string) (*RuleSet, error) {
	cfg, err := ReadConfig(path)
	if err != nil {
		return nil, err
	}
	return FromConfig(cfg)
}
