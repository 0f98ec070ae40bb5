package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PlayerExposure reports how often a player appears across delivered lineups
type PlayerExposure struct {
	Name     string  `json:"name"`
	Position string  `json:"position"`
	Team     string  `json:"team"`
	Count    int     `json:"count"`
	Percent  float64 `json:"percent"`
}

// OptimizationResult is the outcome of one generation run
type OptimizationResult struct {
	RunID            string           `json:"run_id"`
	Site             string           `json:"site"`
	Requested        int              `json:"requested"`
	Generated        int              `json:"generated"`
	Delivered        int              `json:"delivered"`
	Shortfall        int              `json:"shortfall"`
	DroppedOnAssign  int              `json:"dropped_on_assign"`
	RemovedAsSimilar int              `json:"removed_as_similar"`
	Lineups          []AssignedLineup `json:"lineups"`
	Exposures        []PlayerExposure `json:"exposures"`
	Warnings         []string         `json:"warnings,omitempty"`
	StopReason       string           `json:"stop_reason,omitempty"`
	ElapsedMillis    int64            `json:"elapsed_ms"`
	CreatedAt        time.Time        `json:"created_at"`
}

// OptimizationRun is the persisted history row for a generation run
type OptimizationRun struct {
	ID         uuid.UUID                            `gorm:"type:uuid;primary_key" json:"id"`
	Site       string                               `gorm:"size:8;not null;index" json:"site"`
	Requested  int                                  `gorm:"not null" json:"requested"`
	Delivered  int                                  `gorm:"not null" json:"delivered"`
	Shortfall  int                                  `gorm:"default:0" json:"shortfall"`
	NumUniques int                                  `gorm:"default:1" json:"num_uniques"`
	Seed       uint64                               `json:"seed"`
	ElapsedMs  int64                                `json:"elapsed_ms"`
	Lineups    datatypes.JSONType[[]AssignedLineup] `json:"lineups"`
	CreatedAt  time.Time                            `json:"created_at"`
}

// TableName specifies the table name for GORM
func (OptimizationRun) TableName() string {
	return "optimization_runs"
}
