package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/database"
)

var ErrRunNotFound = errors.New("optimization run not found")

// RunHistory persists finished runs to postgres
type RunHistory struct {
	db *database.DB
}

func NewRunHistory(db *database.DB) *RunHistory {
	return &RunHistory{db: db}
}

func (h *RunHistory) Save(ctx context.Context, run *models.OptimizationRun) error {
	if err := h.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save optimization run: %w", err)
	}
	return nil
}

func (h *RunHistory) Get(ctx context.Context, id uuid.UUID) (*models.OptimizationRun, error) {
	var run models.OptimizationRun
	err := h.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load optimization run: %w", err)
	}
	return &run, nil
}

// Recent lists the latest runs, newest first
func (h *RunHistory) Recent(ctx context.Context, limit int) ([]models.OptimizationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.OptimizationRun
	err := h.db.WithContext(ctx).
		Omit("lineups").
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list optimization runs: %w", err)
	}
	return runs, nil
}
