package services

import (
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/solver"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/config"
)

// NewSolver picks the solver backend named by the configuration
func NewSolver(cfg *config.Config, logger *logrus.Logger) (solver.Solver, error) {
	switch cfg.Solver {
	case config.SolverCBC:
		path, err := exec.LookPath(cfg.CBCPath)
		if err != nil {
			return nil, fmt.Errorf("cbc solver not found at %q: %w", cfg.CBCPath, err)
		}
		logger.WithField("path", path).Info("Using CBC solver")
		return solver.NewCBC(path, logger), nil
	case config.SolverNative, "":
		return solver.NewBranchAndBound(logger), nil
	}
	return nil, fmt.Errorf("unknown solver %q", cfg.Solver)
}
