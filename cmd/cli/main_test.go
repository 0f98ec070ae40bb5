package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/config"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/logger"
)

const testRules = "../../internal/services/testdata/rules.json"

func testConfig() *config.Config {
	return &config.Config{
		Solver:              config.SolverNative,
		MaxLineups:          150,
		OptimizationTimeout: time.Minute,
		SlotWorkers:         2,
	}
}

func TestRunOptimize(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "output", "dk_optimal_lineups.csv")
	var out bytes.Buffer

	err := runOptimize(context.Background(), optimizeOptions{
		site:       "dk",
		configPath: testRules,
		outPath:    outPath,
		lineups:    4,
		uniques:    2,
		seed:       99,
	}, testConfig(), logger.Discard(), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Loaded 16 players (16 joined, 0 removed without ids)")
	assert.Contains(t, out.String(), "Requested 4 lineups, delivered 4\n")
	assert.Contains(t, out.String(), "EXPOSURE")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "QB,RB,RB,WR,WR,WR,TE,FLEX,DST,Salary"))
	// ids come from the roster export
	assert.Contains(t, lines[1], "(300")
}

func TestRunOptimize_Errors(t *testing.T) {
	opts := optimizeOptions{
		site:       "dk",
		configPath: testRules,
		outPath:    filepath.Join(t.TempDir(), "out.csv"),
		lineups:    1,
		uniques:    1,
	}

	bad := opts
	bad.site = "yahoo"
	err := runOptimize(context.Background(), bad, testConfig(), logger.Discard(), &bytes.Buffer{})
	assert.ErrorIs(t, err, models.ErrUnknownSite)

	bad = opts
	bad.configPath = "missing.json"
	err = runOptimize(context.Background(), bad, testConfig(), logger.Discard(), &bytes.Buffer{})
	assert.Error(t, err)

	cfg := testConfig()
	cfg.Solver = config.SolverCBC
	cfg.CBCPath = "/nonexistent/cbc"
	err = runOptimize(context.Background(), opts, cfg, logger.Discard(), &bytes.Buffer{})
	assert.ErrorContains(t, err, "cbc solver not found")
}
