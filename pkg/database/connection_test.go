package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
)

func TestMigrateAndHealthCheck(t *testing.T) {
	db, err := NewConnection("sqlite://:memory:", false)
	require.NoError(t, err)

	require.NoError(t, db.Migrate())
	assert.True(t, db.Migrator().HasTable(&models.OptimizationRun{}))
	assert.NoError(t, db.HealthCheck())

	require.NoError(t, db.Close())
	assert.Error(t, db.HealthCheck())
}

func TestNewConnection_SqliteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	db, err := NewConnection("sqlite://"+path, false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	require.NoError(t, db.Close())

	// schema survives a reopen
	db, err = NewConnection("sqlite://"+path, false)
	require.NoError(t, err)
	defer db.Close()
	assert.True(t, db.Migrator().HasTable("optimization_runs"))
}

func TestNewConnection_BadURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"unreachable postgres", "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"},
		{"unknown scheme", "mysql://root@localhost/runs"},
		{"sqlite without path", "sqlite://"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConnection(tt.url, false)
			assert.Error(t, err)
		})
	}
}
