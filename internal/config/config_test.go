package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, TargetProd, cfg.SchemaTarget)
	assert.Equal(t, "hcl", cfg.SchemaTarget.SchemaName())
	assert.Equal(t, 1000, cfg.BatchSize)
	assert.Equal(t, 1, cfg.RetryAttempts)
	assert.Equal(t, []int{CurrentSeason()}, cfg.UpdateSeasons)
	assert.Empty(t, cfg.UpdateWeeks)
}

func TestLoadTestTarget(t *testing.T) {
	t.Setenv("SCHEMA_TARGET", "test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, TargetTest, cfg.SchemaTarget)
	assert.Equal(t, "hcl_test", cfg.SchemaTarget.SchemaName())
}

func TestLoadRejectsUnknownTarget(t *testing.T) {
	t.Setenv("SCHEMA_TARGET", "staging")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadSeasonAndWeekLists(t *testing.T) {
	t.Setenv("UPDATE_SEASONS", "2022, 2023,2024")
	t.Setenv("UPDATE_WEEKS", "1,2,3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int{2022, 2023, 2024}, cfg.UpdateSeasons)
	assert.Equal(t, []int{1, 2, 3}, cfg.UpdateWeeks)
}

func TestLoadRejectsBadSeasonList(t *testing.T) {
	t.Setenv("UPDATE_SEASONS", "2022,twenty-three")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSNEscapesCredentials(t *testing.T) {
	cfg := Config{
		DBHost: "db", DBPort: "5432", DBName: "nfl_analytics",
		DBUser: "loader", DBPassword: "p@ss:word",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "p%40ss%3Aword")
	assert.Contains(t, dsn, "@db:5432/nfl_analytics")
}
