package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfigDefaults(t *testing.T) {
	cfg, err := poolConfig("postgres://clinic:pw@localhost:5432/clinic", PoolOptions{})
	require.NoError(t, err)

	assert.Equal(t, int32(10), cfg.MaxConns)
	assert.Equal(t, int32(1), cfg.MinConns)
	assert.Equal(t, "UTC", cfg.ConnConfig.RuntimeParams["timezone"])
	_, ok := cfg.ConnConfig.RuntimeParams["application_name"]
	assert.False(t, ok)
}

func TestPoolConfigOptions(t *testing.T) {
	cfg, err := poolConfig("postgres://clinic:pw@localhost:5432/clinic", PoolOptions{
		AppName:  "scheduler-worker",
		MaxConns: 4,
		MinConns: 8,
	})
	require.NoError(t, err)

	assert.Equal(t, int32(4), cfg.MaxConns)
	assert.Equal(t, int32(4), cfg.MinConns)
	assert.Equal(t, "scheduler-worker", cfg.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfigRejectsBadDSN(t *testing.T) {
	_, err := poolConfig("postgres://%zz", PoolOptions{})
	assert.Error(t, err)
}
