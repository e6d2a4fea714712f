package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthvtt/levelforge/internal/config"
	"github.com/hearthvtt/levelforge/internal/storage/postgres"
	"github.com/hearthvtt/levelforge/internal/testutil"
)

func TestPoolHealth(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	assert.NoError(t, pc.Pool.Health(context.Background(), 5*time.Second))
}

func TestNewPoolUnreachableHost(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := postgres.NewPool(ctx, config.DatabaseConfig{
		Host: "127.0.0.1", Port: 1, User: "x", Password: "x",
		Name: "x", SSLMode: "disable", MaxConns: 1, MinConns: 0,
		MaxConnLifetime: time.Minute,
	})
	require.Error(t, err, "an unreachable database must fail pool construction")
}
