package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestLoginAttemptRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7.0-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	}
	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	defer redisC.Terminate(ctx)

	host, err := redisC.Host(ctx)
	require.NoError(t, err)
	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	defer rdb.Close()
	require.NoError(t, rdb.Ping(ctx).Err())

	repo := NewLoginAttemptRepository(rdb, 2, 2*time.Second)

	t.Run("BlocksAfterMaxFailures", func(t *testing.T) {
		ok, err := repo.Allow(ctx, "a@b.com")
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, repo.RegisterFailure(ctx, "a@b.com"))
		require.NoError(t, repo.RegisterFailure(ctx, "A@B.com"))

		ok, err = repo.Allow(ctx, "a@b.com")
		require.NoError(t, err)
		assert.False(t, ok)

		ttl, err := rdb.TTL(ctx, attemptKey("a@b.com")).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("ResetClearsCounter", func(t *testing.T) {
		require.NoError(t, repo.Reset(ctx, "a@b.com"))
		ok, err := repo.Allow(ctx, "a@b.com")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("WindowExpires", func(t *testing.T) {
		require.NoError(t, repo.RegisterFailure(ctx, "c@d.com"))
		require.NoError(t, repo.RegisterFailure(ctx, "c@d.com"))
		time.Sleep(2500 * time.Millisecond)

		ok, err := repo.Allow(ctx, "c@d.com")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
