//go:build integration

package contact

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgresStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15",
		postgres.WithDatabase("pagesmith_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.True(t, IsPostgresDSN(dsn))

	s, err := OpenStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresStoreOutbox(t *testing.T) {
	s := setupPostgresStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, Submission{Name: "Ada", Email: "ada@example.com", Message: "Hello"})
	require.NoError(t, err)
	require.NoError(t, s.Publish(ctx, Submission{Name: "Bob", Email: "bob@example.com", Message: "Hi"}))

	m, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", m.Submission.Name)
	assert.Nil(t, m.DeliveredAt)

	pub := &recordingPublisher{}
	n, err := s.Drain(ctx, pub, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pending, err := s.Pending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	m, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, m.DeliveredAt)
}

func TestPostgresStoreSchemaIsIdempotent(t *testing.T) {
	s := setupPostgresStore(t)
	require.NoError(t, s.ensureSchema(context.Background()))
}
