package integration

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vncsmyrnk/voteportal/internal/adapters/credentials"
	handler "github.com/vncsmyrnk/voteportal/internal/adapters/handler/http"
	"github.com/vncsmyrnk/voteportal/internal/adapters/repository"
	pgrepo "github.com/vncsmyrnk/voteportal/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/voteportal/internal/adapters/session"
	"github.com/vncsmyrnk/voteportal/internal/config"
	"github.com/vncsmyrnk/voteportal/internal/core/services"
)

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}
	return pgContainer, connStr, nil
}

// setupDatabase starts postgres and applies the migrations. It skips the test
// when docker is not available.
func setupDatabase(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	container, dsn, err := setupPostgresContainer(ctx)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, pgrepo.ApplyMigrations(ctx, db))
	return dsn
}

// instance is one running server process sharing the database with others.
type instance struct {
	Server *httptest.Server
	Portal *services.Portal
}

func startInstance(t *testing.T, dsn string) *instance {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())

	backend, err := repository.Open(ctx, config.StorageConfig{Driver: config.DriverPostgres, DSN: dsn}, logger)
	require.NoError(t, err)

	store := services.NewStore(backend, logger)
	go store.Run(ctx)

	portal := services.NewPortal(services.NewRecords(store), credentials.NewDefaultVerifier(), session.NewMemory, services.PortalConfig{
		LogoutDelay: time.Hour,
		Logger:      logger,
	})
	server := httptest.NewServer(handler.NewHandler(portal, handler.NewTabTokens("test-secret", time.Hour), handler.HandlerConfig{}, logger))

	t.Cleanup(func() {
		server.Close()
		cancel()
		backend.Close()
	})
	return &instance{Server: server, Portal: portal}
}

// newClient returns a client that behaves like one browser tab.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}
