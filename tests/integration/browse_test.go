package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nutriview/catalog-client/internal/testutil"
	"github.com/nutriview/catalog-client/pkg/api"
	"github.com/nutriview/catalog-client/pkg/browse"
	"github.com/nutriview/catalog-client/pkg/credentials"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// TestRedisCredentialStore exercises the shared-session token store against
// a real Redis.
func TestRedisCredentialStore(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	store := credentials.NewRedisStore(redisClient, "")

	// Absence, not an error
	token, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read of empty store: %v", err)
	}
	if token != "" {
		t.Errorf("Read of empty store = %q, want empty", token)
	}

	if err := store.Save(ctx, "shared-token"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A second store instance on the same Redis sees the token
	other := credentials.NewRedisStore(redisClient, "")
	token, err = other.Read(ctx)
	if err != nil {
		t.Fatalf("Read from second instance: %v", err)
	}
	if token != "shared-token" {
		t.Errorf("Read = %q, want %q", token, "shared-token")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	token, _ = other.Read(ctx)
	if token != "" {
		t.Errorf("Read after clear = %q, want empty", token)
	}
}

// TestFullBrowseFlow runs login → paged listing → expiry → logout against
// the mock catalog with credentials held in Redis.
func TestFullBrowseFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.SeedProducts(45)

	ctx := context.Background()
	store := credentials.NewRedisStore(redisClient, "")

	cfg := api.DefaultConfig(store, mock.URL())
	cfg.InitialBackoff = time.Millisecond
	client, err := api.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	// Step 1: Login persists the token in Redis
	if _, err := client.Login(ctx, testutil.ValidUsername, testutil.ValidPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	token, err := store.Read(ctx)
	if err != nil || token != testutil.ValidToken {
		t.Fatalf("stored token = %q, %v; want %q", token, err, testutil.ValidToken)
	}

	// Step 2: Controller pages through the full listing
	loggedOut := make(chan struct{}, 1)
	ctrl, err := browse.New(browse.Config{
		Gateway:     client,
		Credentials: store,
		OnLoggedOut: func() { loggedOut <- struct{}{} },
	})
	if err != nil {
		t.Fatalf("Failed to create controller: %v", err)
	}
	defer ctrl.Close()

	ctrl.ResetAndFetch("")
	waitIdle(t, ctrl)
	ctrl.FetchMore()
	waitIdle(t, ctrl)
	ctrl.FetchMore()
	s := waitIdle(t, ctrl)

	if len(s.Items) != 45 {
		t.Errorf("len(items) = %d, want 45", len(s.Items))
	}
	if s.HasMore {
		t.Error("hasMore should be false after the short page")
	}
	if s.Offset != 45 {
		t.Errorf("offset = %d, want 45", s.Offset)
	}

	// Step 3: The server rejects the token; the controller clears Redis
	// and signals logout
	mock.SetHandler("/products", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	ctrl.Refresh()
	waitIdle(t, ctrl)

	select {
	case <-loggedOut:
	case <-time.After(2 * time.Second):
		t.Fatal("logout signal not received")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		token, err = store.Read(ctx)
		if err == nil && token == "" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("token not cleared from Redis: %q, %v", token, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func waitIdle(t *testing.T, ctrl *browse.Controller) browse.State {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		s := ctrl.Snapshot()
		if !s.Loading && !s.Refreshing {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatal("controller did not become idle")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
