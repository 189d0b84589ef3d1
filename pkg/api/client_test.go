package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/nutriview/catalog-client/internal/testutil"
	"github.com/nutriview/catalog-client/pkg/credentials"
)

func newTestClient(t *testing.T, mock *testutil.MockCatalog) (*Client, *credentials.MemoryStore) {
	t.Helper()

	store := credentials.NewMemoryStore()
	cfg := DefaultConfig(store, mock.URL())
	cfg.InitialBackoff = time.Millisecond

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client, store
}

func TestNew_Validation(t *testing.T) {
	store := credentials.NewMemoryStore()

	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			config:      DefaultConfig(store, "http://localhost:8000"),
			expectError: false,
		},
		{
			name:        "nil credential store",
			config:      Config{BaseURL: "http://localhost:8000"},
			expectError: true,
			errorMsg:    "credential store is required",
		},
		{
			name:        "empty base URL",
			config:      Config{Credentials: store},
			expectError: true,
			errorMsg:    "base URL is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if client == nil {
				t.Error("Client is nil")
			}
		})
	}
}

func TestDefaultConfig_BaseURLFallback(t *testing.T) {
	cfg := DefaultConfig(credentials.NewMemoryStore(), "")
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
}

func TestLogin_Success(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	client, store := newTestClient(t, mock)
	ctx := context.Background()

	token, err := client.Login(ctx, testutil.ValidUsername, testutil.ValidPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token != testutil.ValidToken {
		t.Errorf("token = %q, want %q", token, testutil.ValidToken)
	}

	// Token must be persisted to the credential store
	stored, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if stored != testutil.ValidToken {
		t.Errorf("stored token = %q, want %q", stored, testutil.ValidToken)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	client, store := newTestClient(t, mock)
	ctx := context.Background()

	_, err := client.Login(ctx, testutil.ValidUsername, "wrong")
	if !IsUnauthorized(err) {
		t.Fatalf("err = %v, want unauthorized", err)
	}

	stored, _ := store.Read(ctx)
	if stored != "" {
		t.Errorf("stored token = %q, want empty", stored)
	}
}

func TestLogin_MissingToken(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	mock.SetHandler("/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	})

	client, _ := newTestClient(t, mock)

	_, err := client.Login(context.Background(), testutil.ValidUsername, testutil.ValidPassword)
	if !IsUnauthorized(err) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}

func TestLogin_ServerError(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	mock.SetHandler("/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client, _ := newTestClient(t, mock)

	_, err := client.Login(context.Background(), testutil.ValidUsername, testutil.ValidPassword)
	if !IsRequestFailed(err) {
		t.Fatalf("err = %v, want request_failed", err)
	}
}

func TestListItems_NoToken(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	client, _ := newTestClient(t, mock)

	_, err := client.ListItems(context.Background(), ListParams{Limit: 20})
	if !IsUnauthorized(err) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("err = %v, want ErrNoToken in chain", err)
	}

	// Absent token must fail without a network call
	if mock.RequestCount != 0 {
		t.Errorf("RequestCount = %d, want 0", mock.RequestCount)
	}
}

func TestListItems_Success(t *testing.T) {
	for _, wrapped := range []bool{false, true} {
		name := "bare_array"
		if wrapped {
			name = "items_object"
		}
		t.Run(name, func(t *testing.T) {
			mock := testutil.NewMockCatalog()
			defer mock.Close()
			mock.SeedProducts(30)
			mock.SetWrapItems(wrapped)

			client, store := newTestClient(t, mock)
			ctx := context.Background()
			store.Save(ctx, testutil.ValidToken)

			items, err := client.ListItems(ctx, ListParams{Offset: 0, Limit: 20})
			if err != nil {
				t.Fatalf("ListItems failed: %v", err)
			}
			if len(items) != 20 {
				t.Fatalf("len(items) = %d, want 20", len(items))
			}
			if items[0].ID != 1 || items[0].Name == "" {
				t.Errorf("first item = %+v, want populated", items[0])
			}
			if items[0].Kcal100g == nil {
				t.Error("Kcal100g should be populated")
			}

			// Second window is the remainder
			items, err = client.ListItems(ctx, ListParams{Offset: 20, Limit: 20})
			if err != nil {
				t.Fatalf("ListItems failed: %v", err)
			}
			if len(items) != 10 {
				t.Errorf("len(items) = %d, want 10", len(items))
			}
		})
	}
}

func TestListItems_QueryParams(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.SeedProducts(10)

	client, store := newTestClient(t, mock)
	ctx := context.Background()
	store.Save(ctx, testutil.ValidToken)

	if _, err := client.ListItems(ctx, ListParams{Query: "  apple  ", Offset: 0, Limit: 20}); err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if _, err := client.ListItems(ctx, ListParams{Query: "   ", Offset: 20, Limit: 20}); err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}

	reqs := mock.GetListRequests()
	if len(reqs) != 2 {
		t.Fatalf("len(reqs) = %d, want 2", len(reqs))
	}

	// Query is trimmed, and omitted entirely when blank
	if reqs[0].Query != "apple" {
		t.Errorf("first query = %q, want %q", reqs[0].Query, "apple")
	}
	if reqs[1].Query != "" {
		t.Errorf("second query = %q, want omitted", reqs[1].Query)
	}
	if reqs[1].Offset != 20 || reqs[1].Limit != 20 {
		t.Errorf("window = (%d, %d), want (20, 20)", reqs[1].Offset, reqs[1].Limit)
	}

	// Bearer credential attached
	if reqs[0].Auth != "Bearer "+testutil.ValidToken {
		t.Errorf("auth header = %q", reqs[0].Auth)
	}
}

func TestListItems_Unauthorized(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.SeedProducts(10)

	client, store := newTestClient(t, mock)
	ctx := context.Background()
	store.Save(ctx, "expired-token")

	_, err := client.ListItems(ctx, ListParams{Limit: 20})
	if !IsUnauthorized(err) {
		t.Fatalf("err = %v, want unauthorized", err)
	}

	// The gateway reports the outcome but never clears the store itself
	stored, _ := store.Read(ctx)
	if stored != "expired-token" {
		t.Errorf("stored token = %q, gateway must not clear it", stored)
	}
}

func TestListItems_Cancelled(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.SeedProducts(10)
	mock.SetListDelay(200 * time.Millisecond)

	client, store := newTestClient(t, mock)
	store.Save(context.Background(), testutil.ValidToken)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.ListItems(ctx, ListParams{Limit: 20})
	if !IsCancelled(err) {
		t.Fatalf("err = %v, want cancelled", err)
	}
	if IsUnauthorized(err) || IsRequestFailed(err) {
		t.Error("cancellation must not be conflated with other kinds")
	}
}

func TestListItems_MalformedBody(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	mock.SetHandler("/products", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"unexpected": 42}`)
	})

	client, store := newTestClient(t, mock)
	ctx := context.Background()
	store.Save(ctx, testutil.ValidToken)

	_, err := client.ListItems(ctx, ListParams{Limit: 20})
	if !IsRequestFailed(err) {
		t.Fatalf("err = %v, want request_failed", err)
	}
}

func TestListItems_RetriesServerErrors(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	failures := 2
	mock.SetHandler("/products", func(w http.ResponseWriter, r *http.Request) {
		if failures > 0 {
			failures--
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id": 1, "name": "Apple 001"}]`)
	})

	client, store := newTestClient(t, mock)
	ctx := context.Background()
	store.Save(ctx, testutil.ValidToken)

	items, err := client.ListItems(ctx, ListParams{Limit: 20})
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("len(items) = %d, want 1", len(items))
	}
	if mock.RequestCount != 3 {
		t.Errorf("RequestCount = %d, want 3", mock.RequestCount)
	}
}

func TestListItems_RetryExhausted(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	mock.SetHandler("/products", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client, store := newTestClient(t, mock)
	ctx := context.Background()
	store.Save(ctx, testutil.ValidToken)

	_, err := client.ListItems(ctx, ListParams{Limit: 20})
	if !IsRequestFailed(err) {
		t.Fatalf("err = %v, want request_failed", err)
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("err = %v, want ErrRetryExhausted in chain", err)
	}
}

func TestDecodeItems(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCount int
		wantErr   bool
	}{
		{"bare array", `[{"id": 1, "name": "a"}, {"id": 2, "name": "b"}]`, 2, false},
		{"empty array", `[]`, 0, false},
		{"items object", `{"items": [{"id": 1, "name": "a"}]}`, 1, false},
		{"items object empty", `{"items": []}`, 0, false},
		{"object without items", `{"results": []}`, 0, true},
		{"not json", `<html>`, 0, true},
		{"array of wrong type", `[1, 2, 3]`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := decodeItems([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(items) != tt.wantCount {
				t.Errorf("len(items) = %d, want %d", len(items), tt.wantCount)
			}
		})
	}
}
