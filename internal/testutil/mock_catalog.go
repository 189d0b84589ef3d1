// Package testutil provides testing utilities for the catalog client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Default credentials accepted by the mock login endpoint.
const (
	ValidUsername = "user"
	ValidPassword = "pass"
	ValidToken    = "test-token-123"
)

// Product mirrors the item JSON shape served by the catalog API.
type Product struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Kcal100g    *float64 `json:"kcal_100g,omitempty"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

// ListRequest records one listing request received by the mock.
type ListRequest struct {
	Query  string
	Offset int
	Limit  int
	Auth   string
}

// MockCatalog is a configurable fake of the catalog API for testing. By
// default it serves a seeded product pool with substring filtering and
// window pagination; individual paths can be overridden with SetHandler.
type MockCatalog struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	pool      []Product
	wrapItems bool
	listDelay time.Duration

	// Tracking
	RequestCount int
	LoginCount   int
	ListRequests []ListRequest
}

// NewMockCatalog creates a running mock catalog server.
func NewMockCatalog() *MockCatalog {
	mock := &MockCatalog{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		switch r.URL.Path {
		case "/auth/login/":
			mock.loginHandler(w, r)
		case "/products":
			mock.listHandler(w, r)
		default:
			http.NotFound(w, r)
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LoginCount = 0
	m.ListRequests = nil
}

// SetHandler overrides the handler for a specific path.
func (m *MockCatalog) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetPool replaces the served product pool.
func (m *MockCatalog) SetPool(products []Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pool = products
}

// SeedProducts fills the pool with n generated products. Names alternate a
// few food prefixes so substring queries return predictable subsets.
func (m *MockCatalog) SeedProducts(n int) {
	prefixes := []string{"Apple", "Bread", "Cheese", "Oat"}
	products := make([]Product, 0, n)
	for i := 1; i <= n; i++ {
		kcal := float64(40 + i%300)
		products = append(products, Product{
			ID:        int64(i),
			Name:      fmt.Sprintf("%s %03d", prefixes[i%len(prefixes)], i),
			Kcal100g:  &kcal,
			UpdatedAt: "2024-01-02T15:04:05Z",
		})
	}
	m.SetPool(products)
}

// SetWrapItems switches the listing response between a bare array (false)
// and an {items: [...]} object (true).
func (m *MockCatalog) SetWrapItems(wrap bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wrapItems = wrap
}

// SetListDelay delays every listing response, for cancellation races.
func (m *MockCatalog) SetListDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listDelay = d
}

// GetListRequests returns a copy of the recorded listing requests.
func (m *MockCatalog) GetListRequests() []ListRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ListRequest, len(m.ListRequests))
	copy(out, m.ListRequests)
	return out
}

func (m *MockCatalog) loginHandler(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.LoginCount++
	m.mu.Unlock()

	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if creds.Username != ValidUsername || creds.Password != ValidPassword {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail": "invalid credentials"}`)
		return
	}

	fmt.Fprintf(w, `{"access_token": %q}`, ValidToken)
}

func (m *MockCatalog) listHandler(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	delay := m.listDelay
	wrap := m.wrapItems
	pool := m.pool
	m.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	auth := r.Header.Get("Authorization")
	query := r.URL.Query().Get("q")
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	m.mu.Lock()
	m.ListRequests = append(m.ListRequests, ListRequest{
		Query:  query,
		Offset: offset,
		Limit:  limit,
		Auth:   auth,
	})
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if auth != "Bearer "+ValidToken {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail": "invalid token"}`)
		return
	}

	var matched []Product
	for _, p := range pool {
		if query == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			matched = append(matched, p)
		}
	}

	page := window(matched, offset, limit)
	if wrap {
		json.NewEncoder(w).Encode(map[string][]Product{"items": page})
		return
	}
	json.NewEncoder(w).Encode(page)
}

// window applies the (offset, limit) pagination window.
func window(products []Product, offset, limit int) []Product {
	if offset >= len(products) || offset < 0 {
		return []Product{}
	}
	end := len(products)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return products[offset:end]
}
