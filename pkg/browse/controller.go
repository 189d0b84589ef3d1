// Package browse owns the current result set of the catalog list view: the
// active query, pagination window, in-flight request identity, and the
// fetch-more / reset-on-new-query / retry / logout-on-expiry transitions.
package browse

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nutriview/catalog-client/pkg/api"
	"github.com/nutriview/catalog-client/pkg/credentials"
	"github.com/nutriview/catalog-client/pkg/debounce"
	"github.com/nutriview/catalog-client/pkg/logging"
)

// Gateway is the slice of the API client the controller needs.
type Gateway interface {
	ListItems(ctx context.Context, params api.ListParams) ([]api.Item, error)
}

// Config holds the controller configuration.
type Config struct {
	// Gateway issues the page fetches.
	Gateway Gateway

	// Credentials is cleared when the gateway reports unauthorized.
	Credentials credentials.Store

	// PageSize is the fixed fetch window (default api.DefaultPageSize).
	PageSize int

	// DebounceDelay is the quiet period for query-change coalescing
	// (default debounce.DefaultDelay).
	DebounceDelay time.Duration

	// OnChange is invoked with a fresh snapshot after every state change.
	OnChange func(State)

	// OnLoggedOut is invoked exactly once when the credential is rejected or
	// the user logs out; the rendering layer navigates to login.
	OnLoggedOut func()
}

// Controller drives the incrementally loaded, searchable list. One instance
// per screen lifetime; Close tears down the debounce timer and any in-flight
// request. All fetch completions are checked against the controller's
// generation counter, so a response superseded by a later reset never
// mutates state.
type Controller struct {
	mu        sync.Mutex
	gateway   Gateway
	creds     credentials.Store
	coalescer *debounce.Coalescer
	pageSize  int
	logger    zerolog.Logger

	onChange    func(State)
	onLoggedOut func()

	items      []api.Item
	query      string
	offset     int
	hasMore    bool
	loading    bool
	refreshing bool
	lastErr    error
	loggedOut  bool
	closed     bool

	// generation identifies the current in-flight request. Bumping it
	// invalidates any previous fetch's ability to mutate state.
	generation uint64
	cancel     context.CancelFunc
}

// New creates a Controller with empty result set state.
func New(cfg Config) (*Controller, error) {
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = api.DefaultPageSize
	}

	c := &Controller{
		gateway:     cfg.Gateway,
		creds:       cfg.Credentials,
		pageSize:    cfg.PageSize,
		logger:      logging.NewLogger("browse"),
		onChange:    cfg.OnChange,
		onLoggedOut: cfg.OnLoggedOut,
		hasMore:     true,
	}
	c.coalescer = debounce.New(cfg.DebounceDelay, c.applyQuery)
	return c, nil
}

// OnQueryChanged feeds one text-change event into the debounce window. The
// coalesced value reaches the controller only after the quiet period, and a
// no-op edit (same normalized query) causes no reset.
func (c *Controller) OnQueryChanged(text string) {
	c.coalescer.OnChange(text)
}

// OnScrollNearEnd requests the next page; wired to the scroll trigger.
func (c *Controller) OnScrollNearEnd() { c.FetchMore() }

// OnPullToRefresh re-runs the current query flagged as refreshing.
func (c *Controller) OnPullToRefresh() { c.Refresh() }

// OnRetryPressed retries after an error by resetting the current query.
func (c *Controller) OnRetryPressed() { c.Retry() }

// OnLogoutPressed cancels any in-flight fetch, clears the credential, and
// emits the logged-out signal.
func (c *Controller) OnLogoutPressed() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.invalidateLocked()
	c.loading = false
	c.refreshing = false
	notify, loggedOut := c.finishLocked(true)
	c.clearCredential()
	c.logger.Info().Msg("Logout requested")
	c.runCallbacks(notify, loggedOut)
}

// applyQuery receives the debounced, trimmed query text.
func (c *Controller) applyQuery(text string) {
	c.mu.Lock()
	if c.closed || text == c.query {
		c.mu.Unlock()
		return
	}
	c.logger.Debug().Str("query", text).Msg("Query changed")
	notify, loggedOut := c.resetAndFetchLocked(text, false)
	c.runCallbacks(notify, loggedOut)
}

// ResetAndFetch cancels any in-flight request, wipes the result set, and
// fetches the first page of the given query.
func (c *Controller) ResetAndFetch(query string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	notify, loggedOut := c.resetAndFetchLocked(strings.TrimSpace(query), false)
	c.runCallbacks(notify, loggedOut)
}

// Refresh is ResetAndFetch with the current query, flagged as refreshing for
// the rendering layer; transition rules are otherwise identical.
func (c *Controller) Refresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	notify, loggedOut := c.resetAndFetchLocked(c.query, true)
	c.runCallbacks(notify, loggedOut)
}

// Retry after an error is exactly ResetAndFetch with the current query.
func (c *Controller) Retry() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	notify, loggedOut := c.resetAndFetchLocked(c.query, false)
	c.runCallbacks(notify, loggedOut)
}

// FetchMore requests the next page. No-op while a fetch is running or when
// the last page was already reached.
func (c *Controller) FetchMore() {
	c.mu.Lock()
	if c.closed || c.loading || c.refreshing || !c.hasMore {
		c.mu.Unlock()
		return
	}
	notify, loggedOut := c.startFetchLocked(false)
	c.runCallbacks(notify, loggedOut)
}

// Gate reports whether the scroll trigger may fire: no fetch running and
// more pages exist.
func (c *Controller) Gate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && !c.loading && !c.refreshing && c.hasMore
}

// Close tears down the controller: the debounce timer is stopped and any
// in-flight request is cancelled and invalidated.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.invalidateLocked()
	c.mu.Unlock()

	c.coalescer.Stop()
	c.logger.Debug().Msg("Controller closed")
}

// invalidateLocked cancels the in-flight request and bumps the generation so
// its late completion is dropped even if the transport cannot abort it.
func (c *Controller) invalidateLocked() {
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// resetAndFetchLocked implements the reset transition: offset to zero,
// items wiped, error cleared, previous fetch invalidated, first page fetched.
func (c *Controller) resetAndFetchLocked(query string, refreshing bool) (func(State), func()) {
	c.invalidateLocked()

	c.query = query
	c.items = nil
	c.offset = 0
	c.hasMore = true
	c.lastErr = nil
	c.loading = false
	c.refreshing = false

	browseResetsTotal.Inc()
	browseItemsLoaded.Set(0)

	return c.startFetchLocked(refreshing)
}

// startFetchLocked issues the page fetch for the current query and offset
// under a fresh cancellation handle recorded as current.
func (c *Controller) startFetchLocked(refreshing bool) (func(State), func()) {
	if refreshing {
		c.refreshing = true
	} else {
		c.loading = true
	}

	c.generation++
	gen := c.generation

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	params := api.ListParams{
		Query:  c.query,
		Offset: c.offset,
		Limit:  c.pageSize,
	}

	c.logger.Debug().
		Str("query", params.Query).
		Int("offset", params.Offset).
		Uint64("generation", gen).
		Bool("refreshing", refreshing).
		Msg("Starting fetch")

	go c.fetch(ctx, gen, params)

	return c.finishLocked(false)
}

// fetch runs one page fetch to completion on its own goroutine.
func (c *Controller) fetch(ctx context.Context, gen uint64, params api.ListParams) {
	items, err := c.gateway.ListItems(ctx, params)

	c.mu.Lock()

	// Superseded by a later reset or teardown: the response, success or
	// failure, must never reach result set state.
	if gen != c.generation || c.closed {
		c.mu.Unlock()
		browseFetchesTotal.WithLabelValues("superseded").Inc()
		c.logger.Debug().Uint64("generation", gen).Msg("Dropping superseded response")
		return
	}

	c.cancel = nil
	c.loading = false
	c.refreshing = false

	var emitLogout bool
	switch {
	case err == nil:
		c.items = append(c.items, items...)
		c.offset += len(items)
		c.hasMore = len(items) == params.Limit
		c.lastErr = nil
		browseFetchesTotal.WithLabelValues("success").Inc()
		browseItemsLoaded.Set(float64(len(c.items)))
		c.logger.Debug().
			Int("returned", len(items)).
			Int("total", len(c.items)).
			Bool("has_more", c.hasMore).
			Msg("Page applied")

	case api.IsCancelled(err):
		// Discarded entirely: no items, no visible error.
		browseFetchesTotal.WithLabelValues("cancelled").Inc()
		c.logger.Debug().Uint64("generation", gen).Msg("Fetch cancelled")

	case api.IsUnauthorized(err):
		// Credential expired or absent: clear it and signal the rendering
		// layer to navigate to login. Not a visible list error.
		browseFetchesTotal.WithLabelValues("unauthorized").Inc()
		c.logger.Info().Msg("Credential rejected, logging out")
		emitLogout = true

	default:
		// Inline error with retry; already-loaded pages stay intact.
		c.lastErr = err
		browseFetchesTotal.WithLabelValues("failed").Inc()
		c.logger.Warn().Err(err).Int("offset", params.Offset).Msg("Fetch failed")
	}

	notify, loggedOut := c.finishLocked(emitLogout)
	if emitLogout {
		c.clearCredential()
	}
	c.runCallbacks(notify, loggedOut)
}

// finishLocked marks the logged-out transition if requested, captures the
// callbacks to run, and releases the lock. The logged-out signal is one-shot.
func (c *Controller) finishLocked(logout bool) (func(State), func()) {
	var loggedOut func()
	if logout && !c.loggedOut {
		c.loggedOut = true
		loggedOut = c.onLoggedOut
	}
	notify := c.onChange
	c.mu.Unlock()
	return notify, loggedOut
}

// runCallbacks invokes the captured callbacks outside the lock.
func (c *Controller) runCallbacks(notify func(State), loggedOut func()) {
	if notify != nil {
		notify(c.Snapshot())
	}
	if loggedOut != nil {
		loggedOut()
	}
}

// clearCredential wipes the stored token. Runs outside the request context
// so a cancelled fetch cannot abort the clear.
func (c *Controller) clearCredential() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.creds.Clear(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to clear credential")
	}
}
