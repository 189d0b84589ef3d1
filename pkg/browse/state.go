package browse

import "github.com/nutriview/catalog-client/pkg/api"

// State is the observable snapshot handed to the rendering layer. Items is a
// copy; mutating it does not affect the controller.
type State struct {
	Items      []api.Item
	Query      string
	Offset     int
	HasMore    bool
	Loading    bool
	Refreshing bool
	Err        error
	LoggedOut  bool
}

// snapshotLocked builds a State copy. Caller must hold c.mu.
func (c *Controller) snapshotLocked() State {
	items := make([]api.Item, len(c.items))
	copy(items, c.items)
	return State{
		Items:      items,
		Query:      c.query,
		Offset:     c.offset,
		HasMore:    c.hasMore,
		Loading:    c.loading,
		Refreshing: c.refreshing,
		Err:        c.lastErr,
		LoggedOut:  c.loggedOut,
	}
}

// Snapshot returns the current observable state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}
