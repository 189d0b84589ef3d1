// Package credentials provides storage for the bearer token issued by the
// catalog API login endpoint.
package credentials

import "context"

// Store persists at most one bearer token. Read of an empty store returns
// ("", nil) — absence is not an error. All operations accept a context
// because the backing medium may be remote or involve OS-level storage.
type Store interface {
	// Save replaces the current token.
	Save(ctx context.Context, token string) error

	// Read returns the current token, or "" if none is stored.
	Read(ctx context.Context) (string, error)

	// Clear removes the current token. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}
