package credentials

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nutriview/catalog-client/pkg/logging"
)

// FileStore persists the token in a mode-0600 file. This is the on-device
// medium used by the terminal browser.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

// NewFileStore creates a store backed by the given file path. The parent
// directory is created on first Save, not here.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:   path,
		logger: logging.NewLogger("credentials"),
	}
}

// DefaultTokenPath returns the conventional token location under the user
// config dir, falling back to the working directory when it is unavailable.
func DefaultTokenPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".catalog-token"
	}
	return filepath.Join(configDir, "catalog-browse", "token")
}

// Save replaces the current token.
func (s *FileStore) Save(_ context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		StoreErrors.WithLabelValues("file", "save").Inc()
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0600); err != nil {
		StoreErrors.WithLabelValues("file", "save").Inc()
		return fmt.Errorf("write token file: %w", err)
	}
	TokenSaves.WithLabelValues("file").Inc()
	s.logger.Debug().Str("path", s.path).Msg("Token saved")
	return nil
}

// Read returns the current token, or "" if the file does not exist.
func (s *FileStore) Read(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			TokenReads.WithLabelValues("file", "miss").Inc()
			return "", nil
		}
		StoreErrors.WithLabelValues("file", "read").Inc()
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		TokenReads.WithLabelValues("file", "miss").Inc()
		return "", nil
	}
	TokenReads.WithLabelValues("file", "hit").Inc()
	return token, nil
}

// Clear removes the token file. A missing file is not an error.
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		StoreErrors.WithLabelValues("file", "clear").Inc()
		return fmt.Errorf("remove token file: %w", err)
	}
	TokenClears.WithLabelValues("file").Inc()
	s.logger.Debug().Str("path", s.path).Msg("Token cleared")
	return nil
}
