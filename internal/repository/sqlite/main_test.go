package sqlite

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teamlens/teamlens/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestDB opens a private in-memory database with migrations applied.
func newTestDB(t *testing.T) *SQLite {
	t.Helper()

	s, err := NewDB(config.SQLite{Path: ":memory:"}, testLogger())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })

	return s
}
