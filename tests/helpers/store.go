// Package helpers holds shared test fixtures.
package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/repository"
)

// NewTestSQLiteStore opens an in-memory session store that is closed when t ends.
func NewTestSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err, "open in-memory session store")
	t.Cleanup(func() { _ = s.Close() })

	return s
}
