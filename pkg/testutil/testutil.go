// Package testutil provides testing utilities for dasio: an in-memory
// hierarchical container and standalone builders for the container formats
// the readers consume. The builders encode fixtures byte by byte,
// independent of the production parsers, so reader tests exercise real
// decode paths.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFixture writes payload into the test's temp dir under name and
// returns the full path.
func WriteFixture(t *testing.T, name string, payload []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}
