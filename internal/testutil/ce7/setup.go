package ce7

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile stores data as name in a fresh temporary directory and returns
// its path. The directory is removed when the test ends.
//
// Example:
//
//	path := ce7.WriteFile(t, "system.hv", ce7.Encode(roots))
//	h, err := hive.Open(path)
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write test hive: %v", err)
	}
	return path
}
