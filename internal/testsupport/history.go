package testsupport

import (
	"testing"

	"astrotux/internal/history"
)

// OpenHistory opens the history database at path and closes it when the test
// ends.
func OpenHistory(t testing.TB, path string) *history.Store {
	t.Helper()

	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("open history %s: %v", path, err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
