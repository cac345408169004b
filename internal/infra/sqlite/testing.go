package sqlite

import "testing"

// newTestDB opens a fresh in-memory database with every migration applied
// and registers cleanup to close it when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
