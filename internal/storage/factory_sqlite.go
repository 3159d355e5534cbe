//go:build sqlite

package storage

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

// DefaultStoreKind is the backend selected when configuration names none.
func DefaultStoreKind() string {
	return "sqlite"
}
