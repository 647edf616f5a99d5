package storage

import (
	"testing"
)

func TestMemoryStorage(t *testing.T) {
	runStorageSuite(t, func(t *testing.T) Storage {
		s, err := NewMemoryStorage(Config{Type: "memory"})
		if err != nil {
			t.Fatalf("failed to create memory storage: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}
