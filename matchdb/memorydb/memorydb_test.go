package memorydb

import (
	"testing"

	"github.com/Hazem-dh/FHEarts/matchdb"
	"github.com/Hazem-dh/FHEarts/matchdb/dbtest"
)

func TestMemoryDB(t *testing.T) {
	t.Run("DatabaseSuite", func(t *testing.T) {
		dbtest.TestDatabaseSuite(t, func() matchdb.KeyValueStore {
			return New()
		})
	})
}

func TestClosedDatabase(t *testing.T) {
	db := New()
	db.Close()
	if err := db.Put([]byte("k"), []byte("v")); err != errMemorydbClosed {
		t.Fatalf("expected closed error, got %v", err)
	}
	if _, err := db.Get([]byte("k")); err != errMemorydbClosed {
		t.Fatalf("expected closed error, got %v", err)
	}
}
