package storage

import (
	"testing"
)

func TestPersistenceStore_BasicOperations(t *testing.T) {
	ps, err := NewMemoryPersistenceStore()
	if err != nil {
		t.Fatalf("Failed to create memory store: %v", err)
	}
	defer ps.Close()

	key := []byte("test-key")
	value := []byte("test-value")

	if err := ps.PutBatch([][2][]byte{{key, value}}); err != nil {
		t.Fatalf("PutBatch failed: %v", err)
	}

	got, found, err := ps.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("Expected key to be found")
	}
	if string(got) != string(value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}

	_, found, err = ps.Get([]byte("non-existent"))
	if err != nil {
		t.Fatalf("Get non-existent failed: %v", err)
	}
	if found {
		t.Error("Expected key not to be found")
	}

	if err := ps.DeleteBatch([][]byte{key, []byte("non-existent")}); err != nil {
		t.Fatalf("DeleteBatch failed: %v", err)
	}
	_, found, err = ps.Get(key)
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if found {
		t.Error("Expected key to be deleted")
	}
}

func TestPersistenceStore_BatchAndPrefix(t *testing.T) {
	ps, err := NewMemoryPersistenceStore()
	if err != nil {
		t.Fatalf("Failed to create memory store: %v", err)
	}
	defer ps.Close()

	err = ps.PutBatch([][2][]byte{
		{[]byte("prefix_b"), []byte("2")},
		{[]byte("prefix_a"), []byte("1")},
		{[]byte("other_key"), []byte("x")},
		{[]byte("prefix_c"), []byte("3")},
	})
	if err != nil {
		t.Fatalf("PutBatch failed: %v", err)
	}

	results, err := ps.GetWithPrefix([]byte("prefix_"))
	if err != nil {
		t.Fatalf("GetWithPrefix failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"prefix_a", "prefix_b", "prefix_c"} {
		if string(results[i][0]) != want {
			t.Errorf("result %d key = %q, want %q", i, results[i][0], want)
		}
	}

	if err := ps.DeleteBatch([][]byte{[]byte("prefix_a"), []byte("prefix_c")}); err != nil {
		t.Fatalf("DeleteBatch failed: %v", err)
	}
	results, err = ps.GetWithPrefix([]byte("prefix_"))
	if err != nil {
		t.Fatalf("GetWithPrefix failed: %v", err)
	}
	if len(results) != 1 || string(results[0][1]) != "2" {
		t.Errorf("after delete got %q", results)
	}
}

func TestPersistenceStore_ReopenFromDisk(t *testing.T) {
	dir := t.TempDir()
	ps, err := NewPersistenceStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if ps.Path() != dir {
		t.Errorf("Path() = %q, want %q", ps.Path(), dir)
	}
	if err := ps.PutBatch([][2][]byte{{[]byte("k"), []byte("v")}}); err != nil {
		t.Fatalf("PutBatch failed: %v", err)
	}
	if err := ps.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewPersistenceStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, found, err := reopened.Get([]byte("k"))
	if err != nil || !found || string(got) != "v" {
		t.Errorf("Get after reopen = %q, %v, %v", got, found, err)
	}
}
