package mapping_test

import (
	"errors"
	"testing"

	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/mapping"
	"github.com/mwantia/feedtree/mapping/memory"
)

// TestReadOnlyStore_ReadOperations verifies that rows written before wrapping
// keep resolving through the read-only store.
func TestReadOnlyStore_ReadOperations(t *testing.T) {
	ctx := t.Context()
	mem := memory.NewMemoryStore()
	if err := mem.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	parent := data.NewID()
	created, err := mem.Create(ctx, "ns", "token-a", parent, "A")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ro := mapping.NewReadOnly(mem)
	if ro.Name() != mem.Name() {
		t.Errorf("Expected name %q, got %q", mem.Name(), ro.Name())
	}

	got, err := ro.Lookup(ctx, "ns", created.ID)
	if err != nil || got.Token != "token-a" {
		t.Fatalf("Lookup failed: %v (%v)", got, err)
	}

	got, err = ro.LookupByToken(ctx, "ns", "token-a", parent)
	if err != nil || got.ID != created.ID {
		t.Fatalf("LookupByToken failed: %v (%v)", got, err)
	}

	keys, err := ro.Keys(ctx, "ns", created.ID)
	if err != nil || len(keys) != 1 {
		t.Fatalf("Keys failed: %v (%v)", keys, err)
	}

	// Existing keys resolve through Create
	got, err = ro.Create(ctx, "ns", "token-a", parent, "ignored")
	if err != nil || got.ID != created.ID {
		t.Errorf("Expected existing row from Create, got %v (%v)", got, err)
	}
}

// TestReadOnlyStore_WriteOperations verifies that every write is rejected.
func TestReadOnlyStore_WriteOperations(t *testing.T) {
	ctx := t.Context()
	mem := memory.NewMemoryStore()
	ro := mapping.NewReadOnly(mem)
	if err := ro.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer ro.Close(ctx)

	parent := data.NewID()
	if _, err := ro.Create(ctx, "ns", "token-b", parent, "B"); !errors.Is(err, data.ErrReadOnly) {
		t.Errorf("Expected ErrReadOnly from Create, got %v", err)
	}
	if _, err := mem.LookupByToken(ctx, "ns", "token-b", parent); !errors.Is(err, data.ErrNotFound) {
		t.Errorf("Expected no row written, got %v", err)
	}
	if _, err := ro.DeleteByParent(ctx, "ns", parent); !errors.Is(err, data.ErrReadOnly) {
		t.Errorf("Expected ErrReadOnly from DeleteByParent, got %v", err)
	}
}
