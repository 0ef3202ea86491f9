package memory

import (
	"errors"
	"testing"

	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/host"
)

func TestDatabase(t *testing.T) {
	db := NewDatabase("master", "en", "de")
	template := data.NewID()
	folder := NewItem(data.NewID(), "Videos", template, map[string]string{"Owner": "someone"})
	db.AddItem(folder)
	db.DefineTemplate(template, host.TemplateField{ID: data.NewID(), Name: "Owner"})

	item, err := db.GetItem(t.Context(), folder.ID())
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if item.Name() != "Videos" || item.TemplateID() != template || item.Field("Owner") != "someone" {
		t.Errorf("Unexpected item %+v", item)
	}
	if item.Field("Missing") != "" {
		t.Error("Unset field must be empty")
	}

	if _, err := db.GetItem(t.Context(), data.NewID()); !errors.Is(err, data.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	fields, err := db.TemplateFields(t.Context(), template)
	if err != nil || len(fields) != 1 {
		t.Fatalf("Expected 1 template field, got %v (%v)", fields, err)
	}

	languages, _ := db.Languages(t.Context())
	if len(languages) != 2 {
		t.Errorf("Expected 2 languages, got %v", languages)
	}

	db.RemoveItem(folder.ID())
	if _, err := db.GetItem(t.Context(), folder.ID()); !errors.Is(err, data.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after removal, got %v", err)
	}
}

func TestCache(t *testing.T) {
	c := NewCache()
	a, b := data.NewID(), data.NewID()

	if err := c.EvictDescriptor(t.Context(), a); err != nil {
		t.Fatalf("EvictDescriptor failed: %v", err)
	}
	if err := c.EvictChildInfo(t.Context(), b); err != nil {
		t.Fatalf("EvictChildInfo failed: %v", err)
	}

	failure := errors.New("cache offline")
	c.Fail(failure)
	if err := c.EvictDescriptor(t.Context(), b); !errors.Is(err, failure) {
		t.Errorf("Expected injected error, got %v", err)
	}

	if got := c.Descriptors(); len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("Unexpected descriptor evictions %v", got)
	}
	if got := c.ChildInfo(); len(got) != 1 || got[0] != b {
		t.Errorf("Unexpected child info evictions %v", got)
	}
}
