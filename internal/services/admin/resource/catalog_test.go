package resource

import (
	"testing"

	apperrors "github.com/louisbranch/avo/internal/platform/errors"
)

func TestCatalogLookup(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	catalog := NewCatalog()
	if _, ok := catalog.First(); ok {
		t.Fatal("empty catalog has no first resource")
	}
	people := newPeople(t, db)
	if err := catalog.Add(people); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := catalog.Add(people); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := catalog.Add(nil); err == nil {
		t.Fatal("expected nil resource error")
	}

	got, err := catalog.Lookup(" people ")
	if err != nil || got.Name() != "people" {
		t.Fatalf("lookup = (%v, %v)", got, err)
	}
	if _, err := catalog.Lookup("posts"); !apperrors.IsCode(err, apperrors.CodeResourceNotFound) {
		t.Fatalf("lookup error = %v, want RESOURCE_NOT_FOUND", err)
	}
	first, ok := catalog.First()
	if !ok || first.Name() != "people" {
		t.Fatalf("first = %v", first)
	}
	if len(catalog.All()) != 1 {
		t.Fatalf("all = %d", len(catalog.All()))
	}
}
