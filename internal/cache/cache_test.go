package cache

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/BarisSumer/bizim-market/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "snapshot.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLoadFirstRun(t *testing.T) {
	c := openTestCache(t)

	items, categories, found, err := c.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Error("found = true on a fresh cache, want false")
	}
	if len(items) != 0 || len(categories) != 0 {
		t.Errorf("fresh cache returned data: %d items, %d categories", len(items), len(categories))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := openTestCache(t)

	catID := uuid.New()
	items := []model.GroceryItem{
		{ID: model.RemoteID(uuid.New()), Name: "Milk", Emoji: "🥛", Category: "Dairy", IsBought: true, Quantity: 2, Unit: "liter"},
		{ID: model.NewLocalID(), Name: "Bread", Emoji: "🍞", Category: "Bakery", Quantity: 1, Unit: "piece"},
	}
	categories := []model.Category{
		{ID: &catID, Name: "Dairy", Emoji: "🥛"},
		{Name: "Pet Supplies", Emoji: "🐾"},
	}

	if err := c.Save(items, categories); err != nil {
		t.Fatalf("save: %v", err)
	}

	gotItems, gotCats, found, err := c.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatal("found = false after save")
	}

	if len(gotItems) != 2 {
		t.Fatalf("got %d items, want 2", len(gotItems))
	}
	for i := range items {
		if gotItems[i] != items[i] {
			t.Errorf("item[%d] = %+v, want %+v", i, gotItems[i], items[i])
		}
	}
	if !gotItems[0].ID.IsRemote() || gotItems[1].ID.IsRemote() {
		t.Error("id classification lost across the round trip")
	}

	if len(gotCats) != 2 {
		t.Fatalf("got %d categories, want 2", len(gotCats))
	}
	if gotCats[0].ID == nil || *gotCats[0].ID != catID {
		t.Errorf("category server id = %v, want %s", gotCats[0].ID, catID)
	}
	if gotCats[1].ID != nil {
		t.Errorf("unsynced category carried a server id: %v", gotCats[1].ID)
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	c := openTestCache(t)

	old := []model.GroceryItem{{ID: model.NewLocalID(), Name: "Stale", Quantity: 1, Unit: "piece"}}
	if err := c.Save(old, nil); err != nil {
		t.Fatalf("first save: %v", err)
	}

	fresh := []model.GroceryItem{{ID: model.RemoteID(uuid.New()), Name: "Milk", Quantity: 1, Unit: "piece"}}
	if err := c.Save(fresh, nil); err != nil {
		t.Fatalf("second save: %v", err)
	}

	items, _, found, err := c.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatal("found = false after save")
	}
	if len(items) != 1 || items[0].Name != "Milk" {
		t.Errorf("items = %+v, want only the fresh snapshot", items)
	}
}

func TestSavePreservesOrder(t *testing.T) {
	c := openTestCache(t)

	names := []string{"Zebra Cakes", "Apples", "Milk", "Bread"}
	items := make([]model.GroceryItem, 0, len(names))
	for _, name := range names {
		items = append(items, model.GroceryItem{ID: model.NewLocalID(), Name: name, Quantity: 1, Unit: "piece"})
	}
	if err := c.Save(items, nil); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _, _, err := c.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i, name := range names {
		if got[i].Name != name {
			t.Errorf("item[%d] = %q, want %q; insertion order must survive", i, got[i].Name, name)
		}
	}
}
