package grocery

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/BarisSumer/bizim-market/internal/backend"
	"github.com/BarisSumer/bizim-market/internal/model"
)

// fakeScope is a scope provider tests can flip at runtime.
type fakeScope struct {
	mu    sync.Mutex
	scope model.Scope
	ok    bool
}

func (f *fakeScope) CurrentScope() (model.Scope, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scope, f.ok
}

func (f *fakeScope) setOK(ok bool) {
	f.mu.Lock()
	f.ok = ok
	f.mu.Unlock()
}

func syncedScope() *fakeScope {
	return &fakeScope{
		scope: model.Scope{FamilyID: uuid.New(), UserID: uuid.New()},
		ok:    true,
	}
}

// fakeSaver records snapshot saves.
type fakeSaver struct {
	mu    sync.Mutex
	saves int
	items []model.GroceryItem
}

func (f *fakeSaver) Save(items []model.GroceryItem, categories []model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.items = items
	return nil
}

// fakeStream is a Stream fed by tests.
type fakeStream struct {
	events chan backend.ChangeEvent

	mu     sync.Mutex
	err    error
	closed bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan backend.ChangeEvent, 16)}
}

func (s *fakeStream) Events() <-chan backend.ChangeEvent { return s.events }

func (s *fakeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// failWith ends the stream abnormally with the given error.
func (s *fakeStream) failWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.err = err
		close(s.events)
	}
}

// fakeBackend implements backend.Backend with overridable behavior per
// method and a call log for asserting which remote calls were issued.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	listItemsFn      func(uuid.UUID) ([]backend.ItemRecord, error)
	insertItemFn     func(backend.NewItem) (backend.ItemRecord, error)
	updateBoughtFn   func(uuid.UUID, backend.BoughtUpdate) error
	deleteItemFn     func(uuid.UUID) error
	deleteItemsFn    func([]uuid.UUID) error
	listCatalogFn    func() ([]backend.CatalogEntry, error)
	upsertCatalogFn  func(backend.CatalogEntry) error
	deleteCatalogFn  func(string) error
	listCategoriesFn func() ([]backend.CategoryRecord, error)
	insertCategoryFn func(string, string) (backend.CategoryRecord, error)
	deleteCategoryFn func(string) error
	insertPurchaseFn func(backend.NewPurchase) error
	latestPurchaseFn func(string) (*backend.PurchaseRecord, error)
	deletePurchaseFn func(uuid.UUID) error
	subscribeFn      func(uuid.UUID) (backend.Stream, error)
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeBackend) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeBackend) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) ListItems(_ context.Context, familyID uuid.UUID) ([]backend.ItemRecord, error) {
	f.record("ListItems")
	if f.listItemsFn != nil {
		return f.listItemsFn(familyID)
	}
	return nil, nil
}

func (f *fakeBackend) InsertItem(_ context.Context, item backend.NewItem) (backend.ItemRecord, error) {
	f.record("InsertItem")
	if f.insertItemFn != nil {
		return f.insertItemFn(item)
	}
	return serverRecord(item.Name, item.Category), nil
}

func (f *fakeBackend) UpdateItemBought(_ context.Context, id uuid.UUID, upd backend.BoughtUpdate) error {
	f.record("UpdateItemBought")
	if f.updateBoughtFn != nil {
		return f.updateBoughtFn(id, upd)
	}
	return nil
}

func (f *fakeBackend) DeleteItem(_ context.Context, id uuid.UUID) error {
	f.record("DeleteItem")
	if f.deleteItemFn != nil {
		return f.deleteItemFn(id)
	}
	return nil
}

func (f *fakeBackend) DeleteItems(_ context.Context, ids []uuid.UUID) error {
	f.record("DeleteItems")
	if f.deleteItemsFn != nil {
		return f.deleteItemsFn(ids)
	}
	return nil
}

func (f *fakeBackend) ListCatalog(context.Context) ([]backend.CatalogEntry, error) {
	f.record("ListCatalog")
	if f.listCatalogFn != nil {
		return f.listCatalogFn()
	}
	return nil, nil
}

func (f *fakeBackend) UpsertCatalogEntry(_ context.Context, entry backend.CatalogEntry) error {
	f.record("UpsertCatalogEntry")
	if f.upsertCatalogFn != nil {
		return f.upsertCatalogFn(entry)
	}
	return nil
}

func (f *fakeBackend) DeleteCatalogEntry(_ context.Context, name string) error {
	f.record("DeleteCatalogEntry")
	if f.deleteCatalogFn != nil {
		return f.deleteCatalogFn(name)
	}
	return nil
}

func (f *fakeBackend) ListCategories(context.Context) ([]backend.CategoryRecord, error) {
	f.record("ListCategories")
	if f.listCategoriesFn != nil {
		return f.listCategoriesFn()
	}
	return nil, nil
}

func (f *fakeBackend) InsertCategory(_ context.Context, name, emoji string) (backend.CategoryRecord, error) {
	f.record("InsertCategory")
	if f.insertCategoryFn != nil {
		return f.insertCategoryFn(name, emoji)
	}
	return backend.CategoryRecord{ID: uuid.New(), Name: name, Emoji: emoji}, nil
}

func (f *fakeBackend) UpdateCategory(_ context.Context, name, emoji string) error {
	f.record("UpdateCategory")
	return nil
}

func (f *fakeBackend) DeleteCategory(_ context.Context, name string) error {
	f.record("DeleteCategory")
	if f.deleteCategoryFn != nil {
		return f.deleteCategoryFn(name)
	}
	return nil
}

func (f *fakeBackend) InsertPurchase(_ context.Context, p backend.NewPurchase) error {
	f.record("InsertPurchase")
	if f.insertPurchaseFn != nil {
		return f.insertPurchaseFn(p)
	}
	return nil
}

func (f *fakeBackend) LatestPurchase(_ context.Context, _ uuid.UUID, itemName string) (*backend.PurchaseRecord, error) {
	f.record("LatestPurchase")
	if f.latestPurchaseFn != nil {
		return f.latestPurchaseFn(itemName)
	}
	return nil, nil
}

func (f *fakeBackend) DeletePurchase(_ context.Context, id uuid.UUID) error {
	f.record("DeletePurchase")
	if f.deletePurchaseFn != nil {
		return f.deletePurchaseFn(id)
	}
	return nil
}

func (f *fakeBackend) ListPurchases(context.Context, uuid.UUID, time.Time, time.Time) ([]backend.PurchaseRecord, error) {
	f.record("ListPurchases")
	return nil, nil
}

func (f *fakeBackend) FetchProfile(context.Context, uuid.UUID) (model.Profile, error) {
	f.record("FetchProfile")
	return model.Profile{}, nil
}

func (f *fakeBackend) FetchFamily(context.Context, uuid.UUID) (model.Family, error) {
	f.record("FetchFamily")
	return model.Family{}, nil
}

func (f *fakeBackend) SavePushToken(context.Context, uuid.UUID, string) error {
	f.record("SavePushToken")
	return nil
}

func (f *fakeBackend) ClearPushToken(context.Context, uuid.UUID) error {
	f.record("ClearPushToken")
	return nil
}

func (f *fakeBackend) JoinFamilyByCode(context.Context, string) (backend.JoinResult, error) {
	f.record("JoinFamilyByCode")
	return backend.JoinResult{}, nil
}

func (f *fakeBackend) HandleFamilyRequest(context.Context, uuid.UUID, backend.Decision) (backend.RequestResult, error) {
	f.record("HandleFamilyRequest")
	return backend.RequestResult{}, nil
}

func (f *fakeBackend) Subscribe(_ context.Context, familyID uuid.UUID) (backend.Stream, error) {
	f.record("Subscribe")
	if f.subscribeFn != nil {
		return f.subscribeFn(familyID)
	}
	return newFakeStream(), nil
}

func serverRecord(name, category string) backend.ItemRecord {
	return backend.ItemRecord{
		ID:       uuid.New(),
		Name:     name,
		Category: category,
		Quantity: 1,
		Unit:     "piece",
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, b backend.Backend, scope ScopeProvider) *Store {
	t.Helper()
	return New(Config{
		Backend:               b,
		Scope:                 scope,
		Logger:                testLogger(),
		ReconnectErrorDelay:   2 * time.Millisecond,
		ReconnectTimeoutDelay: time.Millisecond,
		MaxReconnectAttempts:  2,
	})
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
