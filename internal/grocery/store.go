// Package grocery holds the client-side grocery list: an in-memory ordered
// item collection kept consistent with the backend of record through
// optimistic mutations and realtime change-event reconciliation.
//
// Mutating actions never return errors to the caller. A failed remote call
// is logged and resolved by rolling the local state back, so failures
// surface to the UI as reverted state rather than exceptions.
package grocery

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BarisSumer/bizim-market/internal/backend"
	"github.com/BarisSumer/bizim-market/internal/model"
	"github.com/BarisSumer/bizim-market/internal/palette"
)

// ScopeProvider supplies the current family/user scope. Without a scope the
// store operates in local-only mode: mutations apply locally and no remote
// calls are made.
type ScopeProvider interface {
	CurrentScope() (model.Scope, bool)
}

// Saver persists the snapshot (items and categories) after each applied
// patch. Persistence is best-effort; failures are logged, never surfaced.
type Saver interface {
	Save(items []model.GroceryItem, categories []model.Category) error
}

// Reconnect policy defaults. The base delay depends on the failure class;
// subsequent attempts back off exponentially from that base, capped at
// DefaultMaxReconnectAttempts.
const (
	DefaultReconnectErrorDelay   = 5 * time.Second
	DefaultReconnectTimeoutDelay = 3 * time.Second
	DefaultMaxReconnectAttempts  = 5
)

// Config wires a Store's collaborators. Backend, Scope and Logger are
// required; Saver is optional (no persistence without it). Zero durations
// and attempt counts fall back to the defaults above.
type Config struct {
	Backend backend.Backend
	Scope   ScopeProvider
	Saver   Saver
	Logger  *slog.Logger

	ReconnectErrorDelay   time.Duration
	ReconnectTimeoutDelay time.Duration
	MaxReconnectAttempts  uint64
}

// Store is the single shared mutable resource of the sync core. All access
// to the collections is serialized through its mutex; the optimistic
// mutation paths and the realtime merge path both go through applyItems, so
// item records never tear.
type Store struct {
	backend backend.Backend
	scope   ScopeProvider
	saver   Saver
	logger  *slog.Logger

	reconnectErrorDelay   time.Duration
	reconnectTimeoutDelay time.Duration
	maxReconnectAttempts  uint64

	mu          sync.Mutex
	items       []model.GroceryItem
	suggestions []model.Suggestion
	categories  []model.Category
	emoji       map[string]string
	loading     bool
	stream      backend.Stream
}

func New(cfg Config) *Store {
	if cfg.ReconnectErrorDelay <= 0 {
		cfg.ReconnectErrorDelay = DefaultReconnectErrorDelay
	}
	if cfg.ReconnectTimeoutDelay <= 0 {
		cfg.ReconnectTimeoutDelay = DefaultReconnectTimeoutDelay
	}
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}

	s := &Store{
		backend:               cfg.Backend,
		scope:                 cfg.Scope,
		saver:                 cfg.Saver,
		logger:                cfg.Logger,
		reconnectErrorDelay:   cfg.ReconnectErrorDelay,
		reconnectTimeoutDelay: cfg.ReconnectTimeoutDelay,
		maxReconnectAttempts:  cfg.MaxReconnectAttempts,
		suggestions:           palette.DefaultSuggestions(),
		categories:            palette.DefaultCategories(),
		emoji:                 make(map[string]string),
	}
	for _, cat := range s.categories {
		s.emoji[cat.Name] = cat.Emoji
	}
	return s
}

// Restore primes the store from a persisted snapshot, replacing the seeded
// defaults. Meant to run once, before fetch and subscribe.
func (s *Store) Restore(items []model.GroceryItem, categories []model.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.Clone(items)
	if len(categories) > 0 {
		s.categories = slices.Clone(categories)
		for _, cat := range categories {
			s.emoji[cat.Name] = cat.Emoji
		}
	}
}

// Items returns a snapshot of the current item collection.
func (s *Store) Items() []model.GroceryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Suggestions returns a snapshot of the catalog suggestions.
func (s *Store) Suggestions() []model.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.suggestions)
}

// Categories returns a snapshot of the known categories.
func (s *Store) Categories() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.categories)
}

// IsLoading reports whether a bulk item fetch is in flight.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// EmojiFor resolves the emoji for a category name, falling back to the
// generic cart.
func (s *Store) EmojiFor(category string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.emoji[category]; ok {
		return e
	}
	return palette.EmojiFor(category)
}

// ReplaceAll swaps in a full item collection, discarding any unreconciled
// placeholders. Used after an authoritative bulk fetch.
func (s *Store) ReplaceAll(items []model.GroceryItem) {
	s.applyItems(func([]model.GroceryItem) []model.GroceryItem {
		return slices.Clone(items)
	})
}

// applyItems atomically replaces the item collection with fn's result and
// persists the snapshot. Every item mutation, optimistic and realtime alike,
// goes through here.
func (s *Store) applyItems(fn func(items []model.GroceryItem) []model.GroceryItem) {
	s.mu.Lock()
	s.items = fn(s.items)
	s.mu.Unlock()
	s.persist()
}

func (s *Store) persist() {
	if s.saver == nil {
		return
	}
	s.mu.Lock()
	items := slices.Clone(s.items)
	categories := slices.Clone(s.categories)
	s.mu.Unlock()
	if err := s.saver.Save(items, categories); err != nil {
		s.logger.Warn("persist snapshot", "error", err)
	}
}

// FetchItems loads the family's items from the backend and replaces the
// local collection. Without a family scope the list is emptied: local-only
// data never masquerades as synced data after sign-out.
func (s *Store) FetchItems(ctx context.Context) {
	scope, ok := s.scope.CurrentScope()
	if !ok {
		s.ReplaceAll(nil)
		return
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	records, err := s.backend.ListItems(ctx, scope.FamilyID)
	if err != nil {
		s.logger.Error("fetch items", "error", err)
		s.ReplaceAll(nil)
		return
	}

	items := make([]model.GroceryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, itemFromRecord(rec))
	}
	s.ReplaceAll(items)
}

// FetchSuggestions refreshes the shared catalog. The built-in suggestions
// stay in place if the catalog is empty or the fetch fails.
func (s *Store) FetchSuggestions(ctx context.Context) {
	entries, err := s.backend.ListCatalog(ctx)
	if err != nil {
		s.logger.Error("fetch suggestions", "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	suggestions := make([]model.Suggestion, 0, len(entries))
	for _, e := range entries {
		suggestions = append(suggestions, model.Suggestion{Name: e.Name, Emoji: e.Emoji, Category: e.Category})
	}

	s.mu.Lock()
	s.suggestions = suggestions
	s.mu.Unlock()
}

// FetchCategories refreshes the category list and the name→emoji lookup.
func (s *Store) FetchCategories(ctx context.Context) {
	records, err := s.backend.ListCategories(ctx)
	if err != nil {
		s.logger.Error("fetch categories", "error", err)
		return
	}
	if len(records) == 0 {
		return
	}

	categories := make([]model.Category, 0, len(records))
	s.mu.Lock()
	for _, rec := range records {
		id := rec.ID
		categories = append(categories, model.Category{ID: &id, Name: rec.Name, Emoji: rec.Emoji})
		s.emoji[rec.Name] = rec.Emoji
	}
	s.categories = categories
	s.mu.Unlock()
	s.persist()
}

// NewItemInput describes an item being added. Quantity defaults to 1, Unit
// to "piece", Category to the Categorize guess for the name, and Emoji to
// the category's emoji, for whichever fields are left empty.
type NewItemInput struct {
	Name     string
	Emoji    string
	Category string
	Quantity int
	Unit     string
}

// AddItem applies the item locally under a placeholder id, then confirms it
// against the backend. On success the placeholder is replaced by the
// server-returned record, matched by the tracked placeholder id; on failure
// the placeholder is removed.
func (s *Store) AddItem(ctx context.Context, input NewItemInput) {
	if input.Quantity <= 0 {
		input.Quantity = model.DefaultQuantity
	}
	if input.Unit == "" {
		input.Unit = model.DefaultUnit
	}
	if input.Category == "" {
		input.Category = Categorize(input.Name)
	}
	if input.Emoji == "" {
		input.Emoji = s.EmojiFor(input.Category)
	}

	placeholder := model.GroceryItem{
		ID:       model.NewLocalID(),
		Name:     input.Name,
		Emoji:    input.Emoji,
		Category: input.Category,
		Quantity: input.Quantity,
		Unit:     input.Unit,
	}

	s.applyItems(func(items []model.GroceryItem) []model.GroceryItem {
		return append([]model.GroceryItem{placeholder}, items...)
	})

	scope, ok := s.scope.CurrentScope()
	if !ok {
		// Local-only mode keeps the placeholder as-is.
		return
	}

	rec, err := s.backend.InsertItem(ctx, backend.NewItem{
		Name:      input.Name,
		Emoji:     input.Emoji,
		Category:  input.Category,
		Quantity:  input.Quantity,
		Unit:      input.Unit,
		FamilyID:  scope.FamilyID,
		CreatedBy: scope.UserID,
	})
	if err != nil {
		s.logger.Error("add item", "name", input.Name, "error", err)
		s.applyItems(func(items []model.GroceryItem) []model.GroceryItem {
			return slices.DeleteFunc(items, func(it model.GroceryItem) bool {
				return it.ID == placeholder.ID
			})
		})
		return
	}

	confirmed := itemFromRecord(rec)
	s.applyItems(func(items []model.GroceryItem) []model.GroceryItem {
		for i := range items {
			if items[i].ID == placeholder.ID {
				items[i] = confirmed
			}
		}
		return items
	})
}

// ToggleItem flips an item's bought flag locally, then syncs the change.
// Items without a server id stay local. Marking bought appends a purchase
// history record; un-marking deletes the most recent matching record. Both
// history effects are best-effort and never roll back the toggle.
func (s *Store) ToggleItem(ctx context.Context, id model.ItemID) {
	s.mu.Lock()
	idx := slices.IndexFunc(s.items, func(it model.GroceryItem) bool { return it.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	item := s.items[idx]
	s.mu.Unlock()

	s.applyItems(func(items []model.GroceryItem) []model.GroceryItem {
		for i := range items {
			if items[i].ID == id {
				items[i].IsBought = !items[i].IsBought
			}
		}
		return items
	})

	scope, ok := s.scope.CurrentScope()
	remoteID, isRemote := id.Remote()
	if !ok || !isRemote {
		return
	}

	nowBought := !item.IsBought
	upd := backend.BoughtUpdate{IsBought: nowBought}
	if nowBought {
		now := time.Now().UTC()
		upd.BoughtBy = &scope.UserID
		upd.BoughtAt = &now
	}

	if err := s.backend.UpdateItemBought(ctx, remoteID, upd); err != nil {
		s.logger.Error("toggle item", "name", item.Name, "error", err)
		s.applyItems(func(items []model.GroceryItem) []model.GroceryItem {
			for i := range items {
				if items[i].ID == id {
					items[i].IsBought = item.IsBought
				}
			}
			return items
		})
		return
	}

	if nowBought {
		err := s.backend.InsertPurchase(ctx, backend.NewPurchase{
			ItemName:    item.Name,
			Category:    item.Category,
			Quantity:    item.Quantity,
			FamilyID:    scope.FamilyID,
			PurchasedBy: scope.UserID,
		})
		if err != nil {
			s.logger.Warn("record purchase", "name", item.Name, "error", err)
		}
		return
	}

	// Un-marking deletes only the single most recent history row for this
	// name. With several rapid purchases of the same item this is an
	// approximation, not a precise undo.
	latest, err := s.backend.LatestPurchase(ctx, scope.FamilyID, item.Name)
	if err != nil {
		s.logger.Warn("find purchase to undo", "name", item.Name, "error", err)
		return
	}
	if latest == nil {
		return
	}
	if err := s.backend.DeletePurchase(ctx, latest.ID); err != nil {
		s.logger.Warn("undo purchase", "name", item.Name, "error", err)
	}
}

// RemoveItem deletes an item locally, then remotely when it has a server id.
// On remote failure the exact prior snapshot is restored.
func (s *Store) RemoveItem(ctx context.Context, id model.ItemID) {
	original := s.Items()

	s.applyItems(func(items []model.GroceryItem) []model.GroceryItem {
		return slices.DeleteFunc(items, func(it model.GroceryItem) bool {
			return it.ID == id
		})
	})

	_, ok := s.scope.CurrentScope()
	remoteID, isRemote := id.Remote()
	if !ok || !isRemote {
		return
	}

	if err := s.backend.DeleteItem(ctx, remoteID); err != nil {
		s.logger.Error("remove item", "id", id.String(), "error", err)
		s.ReplaceAll(original)
	}
}

// ClearBought removes every bought item locally, then issues one bulk delete
// for those with server ids. On failure the prior snapshot is restored.
func (s *Store) ClearBought(ctx context.Context) {
	original := s.Items()

	var bought []model.GroceryItem
	for _, item := range original {
		if item.IsBought {
			bought = append(bought, item)
		}
	}
	if len(bought) == 0 {
		return
	}

	s.applyItems(func(items []model.GroceryItem) []model.GroceryItem {
		return slices.DeleteFunc(items, func(it model.GroceryItem) bool {
			return it.IsBought
		})
	})

	if _, ok := s.scope.CurrentScope(); !ok {
		return
	}

	var ids []uuid.UUID
	for _, item := range bought {
		if remoteID, isRemote := item.ID.Remote(); isRemote {
			ids = append(ids, remoteID)
		}
	}
	if len(ids) == 0 {
		return
	}

	// Purchase history is intentionally kept; it feeds statistics.
	if err := s.backend.DeleteItems(ctx, ids); err != nil {
		s.logger.Error("clear bought items", "error", err)
		s.ReplaceAll(original)
	}
}

// AddCatalogItem appends a novel item name to the shared catalog. The
// backend upsert ignores duplicates, so a name that already exists is
// success, not an error, and the optimistic suggestion is kept either way.
func (s *Store) AddCatalogItem(ctx context.Context, name, category string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	emoji := s.EmojiFor(category)

	s.mu.Lock()
	s.suggestions = append(s.suggestions, model.Suggestion{Name: name, Emoji: emoji, Category: category})
	slices.SortFunc(s.suggestions, func(a, b model.Suggestion) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	s.mu.Unlock()

	err := s.backend.UpsertCatalogEntry(ctx, backend.CatalogEntry{
		Name:           name,
		Emoji:          emoji,
		Category:       category,
		SearchKeywords: []string{strings.ToLower(name)},
	})
	if err != nil {
		// The entry may simply exist already; the suggestion stays.
		s.logger.Warn("add catalog item", "name", name, "error", err)
	}
}

// DeleteCatalogItem removes a catalog entry by name, case-insensitively.
func (s *Store) DeleteCatalogItem(ctx context.Context, name string) {
	s.mu.Lock()
	original := slices.Clone(s.suggestions)
	s.suggestions = slices.DeleteFunc(s.suggestions, func(sg model.Suggestion) bool {
		return strings.EqualFold(sg.Name, name)
	})
	s.mu.Unlock()

	if err := s.backend.DeleteCatalogEntry(ctx, name); err != nil {
		s.logger.Error("delete catalog item", "name", name, "error", err)
		s.mu.Lock()
		s.suggestions = original
		s.mu.Unlock()
	}
}

// AddCustomCategory registers a new category with its emoji. A duplicate on
// the server is treated as success; on confirmation the server id is folded
// into the local record.
func (s *Store) AddCustomCategory(ctx context.Context, name, emoji string) {
	name = strings.TrimSpace(name)
	emoji = strings.TrimSpace(emoji)
	if name == "" {
		return
	}
	if emoji == "" {
		emoji = "🏷️"
	}

	s.mu.Lock()
	exists := slices.ContainsFunc(s.categories, func(c model.Category) bool {
		return strings.EqualFold(c.Name, name)
	})
	if exists {
		s.mu.Unlock()
		return
	}
	s.categories = append(s.categories, model.Category{Name: name, Emoji: emoji})
	s.emoji[name] = emoji
	s.mu.Unlock()
	s.persist()

	rec, err := s.backend.InsertCategory(ctx, name, emoji)
	if err != nil {
		// Likely a duplicate created by another device; the local entry
		// stands either way.
		s.logger.Warn("add category", "name", name, "error", err)
		return
	}

	s.mu.Lock()
	for i := range s.categories {
		if s.categories[i].Name == name {
			id := rec.ID
			s.categories[i].ID = &id
		}
	}
	s.mu.Unlock()
	s.persist()
}

// DeleteCustomCategory removes a category by name. Items already labeled
// with it keep their label; only the lookup entry goes away.
func (s *Store) DeleteCustomCategory(ctx context.Context, name string) {
	s.mu.Lock()
	original := slices.Clone(s.categories)
	removedEmoji, hadEmoji := s.emoji[name]
	s.categories = slices.DeleteFunc(s.categories, func(c model.Category) bool {
		return strings.EqualFold(c.Name, name)
	})
	delete(s.emoji, name)
	s.mu.Unlock()
	s.persist()

	if err := s.backend.DeleteCategory(ctx, name); err != nil {
		s.logger.Error("delete category", "name", name, "error", err)
		s.mu.Lock()
		s.categories = original
		if hadEmoji {
			s.emoji[name] = removedEmoji
		}
		s.mu.Unlock()
		s.persist()
	}
}

func itemFromRecord(rec backend.ItemRecord) model.GroceryItem {
	return model.GroceryItem{
		ID:       model.RemoteID(rec.ID),
		Name:     rec.Name,
		Emoji:    rec.Emoji,
		Category: rec.Category,
		IsBought: rec.IsBought,
		Quantity: rec.Quantity,
		Unit:     rec.Unit,
	}
}
