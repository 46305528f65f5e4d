// Package backend is the client's boundary with the hosted backend: a
// request/response API over the family tables, two opaque server-side
// procedures, and a realtime change-event stream scoped to a family.
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/BarisSumer/bizim-market/internal/model"
)

// ItemRecord is the wire shape of a grocery item row.
type ItemRecord struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Emoji     string     `json:"emoji"`
	Category  string     `json:"category"`
	Quantity  int        `json:"quantity"`
	Unit      string     `json:"unit"`
	IsBought  bool       `json:"is_bought"`
	BoughtBy  *uuid.UUID `json:"bought_by"`
	BoughtAt  *time.Time `json:"bought_at"`
	FamilyID  uuid.UUID  `json:"family_id"`
	CreatedBy *uuid.UUID `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewItem is the insert payload for a grocery item.
type NewItem struct {
	Name      string    `json:"name"`
	Emoji     string    `json:"emoji"`
	Category  string    `json:"category"`
	Quantity  int       `json:"quantity"`
	Unit      string    `json:"unit"`
	FamilyID  uuid.UUID `json:"family_id"`
	CreatedBy uuid.UUID `json:"created_by"`
}

// BoughtUpdate sets the bought flag on an item. BoughtBy and BoughtAt are
// only present while the item is bought.
type BoughtUpdate struct {
	IsBought bool       `json:"is_bought"`
	BoughtBy *uuid.UUID `json:"bought_by"`
	BoughtAt *time.Time `json:"bought_at"`
}

// CatalogEntry is a shared catalog row, keyed by name.
type CatalogEntry struct {
	Name           string   `json:"name"`
	Emoji          string   `json:"emoji"`
	Category       string   `json:"category"`
	SearchKeywords []string `json:"search_keywords,omitempty"`
}

type CategoryRecord struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Emoji string    `json:"emoji"`
}

// PurchaseRecord is a purchase-history row. Written as a side effect of
// marking an item bought; read-only otherwise.
type PurchaseRecord struct {
	ID          uuid.UUID  `json:"id"`
	ItemName    string     `json:"item_name"`
	Category    string     `json:"category"`
	Quantity    int        `json:"quantity"`
	FamilyID    uuid.UUID  `json:"family_id"`
	PurchasedBy *uuid.UUID `json:"purchased_by"`
	PurchasedAt time.Time  `json:"purchased_at"`
}

// NewPurchase is the insert payload for a purchase-history row.
type NewPurchase struct {
	ItemName    string    `json:"item_name"`
	Category    string    `json:"category"`
	Quantity    int       `json:"quantity"`
	FamilyID    uuid.UUID `json:"family_id"`
	PurchasedBy uuid.UUID `json:"purchased_by"`
}

// JoinResult is the outcome of the join-family-by-code procedure.
type JoinResult struct {
	Success bool   `json:"success"`
	Pending bool   `json:"pending,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RequestResult is the outcome of the handle-family-request procedure.
type RequestResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Decision is the verdict on a pending family request.
type Decision string

const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

// ChangeType tags a realtime change event.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// DeletedRecord is the prior-state payload of a delete event. The id can be
// absent when the backend is misconfigured to omit old row identity.
type DeletedRecord struct {
	ID *uuid.UUID `json:"id"`
}

// ChangeEvent is one server-pushed change on the family's item table.
// Record is set for inserts and updates, OldRecord for deletes.
type ChangeEvent struct {
	Type      ChangeType     `json:"type"`
	Record    *ItemRecord    `json:"record,omitempty"`
	OldRecord *DeletedRecord `json:"old_record,omitempty"`
}

// ErrStreamTimeout marks a stream that died because the connection went
// quiet, as opposed to an outright channel error. The reconnect policy
// keys its delay off this distinction.
var ErrStreamTimeout = errors.New("backend: stream timed out")

// Stream is a live change-event subscription. Events is closed when the
// stream dies; Err then reports why. Close is idempotent.
type Stream interface {
	Events() <-chan ChangeEvent
	Err() error
	Close() error
}

// Backend is everything the sync core needs from the hosted service.
type Backend interface {
	ListItems(ctx context.Context, familyID uuid.UUID) ([]ItemRecord, error)
	InsertItem(ctx context.Context, item NewItem) (ItemRecord, error)
	UpdateItemBought(ctx context.Context, id uuid.UUID, upd BoughtUpdate) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	DeleteItems(ctx context.Context, ids []uuid.UUID) error

	ListCatalog(ctx context.Context) ([]CatalogEntry, error)
	UpsertCatalogEntry(ctx context.Context, entry CatalogEntry) error
	DeleteCatalogEntry(ctx context.Context, name string) error

	ListCategories(ctx context.Context) ([]CategoryRecord, error)
	InsertCategory(ctx context.Context, name, emoji string) (CategoryRecord, error)
	UpdateCategory(ctx context.Context, name, emoji string) error
	DeleteCategory(ctx context.Context, name string) error

	InsertPurchase(ctx context.Context, p NewPurchase) error
	LatestPurchase(ctx context.Context, familyID uuid.UUID, itemName string) (*PurchaseRecord, error)
	DeletePurchase(ctx context.Context, id uuid.UUID) error
	ListPurchases(ctx context.Context, familyID uuid.UUID, start, end time.Time) ([]PurchaseRecord, error)

	FetchProfile(ctx context.Context, userID uuid.UUID) (model.Profile, error)
	FetchFamily(ctx context.Context, familyID uuid.UUID) (model.Family, error)
	SavePushToken(ctx context.Context, userID uuid.UUID, token string) error
	ClearPushToken(ctx context.Context, userID uuid.UUID) error

	JoinFamilyByCode(ctx context.Context, code string) (JoinResult, error)
	HandleFamilyRequest(ctx context.Context, requestID uuid.UUID, decision Decision) (RequestResult, error)

	Subscribe(ctx context.Context, familyID uuid.UUID) (Stream, error)
}
