package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BarisSumer/bizim-market/internal/model"
)

const requestTimeout = 10 * time.Second

// Config holds the connection settings for the hosted backend.
type Config struct {
	// BaseURL is the project root, e.g. https://project.example.co
	BaseURL string
	// APIKey is the publishable key sent with every request.
	APIKey string
	// AccessToken is the bearer token of the signed-in user. Optional;
	// without it the backend only serves whatever anonymous policies allow.
	AccessToken string
}

// Client implements Backend over the backend's REST and realtime endpoints.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: requestTimeout},
		logger: logger,
	}
}

// SetAccessToken swaps the bearer token, e.g. after a session refresh.
func (c *Client) SetAccessToken(token string) {
	c.cfg.AccessToken = token
}

// do issues one REST request. The out parameter, when non-nil, receives the
// decoded JSON response body. Extra headers come last so call sites can set
// Prefer directives.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, headers ...string) error {
	u := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("apikey", c.cfg.APIKey)
	if c.cfg.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// --- Items ---

func (c *Client) ListItems(ctx context.Context, familyID uuid.UUID) ([]ItemRecord, error) {
	q := url.Values{}
	q.Set("family_id", "eq."+familyID.String())
	q.Set("order", "created_at.desc")

	var items []ItemRecord
	if err := c.do(ctx, http.MethodGet, "/rest/v1/grocery_items", q, nil, &items); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (c *Client) InsertItem(ctx context.Context, item NewItem) (ItemRecord, error) {
	var inserted []ItemRecord
	err := c.do(ctx, http.MethodPost, "/rest/v1/grocery_items", nil, item, &inserted,
		"Prefer", "return=representation")
	if err != nil {
		return ItemRecord{}, fmt.Errorf("insert item: %w", err)
	}
	if len(inserted) == 0 {
		return ItemRecord{}, fmt.Errorf("insert item: empty representation")
	}
	return inserted[0], nil
}

func (c *Client) UpdateItemBought(ctx context.Context, id uuid.UUID, upd BoughtUpdate) error {
	q := url.Values{}
	q.Set("id", "eq."+id.String())
	if err := c.do(ctx, http.MethodPatch, "/rest/v1/grocery_items", q, upd, nil); err != nil {
		return fmt.Errorf("update item bought: %w", err)
	}
	return nil
}

func (c *Client) DeleteItem(ctx context.Context, id uuid.UUID) error {
	q := url.Values{}
	q.Set("id", "eq."+id.String())
	if err := c.do(ctx, http.MethodDelete, "/rest/v1/grocery_items", q, nil, nil); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func (c *Client) DeleteItems(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, 0, len(ids))
	for _, id := range ids {
		strs = append(strs, id.String())
	}
	q := url.Values{}
	q.Set("id", "in.("+strings.Join(strs, ",")+")")
	if err := c.do(ctx, http.MethodDelete, "/rest/v1/grocery_items", q, nil, nil); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	return nil
}

// --- Catalog ---

func (c *Client) ListCatalog(ctx context.Context) ([]CatalogEntry, error) {
	q := url.Values{}
	q.Set("select", "name,emoji,category")
	q.Set("order", "name.asc")

	var entries []CatalogEntry
	if err := c.do(ctx, http.MethodGet, "/rest/v1/item_catalog", q, nil, &entries); err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	return entries, nil
}

func (c *Client) UpsertCatalogEntry(ctx context.Context, entry CatalogEntry) error {
	q := url.Values{}
	q.Set("on_conflict", "name")
	err := c.do(ctx, http.MethodPost, "/rest/v1/item_catalog", q, entry, nil,
		"Prefer", "resolution=ignore-duplicates")
	if err != nil {
		return fmt.Errorf("upsert catalog entry: %w", err)
	}
	return nil
}

func (c *Client) DeleteCatalogEntry(ctx context.Context, name string) error {
	q := url.Values{}
	q.Set("name", "ilike."+name)
	if err := c.do(ctx, http.MethodDelete, "/rest/v1/item_catalog", q, nil, nil); err != nil {
		return fmt.Errorf("delete catalog entry: %w", err)
	}
	return nil
}

// --- Categories ---

func (c *Client) ListCategories(ctx context.Context) ([]CategoryRecord, error) {
	q := url.Values{}
	q.Set("select", "id,name,emoji")
	q.Set("order", "name.asc")

	var cats []CategoryRecord
	if err := c.do(ctx, http.MethodGet, "/rest/v1/categories", q, nil, &cats); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (c *Client) InsertCategory(ctx context.Context, name, emoji string) (CategoryRecord, error) {
	body := map[string]string{"name": name, "emoji": emoji}
	var inserted []CategoryRecord
	err := c.do(ctx, http.MethodPost, "/rest/v1/categories", nil, body, &inserted,
		"Prefer", "return=representation")
	if err != nil {
		return CategoryRecord{}, fmt.Errorf("insert category: %w", err)
	}
	if len(inserted) == 0 {
		return CategoryRecord{}, fmt.Errorf("insert category: empty representation")
	}
	return inserted[0], nil
}

func (c *Client) UpdateCategory(ctx context.Context, name, emoji string) error {
	q := url.Values{}
	q.Set("name", "eq."+name)
	if err := c.do(ctx, http.MethodPatch, "/rest/v1/categories", q, map[string]string{"emoji": emoji}, nil); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (c *Client) DeleteCategory(ctx context.Context, name string) error {
	q := url.Values{}
	q.Set("name", "eq."+name)
	if err := c.do(ctx, http.MethodDelete, "/rest/v1/categories", q, nil, nil); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// --- Purchase history ---

func (c *Client) InsertPurchase(ctx context.Context, p NewPurchase) error {
	if err := c.do(ctx, http.MethodPost, "/rest/v1/purchase_history", nil, p, nil); err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

func (c *Client) LatestPurchase(ctx context.Context, familyID uuid.UUID, itemName string) (*PurchaseRecord, error) {
	q := url.Values{}
	q.Set("item_name", "eq."+itemName)
	q.Set("family_id", "eq."+familyID.String())
	q.Set("order", "purchased_at.desc")
	q.Set("limit", "1")

	var records []PurchaseRecord
	if err := c.do(ctx, http.MethodGet, "/rest/v1/purchase_history", q, nil, &records); err != nil {
		return nil, fmt.Errorf("latest purchase: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (c *Client) DeletePurchase(ctx context.Context, id uuid.UUID) error {
	q := url.Values{}
	q.Set("id", "eq."+id.String())
	if err := c.do(ctx, http.MethodDelete, "/rest/v1/purchase_history", q, nil, nil); err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}
	return nil
}

func (c *Client) ListPurchases(ctx context.Context, familyID uuid.UUID, start, end time.Time) ([]PurchaseRecord, error) {
	q := url.Values{}
	q.Set("select", "id,item_name,category,quantity,family_id,purchased_by,purchased_at")
	q.Set("family_id", "eq."+familyID.String())
	q.Add("purchased_at", "gte."+start.UTC().Format(time.RFC3339))
	q.Add("purchased_at", "lte."+end.UTC().Format(time.RFC3339))

	var records []PurchaseRecord
	if err := c.do(ctx, http.MethodGet, "/rest/v1/purchase_history", q, nil, &records); err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return records, nil
}

// --- Profiles and families ---

func (c *Client) FetchProfile(ctx context.Context, userID uuid.UUID) (model.Profile, error) {
	q := url.Values{}
	q.Set("id", "eq."+userID.String())

	var profiles []model.Profile
	if err := c.do(ctx, http.MethodGet, "/rest/v1/profiles", q, nil, &profiles); err != nil {
		return model.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	if len(profiles) == 0 {
		return model.Profile{}, fmt.Errorf("fetch profile: not found")
	}
	return profiles[0], nil
}

func (c *Client) FetchFamily(ctx context.Context, familyID uuid.UUID) (model.Family, error) {
	q := url.Values{}
	q.Set("id", "eq."+familyID.String())

	var families []model.Family
	if err := c.do(ctx, http.MethodGet, "/rest/v1/families", q, nil, &families); err != nil {
		return model.Family{}, fmt.Errorf("fetch family: %w", err)
	}
	if len(families) == 0 {
		return model.Family{}, fmt.Errorf("fetch family: not found")
	}
	return families[0], nil
}

func (c *Client) SavePushToken(ctx context.Context, userID uuid.UUID, token string) error {
	q := url.Values{}
	q.Set("id", "eq."+userID.String())
	if err := c.do(ctx, http.MethodPatch, "/rest/v1/profiles", q, map[string]any{"push_token": token}, nil); err != nil {
		return fmt.Errorf("save push token: %w", err)
	}
	return nil
}

func (c *Client) ClearPushToken(ctx context.Context, userID uuid.UUID) error {
	q := url.Values{}
	q.Set("id", "eq."+userID.String())
	if err := c.do(ctx, http.MethodPatch, "/rest/v1/profiles", q, map[string]any{"push_token": nil}, nil); err != nil {
		return fmt.Errorf("clear push token: %w", err)
	}
	return nil
}

// --- Remote procedures ---

func (c *Client) JoinFamilyByCode(ctx context.Context, code string) (JoinResult, error) {
	body := map[string]string{"code": strings.ToUpper(strings.TrimSpace(code))}
	var result JoinResult
	if err := c.do(ctx, http.MethodPost, "/rest/v1/rpc/join_family_by_code", nil, body, &result); err != nil {
		return JoinResult{}, fmt.Errorf("join family by code: %w", err)
	}
	return result, nil
}

func (c *Client) HandleFamilyRequest(ctx context.Context, requestID uuid.UUID, decision Decision) (RequestResult, error) {
	body := map[string]string{
		"request_id": requestID.String(),
		"decision":   string(decision),
	}
	var result RequestResult
	if err := c.do(ctx, http.MethodPost, "/rest/v1/rpc/handle_family_request", nil, body, &result); err != nil {
		return RequestResult{}, fmt.Errorf("handle family request: %w", err)
	}
	return result, nil
}
