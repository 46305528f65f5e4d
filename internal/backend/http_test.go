package backend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustParseTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return ts
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:     srv.URL,
		APIKey:      "anon-key",
		AccessToken: "user-token",
	}, testLogger())
}

func TestClientSendsAuthHeaders(t *testing.T) {
	var gotAPIKey, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})

	if _, err := c.ListItems(context.Background(), uuid.New()); err != nil {
		t.Fatalf("list items: %v", err)
	}
	if gotAPIKey != "anon-key" {
		t.Errorf("apikey header = %q, want anon-key", gotAPIKey)
	}
	if gotAuth != "Bearer user-token" {
		t.Errorf("authorization header = %q, want bearer token", gotAuth)
	}
}

func TestListItemsRequestShape(t *testing.T) {
	familyID := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/rest/v1/grocery_items" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("family_id"); got != "eq."+familyID.String() {
			t.Errorf("family_id filter = %q", got)
		}
		if got := q.Get("order"); got != "created_at.desc" {
			t.Errorf("order = %q", got)
		}
		w.Write([]byte(`[{"id":"` + uuid.NewString() + `","name":"Milk","category":"Dairy","quantity":1,"unit":"piece"}]`))
	})

	items, err := c.ListItems(context.Background(), familyID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Milk" {
		t.Errorf("items = %+v", items)
	}
}

func TestInsertItemReturnsRepresentation(t *testing.T) {
	serverID := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Prefer"); got != "return=representation" {
			t.Errorf("prefer header = %q", got)
		}
		var body NewItem
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Name != "Milk" {
			t.Errorf("body name = %q", body.Name)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":"` + serverID.String() + `","name":"Milk","category":"Dairy","quantity":1,"unit":"piece"}]`))
	})

	rec, err := c.InsertItem(context.Background(), NewItem{Name: "Milk", Category: "Dairy", Quantity: 1, Unit: "piece"})
	if err != nil {
		t.Fatalf("insert item: %v", err)
	}
	if rec.ID != serverID {
		t.Errorf("record id = %s, want %s", rec.ID, serverID)
	}
}

func TestInsertItemEmptyRepresentationIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[]`))
	})

	if _, err := c.InsertItem(context.Background(), NewItem{Name: "Milk"}); err == nil {
		t.Fatal("want error for empty representation")
	}
}

func TestDeleteItemsBuildsInFilter(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	var gotFilter string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		gotFilter = r.URL.Query().Get("id")
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.DeleteItems(context.Background(), ids); err != nil {
		t.Fatalf("delete items: %v", err)
	}
	want := "in.(" + ids[0].String() + "," + ids[1].String() + ")"
	if gotFilter != want {
		t.Errorf("id filter = %q, want %q", gotFilter, want)
	}
}

func TestDeleteItemsEmptySkipsRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	if err := c.DeleteItems(context.Background(), nil); err != nil {
		t.Fatalf("delete items: %v", err)
	}
	if called {
		t.Error("empty delete hit the server")
	}
}

func TestUpsertCatalogEntryIgnoresDuplicates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("on_conflict"); got != "name" {
			t.Errorf("on_conflict = %q", got)
		}
		if got := r.Header.Get("Prefer"); got != "resolution=ignore-duplicates" {
			t.Errorf("prefer header = %q", got)
		}
		w.WriteHeader(http.StatusCreated)
	})

	err := c.UpsertCatalogEntry(context.Background(), CatalogEntry{Name: "Ayran", Category: "Beverages"})
	if err != nil {
		t.Fatalf("upsert catalog entry: %v", err)
	}
}

func TestLatestPurchaseEmptyResultIsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("order"); got != "purchased_at.desc" {
			t.Errorf("order = %q", got)
		}
		if got := q.Get("limit"); got != "1" {
			t.Errorf("limit = %q", got)
		}
		w.Write([]byte(`[]`))
	})

	rec, err := c.LatestPurchase(context.Background(), uuid.New(), "Milk")
	if err != nil {
		t.Fatalf("latest purchase: %v", err)
	}
	if rec != nil {
		t.Errorf("record = %+v, want nil for empty history", rec)
	}
}

func TestListPurchasesDateRangeFilters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got := r.URL.Query()["purchased_at"]
		if len(got) != 2 {
			t.Fatalf("purchased_at filters = %v, want gte and lte", got)
		}
		if !strings.HasPrefix(got[0], "gte.") || !strings.HasPrefix(got[1], "lte.") {
			t.Errorf("purchased_at filters = %v", got)
		}
		w.Write([]byte(`[]`))
	})

	start := mustParseTime(t, "2026-08-01T00:00:00Z")
	end := mustParseTime(t, "2026-08-31T23:59:59Z")
	if _, err := c.ListPurchases(context.Background(), uuid.New(), start, end); err != nil {
		t.Fatalf("list purchases: %v", err)
	}
}

func TestJoinFamilyByCodeNormalizesCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/rpc/join_family_by_code" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["code"] != "ABC123" {
			t.Errorf("code = %q, want ABC123", body["code"])
		}
		json.NewEncoder(w).Encode(JoinResult{Success: true})
	})

	result, err := c.JoinFamilyByCode(context.Background(), "  abc123 ")
	if err != nil {
		t.Fatalf("join family: %v", err)
	}
	if !result.Success {
		t.Error("result.Success = false")
	}
}

func TestClearPushTokenSendsNull(t *testing.T) {
	var body string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.ClearPushToken(context.Background(), uuid.New()); err != nil {
		t.Fatalf("clear push token: %v", err)
	}
	if !strings.Contains(body, `"push_token":null`) {
		t.Errorf("body = %s, want push_token null", body)
	}
}

func TestErrorStatusIncludesBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"permission denied"}`))
	})

	_, err := c.ListItems(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("want error for status 403")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("error = %v, want status and body", err)
	}
}
