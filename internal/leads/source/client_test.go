package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/platform/logger"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL, Timeout: 2 * time.Second}, logger.New("development"))
}

func TestFetchCategoryDiscoversDynamicFields(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/leads/website" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[{"id":"42","Name":"Bob","Budget":1500,"Phone":"(650) 253-0000","empty":""}]`))
	}))

	records, err := client.FetchCategory(context.Background(), domain.SourceWebsite)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.ID != "website-42" {
		t.Fatalf("expected stable id website-42, got %s", rec.ID)
	}
	if rec.Fields["Name"] != "Bob" || rec.Fields["Budget"] != "1500" {
		t.Fatalf("unexpected fields: %v", rec.Fields)
	}
	if rec.Fields["Phone"] != "+16502530000" {
		t.Fatalf("expected normalized phone, got %s", rec.Fields["Phone"])
	}
	if _, ok := rec.Fields["empty"]; ok {
		t.Fatalf("empty columns should be dropped")
	}
}

func TestFetchCategoryFallsBackToPositionalID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"Name":"A"},{"Name":"B"}]`))
	}))

	records, err := client.FetchCategory(context.Background(), domain.SourceFacebook)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if records[0].ID != "facebook-0" || records[1].ID != "facebook-1" {
		t.Fatalf("expected positional ids, got %s, %s", records[0].ID, records[1].ID)
	}
}

func TestFetchCategoryReportsUpstreamErrors(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	if _, err := client.FetchCategory(context.Background(), domain.SourceGoogle); err == nil {
		t.Fatalf("expected error on non-200 response")
	}
}

func TestFetchAllContainsPerCategoryFailures(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/leads/google" {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"id":"1","Name":"A"}]`))
	}))

	byCategory := client.FetchAll(context.Background())

	if len(byCategory[domain.SourceGoogle]) != 0 {
		t.Fatalf("failed category should yield empty list")
	}
	if len(byCategory[domain.SourceWebsite]) != 1 || len(byCategory[domain.SourceFacebook]) != 1 {
		t.Fatalf("healthy categories should still deliver records: %v", byCategory)
	}
}

func TestFlattenUsesFixedCategoryOrder(t *testing.T) {
	byCategory := map[domain.SourceCategory][]domain.LeadRecord{
		domain.SourceReferral: {{ID: "referral-0", Source: domain.SourceReferral}},
		domain.SourceWebsite:  {{ID: "website-0", Source: domain.SourceWebsite}},
	}

	flat := Flatten(byCategory)
	if len(flat) != 2 {
		t.Fatalf("expected 2 records, got %d", len(flat))
	}
	if flat[0].Source != domain.SourceWebsite || flat[1].Source != domain.SourceReferral {
		t.Fatalf("expected website before referral, got %v", flat)
	}
}
