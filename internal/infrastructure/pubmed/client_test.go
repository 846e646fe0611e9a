package pubmed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PubMedScanner/internal/domain"
)

func TestBuildTerm(t *testing.T) {
	t.Parallel()

	q := domain.SearchQuery{
		Journals: []string{"Radiotherapy and Oncology", "Radiation Oncology"},
		From:     time.Date(2026, time.August, 16, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, time.August, 23, 0, 0, 0, 0, time.UTC),
	}

	got := BuildTerm(q)
	want := `("Radiotherapy and Oncology"[Journal] OR "Radiation Oncology"[Journal]) AND 2026/08/16:2026/08/23[PDAT]`
	if got != want {
		t.Fatalf("BuildTerm mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestClientSearch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "esearch.fcgi") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("db") != "pubmed" || q.Get("retmode") != "json" {
			t.Errorf("unexpected query params: %v", q)
		}
		if q.Get("retmax") != "100" {
			t.Errorf("expected retmax=100, got %s", q.Get("retmax"))
		}
		_, _ = w.Write([]byte(`{"esearchresult":{"idlist":["100","200","300"]}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, server.Client())
	ids, err := c.Search(context.Background(), domain.SearchQuery{
		Journals:   []string{"Radiation Oncology"},
		From:       time.Now().AddDate(0, 0, -7),
		To:         time.Now(),
		MaxResults: 100,
	})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(ids) != 3 || ids[0] != "100" || ids[2] != "300" {
		t.Fatalf("unexpected id list: %v", ids)
	}
}

func TestClientFetchChunk(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "efetch.fcgi") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "100,200" {
			t.Errorf("expected joined ids, got %s", got)
		}
		_, _ = w.Write([]byte("<PubmedArticleSet></PubmedArticleSet>"))
	}))
	defer server.Close()

	c := NewClient(server.URL, server.Client())
	payload, err := c.FetchChunk(context.Background(), []string{"100", "200"})
	if err != nil {
		t.Fatalf("FetchChunk error: %v", err)
	}
	if !strings.Contains(string(payload), "PubmedArticleSet") {
		t.Fatalf("unexpected payload: %s", payload)
	}
}

func TestClientSearchServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(server.URL, server.Client())
	if _, err := c.Search(context.Background(), domain.SearchQuery{MaxResults: 10}); err == nil {
		t.Fatal("expected error on 502 response")
	}
}
