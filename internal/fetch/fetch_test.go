package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFeedParsesMovies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"providerName":"Test","movies":[{"id":"a","title":"One"},{"id":"b","title":"Two"}]}`))
	}))
	defer srv.Close()

	doc, err := Feed(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(doc.Movies) != 2 {
		t.Fatalf("movies = %d, want 2", len(doc.Movies))
	}
	if doc.Extra["providerName"] != "Test" {
		t.Errorf("extra providerName = %v", doc.Extra["providerName"])
	}
}

func TestFeedMissingMoviesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"providerName":"Test"}`))
	}))
	defer srv.Close()

	if _, err := Feed(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Fatal("want error for feed without movies array")
	}
}

func TestSourceItemsWrongShapeYieldsZeroItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":"x"}]}`))
	}))
	defer srv.Close()

	items, err := SourceItems(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("SourceItems: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
}

func TestSourceItemsServerErrorIsNonNilError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := SourceItems(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Fatal("want error for 404 source")
	}
}

func TestRejectsNonHTTPURLs(t *testing.T) {
	for _, u := range []string{"file:///etc/passwd", "ftp://example.org/feed", "", "not-a-url"} {
		if _, err := Feed(context.Background(), nil, u); err == nil {
			t.Errorf("Feed(%q): want error", u)
		}
		if _, err := SourceItems(context.Background(), nil, u); err == nil {
			t.Errorf("SourceItems(%q): want error", u)
		}
	}
}

func TestSourceItemsSkipsNonObjectEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"movies":[{"id":"a"},"not-an-object",{"id":"b"}]}`))
	}))
	defer srv.Close()

	items, err := SourceItems(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("SourceItems: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}
}
