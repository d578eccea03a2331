package wiki

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	t.Setenv(cacheEnvVar, t.TempDir())
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL + "/w/api.php")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestResolveReturnsArticleWithLinks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("titles") != "Cat" {
			t.Errorf("unexpected titles param %q", query.Get("titles"))
		}
		_, _ = w.Write([]byte(`{"query":{"pages":[{
			"title":"Cat",
			"extract":"The cat is a small   domesticated species.\n\n\nFelines purr.",
			"links":[{"title":"Dog"},{"title":"Felidae"},{"title":"  "}]
		}]}}`))
	})

	article, err := client.Resolve(context.Background(), "Cat")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if article.Title != "Cat" {
		t.Fatalf("title = %q, want Cat", article.Title)
	}
	want := "The cat is a small domesticated species.\n\nFelines purr."
	if article.Extract != want {
		t.Fatalf("extract = %q, want %q", article.Extract, want)
	}
	if len(article.Links) != 2 {
		t.Fatalf("expected blank link dropped, got %d links", len(article.Links))
	}
	if article.Links[0].Title != "Dog" || article.Links[0].Target != client.PageURL("Dog") {
		t.Fatalf("unexpected first link %+v", article.Links[0])
	}
}

func TestResolveMissingPageIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query":{"pages":[{"title":"Nope","missing":true}]}}`))
	})

	_, err := client.Resolve(context.Background(), "Nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchResolvesBestMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("list") == "search" {
			if query.Get("srsearch") != "feline" {
				t.Errorf("unexpected srsearch %q", query.Get("srsearch"))
			}
			_, _ = w.Write([]byte(`{"query":{"search":[{"title":"Cat"}]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"query":{"pages":[{"title":"Cat","extract":"A cat."}]}}`))
	})

	article, err := client.Search(context.Background(), "feline")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if article.Title != "Cat" {
		t.Fatalf("title = %q, want Cat", article.Title)
	}
}

func TestSearchNoHitsIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query":{"search":[]}}`))
	})

	_, err := client.Search(context.Background(), "zxqv")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveAcceptsPageURLTarget(t *testing.T) {
	var titles []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		titles = append(titles, r.URL.Query().Get("titles"))
		_, _ = w.Write([]byte(`{"query":{"pages":[{"title":"Domestic cat","extract":"A cat."}]}}`))
	})

	// Link targets are the addresses PageURL mints; resolving one must ask
	// the API for the title, not the URL.
	article, err := client.Resolve(context.Background(), client.PageURL("Domestic cat"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if article.Title != "Domestic cat" {
		t.Fatalf("title = %q, want Domestic cat", article.Title)
	}
	if len(titles) != 1 || titles[0] != "Domestic cat" {
		t.Fatalf("titles params = %v, want [Domestic cat]", titles)
	}
}

func TestTitleFromTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"page url", "https://en.wikipedia.org/wiki/Domestic_cat", "Domestic cat"},
		{"escaped slug", "https://en.wikipedia.org/wiki/Citro%C3%ABn", "Citroën"},
		{"plain title", "Domestic cat", "Domestic cat"},
		{"title with slash", "AC/DC", "AC/DC"},
		{"non-wiki url", "https://example.org/page", "https://example.org/page"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := titleFromTarget(tt.in); got != tt.want {
				t.Fatalf("titleFromTarget(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPageURLEscapesTitle(t *testing.T) {
	t.Setenv(cacheEnvVar, t.TempDir())
	client, err := NewClient("")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got := client.PageURL("Domestic cat")
	want := "https://en.wikipedia.org/wiki/Domestic_cat"
	if got != want {
		t.Fatalf("PageURL = %q, want %q", got, want)
	}
}

func TestIsPDFTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"pdf url", "https://example.org/paper.pdf", true},
		{"uppercase ext", "https://example.org/PAPER.PDF", true},
		{"article title", "Domestic cat", false},
		{"page url", "https://en.wikipedia.org/wiki/Cat", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isPDFTarget(tt.in); got != tt.want {
				t.Fatalf("isPDFTarget(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
