package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/wikitrail/internal/nav"
	"github.com/csheth/wikitrail/internal/wiki"
)

// Resolver turns a search term or link target into article content. The
// production implementation is *wiki.Client; tests substitute fakes.
type Resolver interface {
	Resolve(ctx context.Context, target string) (*wiki.Article, error)
	Search(ctx context.Context, term string) (*wiki.Article, error)
}

func searchJob(resolver Resolver, term string, width int) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 35*time.Second)
		defer cancel()
		article, err := resolver.Search(ctx, term)
		if err != nil {
			return articleResultMsg{err: err}, err
		}
		return articleResultMsg{pane: articlePane(article, width), searchResult: true}, nil
	}
}

func resolveLinkJob(resolver Resolver, target string, width int) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 35*time.Second)
		defer cancel()
		article, err := resolver.Resolve(ctx, target)
		if err != nil {
			return articleResultMsg{err: err}, err
		}
		return articleResultMsg{pane: articlePane(article, width)}, nil
	}
}

func articlePane(article *wiki.Article, width int) nav.Pane {
	if width < nav.MinPaneWidth {
		width = nav.MinPaneWidth
	}
	links := make([]nav.Link, 0, len(article.Links))
	for _, l := range article.Links {
		links = append(links, nav.Link{Text: l.Title, Target: l.Target})
	}
	return nav.Pane{
		Title:   article.Title,
		Content: article.Extract,
		Links:   links,
		Width:   width,
	}
}

func trimmedTitle(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= 40 {
		return value
	}
	return strings.TrimSpace(value[:37]) + "…"
}
