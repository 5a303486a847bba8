// Package feed serializes extracted article records as RSS, Atom or JSON
// feeds.
package feed

import (
	"fmt"
	"time"

	"github.com/gorilla/feeds"

	"github.com/gatefeed/gatefeed/internal/extract"
)

// Meta describes the feed envelope.
type Meta struct {
	Title       string
	Link        string
	Description string
}

// Format selects the serialization.
type Format string

const (
	FormatRSS  Format = "rss"
	FormatAtom Format = "atom"
	FormatJSON Format = "json"
)

// ContentType returns the response content type for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatAtom:
		return "application/atom+xml; charset=utf-8"
	case FormatJSON:
		return "application/feed+json; charset=utf-8"
	default:
		return "application/rss+xml; charset=utf-8"
	}
}

// Build assembles a feed from article records, preserving record order.
func Build(meta Meta, articles []extract.Article) *feeds.Feed {
	f := &feeds.Feed{
		Title:       meta.Title,
		Link:        &feeds.Link{Href: meta.Link},
		Description: meta.Description,
		Created:     time.Now(),
	}

	for _, a := range articles {
		item := &feeds.Item{
			Id:          a.Link,
			Title:       a.Title,
			Link:        &feeds.Link{Href: a.Link},
			Description: a.Summary,
			Content:     a.ContentHTML,
		}
		if a.Author != "" {
			item.Author = &feeds.Author{Name: a.Author}
		}
		if a.PublishedAt != nil {
			item.Created = *a.PublishedAt
		}
		if a.ImageURL != "" {
			item.Enclosure = &feeds.Enclosure{Url: a.ImageURL, Type: "image/*", Length: "0"}
		}
		f.Items = append(f.Items, item)
	}

	return f
}

// Render serializes the feed in the requested format.
func Render(f *feeds.Feed, format Format) (string, error) {
	switch format {
	case FormatAtom:
		return f.ToAtom()
	case FormatJSON:
		return f.ToJSON()
	case FormatRSS, "":
		return f.ToRss()
	default:
		return "", fmt.Errorf("unknown feed format %q", format)
	}
}
