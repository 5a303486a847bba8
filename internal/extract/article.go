// Package extract turns rendered markup into structured article records
// using per-site selector profiles.
package extract

import "time"

// Article is one extracted record. Link doubles as the identity key for
// caching and deduplication.
type Article struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Summary     string     `json:"description,omitempty"`
	ContentHTML string     `json:"content_html,omitempty"`
	PublishedAt *time.Time `json:"pub_date,omitempty"`
	Categories  []string   `json:"category,omitempty"`
	ImageURL    string     `json:"image,omitempty"`
	Author      string     `json:"author,omitempty"`
}

// Enrichment holds the fields a detail page can contribute. Zero-valued
// fields leave the listing-derived value untouched.
type Enrichment struct {
	ContentHTML string
	PublishedAt *time.Time
	Author      string
	Categories  []string
}

// Merge applies non-empty enrichment fields over the listing-derived record.
func (a Article) Merge(e Enrichment) Article {
	if e.ContentHTML != "" {
		a.ContentHTML = e.ContentHTML
	}
	if e.PublishedAt != nil {
		a.PublishedAt = e.PublishedAt
	}
	if e.Author != "" {
		a.Author = e.Author
	}
	if len(e.Categories) > 0 {
		a.Categories = e.Categories
	}
	return a
}
