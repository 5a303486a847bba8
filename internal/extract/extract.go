package extract

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/gatefeed/gatefeed/internal/logger"
)

// maxListingRecords bounds how many candidates one listing page may yield.
// A resource bound, not a quality filter: every record fans out into a
// detail-page fetch.
const maxListingRecords = 20

// Listing extracts candidate records from listing markup in document order.
// Candidates beyond the first 20 are ignored; candidates missing a title or
// link are dropped silently.
func Listing(markup string, p Profile) []Article {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		logger.Debug("listing markup unparseable", "site", p.Name, "error", err)
		return nil
	}

	var nodes *goquery.Selection
	for _, sel := range p.selectorChain() {
		if found := doc.Find(sel); found.Length() > 0 {
			logger.Debug("listing selector matched", "site", p.Name, "selector", sel, "count", found.Length())
			nodes = found
			break
		}
	}
	if nodes == nil {
		logger.Debug("no listing selector matched", "site", p.Name)
		return nil
	}

	base, _ := url.Parse(p.BaseURL)

	var articles []Article
	nodes.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxListingRecords {
			return false
		}

		a := Article{
			Title:       fieldValue(s, p.Title),
			Link:        resolveURL(base, fieldValue(s, p.Link)),
			Summary:     fieldValue(s, p.Summary),
			Categories:  fieldValues(s, p.Category),
			ImageURL:    resolveURL(base, fieldValue(s, p.Image)),
			PublishedAt: normalizeDate(fieldValue(s, p.Date)),
		}

		if a.Title == "" || a.Link == "" {
			return true
		}
		articles = append(articles, a)
		return true
	})

	return articles
}

// Detail extracts the enrichment fields from a detail page. Known
// non-content subtrees and tracking links are stripped before the content
// container is captured, so re-running on already-stripped markup yields the
// same result.
func Detail(markup string, p Profile) Enrichment {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		logger.Debug("detail markup unparseable", "site", p.Name, "error", err)
		return Enrichment{}
	}

	doc.Find("script, style, noscript, iframe").Remove()
	for _, sel := range p.DetailRemove {
		doc.Find(sel).Remove()
	}
	if len(p.DetailRemoveLinkSubstrings) > 0 {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			for _, frag := range p.DetailRemoveLinkSubstrings {
				if strings.Contains(href, frag) {
					s.Remove()
					return
				}
			}
		})
	}

	var e Enrichment

	if p.DetailContent != "" {
		if container := doc.Find(p.DetailContent).First(); container.Length() > 0 {
			if html, err := container.Html(); err == nil {
				e.ContentHTML = strings.TrimSpace(html)
			}
		}
	}

	e.PublishedAt = detailDate(doc, p)
	e.Author = fieldValue(doc.Selection, p.DetailAuthor)
	e.Categories = fieldValues(doc.Selection, p.DetailCategory)

	return e
}

// detailDate favors a machine-readable datetime attribute on a time node
// over its display text.
func detailDate(doc *goquery.Document, p Profile) *time.Time {
	sel := p.DetailDate.Selector
	if sel == "" {
		sel = "time"
	}
	node := doc.Find(sel).First()
	if node.Length() == 0 {
		return nil
	}

	if dt, ok := node.Attr("datetime"); ok {
		if ts := normalizeDate(dt); ts != nil {
			return ts
		}
	}
	if p.DetailDate.Attr != "" && p.DetailDate.Attr != "datetime" {
		if dt, ok := node.Attr(p.DetailDate.Attr); ok {
			if ts := normalizeDate(dt); ts != nil {
				return ts
			}
		}
	}
	return normalizeDate(cleanText(node.Text()))
}

// fieldValue reads one value relative to a candidate node. An empty selector
// addresses the node itself.
func fieldValue(s *goquery.Selection, f Field) string {
	if f.Selector == "" && f.Attr == "" {
		return ""
	}
	target := s
	if f.Selector != "" {
		target = s.Find(f.Selector).First()
	}
	if target.Length() == 0 {
		return ""
	}
	if f.Attr != "" {
		v, _ := target.Attr(f.Attr)
		return strings.TrimSpace(v)
	}
	return cleanText(target.Text())
}

// fieldValues reads every match of a field, for list-valued fields such as
// category tags.
func fieldValues(s *goquery.Selection, f Field) []string {
	if f.Selector == "" {
		return nil
	}
	var out []string
	s.Find(f.Selector).Each(func(_ int, m *goquery.Selection) {
		var v string
		if f.Attr != "" {
			v, _ = m.Attr(f.Attr)
			v = strings.TrimSpace(v)
		} else {
			v = cleanText(m.Text())
		}
		if v != "" {
			out = append(out, v)
		}
	})
	return out
}

// normalizeDate parses a locale-tolerant date string. Unparseable input is
// not an error; the caller keeps whatever date it already had.
func normalizeDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	ts, err := dateparse.ParseAny(raw)
	if err != nil {
		logger.Debug("date not parseable", "value", raw)
		return nil
	}
	return &ts
}

// resolveURL makes href absolute against the profile base URL.
func resolveURL(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if !u.IsAbs() && base != nil {
		u = base.ResolveReference(u)
	}
	return u.String()
}

// cleanText normalizes whitespace in text.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
