package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// readTestdata reads a fixture from the testdata directory.
func readTestdata(t *testing.T, filename string) string {
	t.Helper()
	path := filepath.Join("testdata", filename)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read testdata %s: %v", filename, err)
	}
	return string(data)
}

func testProfile() Profile {
	return Profile{
		Name:             "test-site",
		BaseURL:          "https://example.com/",
		ListingSelectors: []string{"div.story"},
		Title:            Field{Selector: ".story-title"},
		Link:             Field{Selector: ".story-title a", Attr: "href"},
		Summary:          Field{Selector: ".story-summary"},
		Date:             Field{Selector: ".story-date"},
		Category:         Field{Selector: ".story-tag"},
		Image:            Field{Selector: ".story-thumb", Attr: "src"},
		DetailContent:    ".story-body",
		DetailRemove: []string{
			".share-buttons", ".related-posts", ".ad-banner", "aside",
		},
		DetailRemoveLinkSubstrings: []string{"/out?"},
		DetailDate:                 Field{Selector: "time.published"},
		DetailAuthor:               Field{Selector: ".byline a"},
		DetailCategory:             Field{Selector: "a.topic"},
	}
}

// --- Listing ---

func TestListing_WellFormedRecords(t *testing.T) {
	html := readTestdata(t, "listing.html")
	articles := Listing(html, testProfile())

	// Three candidates, one missing its link.
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.Title != "Flood warning issued for coastal districts" {
		t.Errorf("unexpected title: %q", first.Title)
	}
	if first.Link != "https://example.com/news/2024/flood-warning" {
		t.Errorf("relative link not resolved: %q", first.Link)
	}
	if !strings.Contains(first.Summary, "prepare for evacuation") {
		t.Errorf("unexpected summary: %q", first.Summary)
	}
	if first.PublishedAt == nil {
		t.Error("expected parsed publish date")
	}
	if first.ImageURL != "https://example.com/images/flood.jpg" {
		t.Errorf("relative image not resolved: %q", first.ImageURL)
	}
	if len(first.Categories) != 1 || first.Categories[0] != "Weather" {
		t.Errorf("unexpected categories: %v", first.Categories)
	}

	second := articles[1]
	if second.Link != "https://example.com/news/2024/port-expansion" {
		t.Errorf("absolute link must pass through unchanged: %q", second.Link)
	}
	if len(second.Categories) != 2 {
		t.Errorf("expected 2 categories, got %v", second.Categories)
	}
}

func TestListing_PreservesDocumentOrder(t *testing.T) {
	html := readTestdata(t, "listing.html")
	articles := Listing(html, testProfile())

	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if !strings.Contains(articles[0].Title, "Flood warning") ||
		!strings.Contains(articles[1].Title, "Port expansion") {
		t.Errorf("document order not preserved: %q, %q", articles[0].Title, articles[1].Title)
	}
}

func TestListing_CapsAtTwenty(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 35; i++ {
		fmt.Fprintf(&b, `<div class="story"><h2 class="story-title"><a href="/n/%d">Story %d</a></h2></div>`, i, i)
	}
	b.WriteString("</body></html>")

	articles := Listing(b.String(), testProfile())
	if len(articles) != 20 {
		t.Fatalf("expected cap of 20, got %d", len(articles))
	}
	if articles[0].Link != "https://example.com/n/0" || articles[19].Link != "https://example.com/n/19" {
		t.Error("cap must keep the first 20 in document order")
	}
}

func TestListing_CapCountsCandidatesNotRecords(t *testing.T) {
	// Invalid candidates inside the first 20 consume slots; valid ones
	// beyond the cap are never considered.
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, `<div class="story"><h2 class="story-title">No link %d</h2></div>`, i)
	}
	fmt.Fprintf(&b, `<div class="story"><h2 class="story-title"><a href="/n/ok">Valid but late</a></h2></div>`)
	b.WriteString("</body></html>")

	articles := Listing(b.String(), testProfile())
	if len(articles) != 0 {
		t.Fatalf("expected 0 articles, got %d", len(articles))
	}
}

func TestListing_FallbackChain(t *testing.T) {
	html := readTestdata(t, "listing_fallback.html")
	p := Profile{
		Name:             "unstable-site",
		BaseURL:          "https://example.com/",
		ListingSelectors: []string{"div.no-such-class"},
		Title:            Field{Selector: "h3 a, h2 a"},
		Link:             Field{Selector: "a[href]", Attr: "href"},
		Summary:          Field{Selector: "p"},
	}

	articles := Listing(html, p)
	if len(articles) != 2 {
		t.Fatalf("expected fallback chain to find 2 articles, got %d", len(articles))
	}
	if articles[0].Title != "First fallback story" {
		t.Errorf("unexpected title via fallback: %q", articles[0].Title)
	}
	if articles[0].Link != "https://example.com/stories/1" {
		t.Errorf("unexpected link via fallback: %q", articles[0].Link)
	}
}

func TestListing_NoMatchIsEmptyNotError(t *testing.T) {
	articles := Listing("<html><body><p>nothing here</p></body></html>", testProfile())
	if len(articles) != 0 {
		t.Fatalf("expected no articles, got %d", len(articles))
	}
}

func TestListing_UnparseableDateOmitted(t *testing.T) {
	html := `<html><body><div class="story">
		<h2 class="story-title"><a href="/n/1">Dated oddly</a></h2>
		<span class="story-date">sometime before dinner</span>
	</div></body></html>`

	articles := Listing(html, testProfile())
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].PublishedAt != nil {
		t.Errorf("unparseable date must be omitted, got %v", articles[0].PublishedAt)
	}
}

// --- Detail ---

func TestDetail_ContentStripped(t *testing.T) {
	html := readTestdata(t, "detail.html")
	e := Detail(html, testProfile())

	if e.ContentHTML == "" {
		t.Fatal("expected content markup")
	}
	for _, want := range []string{"prepare for evacuation", "through the weekend", "twelve locations"} {
		if !strings.Contains(e.ContentHTML, want) {
			t.Errorf("content missing %q", want)
		}
	}
	for _, junk := range []string{"share-buttons", "related-posts", "Sponsored link", "<script"} {
		if strings.Contains(e.ContentHTML, junk) {
			t.Errorf("content still contains junk %q", junk)
		}
	}
}

func TestDetail_FieldExtraction(t *testing.T) {
	html := readTestdata(t, "detail.html")
	e := Detail(html, testProfile())

	if e.Author != "S. Rahman" {
		t.Errorf("unexpected author: %q", e.Author)
	}
	if len(e.Categories) != 1 || e.Categories[0] != "Weather" {
		t.Errorf("unexpected categories: %v", e.Categories)
	}
	if e.PublishedAt == nil {
		t.Fatal("expected publish date")
	}
	want := time.Date(2024, 6, 12, 3, 30, 0, 0, time.UTC)
	if !e.PublishedAt.UTC().Equal(want) {
		t.Errorf("datetime attribute must win: got %v, want %v", e.PublishedAt.UTC(), want)
	}
}

func TestDetail_DateFallsBackToText(t *testing.T) {
	html := `<html><body><div class="story-body"><p>text</p></div>
		<time class="published">2024-01-05</time></body></html>`
	e := Detail(html, testProfile())

	if e.PublishedAt == nil {
		t.Fatal("expected date parsed from node text")
	}
	if e.PublishedAt.Year() != 2024 || e.PublishedAt.Month() != time.January {
		t.Errorf("unexpected date: %v", e.PublishedAt)
	}
}

func TestDetail_Idempotent(t *testing.T) {
	html := readTestdata(t, "detail.html")
	first := Detail(html, testProfile())
	if first.ContentHTML == "" {
		t.Fatal("expected content markup")
	}

	// Re-extract from already-stripped content: nothing left to remove,
	// identical output both times.
	wrapped := `<html><body><div class="story-body">` + first.ContentHTML + `</div></body></html>`
	second := Detail(wrapped, testProfile())

	if second.ContentHTML != first.ContentHTML {
		t.Errorf("re-extraction not idempotent:\nfirst:  %q\nsecond: %q", first.ContentHTML, second.ContentHTML)
	}
}

// --- Merge ---

func TestMerge_OverridesAndPreserves(t *testing.T) {
	listed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	enriched := time.Date(2024, 6, 12, 9, 30, 0, 0, time.UTC)

	a := Article{
		Title:       "Listing title",
		Link:        "https://example.com/n/1",
		Summary:     "Listing summary",
		PublishedAt: &listed,
		Categories:  []string{"General"},
	}

	merged := a.Merge(Enrichment{
		ContentHTML: "<p>full text</p>",
		PublishedAt: &enriched,
		Author:      "S. Rahman",
		Categories:  []string{"Weather"},
	})

	if merged.ContentHTML != "<p>full text</p>" || merged.Author != "S. Rahman" {
		t.Error("enrichment fields not applied")
	}
	if !merged.PublishedAt.Equal(enriched) {
		t.Error("detail date must override listing date")
	}
	if len(merged.Categories) != 1 || merged.Categories[0] != "Weather" {
		t.Error("detail categories must override listing categories")
	}
	if merged.Title != "Listing title" || merged.Summary != "Listing summary" {
		t.Error("listing fields must survive the merge")
	}
}

func TestMerge_EmptyEnrichmentLeavesRecordUntouched(t *testing.T) {
	listed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a := Article{
		Title:       "Listing title",
		Link:        "https://example.com/n/1",
		Summary:     "Listing summary",
		PublishedAt: &listed,
		Categories:  []string{"General"},
	}

	merged := a.Merge(Enrichment{})
	if merged.Title != a.Title || merged.Summary != a.Summary ||
		!merged.PublishedAt.Equal(listed) || len(merged.Categories) != 1 {
		t.Errorf("empty enrichment changed the record: %+v", merged)
	}
}

// --- Registry ---

func TestLookup_Builtin(t *testing.T) {
	if _, ok := Lookup("generic"); !ok {
		t.Error("expected builtin generic profile")
	}
	if _, ok := Lookup("no-such-site"); ok {
		t.Error("unknown profile must not resolve")
	}
}

func TestRegister_Overrides(t *testing.T) {
	Register(Profile{Name: "override-test", BaseURL: "https://a.example/"})
	Register(Profile{Name: "override-test", BaseURL: "https://b.example/"})

	p, ok := Lookup("override-test")
	if !ok || p.BaseURL != "https://b.example/" {
		t.Errorf("expected later registration to win, got %+v", p)
	}
}
