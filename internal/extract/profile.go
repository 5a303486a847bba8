package extract

// Field locates one value inside a candidate node. An empty Attr reads the
// node text; otherwise the named attribute is read.
type Field struct {
	Selector string
	Attr     string
}

// Profile is the selector set and cleanup rules for one target site's
// markup shape.
type Profile struct {
	Name    string
	BaseURL string

	// ReadySelector proves the listing page is past any challenge.
	ReadySelector string
	// DetailReadySelector proves a detail page is content-bearing.
	DetailReadySelector string

	// ListingSelectors is the candidate-node selector chain: entries are
	// tried in order and the first yielding at least one match wins. The
	// generic fallbacks in fallbackListingSelectors are tried after it, so
	// a profile only needs its site-specific selectors here.
	ListingSelectors []string

	// Per-field sub-selectors applied to each candidate node.
	Title    Field
	Link     Field
	Summary  Field
	Date     Field
	Category Field
	Image    Field

	// DetailContent selects the primary content container on detail pages.
	DetailContent string
	// DetailRemove lists junk subtrees stripped before content capture
	// (ad blocks, share widgets, related-post boxes).
	DetailRemove []string
	// DetailRemoveLinkSubstrings strips anchors whose href contains any of
	// these fragments (tracking/outbound redirect links).
	DetailRemoveLinkSubstrings []string

	DetailDate     Field
	DetailAuthor   Field
	DetailCategory Field
}

// fallbackListingSelectors is the generalized chain tried when a profile's
// own selectors match nothing. Ordered from structural to increasingly
// permissive class-substring probes, for sites without stable markup.
var fallbackListingSelectors = []string{
	"article",
	"div[class*=post]",
	"div[class*=article]",
	"div[class*=item]",
	"li[class*=news]",
}

// selectorChain returns the full ordered chain for a profile.
func (p Profile) selectorChain() []string {
	chain := make([]string, 0, len(p.ListingSelectors)+len(fallbackListingSelectors))
	chain = append(chain, p.ListingSelectors...)
	chain = append(chain, fallbackListingSelectors...)
	return chain
}
