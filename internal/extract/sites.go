package extract

import "sync"

var (
	registryMu sync.RWMutex
	registry   = map[string]Profile{}
)

func init() {
	for _, p := range builtinProfiles {
		registry[p.Name] = p
	}
}

// Register adds or replaces a site profile. Profiles loaded from
// configuration override built-ins of the same name.
func Register(p Profile) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[p.Name] = p
}

// Lookup resolves a site profile by name.
func Lookup(name string) (Profile, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[name]
	return p, ok
}

// Names lists registered profile names.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// builtinProfiles ships a generic profile that leans on the fallback
// selector chain, plus a shape typical of WordPress-derived news sites.
// Site-specific profiles normally come from configuration.
var builtinProfiles = []Profile{
	{
		Name:          "generic",
		ReadySelector: "article, div[class*=post], div[class*=item]",
		Title:         Field{Selector: "h1 a, h2 a, h3 a, h1, h2, h3"},
		Link:          Field{Selector: "a[href]", Attr: "href"},
		Summary:       Field{Selector: "p"},
		Date:          Field{Selector: "time"},
		Image:         Field{Selector: "img", Attr: "src"},
		DetailContent: "article, div[class*=content], div[class*=body]",
		DetailRemove: []string{
			"div[class*=share]", "div[class*=related]", "div[class*=ad-]",
			"div[class*=advert]", "aside",
		},
	},
	{
		Name:             "wordpress",
		ReadySelector:    ".post",
		ListingSelectors: []string{"article.post", ".post"},
		Title:            Field{Selector: ".entry-title a, .entry-title"},
		Link:             Field{Selector: ".entry-title a, a[href]", Attr: "href"},
		Summary:          Field{Selector: ".entry-summary, .entry-content p"},
		Date:             Field{Selector: "time.entry-date"},
		Category:         Field{Selector: ".cat-links a"},
		Image:            Field{Selector: "img.wp-post-image, img", Attr: "src"},
		DetailContent:    ".entry-content",
		DetailRemove: []string{
			".sharedaddy", ".jp-relatedposts", ".wp-block-ad",
			"div[class*=share]", "div[class*=related]",
		},
		DetailRemoveLinkSubstrings: []string{"utm_", "feedburner", "/out?"},
		DetailDate:                 Field{Selector: "time.entry-date"},
		DetailAuthor:               Field{Selector: ".author a, .byline a"},
		DetailCategory:             Field{Selector: ".cat-links a"},
	},
}
