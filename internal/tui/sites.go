package tui

import (
	"spacenav/internal/model"

	"github.com/sahilm/fuzzy"
)

type siteSource []model.Site

func (s siteSource) String(i int) string { return s[i].Name }
func (s siteSource) Len() int            { return len(s) }

// filterSites returns the sites matching query (best match first), or all of
// them in their original order for an empty query.
func filterSites(sites []model.Site, query string) []model.Site {
	if query == "" {
		return append([]model.Site(nil), sites...)
	}
	matches := fuzzy.FindFrom(query, siteSource(sites))
	out := make([]model.Site, 0, len(matches))
	for _, m := range matches {
		out = append(out, sites[m.Index])
	}
	return out
}

func siteName(sites []model.Site, id string) string {
	for _, s := range sites {
		if s.ID == id {
			return s.Name
		}
	}
	return id
}
