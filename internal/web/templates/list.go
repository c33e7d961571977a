// Package templates holds the templ components for the browse pages.
//
// Edit the .templ files and regenerate with `templ generate`.
package templates

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/poi-importer/internal/core"
)

// ListData is everything the POI list page shows.
type ListData struct {
	Page     core.POIPage
	Filter   core.POIFilter
	Formats  []core.FormatDefinition
	PrevLink string // Empty on the first page
	NextLink string // Empty on the last page
}

// PageLink builds a list URL for filter with the given offset.
func PageLink(f core.POIFilter, offset int) string {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// formatPoint renders a location as WKT.
func formatPoint(p core.Point) string {
	return fmt.Sprintf("POINT(%s %s)",
		strconv.FormatFloat(p.Longitude, 'f', -1, 64),
		strconv.FormatFloat(p.Latitude, 'f', -1, 64))
}
