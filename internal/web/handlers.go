package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/poi-importer/internal/core"
	"github.com/JonMunkholm/poi-importer/internal/web/templates"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

var errBadQuery = errors.New("invalid query parameter")

// FormatInfo describes one importable format.
type FormatInfo struct {
	Extension string      `json:"extension"`
	Format    core.Format `json:"format"`
	Label     string      `json:"label"`
}

// POIListResponse is the body of GET /api/pois.
type POIListResponse struct {
	Items  []core.StoredPOI `json:"items"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// handleIndex renders the POI list page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	page, err := s.browser.ListPOIs(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	data := templates.ListData{
		Page:    page,
		Filter:  filter,
		Formats: registeredFormats(),
	}
	if filter.Offset > 0 {
		data.PrevLink = templates.PageLink(filter, max(filter.Offset-filter.Limit, 0))
	}
	if next := filter.Offset + filter.Limit; int64(next) < page.Total {
		data.NextLink = templates.PageLink(filter, next)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, r, templates.POIList(data))
}

// handleListPOIs returns one page of records as JSON.
func (s *Server) handleListPOIs(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	page, err := s.browser.ListPOIs(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	items := page.Items
	if items == nil {
		items = []core.StoredPOI{}
	}
	writeJSON(w, r, POIListResponse{
		Items:  items,
		Total:  page.Total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// handleListFormats returns the registered import formats.
func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	defs := registeredFormats()
	out := make([]FormatInfo, len(defs))
	for i, def := range defs {
		out[i] = FormatInfo{Extension: def.Extension, Format: def.Format, Label: def.Label}
	}
	writeJSON(w, r, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

// parseFilter reads category, search, limit and offset from the query string.
func parseFilter(r *http.Request) (core.POIFilter, error) {
	q := r.URL.Query()
	f := core.POIFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
		Limit:    defaultPageSize,
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return core.POIFilter{}, fmt.Errorf("%w: limit=%q", errBadQuery, v)
		}
		f.Limit = min(n, maxPageSize)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return core.POIFilter{}, fmt.Errorf("%w: offset=%q", errBadQuery, v)
		}
		f.Offset = n
	}
	return f, nil
}

// registeredFormats returns the definitions of all registered extensions, sorted.
func registeredFormats() []core.FormatDefinition {
	exts := core.Extensions()
	defs := make([]core.FormatDefinition, 0, len(exts))
	for _, ext := range exts {
		if def, err := core.Lookup(ext); err == nil {
			defs = append(defs, def)
		}
	}
	return defs
}
