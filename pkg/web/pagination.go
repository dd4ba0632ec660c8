package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// DefaultPerPage is used when the client doesn't send a per_page parameter.
const DefaultPerPage = 15

// MaxPerPage caps the page size a client may request.
const MaxPerPage = 100

// Page holds parsed pagination query parameters.
type Page struct {
	Number  int
	PerPage int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int32 {
	return int32((p.Number - 1) * p.PerPage)
}

// Limit returns the row limit for the page.
func (p Page) Limit() int32 {
	return int32(p.PerPage)
}

// PageLink is one entry of the pagination link strip.
type PageLink struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

// Paginated is the list envelope every collection endpoint responds with.
type Paginated[T any] struct {
	Data        []T        `json:"data"`
	CurrentPage int        `json:"current_page"`
	LastPage    int        `json:"last_page"`
	PerPage     int        `json:"per_page"`
	Total       int64      `json:"total"`
	Links       []PageLink `json:"links"`
}

// ParsePage reads page/per_page query parameters, falling back to page 1 and
// DefaultPerPage. Non-numeric or out-of-range values are a 400.
func ParsePage(r *http.Request, w http.ResponseWriter, logger *slog.Logger) (Page, bool) {
	page := Page{Number: 1, PerPage: DefaultPerPage}

	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid page number: %s", raw))
			return Page{}, false
		}
		page.Number = n
	}
	if raw := r.URL.Query().Get("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxPerPage {
			RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid per_page value: %s", raw))
			return Page{}, false
		}
		page.PerPage = n
	}
	return page, true
}

// NewPaginated assembles the envelope, including the prev/numbered/next link
// strip relative to basePath.
func NewPaginated[T any](data []T, page Page, total int64, basePath string) Paginated[T] {
	lastPage := int((total + int64(page.PerPage) - 1) / int64(page.PerPage))
	if lastPage < 1 {
		lastPage = 1
	}

	pageURL := func(n int) *string {
		if n < 1 || n > lastPage {
			return nil
		}
		u := fmt.Sprintf("%s?page=%d&per_page=%d", basePath, n, page.PerPage)
		return &u
	}

	links := make([]PageLink, 0, lastPage+2)
	links = append(links, PageLink{URL: pageURL(page.Number - 1), Label: "&laquo; Previous"})
	for n := 1; n <= lastPage; n++ {
		links = append(links, PageLink{URL: pageURL(n), Label: strconv.Itoa(n), Active: n == page.Number})
	}
	links = append(links, PageLink{URL: pageURL(page.Number + 1), Label: "Next &raquo;"})

	if data == nil {
		data = []T{}
	}
	return Paginated[T]{
		Data:        data,
		CurrentPage: page.Number,
		LastPage:    lastPage,
		PerPage:     page.PerPage,
		Total:       total,
		Links:       links,
	}
}
