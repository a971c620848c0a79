// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultLimit is the page size used when the client does not send one.
const DefaultLimit = 20

// MaxLimit caps client-supplied page sizes.
const MaxLimit = 100

// Params is a 1-based page request.
type Params struct {
	Page  int
	Limit int
}

// MaxSkip bounds Skip so skip+limit never overflows on the server.
const MaxSkip int64 = 1 << 53

// Skip returns the number of documents to skip for p. Pages too far out
// saturate at MaxSkip, which matches nothing.
func (p Params) Skip() int64 {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	pages, limit := int64(p.Page-1), int64(p.Limit)
	if pages > MaxSkip/limit {
		return MaxSkip
	}
	return pages * limit
}

// Parse reads "page" and "limit" from q. Missing, non-numeric, zero or
// negative values fall back to the defaults; limit is clamped to MaxLimit.
func Parse(q url.Values) Params {
	return Params{
		Page:  positiveInt(q.Get("page"), 1),
		Limit: clampLimit(positiveInt(q.Get("limit"), DefaultLimit)),
	}
}

// FromRequest is Parse over the request's query string.
func FromRequest(r *http.Request) Params {
	return Params{
		Page:  positiveInt(query.Get(r, "page"), 1),
		Limit: clampLimit(positiveInt(query.Get(r, "limit"), DefaultLimit)),
	}
}

func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func clampLimit(n int) int {
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// Meta is the pagination block returned alongside a page of results.
type Meta struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
	Limit       int   `json:"limit"`
}

// NewMeta computes pagination metadata for p given the total match count.
// A page beyond the end reports HasNext=false and HasPrev=true.
func NewMeta(p Params, total int64) Meta {
	pages := 0
	if total > 0 && p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Meta{
		CurrentPage: p.Page,
		TotalPages:  pages,
		TotalItems:  total,
		HasNext:     p.Page < pages,
		HasPrev:     p.Page > 1,
		Limit:       p.Limit,
	}
}
