package common

import (
	"net/http"
	"strconv"
)

// DefaultPageSize matches what the web client expects when it omits pageSize.
const DefaultPageSize = 3

// MaxPageSize caps client supplied page sizes.
const MaxPageSize = 100

// PageRequest is a cursor based page request.
type PageRequest struct {
	PageSize int
	Cursor   string
}

// Page is one page of results plus the cursor for the next one. An empty
// cursor means there are no more pages.
type Page[T any] struct {
	Items  []T    `json:"items"`
	Cursor string `json:"lastEvaluatedKey,omitempty"`
}

// ExtractPageRequest reads pageSize and lastEvaluatedKey from the query string.
func ExtractPageRequest(r *http.Request, defaultSize int) PageRequest {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	req := PageRequest{PageSize: defaultSize}

	if ps := r.URL.Query().Get("pageSize"); ps != "" {
		if n, err := strconv.Atoi(ps); err == nil && n > 0 {
			if n > MaxPageSize {
				n = MaxPageSize
			}
			req.PageSize = n
		}
	}
	req.Cursor = r.URL.Query().Get("lastEvaluatedKey")
	return req
}
