package common

import (
	"net/http"
	"strconv"
)

// Pagination limits. A request may ask for fewer items, never more.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageParams represents cursor pagination parameters
type PageParams struct {
	Cursor     string `json:"cursor,omitempty"`
	Limit      int    `json:"limit"`
	Descending bool   `json:"descending,omitempty"`
}

// DefaultPageParams returns default pagination parameters
func DefaultPageParams() PageParams {
	return PageParams{Limit: DefaultPageLimit}
}

// ExtractPageParams extracts cursor pagination parameters from request
func ExtractPageParams(r *http.Request) PageParams {
	params := DefaultPageParams()

	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		params.Cursor = cursor
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			if n > MaxPageLimit {
				n = MaxPageLimit
			}
			params.Limit = n
		}
	}

	if order := r.URL.Query().Get("order"); order == "desc" {
		params.Descending = true
	}

	return params
}
