package common

import (
	"net/url"
	"strconv"
	"strings"
)

// Page holds normalised pagination parameters.
type Page struct {
	Number int
	Limit  int
	Offset int
}

// ParsePage reads page/limit query values, clamping to sane bounds.
func ParsePage(values url.Values, defaultLimit, maxLimit int) Page {
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	number := 1
	if v := strings.TrimSpace(values.Get("page")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			number = parsed
		}
	}
	limit := defaultLimit
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Page{Number: number, Limit: limit, Offset: (number - 1) * limit}
}
