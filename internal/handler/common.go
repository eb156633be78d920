// Package handler contains the HTTP handlers. Handlers bind requests,
// enforce per-request DB timeouts and translate domain errors to HTTP
// statuses; the access and paging rules themselves live in
// internal/journal.
package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// requesterID extracts the authenticated user's ID from the Echo context
// where JWTAuth stored it. Returns 0 (anonymous) when no valid identity
// is present; the journal access guard treats 0 as "deny".
func requesterID(c echo.Context) uint64 {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t
	case int:
		return uint64(t)
	case int64:
		return uint64(t)
	case float64:
		// JWT numeric claims decode as float64.
		return uint64(t)
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// pathID parses a numeric path parameter; ok is false for anything that
// is not a positive integer.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// boolQuery reads a query flag; only the literal "true" or "1" turns it
// on, anything else is off.
func boolQuery(c echo.Context, name string) bool {
	v := c.QueryParam(name)
	return v == "true" || v == "1"
}
