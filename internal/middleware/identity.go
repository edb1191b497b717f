package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userID returns the authenticated caller's ID as a string for rate-limit
// keys, or "anon" when the request carries no resolved caller.
func userID(c echo.Context) string {
	if id, ok := c.Get(UserIDKey).(uint64); ok && id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
