package middleware // bearer authentication for protected and optional routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecofinds-marketplace/internal/model"
	"github.com/iliyamo/ecofinds-marketplace/internal/service"
)

// Context keys set by JWTAuth and OptionalAuth.  "user" holds a
// model.UserSummary and "user_id" its uint64 ID.
const (
	UserKey   = "user"
	UserIDKey = "user_id"
)

// JWTAuth resolves the caller behind the Authorization header and stores
// it in the Echo context.  Requests without a valid bearer token for an
// existing user are rejected with 401; storage faults yield 500.
func JWTAuth(identity *service.Identity) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := identity.ResolveCaller(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return rejectCaller(c, err)
			}
			setCaller(c, u)
			return next(c)
		}
	}
}

// OptionalAuth attaches the caller when the header resolves and lets the
// request through anonymously otherwise.
func OptionalAuth(identity *service.Identity) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if u := identity.ResolveCallerOptional(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization)); u != nil {
				setCaller(c, *u)
			}
			return next(c)
		}
	}
}

// Caller returns the user stored by JWTAuth or OptionalAuth.
func Caller(c echo.Context) (model.UserSummary, bool) {
	u, ok := c.Get(UserKey).(model.UserSummary)
	return u, ok
}

func setCaller(c echo.Context, u model.UserSummary) {
	c.Set(UserKey, u)
	c.Set(UserIDKey, u.ID)
}

func rejectCaller(c echo.Context, err error) error {
	status := http.StatusUnauthorized
	kind := service.KindOf(err)
	msg := "Token verification failed"
	var se *service.Error
	if errors.As(err, &se) {
		msg = se.Message
	}
	if kind != service.KindUnauthenticated {
		status = http.StatusInternalServerError
		c.Logger().Errorf("resolve caller: %v", err)
	}
	return c.JSON(status, echo.Map{"error": string(kind), "message": msg})
}
