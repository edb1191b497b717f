package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ecofinds-marketplace/internal/middleware"
	"github.com/iliyamo/ecofinds-marketplace/internal/model"
	"github.com/iliyamo/ecofinds-marketplace/internal/service"
)

// Options are shared by every handler.  Timeout bounds the storage work a
// single request may do.
type Options struct {
	Log     logrus.FieldLogger
	Timeout time.Duration
}

type base struct{ Options }

func newBase(opts Options) base {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Log = l
	}
	return base{opts}
}

func (b base) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), b.Timeout)
}

// StatusFor maps an error kind to its HTTP status.  Duplicates are 400,
// matching the rest of the validation failures.
func StatusFor(kind service.Kind) int {
	switch kind {
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindInvalidArgument, service.KindConflict, service.KindInvalidOperation, service.KindEmptyCart:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail renders err as {"error": kind, "message": text}.  Internal errors
// are logged with their cause; the cause never reaches the client.
func (b base) fail(c echo.Context, err error) error {
	var se *service.Error
	if !errors.As(err, &se) {
		se = &service.Error{Kind: service.KindInternal, Message: "Internal server error", Err: err}
	}
	if se.Kind == service.KindInternal {
		b.Log.WithError(se.Err).WithFields(logrus.Fields{
			"route":      c.Path(),
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		}).Error(se.Message)
	}
	return c.JSON(StatusFor(se.Kind), echo.Map{"error": string(se.Kind), "message": se.Message})
}

func badRequest(msg string) error {
	return &service.Error{Kind: service.KindInvalidArgument, Message: msg}
}

// caller returns the authenticated user placed in the context by JWTAuth.
func caller(c echo.Context) (model.UserSummary, error) {
	u, ok := middleware.Caller(c)
	if !ok {
		return model.UserSummary{}, &service.Error{Kind: service.KindUnauthenticated, Message: "Access token required"}
	}
	return u, nil
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name, label string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("Invalid " + label)
	}
	return id, nil
}

// queryID parses an optional positive integer query parameter.
func queryID(c echo.Context, name string) (*uint64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, badRequest("Invalid " + name)
	}
	return &id, nil
}

// page reads ?page and ?limit, falling back to 1 and def.  Limits above
// max are clamped.
func page(c echo.Context, def, max int) (int, int) {
	p, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || p < 1 {
		p = 1
	}
	l, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || l < 1 {
		l = def
	}
	if l > max {
		l = max
	}
	return p, l
}
