package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"curate/internal/domain/catalog"
	"curate/internal/store"
)

const (
	msgAuthRequired  = "Authentication required"
	msgInvalidToken  = "Invalid or expired token"
	msgAdminGone     = "Admin account no longer exists"
	msgInvalidLogin  = "Invalid email or password"
	msgDuplicateItem = "Duplicate entry: a record with this value already exists"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "Internal server error")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

// badRequestMessage answers 400 with a fixed client message.
func (app *application) badRequestMessage(w http.ResponseWriter, r *http.Request, message string) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "message", message)

	writeJSONError(w, http.StatusBadRequest, message)
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, message string) {
	app.logger.Warnw("not found", "method", r.Method, "path", r.URL.Path)

	writeJSONError(w, http.StatusNotFound, message)
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	app.logger.Warnw("conflict", "method", r.Method, "path", r.URL.Path, "message", message)

	writeJSONError(w, http.StatusConflict, message)
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error, message string) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, message)
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfterSeconds(retryAfter))

	writeJSONError(w, http.StatusTooManyRequests, "Too many requests, please try again later.")
}

// catalogErrorResponse maps catalog and store errors onto HTTP responses.
func (app *application) catalogErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var verr *catalog.ValidationError
	switch {
	case errors.As(err, &verr):
		app.badRequestResponse(w, r, verr)
	case errors.Is(err, catalog.ErrImagesRequired):
		app.badRequestMessage(w, r, "Product must have at least one image")
	case errors.Is(err, catalog.ErrNoProductIDs):
		app.badRequestMessage(w, r, "Please provide an array of product IDs")
	case errors.Is(err, catalog.ErrProductNotFound):
		app.notFoundResponse(w, r, "Product not found")
	case errors.Is(err, catalog.ErrCategoryNotFound):
		app.notFoundResponse(w, r, "Category not found")
	case errors.Is(err, catalog.ErrFeaturedProductNotFound):
		app.notFoundResponse(w, r, "Featured product not found")
	case errors.Is(err, catalog.ErrDuplicateCategory):
		app.conflictResponse(w, r, "Category with this name already exists")
	case errors.Is(err, catalog.ErrConflict), errors.Is(err, store.ErrConflict):
		app.conflictResponse(w, r, msgDuplicateItem)
	default:
		app.internalServerError(w, r, err)
	}
}

func retryAfterSeconds(d time.Duration) string {
	secs := int64(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
