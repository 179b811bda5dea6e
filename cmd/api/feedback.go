package main

import (
	"errors"
	"net/http"
	"strings"

	"curate/internal/store"

	"github.com/go-chi/chi/v5"
)

type CreateFeedbackPayload struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Message  string  `json:"message" validate:"required,max=2000"`
	Rating   int     `json:"rating" validate:"required,min=1,max=5"`
	Category *string `json:"category"`
}

type UpdateFeedbackStatusPayload struct {
	Status string `json:"status"`
}

// CreateFeedback godoc
//
//	@Summary		Submit feedback
//	@Description	Public submission endpoint. The admin is notified by email when SMTP is configured.
//	@Tags			feedback
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateFeedbackPayload	true	"Feedback"
//	@Success		201		{object}	store.Feedback			"Feedback saved"
//	@Failure		400		{object}	error					"Validation failed"
//	@Router			/feedback [post]
func (app *application) createFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateFeedbackPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	payload.Name = strings.TrimSpace(payload.Name)
	payload.Email = strings.TrimSpace(payload.Email)
	payload.Message = strings.TrimSpace(payload.Message)

	if err := validatePayload(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	fb := &store.Feedback{
		Name:    payload.Name,
		Email:   payload.Email,
		Message: payload.Message,
		Rating:  payload.Rating,
	}
	if payload.Category != nil && strings.TrimSpace(*payload.Category) != "" {
		category := strings.TrimSpace(*payload.Category)
		fb.Category = &category
	}

	if err := app.store.Feedback.Create(r.Context(), fb); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.notifyFeedback(*fb)

	if err := app.jsonResponse(w, http.StatusCreated, fb); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ListFeedback godoc
//
//	@Summary		List feedback
//	@Tags			feedback
//	@Produce		json
//	@Param			status	query		string				false	"new, reviewed or all"
//	@Param			search	query		string				false	"Match in name, email or message"
//	@Param			sort	query		string				false	"newest, oldest, rating-high or rating-low"
//	@Success		200		{object}	[]store.Feedback	"Feedback entries"
//	@Failure		401		{object}	error				"Unauthorized"
//	@Security		ApiKeyAuth
//	@Router			/feedback [get]
func (app *application) listFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sort := q.Get("sort")
	if sort == "" {
		sort = "newest"
	}

	list, err := app.store.Feedback.List(r.Context(), store.FeedbackFilter{
		Status: q.Get("status"),
		Search: q.Get("search"),
		Sort:   sort,
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// UpdateFeedbackStatus godoc
//
//	@Summary		Mark feedback new or reviewed
//	@Tags			feedback
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Feedback id"
//	@Param			payload	body		UpdateFeedbackStatusPayload	true	"New status"
//	@Success		200		{object}	store.Feedback				"Feedback updated"
//	@Failure		400		{object}	error						"Invalid status"
//	@Failure		404		{object}	error						"Feedback not found"
//	@Security		ApiKeyAuth
//	@Router			/feedback/{id}/status [patch]
func (app *application) updateFeedbackStatusHandler(w http.ResponseWriter, r *http.Request) {
	var payload UpdateFeedbackStatusPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if !store.ValidFeedbackStatus(payload.Status) {
		app.badRequestMessage(w, r, "Status must be 'new' or 'reviewed'")
		return
	}

	fb, err := app.store.Feedback.UpdateStatus(r.Context(), chi.URLParam(r, "id"), payload.Status)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, "Feedback not found")
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, fb); err != nil {
		app.internalServerError(w, r, err)
	}
}

// DeleteFeedback godoc
//
//	@Summary		Delete feedback
//	@Tags			feedback
//	@Produce		json
//	@Param			id	path		string				true	"Feedback id"
//	@Success		200	{object}	map[string]any		"Feedback deleted"
//	@Failure		404	{object}	error				"Feedback not found"
//	@Security		ApiKeyAuth
//	@Router			/feedback/{id} [delete]
func (app *application) deleteFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.store.Feedback.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, "Feedback not found")
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, nil); err != nil {
		app.internalServerError(w, r, err)
	}
}
