package main

import (
	"errors"
	"net/http"
	"strings"

	"curate/internal/store"
)

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type LoginResponse struct {
	Token string    `json:"token"`
	Admin adminView `json:"admin"`
}

// Login godoc
//
//	@Summary		Log in as an admin
//	@Description	Exchanges admin credentials for a bearer token. Unknown emails and wrong passwords get the same answer.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		LoginPayload	true	"Admin credentials"
//	@Success		200		{object}	LoginResponse	"Token issued"
//	@Failure		400		{object}	error			"Email and password are required"
//	@Failure		401		{object}	error			"Invalid credentials"
//	@Router			/auth/login [post]
func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		app.badRequestMessage(w, r, "Email and password are required")
		return
	}

	admin, err := app.store.Admins.GetByEmail(r.Context(), payload.Email)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.unauthorizedErrorResponse(w, r, err, msgInvalidLogin)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := admin.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, err, msgInvalidLogin)
		return
	}

	token, err := app.authenticator.GenerateToken(admin.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("admin logged in", "admin_id", admin.ID)

	resp := LoginResponse{
		Token: token,
		Admin: adminView{ID: admin.ID, Email: admin.Email},
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// Me godoc
//
//	@Summary		Current admin
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	adminView	"Authenticated admin"
//	@Failure		401	{object}	error		"Unauthorized"
//	@Security		ApiKeyAuth
//	@Router			/auth/me [get]
func (app *application) meHandler(w http.ResponseWriter, r *http.Request) {
	admin := getAdminFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, adminView{ID: admin.ID, Email: admin.Email}); err != nil {
		app.internalServerError(w, r, err)
	}
}
