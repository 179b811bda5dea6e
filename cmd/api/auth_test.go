package main

import (
	"net/http"
	"testing"

	"curate/internal/auth"
	"curate/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLoginHandler(t *testing.T) {
	ta := newTestApp(t)

	admin := &store.Admin{ID: testAdminID, Email: "owner@curate.shop"}
	require.NoError(t, admin.Password.Set("s3cret-pass"))

	ta.admins.On("GetByEmail", mock.Anything, "owner@curate.shop").Return(admin, nil)
	ta.admins.On("GetByEmail", mock.Anything, "nobody@curate.shop").Return(nil, store.ErrNotFound)

	t.Run("valid credentials", func(t *testing.T) {
		rr := ta.do(t, http.MethodPost, "/api/auth/login", LoginPayload{
			Email:    "owner@curate.shop",
			Password: "s3cret-pass",
		}, "")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var resp LoginResponse
		decodeData(t, rr, &resp)
		assert.Equal(t, testAdminID, resp.Admin.ID)
		assert.Equal(t, "owner@curate.shop", resp.Admin.Email)

		tok, err := ta.app.authenticator.ValidateToken(resp.Token)
		require.NoError(t, err)
		sub, err := auth.Subject(tok)
		require.NoError(t, err)
		assert.Equal(t, testAdminID, sub)
	})

	t.Run("missing fields", func(t *testing.T) {
		rr := ta.do(t, http.MethodPost, "/api/auth/login", LoginPayload{Email: "owner@curate.shop"}, "")
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Email and password are required", decodeResponse(t, rr).Message)
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := ta.do(t, http.MethodPost, "/api/auth/login", LoginPayload{
			Email:    "owner@curate.shop",
			Password: "guess",
		}, "")
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid email or password", decodeResponse(t, rr).Message)
	})

	t.Run("unknown email", func(t *testing.T) {
		rr := ta.do(t, http.MethodPost, "/api/auth/login", LoginPayload{
			Email:    "nobody@curate.shop",
			Password: "s3cret-pass",
		}, "")
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid email or password", decodeResponse(t, rr).Message)
	})
}

func TestMeHandler(t *testing.T) {
	ta := newTestApp(t)
	token := ta.token(t)

	rr := ta.do(t, http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var me adminView
	decodeData(t, rr, &me)
	assert.Equal(t, adminView{ID: testAdminID, Email: "owner@curate.shop"}, me)
}
