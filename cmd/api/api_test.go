package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"curate/internal/auth"
	"curate/internal/domain/catalog"
	"curate/internal/domain/catalog/catalogtest"
	"curate/internal/imagestore"
	"curate/internal/ratelimiter"
	"curate/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAdminID = "admin-1"

// MockAdminStore is a mock implementation of the store.Storage Admins interface.
type MockAdminStore struct {
	mock.Mock
}

func (m *MockAdminStore) GetByEmail(ctx context.Context, email string) (*store.Admin, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Admin), args.Error(1)
}

func (m *MockAdminStore) GetByID(ctx context.Context, id string) (*store.Admin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Admin), args.Error(1)
}

func (m *MockAdminStore) Create(ctx context.Context, admin *store.Admin) error {
	return m.Called(ctx, admin).Error(0)
}

func (m *MockAdminStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockFeedbackStore is a mock implementation of the store.Storage Feedback interface.
type MockFeedbackStore struct {
	mock.Mock
}

func (m *MockFeedbackStore) Create(ctx context.Context, fb *store.Feedback) error {
	return m.Called(ctx, fb).Error(0)
}

func (m *MockFeedbackStore) List(ctx context.Context, f store.FeedbackFilter) ([]store.Feedback, error) {
	args := m.Called(ctx, f)
	var list []store.Feedback
	if arg0 := args.Get(0); arg0 != nil {
		list = arg0.([]store.Feedback)
	}
	return list, args.Error(1)
}

func (m *MockFeedbackStore) UpdateStatus(ctx context.Context, id, status string) (*store.Feedback, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Feedback), args.Error(1)
}

func (m *MockFeedbackStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockFeedbackStore) Stats(ctx context.Context) (store.FeedbackStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(store.FeedbackStats), args.Error(1)
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, file any, folder string) (imagestore.Uploaded, error) {
	args := m.Called(ctx, file, folder)
	return args.Get(0).(imagestore.Uploaded), args.Error(1)
}

type testApp struct {
	app      *application
	catalog  *catalogtest.MemStore
	images   *catalogtest.ImageStore
	admins   *MockAdminStore
	feedback *MockFeedbackStore
	uploader *MockUploader
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := zap.NewNop().Sugar()
	mem := catalogtest.NewMemStore()
	images := &catalogtest.ImageStore{}
	ta := &testApp{
		catalog:  mem,
		images:   images,
		admins:   new(MockAdminStore),
		feedback: new(MockFeedbackStore),
		uploader: new(MockUploader),
	}

	cfg := config{
		Env:         "test",
		CORSOrigins: []string{"*"},
		Timeout:     5 * time.Second,
	}
	cfg.Auth.Basic = basicConfig{User: "ops", Pass: "secret"}

	ta.app = &application{
		config:        cfg,
		logger:        logger,
		store:         store.Storage{Admins: ta.admins, Feedback: ta.feedback},
		catalog:       catalog.NewService(mem, images, logger),
		images:        ta.uploader,
		authenticator: auth.NewJWTAuthenticator("test-secret", "curate", "curate", time.Hour),
		rateLimiter:   ratelimiter.NewFixedWindowLimiter(1000, time.Minute),
	}
	return ta
}

// token returns a bearer token for an admin the mocked store knows about.
func (ta *testApp) token(t *testing.T) string {
	t.Helper()
	ta.admins.On("GetByID", mock.Anything, testAdminID).
		Return(&store.Admin{ID: testAdminID, Email: "owner@curate.shop"}, nil).Maybe()

	token, err := ta.app.authenticator.GenerateToken(testAdminID)
	require.NoError(t, err)
	return token
}

func (ta *testApp) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ta.serve(req)
}

func (ta *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	ta.app.mount().ServeHTTP(rr, req)
	return rr
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Meta    json.RawMessage `json:"meta"`
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	resp := decodeResponse(t, rr)
	require.True(t, resp.Success, rr.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func PtrTo[T any](v T) *T {
	return &v
}

func TestHealthCheck(t *testing.T) {
	ta := newTestApp(t)

	rr := ta.do(t, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decodeResponse(t, rr)
	assert.True(t, resp.Success)
	assert.Equal(t, "Server is running", resp.Message)
}

func TestUnknownRoute(t *testing.T) {
	ta := newTestApp(t)

	rr := ta.do(t, http.MethodGet, "/api/nope", nil, "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, decodeResponse(t, rr).Success)
}

func TestSwaggerDoc(t *testing.T) {
	ta := newTestApp(t)

	rr := ta.do(t, http.MethodGet, "/api/swagger/doc.json", nil, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	assert.Equal(t, "Curate API", doc.Info.Title)
	assert.Equal(t, "/api", doc.BasePath)
	assert.Contains(t, doc.Paths["/products"], "post")
	assert.Contains(t, doc.Paths["/products/{id}"], "put")
	assert.Contains(t, doc.Paths["/categories/{id}"], "delete")
	assert.Contains(t, doc.Paths["/feedback/{id}/status"], "patch")
}

func TestAuthTokenMiddleware(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		ta := newTestApp(t)
		rr := ta.do(t, http.MethodGet, "/api/auth/me", nil, "")
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Authentication required", decodeResponse(t, rr).Message)
	})

	t.Run("malformed header", func(t *testing.T) {
		ta := newTestApp(t)
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Token abc")
		rr := ta.serve(req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Authentication required", decodeResponse(t, rr).Message)
	})

	t.Run("invalid token", func(t *testing.T) {
		ta := newTestApp(t)
		rr := ta.do(t, http.MethodGet, "/api/auth/me", nil, "not-a-jwt")
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid or expired token", decodeResponse(t, rr).Message)
	})

	t.Run("token from another secret", func(t *testing.T) {
		ta := newTestApp(t)
		other := auth.NewJWTAuthenticator("other-secret", "curate", "curate", time.Hour)
		token, err := other.GenerateToken(testAdminID)
		require.NoError(t, err)

		rr := ta.do(t, http.MethodGet, "/api/auth/me", nil, token)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid or expired token", decodeResponse(t, rr).Message)
	})

	t.Run("admin deleted", func(t *testing.T) {
		ta := newTestApp(t)
		ta.admins.On("GetByID", mock.Anything, "gone").Return(nil, store.ErrNotFound).Once()
		token, err := ta.app.authenticator.GenerateToken("gone")
		require.NoError(t, err)

		rr := ta.do(t, http.MethodGet, "/api/auth/me", nil, token)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Admin account no longer exists", decodeResponse(t, rr).Message)
		ta.admins.AssertExpectations(t)
	})

	t.Run("protects admin routes", func(t *testing.T) {
		ta := newTestApp(t)
		for _, tc := range []struct{ method, path string }{
			{http.MethodPost, "/api/products"},
			{http.MethodPut, "/api/products/p1"},
			{http.MethodDelete, "/api/products/bulk"},
			{http.MethodDelete, "/api/products/p1"},
			{http.MethodPost, "/api/categories"},
			{http.MethodPut, "/api/categories/c1"},
			{http.MethodDelete, "/api/categories/c1"},
			{http.MethodGet, "/api/feedback"},
			{http.MethodPatch, "/api/feedback/f1/status"},
			{http.MethodDelete, "/api/feedback/f1"},
			{http.MethodPost, "/api/upload"},
			{http.MethodGet, "/api/analytics"},
			{http.MethodPost, "/api/import/parse"},
		} {
			rr := ta.do(t, tc.method, tc.path, nil, "")
			assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", tc.method, tc.path)
		}
	})
}

func TestBasicAuthMiddleware(t *testing.T) {
	ta := newTestApp(t)

	rr := ta.do(t, http.MethodGet, "/api/debug/vars", nil, "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/api/debug/vars", nil)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("ops:wrong")))
	rr = ta.serve(req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/debug/vars", nil)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("ops:secret")))
	rr = ta.serve(req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiterMiddleware(t *testing.T) {
	ta := newTestApp(t)
	ta.app.config.RateLimiter.Enabled = true
	ta.app.rateLimiter = ratelimiter.NewFixedWindowLimiter(2, time.Minute)

	for i := 0; i < 2; i++ {
		rr := ta.do(t, http.MethodGet, "/api/health", nil, "")
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := ta.do(t, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.False(t, decodeResponse(t, rr).Success)
}

func TestReadJSONErrors(t *testing.T) {
	ta := newTestApp(t)
	token := ta.token(t)

	rr := ta.do(t, http.MethodPost, "/api/categories", "{", token)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ta.do(t, http.MethodPost, "/api/categories", `{"name": 12}`, token)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "name has the wrong type", decodeResponse(t, rr).Message)

	rr = ta.do(t, http.MethodPost, "/api/categories", nil, token)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "request body must not be empty", decodeResponse(t, rr).Message)
}
