package main

import (
	"net/http"
	"testing"
	"time"

	"curate/internal/mailer"
	"curate/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	template string
	toEmail  string
	data     any
}

type fakeMailer struct {
	sent chan sentMail
}

func (m *fakeMailer) Send(templateFile, toName, toEmail string, data any) (int, error) {
	m.sent <- sentMail{template: templateFile, toEmail: toEmail, data: data}
	return 200, nil
}

func TestCreateFeedbackHandler(t *testing.T) {
	ta := newTestApp(t)
	mail := &fakeMailer{sent: make(chan sentMail, 1)}
	ta.app.mailer = mail
	ta.app.config.SMTP.NotifyTo = "inbox@curate.shop"

	ta.feedback.On("Create", mock.Anything, mock.MatchedBy(func(fb *store.Feedback) bool {
		return fb.Name == "Ana" && fb.Email == "ana@example.com" && fb.Rating == 5 &&
			fb.Category != nil && *fb.Category == "Lighting"
	})).Run(func(args mock.Arguments) {
		fb := args.Get(1).(*store.Feedback)
		fb.ID = "f-1"
		fb.Status = store.FeedbackStatusNew
	}).Return(nil).Once()

	rr := ta.do(t, http.MethodPost, "/api/feedback", map[string]any{
		"name":     " Ana ",
		"email":    "ana@example.com",
		"message":  "Love the lamps",
		"rating":   5,
		"category": "Lighting",
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var fb store.Feedback
	decodeData(t, rr, &fb)
	assert.Equal(t, "f-1", fb.ID)
	assert.Equal(t, "new", fb.Status)
	ta.feedback.AssertExpectations(t)

	select {
	case m := <-mail.sent:
		assert.Equal(t, mailer.FeedbackNotificationTemplate, m.template)
		assert.Equal(t, "inbox@curate.shop", m.toEmail)
		assert.Equal(t, "f-1", m.data.(store.Feedback).ID)
	case <-time.After(2 * time.Second):
		t.Fatal("feedback notification was not sent")
	}
}

func TestCreateFeedbackHandler_Validation(t *testing.T) {
	ta := newTestApp(t)

	rr := ta.do(t, http.MethodPost, "/api/feedback", map[string]any{"rating": 7}, "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t,
		"name is required; email is required; message is required; rating must be at most 5",
		decodeResponse(t, rr).Message)

	rr = ta.do(t, http.MethodPost, "/api/feedback", map[string]any{
		"name": "Ana", "email": "not-an-email", "message": "hi", "rating": 3,
	}, "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "email must be a valid email address", decodeResponse(t, rr).Message)

	ta.feedback.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListFeedbackHandler(t *testing.T) {
	ta := newTestApp(t)
	token := ta.token(t)

	ta.feedback.On("List", mock.Anything, store.FeedbackFilter{Status: "new", Search: "lamp", Sort: "newest"}).
		Return([]store.Feedback{{ID: "f-1", Name: "Ana", Rating: 4, Status: "new"}}, nil).Once()

	rr := ta.do(t, http.MethodGet, "/api/feedback?status=new&search=lamp", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var list []store.Feedback
	decodeData(t, rr, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "f-1", list[0].ID)
	ta.feedback.AssertExpectations(t)
}

func TestUpdateFeedbackStatusHandler(t *testing.T) {
	ta := newTestApp(t)
	token := ta.token(t)

	rr := ta.do(t, http.MethodPatch, "/api/feedback/f-1/status", map[string]any{"status": "archived"}, token)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Status must be 'new' or 'reviewed'", decodeResponse(t, rr).Message)

	ta.feedback.On("UpdateStatus", mock.Anything, "f-1", "reviewed").
		Return(&store.Feedback{ID: "f-1", Status: "reviewed"}, nil).Once()
	rr = ta.do(t, http.MethodPatch, "/api/feedback/f-1/status", map[string]any{"status": "reviewed"}, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var fb store.Feedback
	decodeData(t, rr, &fb)
	assert.Equal(t, "reviewed", fb.Status)

	ta.feedback.On("UpdateStatus", mock.Anything, "f-2", "new").Return(nil, store.ErrNotFound).Once()
	rr = ta.do(t, http.MethodPatch, "/api/feedback/f-2/status", map[string]any{"status": "new"}, token)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Feedback not found", decodeResponse(t, rr).Message)

	ta.feedback.AssertExpectations(t)
}

func TestDeleteFeedbackHandler(t *testing.T) {
	ta := newTestApp(t)
	token := ta.token(t)

	ta.feedback.On("Delete", mock.Anything, "f-1").Return(nil).Once()
	ta.feedback.On("Delete", mock.Anything, "f-2").Return(store.ErrNotFound).Once()

	rr := ta.do(t, http.MethodDelete, "/api/feedback/f-1", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decodeResponse(t, rr).Success)

	rr = ta.do(t, http.MethodDelete, "/api/feedback/f-2", nil, token)
	require.Equal(t, http.StatusNotFound, rr.Code)

	ta.feedback.AssertExpectations(t)
}
