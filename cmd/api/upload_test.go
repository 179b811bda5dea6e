package main

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"curate/internal/imagestore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func multipartRequest(t *testing.T, path, field, filename string, content []byte, token string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploadImageHandler_Multipart(t *testing.T) {
	ta := newTestApp(t)
	token := ta.token(t)

	ta.uploader.On("Upload", mock.Anything, mock.Anything, "rooms").
		Return(imagestore.Uploaded{URL: "https://res.cloudinary.com/demo/image/upload/v1/rooms/x.png", PublicID: "rooms/x"}, nil).Once()

	rr := ta.serve(multipartRequest(t, "/api/upload?folder=rooms", "image", "x.png", pngHeader, token))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var up imagestore.Uploaded
	decodeData(t, rr, &up)
	assert.Equal(t, "rooms/x", up.PublicID)
	ta.uploader.AssertExpectations(t)
}

func TestUploadImageHandler_Rejects(t *testing.T) {
	ta := newTestApp(t)
	token := ta.token(t)

	t.Run("not an image", func(t *testing.T) {
		rr := ta.serve(multipartRequest(t, "/api/upload", "image", "notes.txt", []byte("just some text"), token))
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Only image files are allowed", decodeResponse(t, rr).Message)
	})

	t.Run("missing file field", func(t *testing.T) {
		rr := ta.serve(multipartRequest(t, "/api/upload", "photo", "x.png", pngHeader, token))
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "No image file provided", decodeResponse(t, rr).Message)
	})

	t.Run("too large", func(t *testing.T) {
		big := append(append([]byte{}, pngHeader...), make([]byte, maxUploadSize+1)...)
		rr := ta.serve(multipartRequest(t, "/api/upload", "image", "big.png", big, token))
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "File size too large (max 5MB)", decodeResponse(t, rr).Message)
	})

	t.Run("data uri that is not an image", func(t *testing.T) {
		rr := ta.do(t, http.MethodPost, "/api/upload", map[string]string{"image": "data:text/plain;base64,aGk="}, token)
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Only image files are allowed", decodeResponse(t, rr).Message)
	})

	ta.uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadImageHandler_DataURI(t *testing.T) {
	ta := newTestApp(t)
	token := ta.token(t)

	const uri = "data:image/png;base64,iVBORw0KGgo="
	ta.uploader.On("Upload", mock.Anything, uri, imagestore.DefaultFolder).
		Return(imagestore.Uploaded{URL: "https://img.example/y.png", PublicID: "curate/y"}, nil).Once()

	rr := ta.do(t, http.MethodPost, "/api/upload", map[string]string{"image": uri}, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var up imagestore.Uploaded
	decodeData(t, rr, &up)
	assert.Equal(t, "curate/y", up.PublicID)
	ta.uploader.AssertExpectations(t)
}

func TestUploadImageHandler_UploadFails(t *testing.T) {
	ta := newTestApp(t)
	token := ta.token(t)

	ta.uploader.On("Upload", mock.Anything, mock.Anything, imagestore.DefaultFolder).
		Return(imagestore.Uploaded{}, errors.New("cloudinary down")).Once()

	rr := ta.serve(multipartRequest(t, "/api/upload", "image", "x.png", pngHeader, token))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Image upload failed", decodeResponse(t, rr).Message)
}
