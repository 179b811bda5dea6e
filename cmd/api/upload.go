package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"curate/internal/imagestore"
)

const maxUploadSize = 5 << 20 // 5MB

// helper: sniff first 512 bytes and reset reader
func sniffMIME(file multipart.File) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read: %w", err)
	}
	mime := http.DetectContentType(buf[:n])

	// reset so later reads start from byte 0
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek reset: %w", err)
	}
	return mime, nil
}

// UploadImage godoc
//
//	@Summary		Upload an image
//	@Description	Stores one image and returns its url and publicId. Takes a multipart "image" file, or a JSON body {"image": "data:image/...;base64,..."}.
//	@Tags			upload
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file				true	"Image file, 5MB at most"
//	@Param			folder	query		string				false	"Target folder"
//	@Success		201		{object}	imagestore.Uploaded	"Image stored"
//	@Failure		400		{object}	error				"Not an image or too large"
//	@Failure		500		{object}	error				"Image upload failed"
//	@Security		ApiKeyAuth
//	@Router			/upload [post]
func (app *application) uploadImageHandler(w http.ResponseWriter, r *http.Request) {
	folder := strings.TrimSpace(r.URL.Query().Get("folder"))
	if folder == "" {
		folder = imagestore.DefaultFolder
	}

	var (
		file any
		ok   bool
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, cleanup, valid := app.readMultipartImage(w, r)
		if !valid {
			return
		}
		defer cleanup()
		file, ok = f, true
	} else {
		file, ok = app.readDataURIImage(w, r)
	}
	if !ok {
		return
	}

	uploaded, err := app.images.Upload(r.Context(), file, folder)
	if err != nil {
		app.logger.Errorw("image upload failed", "folder", folder, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Image upload failed")
		return
	}

	app.logger.Infow("image uploaded", "public_id", uploaded.PublicID)

	if err := app.jsonResponse(w, http.StatusCreated, uploaded); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) readMultipartImage(w http.ResponseWriter, r *http.Request) (multipart.File, func(), bool) {
	// allow some room for the multipart framing
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			app.badRequestMessage(w, r, "File size too large (max 5MB)")
			return nil, nil, false
		}
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return nil, nil, false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		r.MultipartForm.RemoveAll()
		app.badRequestMessage(w, r, "No image file provided")
		return nil, nil, false
	}
	cleanup := func() {
		file.Close()
		r.MultipartForm.RemoveAll()
	}

	if header.Size > maxUploadSize {
		cleanup()
		app.badRequestMessage(w, r, "File size too large (max 5MB)")
		return nil, nil, false
	}

	// sniff actual MIME from bytes (don't trust Content-Type header)
	mime, err := sniffMIME(file)
	if err != nil {
		cleanup()
		app.badRequestResponse(w, r, fmt.Errorf("sniff mime: %w", err))
		return nil, nil, false
	}
	if !strings.HasPrefix(mime, "image/") {
		cleanup()
		app.badRequestMessage(w, r, "Only image files are allowed")
		return nil, nil, false
	}

	return file, cleanup, true
}

func (app *application) readDataURIImage(w http.ResponseWriter, r *http.Request) (string, bool) {
	var payload struct {
		Image string `json:"image"`
	}
	// base64 inflates by a third
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize*4/3+(1<<10))
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			app.badRequestMessage(w, r, "File size too large (max 5MB)")
			return "", false
		}
		app.badRequestMessage(w, r, "No image file provided")
		return "", false
	}

	image := strings.TrimSpace(payload.Image)
	if image == "" {
		app.badRequestMessage(w, r, "No image file provided")
		return "", false
	}
	if !strings.HasPrefix(image, "data:image/") {
		app.badRequestMessage(w, r, "Only image files are allowed")
		return "", false
	}
	return image, true
}
