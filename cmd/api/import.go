package main

import (
	"errors"
	"net/http"

	"curate/internal/importer"
)

// ParseImport godoc
//
//	@Summary		Normalize pasted content JSON
//	@Description	Normalizes generated pins and/or a product draft so the admin UI can prefill its forms. Nothing is saved.
//	@Tags			import
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	importer.Content	"Normalized content"
//	@Failure		400	{object}	error				"JSON must contain pins or a product"
//	@Security		ApiKeyAuth
//	@Router			/import/parse [post]
func (app *application) parseImportHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_578)

	content, err := importer.Parse(r.Body)
	if err != nil {
		if errors.Is(err, importer.ErrEmpty) {
			app.badRequestMessage(w, r, "JSON must contain pins or a product")
			return
		}
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, content); err != nil {
		app.internalServerError(w, r, err)
	}
}
