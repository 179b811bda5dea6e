package main

import (
	"net/http"

	"curate/internal/domain/catalog"

	"github.com/go-chi/chi/v5"
)

// CategoryPayload is shared by create and update. An absent productIds
// leaves the explicit list as it is; featuredProductId null clears it.
type CategoryPayload struct {
	Name              string                 `json:"name" validate:"required,max=100"`
	ImageUploadURL    string                 `json:"imageUploadUrl"`
	FeaturedProductID catalog.OptionalString `json:"featuredProductId"`
	ProductIDs        []string               `json:"productIds"`
}

func (p CategoryPayload) input() catalog.CategoryInput {
	return catalog.CategoryInput{
		Name:              p.Name,
		ImageUploadURL:    p.ImageUploadURL,
		FeaturedProductID: p.FeaturedProductID,
		ProductIDs:        p.ProductIDs,
	}
}

// ListCategories godoc
//
//	@Summary		List categories
//	@Description	Returns every category with its live product count, sorted by name.
//	@Tags			categories
//	@Produce		json
//	@Success		200	{object}	[]catalog.CategoryWithCounts	"Categories"
//	@Failure		500	{object}	error					"Internal server error"
//	@Router			/categories [get]
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.catalog.ListCategories(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// CreateCategory godoc
//
//	@Summary		Create a category
//	@Tags			categories
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CategoryPayload			true	"Category"
//	@Success		201		{object}	catalog.Category		"Category created"
//	@Failure		400		{object}	error					"Validation failed or duplicate name"
//	@Security		ApiKeyAuth
//	@Router			/categories [post]
func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var payload CategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := validatePayload(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.catalog.CreateCategory(r.Context(), payload.input())
	if err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}

	app.logger.Infow("category created", "category_id", c.ID, "name", c.Name, "products", len(c.ProductIDs))

	if err := app.jsonResponse(w, http.StatusCreated, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

// UpdateCategory godoc
//
//	@Summary		Update a category
//	@Description	Renaming a category renames it on every product that carries it.
//	@Tags			categories
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Category id"
//	@Param			payload	body		CategoryPayload			true	"Category"
//	@Success		200		{object}	catalog.Category		"Category updated"
//	@Failure		400		{object}	error					"Validation failed or duplicate name"
//	@Failure		404		{object}	error					"Category not found"
//	@Security		ApiKeyAuth
//	@Router			/categories/{id} [put]
func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var payload CategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := validatePayload(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.catalog.UpdateCategory(r.Context(), chi.URLParam(r, "id"), payload.input())
	if err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

// DeleteCategory godoc
//
//	@Summary		Delete a category
//	@Description	Also removes the category name from every product.
//	@Tags			categories
//	@Produce		json
//	@Param			id	path		string			true	"Category id"
//	@Success		200	{object}	map[string]any	"Category deleted"
//	@Failure		404	{object}	error				"Category not found"
//	@Security		ApiKeyAuth
//	@Router			/categories/{id} [delete]
func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := app.catalog.DeleteCategory(r.Context(), id); err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}

	app.logger.Infow("category deleted", "category_id", id)

	if err := app.jsonResponse(w, http.StatusOK, nil); err != nil {
		app.internalServerError(w, r, err)
	}
}
