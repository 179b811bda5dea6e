package main

import (
	"net/http"
	"strings"

	"curate/internal/domain/catalog"
	"curate/internal/imagestore"
	"curate/internal/params"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type CreateProductPayload struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Price         *float64        `json:"price" validate:"required,gte=0"`
	Category      []string        `json:"category" validate:"required"`
	Images        []catalog.Image `json:"images"`
	Image         string          `json:"image"`
	Description   string          `json:"description" validate:"required,max=2000"`
	Features      []string        `json:"features"`
	InStock       *bool           `json:"inStock"`
	Rating        float64         `json:"rating"`
	Reviews       int             `json:"reviews"`
	StylingTip    *string         `json:"stylingTip"`
	AffiliateLink *string         `json:"affiliateLink"`
}

type UpdateProductPayload struct {
	RemovedImages []string        `json:"removedImages"`
	Images        []catalog.Image `json:"images"`
	Image         string          `json:"image"`
	Name          *string         `json:"name"`
	Price         *float64        `json:"price"`
	Category      []string        `json:"category"`
	Description   *string         `json:"description"`
	Features      []string        `json:"features"`
	InStock       *bool           `json:"inStock"`
	Rating        *float64        `json:"rating"`
	Reviews       *int            `json:"reviews"`
	StylingTip    *string         `json:"stylingTip"`
	AffiliateLink *string         `json:"affiliateLink"`
}

type BulkDeletePayload struct {
	IDs []string `json:"ids"`
}

const msgImagesRequired = "at least one product image is required"

type StatCard struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Icon  string `json:"icon"`
}

// legacyImages turns the old single-URL form into a one-image list.
func legacyImages(imageURL string) []catalog.Image {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil
	}
	publicID, err := imagestore.PublicIDFromURL(imageURL)
	if err != nil {
		publicID = catalog.LegacyPublicID
	}
	return []catalog.Image{{URL: imageURL, PublicID: publicID, IsMain: true}}
}

// ListProducts godoc
//
//	@Summary		List products
//	@Description	Paginated catalog listing with case-insensitive search and category filters.
//	@Tags			products
//	@Produce		json
//	@Param			search		query		string				false	"Match in name or description"
//	@Param			category	query		string				false	"Category name, any case"
//	@Param			sort		query		string				false	"newest, price-low, price-high or rating"
//	@Param			page		query		int					false	"Page number"
//	@Param			limit		query		int					false	"Page size"
//	@Success		200			{object}	[]catalog.Product	"Products with pagination meta"
//	@Failure		500			{object}	error				"Internal server error"
//	@Router			/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pg := params.ParsePagination(q)

	list, total, err := app.catalog.ListProducts(r.Context(), catalog.ProductFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Limit:    pg.Limit,
		Offset:   pg.Offset,
	})
	if err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}
	pg.ComputeMeta(total)

	if err := app.jsonResponseWithMeta(w, http.StatusOK, list, pg); err != nil {
		app.internalServerError(w, r, err)
	}
}

// GetProduct godoc
//
//	@Summary		Get a product
//	@Description	Looks the path value up as a slug first, then as an id.
//	@Tags			products
//	@Produce		json
//	@Param			id	path		string			true	"Product slug or id"
//	@Success		200	{object}	catalog.Product	"Product"
//	@Failure		404	{object}	error			"Product not found"
//	@Router			/products/{id} [get]
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	p, err := app.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, p); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ProductStats godoc
//
//	@Summary		Catalog stat cards
//	@Tags			products
//	@Produce		json
//	@Success		200	{object}	[]StatCard	"Formatted stat cards"
//	@Failure		500	{object}	error		"Internal server error"
//	@Router			/products/stats [get]
func (app *application) productStatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := app.catalog.Stats(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	p := message.NewPrinter(language.English)
	cards := []StatCard{
		{Label: "Total Products", Value: p.Sprintf("%d", st.Products.Total), Icon: "inventory_2"},
		{Label: "Total Categories", Value: p.Sprintf("%d", st.Categories), Icon: "category"},
		{Label: "In Stock", Value: p.Sprintf("%d", st.Products.InStock), Icon: "check_circle"},
		{Label: "Avg. Rating", Value: p.Sprintf("%.1f", st.AverageRating), Icon: "star"},
	}

	if err := app.jsonResponse(w, http.StatusOK, cards); err != nil {
		app.internalServerError(w, r, err)
	}
}

// CreateProduct godoc
//
//	@Summary		Create a product
//	@Description	Creates a product. A single image URL may be sent as image instead of images.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateProductPayload	true	"Product"
//	@Success		201		{object}	catalog.Product			"Product created"
//	@Failure		400		{object}	error					"Validation failed"
//	@Failure		409		{object}	error					"Slug already in use"
//	@Security		ApiKeyAuth
//	@Router			/products [post]
func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	problems, err := validationProblems(payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if len(payload.Images) == 0 {
		payload.Images = legacyImages(payload.Image)
	}
	if len(payload.Images) == 0 {
		problems = append(problems, msgImagesRequired)
	}
	if len(problems) > 0 {
		app.badRequestMessage(w, r, strings.Join(problems, "; "))
		return
	}

	p := &catalog.Product{
		Name:          payload.Name,
		Price:         *payload.Price,
		Category:      payload.Category,
		Images:        payload.Images,
		Description:   payload.Description,
		Features:      payload.Features,
		InStock:       true,
		Rating:        payload.Rating,
		Reviews:       payload.Reviews,
		StylingTip:    payload.StylingTip,
		AffiliateLink: payload.AffiliateLink,
	}
	if payload.InStock != nil {
		p.InStock = *payload.InStock
	}

	created, err := app.catalog.CreateProduct(r.Context(), p)
	if err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}

	app.logger.Infow("product created", "product_id", created.ID, "slug", created.Slug)

	if err := app.jsonResponse(w, http.StatusCreated, created); err != nil {
		app.internalServerError(w, r, err)
	}
}

// UpdateProduct godoc
//
//	@Summary		Update a product
//	@Description	Applies the fields present in the body. Images listed in removedImages are destroyed in the image store.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Product id"
//	@Param			payload	body		UpdateProductPayload	true	"Changed fields"
//	@Success		200		{object}	catalog.Product			"Product updated"
//	@Failure		400		{object}	error					"Validation failed"
//	@Failure		404		{object}	error					"Product not found"
//	@Security		ApiKeyAuth
//	@Router			/products/{id} [put]
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	var payload UpdateProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// an explicit images list wins over the single-URL form
	if payload.Images == nil && strings.TrimSpace(payload.Image) != "" {
		payload.Images = legacyImages(payload.Image)
	}

	updated, err := app.catalog.UpdateProduct(r.Context(), chi.URLParam(r, "id"), catalog.ProductPatch{
		RemovedImages: payload.RemovedImages,
		Images:        payload.Images,
		Name:          payload.Name,
		Price:         payload.Price,
		Category:      payload.Category,
		Description:   payload.Description,
		Features:      payload.Features,
		InStock:       payload.InStock,
		Rating:        payload.Rating,
		Reviews:       payload.Reviews,
		StylingTip:    payload.StylingTip,
		AffiliateLink: payload.AffiliateLink,
	})
	if err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}

// DeleteProduct godoc
//
//	@Summary		Delete a product
//	@Tags			products
//	@Produce		json
//	@Param			id	path		string			true	"Product id"
//	@Success		200	{object}	map[string]any	"Product deleted"
//	@Failure		404	{object}	error			"Product not found"
//	@Security		ApiKeyAuth
//	@Router			/products/{id} [delete]
func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := app.catalog.DeleteProduct(r.Context(), id); err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}

	app.logger.Infow("product deleted", "product_id", id)

	if err := app.jsonResponse(w, http.StatusOK, nil); err != nil {
		app.internalServerError(w, r, err)
	}
}

// BulkDeleteProducts godoc
//
//	@Summary		Delete several products
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		BulkDeletePayload	true	"Product ids"
//	@Success		200		{object}	map[string]any		"Products deleted"
//	@Failure		400		{object}	error				"No product ids given"
//	@Security		ApiKeyAuth
//	@Router			/products/bulk [delete]
func (app *application) bulkDeleteProductsHandler(w http.ResponseWriter, r *http.Request) {
	var payload BulkDeletePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	n, err := app.catalog.BulkDeleteProducts(r.Context(), payload.IDs)
	if err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}

	app.logger.Infow("products bulk deleted", "requested", len(payload.IDs), "deleted", n)

	if err := app.jsonResponse(w, http.StatusOK, nil); err != nil {
		app.internalServerError(w, r, err)
	}
}
