package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"curate/internal/slug"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageRemover releases stored images by their public id.
type ImageRemover interface {
	Destroy(ctx context.Context, publicID string) error
}

// Service is the only write path for products and categories. It keeps the
// product category-name lists in step with category documents and keeps each
// product's image set valid. Cascades are plain sequences of store calls with
// no surrounding transaction.
type Service struct {
	store  Store
	images ImageRemover
	logger *zap.SugaredLogger
}

func NewService(store Store, images ImageRemover, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, images: images, logger: logger}
}

// OptionalString tells an absent JSON field apart from an explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// id returns the trimmed value, or "" when absent, null or blank.
func (o OptionalString) id() string {
	if o.Value == nil {
		return ""
	}
	return strings.TrimSpace(*o.Value)
}

func (o OptionalString) isNull() bool {
	return o.Set && o.Value == nil
}

type CategoryInput struct {
	Name              string
	ImageUploadURL    string
	FeaturedProductID OptionalString
	// ProductIDs nil leaves the explicit list untouched on update.
	ProductIDs []string
}

// ---------- Categories ----------

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	name := strings.TrimSpace(in.Name)
	c := &Category{
		ID:         uuid.NewString(),
		Name:       name,
		Slug:       slug.Generate(name),
		ProductIDs: uniqueIDs(in.ProductIDs),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	// exact match only; differently-cased names are caught by the slug index
	exists, err := s.store.CategoryNameExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check category name: %w", err)
	}
	if exists {
		return nil, ErrDuplicateCategory
	}

	if url := strings.TrimSpace(in.ImageUploadURL); url != "" {
		c.ImageURL = &url
		c.ImageSource = strPtr(ImageSourceUpload)
	}
	if fid := in.FeaturedProductID.id(); fid != "" {
		url, err := s.featuredImageURL(ctx, fid)
		if err != nil {
			return nil, err
		}
		c.ImageURL = url
		c.ImageSource = strPtr(ImageSourceProduct)
		c.FeaturedProductID = &fid
	}

	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return nil, err
	}

	if len(created.ProductIDs) > 0 {
		n, err := s.store.AddCategoryName(ctx, created.ProductIDs, created.Name)
		if err != nil {
			s.logger.Errorw("category created but product sync failed", "category", created.Name, "err", err)
			return nil, fmt.Errorf("add category to products: %w", err)
		}
		s.logger.Infow("category linked to products", "category", created.Name, "products", n)
	}
	return created, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*Category, error) {
	old, err := s.store.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldName := old.Name
	oldProductIDs := append([]string(nil), old.ProductIDs...)

	upd := *old
	if name := strings.TrimSpace(in.Name); name != "" {
		upd.Name = name
		upd.Slug = slug.Generate(name)
	}
	if in.ProductIDs != nil {
		upd.ProductIDs = uniqueIDs(in.ProductIDs)
	}

	uploadURL := strings.TrimSpace(in.ImageUploadURL)
	if uploadURL != "" {
		upd.ImageURL = &uploadURL
		upd.ImageSource = strPtr(ImageSourceUpload)
	}
	switch {
	case in.FeaturedProductID.id() != "":
		fid := in.FeaturedProductID.id()
		url, err := s.featuredImageURL(ctx, fid)
		if err != nil {
			return nil, err
		}
		upd.ImageURL = url
		upd.ImageSource = strPtr(ImageSourceProduct)
		upd.FeaturedProductID = &fid
	case in.FeaturedProductID.isNull():
		upd.FeaturedProductID = nil
		if uploadURL == "" {
			upd.ImageSource = nil
		}
	}

	if err := upd.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateCategory(ctx, &upd)
	if err != nil {
		return nil, err
	}

	if updated.Name != oldName {
		n, err := s.store.ReplaceCategoryName(ctx, oldName, updated.Name)
		if err != nil {
			s.logger.Errorw("category renamed but products kept old name", "from", oldName, "to", updated.Name, "err", err)
			return nil, fmt.Errorf("rename category on products: %w", err)
		}
		s.logger.Infow("category renamed on products", "from", oldName, "to", updated.Name, "products", n)
	}

	if in.ProductIDs != nil {
		added, removed := diffIDs(oldProductIDs, updated.ProductIDs)
		if len(added) > 0 {
			if _, err := s.store.AddCategoryName(ctx, added, updated.Name); err != nil {
				return nil, fmt.Errorf("add category to products: %w", err)
			}
		}
		if len(removed) > 0 {
			if _, err := s.store.RemoveCategoryName(ctx, removed, updated.Name); err != nil {
				return nil, fmt.Errorf("remove category from products: %w", err)
			}
		}
	}

	return updated, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteCategory(ctx, id)
	if err != nil {
		return err
	}

	n, err := s.store.PullCategoryName(ctx, deleted.Name)
	if err != nil {
		s.logger.Errorw("category deleted but products still reference it", "category", deleted.Name, "err", err)
		return fmt.Errorf("remove category %q from products: %w", deleted.Name, err)
	}
	s.logger.Infow("category deleted", "category", deleted.Name, "products_updated", n)
	return nil
}

// featuredImageURL copies the referenced product's main image URL at call time.
func (s *Service) featuredImageURL(ctx context.Context, productID string) (*string, error) {
	p, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrFeaturedProductNotFound
		}
		return nil, err
	}
	img, ok := p.MainImage()
	if !ok {
		return nil, nil
	}
	return &img.URL, nil
}

// ---------- Products ----------

func (s *Service) GetProduct(ctx context.Context, slugOrID string) (*Product, error) {
	p, err := s.store.GetProductBySlug(ctx, slugOrID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrProductNotFound) {
		return nil, err
	}
	return s.store.GetProductByID(ctx, slugOrID)
}

func (s *Service) ListProducts(ctx context.Context, f ProductFilter) ([]*Product, int, error) {
	f.Search = strings.TrimSpace(f.Search)
	f.Category = strings.TrimSpace(f.Category)
	if strings.EqualFold(f.Category, "All") {
		f.Category = ""
	}
	f.Sort = NormalizeSort(f.Sort)
	return s.store.ListProducts(ctx, f)
}

// NormalizeSort maps accepted sort spellings onto the three supported orders.
func NormalizeSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case SortPriceLow, "price-asc", "price_asc":
		return SortPriceLow
	case SortPriceHigh, "price-desc", "price_desc":
		return SortPriceHigh
	default:
		return SortNewest
	}
}

func (s *Service) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	if len(p.Images) == 0 {
		return nil, ErrImagesRequired
	}
	p.ID = uuid.NewString()
	p.Name = strings.TrimSpace(p.Name)
	p.Slug = slug.Generate(p.Name)
	p.Category = NormalizeNames(p.Category)
	p.Images = EnsureMainImage(p.Images)
	if p.Features == nil {
		p.Features = []string{}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateProduct(ctx, p)
}

// ProductPatch carries an update request. Nil fields are left as they are.
type ProductPatch struct {
	RemovedImages []string
	// Images replaces the whole list when non-nil.
	Images []Image

	Name          *string
	Price         *float64
	Category      []string
	Description   *string
	Features      []string
	InStock       *bool
	Rating        *float64
	Reviews       *int
	StylingTip    *string
	AffiliateLink *string
}

func (pp *ProductPatch) apply(p *Product) {
	if pp.Name != nil {
		p.Name = strings.TrimSpace(*pp.Name)
		p.Slug = slug.Generate(p.Name)
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.Category != nil {
		p.Category = NormalizeNames(pp.Category)
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Features != nil {
		p.Features = pp.Features
	}
	if pp.InStock != nil {
		p.InStock = *pp.InStock
	}
	if pp.Rating != nil {
		p.Rating = *pp.Rating
	}
	if pp.Reviews != nil {
		p.Reviews = *pp.Reviews
	}
	if pp.StylingTip != nil {
		p.StylingTip = pp.StylingTip
	}
	if pp.AffiliateLink != nil {
		p.AffiliateLink = pp.AffiliateLink
	}
}

// UpdateProduct applies removals first, then the replacement list, and only
// then the ordinary fields. Callers send the complete final image list, not a
// delta.
func (s *Service) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	p, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, publicID := range patch.RemovedImages {
		s.destroyImage(ctx, p.ID, publicID)
		p.Images = withoutImage(p.Images, publicID)
	}
	if patch.Images != nil {
		p.Images = append([]Image(nil), patch.Images...)
	}
	if len(p.Images) == 0 {
		return nil, ErrImagesRequired
	}

	patch.apply(p)
	p.Images = EnsureMainImage(p.Images)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	return s.store.UpdateProduct(ctx, p)
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return err
	}
	s.releaseImages(ctx, []*Product{p})

	n, err := s.store.DeleteProducts(ctx, []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// BulkDeleteProducts deletes every listed product that exists and returns how
// many documents were removed. Unknown ids are ignored.
func (s *Service) BulkDeleteProducts(ctx context.Context, ids []string) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, ErrNoProductIDs
	}

	products, err := s.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.releaseImages(ctx, products)

	return s.store.DeleteProducts(ctx, ids)
}

// releaseImages deletes every owned image concurrently and waits for all of
// them. Failures are logged only.
func (s *Service) releaseImages(ctx context.Context, products []*Product) {
	var wg sync.WaitGroup
	for _, p := range products {
		for _, img := range p.Images {
			wg.Add(1)
			go func(productID, publicID string) {
				defer wg.Done()
				s.destroyImage(ctx, productID, publicID)
			}(p.ID, img.PublicID)
		}
	}
	wg.Wait()
}

func (s *Service) destroyImage(ctx context.Context, productID, publicID string) {
	if publicID == "" || publicID == LegacyPublicID || s.images == nil {
		return
	}
	if err := s.images.Destroy(ctx, publicID); err != nil {
		s.logger.Warnw("failed to delete image", "product_id", productID, "public_id", publicID, "err", err)
	}
}

func strPtr(s string) *string {
	return &s
}
