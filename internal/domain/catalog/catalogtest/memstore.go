// Package catalogtest provides in-memory doubles for the catalog store and
// image store, for use in tests.
package catalogtest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"curate/internal/domain/catalog"
)

// MemStore implements catalog.Store in memory. It enforces the same unique
// keys as the SQL schema: product slug, category name and category slug.
type MemStore struct {
	mu         sync.Mutex
	products   map[string]*catalog.Product
	categories map[string]*catalog.Category
	now        func() time.Time

	// FailPull makes PullCategoryName return this error.
	FailPull error
}

func NewMemStore() *MemStore {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int64
	return &MemStore{
		products:   make(map[string]*catalog.Product),
		categories: make(map[string]*catalog.Category),
		now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
	}
}

func cloneProduct(p *catalog.Product) *catalog.Product {
	c := *p
	c.Category = append([]string{}, p.Category...)
	c.Images = append([]catalog.Image{}, p.Images...)
	c.Features = append([]string{}, p.Features...)
	return &c
}

func cloneCategory(c *catalog.Category) *catalog.Category {
	out := *c
	out.ProductIDs = append([]string{}, c.ProductIDs...)
	return &out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ------------------------------------
// Products
// ------------------------------------

// PutProduct stores p as is, bypassing validation. Useful for seeding.
func (m *MemStore) PutProduct(p *catalog.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now()
		p.UpdatedAt = p.CreatedAt
	}
	m.products[p.ID] = cloneProduct(p)
}

// Product returns a copy of the stored product, or nil.
func (m *MemStore) Product(id string) *catalog.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil
	}
	return cloneProduct(p)
}

// Category returns a copy of the stored category, or nil.
func (m *MemStore) Category(id string) *catalog.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil
	}
	return cloneCategory(c)
}

func (m *MemStore) productSlugTaken(slug, exceptID string) bool {
	for id, p := range m.products {
		if id != exceptID && p.Slug == slug {
			return true
		}
	}
	return false
}

func (m *MemStore) CreateProduct(_ context.Context, p *catalog.Product) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; ok || m.productSlugTaken(p.Slug, "") {
		return nil, catalog.ErrConflict
	}
	c := cloneProduct(p)
	c.CreatedAt = m.now()
	c.UpdatedAt = c.CreatedAt
	m.products[c.ID] = c
	return cloneProduct(c), nil
}

func (m *MemStore) GetProductByID(_ context.Context, id string) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return cloneProduct(p), nil
}

func (m *MemStore) GetProductBySlug(_ context.Context, slug string) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Slug == slug {
			return cloneProduct(p), nil
		}
	}
	return nil, catalog.ErrProductNotFound
}

func (m *MemStore) GetProductsByIDs(_ context.Context, ids []string) ([]*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*catalog.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (m *MemStore) UpdateProduct(_ context.Context, p *catalog.Product) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.products[p.ID]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	if m.productSlugTaken(p.Slug, p.ID) {
		return nil, catalog.ErrConflict
	}
	c := cloneProduct(p)
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = m.now()
	m.products[c.ID] = c
	return cloneProduct(c), nil
}

func (m *MemStore) DeleteProducts(_ context.Context, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.products[id]; ok {
			delete(m.products, id)
			n++
		}
	}
	return n, nil
}

func (m *MemStore) sortedProducts() []*catalog.Product {
	list := make([]*catalog.Product, 0, len(m.products))
	for _, p := range m.products {
		list = append(list, p)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list
}

func (m *MemStore) ListProducts(_ context.Context, f catalog.ProductFilter) ([]*catalog.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	search := strings.ToLower(f.Search)
	var matched []*catalog.Product
	for _, p := range m.sortedProducts() {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if f.Category != "" {
			hit := false
			for _, c := range p.Category {
				if strings.EqualFold(c, f.Category) {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
		}
		matched = append(matched, p)
	}

	switch f.Sort {
	case catalog.SortPriceLow:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price < matched[j].Price })
	case catalog.SortPriceHigh:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price > matched[j].Price })
	}

	total := len(matched)
	start := f.Offset
	if start > total {
		start = total
	}
	end := total
	if f.Limit > 0 && start+f.Limit < total {
		end = start + f.Limit
	}
	out := make([]*catalog.Product, 0, end-start)
	for _, p := range matched[start:end] {
		out = append(out, cloneProduct(p))
	}
	return out, total, nil
}

func (m *MemStore) ListProductRefs(_ context.Context) ([]catalog.ProductRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	refs := make([]catalog.ProductRef, 0, len(m.products))
	for _, p := range m.sortedProducts() {
		refs = append(refs, catalog.ProductRef{ID: p.ID, Category: append([]string{}, p.Category...)})
	}
	return refs, nil
}

func (m *MemStore) TopProductsByReviews(_ context.Context, limit int) ([]*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.sortedProducts()
	sort.SliceStable(list, func(i, j int) bool { return list[i].Reviews > list[j].Reviews })
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]*catalog.Product, 0, len(list))
	for _, p := range list {
		out = append(out, cloneProduct(p))
	}
	return out, nil
}

func (m *MemStore) RecentProducts(_ context.Context, limit int) ([]*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.sortedProducts()
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]*catalog.Product, 0, len(list))
	for _, p := range list {
		out = append(out, cloneProduct(p))
	}
	return out, nil
}

func (m *MemStore) ProductStats(_ context.Context) (catalog.ProductStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s catalog.ProductStats
	var sum float64
	for _, p := range m.products {
		s.Total++
		if p.InStock {
			s.InStock++
		}
		sum += p.Rating
	}
	if s.Total > 0 {
		s.AverageRating = sum / float64(s.Total)
	}
	return s, nil
}

// ------------------------------------
// Category names held on products
// ------------------------------------

func (m *MemStore) ReplaceCategoryName(_ context.Context, oldName, newName string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.products {
		if !contains(p.Category, oldName) {
			continue
		}
		for i, c := range p.Category {
			if c == oldName {
				p.Category[i] = newName
			}
		}
		p.Category = catalog.NormalizeNames(p.Category)
		p.UpdatedAt = m.now()
		n++
	}
	return n, nil
}

func (m *MemStore) AddCategoryName(_ context.Context, productIDs []string, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range productIDs {
		p, ok := m.products[id]
		if !ok || contains(p.Category, name) {
			continue
		}
		p.Category = append(p.Category, name)
		p.UpdatedAt = m.now()
		n++
	}
	return n, nil
}

func removeName(list []string, name string) []string {
	out := list[:0]
	for _, v := range list {
		if v != name {
			out = append(out, v)
		}
	}
	return out
}

func (m *MemStore) RemoveCategoryName(_ context.Context, productIDs []string, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range productIDs {
		p, ok := m.products[id]
		if !ok || !contains(p.Category, name) {
			continue
		}
		p.Category = removeName(p.Category, name)
		p.UpdatedAt = m.now()
		n++
	}
	return n, nil
}

func (m *MemStore) PullCategoryName(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPull != nil {
		return 0, m.FailPull
	}
	var n int64
	for _, p := range m.products {
		if !contains(p.Category, name) {
			continue
		}
		p.Category = removeName(p.Category, name)
		p.UpdatedAt = m.now()
		n++
	}
	return n, nil
}

// ------------------------------------
// Categories
// ------------------------------------

func (m *MemStore) categoryTaken(c *catalog.Category) bool {
	for id, other := range m.categories {
		if id == c.ID {
			continue
		}
		if other.Name == c.Name || other.Slug == c.Slug {
			return true
		}
	}
	return false
}

func (m *MemStore) CreateCategory(_ context.Context, c *catalog.Category) (*catalog.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[c.ID]; ok || m.categoryTaken(c) {
		return nil, catalog.ErrConflict
	}
	out := cloneCategory(c)
	out.CreatedAt = m.now()
	out.UpdatedAt = out.CreatedAt
	m.categories[out.ID] = out
	return cloneCategory(out), nil
}

func (m *MemStore) GetCategoryByID(_ context.Context, id string) (*catalog.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, catalog.ErrCategoryNotFound
	}
	return cloneCategory(c), nil
}

func (m *MemStore) CategoryNameExists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) UpdateCategory(_ context.Context, c *catalog.Category) (*catalog.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.categories[c.ID]
	if !ok {
		return nil, catalog.ErrCategoryNotFound
	}
	if m.categoryTaken(c) {
		return nil, catalog.ErrConflict
	}
	out := cloneCategory(c)
	out.CreatedAt = old.CreatedAt
	out.UpdatedAt = m.now()
	m.categories[out.ID] = out
	return cloneCategory(out), nil
}

func (m *MemStore) DeleteCategory(_ context.Context, id string) (*catalog.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, catalog.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return c, nil
}

func (m *MemStore) ListCategories(_ context.Context) ([]*catalog.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*catalog.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, cloneCategory(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemStore) CountCategories(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.categories), nil
}

// ------------------------------------
// Images
// ------------------------------------

// ErrDestroyFailed is returned by ImageStore for ids listed in Fail.
var ErrDestroyFailed = errors.New("image store unavailable")

// ImageStore records destroy calls. Ids in Fail return ErrDestroyFailed.
type ImageStore struct {
	mu        sync.Mutex
	Fail      map[string]bool
	destroyed []string
}

func (s *ImageStore) Destroy(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = append(s.destroyed, publicID)
	if s.Fail[publicID] {
		return ErrDestroyFailed
	}
	return nil
}

// Destroyed returns the attempted public ids in sorted order.
func (s *ImageStore) Destroyed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string{}, s.destroyed...)
	sort.Strings(out)
	return out
}
