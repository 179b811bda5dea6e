package catalog

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// ListCategories returns every category with its live product count. Nothing
// is cached; each call reads both collections again.
func (s *Service) ListCategories(ctx context.Context) ([]*CategoryWithCounts, error) {
	var (
		cats []*Category
		refs []ProductRef
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cats, err = s.store.ListCategories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		refs, err = s.store.ListProductRefs(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return AggregateCategories(cats, refs), nil
}

// AggregateCategories unions, per category, the explicitly listed product ids
// with the ids of products naming the category (case-insensitive). Output is
// sorted by name.
func AggregateCategories(cats []*Category, refs []ProductRef) []*CategoryWithCounts {
	byName := make(map[string][]string)
	for _, ref := range refs {
		seen := make(map[string]struct{}, len(ref.Category))
		for _, name := range ref.Category {
			key := strings.ToLower(name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			byName[key] = append(byName[key], ref.ID)
		}
	}

	out := make([]*CategoryWithCounts, 0, len(cats))
	for _, c := range cats {
		ids := uniqueIDs(append(append([]string(nil), c.ProductIDs...), byName[strings.ToLower(c.Name)]...))
		cc := &CategoryWithCounts{
			Category:      *c,
			AllProductIDs: ids,
			ProductCount:  len(ids),
		}
		if cc.ProductIDs == nil {
			cc.ProductIDs = []string{}
		}
		out = append(out, cc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

type ProductStats struct {
	Total         int
	InStock       int
	AverageRating float64
}

type Stats struct {
	Products      ProductStats
	Categories    int
	AverageRating float64
}

// Stats reads the storefront counters concurrently.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Products, err = s.store.ProductStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Categories, err = s.store.CountCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.AverageRating = RoundTenth(out.Products.AverageRating)
	return &out, nil
}

type TopProduct struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category []string `json:"category"`
	Price    float64  `json:"price"`
	Image    string   `json:"image"`
	Clicks   int      `json:"clicks"`
}

type RecentProduct struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

type CategoryShare struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type Overview struct {
	TotalProducts        int             `json:"totalProducts"`
	TotalCategories      int             `json:"totalCategories"`
	TopProducts          []TopProduct    `json:"topProducts"`
	CategoryDistribution []CategoryShare `json:"categoryDistribution"`
	RecentProducts       []RecentProduct `json:"recentProducts"`
}

// clicksPerReview stands in for click tracking, which the catalog does not record.
const clicksPerReview = 10

// Overview gathers the catalog half of the admin dashboard.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var (
		stats  ProductStats
		cats   []*Category
		refs   []ProductRef
		top    []*Product
		recent []*Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { stats, err = s.store.ProductStats(gctx); return })
	g.Go(func() (err error) { cats, err = s.store.ListCategories(gctx); return })
	g.Go(func() (err error) { refs, err = s.store.ListProductRefs(gctx); return })
	g.Go(func() (err error) { top, err = s.store.TopProductsByReviews(gctx, 5); return })
	g.Go(func() (err error) { recent, err = s.store.RecentProducts(gctx, 5); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Overview{
		TotalProducts:        stats.Total,
		TotalCategories:      len(cats),
		TopProducts:          make([]TopProduct, 0, len(top)),
		CategoryDistribution: make([]CategoryShare, 0, len(cats)),
		RecentProducts:       make([]RecentProduct, 0, len(recent)),
	}
	for _, p := range top {
		img, _ := p.MainImage()
		out.TopProducts = append(out.TopProducts, TopProduct{
			ID:       p.ID,
			Name:     p.Name,
			Category: p.Category,
			Price:    p.Price,
			Image:    img.URL,
			Clicks:   p.Reviews * clicksPerReview,
		})
	}
	// distribution counts exact name holders only, unlike the listing view
	for _, c := range cats {
		n := 0
		for _, ref := range refs {
			for _, name := range ref.Category {
				if name == c.Name {
					n++
					break
				}
			}
		}
		out.CategoryDistribution = append(out.CategoryDistribution, CategoryShare{Name: c.Name, Value: n})
	}
	for _, p := range recent {
		out.RecentProducts = append(out.RecentProducts, RecentProduct{ID: p.ID, Title: p.Name, CreatedAt: p.CreatedAt})
	}
	return out, nil
}

// RoundTenth rounds to one decimal place, as ratings are displayed.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
