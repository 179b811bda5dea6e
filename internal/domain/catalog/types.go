package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrProductNotFound         = errors.New("product not found")
	ErrCategoryNotFound        = errors.New("category not found")
	ErrFeaturedProductNotFound = errors.New("featured product not found")
	ErrDuplicateCategory       = errors.New("category with this name already exists")
	ErrConflict                = errors.New("a record with this value already exists")
	ErrImagesRequired          = errors.New("product must have at least one image")
	ErrNoProductIDs            = errors.New("please provide an array of product IDs")
)

// ValidationError aggregates every problem found in one write so the caller
// can report them together.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

const (
	ImageSourceUpload  = "upload"
	ImageSourceProduct = "product"
)

type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	IsMain   bool   `json:"isMain"`
}

type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Price         float64   `json:"price"`
	Category      []string  `json:"category"`
	Images        []Image   `json:"images"`
	Description   string    `json:"description"`
	Features      []string  `json:"features"`
	InStock       bool      `json:"inStock"`
	Rating        float64   `json:"rating"`
	Reviews       int       `json:"reviews"`
	StylingTip    *string   `json:"stylingTip,omitempty"`
	AffiliateLink *string   `json:"affiliateLink,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// MainImage returns the image flagged as main, falling back to the first one.
func (p *Product) MainImage() (Image, bool) {
	for _, img := range p.Images {
		if img.IsMain {
			return img, true
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0], true
	}
	return Image{}, false
}

// Validate checks every field and reports all problems at once.
func (p *Product) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(p.Name) == "" {
		v.add("name is required")
	} else if utf8.RuneCountInString(p.Name) > 200 {
		v.add("name must be at most 200 characters")
	}
	if p.Slug == "" && strings.TrimSpace(p.Name) != "" {
		v.add("name must contain at least one letter or digit")
	}
	if p.Price < 0 {
		v.add("price cannot be negative")
	}
	if len(p.Category) == 0 {
		v.add("at least one category is required")
	}
	if len(p.Images) == 0 {
		v.add("at least one product image is required")
	}
	for i, img := range p.Images {
		if strings.TrimSpace(img.URL) == "" {
			v.add("images[%d].url is required", i)
		}
	}
	if strings.TrimSpace(p.Description) == "" {
		v.add("description is required")
	} else if utf8.RuneCountInString(p.Description) > 2000 {
		v.add("description must be at most 2000 characters")
	}
	if p.Rating < 0 || p.Rating > 5 {
		v.add("rating must be between 0 and 5")
	}
	if p.Reviews < 0 {
		v.add("reviews cannot be negative")
	}
	if p.StylingTip != nil && utf8.RuneCountInString(*p.StylingTip) > 500 {
		v.add("stylingTip must be at most 500 characters")
	}
	return v.orNil()
}

type Category struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	ImageURL          *string   `json:"imageUrl,omitempty"`
	ImageSource       *string   `json:"imageSource"`
	FeaturedProductID *string   `json:"featuredProductId"`
	ProductIDs        []string  `json:"productIds"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (c *Category) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(c.Name) == "" {
		v.add("name is required")
	} else if utf8.RuneCountInString(c.Name) > 100 {
		v.add("name must be at most 100 characters")
	} else if c.Slug == "" {
		v.add("name must contain at least one letter or digit")
	}
	return v.orNil()
}

// CategoryWithCounts is the listing view: the category plus the union of
// products that name it and products it lists explicitly.
type CategoryWithCounts struct {
	Category
	AllProductIDs []string `json:"allProductIds"`
	ProductCount  int      `json:"productCount"`
}

// ProductRef is the projection the category aggregation needs.
type ProductRef struct {
	ID       string
	Category []string
}

const (
	SortNewest    = "newest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
)

type ProductFilter struct {
	Search   string
	Category string
	Sort     string
	Limit    int
	Offset   int
}
