// Package importer turns generated content JSON (Pinterest pin ideas plus a
// product draft) into values the catalog can store.
package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"curate/internal/domain/catalog"
)

var ErrEmpty = errors.New("content has neither pins nor a product")

// Names accepts a JSON string or an array of strings. A single string
// becomes a one-element list.
type Names []string

func (n *Names) UnmarshalJSON(b []byte) error {
	list, err := decodeStringOrList(b, func(s string) []string { return []string{s} })
	*n = list
	return err
}

// CommaList accepts a JSON array of strings or one comma-separated string.
type CommaList []string

func (c *CommaList) UnmarshalJSON(b []byte) error {
	list, err := decodeStringOrList(b, SplitComma)
	*c = list
	return err
}

func decodeStringOrList(b []byte, fromString func(string) []string) ([]string, error) {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return fromString(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string or array, got %T", raw)
	}
}

// SplitComma splits on commas, trimming and dropping empty parts.
func SplitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Pin is one generated pin. Unknown keys are kept as they came.
type Pin map[string]any

// foldTextOverlay moves textOverlay into imagePrompt.
func (p Pin) foldTextOverlay() {
	overlay, _ := p["textOverlay"].(string)
	if overlay == "" {
		return
	}
	if prompt, _ := p["imagePrompt"].(string); prompt != "" {
		p["imagePrompt"] = fmt.Sprintf("%s Text Overlay: %q", prompt, overlay)
	} else {
		p["imagePrompt"] = fmt.Sprintf("Text Overlay: %q", overlay)
	}
	delete(p, "textOverlay")
}

type ProductDraft struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      Names           `json:"category"`
	Price         float64         `json:"price"`
	Features      CommaList       `json:"features"`
	Rating        float64         `json:"rating"`
	Reviews       int             `json:"reviews"`
	StylingTip    string          `json:"stylingTip"`
	AffiliateLink string          `json:"affiliateLink"`
	Images        []catalog.Image `json:"images"`
	Image         string          `json:"image,omitempty"`
}

// normalize resolves the legacy single image field.
func (d *ProductDraft) normalize() {
	if len(d.Images) == 0 && strings.TrimSpace(d.Image) != "" {
		d.Images = []catalog.Image{{URL: strings.TrimSpace(d.Image), PublicID: catalog.LegacyPublicID, IsMain: true}}
	}
	d.Image = ""
	if d.Category == nil {
		d.Category = Names{}
	}
	if d.Features == nil {
		d.Features = CommaList{}
	}
	if d.Images == nil {
		d.Images = []catalog.Image{}
	}
}

// Product converts the draft into a product ready for catalog.Service.
// Imported products start in stock.
func (d *ProductDraft) Product() *catalog.Product {
	p := &catalog.Product{
		Name:        d.Name,
		Description: d.Description,
		Category:    append([]string{}, d.Category...),
		Price:       d.Price,
		Features:    append([]string{}, d.Features...),
		Rating:      d.Rating,
		Reviews:     d.Reviews,
		Images:      append([]catalog.Image{}, d.Images...),
		InStock:     true,
	}
	if tip := strings.TrimSpace(d.StylingTip); tip != "" {
		p.StylingTip = &tip
	}
	if link := strings.TrimSpace(d.AffiliateLink); link != "" {
		p.AffiliateLink = &link
	}
	return p
}

type Content struct {
	Pins    []Pin         `json:"pins,omitempty"`
	Product *ProductDraft `json:"product,omitempty"`
}

// Parse reads one content document.
func Parse(r io.Reader) (*Content, error) {
	var c Content
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("invalid content JSON: %w", err)
	}
	if err := c.Normalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Normalize folds pin overlays and resolves the product draft in place.
func (c *Content) Normalize() error {
	if len(c.Pins) == 0 && c.Product == nil {
		return ErrEmpty
	}
	for _, pin := range c.Pins {
		if pin != nil {
			pin.foldTextOverlay()
		}
	}
	if c.Product != nil {
		c.Product.normalize()
	}
	return nil
}

// CategorySeed is one category in a catalog seed file.
type CategorySeed struct {
	Name           string   `json:"name"`
	ImageUploadURL string   `json:"imageUploadUrl,omitempty"`
	ProductSlugs   []string `json:"productSlugs,omitempty"`
}

// Catalog is the seed file format: categories plus product drafts.
type Catalog struct {
	Categories []CategorySeed `json:"categories"`
	Products   []ProductDraft `json:"products"`
}

func ParseCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("invalid catalog JSON: %w", err)
	}
	for i := range c.Products {
		c.Products[i].normalize()
	}
	return &c, nil
}
