package catalog

import (
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/language"

	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

// LocalizedName maps BCP 47 language tags to display names.
type LocalizedName map[string]string

// Validate ensures at least one entry exists and every key is a language tag.
func (n LocalizedName) Validate() error {
	if len(n) == 0 {
		return fmt.Errorf("%w: product name requires at least one language", shared.ErrInvalidInput)
	}
	for tag, value := range n {
		if _, err := language.Parse(tag); err != nil {
			return fmt.Errorf("%w: name key %q is not a language tag", shared.ErrInvalidInput, tag)
		}
		if value == "" {
			return fmt.Errorf("%w: name for %q is empty", shared.ErrInvalidInput, tag)
		}
	}
	return nil
}

// Resolve picks the best entry for an Accept-Language header value, falling
// back to English and then to the lexically first tag.
func (n LocalizedName) Resolve(acceptLanguage string) string {
	if len(n) == 0 {
		return ""
	}
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	// The English entry, when present, leads so the matcher falls back to it.
	for i, k := range keys {
		if k == "en" {
			keys[0], keys[i] = keys[i], keys[0]
			break
		}
	}
	supported := make([]language.Tag, 0, len(keys))
	for _, k := range keys {
		supported = append(supported, language.Make(k))
	}
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return n[keys[0]]
	}
	_, idx, _ := language.NewMatcher(supported).Match(desired...)
	return n[keys[idx]]
}

// Product is a sellable item with a shared, atomically mutated stock counter.
type Product struct {
	ID            string        `json:"id"`
	Name          LocalizedName `json:"name"`
	CategoryID    string        `json:"categoryId"`
	Price         float64       `json:"price"`
	StockQuantity int           `json:"stockQuantity"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Ref is the projection embedded when orders resolve their product lines.
type Ref struct {
	ID         string        `json:"id"`
	Name       LocalizedName `json:"name"`
	CategoryID string        `json:"categoryId"`
	Price      float64       `json:"price"`
}

// Ref returns the embedded projection of p.
func (p Product) Ref() Ref {
	return Ref{ID: p.ID, Name: p.Name, CategoryID: p.CategoryID, Price: p.Price}
}

// ListFilter narrows product listings.
type ListFilter struct {
	CategoryID string
	Page       int
	Limit      int
}

// ErrNotFound indicates the product does not exist.
var ErrNotFound = fmt.Errorf("product %w", shared.ErrNotFound)
