package product

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

type productJSON struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	Category    string          `json:"category"`
	Tags        []string        `json:"tags"`
	Price       decimal.Decimal `json:"price"`
	Discount    *struct {
		Type  string          `json:"type"`
		Value decimal.Decimal `json:"value"`
	} `json:"discount"`
	Stock  int             `json:"stock"`
	Rating decimal.Decimal `json:"rating"`
}

// DecodeJSON parses a catalog file: a JSON array of products. Entries
// without an ID or title are rejected.
func DecodeJSON(data []byte) ([]Product, error) {
	var raw []productJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}

	products := make([]Product, 0, len(raw))
	for i, r := range raw {
		if r.ID == "" || r.Title == "" {
			return nil, errors.Errorf("product %d: id and title are required", i)
		}
		p := Product{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			ImageURL:    r.ImageURL,
			Category:    r.Category,
			Tags:        r.Tags,
			Price:       r.Price,
			Stock:       r.Stock,
			Rating:      r.Rating,
		}
		if r.Discount != nil {
			t := DiscountType(r.Discount.Type)
			if t != DiscountPercent && t != DiscountFlat {
				return nil, errors.Errorf("product %s: unsupported discount type %q", r.ID, r.Discount.Type)
			}
			p.Discount = &Discount{Type: t, Value: r.Discount.Value}
		}
		products = append(products, p)
	}
	return products, nil
}
