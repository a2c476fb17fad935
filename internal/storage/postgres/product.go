package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

const (
	productColumns = `id, title, description, image_url, category, tags, price,
		discount_type, discount_value, stock, rating`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE ($1 = '' OR LOWER(category) = LOWER($1))
		  AND ($2 = '' OR title ILIKE '%' || $2 || '%'
		       OR description ILIKE '%' || $2 || '%'
		       OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE '%' || $2 || '%'))
		ORDER BY created_at, id
		LIMIT $3 OFFSET $4`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	upsertProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			category = EXCLUDED.category,
			tags = EXCLUDED.tags,
			price = EXCLUDED.price,
			discount_type = EXCLUDED.discount_type,
			discount_value = EXCLUDED.discount_value,
			stock = EXCLUDED.stock,
			rating = EXCLUDED.rating`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns one page of products matching filter in catalog order.
func (r *ProductRepository) List(ctx context.Context, page product.Page, filter product.Filter) ([]product.Product, error) {
	page = page.Normalize()
	rows, err := r.pool.Query(ctx, listProductsSQL,
		filter.Category, filter.Query, page.Limit, page.Offset(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &p, nil
}

// Upsert inserts p or replaces the row with the same ID.
func (r *ProductRepository) Upsert(ctx context.Context, p product.Product) error {
	var (
		discountType  *string
		discountValue *decimal.Decimal
	)
	if p.Discount != nil {
		t := string(p.Discount.Type)
		discountType = &t
		discountValue = &p.Discount.Value
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Title, p.Description, p.ImageURL, p.Category, tags, p.Price,
		discountType, discountValue, p.Stock, p.Rating,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert product %q", p.ID)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p             product.Product
		discountType  *string
		discountValue *decimal.Decimal
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.ImageURL, &p.Category, &p.Tags, &p.Price,
		&discountType, &discountValue, &p.Stock, &p.Rating,
	)
	if discountType != nil && discountValue != nil {
		p.Discount = &product.Discount{
			Type:  product.DiscountType(*discountType),
			Value: *discountValue,
		}
	}
	return p, err
}
