package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Store is the data access abstraction for products and categories.
// Implemented by Repository (pgx) and by catalogtest.MemStore.
type Store interface {
	// Products
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	GetProductByID(ctx context.Context, id string) (*Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]*Product, error)
	UpdateProduct(ctx context.Context, p *Product) (*Product, error)
	DeleteProducts(ctx context.Context, ids []string) (int64, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]*Product, int, error)
	ListProductRefs(ctx context.Context) ([]ProductRef, error)
	TopProductsByReviews(ctx context.Context, limit int) ([]*Product, error)
	RecentProducts(ctx context.Context, limit int) ([]*Product, error)
	ProductStats(ctx context.Context) (ProductStats, error)

	// Category names held on products
	ReplaceCategoryName(ctx context.Context, oldName, newName string) (int64, error)
	AddCategoryName(ctx context.Context, productIDs []string, name string) (int64, error)
	RemoveCategoryName(ctx context.Context, productIDs []string, name string) (int64, error)
	PullCategoryName(ctx context.Context, name string) (int64, error)

	// Categories
	CreateCategory(ctx context.Context, c *Category) (*Category, error)
	GetCategoryByID(ctx context.Context, id string) (*Category, error)
	CategoryNameExists(ctx context.Context, name string) (bool, error)
	UpdateCategory(ctx context.Context, c *Category) (*Category, error)
	DeleteCategory(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
	CountCategories(ctx context.Context) (int, error)
}

// DBTX is the part of *pgxpool.Pool the repository needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db DBTX
}

func NewRepository(db DBTX) Store {
	return &Repository{db: db}
}

const productColumns = `id, name, slug, price, category, images, description, features,
	in_stock, rating, reviews, styling_tip, affiliate_link, created_at, updated_at`

const categoryColumns = `id, name, slug, image_url, image_source, featured_product_id,
	product_ids, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Price, &p.Category, &p.Images, &p.Description, &p.Features,
		&p.InStock, &p.Rating, &p.Reviews, &p.StylingTip, &p.AffiliateLink, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &c.ImageURL, &c.ImageSource, &c.FeaturedProductID,
		&c.ProductIDs, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.ProductIDs == nil {
		c.ProductIDs = []string{}
	}
	return &c, nil
}

func collectProducts(rows pgx.Rows) ([]*Product, error) {
	defer rows.Close()
	var list []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return list, nil
}

// isUniqueViolation reports SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ------------------------------------
// Products
// ------------------------------------

func (r *Repository) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	query := `
		INSERT INTO products (id, name, slug, price, category, images, description, features,
			in_stock, rating, reviews, styling_tip, affiliate_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + productColumns

	created, err := scanProduct(r.db.QueryRow(ctx, query,
		p.ID, p.Name, p.Slug, p.Price, p.Category, p.Images, p.Description, p.Features,
		p.InStock, p.Rating, p.Reviews, p.StylingTip, p.AffiliateLink,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

func (r *Repository) getProduct(ctx context.Context, where string, arg any) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE ` + where + ` LIMIT 1;`
	p, err := scanProduct(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProductByID(ctx context.Context, id string) (*Product, error) {
	return r.getProduct(ctx, `id = $1`, id)
}

func (r *Repository) GetProductBySlug(ctx context.Context, slug string) (*Product, error) {
	return r.getProduct(ctx, `slug = $1`, slug)
}

func (r *Repository) GetProductsByIDs(ctx context.Context, ids []string) ([]*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1);`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	return collectProducts(rows)
}

func (r *Repository) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	query := `
		UPDATE products SET
			name = $2, slug = $3, price = $4, category = $5, images = $6, description = $7,
			features = $8, in_stock = $9, rating = $10, reviews = $11, styling_tip = $12,
			affiliate_link = $13, updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns

	updated, err := scanProduct(r.db.QueryRow(ctx, query,
		p.ID, p.Name, p.Slug, p.Price, p.Category, p.Images, p.Description, p.Features,
		p.InStock, p.Rating, p.Reviews, p.StylingTip, p.AffiliateLink,
	))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrProductNotFound
		case isUniqueViolation(err):
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func (r *Repository) DeleteProducts(ctx context.Context, ids []string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = ANY($1);`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete products: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// escapeLike makes user input literal inside a LIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ListProducts returns one page and the total number of matches. It uses
// COUNT(*) OVER() when rows exist and falls back to a separate count when the
// page is past the end.
func (r *Repository) ListProducts(ctx context.Context, f ProductFilter) ([]*Product, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(category) AS c WHERE lower(c) = lower($%d))", len(args)))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	orderSQL := "created_at DESC, id"
	switch f.Sort {
	case SortPriceLow:
		orderSQL = "price ASC, created_at DESC"
	case SortPriceHigh:
		orderSQL = "price DESC, created_at DESC"
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d;`, productColumns, whereSQL, orderSQL, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		list  []*Product
		total int
	)
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Slug, &p.Price, &p.Category, &p.Images, &p.Description, &p.Features,
			&p.InStock, &p.Rating, &p.Reviews, &p.StylingTip, &p.AffiliateLink, &p.CreatedAt, &p.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}

	if len(list) == 0 && f.Offset > 0 {
		countQ := `SELECT COUNT(*) FROM products ` + whereSQL
		if err := r.db.QueryRow(ctx, countQ, args[:len(args)-2]...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count products: %w", err)
		}
	}
	return list, total, nil
}

func (r *Repository) ListProductRefs(ctx context.Context) ([]ProductRef, error) {
	rows, err := r.db.Query(ctx, `SELECT id, category FROM products;`)
	if err != nil {
		return nil, fmt.Errorf("list product refs: %w", err)
	}
	defer rows.Close()

	var refs []ProductRef
	for rows.Next() {
		var ref ProductRef
		if err := rows.Scan(&ref.ID, &ref.Category); err != nil {
			return nil, fmt.Errorf("scan product ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *Repository) TopProductsByReviews(ctx context.Context, limit int) ([]*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY reviews DESC, created_at DESC LIMIT $1;`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	return collectProducts(rows)
}

func (r *Repository) RecentProducts(ctx context.Context, limit int) ([]*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC LIMIT $1;`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("recent products: %w", err)
	}
	return collectProducts(rows)
}

func (r *Repository) ProductStats(ctx context.Context) (ProductStats, error) {
	var s ProductStats
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE in_stock), COALESCE(AVG(rating), 0)::float8
		FROM products;`
	if err := r.db.QueryRow(ctx, query).Scan(&s.Total, &s.InStock, &s.AverageRating); err != nil {
		return s, fmt.Errorf("product stats: %w", err)
	}
	return s, nil
}

// ------------------------------------
// Category names held on products
// ------------------------------------

// ReplaceCategoryName swaps the entry in place so array positions survive a
// rename. If the product already held newName, only its first position is kept.
func (r *Repository) ReplaceCategoryName(ctx context.Context, oldName, newName string) (int64, error) {
	query := `
		UPDATE products
		SET category = ARRAY(
				SELECT c
				FROM unnest(array_replace(category, $1, $2)) WITH ORDINALITY AS t(c, pos)
				GROUP BY c
				ORDER BY min(pos)
			),
			updated_at = now()
		WHERE $1 = ANY(category);`
	cmd, err := r.db.Exec(ctx, query, oldName, newName)
	if err != nil {
		return 0, fmt.Errorf("replace category name: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (r *Repository) AddCategoryName(ctx context.Context, productIDs []string, name string) (int64, error) {
	query := `
		UPDATE products
		SET category = array_append(category, $1), updated_at = now()
		WHERE id = ANY($2) AND NOT ($1 = ANY(category));`
	cmd, err := r.db.Exec(ctx, query, name, productIDs)
	if err != nil {
		return 0, fmt.Errorf("add category name: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (r *Repository) RemoveCategoryName(ctx context.Context, productIDs []string, name string) (int64, error) {
	query := `
		UPDATE products
		SET category = array_remove(category, $1), updated_at = now()
		WHERE id = ANY($2) AND $1 = ANY(category);`
	cmd, err := r.db.Exec(ctx, query, name, productIDs)
	if err != nil {
		return 0, fmt.Errorf("remove category name: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (r *Repository) PullCategoryName(ctx context.Context, name string) (int64, error) {
	query := `
		UPDATE products
		SET category = array_remove(category, $1), updated_at = now()
		WHERE $1 = ANY(category);`
	cmd, err := r.db.Exec(ctx, query, name)
	if err != nil {
		return 0, fmt.Errorf("pull category name: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// ------------------------------------
// Categories
// ------------------------------------

func (r *Repository) CreateCategory(ctx context.Context, c *Category) (*Category, error) {
	query := `
		INSERT INTO categories (id, name, slug, image_url, image_source, featured_product_id, product_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + categoryColumns

	ids := c.ProductIDs
	if ids == nil {
		ids = []string{}
	}
	created, err := scanCategory(r.db.QueryRow(ctx, query,
		c.ID, c.Name, c.Slug, c.ImageURL, c.ImageSource, c.FeaturedProductID, ids))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

func (r *Repository) GetCategoryByID(ctx context.Context, id string) (*Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1;`
	c, err := scanCategory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category by id: %w", err)
	}
	return c, nil
}

// CategoryNameExists compares names exactly; case variants are not matched here.
func (r *Repository) CategoryNameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE name = $1)`, name).Scan(&exists)
	return exists, err
}

func (r *Repository) UpdateCategory(ctx context.Context, c *Category) (*Category, error) {
	query := `
		UPDATE categories SET
			name = $2, slug = $3, image_url = $4, image_source = $5,
			featured_product_id = $6, product_ids = $7, updated_at = now()
		WHERE id = $1
		RETURNING ` + categoryColumns

	ids := c.ProductIDs
	if ids == nil {
		ids = []string{}
	}
	updated, err := scanCategory(r.db.QueryRow(ctx, query,
		c.ID, c.Name, c.Slug, c.ImageURL, c.ImageSource, c.FeaturedProductID, ids))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrCategoryNotFound
		case isUniqueViolation(err):
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return updated, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id string) (*Category, error) {
	query := `DELETE FROM categories WHERE id = $1 RETURNING ` + categoryColumns
	c, err := scanCategory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("delete category: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]*Category, error) {
	rows, err := r.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var list []*Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return list, nil
}

func (r *Repository) CountCategories(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}
