package catalog_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"curate/internal/domain/catalog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T) (pgxmock.PgxPoolIface, catalog.Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, catalog.NewRepository(mock)
}

// sqlPattern matches the given fragments in order, across line breaks.
func sqlPattern(fragments ...string) string {
	quoted := make([]string, len(fragments))
	for i, f := range fragments {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return "(?s)" + strings.Join(quoted, ".*")
}

var (
	productCols = []string{
		"id", "name", "slug", "price", "category", "images", "description", "features",
		"in_stock", "rating", "reviews", "styling_tip", "affiliate_link", "created_at", "updated_at",
	}
	categoryCols = []string{
		"id", "name", "slug", "image_url", "image_source", "featured_product_id",
		"product_ids", "created_at", "updated_at",
	}
)

func productValues(id, name string, categories []string, now time.Time) []any {
	return []any{
		id, name, strings.ToLower(strings.ReplaceAll(name, " ", "-")), 89.0, categories,
		[]catalog.Image{{URL: "https://img.example/" + id + ".jpg", PublicID: "curate/" + id, IsMain: true}},
		name + " in oak", []string{}, true, 4.5, 12, (*string)(nil), (*string)(nil), now, now,
	}
}

func TestRepository_ReplaceCategoryName(t *testing.T) {
	mock, repo := newMockRepository(t)

	mock.ExpectExec(sqlPattern(
		"SET category = ARRAY(",
		"unnest(array_replace(category, $1, $2)) WITH ORDINALITY",
		"GROUP BY c",
		"ORDER BY min(pos)",
		"WHERE $1 = ANY(category)",
	)).
		WithArgs("Lighting", "Lamps").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := repo.ReplaceCategoryName(context.Background(), "Lighting", "Lamps")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AddAndRemoveCategoryName(t *testing.T) {
	mock, repo := newMockRepository(t)
	ctx := context.Background()
	ids := []string{"p1", "p2"}

	mock.ExpectExec(sqlPattern(
		"SET category = array_append(category, $1)",
		"WHERE id = ANY($2) AND NOT ($1 = ANY(category))",
	)).
		WithArgs("Lighting", ids).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	mock.ExpectExec(sqlPattern(
		"SET category = array_remove(category, $1)",
		"WHERE id = ANY($2) AND $1 = ANY(category)",
	)).
		WithArgs("Lighting", ids).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	added, err := repo.AddCategoryName(ctx, ids, "Lighting")
	require.NoError(t, err)
	assert.Equal(t, int64(1), added)

	removed, err := repo.RemoveCategoryName(ctx, ids, "Lighting")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_PullCategoryName(t *testing.T) {
	mock, repo := newMockRepository(t)
	ctx := context.Background()

	mock.ExpectExec(sqlPattern(
		"SET category = array_remove(category, $1)",
		"WHERE $1 = ANY(category)",
	)).
		WithArgs("Lighting").
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	n, err := repo.PullCategoryName(ctx, "Lighting")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	mock.ExpectExec(sqlPattern("array_remove(category, $1)")).
		WithArgs("Bath").
		WillReturnError(errors.New("connection reset"))

	_, err = repo.PullCategoryName(ctx, "Bath")
	assert.ErrorContains(t, err, "pull category name")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListProducts(t *testing.T) {
	mock, repo := newMockRepository(t)
	ctx := context.Background()
	now := time.Now()

	rows := pgxmock.NewRows(append(append([]string{}, productCols...), "total_count")).
		AddRow(append(productValues("p1", "Arc Lamp", []string{"Lighting"}, now), 3)...).
		AddRow(append(productValues("p2", "Floor Lamp", []string{"lighting"}, now), 3)...)

	mock.ExpectQuery(sqlPattern(
		"COUNT(*) OVER() AS total_count",
		"WHERE (name ILIKE $1 OR description ILIKE $1)",
		"AND EXISTS (SELECT 1 FROM unnest(category) AS c WHERE lower(c) = lower($2))",
		"ORDER BY price ASC, created_at DESC",
		"LIMIT $3 OFFSET $4",
	)).
		WithArgs(`%50\%\_off%`, "LIGHTING", 2, 0).
		WillReturnRows(rows)

	list, total, err := repo.ListProducts(ctx, catalog.ProductFilter{
		Search:   "50%_off",
		Category: "LIGHTING",
		Sort:     catalog.SortPriceLow,
		Limit:    2,
		Offset:   0,
	})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 3, total)
	assert.Equal(t, "p1", list[0].ID)
	assert.Equal(t, []string{"lighting"}, list[1].Category)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListProducts_PastTheEnd(t *testing.T) {
	mock, repo := newMockRepository(t)
	ctx := context.Background()

	mock.ExpectQuery(sqlPattern("COUNT(*) OVER()", "ORDER BY created_at DESC, id", "LIMIT $2 OFFSET $3")).
		WithArgs(`%rug%`, 20, 40).
		WillReturnRows(pgxmock.NewRows(append(append([]string{}, productCols...), "total_count")))

	mock.ExpectQuery(sqlPattern("SELECT COUNT(*) FROM products WHERE (name ILIKE $1 OR description ILIKE $1)")).
		WithArgs(`%rug%`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(5))

	list, total, err := repo.ListProducts(ctx, catalog.ProductFilter{Search: "rug", Limit: 20, Offset: 40})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 5, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UniqueViolationIsConflict(t *testing.T) {
	mock, repo := newMockRepository(t)
	ctx := context.Background()
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "products_slug_key"}

	mock.ExpectQuery(sqlPattern("INSERT INTO products", "RETURNING")).WillReturnError(dup)
	_, err := repo.CreateProduct(ctx, &catalog.Product{ID: "p1", Name: "Arc Lamp", Slug: "arc-lamp"})
	assert.ErrorIs(t, err, catalog.ErrConflict)

	mock.ExpectQuery(sqlPattern("UPDATE products SET", "RETURNING")).WillReturnError(dup)
	_, err = repo.UpdateProduct(ctx, &catalog.Product{ID: "p1", Name: "Arc Lamp", Slug: "arc-lamp"})
	assert.ErrorIs(t, err, catalog.ErrConflict)

	mock.ExpectQuery(sqlPattern("INSERT INTO categories", "RETURNING")).WillReturnError(dup)
	_, err = repo.CreateCategory(ctx, &catalog.Category{ID: "c1", Name: "lighting", Slug: "lighting"})
	assert.ErrorIs(t, err, catalog.ErrConflict)

	mock.ExpectQuery(sqlPattern("UPDATE categories SET", "RETURNING")).WillReturnError(dup)
	_, err = repo.UpdateCategory(ctx, &catalog.Category{ID: "c1", Name: "Lamps", Slug: "lamps"})
	assert.ErrorIs(t, err, catalog.ErrConflict)

	mock.ExpectQuery(sqlPattern("INSERT INTO products")).
		WillReturnError(&pgconn.PgError{Code: "23502"})
	_, err = repo.CreateProduct(ctx, &catalog.Product{ID: "p2"})
	assert.NotErrorIs(t, err, catalog.ErrConflict)
	assert.ErrorContains(t, err, "create product")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_NotFound(t *testing.T) {
	mock, repo := newMockRepository(t)
	ctx := context.Background()

	mock.ExpectQuery(sqlPattern("FROM products WHERE id = $1 LIMIT 1")).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(productCols))
	_, err := repo.GetProductByID(ctx, "missing")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	mock.ExpectQuery(sqlPattern("DELETE FROM categories WHERE id = $1 RETURNING")).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(categoryCols))
	_, err = repo.DeleteCategory(ctx, "missing")
	assert.ErrorIs(t, err, catalog.ErrCategoryNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetCategoryByID(t *testing.T) {
	mock, repo := newMockRepository(t)
	now := time.Now()
	source := catalog.ImageSourceUpload
	url := "https://img.example/lighting.jpg"

	mock.ExpectQuery(sqlPattern("FROM categories WHERE id = $1")).
		WithArgs("c1").
		WillReturnRows(pgxmock.NewRows(categoryCols).
			AddRow("c1", "Lighting", "lighting", &url, &source, (*string)(nil), []string(nil), now, now))

	c, err := repo.GetCategoryByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Lighting", c.Name)
	require.NotNil(t, c.ImageSource)
	assert.Equal(t, catalog.ImageSourceUpload, *c.ImageSource)
	assert.NotNil(t, c.ProductIDs)
	assert.Empty(t, c.ProductIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CategoryNameExists(t *testing.T) {
	mock, repo := newMockRepository(t)

	mock.ExpectQuery(sqlPattern("SELECT EXISTS(SELECT 1 FROM categories WHERE name = $1)")).
		WithArgs("Lighting").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.CategoryNameExists(context.Background(), "Lighting")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
