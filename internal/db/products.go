package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lox/storefront-search/internal/types"
	"github.com/shopspring/decimal"
)

// StoreProducts upserts products into the catalog. Existing products keep their catalog position.
func (d *DB) StoreProducts(ctx context.Context, products []types.Product) error {
	return d.withRetry(ctx, "store_products", func() error {
		tx, err := d.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO products (
				id, name, description, category, brand, tags,
				price, rating, stock, discount, created_at, sales
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				description = excluded.description,
				category = excluded.category,
				brand = excluded.brand,
				tags = excluded.tags,
				price = excluded.price,
				rating = excluded.rating,
				stock = excluded.stock,
				discount = excluded.discount,
				created_at = excluded.created_at,
				sales = excluded.sales
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare product insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range products {
			tags, err := json.Marshal(nonNilTags(p.Tags))
			if err != nil {
				return fmt.Errorf("failed to encode tags for %s: %w", p.ID, err)
			}
			_, err = stmt.ExecContext(ctx,
				p.ID, p.Name, p.Description, p.Category, p.Brand, string(tags),
				p.Price.String(), nullFloat(p.Rating), p.Stock, nullFloat(p.Discount),
				nullTime(p.CreatedAt), nullInt(p.Sales),
			)
			if err != nil {
				return fmt.Errorf("failed to store product %s: %w", p.ID, err)
			}
		}

		return tx.Commit()
	})
}

// Products returns the whole catalog in insertion order
func (d *DB) Products(ctx context.Context) ([]types.Product, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, description, category, brand, tags,
			price, rating, stock, discount, created_at, sales
		FROM products
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []types.Product
	for rows.Next() {
		var p types.Product
		var tags, price string
		var rating, discount sql.NullFloat64
		var createdAt sql.NullString
		var sales sql.NullInt64

		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Category, &p.Brand, &tags,
			&price, &rating, &p.Stock, &discount, &createdAt, &sales,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}

		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
			d.logger.Warn("Failed to decode product tags", "id", p.ID, "error", err)
		}
		p.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price for %s: %w", p.ID, err)
		}
		if rating.Valid {
			p.Rating = &rating.Float64
		}
		if discount.Valid {
			p.Discount = &discount.Float64
		}
		if createdAt.Valid {
			t, err := time.Parse(time.RFC3339Nano, createdAt.String)
			if err != nil {
				d.logger.Warn("Failed to parse product creation time", "id", p.ID, "error", err)
			} else {
				p.CreatedAt = &t
			}
		}
		if sales.Valid {
			n := int(sales.Int64)
			p.Sales = &n
		}

		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// CountProducts returns the number of products in the catalog
func (d *DB) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// DeleteProducts empties the catalog
func (d *DB) DeleteProducts(ctx context.Context) error {
	return d.withRetry(ctx, "delete_products", func() error {
		_, err := d.db.ExecContext(ctx, `DELETE FROM products`)
		return err
	})
}

// CategoryCount represents a category and its product count
type CategoryCount struct {
	Category string
	Count    int
}

// GetCategories returns all non-empty categories and their product counts
func (d *DB) GetCategories(ctx context.Context) ([]CategoryCount, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT category, COUNT(*) as count
		FROM products
		WHERE category != ''
		GROUP BY category
		ORDER BY count DESC, category ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []CategoryCount
	for rows.Next() {
		var cat CategoryCount
		if err := rows.Scan(&cat.Category, &cat.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(v *time.Time) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: v.UTC().Format(time.RFC3339Nano), Valid: true}
}
