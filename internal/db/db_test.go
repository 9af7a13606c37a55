package db

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/storefront-search/internal/types"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) (*DB, func()) {
	// Create a temporary directory for the test database
	tempDir, err := os.MkdirTemp("", "storefront-search-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	// Create a logger that discards output
	logger := log.New(io.Discard)
	logger.SetLevel(log.DebugLevel)

	// Create a new database connection
	db, err := New(tempDir, logger)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}

	// Return cleanup function
	cleanup := func() {
		db.Close()
		os.RemoveAll(tempDir)
	}

	return db, cleanup
}

func TestBlobSetGetDelete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, ok, err := db.Get(ctx, "search_history"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := db.Set(ctx, "search_history", []byte(`{"queries":[],"maxSize":50}`)); err != nil {
		t.Fatalf("failed to set blob: %v", err)
	}
	if err := db.Set(ctx, "search_history", []byte(`{"queries":[],"maxSize":20}`)); err != nil {
		t.Fatalf("failed to overwrite blob: %v", err)
	}

	value, ok, err := db.Get(ctx, "search_history")
	if err != nil {
		t.Fatalf("failed to get blob: %v", err)
	}
	if !ok {
		t.Fatal("expected blob to exist")
	}
	if string(value) != `{"queries":[],"maxSize":20}` {
		t.Errorf("unexpected blob value %q", value)
	}

	if err := db.Delete(ctx, "search_history"); err != nil {
		t.Fatalf("failed to delete blob: %v", err)
	}
	if _, ok, _ := db.Get(ctx, "search_history"); ok {
		t.Error("expected blob to be deleted")
	}
}

func TestStoreAndListProducts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	rating := 4.5
	discount := 10.0
	sales := 12
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	products := []types.Product{
		{
			ID:          "p-2",
			Name:        "Red Shoe",
			Description: "Leather running shoe",
			Category:    "shoes",
			Brand:       "Acme",
			Tags:        []string{"sport", "leather"},
			Price:       decimal.NewFromInt(100000),
			Rating:      &rating,
			Stock:       5,
			Discount:    &discount,
			CreatedAt:   &created,
			Sales:       &sales,
		},
		{
			ID:       "p-1",
			Name:     "Blue Shoe",
			Category: "shoes",
			Price:    decimal.RequireFromString("49999.50"),
		},
	}

	if err := db.StoreProducts(ctx, products); err != nil {
		t.Fatalf("failed to store products: %v", err)
	}

	// Updating an existing product must not move it in the catalog
	products[0].Stock = 3
	if err := db.StoreProducts(ctx, products[:1]); err != nil {
		t.Fatalf("failed to update product: %v", err)
	}

	got, err := db.Products(ctx)
	if err != nil {
		t.Fatalf("failed to list products: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}
	if got[0].ID != "p-2" || got[1].ID != "p-1" {
		t.Errorf("expected insertion order p-2, p-1, got %s, %s", got[0].ID, got[1].ID)
	}

	red := got[0]
	if red.Stock != 3 {
		t.Errorf("expected updated stock 3, got %d", red.Stock)
	}
	if !red.Price.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("expected price 100000, got %s", red.Price)
	}
	if red.Rating == nil || *red.Rating != rating {
		t.Errorf("expected rating %v, got %v", rating, red.Rating)
	}
	if red.CreatedAt == nil || !red.CreatedAt.Equal(created) {
		t.Errorf("expected created %v, got %v", created, red.CreatedAt)
	}
	if len(red.Tags) != 2 || red.Tags[0] != "sport" {
		t.Errorf("unexpected tags %v", red.Tags)
	}

	blue := got[1]
	if blue.Rating != nil || blue.Discount != nil || blue.Sales != nil || blue.CreatedAt != nil {
		t.Errorf("expected absent optional fields to stay nil: %+v", blue)
	}
	if !blue.Price.Equal(decimal.RequireFromString("49999.5")) {
		t.Errorf("expected price 49999.5, got %s", blue.Price)
	}

	count, err := db.CountProducts(ctx)
	if err != nil {
		t.Fatalf("failed to count products: %v", err)
	}
	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}

	categories, err := db.GetCategories(ctx)
	if err != nil {
		t.Fatalf("failed to get categories: %v", err)
	}
	if len(categories) != 1 || categories[0].Category != "shoes" || categories[0].Count != 2 {
		t.Errorf("unexpected categories %+v", categories)
	}

	if err := db.DeleteProducts(ctx); err != nil {
		t.Fatalf("failed to delete products: %v", err)
	}
	count, _ = db.CountProducts(ctx)
	if count != 0 {
		t.Errorf("expected empty catalog, got %d", count)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	// Opening a second connection on the same directory re-runs ApplyMigrations
	again, err := New(filepath.Dir(db.Path()), log.New(io.Discard))
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	defer again.Close()

	var applied int
	if err := again.DB().QueryRow(`SELECT COUNT(*) FROM migrations`).Scan(&applied); err != nil {
		t.Fatalf("failed to count migrations: %v", err)
	}
	if applied != len(migrations) {
		t.Errorf("expected %d applied migrations, got %d", len(migrations), applied)
	}
}
