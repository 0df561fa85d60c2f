// Package catalog provides the SQL-backed catalog repository. The product
// table is read once at startup; when it is empty a small demo catalog is
// seeded so a fresh install has something to recommend.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	entities "github.com/merchstack/merchstack-go/internal/domain/entities/catalog"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// SQLRepository loads the product catalog from a products table.
type SQLRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

// NewSQLRepository opens the catalog database and ensures the products
// table exists, seeding the demo catalog when it is empty.
func NewSQLRepository(driverName, dataSourceName string, logger *logging.ChanneledLogger) (*SQLRepository, error) {
	start := time.Now()
	logger.Store().Debug("Opening catalog database", "driverName", driverName)

	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("catalog database ping failed: %w", err)
	}

	repo := &SQLRepository{db: db, logger: logger}
	if err := repo.ensureSchema(); err != nil {
		return nil, err
	}
	if err := repo.seedIfEmpty(); err != nil {
		return nil, err
	}

	logger.Store().Info("Catalog database ready", "driverName", driverName, "duration", time.Since(start))
	return repo, nil
}

func (r *SQLRepository) ensureSchema() error {
	const schema = `
		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL,
			price REAL NOT NULL,
			rating REAL NOT NULL DEFAULT 0,
			reviews INTEGER NOT NULL DEFAULT 0,
			image TEXT NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL DEFAULT 0
		)`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create products table: %w", err)
	}
	return nil
}

func (r *SQLRepository) seedIfEmpty() error {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	r.logger.Store().Info("Products table empty, seeding demo catalog", "count", len(DemoCatalog))

	const insert = `
		INSERT INTO products (id, name, description, category, price, rating, reviews, image, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i, p := range DemoCatalog {
		if _, err := r.db.Exec(insert, p.ID, p.Name, p.Description, p.Category, p.Price, p.Rating, p.Reviews, p.Image, i); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}
	return nil
}

// All returns the catalog in stable sort order.
func (r *SQLRepository) All() ([]*entities.Product, error) {
	start := time.Now()

	rows, err := r.db.Query(`
		SELECT id, name, description, category, price, rating, reviews, image
		FROM products
		ORDER BY sort_order, id`)
	if err != nil {
		r.logger.Store().Error("Failed to query products", "error", err.Error())
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*entities.Product
	for rows.Next() {
		var p entities.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Rating, &p.Reviews, &p.Image); err != nil {
			r.logger.Store().Error("Failed to scan product row", "error", err.Error())
			continue
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Store().Error("Row iteration error for products", "error", err.Error())
		return nil, err
	}

	r.logger.Store().Info("Catalog loaded", "count", len(products), "duration", time.Since(start))
	return products, nil
}

// Close releases the underlying database handle.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// StaticRepository serves a fixed product list. Used by tests and by hosts
// that supply the catalog directly.
type StaticRepository struct {
	products []*entities.Product
}

// NewStaticRepository wraps an ordered product list.
func NewStaticRepository(products []*entities.Product) *StaticRepository {
	return &StaticRepository{products: products}
}

// All returns the wrapped product list.
func (r *StaticRepository) All() ([]*entities.Product, error) {
	return r.products, nil
}
