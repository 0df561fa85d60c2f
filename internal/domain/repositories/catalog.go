// Package repositories defines the persistence interfaces consumed by the
// application layer.
package repositories

import "github.com/merchstack/merchstack-go/internal/domain/entities/catalog"

// CatalogRepository yields the static, ordered product catalog the engine is
// built over. Implementations load once; the engine does not expect the
// catalog to change while the process runs.
type CatalogRepository interface {
	All() ([]*catalog.Product, error)
}
