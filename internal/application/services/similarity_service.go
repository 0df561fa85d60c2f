package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/merchstack/merchstack-go/internal/domain/entities/catalog"
	"github.com/merchstack/merchstack-go/internal/domain/repositories"
	"github.com/merchstack/merchstack-go/internal/domain/services"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/performance"
)

// SimilarProduct pairs a catalog product with its similarity to a reference
// product.
type SimilarProduct struct {
	Product *catalog.Product
	Score   float64
}

// SimilarityService holds the catalog and the full pairwise similarity
// matrix, computed eagerly at construction. The O(n^2) cost is acceptable
// because the catalog is small and static; Rebuild exists for the case
// where the catalog source changes under a running process.
type SimilarityService struct {
	mu       sync.RWMutex
	products []*catalog.Product
	byID     map[string]*catalog.Product
	matrix   map[string]map[string]float64

	repo        repositories.CatalogRepository
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewSimilarityService loads the catalog and computes the similarity matrix.
// An empty or unloadable catalog fails construction; the engine cannot run
// without one.
func NewSimilarityService(repo repositories.CatalogRepository, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) (*SimilarityService, error) {
	s := &SimilarityService{
		repo:        repo,
		logger:      logger,
		perfTracker: perfTracker,
	}
	if err := s.Rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

// Rebuild reloads the catalog and recomputes the full similarity matrix.
func (s *SimilarityService) Rebuild() error {
	marker := s.perfTracker.StartOperation("similarity_rebuild")
	defer marker.Complete()

	products, err := s.repo.All()
	if err != nil {
		marker.SetError(err)
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	if len(products) == 0 {
		err := fmt.Errorf("catalog is empty")
		marker.SetError(err)
		return err
	}

	byID := make(map[string]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	matrix := make(map[string]map[string]float64, len(products))
	for _, a := range products {
		row := make(map[string]float64, len(products)-1)
		for _, b := range products {
			if a.ID == b.ID {
				continue
			}
			row[b.ID] = services.SimilarityScore(a, b)
		}
		matrix[a.ID] = row
	}

	s.mu.Lock()
	s.products = products
	s.byID = byID
	s.matrix = matrix
	s.mu.Unlock()

	marker.AddMetadata("products", len(products))
	marker.SetSuccess(true)
	s.logger.Recommend().Info("Built similarity matrix", "products", len(products))
	return nil
}

// Products returns the catalog in its stable original order.
func (s *SimilarityService) Products() []*catalog.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products
}

// Product looks up a catalog product by id.
func (s *SimilarityService) Product(id string) (*catalog.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	return p, ok
}

// ProductsInCategory returns catalog products in the given category,
// preserving catalog order.
func (s *SimilarityService) ProductsInCategory(category string) []*catalog.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*catalog.Product
	for _, p := range s.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Score returns the similarity between two products, 0 when either id is
// unknown.
func (s *SimilarityService) Score(aID, bID string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matrix[aID][bID]
}

// TopSimilar returns up to limit products most similar to the given one,
// descending by score with catalog order breaking ties.
func (s *SimilarityService) TopSimilar(productID string, limit int) []SimilarProduct {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.matrix[productID]
	if !ok {
		return nil
	}

	ranked := make([]SimilarProduct, 0, len(row))
	for _, p := range s.products {
		if score, ok := row[p.ID]; ok {
			ranked = append(ranked, SimilarProduct{Product: p, Score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
