package services_test

import (
	"testing"

	"github.com/merchstack/merchstack-go/internal/domain/entities/catalog"
	"github.com/merchstack/merchstack-go/internal/domain/services"
)

func TestSimilarityScoreSymmetry(t *testing.T) {
	products := []*catalog.Product{
		{ID: "a", Category: "men", Price: 29.99, Rating: 4.5},
		{ID: "b", Category: "men", Price: 34.99, Rating: 4.2},
		{ID: "c", Category: "accessories", Price: 299.99, Rating: 4.8},
		{ID: "d", Category: "women", Price: 0, Rating: 0},
	}

	for _, a := range products {
		for _, b := range products {
			ab := services.SimilarityScore(a, b)
			ba := services.SimilarityScore(b, a)
			if ab != ba {
				t.Errorf("SimilarityScore(%s, %s) = %v but SimilarityScore(%s, %s) = %v", a.ID, b.ID, ab, b.ID, a.ID, ba)
			}
		}
	}
}

func TestSimilarityScoreRange(t *testing.T) {
	a := &catalog.Product{ID: "a", Category: "men", Price: 10, Rating: 5}
	b := &catalog.Product{ID: "b", Category: "women", Price: 10000, Rating: 0}
	score := services.SimilarityScore(a, b)
	if score < 0 || score > 1 {
		t.Errorf("SimilarityScore = %v, want value in [0, 1]", score)
	}
}

func TestSimilarityScoreBothFree(t *testing.T) {
	a := &catalog.Product{ID: "a", Category: "men", Price: 0, Rating: 4}
	b := &catalog.Product{ID: "b", Category: "men", Price: 0, Rating: 4}
	if got := services.SimilarityScore(a, b); got != 1 {
		t.Errorf("SimilarityScore of identical free products = %v, want 1", got)
	}
}

func TestSimilarityCloseProductsBeatDistantOne(t *testing.T) {
	// Two shirts share a category and sit within $5 of each other; the
	// watch is another category at ten times the price.
	shirtA := &catalog.Product{ID: "shirt-a", Category: "men", Price: 29.99, Rating: 4.5}
	shirtB := &catalog.Product{ID: "shirt-b", Category: "men", Price: 32.99, Rating: 4.3}
	watch := &catalog.Product{ID: "watch", Category: "accessories", Price: 299.99, Rating: 4.8}

	closeScore := services.SimilarityScore(shirtA, shirtB)
	if distant := services.SimilarityScore(shirtA, watch); closeScore <= distant {
		t.Errorf("similarity(shirtA, shirtB) = %v, want greater than similarity(shirtA, watch) = %v", closeScore, distant)
	}
	if distant := services.SimilarityScore(shirtB, watch); closeScore <= distant {
		t.Errorf("similarity(shirtA, shirtB) = %v, want greater than similarity(shirtB, watch) = %v", closeScore, distant)
	}
}
