// Package catalog provides domain entities for the static product catalog.
package catalog

// Product represents a single catalog item. The catalog is loaded once at
// startup and treated as an ordered, immutable list for the lifetime of the
// process.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Rating      float64 `json:"rating"`
	Reviews     int     `json:"reviews"`
	Image       string  `json:"image,omitempty"`
}
