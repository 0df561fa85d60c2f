// Package profile provides the derived per-user preference aggregate that is
// incrementally rebuilt from each new behavior log entry.
package profile

// PriceRange bounds the prices a user has shown interest in.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Preferences holds accumulated interest signals. Brands and styles are
// reserved for future strategies and are not consulted today.
type Preferences struct {
	Categories map[string]int `json:"categories"`
	PriceRange PriceRange     `json:"priceRange"`
	Brands     []string       `json:"brands,omitempty"`
	Styles     []string       `json:"styles,omitempty"`
}

// BehaviorStats are monotonically increasing activity counters.
type BehaviorStats struct {
	TotalViews     int   `json:"totalViews"`
	TotalPurchases int   `json:"totalPurchases"`
	LastActivity   int64 `json:"lastActivity"`
}

// UserProfile is keyed by user id. Exactly one profile exists per user;
// profiles are updated in place and never removed.
type UserProfile struct {
	UserID      string        `json:"userId"`
	Preferences Preferences   `json:"preferences"`
	Behavior    BehaviorStats `json:"behavior"`
	Segments    []string      `json:"segments,omitempty"`
}

// NewUserProfile creates an empty profile with the default price range.
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID: userID,
		Preferences: Preferences{
			Categories: make(map[string]int),
			PriceRange: PriceRange{Min: 0, Max: 1000},
		},
	}
}
