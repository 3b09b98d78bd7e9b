package band

import "time"

// Band is the tenant unit owning members, songs, setlists, and shows.
type Band struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	LogoPath    string     `json:"logo_path"`
	FoundedOn   *time.Time `json:"founded_on"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateBandInput holds the fields required to create a band.
type CreateBandInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	FoundedOn   *time.Time `json:"founded_on"`
}

// UpdateBandInput holds optional fields for a partial band update.
// All fields are optional; only non-nil fields are applied.
type UpdateBandInput struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	FoundedOn   *time.Time  `json:"founded_on,omitempty"`
}
