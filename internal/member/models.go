package member

import "time"

// Member is a person on a band's roster. UserID is a weak reference to a
// registered account: empty for guest members (session musicians and the
// like), set once the matching account exists. The member never owns the
// user's lifecycle.
type Member struct {
	ID       string    `json:"id"`
	BandID   string    `json:"band_id"`
	UserID   string    `json:"user_id,omitempty"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	Role     string    `json:"role,omitempty"` // e.g. "Guitarist", "Vocalist", "Manager"
	IsAdmin  bool      `json:"is_admin"`
	IsActive bool      `json:"is_active"`
	JoinedAt time.Time `json:"joined_at"`
}

// CreateMemberInput holds the fields for adding a member to a band.
type CreateMemberInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"is_admin"`
}

// UpdateMemberInput holds optional fields for a partial member update.
// All fields are optional; only non-nil fields are applied.
type UpdateMemberInput struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Role    *string `json:"role,omitempty"`
	IsAdmin *bool   `json:"is_admin,omitempty"`
}
