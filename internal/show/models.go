package show

import "time"

// Show statuses.
const (
	StatusUpcoming        = "Upcoming"
	StatusCancelled       = "Cancelled"
	StatusDone            = "Done"
	StatusPaymentReceived = "Complete - Payment Received"
)

// ValidStatus reports whether s is one of the recognized show statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusUpcoming, StatusCancelled, StatusDone, StatusPaymentReceived:
		return true
	}
	return false
}

// Show is a band-owned gig at a venue. ShowMembers lists the lineup by name;
// entries can reference roster members or be free text for guest artists.
// Money fields are decimal strings backed by NUMERIC columns.
type Show struct {
	ID             string    `json:"id"`
	BandID         string    `json:"band_id"`
	Venue          string    `json:"venue"`
	ShowDate       time.Time `json:"show_date"`
	ShowTime       string    `json:"show_time,omitempty"`
	EventManager   string    `json:"event_manager,omitempty"`
	ShowMembers    []string  `json:"show_members"`
	Payment        string    `json:"payment,omitempty"`
	BandFundAmount string    `json:"band_fund_amount,omitempty"`
	PieceCount     int       `json:"piece_count,omitempty"`
	Status         string    `json:"status"`
	Poster         string    `json:"poster,omitempty"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateShowInput holds the fields required to create a show.
type CreateShowInput struct {
	BandID         string   `json:"band_id"`
	Venue          string   `json:"venue"`
	ShowDate       string   `json:"show_date"` // YYYY-MM-DD
	ShowTime       string   `json:"show_time"`
	EventManager   string   `json:"event_manager"`
	ShowMembers    []string `json:"show_members"`
	Payment        string   `json:"payment"`
	BandFundAmount string   `json:"band_fund_amount"`
	PieceCount     int      `json:"piece_count"`
	Status         string   `json:"status"`
	Description    string   `json:"description"`
}

// UpdateShowInput holds optional fields for a partial show update.
type UpdateShowInput struct {
	Venue          *string   `json:"venue,omitempty"`
	ShowDate       *string   `json:"show_date,omitempty"`
	ShowTime       *string   `json:"show_time,omitempty"`
	EventManager   *string   `json:"event_manager,omitempty"`
	ShowMembers    *[]string `json:"show_members,omitempty"`
	Payment        *string   `json:"payment,omitempty"`
	BandFundAmount *string   `json:"band_fund_amount,omitempty"`
	PieceCount     *int      `json:"piece_count,omitempty"`
	Status         *string   `json:"status,omitempty"`
	Description    *string   `json:"description,omitempty"`
}

// Payment records one member's cut for a show. MemberName is free text since
// lineups can include guests who are not on the roster.
type Payment struct {
	ID         string    `json:"id"`
	ShowID     string    `json:"show_id"`
	MemberName string    `json:"member_name"`
	Amount     string    `json:"amount"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreatePaymentInput holds the fields required to record a payment.
type CreatePaymentInput struct {
	MemberName string `json:"member_name"`
	Amount     string `json:"amount"`
	Notes      string `json:"notes"`
}

// UpdatePaymentInput holds optional fields for a partial payment update.
type UpdatePaymentInput struct {
	MemberName *string `json:"member_name,omitempty"`
	Amount     *string `json:"amount,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}
