package setlist

import "time"

// MasterSetlist is a band-owned, ordered collection of songs.
type MasterSetlist struct {
	ID          string    `json:"id"`
	BandID      string    `json:"band_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	SongCount   int       `json:"song_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateSetlistInput holds the fields required to create a setlist.
type CreateSetlistInput struct {
	BandID      string `json:"band_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateSetlistInput holds optional fields for a partial setlist update.
type UpdateSetlistInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// SetlistSong is a song entry within a setlist with its ordering position.
type SetlistSong struct {
	SongID   string `json:"song_id"`
	Title    string `json:"title"`
	Scale    string `json:"scale,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Position int    `json:"position"`
}
