package song

import "time"

// Song is a band-owned song with lyric and chord content.
type Song struct {
	ID               string    `json:"id"`
	BandID           string    `json:"band_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Scale            string    `json:"scale,omitempty"` // e.g. "C Major", "G Minor"
	Genre            string    `json:"genre,omitempty"`
	Lyrics           string    `json:"lyrics,omitempty"`
	ChordStructure   string    `json:"chord_structure,omitempty"`
	LyricsWithChords string    `json:"lyrics_with_chords,omitempty"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateSongInput holds the fields required to create a song. SetlistIDs,
// when present, attach the new song to those setlists.
type CreateSongInput struct {
	BandID           string   `json:"band_id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Scale            string   `json:"scale"`
	Genre            string   `json:"genre"`
	Lyrics           string   `json:"lyrics"`
	ChordStructure   string   `json:"chord_structure"`
	LyricsWithChords string   `json:"lyrics_with_chords"`
	SetlistIDs       []string `json:"setlist_ids"`
}

// UpdateSongInput holds optional fields for a partial song update.
type UpdateSongInput struct {
	Title            *string `json:"title,omitempty"`
	Description      *string `json:"description,omitempty"`
	Scale            *string `json:"scale,omitempty"`
	Genre            *string `json:"genre,omitempty"`
	Lyrics           *string `json:"lyrics,omitempty"`
	ChordStructure   *string `json:"chord_structure,omitempty"`
	LyricsWithChords *string `json:"lyrics_with_chords,omitempty"`
}

// SetlistBrief is the compact setlist view attached to a song.
type SetlistBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
