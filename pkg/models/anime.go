package models

import "slices"

// anime record normalised from the catalog, stored in the three lists

// ReleaseYearUnknown is stored when the catalog has no season year.
const ReleaseYearUnknown = "N/A"

// Anime is the canonical catalog entry. ID is the only identity key.
type Anime struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	PosterURL   string   `json:"poster_url"`
	BannerURL   string   `json:"banner_url,omitempty"`
	Rating      float64  `json:"rating"`       // 0.0 - 10.0
	ReleaseYear string   `json:"release_year"` // "2024" or "N/A"
	Episodes    *int     `json:"episode_count,omitempty"`
	Genres      []string `json:"genres"`
	Status      string   `json:"status"` // RELEASING, FINISHED, ...
	Format      string   `json:"format"` // TV, MOVIE, OVA, ...
}

// Clone returns a copy that shares no slices or pointers with a.
func (a Anime) Clone() Anime {
	c := a
	if a.Episodes != nil {
		ep := *a.Episodes
		c.Episodes = &ep
	}
	c.Genres = slices.Clone(a.Genres)
	return c
}
