package catalog

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"animehub/pkg/models"
)

// ============================================
// API RESPONSE STRUCTURES
// ============================================

// PageResponse represents a paginated media response
type PageResponse struct {
	Page PageData `json:"Page"`
}

// PageData contains the media list of one page
type PageData struct {
	Media []MediaData `json:"media"`
}

// MediaResponse wraps a single media item
type MediaResponse struct {
	Media *MediaData `json:"Media"`
}

// MediaData represents an anime entry from AniList. Every optional field is a
// pointer so a missing value can be told apart from a zero one.
type MediaData struct {
	ID           int        `json:"id"`
	Title        TitleData  `json:"title"`
	CoverImage   CoverImage `json:"coverImage"`
	BannerImage  *string    `json:"bannerImage"`
	Description  *string    `json:"description"`
	AverageScore *int       `json:"averageScore"` // 0-100
	Episodes     *int       `json:"episodes"`
	Genres       []string   `json:"genres"`
	SeasonYear   *int       `json:"seasonYear"`
	Status       string     `json:"status"` // FINISHED, RELEASING, NOT_YET_RELEASED, CANCELLED, HIATUS
	Format       string     `json:"format"` // TV, MOVIE, OVA, ...
}

// TitleData contains title variants
type TitleData struct {
	English *string `json:"english"`
	Romaji  *string `json:"romaji"`
	Native  *string `json:"native"`
}

// CoverImage contains cover URLs
type CoverImage struct {
	Large      *string `json:"large"`
	ExtraLarge *string `json:"extraLarge"`
}

// ============================================
// NORMALISATION
// ============================================

const untitled = "Untitled"

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// Normalize maps an AniList media record onto models.Anime. It never fails:
// every missing field resolves to its documented default.
func Normalize(m MediaData) models.Anime {
	anime := models.Anime{
		ID:          m.ID,
		Title:       pickTitle(m.Title),
		ReleaseYear: models.ReleaseYearUnknown,
		Genres:      []string{},
		Status:      m.Status,
		Format:      m.Format,
	}

	if m.Description != nil {
		anime.Overview = CleanDescription(*m.Description)
	}

	// Prefer the largest cover
	if m.CoverImage.ExtraLarge != nil && *m.CoverImage.ExtraLarge != "" {
		anime.PosterURL = *m.CoverImage.ExtraLarge
	} else if m.CoverImage.Large != nil {
		anime.PosterURL = *m.CoverImage.Large
	}

	if m.BannerImage != nil {
		anime.BannerURL = *m.BannerImage
	}

	// 0-100 -> 0-10
	if m.AverageScore != nil {
		anime.Rating = clampRating(float64(*m.AverageScore) / 10.0)
	}

	if m.SeasonYear != nil && *m.SeasonYear > 0 {
		anime.ReleaseYear = fmt.Sprintf("%04d", *m.SeasonYear)
	}

	if m.Episodes != nil {
		ep := *m.Episodes
		anime.Episodes = &ep
	}

	if len(m.Genres) > 0 {
		anime.Genres = append(anime.Genres, m.Genres...)
	}

	return anime
}

// NormalizeAll maps a page of media, always returning a non-nil slice.
func NormalizeAll(media []MediaData) []models.Anime {
	out := make([]models.Anime, 0, len(media))
	for _, m := range media {
		out = append(out, Normalize(m))
	}
	return out
}

// pickTitle prefers English, then Romaji, then Native
func pickTitle(t TitleData) string {
	for _, candidate := range []*string{t.English, t.Romaji, t.Native} {
		if candidate != nil && strings.TrimSpace(*candidate) != "" {
			return strings.TrimSpace(*candidate)
		}
	}
	return untitled
}

// CleanDescription removes HTML tags and decodes entities
func CleanDescription(desc string) string {
	cleaned := htmlTag.ReplaceAllString(desc, "")
	cleaned = html.UnescapeString(cleaned)
	return strings.TrimSpace(cleaned)
}

func clampRating(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 10:
		return 10
	default:
		return r
	}
}
