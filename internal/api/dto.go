package api

import "animehub/pkg/models"

// Data Transfer Objects for the presentation API

// LoginRequest: payload for login. Empty fields are reported by the
// authenticator, not by binding.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest: payload for registration
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileRequest: payload for editing the signed-in profile
type ProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ListResponse: one list with its name
type ListResponse struct {
	List  string         `json:"list"`
	Items []models.Anime `json:"items"`
}

// CatalogResponse: a fail-soft catalog page
type CatalogResponse struct {
	Query string         `json:"query,omitempty"`
	Items []models.Anime `json:"items"`
}

// ChangeResponse: outcome of a list mutation
type ChangeResponse struct {
	Changed bool `json:"changed"`
}

// FavoriteResponse: membership after a toggle
type FavoriteResponse struct {
	ID       int  `json:"id"`
	Favorite bool `json:"favorite"`
}

// ErrorResponse: body of every failed request
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}
