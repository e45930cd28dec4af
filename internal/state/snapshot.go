package state

import "animehub/pkg/models"

// Route is the screen group the presentation layer may show.
type Route string

const (
	RouteLoading Route = "loading" // restoration still running
	RouteAuth    Route = "auth"    // signed out
	RouteApp     Route = "app"     // signed in
)

// Snapshot is a deep copy of the application state.
type Snapshot struct {
	Session         *models.Session `json:"session"`
	IsAuthenticated bool            `json:"is_authenticated"`
	Ready           bool            `json:"ready"`
	Favorites       []models.Anime  `json:"favorites"`
	Watching        []models.Anime  `json:"watching"`
	Completed       []models.Anime  `json:"completed"`
}

func (s Snapshot) Route() Route {
	switch {
	case !s.Ready:
		return RouteLoading
	case s.IsAuthenticated:
		return RouteApp
	default:
		return RouteAuth
	}
}

func (s Snapshot) List(name ListName) []models.Anime {
	switch name {
	case Favorites:
		return s.Favorites
	case Watching:
		return s.Watching
	case Completed:
		return s.Completed
	}
	return nil
}

// Stats counts the entries of each list.
type Stats struct {
	Favorites int `json:"favorites"`
	Watching  int `json:"watching"`
	Completed int `json:"completed"`
}
