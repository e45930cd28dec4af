package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"animehub/internal/state"
	"animehub/pkg/models"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	dimColor   = color.New(color.FgHiBlack)
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
)

func printAnimeList(w io.Writer, heading string, items []models.Anime) {
	titleColor.Fprintf(w, "%s (%d)\n", heading, len(items))
	fmt.Fprintln(w, "─────────────────────────────────────────────────────────")
	if len(items) == 0 {
		dimColor.Fprintln(w, "  nothing here yet")
		return
	}
	for i, a := range items {
		printAnime(w, i+1, a)
	}
}

func printAnime(w io.Writer, n int, a models.Anime) {
	fmt.Fprintf(w, "%2d. %s ", n, a.Title)
	dimColor.Fprintf(w, "(ID: %d)\n", a.ID)

	details := []string{a.ReleaseYear, fmt.Sprintf("★ %.1f", a.Rating)}
	if a.Format != "" {
		details = append(details, a.Format)
	}
	if a.Episodes != nil {
		details = append(details, fmt.Sprintf("%d eps", *a.Episodes))
	}
	if a.Status != "" {
		details = append(details, a.Status)
	}
	fmt.Fprintf(w, "    %s\n", strings.Join(details, " · "))
	if len(a.Genres) > 0 {
		dimColor.Fprintf(w, "    %s\n", strings.Join(a.Genres, ", "))
	}
}

func printSession(w io.Writer, s *models.Session) {
	if s == nil {
		warnColor.Fprintln(w, "Not signed in")
		return
	}
	titleColor.Fprintln(w, s.Name)
	fmt.Fprintf(w, "  email: %s\n", s.Email)
	dimColor.Fprintf(w, "  id:    %s\n", s.ID)
}

func printStats(w io.Writer, s state.Stats) {
	titleColor.Fprintln(w, "Your lists")
	fmt.Fprintf(w, "  favorites: %d\n", s.Favorites)
	fmt.Fprintf(w, "  watching:  %d\n", s.Watching)
	fmt.Fprintf(w, "  completed: %d\n", s.Completed)
}
