package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"animehub/internal/auth"
	"animehub/internal/state"
	"animehub/pkg/models"
)

// Catalog is the fail-soft catalog the handlers read from.
type Catalog interface {
	FetchTrending(ctx context.Context) []models.Anime
	Search(ctx context.Context, query string) []models.Anime
	Lookup(ctx context.Context, id int) (models.Anime, bool)
}

type Handler struct {
	store   *state.Store
	catalog Catalog
	auth    auth.Authenticator
	logger  *zap.Logger
}

func NewHandler(store *state.Store, catalog Catalog, authenticator auth.Authenticator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, catalog: catalog, auth: authenticator, logger: logger}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ready": h.store.Ready()})
}

// Route tells the UI shell which screen group to show.
func (h *Handler) Route(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"route": h.store.Snapshot().Route()})
}

func (h *Handler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.store.LoginSuccess(session)
	c.JSON(http.StatusOK, session)
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	session, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.store.LoginSuccess(session)
	c.JSON(http.StatusCreated, session)
}

// Logout always succeeds, signed in or not.
func (h *Handler) Logout(c *gin.Context) {
	h.store.Logout()
	c.Status(http.StatusNoContent)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.store.UpdateProfile(req.Name, req.Email); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.Session())
}

// Trending never fails; a catalog outage yields an empty list.
func (h *Handler) Trending(c *gin.Context) {
	c.JSON(http.StatusOK, CatalogResponse{Items: h.catalog.FetchTrending(c.Request.Context())})
}

// Search serves trending for a blank query.
func (h *Handler) Search(c *gin.Context) {
	q := c.Query("q")
	c.JSON(http.StatusOK, CatalogResponse{Query: q, Items: h.catalog.Search(c.Request.Context(), q)})
}

func (h *Handler) GetList(c *gin.Context) {
	list, ok := h.listParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ListResponse{List: string(list), Items: h.store.List(list)})
}

func (h *Handler) AddToList(c *gin.Context) {
	list, ok := h.listParam(c)
	if !ok {
		return
	}
	anime, ok := h.bindAnime(c)
	if !ok {
		return
	}
	changed := h.store.AddToList(list, anime)
	status := http.StatusOK
	if changed {
		status = http.StatusCreated
	}
	c.JSON(status, ChangeResponse{Changed: changed})
}

func (h *Handler) RemoveFromList(c *gin.Context) {
	list, ok := h.listParam(c)
	if !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		badRequest(c, "invalid anime id")
		return
	}
	c.JSON(http.StatusOK, ChangeResponse{Changed: h.store.RemoveFromList(list, id)})
}

// Move puts an anime in watching or completed and takes it out of the other.
func (h *Handler) Move(c *gin.Context) {
	list, ok := h.listParam(c)
	if !ok {
		return
	}
	if list == state.Favorites {
		badRequest(c, "favorites is toggled, not moved to")
		return
	}
	anime, ok := h.bindAnime(c)
	if !ok {
		return
	}
	if list == state.Watching {
		h.store.MoveToWatching(anime)
	} else {
		h.store.MoveToCompleted(anime)
	}
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *Handler) ToggleFavorite(c *gin.Context) {
	anime, ok := h.bindAnime(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, FavoriteResponse{ID: anime.ID, Favorite: h.store.ToggleFavorite(anime)})
}

func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stats())
}

func (h *Handler) listParam(c *gin.Context) (state.ListName, bool) {
	list, err := state.ParseListName(c.Param("list"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Code: codeNotFound, Error: err.Error()})
		return "", false
	}
	return list, true
}

// bindAnime reads an anime record from the body. A record with only an id
// is filled in from the catalog.
func (h *Handler) bindAnime(c *gin.Context) (models.Anime, bool) {
	var anime models.Anime
	if err := c.ShouldBindJSON(&anime); err != nil {
		badRequest(c, err.Error())
		return models.Anime{}, false
	}
	if anime.ID <= 0 {
		badRequest(c, "anime id is required")
		return models.Anime{}, false
	}
	if anime.Title != "" {
		if anime.Genres == nil {
			anime.Genres = []string{}
		}
		return anime, true
	}

	found, ok := h.catalog.Lookup(c.Request.Context(), anime.ID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{
			Code:  codeNotFound,
			Error: "anime " + strconv.Itoa(anime.ID) + " not found in catalog",
		})
		return models.Anime{}, false
	}
	return found, true
}
