package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter registers every route on a fresh gin engine.
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(logger.Named("http")))
	r.Use(gin.Recovery())

	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	api.GET("/route", h.Route)

	ready := api.Group("", RequireReady(h.store))
	{
		ready.GET("/state", h.State)

		ready.POST("/auth/login", h.Login)
		ready.POST("/auth/register", h.Register)
		ready.POST("/auth/logout", h.Logout)

		ready.GET("/catalog/trending", h.Trending)
		ready.GET("/catalog/search", h.Search)
	}

	signedIn := ready.Group("", RequireAuth(h.store))
	{
		signedIn.PUT("/profile", h.UpdateProfile)
		signedIn.GET("/stats", h.Stats)

		signedIn.GET("/lists/:list", h.GetList)
		signedIn.POST("/lists/:list", h.AddToList)
		signedIn.DELETE("/lists/:list/:id", h.RemoveFromList)
		signedIn.POST("/lists/:list/move", h.Move)
		signedIn.POST("/favorites/toggle", h.ToggleFavorite)
	}

	return r
}
