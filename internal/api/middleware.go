package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"animehub/internal/apperr"
	"animehub/internal/state"
)

const (
	codeNotReady   = "NOT_READY"
	codeBadRequest = "BAD_REQUEST"
	codeNotFound   = "NOT_FOUND"
	codeInternal   = "INTERNAL"
)

// RequireReady rejects requests until restoration has finished.
func RequireReady(store *state.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !store.Ready() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
				Code:  codeNotReady,
				Error: "state is still being restored",
			})
			return
		}
		c.Next()
	}
}

// RequireAuth rejects requests while no user is signed in.
func RequireAuth(store *state.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := store.Session()
		if session == nil {
			abortWithError(c, apperr.ErrNotAuthenticated)
			return
		}
		c.Set("userID", session.ID)
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request", fields...)
			return
		}
		logger.Debug("request", fields...)
	}
}

// abortWithError writes err as an ErrorResponse. Errors outside the apperr
// taxonomy become a generic 500.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Code:  codeInternal,
			Error: "internal error",
		})
		return
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(appErr.Code), ErrorResponse{
		Code:  string(appErr.Code),
		Error: appErr.Message,
	})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Code: codeBadRequest, Error: message})
}
