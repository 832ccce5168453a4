package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"finledger/pkg/identity"
	"finledger/pkg/ledger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// requestLogger attaches a request-scoped logger to the request context and logs one line per
// request once it is served.
func requestLogger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		logger := base.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Header("X-Request-ID", requestID)

		c.Next()

		ev := logger.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = logger.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request served")
	}
}

// authMiddleware hands the bearer token to the identity provider and stores the identity it
// resolves to in the request context.
func (s *server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 8 || !strings.EqualFold(authHeader[:7], "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		id, err := s.ids.Verify(c.Request.Context(), strings.TrimSpace(authHeader[7:]))
		if err != nil {
			var ierr *identity.Error
			if errors.As(err, &ierr) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ierr.Message()})
				return
			}
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("verify token")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not verify token"})
			return
		}
		ctx := ledger.WithIdentity(c.Request.Context(), id)
		ctx = zerolog.Ctx(ctx).With().Str("user_id", id.UserID).Logger().WithContext(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *server) meHandler(c *gin.Context) {
	id, ok := ledger.IdentityFrom(c.Request.Context())
	if !ok {
		writeError(c, ledger.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, id)
}

func (s *server) registerHandler(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := s.ids.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		var ierr *identity.Error
		if errors.As(err, &ierr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ierr.Message(), "code": ierr.Code})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "user registered successfully", "user": id})
}

func (s *server) loginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := s.ids.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func (s *server) refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := s.ids.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// revokeHandler revokes a given refresh token (useful on logout)
func (s *server) revokeHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.ids.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
		if identity.IsCode(err, identity.CodeInvalidToken) {
			c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}
