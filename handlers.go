package main

import (
	"errors"
	"net/http"
	"strconv"

	"finledger/pkg/identity"
	"finledger/pkg/ledger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// server holds what the handlers share. It is built once at startup.
type server struct {
	db   *gorm.DB
	repo *ledger.Repository
	ids  *identity.Provider
	log  zerolog.Logger
}

func newServer(db *gorm.DB, repo *ledger.Repository, ids *identity.Provider, log zerolog.Logger) *server {
	return &server{db: db, repo: repo, ids: ids, log: log}
}

// kindPaths maps each record kind to its collection path.
var kindPaths = map[ledger.Kind]string{
	ledger.KindSaving:     "/savings",
	ledger.KindExpense:    "/expenses",
	ledger.KindInvestment: "/investments",
}

func newRouter(s *server) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.log), gin.Recovery())
	setupRoutes(r, s)
	return r
}

func setupRoutes(r *gin.Engine, s *server) {
	r.GET("/healthz", s.healthHandler)
	r.GET("/catalog", catalogHandler)

	auth := r.Group("/auth")
	auth.POST("/register", s.registerHandler)
	auth.POST("/login", s.loginHandler)
	auth.POST("/refresh", s.refreshHandler)
	auth.POST("/revoke", s.revokeHandler)

	authGroup := r.Group("")
	authGroup.Use(s.authMiddleware())
	authGroup.GET("/me", s.meHandler)
	authGroup.GET("/dashboard", s.dashboardHandler)
	for _, k := range ledger.Kinds {
		g := authGroup.Group(kindPaths[k])
		g.GET("", s.listHandler(k))
		g.POST("", s.createHandler(k))
		g.GET("/:id", s.getHandler(k))
		g.PATCH("/:id", s.updateHandler(k))
		g.DELETE("/:id", s.deleteHandler(k))
	}
}

// recordRequest is the JSON body of create and update calls. Absent keys stay nil. Amount
// accepts a JSON number or a decimal string.
type recordRequest struct {
	Name        *string          `json:"name"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    *string          `json:"currency"`
	Type        *string          `json:"type"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	Date        *string          `json:"date"`
}

func (req recordRequest) fields() (ledger.Fields, error) {
	f := ledger.Fields{
		Name:        req.Name,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Type:        req.Type,
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Date != nil && *req.Date != "" {
		d, err := ledger.ParseDate(*req.Date)
		if err != nil {
			return ledger.Fields{}, err
		}
		f.Date = &d
	}
	return f, nil
}

func bindFields(c *gin.Context) (ledger.Fields, bool) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return ledger.Fields{}, false
	}
	f, err := req.fields()
	if err != nil {
		writeError(c, err)
		return ledger.Fields{}, false
	}
	return f, true
}

func (s *server) listHandler(k ledger.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := s.repo.List(c.Request.Context(), k)
		if err != nil {
			writeError(c, err)
			return
		}
		if recs == nil {
			recs = []ledger.Record{}
		}
		c.JSON(http.StatusOK, recs)
	}
}

func (s *server) createHandler(k ledger.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, ok := bindFields(c)
		if !ok {
			return
		}
		rec, err := s.repo.Create(c.Request.Context(), k, f)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rec)
	}
}

func (s *server) getHandler(k ledger.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := s.repo.Get(c.Request.Context(), k, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func (s *server) updateHandler(k ledger.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, ok := bindFields(c)
		if !ok {
			return
		}
		rec, err := s.repo.Update(c.Request.Context(), k, c.Param("id"), f)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func (s *server) deleteHandler(k ledger.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.repo.Delete(c.Request.Context(), k, c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": string(k) + " deleted"})
	}
}

func (s *server) dashboardHandler(c *gin.Context) {
	limit := ledger.DefaultRecentLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 2*ledger.RecentPerKind {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number between 1 and 10"})
			return
		}
		limit = n
	}
	d, err := s.repo.Dashboard(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func catalogHandler(c *gin.Context) {
	c.JSON(http.StatusOK, ledger.DefaultCatalog())
}

func (s *server) healthHandler(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("database ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps a domain error to its status code and user-visible message.
func writeError(c *gin.Context, err error) {
	var (
		verr *ledger.ValidationError
		nf   *ledger.NotFoundError
		ierr *identity.Error
		serr *ledger.StoreError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, ledger.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.As(err, &ierr):
		c.JSON(http.StatusUnauthorized, gin.H{"error": ierr.Message(), "code": ierr.Code})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
	case errors.As(err, &serr):
		zerolog.Ctx(c.Request.Context()).Error().Err(serr.Err).Str("op", serr.Op).Msg("store failure")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not " + serr.Op})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
