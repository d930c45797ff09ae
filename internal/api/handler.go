package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"invoice-desk/internal/apiclient"
	"invoice-desk/internal/cart"
	"invoice-desk/internal/catalog"
	"invoice-desk/internal/customer"
	"invoice-desk/internal/invoice"
	"invoice-desk/internal/models"
	"invoice-desk/internal/service"
	"invoice-desk/internal/session"
	"invoice-desk/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	ctxDesk    = "desk"
	ctxSession = "session"
)

// Signupper registers new shops with the remote service
type Signupper interface {
	Signup(ctx context.Context, req models.SignupRequest) error
}

// ReadinessCheck reports whether a dependency is usable
type ReadinessCheck func(ctx context.Context) error

// Handler contains HTTP handlers
type Handler struct {
	desks    *service.DeskService
	sessions *session.Manager
	signup   Signupper
	checks   map[string]ReadinessCheck
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(desks *service.DeskService, sessions *session.Manager, signup Signupper) *Handler {
	return &Handler{
		desks:    desks,
		sessions: sessions,
		signup:   signup,
		checks:   map[string]ReadinessCheck{},
		logger:   util.GetLogger(),
	}
}

// AddReadinessCheck registers a dependency probed by /ready
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", h.login)
		v1.POST("/auth/signup", h.signupShop)
	}

	authed := v1.Group("")
	authed.Use(h.authMiddleware())
	{
		authed.POST("/auth/logout", h.logout)
		authed.GET("/auth/session", h.currentSession)

		authed.GET("/catalog", h.getCatalog)
		authed.POST("/catalog/reload", h.reloadCatalog)
		authed.POST("/catalog/items", h.addItem)
		authed.PATCH("/catalog/items/:id", h.updateItem)
		authed.DELETE("/catalog/items/:id", h.deleteItem)
		authed.POST("/catalog/import", h.importItems)

		authed.GET("/cart", h.getCart)
		authed.POST("/cart/items", h.addCartItem)
		authed.PATCH("/cart/items/:id", h.updateCartItem)
		authed.DELETE("/cart/items/:id", h.removeCartItem)

		authed.GET("/customer", h.getCustomerDraft)
		authed.POST("/customer/select", h.selectCustomer)
		authed.PATCH("/customer", h.editCustomerDraft)

		authed.GET("/customers", h.listCustomers)
		authed.POST("/customers", h.createCustomer)
		authed.PATCH("/customers/:id", h.updateCustomer)
		authed.DELETE("/customers/:id", h.deleteCustomer)

		authed.POST("/invoices/submit", h.submitInvoice)
		authed.GET("/invoices", h.listInvoices)
		authed.GET("/invoices/submissions", h.listSubmissions)
		authed.PATCH("/invoices/:id/status", h.updateInvoiceStatus)
		authed.DELETE("/invoices/:id", h.deleteInvoice)
		authed.GET("/invoices/:id/pdf", h.invoicePDF)

		authed.GET("/reports/summary", h.reportSummary)
		authed.GET("/reports/daily", h.dailySales)
		authed.GET("/reports/tally", h.tally)
		authed.GET("/reports/submissions", h.submissionStats)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck probes every registered dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// authMiddleware resolves the bearer token to a session and its desk
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			return
		}

		rec, err := h.sessions.Restore(c.Request.Context(), strings.TrimSpace(header[len("bearer "):]))
		if err != nil {
			if errors.Is(err, session.ErrInvalidToken) || errors.Is(err, session.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
				return
			}
			h.logger.Error("Session restore failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore session"})
			return
		}

		c.Set(ctxSession, rec)
		c.Set(ctxDesk, h.desks.OpenDesk(rec.ID, rec.User))
		c.Next()
	}
}

func deskFrom(c *gin.Context) *service.Desk {
	return c.MustGet(ctxDesk).(*service.Desk)
}

func sessionFrom(c *gin.Context) *session.Record {
	return c.MustGet(ctxSession).(*session.Record)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return false
	}
	return true
}

// respondError maps an error to a status code and a user-facing message.
// fallback is shown when the error carries no message of its own.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status, message := classify(err, fallback)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": message})
}

func classify(err error, fallback string) (int, string) {
	var (
		submitErr *invoice.SubmitError
		apiErr    *apiclient.APIError
		urlErr    *url.Error
	)

	message := apiclient.MessageOf(err, fallback)
	if errors.As(err, &submitErr) && submitErr.Message != "" {
		message = submitErr.Message
	}

	switch {
	case errors.Is(err, cart.ErrCartEmpty),
		errors.Is(err, customer.ErrCustomerNameRequired),
		errors.Is(err, customer.ErrUnknownField),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidItem),
		errors.Is(err, service.ErrInvalidCSV):
		return http.StatusUnprocessableEntity, err.Error()

	case errors.Is(err, invoice.ErrSubmissionInProgress),
		errors.Is(err, catalog.ErrSearchSuperseded),
		errors.Is(err, service.ErrImportInProgress):
		return http.StatusConflict, err.Error()

	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrNotInCart):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, message

	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode, message
		}
		return http.StatusBadGateway, message

	case submitErr != nil, errors.As(err, &urlErr):
		return http.StatusBadGateway, message
	}

	return http.StatusInternalServerError, message
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
