package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coder-gabrielsantos/sigecon-server/internal/http/middleware"
	"github.com/coder-gabrielsantos/sigecon-server/internal/model"
	"github.com/coder-gabrielsantos/sigecon-server/internal/service"
)

type Handler struct {
	contracts *service.ContractService
	orders    *service.OrderService
	users     *service.UserService
	log       zerolog.Logger
}

func NewHandler(
	contracts *service.ContractService,
	orders *service.OrderService,
	users *service.UserService,
	log zerolog.Logger,
) *Handler {
	return &Handler{contracts: contracts, orders: orders, users: users, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.POST("/auth/login", h.login)

	protected := router.Group("/")
	protected.Use(authMiddleware)

	users := protected.Group("/usuarios")
	users.POST("", middleware.RequireRole(model.RoleAdmin), h.createUser)
	users.GET("", middleware.RequireRole(model.RoleAdmin), h.listUsers)
	users.GET("/me", h.profile)
	users.PUT("/me/senha", h.changePassword)
	users.PUT("/me/nome", h.changeName)

	contracts := protected.Group("/contracts")
	contracts.GET("", h.listContracts)
	contracts.POST("", h.createContract)
	contracts.POST("/import", h.importContract)
	contracts.GET("/:id", h.getContract)
	contracts.PUT("/:id", h.updateContract)
	contracts.DELETE("/:id", h.deleteContract)
	contracts.PUT("/:id/items", h.upsertContractItem)
	contracts.DELETE("/:id/items/:itemNo", h.deleteContractItem)

	orders := protected.Group("/orders")
	orders.GET("", h.listOrders)
	orders.POST("", h.createOrder)
	orders.GET("/:id", h.getOrder)
	orders.PUT("/:id", h.updateOrder)
	orders.DELETE("/:id", h.deleteOrder)
	orders.POST("/:id/xlsx", h.downloadOrderXLSX)
	orders.POST("/:id/pdf", h.downloadOrderPDF)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var budget *service.BudgetError
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &budget):
		c.JSON(http.StatusConflict, gin.H{
			"error":          budget.Error(),
			"contractItemId": budget.ContractItemID,
			"requested":      budget.Requested,
			"available":      budget.Available,
		})
	case errors.Is(err, service.ErrBudgetExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrIntegrity):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func principalOrAbort(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
	}
	return principal, ok
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
