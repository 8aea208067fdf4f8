package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coder-gabrielsantos/sigecon-server/internal/model"
	"github.com/coder-gabrielsantos/sigecon-server/internal/service"
)

type orderLineRequest struct {
	ContractItemID string      `json:"contractItemId"`
	Quantity       interface{} `json:"quantity"`
}

type createOrderRequest struct {
	ContractID      string             `json:"contractId"`
	OrderType       string             `json:"orderType"`
	OrderNumber     *string            `json:"orderNumber"`
	IssueDate       *string            `json:"issueDate"`
	ReferencePeriod *string            `json:"referencePeriod"`
	Justification   *string            `json:"justification"`
	Items           []orderLineRequest `json:"items"`
}

func (h *Handler) createOrder(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contractID, err := uuid.Parse(strings.TrimSpace(req.ContractID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contractId"})
		return
	}

	input := service.CreateOrderInput{
		ContractID:      contractID,
		OrderType:       strings.TrimSpace(req.OrderType),
		OrderNumber:     trimOptional(req.OrderNumber),
		ReferencePeriod: trimOptional(req.ReferencePeriod),
		Justification:   trimOptional(req.Justification),
	}
	if req.IssueDate != nil && strings.TrimSpace(*req.IssueDate) != "" {
		parsed, err := parseDate(*req.IssueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issueDate"})
			return
		}
		input.IssueDate = &parsed
	}

	// Lines with an unparseable id are dropped here, the same way the
	// service drops lines referencing unknown contract items.
	for _, line := range req.Items {
		itemID, err := uuid.Parse(strings.TrimSpace(line.ContractItemID))
		if err != nil {
			continue
		}
		input.Items = append(input.Items, service.OrderLineInput{
			ContractItemID: itemID,
			Quantity:       line.Quantity,
		})
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), input, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) listOrders(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) getOrder(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type updateOrderLineRequest struct {
	OrderItemID string      `json:"orderItemId"`
	Quantity    interface{} `json:"quantity"`
}

type updateOrderRequest struct {
	Items []updateOrderLineRequest `json:"items"`
}

func (h *Handler) updateOrder(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lines := make([]service.UpdateOrderLineInput, 0, len(req.Items))
	for _, line := range req.Items {
		itemID, err := uuid.Parse(strings.TrimSpace(line.OrderItemID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid orderItemId"})
			return
		}
		lines = append(lines, service.UpdateOrderLineInput{
			OrderItemID: itemID,
			Quantity:    line.Quantity,
		})
	}

	order, err := h.orders.UpdateOrder(c.Request.Context(), id, lines, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) deleteOrder(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.orders.DeleteOrder(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

const spreadsheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) downloadOrderXLSX(c *gin.Context) {
	h.downloadOrder(c, spreadsheetContentType, h.orders.ExportXLSX)
}

func (h *Handler) downloadOrderPDF(c *gin.Context) {
	h.downloadOrder(c, "application/pdf", h.orders.ExportPDF)
}

type exportFunc func(ctx context.Context, orderID uuid.UUID, principal model.Principal) (*service.ExportResult, error)

func (h *Handler) downloadOrder(c *gin.Context, contentType string, export exportFunc) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := export(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentType, result.Content)
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
