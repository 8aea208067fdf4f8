package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coder-gabrielsantos/sigecon-server/internal/model"
	"github.com/coder-gabrielsantos/sigecon-server/internal/service"
)

// importContractRequest is the raw extractor payload. Number and
// supplier arrive under either the Portuguese or the English key,
// depending on the extractor version.
type importContractRequest struct {
	FileName   string        `json:"fileName"`
	Number     string        `json:"number"`
	Numero     string        `json:"numero"`
	Supplier   string        `json:"supplier"`
	Fornecedor string        `json:"fornecedor"`
	Columns    []string      `json:"columns"`
	Rows       []interface{} `json:"rows"`
}

func (h *Handler) importContract(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var req importContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	number := req.Number
	if number == "" {
		number = req.Numero
	}
	supplier := req.Supplier
	if supplier == "" {
		supplier = req.Fornecedor
	}

	contract, err := h.contracts.ImportFromExtraction(c.Request.Context(), service.Extraction{
		Number:   number,
		Supplier: supplier,
		Columns:  req.Columns,
		Rows:     req.Rows,
	}, req.FileName, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

type createContractRequest struct {
	Number    string  `json:"number"`
	Supplier  *string `json:"supplier"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

func (h *Handler) createContract(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.CreateContractInput{
		Number:   strings.TrimSpace(req.Number),
		Supplier: req.Supplier,
	}
	if req.StartDate != nil {
		parsed, err := parseDate(*req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate"})
			return
		}
		input.StartDate = &parsed
	}
	if req.EndDate != nil {
		parsed, err := parseDate(*req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDate"})
			return
		}
		input.EndDate = &parsed
	}

	contract, err := h.contracts.CreateContract(c.Request.Context(), input, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

func (h *Handler) listContracts(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	contracts, err := h.contracts.ListContracts(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contracts)
}

func (h *Handler) getContract(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	contract, err := h.contracts.GetContract(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// updateContractRequest distinguishes an absent field from an explicit
// null: nil RawMessage means untouched, literal null clears the value.
type updateContractRequest struct {
	Number    *string         `json:"number"`
	Supplier  json.RawMessage `json:"supplier"`
	StartDate json.RawMessage `json:"startDate"`
	EndDate   json.RawMessage `json:"endDate"`
}

func (h *Handler) updateContract(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req updateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := model.ContractPatch{Number: req.Number}

	supplier, ok, err := decodeNullableString(req.Supplier)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier"})
		return
	}
	if ok {
		patch.Supplier = &supplier
	}

	start, ok, err := decodeNullableDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate"})
		return
	}
	if ok {
		patch.StartDate = &start
	}

	end, ok, err := decodeNullableDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDate"})
		return
	}
	if ok {
		patch.EndDate = &end
	}

	contract, err := h.contracts.UpdateContract(c.Request.Context(), id, patch, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) deleteContract(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.contracts.DeleteContract(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type upsertContractItemRequest struct {
	ItemNo      interface{} `json:"itemNo"`
	Description *string     `json:"description"`
	Unit        *string     `json:"unit"`
	Quantity    interface{} `json:"quantity"`
	UnitPrice   interface{} `json:"unitPrice"`
	TotalPrice  interface{} `json:"totalPrice"`
}

func (h *Handler) upsertContractItem(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req upsertContractItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.contracts.UpsertItem(c.Request.Context(), id, service.UpsertItemInput{
		ItemNo:      req.ItemNo,
		Description: req.Description,
		Unit:        req.Unit,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		TotalPrice:  req.TotalPrice,
	}, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) deleteContractItem(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	itemNo, err := strconv.Atoi(strings.TrimSpace(c.Param("itemNo")))
	if err != nil || itemNo <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid itemNo"})
		return
	}

	contract, err := h.contracts.DeleteItem(c.Request.Context(), id, itemNo, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// decodeNullableString returns (value, present, error). A literal JSON
// null yields a nil value with present true.
func decodeNullableString(raw json.RawMessage) (*string, bool, error) {
	if raw == nil {
		return nil, false, nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, true, nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false, err
	}
	return &value, true, nil
}

func decodeNullableDate(raw json.RawMessage) (*time.Time, bool, error) {
	text, present, err := decodeNullableString(raw)
	if err != nil || !present {
		return nil, present, err
	}
	if text == nil {
		return nil, true, nil
	}
	parsed, err := parseDate(*text)
	if err != nil {
		return nil, false, err
	}
	return &parsed, true, nil
}
