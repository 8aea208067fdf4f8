package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultOrderType = "ORDEM DE FORNECIMENTO"

type Order struct {
	ID              uuid.UUID       `json:"id"`
	ContractID      uuid.UUID       `json:"contractId"`
	OrderType       string          `json:"orderType"`
	OrderNumber     *string         `json:"orderNumber"`
	IssueDate       *time.Time      `json:"issueDate"`
	ReferencePeriod *string         `json:"referencePeriod"`
	Justification   *string         `json:"justification"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	CreatedAt       time.Time       `json:"createdAt"`

	Items []OrderItem `json:"items" gorm:"-"`

	// TotalItems is the sum of item quantities, derived on hydration.
	TotalItems decimal.Decimal `json:"totalItems" gorm:"-"`

	// Contract carries the minimal owning-contract summary when the
	// order is returned from a write path.
	Contract *ContractRef `json:"contract,omitempty" gorm:"-"`
}

// ContractRef is the minimal contract projection attached to orders.
type ContractRef struct {
	ID       uuid.UUID `json:"id"`
	Number   string    `json:"number"`
	Supplier *string   `json:"supplier"`
}

// OrderItem draws quantity from one contract item. Description, unit and
// unit price are snapshots taken at creation time; later contract edits
// do not alter them.
type OrderItem struct {
	ID             uuid.UUID           `json:"id"`
	OrderID        uuid.UUID           `json:"orderId"`
	ContractItemID uuid.UUID           `json:"contractItemId"`
	ItemNo         *int                `json:"itemNo"`
	Description    *string             `json:"description"`
	Unit           *string             `json:"unit"`
	Quantity       decimal.Decimal     `json:"quantity"`
	UnitPrice      decimal.NullDecimal `json:"unitPrice"`
	TotalPrice     decimal.NullDecimal `json:"totalPrice"`
}

type OrderSummary struct {
	ID             uuid.UUID       `json:"id"`
	OrderNumber    *string         `json:"orderNumber"`
	OrderType      string          `json:"orderType"`
	IssueDate      *time.Time      `json:"issueDate"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	TotalItems     decimal.Decimal `json:"totalItems"`
	ContractID     uuid.UUID       `json:"contractId"`
	ContractNumber string          `json:"contractNumber"`
	Supplier       *string         `json:"supplier"`
}
