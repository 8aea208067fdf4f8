package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Contract struct {
	ID        uuid.UUID  `json:"id"`
	Number    string     `json:"number"`
	Supplier  *string    `json:"supplier"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	PDFPath   string     `json:"pdfPath"`
	AdminID   uuid.UUID  `json:"adminId"`
	CreatedAt time.Time  `json:"createdAt"`

	// Derived amounts: sum of item totals, sum consumed by orders, and
	// the difference. Never stored.
	TotalAmount     decimal.Decimal `json:"totalAmount" gorm:"-"`
	UsedAmount      decimal.Decimal `json:"usedAmount" gorm:"-"`
	RemainingAmount decimal.Decimal `json:"remainingAmount" gorm:"-"`

	Items []ContractItem `json:"items" gorm:"-"`
}

type ContractSummary struct {
	ID              uuid.UUID       `json:"id"`
	Number          string          `json:"number"`
	Supplier        *string         `json:"supplier"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	UsedAmount      decimal.Decimal `json:"usedAmount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
}

// ContractItem is one budgeted line of a contract. Quantity is nullable:
// an item without a defined quantity cannot be drawn from by orders.
type ContractItem struct {
	ID          uuid.UUID           `json:"id"`
	ContractID  uuid.UUID           `json:"contractId"`
	ItemNo      *int                `json:"itemNo"`
	Description *string             `json:"description"`
	Unit        *string             `json:"unit"`
	Quantity    decimal.NullDecimal `json:"quantity"`
	UnitPrice   decimal.NullDecimal `json:"unitPrice"`
	TotalPrice  decimal.NullDecimal `json:"totalPrice"`

	// Derived from the allocation ledger on hydration.
	UsedQuantity      decimal.Decimal `json:"usedQuantity"`
	AvailableQuantity decimal.Decimal `json:"availableQuantity"`
}

// ContractPatch is a sparse update: nil fields are left untouched.
type ContractPatch struct {
	Number    *string
	Supplier  **string
	StartDate **time.Time
	EndDate   **time.Time
}

// ContractItemPatch is a sparse update for a contract item. A non-nil
// pointer to a NullDecimal writes that value, including an explicit null.
type ContractItemPatch struct {
	ItemNo      *int
	Description *string
	Unit        *string
	Quantity    *decimal.NullDecimal
	UnitPrice   *decimal.NullDecimal
	TotalPrice  *decimal.NullDecimal
}
