package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidInput       = errors.New("invalid input")
	ErrBudgetExceeded     = errors.New("budget exceeded")
	ErrIntegrity          = errors.New("data integrity fault")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyExists      = errors.New("already exists")
)

// BudgetError reports a rejected allocation: which contract item, what
// was asked for, and the true remaining headroom when it is computable.
type BudgetError struct {
	ContractItemID uuid.UUID
	Requested      decimal.NullDecimal
	Available      decimal.NullDecimal
	Reason         string
}

func (e *BudgetError) Error() string {
	switch {
	case e.Requested.Valid && e.Available.Valid:
		return fmt.Sprintf("%s: requested quantity (%s) exceeds available (%s) for contract item %s",
			e.Reason, e.Requested.Decimal, e.Available.Decimal, e.ContractItemID)
	case e.Available.Valid:
		return fmt.Sprintf("%s: contract item %s has %s available",
			e.Reason, e.ContractItemID, e.Available.Decimal)
	default:
		return fmt.Sprintf("%s: contract item %s", e.Reason, e.ContractItemID)
	}
}

func (e *BudgetError) Unwrap() error { return ErrBudgetExceeded }

func noBudgetErr(itemID uuid.UUID) error {
	return &BudgetError{
		ContractItemID: itemID,
		Reason:         "contract item has no defined quantity",
	}
}

func exhaustedErr(itemID uuid.UUID) error {
	return &BudgetError{
		ContractItemID: itemID,
		Available:      decimal.NullDecimal{Decimal: decimal.Zero, Valid: true},
		Reason:         "contract item is fully consumed",
	}
}

func overAllocationErr(itemID uuid.UUID, requested, available decimal.Decimal) error {
	return &BudgetError{
		ContractItemID: itemID,
		Requested:      decimal.NullDecimal{Decimal: requested, Valid: true},
		Available:      decimal.NullDecimal{Decimal: available, Valid: true},
		Reason:         "quantity exceeds contract budget",
	}
}
