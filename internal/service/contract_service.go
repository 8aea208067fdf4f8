package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/coder-gabrielsantos/sigecon-server/internal/model"
	"github.com/coder-gabrielsantos/sigecon-server/internal/numeric"
)

// ContractStore is the persistence surface the contract service needs.
// Lookups scoped by adminID must behave as not-found for contracts owned
// by another admin.
type ContractStore interface {
	CreateContract(ctx context.Context, contract model.Contract) (uuid.UUID, error)
	ImportContract(ctx context.Context, contract model.Contract, items []model.ContractItem) (uuid.UUID, error)
	GetContract(ctx context.Context, id, adminID uuid.UUID) (*model.Contract, error)
	ListContracts(ctx context.Context, adminID uuid.UUID) ([]model.ContractSummary, error)
	UpdateContract(ctx context.Context, id uuid.UUID, patch model.ContractPatch) error
	DeleteContract(ctx context.Context, id uuid.UUID) error

	InsertItem(ctx context.Context, item model.ContractItem) (uuid.UUID, error)
	FindItemByNumber(ctx context.Context, contractID uuid.UUID, itemNo int) (*model.ContractItem, error)
	NextItemNumber(ctx context.Context, contractID uuid.UUID) (int, error)
	UpdateItem(ctx context.Context, id uuid.UUID, patch model.ContractItemPatch) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

type ContractService struct {
	store ContractStore
	log   zerolog.Logger
}

func NewContractService(store ContractStore, log zerolog.Logger) *ContractService {
	return &ContractService{store: store, log: log}
}

// ImportFromExtraction creates a contract with its items from a raw
// extractor payload. Rows without signal and trailing summary rows are
// dropped before anything is written.
func (s *ContractService) ImportFromExtraction(
	ctx context.Context,
	ext Extraction,
	sourceLabel string,
	principal model.Principal,
) (*model.Contract, error) {
	adminID, ok := principal.OwnerAdminID()
	if !ok {
		return nil, ErrPermissionDenied
	}
	if ext.Rows == nil {
		return nil, fmt.Errorf("%w: extraction row list is required", ErrInvalidInput)
	}

	idx := buildColumnIndex(ext.Columns)

	rows := make([]rawContractRow, 0, len(ext.Rows))
	skipped := 0
	for _, raw := range ext.Rows {
		row := resolveRow(raw, idx)
		if !row.hasSignal() || row.isSummaryRow() {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	number := ext.Number
	if number == "" {
		number = sourceLabel
	}
	if number == "" {
		number = fmt.Sprintf("CONTRATO_IMPORTADO_%d", time.Now().UnixMilli())
	}

	var supplier *string
	if ext.Supplier != "" {
		supplier = &ext.Supplier
	}

	items := make([]model.ContractItem, 0, len(rows))
	seen := make(map[int]bool, len(rows))
	for _, row := range rows {
		if row.ItemNo != nil {
			if seen[*row.ItemNo] {
				return nil, fmt.Errorf("%w: item number %d appears more than once in the extraction", ErrInvalidInput, *row.ItemNo)
			}
			seen[*row.ItemNo] = true
		}
		items = append(items, row.toContractItem())
	}

	contractID, err := s.store.ImportContract(ctx, model.Contract{
		Number:   number,
		Supplier: supplier,
		PDFPath:  sourceLabel,
		AdminID:  adminID,
	}, items)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("contract_id", contractID.String()).
		Int("items", len(items)).
		Int("skipped_rows", skipped).
		Msg("contract imported from extraction")

	return s.store.GetContract(ctx, contractID, adminID)
}

type CreateContractInput struct {
	Number    string
	Supplier  *string
	StartDate *time.Time
	EndDate   *time.Time
}

// CreateContract creates an empty contract shell to be filled by item
// upserts.
func (s *ContractService) CreateContract(
	ctx context.Context,
	input CreateContractInput,
	principal model.Principal,
) (*model.Contract, error) {
	adminID, ok := principal.OwnerAdminID()
	if !ok {
		return nil, ErrPermissionDenied
	}
	if input.Number == "" {
		return nil, fmt.Errorf("%w: contract number is required", ErrInvalidInput)
	}

	id, err := s.store.CreateContract(ctx, model.Contract{
		Number:    input.Number,
		Supplier:  input.Supplier,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		AdminID:   adminID,
	})
	if err != nil {
		return nil, err
	}
	return s.store.GetContract(ctx, id, adminID)
}

func (s *ContractService) ListContracts(ctx context.Context, principal model.Principal) ([]model.ContractSummary, error) {
	adminID, ok := principal.OwnerAdminID()
	if !ok {
		return nil, ErrPermissionDenied
	}
	return s.store.ListContracts(ctx, adminID)
}

func (s *ContractService) GetContract(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.Contract, error) {
	adminID, ok := principal.OwnerAdminID()
	if !ok {
		return nil, ErrPermissionDenied
	}
	contract, err := s.store.GetContract(ctx, id, adminID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return contract, nil
}

func (s *ContractService) UpdateContract(
	ctx context.Context,
	id uuid.UUID,
	patch model.ContractPatch,
	principal model.Principal,
) (*model.Contract, error) {
	adminID, ok := principal.OwnerAdminID()
	if !ok {
		return nil, ErrPermissionDenied
	}
	if _, err := s.store.GetContract(ctx, id, adminID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.store.UpdateContract(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.store.GetContract(ctx, id, adminID)
}

func (s *ContractService) DeleteContract(ctx context.Context, id uuid.UUID, principal model.Principal) error {
	adminID, ok := principal.OwnerAdminID()
	if !ok {
		return ErrPermissionDenied
	}
	if _, err := s.store.GetContract(ctx, id, adminID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	return s.store.DeleteContract(ctx, id)
}

// UpsertItemInput carries a partial item payload. Numeric fields are
// raw values straight from the request; nil means absent.
type UpsertItemInput struct {
	ItemNo      interface{}
	Description *string
	Unit        *string
	Quantity    interface{}
	UnitPrice   interface{}
	TotalPrice  interface{}
}

func (in UpsertItemInput) hasEditableField() bool {
	return in.Description != nil || in.Unit != nil || in.Quantity != nil || in.UnitPrice != nil
}

// UpsertItem finds-or-creates a contract item by item number and
// recomputes its total price from the effective quantity and unit
// price: a payload value when supplied, the persisted value otherwise.
// Editing only the description must not blank out the price.
func (s *ContractService) UpsertItem(
	ctx context.Context,
	contractID uuid.UUID,
	input UpsertItemInput,
	principal model.Principal,
) (*model.Contract, error) {
	adminID, ok := principal.OwnerAdminID()
	if !ok {
		return nil, ErrPermissionDenied
	}
	if _, err := s.store.GetContract(ctx, contractID, adminID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !input.hasEditableField() {
		return nil, fmt.Errorf("%w: at least one of description, unit, quantity or unit price is required", ErrInvalidInput)
	}

	explicitNo := input.ItemNo != nil
	var itemNo int
	if explicitNo {
		n, ok := numeric.ParseInt(input.ItemNo)
		if !ok || n <= 0 {
			return nil, fmt.Errorf("%w: item number must be a positive integer", ErrInvalidInput)
		}
		itemNo = n
	}

	// Concurrent upserts can race on number assignment; the unique
	// (contract_id, item_no) index turns the loser into a duplicate-key
	// error and the loop re-resolves against the fresh state.
	const maxAttempts = 3
	for attempt := 0; ; attempt++ {
		if !explicitNo {
			next, err := s.store.NextItemNumber(ctx, contractID)
			if err != nil {
				return nil, err
			}
			itemNo = next
		}

		err := s.applyItemUpsert(ctx, contractID, itemNo, input)
		if err == gorm.ErrDuplicatedKey && attempt < maxAttempts-1 {
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}

	return s.store.GetContract(ctx, contractID, adminID)
}

func (s *ContractService) applyItemUpsert(ctx context.Context, contractID uuid.UUID, itemNo int, input UpsertItemInput) error {
	existing, err := s.store.FindItemByNumber(ctx, contractID, itemNo)
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}

	payloadQty := numeric.Parse(input.Quantity)
	payloadPrice := numeric.Parse(input.UnitPrice)
	payloadTotal := numeric.Parse(input.TotalPrice)

	if existing == nil {
		item := model.ContractItem{
			ContractID:  contractID,
			ItemNo:      &itemNo,
			Description: input.Description,
			Unit:        input.Unit,
		}
		if input.Quantity != nil {
			item.Quantity = payloadQty
		}
		if input.UnitPrice != nil {
			item.UnitPrice = payloadPrice
		}
		switch {
		case item.Quantity.Valid && item.UnitPrice.Valid:
			item.TotalPrice = mulNull(item.Quantity, item.UnitPrice)
		case input.TotalPrice != nil:
			item.TotalPrice = payloadTotal
		}
		_, err := s.store.InsertItem(ctx, item)
		return err
	}

	patch := model.ContractItemPatch{
		Description: input.Description,
		Unit:        input.Unit,
	}
	if input.Quantity != nil {
		patch.Quantity = &payloadQty
	}
	if input.UnitPrice != nil {
		patch.UnitPrice = &payloadPrice
	}

	effectiveQty := existing.Quantity
	if input.Quantity != nil {
		effectiveQty = payloadQty
	}
	effectivePrice := existing.UnitPrice
	if input.UnitPrice != nil {
		effectivePrice = payloadPrice
	}

	switch {
	case effectiveQty.Valid && effectivePrice.Valid:
		total := mulNull(effectiveQty, effectivePrice)
		patch.TotalPrice = &total
	case input.TotalPrice != nil:
		patch.TotalPrice = &payloadTotal
	}

	return s.store.UpdateItem(ctx, existing.ID, patch)
}

// DeleteItem removes one item by its number and returns the refreshed
// contract.
func (s *ContractService) DeleteItem(
	ctx context.Context,
	contractID uuid.UUID,
	itemNo int,
	principal model.Principal,
) (*model.Contract, error) {
	adminID, ok := principal.OwnerAdminID()
	if !ok {
		return nil, ErrPermissionDenied
	}
	if _, err := s.store.GetContract(ctx, contractID, adminID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	item, err := s.store.FindItemByNumber(ctx, contractID, itemNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: contract item %d", ErrNotFound, itemNo)
		}
		return nil, err
	}
	if err := s.store.DeleteItem(ctx, item.ID); err != nil {
		if err == gorm.ErrForeignKeyViolated {
			return nil, fmt.Errorf("%w: contract item %d has order consumption and cannot be deleted", ErrIntegrity, itemNo)
		}
		return nil, err
	}
	return s.store.GetContract(ctx, contractID, adminID)
}

func mulNull(a, b decimal.NullDecimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: a.Decimal.Mul(b.Decimal), Valid: true}
}
