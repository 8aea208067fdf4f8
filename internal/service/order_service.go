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

// OrderStore is the persistence surface for orders, including the
// allocation ledger. UsedQuantities must reflect consumption across all
// orders of the contract, not one admin's view.
type OrderStore interface {
	CreateOrder(ctx context.Context, order model.Order, items []model.OrderItem) (uuid.UUID, error)
	GetOrder(ctx context.Context, id, adminID uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, adminID uuid.UUID) ([]model.OrderSummary, error)
	UsedQuantities(ctx context.Context, contractID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	UpdateOrderItem(ctx context.Context, orderItemID uuid.UUID, quantity decimal.Decimal, totalPrice decimal.NullDecimal) error
	UpdateOrderTotal(ctx context.Context, orderID uuid.UUID, total decimal.Decimal) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

// OrderDocumentGenerator renders a finished order into a downloadable
// document. Generators only read; they never touch allocation state.
type OrderDocumentGenerator interface {
	Generate(order model.Order, contract model.Contract) ([]byte, error)
}

type OrderService struct {
	orders    OrderStore
	contracts ContractStore
	excel     OrderDocumentGenerator
	pdf       OrderDocumentGenerator
	log       zerolog.Logger
}

func NewOrderService(orders OrderStore, contracts ContractStore, excel, pdf OrderDocumentGenerator, log zerolog.Logger) *OrderService {
	return &OrderService{orders: orders, contracts: contracts, excel: excel, pdf: pdf, log: log}
}

type OrderLineInput struct {
	ContractItemID uuid.UUID
	Quantity       interface{}
}

type CreateOrderInput struct {
	ContractID      uuid.UUID
	OrderType       string
	OrderNumber     *string
	IssueDate       *time.Time
	ReferencePeriod *string
	Justification   *string
	Items           []OrderLineInput
}

// CreateOrder validates every requested line against the contract
// budget and persists the order with snapshots of the contract items.
// Lines with unparseable or non-positive quantity, or referencing an
// unknown contract item, are skipped; lines that attempt an invalid
// allocation against a real item fail the whole request.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput, principal model.Principal) (*model.Order, error) {
	adminID, ok := principal.OwnerAdminID()
	if !ok {
		return nil, ErrPermissionDenied
	}

	contract, err := s.contracts.GetContract(ctx, input.ContractID, adminID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: contract does not exist or is outside your scope", ErrNotFound)
		}
		return nil, err
	}

	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: select at least one item for the order", ErrInvalidInput)
	}

	contractItems := make(map[uuid.UUID]model.ContractItem, len(contract.Items))
	for _, item := range contract.Items {
		contractItems[item.ID] = item
	}

	used, err := s.orders.UsedQuantities(ctx, contract.ID)
	if err != nil {
		return nil, err
	}

	var orderItems []model.OrderItem
	totalAmount := decimal.Zero

	for _, line := range input.Items {
		base, ok := contractItems[line.ContractItemID]
		if !ok {
			continue
		}

		qty := numeric.Parse(line.Quantity)
		if !qty.Valid || !qty.Decimal.IsPositive() {
			continue
		}

		if !base.Quantity.Valid {
			return nil, noBudgetErr(base.ID)
		}

		available := base.Quantity.Decimal.Sub(used[base.ID])
		if !available.IsPositive() {
			return nil, exhaustedErr(base.ID)
		}
		if qty.Decimal.GreaterThan(available) {
			return nil, overAllocationErr(base.ID, qty.Decimal, available)
		}

		item := model.OrderItem{
			ContractItemID: base.ID,
			ItemNo:         base.ItemNo,
			Description:    base.Description,
			Unit:           base.Unit,
			Quantity:       qty.Decimal,
			UnitPrice:      base.UnitPrice,
		}
		if base.UnitPrice.Valid {
			total := qty.Decimal.Mul(base.UnitPrice.Decimal)
			item.TotalPrice = decimal.NullDecimal{Decimal: total, Valid: true}
			totalAmount = totalAmount.Add(total)
		}
		orderItems = append(orderItems, item)
	}

	if len(orderItems) == 0 {
		return nil, fmt.Errorf("%w: no valid items for the order", ErrInvalidInput)
	}

	orderType := input.OrderType
	if orderType == "" {
		orderType = model.DefaultOrderType
	}

	orderID, err := s.orders.CreateOrder(ctx, model.Order{
		ContractID:      contract.ID,
		OrderType:       orderType,
		OrderNumber:     input.OrderNumber,
		IssueDate:       input.IssueDate,
		ReferencePeriod: input.ReferencePeriod,
		Justification:   input.Justification,
		TotalAmount:     totalAmount,
	}, orderItems)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("order_id", orderID.String()).
		Str("contract_id", contract.ID.String()).
		Int("items", len(orderItems)).
		Msg("order created")

	created, err := s.orders.GetOrder(ctx, orderID, adminID)
	if err != nil {
		return nil, err
	}
	enrichItemNumbers(created, contract)
	created.Contract = &model.ContractRef{
		ID:       contract.ID,
		Number:   contract.Number,
		Supplier: contract.Supplier,
	}
	return created, nil
}

type UpdateOrderLineInput struct {
	OrderItemID uuid.UUID
	Quantity    interface{}
}

// UpdateOrder changes item quantities on an existing order. Headroom is
// rechecked with the item's own current contribution excluded, so
// raising an item to the full remaining budget succeeds.
func (s *OrderService) UpdateOrder(
	ctx context.Context,
	orderID uuid.UUID,
	lines []UpdateOrderLineInput,
	principal model.Principal,
) (*model.Order, error) {
	adminID, ok := principal.OwnerAdminID()
	if !ok {
		return nil, ErrPermissionDenied
	}

	order, err := s.orders.GetOrder(ctx, orderID, adminID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: order", ErrNotFound)
		}
		return nil, err
	}

	contract, err := s.contracts.GetContract(ctx, order.ContractID, adminID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: contract linked to the order", ErrNotFound)
		}
		return nil, err
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: provide at least one item with a quantity to update", ErrInvalidInput)
	}

	orderItems := make(map[uuid.UUID]model.OrderItem, len(order.Items))
	for _, item := range order.Items {
		orderItems[item.ID] = item
	}
	contractItems := make(map[uuid.UUID]model.ContractItem, len(contract.Items))
	for _, item := range contract.Items {
		contractItems[item.ID] = item
	}

	used, err := s.orders.UsedQuantities(ctx, contract.ID)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		current, ok := orderItems[line.OrderItemID]
		if !ok {
			return nil, fmt.Errorf("%w: order item %s does not belong to this order", ErrInvalidInput, line.OrderItemID)
		}

		newQty := numeric.Parse(line.Quantity)
		if !newQty.Valid || !newQty.Decimal.IsPositive() {
			return nil, fmt.Errorf("%w: invalid quantity for order item %s", ErrInvalidInput, line.OrderItemID)
		}

		base, ok := contractItems[current.ContractItemID]
		if !ok {
			return nil, fmt.Errorf("%w: contract item %s referenced by order item %s cannot be resolved",
				ErrIntegrity, current.ContractItemID, current.ID)
		}
		if !base.Quantity.Valid {
			return nil, noBudgetErr(base.ID)
		}

		usedExcludingThis := used[base.ID].Sub(current.Quantity)
		newTotalUsed := usedExcludingThis.Add(newQty.Decimal)
		if newTotalUsed.GreaterThan(base.Quantity.Decimal) {
			available := base.Quantity.Decimal.Sub(usedExcludingThis)
			return nil, overAllocationErr(base.ID, newQty.Decimal, available)
		}

		unitPrice := current.UnitPrice
		if !unitPrice.Valid {
			unitPrice = base.UnitPrice
		}
		totalPrice := decimal.NullDecimal{}
		if unitPrice.Valid {
			totalPrice = decimal.NullDecimal{Decimal: newQty.Decimal.Mul(unitPrice.Decimal), Valid: true}
		}
		if err := s.orders.UpdateOrderItem(ctx, current.ID, newQty.Decimal, totalPrice); err != nil {
			return nil, err
		}
	}

	// Re-derive the order total from all items, updated or not.
	updated, err := s.orders.GetOrder(ctx, orderID, adminID)
	if err != nil {
		return nil, err
	}
	totalAmount := decimal.Zero
	for _, item := range updated.Items {
		if !item.Quantity.IsPositive() || !item.UnitPrice.Valid {
			continue
		}
		totalAmount = totalAmount.Add(item.Quantity.Mul(item.UnitPrice.Decimal))
	}
	if err := s.orders.UpdateOrderTotal(ctx, orderID, totalAmount); err != nil {
		return nil, err
	}

	final, err := s.orders.GetOrder(ctx, orderID, adminID)
	if err != nil {
		return nil, err
	}
	enrichItemNumbers(final, contract)
	return final, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, orderID uuid.UUID, principal model.Principal) error {
	adminID, ok := principal.OwnerAdminID()
	if !ok {
		return ErrPermissionDenied
	}
	if _, err := s.orders.GetOrder(ctx, orderID, adminID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: order", ErrNotFound)
		}
		return err
	}
	return s.orders.DeleteOrder(ctx, orderID)
}

func (s *OrderService) ListOrders(ctx context.Context, principal model.Principal) ([]model.OrderSummary, error) {
	adminID, ok := principal.OwnerAdminID()
	if !ok {
		return nil, ErrPermissionDenied
	}
	return s.orders.ListOrders(ctx, adminID)
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID, principal model.Principal) (*model.Order, error) {
	order, _, err := s.getOrderWithContract(ctx, orderID, principal)
	return order, err
}

// GetOrderWithContract feeds the document renderers: the hydrated order
// plus its full contract.
func (s *OrderService) GetOrderWithContract(
	ctx context.Context,
	orderID uuid.UUID,
	principal model.Principal,
) (*model.Order, *model.Contract, error) {
	return s.getOrderWithContract(ctx, orderID, principal)
}

func (s *OrderService) getOrderWithContract(
	ctx context.Context,
	orderID uuid.UUID,
	principal model.Principal,
) (*model.Order, *model.Contract, error) {
	adminID, ok := principal.OwnerAdminID()
	if !ok {
		return nil, nil, ErrPermissionDenied
	}

	order, err := s.orders.GetOrder(ctx, orderID, adminID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, fmt.Errorf("%w: order", ErrNotFound)
		}
		return nil, nil, err
	}

	contract, err := s.contracts.GetContract(ctx, order.ContractID, adminID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, fmt.Errorf("%w: contract linked to the order", ErrNotFound)
		}
		return nil, nil, err
	}

	enrichItemNumbers(order, contract)
	order.Contract = &model.ContractRef{
		ID:       contract.ID,
		Number:   contract.Number,
		Supplier: contract.Supplier,
	}
	return order, contract, nil
}

type ExportResult struct {
	FileName string
	Content  []byte
}

// ExportXLSX renders the order as a spreadsheet for download.
func (s *OrderService) ExportXLSX(ctx context.Context, orderID uuid.UUID, principal model.Principal) (*ExportResult, error) {
	return s.export(ctx, orderID, principal, s.excel, "xlsx")
}

// ExportPDF renders the order as a printable document.
func (s *OrderService) ExportPDF(ctx context.Context, orderID uuid.UUID, principal model.Principal) (*ExportResult, error) {
	return s.export(ctx, orderID, principal, s.pdf, "pdf")
}

func (s *OrderService) export(
	ctx context.Context,
	orderID uuid.UUID,
	principal model.Principal,
	generator OrderDocumentGenerator,
	extension string,
) (*ExportResult, error) {
	if generator == nil {
		return nil, fmt.Errorf("%w: document generation is not configured", ErrInvalidInput)
	}

	order, contract, err := s.getOrderWithContract(ctx, orderID, principal)
	if err != nil {
		return nil, err
	}

	content, err := generator.Generate(*order, *contract)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		FileName: buildOrderFileName(*order, extension),
		Content:  content,
	}, nil
}

func buildOrderFileName(order model.Order, extension string) string {
	name := ""
	if order.OrderNumber != nil {
		name = sanitizeFileName(*order.OrderNumber)
	}
	if name == "" {
		name = order.ID.String()
	}
	return fmt.Sprintf("ordem_%s.%s", name, extension)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-' || r == '_':
			result = append(result, r)
		default:
			result = append(result, '_')
		}
	}
	return string(result)
}

// enrichItemNumbers backfills item numbers on order items persisted
// before numbers were snapshotted, by joining back to the contract.
func enrichItemNumbers(order *model.Order, contract *model.Contract) {
	if order == nil || contract == nil {
		return
	}
	byID := make(map[uuid.UUID]*int, len(contract.Items))
	for _, item := range contract.Items {
		byID[item.ID] = item.ItemNo
	}
	for i := range order.Items {
		if order.Items[i].ItemNo != nil {
			continue
		}
		order.Items[i].ItemNo = byID[order.Items[i].ContractItemID]
	}
}
