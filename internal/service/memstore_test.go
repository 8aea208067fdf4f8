package service

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/coder-gabrielsantos/sigecon-server/internal/model"
)

// memStore is an in-memory ContractStore and OrderStore. It mirrors the
// database contract: gorm sentinel errors, the unique (contract, item
// number) constraint and derived quantities recomputed on every read.
type memStore struct {
	contracts map[uuid.UUID]model.Contract
	items     map[uuid.UUID][]model.ContractItem
	orders    map[uuid.UUID]model.Order
	orderRows map[uuid.UUID][]model.OrderItem
}

func newMemStore() *memStore {
	return &memStore{
		contracts: make(map[uuid.UUID]model.Contract),
		items:     make(map[uuid.UUID][]model.ContractItem),
		orders:    make(map[uuid.UUID]model.Order),
		orderRows: make(map[uuid.UUID][]model.OrderItem),
	}
}

func (m *memStore) CreateContract(_ context.Context, contract model.Contract) (uuid.UUID, error) {
	contract.ID = uuid.New()
	m.contracts[contract.ID] = contract
	return contract.ID, nil
}

func (m *memStore) GetContract(_ context.Context, id, adminID uuid.UUID) (*model.Contract, error) {
	contract, ok := m.contracts[id]
	if !ok || contract.AdminID != adminID {
		return nil, gorm.ErrRecordNotFound
	}

	used := m.usedByItem(id)
	items := make([]model.ContractItem, len(m.items[id]))
	copy(items, m.items[id])
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].ItemNo, items[j].ItemNo
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})

	total := decimal.Zero
	for i := range items {
		items[i].UsedQuantity = used[items[i].ID]
		if items[i].Quantity.Valid {
			items[i].AvailableQuantity = items[i].Quantity.Decimal.Sub(items[i].UsedQuantity)
		} else {
			items[i].AvailableQuantity = decimal.Zero
		}
		if items[i].ItemNo != nil && items[i].TotalPrice.Valid {
			total = total.Add(items[i].TotalPrice.Decimal)
		}
	}

	usedAmount := decimal.Zero
	for orderID, order := range m.orders {
		if order.ContractID != id {
			continue
		}
		for _, row := range m.orderRows[orderID] {
			if row.TotalPrice.Valid {
				usedAmount = usedAmount.Add(row.TotalPrice.Decimal)
			}
		}
	}

	contract.Items = items
	contract.TotalAmount = total
	contract.UsedAmount = usedAmount
	contract.RemainingAmount = total.Sub(usedAmount)
	return &contract, nil
}

func (m *memStore) ListContracts(_ context.Context, adminID uuid.UUID) ([]model.ContractSummary, error) {
	var out []model.ContractSummary
	for id, contract := range m.contracts {
		if contract.AdminID != adminID {
			continue
		}
		full, err := m.GetContract(context.Background(), id, adminID)
		if err != nil {
			return nil, err
		}
		out = append(out, model.ContractSummary{
			ID:              full.ID,
			Number:          full.Number,
			Supplier:        full.Supplier,
			TotalAmount:     full.TotalAmount,
			UsedAmount:      full.UsedAmount,
			RemainingAmount: full.RemainingAmount,
		})
	}
	return out, nil
}

func (m *memStore) UpdateContract(_ context.Context, id uuid.UUID, patch model.ContractPatch) error {
	contract, ok := m.contracts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if patch.Number != nil {
		contract.Number = *patch.Number
	}
	if patch.Supplier != nil {
		contract.Supplier = *patch.Supplier
	}
	if patch.StartDate != nil {
		contract.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		contract.EndDate = *patch.EndDate
	}
	m.contracts[id] = contract
	return nil
}

func (m *memStore) DeleteContract(_ context.Context, id uuid.UUID) error {
	delete(m.contracts, id)
	delete(m.items, id)
	for orderID, order := range m.orders {
		if order.ContractID == id {
			delete(m.orders, orderID)
			delete(m.orderRows, orderID)
		}
	}
	return nil
}

func (m *memStore) ImportContract(_ context.Context, contract model.Contract, items []model.ContractItem) (uuid.UUID, error) {
	seen := make(map[int]bool, len(items))
	for _, item := range items {
		if item.ItemNo != nil {
			if seen[*item.ItemNo] {
				return uuid.Nil, gorm.ErrDuplicatedKey
			}
			seen[*item.ItemNo] = true
		}
	}
	contract.ID = uuid.New()
	m.contracts[contract.ID] = contract
	for _, item := range items {
		item.ID = uuid.New()
		item.ContractID = contract.ID
		m.items[contract.ID] = append(m.items[contract.ID], item)
	}
	return contract.ID, nil
}

func (m *memStore) InsertItem(_ context.Context, item model.ContractItem) (uuid.UUID, error) {
	if item.ItemNo != nil {
		for _, existing := range m.items[item.ContractID] {
			if existing.ItemNo != nil && *existing.ItemNo == *item.ItemNo {
				return uuid.Nil, gorm.ErrDuplicatedKey
			}
		}
	}
	item.ID = uuid.New()
	m.items[item.ContractID] = append(m.items[item.ContractID], item)
	return item.ID, nil
}

func (m *memStore) FindItemByNumber(_ context.Context, contractID uuid.UUID, itemNo int) (*model.ContractItem, error) {
	for _, item := range m.items[contractID] {
		if item.ItemNo != nil && *item.ItemNo == itemNo {
			found := item
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memStore) NextItemNumber(_ context.Context, contractID uuid.UUID) (int, error) {
	max := 0
	for _, item := range m.items[contractID] {
		if item.ItemNo != nil && *item.ItemNo > max {
			max = *item.ItemNo
		}
	}
	return max + 1, nil
}

func (m *memStore) UpdateItem(_ context.Context, id uuid.UUID, patch model.ContractItemPatch) error {
	for contractID, items := range m.items {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			if patch.ItemNo != nil {
				items[i].ItemNo = patch.ItemNo
			}
			if patch.Description != nil {
				items[i].Description = patch.Description
			}
			if patch.Unit != nil {
				items[i].Unit = patch.Unit
			}
			if patch.Quantity != nil {
				items[i].Quantity = *patch.Quantity
			}
			if patch.UnitPrice != nil {
				items[i].UnitPrice = *patch.UnitPrice
			}
			if patch.TotalPrice != nil {
				items[i].TotalPrice = *patch.TotalPrice
			}
			m.items[contractID] = items
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memStore) DeleteItem(_ context.Context, id uuid.UUID) error {
	for _, rows := range m.orderRows {
		for _, row := range rows {
			if row.ContractItemID == id {
				return gorm.ErrForeignKeyViolated
			}
		}
	}
	for contractID, items := range m.items {
		for i := range items {
			if items[i].ID == id {
				m.items[contractID] = append(items[:i], items[i+1:]...)
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memStore) CreateOrder(_ context.Context, order model.Order, items []model.OrderItem) (uuid.UUID, error) {
	order.ID = uuid.New()
	m.orders[order.ID] = order
	rows := make([]model.OrderItem, len(items))
	for i, item := range items {
		item.ID = uuid.New()
		item.OrderID = order.ID
		rows[i] = item
	}
	m.orderRows[order.ID] = rows
	return order.ID, nil
}

func (m *memStore) GetOrder(_ context.Context, id, adminID uuid.UUID) (*model.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	contract, ok := m.contracts[order.ContractID]
	if !ok || contract.AdminID != adminID {
		return nil, gorm.ErrRecordNotFound
	}

	order.Items = make([]model.OrderItem, len(m.orderRows[id]))
	copy(order.Items, m.orderRows[id])
	totalItems := decimal.Zero
	for _, item := range order.Items {
		totalItems = totalItems.Add(item.Quantity)
	}
	order.TotalItems = totalItems
	return &order, nil
}

func (m *memStore) ListOrders(_ context.Context, adminID uuid.UUID) ([]model.OrderSummary, error) {
	var out []model.OrderSummary
	for id, order := range m.orders {
		contract, ok := m.contracts[order.ContractID]
		if !ok || contract.AdminID != adminID {
			continue
		}
		out = append(out, model.OrderSummary{
			ID:          id,
			OrderNumber: order.OrderNumber,
			OrderType:   order.OrderType,
			IssueDate:   order.IssueDate,
			TotalAmount: order.TotalAmount,
		})
	}
	return out, nil
}

func (m *memStore) UsedQuantities(_ context.Context, contractID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	return m.usedByItem(contractID), nil
}

func (m *memStore) UpdateOrderItem(_ context.Context, orderItemID uuid.UUID, quantity decimal.Decimal, totalPrice decimal.NullDecimal) error {
	for orderID, rows := range m.orderRows {
		for i := range rows {
			if rows[i].ID == orderItemID {
				rows[i].Quantity = quantity
				rows[i].TotalPrice = totalPrice
				m.orderRows[orderID] = rows
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memStore) UpdateOrderTotal(_ context.Context, orderID uuid.UUID, total decimal.Decimal) error {
	order, ok := m.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.TotalAmount = total
	m.orders[orderID] = order
	return nil
}

func (m *memStore) DeleteOrder(_ context.Context, id uuid.UUID) error {
	delete(m.orders, id)
	delete(m.orderRows, id)
	return nil
}

func (m *memStore) usedByItem(contractID uuid.UUID) map[uuid.UUID]decimal.Decimal {
	used := make(map[uuid.UUID]decimal.Decimal)
	for orderID, order := range m.orders {
		if order.ContractID != contractID {
			continue
		}
		for _, row := range m.orderRows[orderID] {
			used[row.ContractItemID] = used[row.ContractItemID].Add(row.Quantity)
		}
	}
	return used
}
