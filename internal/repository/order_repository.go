package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/coder-gabrielsantos/sigecon-server/internal/model"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrder persists the header and its items as one transaction.
func (r *OrderRepository) CreateOrder(ctx context.Context, order model.Order, items []model.OrderItem) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(`
			INSERT INTO orders
				(contract_id, order_type, order_number, issue_date, reference_period, justification, total_amount)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`,
			order.ContractID,
			order.OrderType,
			order.OrderNumber,
			order.IssueDate,
			order.ReferencePeriod,
			order.Justification,
			order.TotalAmount,
		).Scan(&id).Error
		if err != nil {
			return err
		}

		for _, item := range items {
			err := tx.Exec(`
				INSERT INTO order_items
					(order_id, contract_item_id, item_no, description, unit, quantity, unit_price, total_price)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`,
				id,
				item.ContractItemID,
				item.ItemNo,
				item.Description,
				item.Unit,
				item.Quantity,
				item.UnitPrice,
				item.TotalPrice,
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, id, adminID uuid.UUID) (*model.Order, error) {
	var row struct {
		ID              uuid.UUID
		ContractID      uuid.UUID
		OrderType       string
		OrderNumber     *string
		IssueDate       *time.Time
		ReferencePeriod *string
		Justification   *string
		TotalAmount     decimal.Decimal
		CreatedAt       time.Time
	}

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			o.id,
			o.contract_id,
			o.order_type,
			o.order_number,
			o.issue_date,
			o.reference_period,
			o.justification,
			o.total_amount,
			o.created_at
		FROM orders o
		JOIN contracts c ON c.id = o.contract_id
		WHERE o.id = ? AND c.admin_id = ?
		LIMIT 1
	`, id, adminID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var items []model.OrderItem
	err = r.db.WithContext(ctx).Raw(`
		SELECT id, order_id, contract_item_id, item_no, description, unit, quantity, unit_price, total_price
		FROM order_items
		WHERE order_id = ?
		ORDER BY id ASC
	`, row.ID).Scan(&items).Error
	if err != nil {
		return nil, err
	}

	totalItems := decimal.Zero
	for _, item := range items {
		totalItems = totalItems.Add(item.Quantity)
	}

	return &model.Order{
		ID:              row.ID,
		ContractID:      row.ContractID,
		OrderType:       row.OrderType,
		OrderNumber:     row.OrderNumber,
		IssueDate:       row.IssueDate,
		ReferencePeriod: row.ReferencePeriod,
		Justification:   row.Justification,
		TotalAmount:     row.TotalAmount,
		CreatedAt:       row.CreatedAt,
		Items:           items,
		TotalItems:      totalItems,
	}, nil
}

func (r *OrderRepository) ListOrders(ctx context.Context, adminID uuid.UUID) ([]model.OrderSummary, error) {
	var summaries []model.OrderSummary
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			o.id,
			o.order_number,
			o.order_type,
			o.issue_date,
			o.total_amount,
			COALESCE(oi_tot.total_items, 0) AS total_items,
			c.id                            AS contract_id,
			c.number                        AS contract_number,
			c.supplier
		FROM orders o
		JOIN contracts c ON c.id = o.contract_id
		LEFT JOIN (
			SELECT order_id, SUM(quantity) AS total_items
			FROM order_items
			GROUP BY order_id
		) oi_tot ON oi_tot.order_id = o.id
		WHERE c.admin_id = ?
		ORDER BY o.created_at DESC, o.id DESC
	`, adminID).Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// UsedQuantities is the allocation ledger: per contract item, the total
// quantity consumed across every order of the contract, regardless of
// which admin created the order.
func (r *OrderRepository) UsedQuantities(ctx context.Context, contractID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		ContractItemID uuid.UUID
		TotalUsed      decimal.Decimal
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT oi.contract_item_id, SUM(oi.quantity) AS total_used
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.contract_id = ?
		GROUP BY oi.contract_item_id
	`, contractID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	used := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		used[row.ContractItemID] = row.TotalUsed
	}
	return used, nil
}

func (r *OrderRepository) UpdateOrderItem(ctx context.Context, orderItemID uuid.UUID, quantity decimal.Decimal, totalPrice decimal.NullDecimal) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE order_items
		SET quantity = ?, total_price = ?
		WHERE id = ?
	`, quantity, totalPrice, orderItemID).Error
}

func (r *OrderRepository) UpdateOrderTotal(ctx context.Context, orderID uuid.UUID, total decimal.Decimal) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE orders
		SET total_amount = ?
		WHERE id = ?
	`, total, orderID).Error
}

func (r *OrderRepository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	// order_items cascade with the order.
	return r.db.WithContext(ctx).Exec(`DELETE FROM orders WHERE id = ?`, id).Error
}
