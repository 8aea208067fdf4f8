package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/coder-gabrielsantos/sigecon-server/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) CreateContract(ctx context.Context, contract model.Contract) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO contracts (number, supplier, start_date, end_date, pdf_path, admin_id)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		contract.Number,
		contract.Supplier,
		contract.StartDate,
		contract.EndDate,
		contract.PDFPath,
		contract.AdminID,
	).Scan(&id).Error
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// GetContract hydrates a contract with derived amounts and its items
// with derived used/available quantities. Summary rows carried over
// from imports (null item number) are excluded from the amount totals.
func (r *ContractRepository) GetContract(ctx context.Context, id, adminID uuid.UUID) (*model.Contract, error) {
	var row struct {
		ID              uuid.UUID
		Number          string
		Supplier        *string
		StartDate       *time.Time
		EndDate         *time.Time
		PDFPath         string
		AdminID         uuid.UUID
		CreatedAt       time.Time
		TotalAmount     decimal.Decimal
		UsedAmount      decimal.Decimal
		RemainingAmount decimal.Decimal
	}

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			c.id,
			c.number,
			c.supplier,
			c.start_date,
			c.end_date,
			c.pdf_path,
			c.admin_id,
			c.created_at,
			COALESCE(ci_tot.total_amount, 0)                                   AS total_amount,
			COALESCE(o_tot.used_amount, 0)                                     AS used_amount,
			COALESCE(ci_tot.total_amount, 0) - COALESCE(o_tot.used_amount, 0)  AS remaining_amount
		FROM contracts c
		LEFT JOIN (
			SELECT contract_id, SUM(total_price) AS total_amount
			FROM contract_items
			WHERE item_no IS NOT NULL
			GROUP BY contract_id
		) ci_tot ON ci_tot.contract_id = c.id
		LEFT JOIN (
			SELECT o.contract_id, SUM(oi.total_price) AS used_amount
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			GROUP BY o.contract_id
		) o_tot ON o_tot.contract_id = c.id
		WHERE c.id = ? AND c.admin_id = ?
		LIMIT 1
	`, id, adminID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var items []model.ContractItem
	err = r.db.WithContext(ctx).Raw(`
		SELECT
			ci.id,
			ci.contract_id,
			ci.item_no,
			ci.description,
			ci.unit,
			ci.quantity,
			ci.unit_price,
			ci.total_price,
			COALESCE(oi_used.total_used, 0)                               AS used_quantity,
			COALESCE(ci.quantity, 0) - COALESCE(oi_used.total_used, 0)    AS available_quantity
		FROM contract_items ci
		LEFT JOIN (
			SELECT contract_item_id, SUM(quantity) AS total_used
			FROM order_items
			GROUP BY contract_item_id
		) oi_used ON oi_used.contract_item_id = ci.id
		WHERE ci.contract_id = ?
		ORDER BY ci.item_no ASC NULLS LAST, ci.id ASC
	`, id).Scan(&items).Error
	if err != nil {
		return nil, err
	}

	return &model.Contract{
		ID:              row.ID,
		Number:          row.Number,
		Supplier:        row.Supplier,
		StartDate:       row.StartDate,
		EndDate:         row.EndDate,
		PDFPath:         row.PDFPath,
		AdminID:         row.AdminID,
		CreatedAt:       row.CreatedAt,
		TotalAmount:     row.TotalAmount,
		UsedAmount:      row.UsedAmount,
		RemainingAmount: row.RemainingAmount,
		Items:           items,
	}, nil
}

func (r *ContractRepository) ListContracts(ctx context.Context, adminID uuid.UUID) ([]model.ContractSummary, error) {
	var summaries []model.ContractSummary
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			c.id,
			c.number,
			c.supplier,
			COALESCE(ci_tot.total_amount, 0)                                   AS total_amount,
			COALESCE(o_tot.used_amount, 0)                                     AS used_amount,
			COALESCE(ci_tot.total_amount, 0) - COALESCE(o_tot.used_amount, 0)  AS remaining_amount
		FROM contracts c
		LEFT JOIN (
			SELECT contract_id, SUM(total_price) AS total_amount
			FROM contract_items
			WHERE item_no IS NOT NULL
			GROUP BY contract_id
		) ci_tot ON ci_tot.contract_id = c.id
		LEFT JOIN (
			SELECT o.contract_id, SUM(oi.total_price) AS used_amount
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			GROUP BY o.contract_id
		) o_tot ON o_tot.contract_id = c.id
		WHERE c.admin_id = ?
		ORDER BY c.created_at DESC
	`, adminID).Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *ContractRepository) UpdateContract(ctx context.Context, id uuid.UUID, patch model.ContractPatch) error {
	var fields []string
	var args []interface{}

	if patch.Number != nil {
		fields = append(fields, "number = ?")
		args = append(args, *patch.Number)
	}
	if patch.Supplier != nil {
		fields = append(fields, "supplier = ?")
		args = append(args, *patch.Supplier)
	}
	if patch.StartDate != nil {
		fields = append(fields, "start_date = ?")
		args = append(args, *patch.StartDate)
	}
	if patch.EndDate != nil {
		fields = append(fields, "end_date = ?")
		args = append(args, *patch.EndDate)
	}
	if len(fields) == 0 {
		return nil
	}

	args = append(args, id)
	return r.db.WithContext(ctx).Exec(
		fmt.Sprintf("UPDATE contracts SET %s WHERE id = ?", strings.Join(fields, ", ")),
		args...,
	).Error
}

func (r *ContractRepository) DeleteContract(ctx context.Context, id uuid.UUID) error {
	// Items, orders and order items go with the contract via cascade.
	return r.db.WithContext(ctx).Exec(`DELETE FROM contracts WHERE id = ?`, id).Error
}

// ImportContract writes the contract header and its extracted items in
// one transaction, so a failed import leaves no partial contract behind.
func (r *ContractRepository) ImportContract(ctx context.Context, contract model.Contract, items []model.ContractItem) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(`
			INSERT INTO contracts (number, supplier, start_date, end_date, pdf_path, admin_id)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id
		`,
			contract.Number,
			contract.Supplier,
			contract.StartDate,
			contract.EndDate,
			contract.PDFPath,
			contract.AdminID,
		).Scan(&id).Error
		if err != nil {
			return err
		}
		for _, item := range items {
			err := tx.Exec(`
				INSERT INTO contract_items
					(contract_id, item_no, description, unit, quantity, unit_price, total_price)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`,
				id,
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

func (r *ContractRepository) InsertItem(ctx context.Context, item model.ContractItem) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO contract_items
			(contract_id, item_no, description, unit, quantity, unit_price, total_price)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		item.ContractID,
		item.ItemNo,
		item.Description,
		item.Unit,
		item.Quantity,
		item.UnitPrice,
		item.TotalPrice,
	).Scan(&id).Error
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *ContractRepository) FindItemByNumber(ctx context.Context, contractID uuid.UUID, itemNo int) (*model.ContractItem, error) {
	var item model.ContractItem
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, contract_id, item_no, description, unit, quantity, unit_price, total_price
		FROM contract_items
		WHERE contract_id = ? AND item_no = ?
		LIMIT 1
	`, contractID, itemNo).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &item, nil
}

// NextItemNumber is one past the highest assigned number, or 1 for a
// contract without items. The unique (contract_id, item_no) index is
// the backstop for concurrent assignment.
func (r *ContractRepository) NextItemNumber(ctx context.Context, contractID uuid.UUID) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(MAX(item_no), 0) + 1
		FROM contract_items
		WHERE contract_id = ?
	`, contractID).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	if next < 1 {
		next = 1
	}
	return next, nil
}

func (r *ContractRepository) UpdateItem(ctx context.Context, id uuid.UUID, patch model.ContractItemPatch) error {
	var fields []string
	var args []interface{}

	if patch.ItemNo != nil {
		fields = append(fields, "item_no = ?")
		args = append(args, *patch.ItemNo)
	}
	if patch.Description != nil {
		fields = append(fields, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Unit != nil {
		fields = append(fields, "unit = ?")
		args = append(args, *patch.Unit)
	}
	if patch.Quantity != nil {
		fields = append(fields, "quantity = ?")
		args = append(args, *patch.Quantity)
	}
	if patch.UnitPrice != nil {
		fields = append(fields, "unit_price = ?")
		args = append(args, *patch.UnitPrice)
	}
	if patch.TotalPrice != nil {
		fields = append(fields, "total_price = ?")
		args = append(args, *patch.TotalPrice)
	}
	if len(fields) == 0 {
		return nil
	}

	args = append(args, id)
	return r.db.WithContext(ctx).Exec(
		fmt.Sprintf("UPDATE contract_items SET %s WHERE id = ?", strings.Join(fields, ", ")),
		args...,
	).Error
}

func (r *ContractRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`DELETE FROM contract_items WHERE id = ?`, id).Error
}
