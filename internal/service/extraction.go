package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/coder-gabrielsantos/sigecon-server/internal/model"
	"github.com/coder-gabrielsantos/sigecon-server/internal/numeric"
)

// Extraction is the raw tabular payload produced by the document
// extractor. Rows are heterogeneous: each entry is either a positional
// array (ordered per Columns) or a keyed object with forgiving column
// aliases. A nil Rows slice means the row list was missing entirely.
type Extraction struct {
	Number   string
	Supplier string
	Columns  []string
	Rows     []interface{}
}

// rawContractRow is the canonical row every variant resolves into
// before any business logic runs.
type rawContractRow struct {
	ItemNo      *int
	Description *string
	Unit        *string
	Quantity    decimal.NullDecimal
	UnitPrice   decimal.NullDecimal
	TotalPrice  decimal.NullDecimal
}

type columnIndex struct {
	item, desc, unit, qty, unitPrice, totalPrice int
}

func buildColumnIndex(columns []string) columnIndex {
	idx := columnIndex{item: -1, desc: -1, unit: -1, qty: -1, unitPrice: -1, totalPrice: -1}
	for i, raw := range columns {
		name := normalizeColumnName(raw)
		switch {
		case idx.item < 0 && strings.HasPrefix(name, "ITEM"):
			idx.item = i
		case idx.desc < 0 && strings.HasPrefix(name, "DESCRI"):
			idx.desc = i
		case idx.unitPrice < 0 && matchesUnitPrice(name):
			idx.unitPrice = i
		case idx.totalPrice < 0 && matchesTotalPrice(name):
			idx.totalPrice = i
		case idx.unit < 0 && matchesUnit(name):
			idx.unit = i
		case idx.qty < 0 && matchesQuantity(name):
			idx.qty = i
		}
	}
	return idx
}

// normalizeColumnName uppercases and strips the accents that show up in
// extracted Portuguese headers ("DESCRIÇÃO", "QUANTIDADE MÍNIMA").
func normalizeColumnName(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	replacer := strings.NewReplacer(
		"Ç", "C",
		"Ã", "A", "Â", "A", "Á", "A", "À", "A",
		"É", "E", "Ê", "E",
		"Í", "I",
		"Õ", "O", "Ô", "O", "Ó", "O",
		"Ú", "U",
	)
	return replacer.Replace(upper)
}

func matchesUnit(name string) bool {
	return strings.Contains(name, "UNID") || name == "UNIT"
}

func matchesQuantity(name string) bool {
	return strings.HasPrefix(name, "QUANT") || name == "QTD"
}

func matchesUnitPrice(name string) bool {
	return strings.Contains(name, "VALOR UNIT") ||
		strings.Contains(name, "UNIT_PRICE") ||
		strings.Contains(name, "UNITPRICE") ||
		strings.Contains(name, "UNIT PRICE")
}

func matchesTotalPrice(name string) bool {
	return strings.Contains(name, "VALOR TOTAL") ||
		strings.Contains(name, "TOTAL_PRICE") ||
		strings.Contains(name, "TOTALPRICE") ||
		strings.Contains(name, "TOTAL PRICE")
}

// resolveRow collapses either row shape into the canonical record.
// Unknown shapes resolve to an empty row, which the signal filter drops.
func resolveRow(row interface{}, idx columnIndex) rawContractRow {
	switch v := row.(type) {
	case []interface{}:
		return resolvePositionalRow(v, idx)
	case map[string]interface{}:
		return resolveKeyedRow(v)
	default:
		return rawContractRow{}
	}
}

func resolvePositionalRow(cells []interface{}, idx columnIndex) rawContractRow {
	at := func(i int) interface{} {
		if i < 0 || i >= len(cells) {
			return nil
		}
		return cells[i]
	}

	row := rawContractRow{
		Quantity:   numeric.Parse(at(idx.qty)),
		UnitPrice:  numeric.Parse(at(idx.unitPrice)),
		TotalPrice: numeric.Parse(at(idx.totalPrice)),
	}
	if n, ok := numeric.ParseInt(at(idx.item)); ok {
		row.ItemNo = &n
	}
	row.Description = textCell(at(idx.desc))
	row.Unit = textCell(at(idx.unit))
	return row
}

func resolveKeyedRow(cells map[string]interface{}) rawContractRow {
	var row rawContractRow
	for key, value := range cells {
		name := normalizeColumnName(key)
		switch {
		case strings.HasPrefix(name, "ITEM"):
			if n, ok := numeric.ParseInt(value); ok && row.ItemNo == nil {
				row.ItemNo = &n
			}
		case strings.HasPrefix(name, "DESCRI"):
			if row.Description == nil {
				row.Description = textCell(value)
			}
		case matchesUnitPrice(name):
			if !row.UnitPrice.Valid {
				row.UnitPrice = numeric.Parse(value)
			}
		case matchesTotalPrice(name):
			if !row.TotalPrice.Valid {
				row.TotalPrice = numeric.Parse(value)
			}
		case matchesUnit(name):
			if row.Unit == nil {
				row.Unit = textCell(value)
			}
		case matchesQuantity(name):
			if !row.Quantity.Valid {
				row.Quantity = numeric.Parse(value)
			}
		}
	}
	return row
}

func textCell(raw interface{}) *string {
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// hasSignal rejects rows with nothing usable: no description and all
// three numeric fields null.
func (r rawContractRow) hasSignal() bool {
	if r.Description != nil {
		return true
	}
	return r.Quantity.Valid || r.UnitPrice.Valid || r.TotalPrice.Valid
}

// isSummaryRow detects the synthetic "grand total" line extractors
// append: no item number, no unit, no quantity, no unit price, a total
// price, and a description carrying a "total" marker. Importing it
// would create a fake item and corrupt the allocation math.
func (r rawContractRow) isSummaryRow() bool {
	if r.ItemNo != nil && *r.ItemNo != 0 {
		return false
	}
	if r.Unit != nil {
		return false
	}
	if r.Quantity.Valid && !r.Quantity.Decimal.IsZero() {
		return false
	}
	if r.UnitPrice.Valid && !r.UnitPrice.Decimal.IsZero() {
		return false
	}
	if !r.TotalPrice.Valid {
		return false
	}
	if r.Description == nil {
		return false
	}
	return strings.Contains(strings.ToUpper(*r.Description), "TOTAL")
}

// toContractItem builds an item without a contract id. The store stamps
// the id when it writes the header and items together.
func (r rawContractRow) toContractItem() model.ContractItem {
	return model.ContractItem{
		ItemNo:      r.ItemNo,
		Description: r.Description,
		Unit:        r.Unit,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
		TotalPrice:  r.TotalPrice,
	}
}
