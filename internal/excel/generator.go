package excel

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/coder-gabrielsantos/sigecon-server/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds the supply-order worksheet: order header, contract
// reference and one row per order item with its snapshot values.
func (g *Generator) Generate(order model.Order, contract model.Contract) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Ordem"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	orderType := strings.TrimSpace(order.OrderType)
	if orderType == "" {
		orderType = model.DefaultOrderType
	}

	set("A1", orderType)
	set("A3", "Número da ordem")
	set("B3", formatString(order.OrderNumber))
	set("A4", "Data de emissão")
	set("B4", formatIssueDate(order))
	set("A5", "Contrato")
	set("B5", contract.Number)
	set("A6", "Fornecedor")
	set("B6", formatString(contract.Supplier))
	set("A7", "Período de referência")
	set("B7", formatString(order.ReferencePeriod))
	set("A8", "Justificativa")
	set("B8", formatString(order.Justification))

	tableRow := 10
	headers := []string{
		"Item",
		"Descrição",
		"Unidade",
		"Quantidade",
		"Valor unitário",
		"Valor total",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, item := range order.Items {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), formatItemNo(item.ItemNo))
		set(fmt.Sprintf("B%d", row), formatString(item.Description))
		set(fmt.Sprintf("C%d", row), formatString(item.Unit))
		set(fmt.Sprintf("D%d", row), formatQuantity(item.Quantity))
		set(fmt.Sprintf("E%d", row), formatMoneyNull(item.UnitPrice))
		set(fmt.Sprintf("F%d", row), formatMoneyNull(item.TotalPrice))
	}

	totalRow := tableRow + 1 + len(order.Items)
	set(fmt.Sprintf("E%d", totalRow), "TOTAL")
	set(fmt.Sprintf("F%d", totalRow), formatMoney(order.TotalAmount))

	_ = file.SetColWidth(sheet, "A", "A", 8)
	_ = file.SetColWidth(sheet, "B", "B", 52)
	_ = file.SetColWidth(sheet, "C", "C", 12)
	_ = file.SetColWidth(sheet, "D", "D", 14)
	_ = file.SetColWidth(sheet, "E", "F", 16)

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatIssueDate(order model.Order) string {
	when := order.IssueDate
	if when == nil {
		when = &order.CreatedAt
	}
	if when.IsZero() {
		return ""
	}
	return when.Format("02.01.2006")
}

func formatItemNo(itemNo *int) string {
	if itemNo == nil {
		return ""
	}
	return fmt.Sprintf("%03d", *itemNo)
}

func formatString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatQuantity(value decimal.Decimal) string {
	return brazilianNumber(value.String())
}

func formatMoneyNull(value decimal.NullDecimal) string {
	if !value.Valid {
		return ""
	}
	return formatMoney(value.Decimal)
}

func formatMoney(value decimal.Decimal) string {
	return "R$ " + brazilianNumber(value.StringFixed(2))
}

// brazilianNumber rewrites a plain decimal string into the pt-BR
// convention: dot as thousands separator, comma as decimal mark.
func brazilianNumber(plain string) string {
	sign := ""
	if strings.HasPrefix(plain, "-") {
		sign = "-"
		plain = plain[1:]
	}

	integer := plain
	fraction := ""
	if idx := strings.IndexByte(plain, '.'); idx >= 0 {
		integer = plain[:idx]
		fraction = plain[idx+1:]
	}

	var b strings.Builder
	for i, digit := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(digit)
	}

	result := sign + b.String()
	if fraction != "" {
		result += "," + fraction
	}
	return result
}
