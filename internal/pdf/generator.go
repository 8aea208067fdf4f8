package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/coder-gabrielsantos/sigecon-server/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() (*Generator, error) {
	return &Generator{fontName: "Helvetica"}, nil
}

// Generate renders the supply order as a printable A4 document: order
// header, contract reference and the item table with snapshot values.
func (g *Generator) Generate(order model.Order, contract model.Contract) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	// Core fonts are cp1252; the translator covers Portuguese accents.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	orderType := strings.TrimSpace(order.OrderType)
	if orderType == "" {
		orderType = model.DefaultOrderType
	}

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, tr(orderType), "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	if order.OrderNumber != nil {
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("Ordem nº %s", *order.OrderNumber)), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Emissão: %s", formatIssueDate(order))), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, tr("Contrato"), "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.MultiCell(0, 5, tr(fmt.Sprintf("Número: %s", contract.Number)), "", "L", false)
	pdf.MultiCell(0, 5, tr(fmt.Sprintf("Fornecedor: %s", safeValue(contract.Supplier))), "", "L", false)
	pdf.Ln(2)

	if order.ReferencePeriod != nil || order.Justification != nil {
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, tr("Detalhes"), "", 1, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 10)
		if order.ReferencePeriod != nil {
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("Período de referência: %s", *order.ReferencePeriod)), "", "L", false)
		}
		if order.Justification != nil {
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("Justificativa: %s", *order.Justification)), "", "L", false)
		}
		pdf.Ln(2)
	}

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, tr("Itens"), "", 1, "L", false, 0, "")

	headers := []string{"Item", "Descrição", "Unid.", "Quant.", "Valor unit.", "Valor total"}
	colWidths := []float64{14, 76, 16, 22, 26, 26}
	drawTableRow(pdf, g.fontName, tr, headers, colWidths, true)

	for _, item := range order.Items {
		row := []string{
			formatItemNo(item.ItemNo),
			safeValue(item.Description),
			safeValue(item.Unit),
			formatQuantity(item.Quantity),
			formatMoneyNull(item.UnitPrice),
			formatMoneyNull(item.TotalPrice),
		}
		drawTableRow(pdf, g.fontName, tr, row, colWidths, false)
	}

	pdf.Ln(2)
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Valor total da ordem: %s", formatMoney(order.TotalAmount))), "", 1, "R", false, 0, "")

	pdf.Ln(10)
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, tr("______________________________________"), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, tr("Assinatura do responsável"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 9)
	for i, col := range cols {
		align := "L"
		if i > 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, tr(col), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func formatIssueDate(order model.Order) string {
	when := order.IssueDate
	if when == nil {
		when = &order.CreatedAt
	}
	if when.IsZero() {
		return "—"
	}
	return when.Format("02.01.2006")
}

func formatItemNo(itemNo *int) string {
	if itemNo == nil {
		return ""
	}
	return fmt.Sprintf("%03d", *itemNo)
}

func safeValue(value *string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return "—"
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
