package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coder-gabrielsantos/sigecon-server/internal/model"
)

func TestGenerateProducesWorkbook(t *testing.T) {
	generator := NewGenerator()

	supplier := "S. T. BORBA"
	desc := "Papel A4 resma"
	unit := "CX"
	number := "OF-001/2026"
	itemNo := 2
	issued := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	order := model.Order{
		ID:          uuid.New(),
		OrderType:   "ORDEM DE FORNECIMENTO",
		OrderNumber: &number,
		IssueDate:   &issued,
		TotalAmount: decimal.RequireFromString("4700.00"),
		Items: []model.OrderItem{
			{
				ItemNo:      &itemNo,
				Description: &desc,
				Unit:        &unit,
				Quantity:    decimal.RequireFromString("200"),
				UnitPrice:   decimal.NullDecimal{Decimal: decimal.RequireFromString("23.50"), Valid: true},
				TotalPrice:  decimal.NullDecimal{Decimal: decimal.RequireFromString("4700.00"), Valid: true},
			},
		},
	}
	contract := model.Contract{
		ID:       uuid.New(),
		Number:   "CONTRATO 009/2025",
		Supplier: &supplier,
	}

	content, err := generator.Generate(order, contract)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("expected workbook bytes")
	}
	// xlsx files are zip archives.
	if !bytes.HasPrefix(content, []byte("PK")) {
		t.Errorf("output does not look like a workbook")
	}
}

func TestBrazilianNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1234.56", "1.234,56"},
		{"1500.00", "1.500,00"},
		{"23.50", "23,50"},
		{"200", "200"},
		{"1234567.89", "1.234.567,89"},
		{"-1234.56", "-1.234,56"},
	}
	for _, tc := range cases {
		if got := brazilianNumber(tc.in); got != tc.want {
			t.Errorf("brazilianNumber(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
