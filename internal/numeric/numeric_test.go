package numeric

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseString(t *testing.T) {
	cases := []struct {
		in   string
		want string
		null bool
	}{
		{in: "1.234,56", want: "1234.56"},
		{in: "1234,56", want: "1234.56"},
		{in: "2737.96", want: "2737.96"},
		{in: "1.234.567,89", want: "1234567.89"},
		{in: "R$ 1.500,00", want: "1500"},
		{in: "r$2,50", want: "2.5"},
		{in: " 42 ", want: "42"},
		{in: "1 234,56", want: "1234.56"},
		{in: "", null: true},
		{in: "   ", null: true},
		{in: "abc", null: true},
		{in: "R$", null: true},
	}

	for _, tc := range cases {
		got := ParseString(tc.in)
		if tc.null {
			if got.Valid {
				t.Errorf("ParseString(%q) = %s, want null", tc.in, got.Decimal)
			}
			continue
		}
		if !got.Valid {
			t.Errorf("ParseString(%q) = null, want %s", tc.in, tc.want)
			continue
		}
		want := decimal.RequireFromString(tc.want)
		if !got.Decimal.Equal(want) {
			t.Errorf("ParseString(%q) = %s, want %s", tc.in, got.Decimal, want)
		}
	}
}

func TestParseHeterogeneous(t *testing.T) {
	if got := Parse(nil); got.Valid {
		t.Errorf("Parse(nil) = %s, want null", got.Decimal)
	}

	if got := Parse(float64(12.5)); !got.Valid || !got.Decimal.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("Parse(12.5) = %v, want 12.5", got)
	}

	if got := Parse(7); !got.Valid || !got.Decimal.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Parse(7) = %v, want 7", got)
	}

	d := decimal.RequireFromString("3.14")
	if got := Parse(d); !got.Valid || !got.Decimal.Equal(d) {
		t.Errorf("Parse(decimal) = %v, want unchanged", got)
	}

	if got := Parse(struct{}{}); got.Valid {
		t.Errorf("Parse(struct{}{}) = %s, want null", got.Decimal)
	}
}

// parse(x) must equal parse(formatRoundTrip(parse(x))) for both
// separator styles.
func TestParseRoundTrip(t *testing.T) {
	for _, in := range []string{"1.234,56", "2737.96", "1234,56"} {
		first := ParseString(in)
		if !first.Valid {
			t.Fatalf("ParseString(%q) = null", in)
		}
		second := ParseString(first.Decimal.String())
		if !second.Valid || !second.Decimal.Equal(first.Decimal) {
			t.Errorf("round trip of %q: %v != %v", in, second, first)
		}
	}
}

func TestParseInt(t *testing.T) {
	if n, ok := ParseInt("3"); !ok || n != 3 {
		t.Errorf("ParseInt(\"3\") = %d, %v", n, ok)
	}
	if n, ok := ParseInt("3,0"); !ok || n != 3 {
		t.Errorf("ParseInt(\"3,0\") = %d, %v", n, ok)
	}
	if _, ok := ParseInt("3.5"); ok {
		t.Error("ParseInt(\"3.5\") accepted a fraction")
	}
	if _, ok := ParseInt(nil); ok {
		t.Error("ParseInt(nil) accepted null")
	}
}
