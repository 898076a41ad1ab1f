package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLineTotalExact(t *testing.T) {
	assert.True(t, dec("33.33").Equal(LineTotal(3, dec("11.11"))))
	assert.True(t, decimal.Zero.Equal(LineTotal(0, dec("99.99"))))
	assert.True(t, dec("200").Equal(LineTotal(2, dec("100"))))
}

// Quote lifecycle scenario: 2 items ($100×2, $50×1 → subtotal $250), a 10%
// discount ($25), a $20 delivery charge, VAT 15% → taxable 245, VAT 36.75,
// grand total 281.75.
func TestQuoteTotalsScenario(t *testing.T) {
	b := QuoteTotals(
		[]Line{
			{Quantity: 2, UnitPrice: dec("100")},
			{Quantity: 1, UnitPrice: dec("50")},
		},
		[]decimal.Decimal{dec("20")},
		[]Discount{{Type: DiscountPercentage, Amount: dec("10")}},
		dec("15"),
	)

	assert.True(t, dec("250").Equal(b.Subtotal), "subtotal: %s", b.Subtotal)
	assert.True(t, dec("20").Equal(b.ChargesTotal))
	assert.True(t, dec("25").Equal(b.DiscountTotal))
	assert.True(t, dec("245").Equal(b.TaxableAmount))
	assert.True(t, dec("36.75").Equal(b.VATAmount), "vat: %s", b.VATAmount)
	assert.True(t, dec("281.75").Equal(b.GrandTotal), "grand: %s", b.GrandTotal)
}

// Grand total invariant: grandTotal == (subtotal + charges − discounts) × (1 + vat/100).
func TestQuoteTotalsInvariant(t *testing.T) {
	cases := []struct {
		name      string
		lines     []Line
		charges   []decimal.Decimal
		discounts []Discount
		vat       string
	}{
		{"no lines", nil, nil, nil, "20"},
		{"zero vat", []Line{{3, dec("19.99")}}, nil, nil, "0"},
		{"max vat", []Line{{1, dec("123.45")}}, []decimal.Decimal{dec("7.50")}, nil, "100"},
		{"fixed discount", []Line{{4, dec("25")}}, nil, []Discount{{DiscountFixed, dec("13.13")}}, "15"},
		{"mixed", []Line{{2, dec("0.05")}, {7, dec("3.33")}},
			[]decimal.Decimal{dec("1"), dec("2.25")},
			[]Discount{{DiscountPercentage, dec("5")}, {DiscountFixed, dec("0.99")}}, "17.5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := QuoteTotals(tc.lines, tc.charges, tc.discounts, dec(tc.vat))

			expected := b.Subtotal.Add(b.ChargesTotal).Sub(b.DiscountTotal).
				Mul(decimal.NewFromInt(1).Add(dec(tc.vat).Div(decimal.NewFromInt(100))))
			assert.True(t, expected.Equal(b.GrandTotal),
				"expected %s, got %s", expected, b.GrandTotal)
		})
	}
}

// Percentage discounts must not compound: p1% + p2% on subtotal S is
// S×(p1+p2)/100, not S×(1-(1-p1/100)(1-p2/100)).
func TestPercentageDiscountsDoNotCompound(t *testing.T) {
	b := QuoteTotals(
		[]Line{{Quantity: 1, UnitPrice: dec("1000")}},
		nil,
		[]Discount{
			{Type: DiscountPercentage, Amount: dec("10")},
			{Type: DiscountPercentage, Amount: dec("20")},
		},
		decimal.Zero,
	)

	// 1000 × 30/100 = 300; compounding would give 280.
	assert.True(t, dec("300").Equal(b.DiscountTotal), "discount: %s", b.DiscountTotal)
	assert.True(t, dec("700").Equal(b.GrandTotal))
}

// Discounts exceeding subtotal+charges produce a negative taxable base —
// deliberately unclamped so the grand-total identity stays exact.
func TestQuoteTotalsNegativeTaxable(t *testing.T) {
	b := QuoteTotals(
		[]Line{{Quantity: 1, UnitPrice: dec("100")}},
		nil,
		[]Discount{{Type: DiscountFixed, Amount: dec("150")}},
		dec("10"),
	)

	assert.True(t, dec("-50").Equal(b.TaxableAmount))
	assert.True(t, dec("-5").Equal(b.VATAmount))
	assert.True(t, dec("-55").Equal(b.GrandTotal))
}

func TestBookingTotals(t *testing.T) {
	b := BookingTotals(
		[]Line{
			{Quantity: 2, UnitPrice: dec("100")},
			{Quantity: 1, UnitPrice: dec("45")},
		},
		[]decimal.Decimal{dec("0")},
		dec("15"),
	)

	assert.True(t, dec("245").Equal(b.ItemsTotal))
	assert.True(t, dec("36.75").Equal(b.VATAmount))
	assert.True(t, dec("281.75").Equal(b.GrandTotal))
}

// Full precision is carried through intermediate sums; only RoundMoney rounds.
func TestBookingTotalsNoIntermediateRounding(t *testing.T) {
	b := BookingTotals([]Line{{Quantity: 3, UnitPrice: dec("33.335")}}, nil, dec("10"))

	// 100.005 × 1.10 = 110.0055 exactly; rounded only at the boundary.
	assert.True(t, dec("110.0055").Equal(b.GrandTotal), "grand: %s", b.GrandTotal)
	assert.True(t, dec("110.01").Equal(RoundMoney(b.GrandTotal)))
}

// Booking payment reconciliation scenario from the quote above: grand total
// 281.75, payments 100 + 100 → remaining 81.75; a final 81.75 clears it.
func TestSummarizePaymentsScenario(t *testing.T) {
	grand := dec("281.75")

	s := SummarizePayments([]decimal.Decimal{dec("100"), dec("100")}, decimal.Zero, grand)
	require.True(t, dec("200").Equal(s.TotalPaid))
	require.True(t, dec("81.75").Equal(s.Remaining))
	assert.Equal(t, StatusPartial, ClassifyPaymentStatus(s.TotalPaid, s.Remaining))

	s = SummarizePayments([]decimal.Decimal{dec("100"), dec("100"), dec("81.75")}, decimal.Zero, grand)
	require.True(t, s.Remaining.IsZero())
	assert.Equal(t, StatusPaid, ClassifyPaymentStatus(s.TotalPaid, s.Remaining))
}

// Remaining balance never goes negative, even on overpayment.
func TestSummarizePaymentsFloor(t *testing.T) {
	s := SummarizePayments([]decimal.Decimal{dec("500")}, decimal.Zero, dec("281.75"))
	assert.True(t, s.Remaining.IsZero())
	assert.Equal(t, StatusPaid, ClassifyPaymentStatus(s.TotalPaid, s.Remaining))
}

// With an empty payment history the advance amount is the source of truth.
func TestSummarizePaymentsAdvanceFallback(t *testing.T) {
	s := SummarizePayments(nil, dec("50"), dec("200"))
	assert.True(t, dec("50").Equal(s.TotalPaid))
	assert.True(t, dec("150").Equal(s.Remaining))
	assert.Equal(t, StatusPartial, ClassifyPaymentStatus(s.TotalPaid, s.Remaining))
}

func TestClassifyPaymentStatusUnpaid(t *testing.T) {
	assert.Equal(t, StatusUnpaid, ClassifyPaymentStatus(decimal.Zero, dec("100")))
}
