// Package finance implements the money arithmetic shared by quotes, bookings
// and invoices: line totals, discount and VAT application, payment aggregation
// and remaining-balance tracking.
//
// All functions are pure and operate on decimal.Decimal at full precision.
// Rounding to the currency's minor unit happens exactly once, at the
// persistence/display boundary, via RoundMoney — intermediate sums are never
// rounded.
package finance

import (
	"github.com/shopspring/decimal"
)

// Discount types.
const (
	DiscountFixed      = "fixed"
	DiscountPercentage = "percentage"
)

// Payment statuses derived from paid vs. remaining amounts.
const (
	StatusUnpaid  = "unpaid"
	StatusPartial = "partial"
	StatusPaid    = "paid"
)

var hundred = decimal.NewFromInt(100)

// Line is the minimal shape of a quote/booking line item.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// Discount reduces the taxable base. Percentage discounts are evaluated
// against the original item subtotal, never a running balance, so stacked
// discounts do not compound.
type Discount struct {
	Type   string // fixed | percentage
	Amount decimal.Decimal
}

// LineTotal returns quantity × unitPrice. Line totals are always recomputed
// server-side; client-submitted totals are ignored.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Subtotal sums LineTotal over all lines.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.Quantity, l.UnitPrice))
	}
	return total
}

// SumCharges adds all additional charge amounts. Charges are always additive
// to the taxable base.
func SumCharges(charges []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, c := range charges {
		total = total.Add(c)
	}
	return total
}

// SumDiscounts resolves each discount against the given item subtotal and
// returns the total reduction. Each percentage discount uses the original
// subtotal as its base: two discounts of p1% and p2% yield S×(p1+p2)/100.
func SumDiscounts(discounts []Discount, subtotal decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, d := range discounts {
		if d.Type == DiscountPercentage {
			total = total.Add(subtotal.Mul(d.Amount).Div(hundred))
		} else {
			total = total.Add(d.Amount)
		}
	}
	return total
}

// QuoteBreakdown is the full quote computation result.
type QuoteBreakdown struct {
	Subtotal      decimal.Decimal
	ChargesTotal  decimal.Decimal
	DiscountTotal decimal.Decimal
	TaxableAmount decimal.Decimal
	VATAmount     decimal.Decimal
	GrandTotal    decimal.Decimal
}

// QuoteTotals computes the quote pipeline:
//
//	subtotal → + charges → − discounts → taxable → + VAT → grand total
//
// TaxableAmount is deliberately not floored at zero: discounts exceeding
// subtotal+charges produce a negative taxable base (and negative VAT), which
// keeps grandTotal == taxable × (1 + vat/100) exact for all inputs.
func QuoteTotals(lines []Line, charges []decimal.Decimal, discounts []Discount, vatPct decimal.Decimal) QuoteBreakdown {
	b := QuoteBreakdown{
		Subtotal:     Subtotal(lines),
		ChargesTotal: SumCharges(charges),
	}
	b.DiscountTotal = SumDiscounts(discounts, b.Subtotal)
	b.TaxableAmount = b.Subtotal.Add(b.ChargesTotal).Sub(b.DiscountTotal)
	b.VATAmount = b.TaxableAmount.Mul(vatPct).Div(hundred)
	b.GrandTotal = b.TaxableAmount.Add(b.VATAmount)
	return b
}

// BookingBreakdown is the booking computation result. Bookings have extra
// charges but no discounts.
type BookingBreakdown struct {
	ItemsTotal   decimal.Decimal
	ChargesTotal decimal.Decimal
	VATAmount    decimal.Decimal
	GrandTotal   decimal.Decimal
}

// BookingTotals computes items + charges → VAT → grand total at full
// precision. One uniform policy for both creation and edit paths.
func BookingTotals(lines []Line, charges []decimal.Decimal, vatPct decimal.Decimal) BookingBreakdown {
	b := BookingBreakdown{
		ItemsTotal:   Subtotal(lines),
		ChargesTotal: SumCharges(charges),
	}
	base := b.ItemsTotal.Add(b.ChargesTotal)
	b.VATAmount = base.Mul(vatPct).Div(hundred)
	b.GrandTotal = base.Add(b.VATAmount)
	return b
}

// PaymentSummary aggregates a payment history against a grand total.
type PaymentSummary struct {
	TotalPaid decimal.Decimal
	Remaining decimal.Decimal
}

// SummarizePayments sums the recorded payments and computes the remaining
// balance, floored at zero. When no payments are recorded the advance amount
// is used instead — bookings created before payment history existed only
// carry an advance figure.
func SummarizePayments(amounts []decimal.Decimal, advanceFallback, grandTotal decimal.Decimal) PaymentSummary {
	s := PaymentSummary{TotalPaid: decimal.Zero}
	if len(amounts) == 0 {
		s.TotalPaid = advanceFallback
	} else {
		for _, a := range amounts {
			s.TotalPaid = s.TotalPaid.Add(a)
		}
	}
	s.Remaining = grandTotal.Sub(s.TotalPaid)
	if s.Remaining.IsNegative() {
		s.Remaining = decimal.Zero
	}
	return s
}

// ClassifyPaymentStatus derives unpaid/partial/paid from the paid and
// remaining amounts. Never stored-then-trusted: callers recompute it on every
// path that touches its inputs.
func ClassifyPaymentStatus(totalPaid, remaining decimal.Decimal) string {
	switch {
	case remaining.IsZero():
		return StatusPaid
	case totalPaid.IsPositive():
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// RoundMoney rounds to the currency's minor unit (2 decimal places). Applied
// only when a value crosses the persistence or display boundary.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
