package format

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/noah-isme/taxcalc/internal/tax"
)

// RupeeSymbol prefixes every formatted amount.
const RupeeSymbol = "₹"

// Currency renders amounts with digit grouping for a given locale.
type Currency struct {
	Symbol string
	Tag    language.Tag
}

// Default groups digits in thousands using the English locale.
var Default = Currency{Symbol: RupeeSymbol, Tag: language.English}

// Amount formats d with grouping. Whole amounts have no fractional part; anything
// else is shown to two places. Digits come from the decimal itself, so amounts
// beyond int64 or float64 precision keep every digit.
func (c Currency) Amount(d decimal.Decimal) string {
	rounded := d.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	whole, frac, _ := strings.Cut(rounded.StringFixed(2), ".")
	group, point := c.separators()
	out := sign + c.Symbol + groupDigits(whole, group)
	if frac != "00" {
		out += point + frac
	}
	return out
}

// separators returns the grouping and decimal marks the locale prints for 1234.5.
func (c Currency) separators() (group, point string) {
	s := message.NewPrinter(c.Tag).Sprintf("%.1f", 1234.5)
	one, two := strings.IndexByte(s, '1'), strings.IndexByte(s, '2')
	four, five := strings.IndexByte(s, '4'), strings.LastIndexByte(s, '5')
	if one < 0 || two < one || four < two || five < four {
		return ",", "."
	}
	return s[one+1 : two], s[four+1 : five]
}

func groupDigits(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
		return digits
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	var b strings.Builder
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(sep)
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Field is one labelled line of a rendered breakdown.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Breakdown renders every monetary field of b in display order.
func (c Currency) Breakdown(b tax.TaxBreakdown) []Field {
	return []Field{
		{Label: "Gross Income", Value: c.Amount(b.GrossIncome)},
		{Label: "Total Deductions", Value: c.Amount(b.TotalDeductions)},
		{Label: "Taxable Income", Value: c.Amount(b.TaxableIncome)},
		{Label: "Tax Before Cess", Value: c.Amount(b.TaxBeforeCess)},
		{Label: "Cess (4%)", Value: c.Amount(b.Cess)},
		{Label: "Total Tax Payable", Value: c.Amount(b.TotalTaxPayable)},
	}
}

// Map renders the breakdown keyed by the JSON field names of tax.TaxBreakdown.
func (c Currency) Map(b tax.TaxBreakdown) map[string]string {
	return map[string]string{
		"grossIncome":       c.Amount(b.GrossIncome),
		"totalDeductions":   c.Amount(b.TotalDeductions),
		"ignoredDeductions": c.Amount(b.IgnoredDeductions),
		"taxableIncome":     c.Amount(b.TaxableIncome),
		"taxBeforeCess":     c.Amount(b.TaxBeforeCess),
		"cess":              c.Amount(b.Cess),
		"totalTaxPayable":   c.Amount(b.TotalTaxPayable),
	}
}
