package core

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DisplayDateLayout renders dates as "Jan 5, 2024".
const DisplayDateLayout = "Jan 2, 2006"

// FormatCurrency formats an amount as US dollars with two decimals and
// thousands separators, e.g. 1234.5 -> "$1,234.50", -5 -> "-$5.00".
func FormatCurrency(amount float64) string {
	d := toDecimal(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	// Printers are not safe for concurrent use; build one per call.
	p := message.NewPrinter(language.AmericanEnglish)
	return sign + "$" + p.Sprint(number.Decimal(d.InexactFloat64(),
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2)))
}

// FormatDate renders a calendar date or datetime as "Jan 5, 2024" using its
// UTC calendar day. Unparseable input is returned unchanged.
func FormatDate(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format(DisplayDateLayout)
}
