package views

import (
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Display limits, in characters.
const (
	MarketCapLimit   = 9
	TitleLimit       = 30
	DescriptionLimit = 50
)

const ellipsis = "..."

var printer = message.NewPrinter(language.English)

// FormatUSD renders d as "$1,234.56", rounded half away from zero to cents.
// Negative values render as "-$1,234.56".
func FormatUSD(d decimal.Decimal) string {
	d = d.Round(2)

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	whole := d.Truncate(0)
	cents := d.Sub(whole).Shift(2).IntPart()
	return fmt.Sprintf("%s$%s.%02d", sign, printer.Sprintf("%d", whole.IntPart()), cents)
}

// FormatPrice formats a decimal price string. Unparseable input formats as zero.
func FormatPrice(price string) string {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return FormatUSD(decimal.Zero)
	}
	return FormatUSD(d)
}

// Truncate cuts s to limit characters and appends "..." when s is longer than limit.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + ellipsis
}
