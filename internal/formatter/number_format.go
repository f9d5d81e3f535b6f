package formatter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type NumberFormat struct {
	DecimalMark   rune
	ThousandsSep  string
	DecimalPlaces int
	HasDecimal    bool
}

// Currency is the fixed presentation format for balances: comma-grouped
// thousands and two decimal places, like Python's "{:,.2f}".
var Currency = NumberFormat{
	DecimalMark:   '.',
	ThousandsSep:  ",",
	DecimalPlaces: 2,
	HasDecimal:    true,
}

// ParseNumberFormat infers a NumberFormat from a sample amount such as the
// "format" subdirective of a commodity ("1.000,00 BRL", "$1,000.00").
func ParseNumberFormat(formatStr string) NumberFormat {
	nf := NumberFormat{DecimalMark: '.'}

	numberPart := extractNumberPart(formatStr)
	if numberPart == "" {
		return nf
	}

	lastDot := strings.LastIndex(numberPart, ".")
	lastComma := strings.LastIndex(numberPart, ",")

	switch {
	case lastDot > lastComma:
		nf.DecimalMark = '.'
		nf.HasDecimal = true
		nf.ThousandsSep = groupSeparator(numberPart[:lastDot], ",")
		nf.DecimalPlaces = len(numberPart) - lastDot - 1
	case lastComma > lastDot:
		nf.DecimalMark = ','
		nf.HasDecimal = true
		nf.ThousandsSep = groupSeparator(numberPart[:lastComma], ".")
		nf.DecimalPlaces = len(numberPart) - lastComma - 1
	default:
		if strings.Contains(numberPart, " ") {
			nf.ThousandsSep = " "
		}
	}

	return nf
}

func groupSeparator(intPart, candidate string) string {
	switch {
	case strings.Contains(intPart, candidate):
		return candidate
	case strings.Contains(intPart, " "):
		return " "
	}
	return ""
}

func extractNumberPart(formatStr string) string {
	var start, end int
	inNumber := false
	sawDigit := false

	for i, r := range formatStr {
		if unicode.IsDigit(r) || r == '.' || r == ',' || r == ' ' {
			if !inNumber {
				start = i
				inNumber = true
			}
			if unicode.IsDigit(r) {
				sawDigit = true
			}
			end = i + utf8.RuneLen(r)
			continue
		}
		if inNumber && sawDigit {
			break
		}
		inNumber = false
	}

	if !sawDigit {
		return ""
	}
	return strings.TrimSpace(formatStr[start:end])
}

// FormatNumber renders qty with the given separators. Rounding is half to
// even at the configured number of places. A negative quantity keeps its sign
// even when it rounds to zero ("-0.00").
func FormatNumber(qty decimal.Decimal, format NumberFormat) string {
	var digits string
	if format.HasDecimal {
		digits = qty.StringFixedBank(int32(format.DecimalPlaces))
	} else {
		digits = qty.RoundBank(0).String()
	}

	negative := qty.IsNegative()
	digits = strings.TrimPrefix(digits, "-")

	intPart, fracPart, _ := strings.Cut(digits, ".")

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && format.ThousandsSep != "" && (len(intPart)-i)%3 == 0 {
			b.WriteString(format.ThousandsSep)
		}
		b.WriteRune(r)
	}
	if format.HasDecimal && format.DecimalPlaces > 0 {
		b.WriteRune(format.DecimalMark)
		b.WriteString(fracPart)
	}

	return b.String()
}

// FormatAmount renders "COMMODITY 1,234.56" using the Currency format.
func FormatAmount(commodity string, qty decimal.Decimal) string {
	if commodity == "" {
		return FormatNumber(qty, Currency)
	}
	return commodity + " " + FormatNumber(qty, Currency)
}
