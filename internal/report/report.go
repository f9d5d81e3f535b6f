package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/juev/ledger-api/internal/balance"
	"github.com/juev/ledger-api/internal/formatter"
)

// TimestampLayout is ISO-8601 with microsecond precision and zone offset.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// zero is rendered instead of a formatted amount when a commodity nets to
// zero.
const zero = "0"

// Node is one account of the balance response tree.
type Node struct {
	Account                 string            `json:"account"`
	FullPath                string            `json:"fullPath"`
	Amounts                 map[string]string `json:"amounts"`
	ClearedAmounts          map[string]string `json:"clearedAmounts"`
	FormattedAmounts        map[string]string `json:"formattedAmounts"`
	FormattedClearedAmounts map[string]string `json:"formattedClearedAmounts"`
	LastClearedDate         *string           `json:"lastClearedDate"`
	Children                []Node            `json:"children"`
}

type BalanceResponse struct {
	Account   Node   `json:"account"`
	Timestamp string `json:"timestamp"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// Build converts a computed balance tree into its response form. Children
// are mapped from the balances already computed, nothing is recomputed.
func Build(b *balance.AccountBalance) Node {
	children := make([]Node, 0, len(b.Children))
	for _, c := range b.Children {
		children = append(children, Build(c))
	}

	return Node{
		Account:                 b.Account.Name(),
		FullPath:                b.Account.FullPath(),
		Amounts:                 amounts(b.Totals),
		ClearedAmounts:          amounts(b.Cleared),
		FormattedAmounts:        formatted(b.Totals),
		FormattedClearedAmounts: formatted(b.Cleared),
		Children:                children,
	}
}

func amounts(t balance.Totals) map[string]string {
	out := make(map[string]string, len(t))
	for c, m := range t {
		if m.IsZero() {
			out[c] = zero
			continue
		}
		out[c] = plain(m.Quantity)
	}
	return out
}

// plain renders q unformatted at the scale it carries, so the largest number
// of decimal places among the summed amounts survives ("42.50", not "42.5").
func plain(q decimal.Decimal) string {
	if exp := q.Exponent(); exp < 0 {
		return q.StringFixed(-exp)
	}
	return q.String()
}

func formatted(t balance.Totals) map[string]string {
	out := make(map[string]string, len(t))
	for c, m := range t {
		if m.IsZero() {
			out[c] = zero
			continue
		}
		out[c] = formatter.FormatAmount(c, m.Quantity)
	}
	return out
}

func NewBalanceResponse(b *balance.AccountBalance, now time.Time) BalanceResponse {
	return BalanceResponse{
		Account:   Build(b),
		Timestamp: Timestamp(now),
	}
}

func NewHealthResponse(service string, now time.Time) HealthResponse {
	return HealthResponse{
		Status:    "OK",
		Timestamp: Timestamp(now),
		Service:   service,
	}
}

func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
