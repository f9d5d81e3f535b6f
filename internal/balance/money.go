package balance

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Money is a quantity of a single commodity.
type Money struct {
	Commodity string
	Quantity  decimal.Decimal
}

func NewMoney(commodity string, qty decimal.Decimal) Money {
	return Money{Commodity: commodity, Quantity: qty}
}

// Add returns m+o. Adding different commodities is a programming error and
// panics; there is no conversion between commodities.
func (m Money) Add(o Money) Money {
	if m.Commodity != o.Commodity {
		panic(fmt.Sprintf("balance: cannot add %q to %q", o.Commodity, m.Commodity))
	}
	return Money{Commodity: m.Commodity, Quantity: m.Quantity.Add(o.Quantity)}
}

func (m Money) IsZero() bool {
	return m.Quantity.IsZero()
}

func (m Money) String() string {
	if m.Commodity == "" {
		return m.Quantity.String()
	}
	return m.Commodity + " " + m.Quantity.String()
}

// Totals maps a commodity to its accumulated amount.
type Totals map[string]Money

// Add accumulates m into t, creating the commodity entry at zero first.
func (t Totals) Add(m Money) {
	cur, ok := t[m.Commodity]
	if !ok {
		cur = Money{Commodity: m.Commodity}
	}
	t[m.Commodity] = cur.Add(m)
}

// Merge adds every non-zero entry of o into t.
func (t Totals) Merge(o Totals) {
	for _, m := range o {
		if m.IsZero() {
			continue
		}
		t.Add(m)
	}
}

// Commodities returns the commodities present in t in sorted order.
func (t Totals) Commodities() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the amount for commodity, zero when absent.
func (t Totals) Get(commodity string) decimal.Decimal {
	return t[commodity].Quantity
}
