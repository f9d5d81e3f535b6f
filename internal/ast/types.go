package ast

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Range struct {
	Start Position
	End   Position
}

type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Journal struct {
	Transactions []Transaction
	Directives   []Directive
	Includes     []Include
}

type Transaction struct {
	Date        Date
	Date2       *Date
	Status      Status
	Code        string
	Description string
	Payee       string
	Note        string
	Postings    []Posting
	Range       Range
}

type Date struct {
	Year  int
	Month int
	Day   int
	Range Range
}

// Time returns the date as UTC midnight. ok is false when the fields do not
// name a real calendar day (2024-02-30 and the like).
func (d Date) Time() (t time.Time, ok bool) {
	t = time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	ok = t.Year() == d.Year && int(t.Month()) == d.Month && t.Day() == d.Day
	return t, ok
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

type Status int

const (
	StatusNone Status = iota
	StatusPending
	StatusCleared
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusCleared:
		return "Cleared"
	default:
		return "Uncleared"
	}
}

type Posting struct {
	Status           Status
	Account          Account
	Amount           *Amount
	BalanceAssertion *BalanceAssertion
	Cost             *Cost
	Comment          string
	Virtual          VirtualType
	Range            Range
}

type VirtualType int

const (
	VirtualNone VirtualType = iota
	VirtualBalanced
	VirtualUnbalanced
)

type Account struct {
	Name  string
	Parts []string
	Range Range
}

type Amount struct {
	Quantity  decimal.Decimal
	Commodity Commodity
	Range     Range
}

type Commodity struct {
	Symbol   string
	Position CommodityPosition
	Range    Range
}

type CommodityPosition int

const (
	CommodityLeft CommodityPosition = iota
	CommodityRight
)

type Cost struct {
	Amount  Amount
	IsTotal bool
	Range   Range
}

type BalanceAssertion struct {
	Amount   Amount
	IsStrict bool
	Range    Range
}

type Directive interface {
	directive()
	GetRange() Range
}

type AccountDirective struct {
	Account Account
	Comment string
	Range   Range
}

func (AccountDirective) directive()        {}
func (d AccountDirective) GetRange() Range { return d.Range }

type CommodityDirective struct {
	Commodity Commodity
	Format    string
	Range     Range
}

func (CommodityDirective) directive()        {}
func (d CommodityDirective) GetRange() Range { return d.Range }

type Include struct {
	Path  string
	Range Range
}

func (Include) directive()        {}
func (i Include) GetRange() Range { return i.Range }

type PriceDirective struct {
	Date      Date
	Commodity Commodity
	Price     Amount
	Range     Range
}

func (PriceDirective) directive()        {}
func (d PriceDirective) GetRange() Range { return d.Range }

type YearDirective struct {
	Year  int
	Range Range
}

func (YearDirective) directive()        {}
func (d YearDirective) GetRange() Range { return d.Range }

type DecimalMarkDirective struct {
	Mark  rune
	Range Range
}

func (DecimalMarkDirective) directive()        {}
func (d DecimalMarkDirective) GetRange() Range { return d.Range }
