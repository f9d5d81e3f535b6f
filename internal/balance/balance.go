package balance

import (
	"strings"

	"github.com/juev/ledger-api/internal/journal"
)

// AccountBalance holds the windowed totals of an account and its subtree.
type AccountBalance struct {
	Account  *journal.Account
	Totals   Totals
	Cleared  Totals
	Children []*AccountBalance
}

// Compute walks the subtree rooted at account post-order. Each account adds
// its non-zero in-window direct postings to the merged totals of its
// children; cleared postings are accumulated separately in Cleared.
//
// The window only filters direct postings. Every subtree is walked and
// applies the same filter to its own postings.
func Compute(account *journal.Account, w Window) *AccountBalance {
	children := make([]*AccountBalance, 0, len(account.Children()))
	for _, child := range account.Children() {
		children = append(children, Compute(child, w))
	}

	b := &AccountBalance{
		Account:  account,
		Totals:   make(Totals),
		Cleared:  make(Totals),
		Children: children,
	}

	for _, child := range children {
		b.Totals.Merge(child.Totals)
		b.Cleared.Merge(child.Cleared)
	}

	for _, p := range account.Postings() {
		if p.Quantity.IsZero() || !w.Contains(p.Date) {
			continue
		}
		m := NewMoney(p.Commodity, p.Quantity)
		b.Totals.Add(m)
		if p.Cleared() {
			b.Cleared.Add(m)
		}
	}

	return b
}

// Find returns the balance of the descendant with the given full path, or
// nil.
func (b *AccountBalance) Find(fullPath string) *AccountBalance {
	if b.Account.FullPath() == fullPath {
		return b
	}
	for _, c := range b.Children {
		p := c.Account.FullPath()
		if p == fullPath || strings.HasPrefix(fullPath, p+journal.Separator) {
			return c.Find(fullPath)
		}
	}
	return nil
}
