package journal

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/juev/ledger-api/internal/ast"
)

// Separator joins account path segments.
const Separator = ":"

// Posting is one amount booked to an account. A posting written with several
// commodities (an elided amount that absorbed a multi-commodity residual) is
// split into one Posting per commodity.
type Posting struct {
	Date      time.Time
	Commodity string
	Quantity  decimal.Decimal
	Status    ast.Status
}

func (p Posting) Cleared() bool {
	return p.Status == ast.StatusCleared
}

// Account is a node of the account tree. It is read-only once the Journal
// that owns it has been built.
type Account struct {
	name     string
	fullPath string
	parent   *Account
	children []*Account
	byName   map[string]*Account
	postings []Posting
}

func newAccount(name string, parent *Account) *Account {
	a := &Account{
		name:   name,
		parent: parent,
		byName: make(map[string]*Account),
	}
	if parent != nil && parent.fullPath != "" {
		a.fullPath = parent.fullPath + Separator + name
	} else {
		a.fullPath = name
	}
	return a
}

func (a *Account) Name() string     { return a.name }
func (a *Account) FullPath() string { return a.fullPath }
func (a *Account) Parent() *Account { return a.parent }

// Children returns the direct sub-accounts ordered by name.
func (a *Account) Children() []*Account { return a.children }

// Postings returns the postings booked directly to this account, in journal
// order. Postings of sub-accounts are not included.
func (a *Account) Postings() []Posting { return a.postings }

func (a *Account) IsRoot() bool { return a.parent == nil }

// Find returns the descendant named by a colon-separated path relative to a,
// or nil. An empty path returns a itself.
func (a *Account) Find(path string) *Account {
	if path == "" {
		return a
	}
	cur := a
	for _, part := range strings.Split(path, Separator) {
		next, ok := cur.byName[part]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// Walk calls fn for a and every descendant, parents before children.
func (a *Account) Walk(fn func(*Account)) {
	fn(a)
	for _, c := range a.children {
		c.Walk(fn)
	}
}

func (a *Account) child(name string) *Account {
	if c, ok := a.byName[name]; ok {
		return c
	}
	c := newAccount(name, a)
	a.byName[name] = c
	a.children = append(a.children, c)
	return c
}

// ensure returns the account for parts, creating missing intermediate
// accounts along the way.
func (a *Account) ensure(parts []string) *Account {
	cur := a
	for _, part := range parts {
		cur = cur.child(part)
	}
	return cur
}

func (a *Account) freeze() {
	sort.Slice(a.children, func(i, j int) bool {
		return a.children[i].name < a.children[j].name
	})
	for _, c := range a.children {
		c.freeze()
	}
}
