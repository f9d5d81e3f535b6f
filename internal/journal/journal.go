package journal

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/juev/ledger-api/internal/analyzer"
	"github.com/juev/ledger-api/internal/ast"
	"github.com/juev/ledger-api/internal/include"
)

// Journal is the in-memory account tree built from a journal file and the
// files it includes. It is never mutated after Build returns, so it can be
// shared by concurrent readers without locking.
type Journal struct {
	path         string
	files        []string
	root         *Account
	transactions int
	postings     int
	accounts     int
}

func (j *Journal) Path() string      { return j.path }
func (j *Journal) Files() []string   { return j.files }
func (j *Journal) Root() *Account    { return j.root }
func (j *Journal) Transactions() int { return j.transactions }
func (j *Journal) PostingCount() int { return j.postings }
func (j *Journal) AccountCount() int { return j.accounts }

// Find returns the account with the given full path, or nil.
func (j *Journal) Find(path string) *Account {
	if path == "" {
		return nil
	}
	return j.root.Find(path)
}

// TransactionError reports a transaction whose postings do not balance.
type TransactionError struct {
	Path             string
	Line             int
	Date             string
	Description      string
	Differences      map[string]string
	MultipleInferred bool
}

func (e *TransactionError) Error() string {
	loc := fmt.Sprintf("%s:%d", e.Path, e.Line)
	if e.MultipleInferred {
		return fmt.Sprintf("%s: transaction %s %q has more than one posting without an amount", loc, e.Date, e.Description)
	}

	commodities := make([]string, 0, len(e.Differences))
	for c := range e.Differences {
		commodities = append(commodities, c)
	}
	sort.Strings(commodities)

	parts := make([]string, 0, len(commodities))
	for _, c := range commodities {
		parts = append(parts, strings.TrimSpace(c+" "+e.Differences[c]))
	}
	return fmt.Sprintf("%s: transaction %s %q does not balance (off by %s)", loc, e.Date, e.Description, strings.Join(parts, ", "))
}

// Load reads the journal at path, following includes, and builds it. Any
// load, parse or balancing problem is returned as an error.
func Load(path string, limits include.Limits) (*Journal, error) {
	loader := include.NewLoader()
	loader.SetLimits(limits)

	resolved, loadErrs := loader.Load(path)
	if len(loadErrs) > 0 {
		errs := make([]error, 0, len(loadErrs))
		for _, e := range loadErrs {
			errs = append(errs, e)
		}
		return nil, fmt.Errorf("load journal %s: %w", path, errors.Join(errs...))
	}

	return Build(resolved)
}

// Build constructs the account tree from an already resolved journal.
func Build(resolved *include.ResolvedJournal) (*Journal, error) {
	if resolved == nil || resolved.Primary == nil {
		return nil, errors.New("build journal: nothing to build")
	}

	j := &Journal{
		path:  resolved.Path,
		files: resolved.Paths(),
		root:  newAccount("", nil),
	}

	for _, f := range resolved.Sources() {
		for _, d := range f.Journal.Directives {
			if ad, ok := d.(ast.AccountDirective); ok && ad.Account.Name != "" {
				j.root.ensure(ad.Account.Parts)
			}
		}
		for i := range f.Journal.Transactions {
			if err := j.addTransaction(f.Path, &f.Journal.Transactions[i]); err != nil {
				return nil, err
			}
		}
	}

	j.root.freeze()
	j.root.Walk(func(*Account) { j.accounts++ })
	j.accounts--

	return j, nil
}

func (j *Journal) addTransaction(path string, tx *ast.Transaction) error {
	result := analyzer.CheckBalance(tx)
	if !result.Balanced {
		diffs := make(map[string]string, len(result.Differences))
		for c, d := range result.Differences {
			diffs[c] = d.String()
		}
		return &TransactionError{
			Path:             path,
			Line:             tx.Range.Start.Line,
			Date:             tx.Date.String(),
			Description:      tx.Description,
			Differences:      diffs,
			MultipleInferred: result.MultipleInferred,
		}
	}

	date, ok := tx.Date.Time()
	if !ok {
		return fmt.Errorf("%s:%d: invalid date %s", path, tx.Range.Start.Line, tx.Date)
	}

	for i := range tx.Postings {
		p := &tx.Postings[i]
		account := j.root.ensure(p.Account.Parts)

		status := p.Status
		if status == ast.StatusNone {
			status = tx.Status
		}

		switch {
		case i == result.InferredIdx:
			for _, amt := range result.Inferred {
				account.postings = append(account.postings, Posting{
					Date:      date,
					Commodity: amt.Commodity.Symbol,
					Quantity:  amt.Quantity,
					Status:    status,
				})
				j.postings++
			}
		case p.Amount != nil:
			account.postings = append(account.postings, Posting{
				Date:      date,
				Commodity: p.Amount.Commodity.Symbol,
				Quantity:  p.Amount.Quantity,
				Status:    status,
			})
			j.postings++
		}
	}

	j.transactions++
	return nil
}
