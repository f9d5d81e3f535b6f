package analyzer

import (
	"github.com/shopspring/decimal"

	"github.com/juev/ledger-api/internal/ast"
)

type BalanceResult struct {
	Balanced    bool
	Differences map[string]decimal.Decimal

	// InferredIdx is the index in Transaction.Postings of the posting whose
	// amount was elided, or -1.
	InferredIdx      int
	Inferred         []ast.Amount
	MultipleInferred bool
}

func NewBalanceResult() *BalanceResult {
	return &BalanceResult{
		Balanced:    true,
		Differences: make(map[string]decimal.Decimal),
		InferredIdx: -1,
	}
}
