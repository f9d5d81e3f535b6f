package analyzer

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/juev/ledger-api/internal/ast"
)

// CheckBalance verifies that the balancing postings of tx sum to zero in every
// commodity. A single posting without an amount absorbs the residual; its
// amounts (one per commodity) are returned in Inferred. Residuals smaller than
// the precision the transaction writes a commodity with are ignored.
func CheckBalance(tx *ast.Transaction) *BalanceResult {
	result := NewBalanceResult()

	balancing := balancingIndices(tx.Postings)
	inferredCount, inferredIdx := countInferredPostings(tx.Postings, balancing)

	if inferredCount > 1 {
		result.Balanced = false
		result.MultipleInferred = true
		return result
	}

	result.InferredIdx = inferredIdx

	balances, places := sumByCommodity(tx.Postings, balancing)

	commodities := make([]string, 0, len(balances))
	for commodity := range balances {
		commodities = append(commodities, commodity)
	}
	sort.Strings(commodities)

	for _, commodity := range commodities {
		sum := balances[commodity]
		if p, ok := places[commodity]; ok && sum.Round(p).IsZero() {
			continue
		}
		if sum.IsZero() {
			continue
		}

		if inferredCount == 1 {
			result.Inferred = append(result.Inferred, ast.Amount{
				Quantity:  sum.Neg(),
				Commodity: ast.Commodity{Symbol: commodity},
			})
			continue
		}

		result.Balanced = false
		result.Differences[commodity] = sum.Abs()
	}

	return result
}

// balancingIndices returns the postings that take part in balancing: real
// postings and balanced virtual [postings]. Unbalanced (virtual) postings
// are exempt.
func balancingIndices(postings []ast.Posting) []int {
	var idx []int
	for i, p := range postings {
		if p.Virtual == ast.VirtualNone || p.Virtual == ast.VirtualBalanced {
			idx = append(idx, i)
		}
	}
	return idx
}

func countInferredPostings(postings []ast.Posting, balancing []int) (count int, lastIdx int) {
	lastIdx = -1
	for _, i := range balancing {
		if postings[i].Amount == nil {
			count++
			lastIdx = i
		}
	}
	return
}

func sumByCommodity(postings []ast.Posting, balancing []int) (map[string]decimal.Decimal, map[string]int32) {
	balances := make(map[string]decimal.Decimal)
	places := make(map[string]int32)

	for _, i := range balancing {
		p := postings[i]
		if p.Amount == nil {
			continue
		}

		if p.Cost != nil {
			commodity := p.Cost.Amount.Commodity.Symbol
			var quantity decimal.Decimal
			if p.Cost.IsTotal {
				quantity = p.Cost.Amount.Quantity.Abs()
			} else {
				quantity = p.Cost.Amount.Quantity.Mul(p.Amount.Quantity.Abs())
			}
			if p.Amount.Quantity.IsNegative() {
				quantity = quantity.Neg()
			}
			balances[commodity] = balances[commodity].Add(quantity)
			continue
		}

		commodity := p.Amount.Commodity.Symbol
		balances[commodity] = balances[commodity].Add(p.Amount.Quantity)
		if exp := -p.Amount.Quantity.Exponent(); exp > places[commodity] {
			places[commodity] = exp
		} else if _, ok := places[commodity]; !ok {
			places[commodity] = max(exp, 0)
		}
	}

	return balances, places
}
