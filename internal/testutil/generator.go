package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var accounts = []string{
	"Expenses:Food:Groceries",
	"Expenses:Food:Restaurants",
	"Expenses:Transport:Fuel",
	"Expenses:Utilities:Electricity",
	"Expenses:Utilities:Water",
	"Assets:Bank:Checking",
	"Assets:Bank:Savings",
	"Assets:Cash",
	"Liabilities:CreditCard:Visa",
	"Income:Salary",
}

var commodities = []string{"BRL", "USD", "EUR"}

var statuses = []string{"* ", "! ", ""}

// GenerateJournal returns a syntactically valid ledger journal with
// numTransactions balanced transactions. Every fifth transaction buys shares
// at a unit cost and leaves the funding posting elided.
func GenerateJournal(numTransactions int) string {
	var sb strings.Builder

	sb.WriteString("commodity BRL\n    format BRL 1,000.00\n\n")

	for i := 0; i < numTransactions; i++ {
		year := 2020 + (i / 365)
		month := (i/30)%12 + 1
		day := i%28 + 1

		fromAcc := accounts[i%len(accounts)]
		toAcc := accounts[(i+1)%len(accounts)]
		commodity := commodities[i%len(commodities)]
		amount := (i%1000 + 1) * 10
		status := statuses[i%len(statuses)]

		fmt.Fprintf(&sb, "%04d/%02d/%02d %sPayee %d\n", year, month, day, status, i)

		if i%5 == 0 {
			fmt.Fprintf(&sb, "    Assets:Broker  %d ACME @ BRL %d.%02d\n", i%7+1, amount/100, amount%100)
			sb.WriteString("    Assets:Bank:Checking\n")
		} else {
			fmt.Fprintf(&sb, "    %s  %s %d.%02d\n", fromAcc, commodity, amount/100, amount%100)
			fmt.Fprintf(&sb, "    %s  %s -%d.%02d\n", toAcc, commodity, amount/100, amount%100)
		}

		if i%10 == 0 {
			fmt.Fprintf(&sb, "    ; tag:value%d\n", i)
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// GenerateIncludeTree writes numFiles generated journals plus a main.ledger
// that includes them all, and returns the path of main.ledger.
func GenerateIncludeTree(tmpDir string, numFiles, txPerFile int) (string, error) {
	var mainContent strings.Builder

	for i := 0; i < numFiles; i++ {
		filename := fmt.Sprintf("file%d.ledger", i)
		fmt.Fprintf(&mainContent, "include %s\n", filename)

		content := GenerateJournal(txPerFile)
		filePath := filepath.Join(tmpDir, filename)
		if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
			return "", err
		}
	}

	mainPath := filepath.Join(tmpDir, "main.ledger")
	if err := os.WriteFile(mainPath, []byte(mainContent.String()), 0644); err != nil {
		return "", err
	}

	return mainPath, nil
}
