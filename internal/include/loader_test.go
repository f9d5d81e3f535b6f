package include

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoader_LoadSingleFile(t *testing.T) {
	dir := t.TempDir()
	mainFile := filepath.Join(dir, "main.ledger")
	writeFile(t, mainFile, `2024/01/15 * Market
    Expenses:Food  BRL 50.00
    Assets:Cash
`)

	result, errs := NewLoader().Load(mainFile)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if result == nil || result.Primary == nil {
		t.Fatal("primary journal is nil")
	}
	if len(result.Primary.Transactions) != 1 {
		t.Errorf("expected 1 transaction, got %d", len(result.Primary.Transactions))
	}
	if len(result.Files) != 0 {
		t.Errorf("expected no included files, got %d", len(result.Files))
	}
}

func TestLoader_MissingRootFile(t *testing.T) {
	result, errs := NewLoader().Load(filepath.Join(t.TempDir(), "absent.ledger"))
	if result != nil {
		t.Error("expected nil result for a missing root file")
	}
	if len(errs) != 1 || errs[0].Kind != ErrorFileNotFound {
		t.Fatalf("expected one ErrorFileNotFound, got %v", errs)
	}
}

func TestLoader_IncludesKeepSourceOrder(t *testing.T) {
	dir := t.TempDir()
	mainFile := filepath.Join(dir, "main.ledger")
	writeFile(t, mainFile, `include accounts.ledger
include 2024/january.ledger
`)
	writeFile(t, filepath.Join(dir, "accounts.ledger"), `account Assets:Cash
account Expenses:Food
include nested.ledger
`)
	writeFile(t, filepath.Join(dir, "nested.ledger"), `commodity BRL
`)
	writeFile(t, filepath.Join(dir, "2024", "january.ledger"), `2024/01/15 * Market
    Expenses:Food  BRL 50.00
    Assets:Cash
`)

	result, errs := NewLoader().Load(mainFile)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := []string{
		mainFile,
		filepath.Join(dir, "accounts.ledger"),
		filepath.Join(dir, "nested.ledger"),
		filepath.Join(dir, "2024", "january.ledger"),
	}
	got := result.Paths()
	if len(got) != len(want) {
		t.Fatalf("Paths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Paths()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	var txs, dirs int
	for _, f := range result.Sources() {
		txs += len(f.Journal.Transactions)
		dirs += len(f.Journal.Directives)
	}
	if txs != 1 {
		t.Errorf("expected 1 transaction, got %d", txs)
	}
	if dirs != 3 {
		t.Errorf("expected 3 directives, got %d", dirs)
	}
}

func TestLoader_GlobInclude(t *testing.T) {
	dir := t.TempDir()
	mainFile := filepath.Join(dir, "main.ledger")
	writeFile(t, mainFile, "include months/*.ledger\n")
	writeFile(t, filepath.Join(dir, "months", "02.ledger"), `2024/02/01 Rent
    Expenses:Rent  BRL 900
    Assets:Bank
`)
	writeFile(t, filepath.Join(dir, "months", "01.ledger"), `2024/01/01 Rent
    Expenses:Rent  BRL 900
    Assets:Bank
`)

	result, errs := NewLoader().Load(mainFile)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(result.Files) != 2 {
		t.Fatalf("expected 2 included files, got %d", len(result.Files))
	}
	if filepath.Base(result.Files[0].Path) != "01.ledger" {
		t.Errorf("glob matches should load in sorted order, got %s first", result.Files[0].Path)
	}
}

func TestLoader_GlobWithoutMatches(t *testing.T) {
	dir := t.TempDir()
	mainFile := filepath.Join(dir, "main.ledger")
	writeFile(t, mainFile, "include months/*.ledger\n")

	_, errs := NewLoader().Load(mainFile)
	if len(errs) != 1 || errs[0].Kind != ErrorFileNotFound {
		t.Fatalf("expected one ErrorFileNotFound, got %v", errs)
	}
}

func TestLoader_CycleDetection(t *testing.T) {
	dir := t.TempDir()
	fileA := filepath.Join(dir, "a.ledger")
	fileB := filepath.Join(dir, "b.ledger")
	writeFile(t, fileA, "include b.ledger\n")
	writeFile(t, fileB, "include a.ledger\n")

	result, errs := NewLoader().Load(fileA)
	if result == nil {
		t.Fatal("result is nil")
	}

	found := false
	for _, e := range errs {
		if e.Kind == ErrorCycleDetected {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a cycle error, got %v", errs)
	}
}

func TestLoader_SelfInclude(t *testing.T) {
	dir := t.TempDir()
	mainFile := filepath.Join(dir, "main.ledger")
	writeFile(t, mainFile, "include main.ledger\n")

	_, errs := NewLoader().Load(mainFile)
	if len(errs) != 1 || errs[0].Kind != ErrorCycleDetected {
		t.Fatalf("expected one cycle error, got %v", errs)
	}
}

func TestLoader_MissingInclude(t *testing.T) {
	dir := t.TempDir()
	mainFile := filepath.Join(dir, "main.ledger")
	writeFile(t, mainFile, "include absent.ledger\n")

	result, errs := NewLoader().Load(mainFile)
	if result == nil {
		t.Fatal("result is nil")
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if errs[0].Kind != ErrorFileNotFound {
		t.Errorf("expected ErrorFileNotFound, got %v", errs[0].Kind)
	}
	if errs[0].Path != mainFile {
		t.Errorf("error should point at the including file, got %s", errs[0].Path)
	}
	if errs[0].Range.Start.Line != 1 {
		t.Errorf("error should point at line 1, got %d", errs[0].Range.Start.Line)
	}
}

func TestLoader_ParseErrorsCarryPath(t *testing.T) {
	dir := t.TempDir()
	mainFile := filepath.Join(dir, "main.ledger")
	writeFile(t, mainFile, "include bad.ledger\n")
	writeFile(t, filepath.Join(dir, "bad.ledger"), `2024/13/01 Broken
    Assets:Cash  BRL 1
    Equity
`)

	_, errs := NewLoader().Load(mainFile)
	if len(errs) == 0 {
		t.Fatal("expected parse errors")
	}
	if errs[0].Kind != ErrorParseError {
		t.Errorf("expected ErrorParseError, got %v", errs[0].Kind)
	}
	if errs[0].Path != filepath.Join(dir, "bad.ledger") {
		t.Errorf("parse error should name the included file, got %s", errs[0].Path)
	}
}

func TestLoader_FileTooLarge(t *testing.T) {
	dir := t.TempDir()
	mainFile := filepath.Join(dir, "main.ledger")
	writeFile(t, mainFile, "; this file is larger than sixteen bytes\n")

	loader := NewLoader()
	loader.SetLimits(Limits{MaxFileSizeBytes: 16})

	_, errs := loader.Load(mainFile)
	if len(errs) != 1 || errs[0].Kind != ErrorFileTooLarge {
		t.Fatalf("expected ErrorFileTooLarge, got %v", errs)
	}
}

func TestLoader_IncludeDepthLimit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "0.ledger"), "include 1.ledger\n")
	writeFile(t, filepath.Join(dir, "1.ledger"), "include 2.ledger\n")
	writeFile(t, filepath.Join(dir, "2.ledger"), "include 3.ledger\n")
	writeFile(t, filepath.Join(dir, "3.ledger"), "")

	loader := NewLoader()
	loader.SetLimits(Limits{MaxIncludeDepth: 2})

	_, errs := loader.Load(filepath.Join(dir, "0.ledger"))
	if len(errs) != 1 || errs[0].Kind != ErrorTooDeep {
		t.Fatalf("expected ErrorTooDeep, got %v", errs)
	}
}

func TestLoader_SetLimitsKeepsDefaultsForZero(t *testing.T) {
	loader := NewLoader()
	loader.SetLimits(Limits{})
	if loader.Limits() != DefaultLimits() {
		t.Errorf("zero limits should fall back to defaults, got %+v", loader.Limits())
	}
}
