package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juev/ledger-api/internal/config"
	"github.com/juev/ledger-api/internal/include"
	"github.com/juev/ledger-api/internal/journal"
	"github.com/juev/ledger-api/internal/report"
)

const sampleJournal = `2024/01/05 * Salary
    Assets:Bank  BRL 1,000.00
    Income:Salary

2024/02/10 Market
    Expenses:Food  BRL 250.00
    Assets:Bank
`

func writeJournal(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("LEDGER_FILE", "")
	t.Setenv("HLEDGER_JOURNAL", "")
	path := filepath.Join(dir, "main.ledger")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none, built: unknown)")
}

func TestBalanceCommand(t *testing.T) {
	path := writeJournal(t, sampleJournal)

	out, err := execute(t, "balance", "--file", path)
	require.NoError(t, err)

	var resp report.BalanceResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.NotEmpty(t, resp.Timestamp)
	require.Len(t, resp.Account.Children, 3)
	assert.Equal(t, "Assets", resp.Account.Children[0].Account)
	assert.Equal(t, "BRL 750.00", resp.Account.Children[0].FormattedAmounts["BRL"])
	assert.Equal(t, "BRL 1,000.00", resp.Account.Children[0].FormattedClearedAmounts["BRL"])
}

func TestBalanceCommand_PositionalAndWindow(t *testing.T) {
	path := writeJournal(t, sampleJournal)

	out, err := execute(t, "balance", path, "--after", "2024-02-01", "--account", "Assets:Bank")
	require.NoError(t, err)

	var resp report.BalanceResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Assets:Bank", resp.Account.FullPath)
	assert.Equal(t, "-250.00", resp.Account.Amounts["BRL"])
	assert.Empty(t, resp.Account.ClearedAmounts)
}

func TestBalanceCommand_FromEnvironment(t *testing.T) {
	path := writeJournal(t, sampleJournal)
	t.Setenv("LEDGER_FILE", path)

	_, err := execute(t, "balance")
	assert.NoError(t, err)
}

func TestBalanceCommand_Errors(t *testing.T) {
	path := writeJournal(t, sampleJournal)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad date", []string{"balance", "-f", path, "--before", "2024-02-31"}, "invalid before date"},
		{"missing journal", []string{"balance", "-f", filepath.Join(t.TempDir(), "none.ledger")}, "loading journal"},
		{"unknown account", []string{"balance", "-f", path, "--account", "Assets:Nope"}, "account not found: Assets:Nope"},
		{"bad log format", []string{"balance", "-f", path, "--log-format", "xml"}, "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBalanceCommand_Unbalanced(t *testing.T) {
	path := writeJournal(t, `2024/01/05 Broken
    Assets:Bank  BRL 10
    Income:Salary  BRL -9
`)

	_, err := execute(t, "balance", "-f", path)
	require.Error(t, err)

	var txErr *journal.TransactionError
	assert.ErrorAs(t, err, &txErr)
}

func TestServeCommand_FailsWithoutJournal(t *testing.T) {
	writeJournal(t, sampleJournal)

	_, err := execute(t, "serve", "-f", filepath.Join(t.TempDir(), "none.ledger"), "--addr", "127.0.0.1:0")
	require.Error(t, err)

	var loadErr include.LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestServe_ServesUntilCancelled(t *testing.T) {
	path := writeJournal(t, sampleJournal)

	cfg := config.Load()
	cfg.JournalPath = path
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second

	j, err := journal.Load(cfg.JournalPath, cfg.Limits)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan string)
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, cfg, j, zap.NewNop(), ready)
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/api/health")
	require.NoError(t, err)
	var health report.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "OK", health.Status)
	assert.Equal(t, "ledger-api", health.Service)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
