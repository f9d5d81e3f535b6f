package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/juev/ledger-api/internal/balance"
	"github.com/juev/ledger-api/internal/report"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, report.NewHealthResponse(s.opts.ServiceName, s.opts.Now()))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	window, ok := s.window(w, r)
	if !ok {
		return
	}

	b := balance.Compute(s.journal.Root(), window)
	s.logger.Debug("balance computed",
		zap.Stringer("window", window),
		zap.Int("commodities", len(b.Totals)))

	writeJSON(w, http.StatusOK, report.NewBalanceResponse(b, s.opts.Now()))
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	window, ok := s.window(w, r)
	if !ok {
		return
	}

	raw := chi.URLParam(r, "account")
	name, err := url.PathUnescape(raw)
	if err != nil {
		name = raw
	}

	account := s.journal.Find(name)
	if account == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("account not found: %s", name))
		return
	}

	b := balance.Compute(account, window)
	writeJSON(w, http.StatusOK, report.NewBalanceResponse(b, s.opts.Now()))
}

// window reads the optional after/before query parameters. On failure it
// answers 422 and returns false.
func (s *Server) window(w http.ResponseWriter, r *http.Request) (balance.Window, bool) {
	q := r.URL.Query()
	window, err := balance.ParseWindow(q.Get("after"), q.Get("before"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return balance.Window{}, false
	}
	return window, true
}
