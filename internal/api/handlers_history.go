package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// handleBalanceHistory serves GET /v1/balance-history/{address}/{token}.
func (s *Server) handleBalanceHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	p, err := parsePagination(r)
	if err != nil {
		writePaginationError(w, err)
		return
	}
	dr, err := parseDateRange(r)
	if err != nil {
		writePaginationError(w, err)
		return
	}

	rows, err := s.store.ListDailyAddressBalances(r.Context(), vars["address"], vars["token"], p.Page, p.PerPage, p.SortBy, p.Order, dr.Init, dr.End)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeAPIResponse(w, rows, map[string]interface{}{
		"page": p.Page, "per_page": p.PerPage, "count": len(rows),
	})
}

// handleTokenPriceHistory serves GET /v1/tokens/{token}/price-history.
func (s *Server) handleTokenPriceHistory(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	p, err := parsePagination(r)
	if err != nil {
		writePaginationError(w, err)
		return
	}
	dr, err := parseDateRange(r)
	if err != nil {
		writePaginationError(w, err)
		return
	}

	rows, err := s.store.ListDailyTokenPrices(r.Context(), token, p.Page, p.PerPage, p.SortBy, p.Order, dr.Init, dr.End)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeAPIResponse(w, rows, map[string]interface{}{
		"page": p.Page, "per_page": p.PerPage, "count": len(rows),
	})
}

// handleContractDailyUsage serves GET /v1/contracts/{contract}/daily-usage.
func (s *Server) handleContractDailyUsage(w http.ResponseWriter, r *http.Request) {
	contract := mux.Vars(r)["contract"]

	p, err := parsePagination(r)
	if err != nil {
		writePaginationError(w, err)
		return
	}
	dr, err := parseDateRange(r)
	if err != nil {
		writePaginationError(w, err)
		return
	}

	rows, err := s.store.ListDailyContractUsage(r.Context(), contract, p.Page, p.PerPage, p.SortBy, p.Order, dr.Init, dr.End)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeAPIResponse(w, rows, map[string]interface{}{
		"page": p.Page, "per_page": p.PerPage, "count": len(rows),
	})
}

// handleStats serves GET /v1/stats from the background-refreshed snapshot.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeAPIResponse(w, s.stats.get(), nil)
}
