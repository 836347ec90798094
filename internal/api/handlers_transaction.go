package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// handleGetTransaction serves GET /v1/transaction/{hash}, returning the
// transaction with its witnesses and full notification tree loaded.
func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]

	tx, err := s.store.GetTransactionByHash(r.Context(), hash)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeAPIResponse(w, newTransactionView(*tx), nil)
}

// handleSenderTransactions serves GET /v1/transaction/sender/{address}.
func (s *Server) handleSenderTransactions(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	p, err := parsePagination(r)
	if err != nil {
		writePaginationError(w, err)
		return
	}

	txs, err := s.store.ListSenderTransactions(r.Context(), address, p.Page, p.PerPage, p.SortBy, p.Order)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeAPIResponse(w, newTransactionViews(txs), map[string]interface{}{
		"page": p.Page, "per_page": p.PerPage, "count": len(txs),
	})
}

// handleAddressTransfers serves GET /v1/transaction/transfers/{address}.
func (s *Server) handleAddressTransfers(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	p, err := parsePagination(r)
	if err != nil {
		writePaginationError(w, err)
		return
	}

	asSender, asParticipant, err := s.store.ListAddressTransfers(r.Context(), address, p.Page, p.PerPage, p.SortBy, p.Order)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	view := addressTransfersView{
		AsSender:      newTransactionViews(asSender),
		AsParticipant: newTransactionViews(asParticipant),
	}
	writeAPIResponse(w, view, map[string]interface{}{
		"page": p.Page, "per_page": p.PerPage,
		"sender_count": len(asSender), "participant_count": len(asParticipant),
	})
}
