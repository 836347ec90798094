package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// handleGetBlock serves GET /v1/block/{id}. id is a decimal height or a
// "0x"-prefixed hex hash.
func (s *Server) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	block, err := s.store.GetBlock(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeAPIResponse(w, block, nil)
}

// handleGetBlockTransactions serves GET /v1/block/{id}/transactions.
func (s *Server) handleGetBlockTransactions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	txs, err := s.store.ListBlockTransactions(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeAPIResponse(w, newTransactionViews(txs), map[string]interface{}{"count": len(txs)})
}
