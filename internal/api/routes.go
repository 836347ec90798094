package api

import "github.com/gorilla/mux"

// registerRoutes wires every handler onto r, grouped the way the teacher's
// route registration split base/API concerns into small per-area funcs.
func registerRoutes(r *mux.Router, s *Server) {
	registerBlockRoutes(r, s)
	registerTransactionRoutes(r, s)
	registerHistoryRoutes(r, s)
	registerIndexerRoutes(r, s)
}

func registerBlockRoutes(r *mux.Router, s *Server) {
	r.HandleFunc("/v1/block/{id}", s.handleGetBlock).Methods("GET", "OPTIONS")
	r.HandleFunc("/v1/block/{id}/transactions", s.handleGetBlockTransactions).Methods("GET", "OPTIONS")
}

func registerTransactionRoutes(r *mux.Router, s *Server) {
	r.HandleFunc("/v1/transaction/{hash}", s.handleGetTransaction).Methods("GET", "OPTIONS")
	r.HandleFunc("/v1/transaction/sender/{address}", s.handleSenderTransactions).Methods("GET", "OPTIONS")
	r.HandleFunc("/v1/transaction/transfers/{address}", s.handleAddressTransfers).Methods("GET", "OPTIONS")
}

func registerHistoryRoutes(r *mux.Router, s *Server) {
	r.HandleFunc("/v1/balance-history/{address}/{token}", s.handleBalanceHistory).Methods("GET", "OPTIONS")
	r.HandleFunc("/v1/tokens/{token}/price-history", s.handleTokenPriceHistory).Methods("GET", "OPTIONS")
	r.HandleFunc("/v1/contracts/{contract}/daily-usage", s.handleContractDailyUsage).Methods("GET", "OPTIONS")
	r.HandleFunc("/v1/stats", s.handleStats).Methods("GET", "OPTIONS")
}

func registerIndexerRoutes(r *mux.Router, s *Server) {
	r.HandleFunc("/v1/indexer/run", s.handleRunIndexer).Methods("POST", "OPTIONS")
}
