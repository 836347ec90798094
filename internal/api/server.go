// Package api implements shrike's read façade (C6): a gorilla/mux-routed
// HTTP server over the store's read pool, plus the background stats
// refresher (C9) and the indexer-run trigger endpoint.
package api

import (
	"context"
	"net/http"

	"shrike/internal/indexer"
	"shrike/internal/store"

	"github.com/gorilla/mux"
)

// Server wires the read façade's HTTP surface to the store and indexer
// pipeline. One instance is constructed per process by cmd/shrike.
type Server struct {
	store      *store.Store
	pipeline   *indexer.Pipeline
	stats      *statsCache
	httpServer *http.Server
}

// NewServer builds the router, registers every route, and wraps it in an
// http.Server listening on addr (e.g. ":8080").
func NewServer(st *store.Store, pipeline *indexer.Pipeline, addr string) *Server {
	s := &Server{
		store:    st,
		pipeline: pipeline,
		stats:    newStatsCache(),
	}

	r := mux.NewRouter()
	r.Use(commonMiddleware)
	registerRoutes(r, s)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// Start runs the stats refresher in the background and blocks serving HTTP
// until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	go s.stats.refreshLoop(s.store)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// commonMiddleware sets the JSON content type and permissive CORS headers
// every response carries, and short-circuits preflight OPTIONS requests.
func commonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
