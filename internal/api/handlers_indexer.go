package api

import "net/http"

// handleRunIndexer serves POST /v1/indexer/run: triggers a single catch-up
// sync. 409 when a run is already in flight, 500 on failure, 200 with true
// on success.
func (s *Server) handleRunIndexer(w http.ResponseWriter, r *http.Request) {
	alreadyRunning, err := s.pipeline.RunOnce(r.Context())
	if alreadyRunning {
		writeAPIError(w, http.StatusConflict, "indexer run already in progress")
		return
	}
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeAPIResponse(w, true, nil)
}
