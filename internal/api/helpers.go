package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"shrike/internal/store"
)

// apiEnvelope is the response shape every handler writes: Links/Meta carry
// pagination context, Data carries the payload, Error carries a message on
// failure. A response never sets both Data and Error.
type apiEnvelope struct {
	Links map[string]string      `json:"_links,omitempty"`
	Meta  map[string]interface{} `json:"_meta,omitempty"`
	Data  interface{}            `json:"data,omitempty"`
	Error interface{}            `json:"error,omitempty"`
}

func writeAPIResponse(w http.ResponseWriter, data interface{}, meta map[string]interface{}) {
	json.NewEncoder(w).Encode(apiEnvelope{Data: data, Meta: meta})
}

// writeAPIError writes status with an {"error": message} body. Most
// validation failures use http.StatusOK here per the façade's
// historical-compatibility error policy; callers pick the status.
func writeAPIError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiEnvelope{Error: message})
}

const (
	defaultPage    = 0
	defaultPerPage = 100
	maxPerPage     = 1000
)

// pagination holds the parsed page/per_page/sort_by/order query parameters
// shared by every list endpoint.
type pagination struct {
	Page    int
	PerPage int
	SortBy  string
	Order   string
}

// parsePagination reads page/per_page/sort_by/order from the query string.
// Unlike most of this façade's validation, a bad page or per_page is a
// client error worth a real 400: there is no sensible "error body with 200"
// reading for a value that breaks LIMIT/OFFSET arithmetic.
func parsePagination(r *http.Request) (pagination, error) {
	p := pagination{
		Page:    defaultPage,
		PerPage: defaultPerPage,
		SortBy:  r.URL.Query().Get("sort_by"),
		Order:   r.URL.Query().Get("order"),
	}

	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return pagination{}, errInvalidPagination("page", v)
		}
		p.Page = n
	}

	if v := r.URL.Query().Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxPerPage {
			return pagination{}, errInvalidPagination("per_page", v)
		}
		p.PerPage = n
	}

	return p, nil
}

type paginationError struct {
	param, value string
}

func (e *paginationError) Error() string {
	return "invalid " + e.param + " parameter: " + e.value
}

func errInvalidPagination(param, value string) error {
	return &paginationError{param: param, value: value}
}

// dateRange holds the date_init/date_end query parameters the history
// endpoints require. Both are mandatory; there is no sensible default
// window for an open-ended aggregate scan.
type dateRange struct {
	Init string
	End  string
}

func parseDateRange(r *http.Request) (dateRange, error) {
	init := r.URL.Query().Get("date_init")
	end := r.URL.Query().Get("date_end")
	if init == "" || end == "" {
		return dateRange{}, errInvalidPagination("date_init/date_end", init+"/"+end)
	}
	return dateRange{Init: init, End: end}, nil
}

// writeStoreError maps a store-layer error to the façade's status-code
// policy: ErrNotFound is a real 404, ErrInvalidInput is a 200 carrying an
// error body (historical compatibility), and anything else is a 500.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeAPIError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidInput):
		writeAPIError(w, http.StatusOK, err.Error())
	default:
		writeAPIError(w, http.StatusInternalServerError, err.Error())
	}
}

// writePaginationError always answers 400: a malformed page/per_page/
// date_init/date_end value breaks query arithmetic rather than naming a
// legitimately absent resource, so it does not get the 200-with-error
// treatment the address/hash validation errors do.
func writePaginationError(w http.ResponseWriter, err error) {
	writeAPIError(w, http.StatusBadRequest, err.Error())
}
