package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"shrike/internal/models"
	"shrike/internal/store"

	"github.com/gorilla/mux"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shrike.db3")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func strPtr(s string) *string { return &s }

func repeatHex(n int) string {
	return strings.Repeat("0", n)
}

// seedBlockAndTx commits one block with one transaction carrying a single
// FUSDT-style Transfer notification whose from and to are both senderB64,
// returning the block hash and transaction hash so handler tests can
// address them.
func seedBlockAndTx(t *testing.T, st *store.Store, senderAddr, senderB64 string) (blockHash, txHash string) {
	t.Helper()

	blockHash = "0x" + repeatHex(64)
	txHash = "0x" + "1" + repeatHex(63)

	block := models.Block{
		Hash:                  blockHash,
		Size:                  100,
		Version:               0,
		MerkleRoot:            "0x" + repeatHex(64),
		TimeMs:                1700000000000,
		Nonce:                 "0",
		Speaker:               0,
		NextConsensus:         "addr",
		Reward:                5,
		RewardReceiverAddress: "addrR",
	}
	tx := models.Transaction{
		Hash:          txHash,
		VMState:       "HALT",
		Size:          10,
		Version:       0,
		Nonce:         1,
		SenderAddress: senderAddr,
		SysFee:        "100",
		NetFee:        "50",
		ValidUntil:    1000,
		SignersJSON:   "[]",
		ScriptHex:     "0x00",
		BlockTimeMs:   block.TimeMs,
		Notifications: []models.TransactionNotification{
			{
				ContractHash: fusdtContract,
				EventName:    "Transfer",
				StateType:    "Array",
				StateValues: []models.NotificationStateValue{
					{TypeTag: "ByteString", ValueText: &senderB64},
					{TypeTag: "ByteString", ValueText: &senderB64},
					{TypeTag: "Integer", ValueText: strPtr("1000000")},
				},
			},
		},
	}

	if err := st.CommitBatch(context.Background(), []models.Block{block}, []models.Transaction{tx}); err != nil {
		t.Fatalf("CommitBatch: %v", err)
	}
	return blockHash, txHash
}

func newTestRouter(st *store.Store) *mux.Router {
	s := &Server{store: st, stats: newStatsCache()}
	r := mux.NewRouter()
	registerRoutes(r, s)
	return r
}

func doRequest(r *mux.Router, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, rec.Body.String())
	}
	return env
}

func TestHandleGetBlock_ByHeightAndHash(t *testing.T) {
	st := newTestStore(t)
	blockHash, _ := seedBlockAndTx(t, st, "NSenderAddress", "AAAAAAAAAAAAAAAAAAAAAAAAAAA=")
	r := newTestRouter(st)

	for _, id := range []string{"1", blockHash} {
		rec := doRequest(r, http.MethodGet, "/v1/block/"+id)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET /v1/block/%s: status %d, body %s", id, rec.Code, rec.Body.String())
		}
		env := decodeEnvelope(t, rec)
		if env.Data == nil {
			t.Fatalf("GET /v1/block/%s: expected data, got %+v", id, env)
		}
	}
}

func TestHandleGetBlock_NotFound(t *testing.T) {
	st := newTestStore(t)
	r := newTestRouter(st)

	rec := doRequest(r, http.MethodGet, "/v1/block/999")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleGetBlock_InvalidHash(t *testing.T) {
	st := newTestStore(t)
	r := newTestRouter(st)

	rec := doRequest(r, http.MethodGet, "/v1/block/0xnothex")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (validation errors are 200-with-error-body)", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil {
		t.Fatalf("expected an error body, got %+v", env)
	}
}

func TestHandleGetBlockTransactions(t *testing.T) {
	st := newTestStore(t)
	_, txHash := seedBlockAndTx(t, st, "NSenderAddress", "AAAAAAAAAAAAAAAAAAAAAAAAAAA=")
	r := newTestRouter(st)

	rec := doRequest(r, http.MethodGet, "/v1/block/1/transactions")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, txHash) {
		t.Fatalf("expected body to mention %s, got %s", txHash, body)
	}
}

func TestHandleGetTransaction_IncludesDerivedTransferAmount(t *testing.T) {
	st := newTestStore(t)
	_, txHash := seedBlockAndTx(t, st, "NSenderAddress", "AAAAAAAAAAAAAAAAAAAAAAAAAAA=")
	r := newTestRouter(st)

	rec := doRequest(r, http.MethodGet, "/v1/transaction/"+txHash)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	// FUSDT divides by 10^6: raw 1000000 -> amount 1.
	if !strings.Contains(rec.Body.String(), `"amount":1`) {
		t.Fatalf("expected derived FUSDT amount of 1 in body, got %s", rec.Body.String())
	}
}

func TestHandleGetTransaction_NotFound(t *testing.T) {
	st := newTestStore(t)
	r := newTestRouter(st)

	rec := doRequest(r, http.MethodGet, "/v1/transaction/0x"+repeatHex(64))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleSenderTransactions_Pagination(t *testing.T) {
	st := newTestStore(t)
	seedBlockAndTx(t, st, "NSenderAddress", "AAAAAAAAAAAAAAAAAAAAAAAAAAA=")
	r := newTestRouter(st)

	rec := doRequest(r, http.MethodGet, "/v1/transaction/sender/NSenderAddress?page=0&per_page=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Meta["page"].(float64) != 0 {
		t.Fatalf("meta.page = %v, want 0", env.Meta["page"])
	}
}

func TestHandleSenderTransactions_BadPagination(t *testing.T) {
	st := newTestStore(t)
	r := newTestRouter(st)

	rec := doRequest(r, http.MethodGet, "/v1/transaction/sender/NSenderAddress?per_page=0")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for invalid per_page", rec.Code)
	}
}

func TestHandleSenderTransactions_BadSortBy(t *testing.T) {
	st := newTestStore(t)
	r := newTestRouter(st)

	rec := doRequest(r, http.MethodGet, "/v1/transaction/sender/NSenderAddress?sort_by=bogus&order=asc")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (sort_by validation is store.ErrInvalidInput)", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil {
		t.Fatalf("expected an error body for bad sort_by, got %+v", env)
	}
}

func TestHandleAddressTransfers_InvalidAddressIsErrorBodyWith200(t *testing.T) {
	st := newTestStore(t)
	senderAddr := "NSenderAddress"
	senderB64 := "AAAAAAAAAAAAAAAAAAAAAAAAAAA="
	seedBlockAndTx(t, st, senderAddr, senderB64)
	r := newTestRouter(st)

	// neoutil.AddressToBase64 requires a real base58check address, and
	// "NSenderAddress" is not one: the decode failure surfaces as
	// store.ErrInvalidInput, which the façade answers with 200 and an
	// error body.
	rec := doRequest(r, http.MethodGet, "/v1/transaction/transfers/NSenderAddress")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil {
		t.Fatalf("expected an error body for an invalid address, got %+v", env)
	}
}

func TestHandleBalanceHistory_RequiresDateRange(t *testing.T) {
	st := newTestStore(t)
	r := newTestRouter(st)

	rec := doRequest(r, http.MethodGet, "/v1/balance-history/NAddr/0xtoken")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing date_init/date_end", rec.Code)
	}
}

func TestHandleBalanceHistory_WithDateRange(t *testing.T) {
	st := newTestStore(t)
	r := newTestRouter(st)

	rec := doRequest(r, http.MethodGet, "/v1/balance-history/NAddr/0xtoken?date_init=2024-01-01&date_end=2024-12-31")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Error != nil {
		t.Fatalf("unexpected error: %v", env.Error)
	}
}

func TestHandleStats_ReflectsSeededData(t *testing.T) {
	st := newTestStore(t)
	seedBlockAndTx(t, st, "NSenderAddress", "AAAAAAAAAAAAAAAAAAAAAAAAAAA=")

	s := &Server{store: st, stats: newStatsCache()}
	s.stats.refreshOnce(st)

	r := mux.NewRouter()
	registerRoutes(r, s)

	rec := doRequest(r, http.MethodGet, "/v1/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"total_blocks":1`) {
		t.Fatalf("expected total_blocks 1 in stats, got %s", rec.Body.String())
	}
}
