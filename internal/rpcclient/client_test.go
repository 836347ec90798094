package rpcclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestObjectParam_PreservesFieldOrder(t *testing.T) {
	p := ObjectParam(Pair("type", "Hash160"), Pair("value", "abcd"))
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"Hash160","value":"abcd"}`
	if string(raw) != want {
		t.Fatalf("got %s, want %s", raw, want)
	}
}

func TestParseDecimalInt(t *testing.T) {
	cases := []struct {
		in   any
		want int64
	}{
		{"12345", 12345},
		{"-42", -42},
		{"0", 0},
		{"notanumber", 0},
		{42, 0}, // non-string values never parse
		{"", 0},
	}
	for _, tc := range cases {
		if got := parseDecimalInt(tc.in); got != tc.want {
			t.Errorf("parseDecimalInt(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestGetCurrentHeight(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Method != "getblockcount" {
			t.Fatalf("method = %q", req.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":12345}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	height, err := c.GetCurrentHeight(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentHeight: %v", err)
	}
	if height != 12345 {
		t.Fatalf("height = %d, want 12345", height)
	}
}

func TestGetBalanceOfHistoric_NonHaltYieldsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"vmstate":"FAULT","stack":[]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	bal, err := c.GetBalanceOfHistoric(context.Background(), 100, "0xabc", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("GetBalanceOfHistoric: %v", err)
	}
	if bal != 0 {
		t.Fatalf("balance = %d, want 0 on FAULT state", bal)
	}
}

func TestGetBalanceOfHistoric_CallErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	if _, err := c.GetBalanceOfHistoric(context.Background(), 100, "0xabc", []byte{1, 2, 3}); err == nil {
		t.Fatal("expected a propagated error on a transport failure")
	}
}

func TestGetBalanceOfHistoric_HaltParsesStack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"vmstate":"HALT","stack":[{"type":"Integer","value":"900000000"}]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	bal, err := c.GetBalanceOfHistoric(context.Background(), 100, "0xabc", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("GetBalanceOfHistoric: %v", err)
	}
	if bal != 900000000 {
		t.Fatalf("balance = %d, want 900000000", bal)
	}
}

func TestGetCurrentHeight_RetriesOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":777}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	height, err := c.GetCurrentHeight(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentHeight: %v", err)
	}
	if height != 777 {
		t.Fatalf("height = %d, want 777", height)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestGetCurrentHeight_DoesNotRetryLogicalRPCError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	if _, err := c.GetCurrentHeight(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1 (no retry on a logical RPC error)", attempts)
	}
}

func TestCall_PropagatesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid params"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	if _, err := c.GetCurrentHeight(context.Background()); err == nil {
		t.Fatal("expected error to propagate")
	}
}
