package priceclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetPricesFromBlock_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/flamingo/live-data/prices/from-block/664001" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"symbol":"GAS","unwrappedSymbol":"GAS","hash":"0xd2a4cff31913016155e38e474a2c06d08be276cf","usd_price":4.5}]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	prices, err := c.GetPricesFromBlock(context.Background(), 664001)
	if err != nil {
		t.Fatalf("GetPricesFromBlock: %v", err)
	}
	if len(prices) != 1 || prices[0].Symbol != "GAS" {
		t.Fatalf("unexpected prices: %+v", prices)
	}
}

func TestGetPricesFromBlock_NonOKIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.GetPricesFromBlock(context.Background(), 1); err == nil {
		t.Fatal("expected error on 500 response")
	}
}
