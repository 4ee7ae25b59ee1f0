package broker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInstruments(t *testing.T) {
	master := `[
		{"token":"438425","name":"GOLD","expiry":"05AUG2025","exch_seg":"MCX","instrumenttype":"FUTCOM"},
		{"token":"99999","name":"RELIANCE","expiry":"","exch_seg":"NSE","instrumenttype":"EQ"}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(master))
	}))
	defer srv.Close()

	cfg := testBrokerConfig(srv.URL)
	cfg.InstrumentsURL = srv.URL + "/master.json"
	c := NewClient(cfg)

	instruments, err := c.Instruments(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(instruments) != 2 {
		t.Fatalf("expected 2 instruments, got %d", len(instruments))
	}
	first := instruments[0]
	if first.Token != "438425" || first.Name != "GOLD" || first.ExchSeg != "MCX" || first.InstrumentType != "FUTCOM" {
		t.Errorf("instrument: %+v", first)
	}
}

func TestInstrumentsBadShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"maintenance"}`))
	}))
	defer srv.Close()

	cfg := testBrokerConfig(srv.URL)
	cfg.InstrumentsURL = srv.URL + "/master.json"
	c := NewClient(cfg)

	if _, err := c.Instruments(context.Background()); !errors.Is(err, ErrBadShape) {
		t.Errorf("expected ErrBadShape, got %v", err)
	}
}

func TestLTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer jwt-1" {
			t.Errorf("Authorization: got %q", got)
		}

		var body struct {
			Mode           string              `json:"mode"`
			ExchangeTokens map[string][]string `json:"exchangeTokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode quote body: %v", err)
		}
		if body.Mode != "LTP" {
			t.Errorf("mode: got %q", body.Mode)
		}
		if tokens := body.ExchangeTokens["MCX"]; len(tokens) != 2 {
			t.Errorf("MCX tokens: %v", tokens)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"fetched": []map[string]any{
					{"symbolToken": "438425", "ltp": 72150.0},
					{"symbolToken": "436580", "ltp": 91230.0},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(testBrokerConfig(srv.URL))
	prices, err := c.LTP(context.Background(), "jwt-1", []string{"438425", "436580"})
	if err != nil {
		t.Fatal(err)
	}
	if len(prices) != 2 {
		t.Fatalf("expected 2 prices, got %d", len(prices))
	}
	if prices[0].SymbolToken != "438425" || prices[0].LTP != 72150.0 {
		t.Errorf("price: %+v", prices[0])
	}
}

func TestLTPMissingFetched(t *testing.T) {
	// status:true with no data.fetched is upstream format drift, not a
	// valid empty result; it must surface as ErrBadShape, never as a
	// successful zero-price cycle.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":true,"data":{}}`))
	}))
	defer srv.Close()

	c := NewClient(testBrokerConfig(srv.URL))
	prices, err := c.LTP(context.Background(), "jwt-1", []string{"438425"})
	if !errors.Is(err, ErrBadShape) {
		t.Errorf("expected ErrBadShape, got prices=%v err=%v", prices, err)
	}
}

func TestLTPEmptyFetched(t *testing.T) {
	// An explicit empty list is a valid answer.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":true,"data":{"fetched":[]}}`))
	}))
	defer srv.Close()

	c := NewClient(testBrokerConfig(srv.URL))
	prices, err := c.LTP(context.Background(), "jwt-1", []string{"438425"})
	if err != nil {
		t.Fatal(err)
	}
	if len(prices) != 0 {
		t.Errorf("prices: %+v", prices)
	}
}

func TestLTPExpiredSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(testBrokerConfig(srv.URL))
	if _, err := c.LTP(context.Background(), "stale", []string{"438425"}); !IsAuthError(err) {
		t.Errorf("expected AuthError, got %v", err)
	}
}
