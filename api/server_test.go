package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/auricpulse/goldpulse/internal/catalog"
	"github.com/auricpulse/goldpulse/internal/config"
	"github.com/auricpulse/goldpulse/internal/live"
	"github.com/auricpulse/goldpulse/internal/market"
	"github.com/auricpulse/goldpulse/pkg/models"
)

type stubFetcher struct {
	text string
	err  error
}

func (s *stubFetcher) FetchText(context.Context, string) (string, error) {
	return s.text, s.err
}

type stubSessions struct{ err error }

func (s stubSessions) Ensure(context.Context) (string, error) { return "jwt", s.err }
func (s stubSessions) Login(context.Context) (string, error)  { return "jwt", s.err }
func (s stubSessions) Invalidate()                            {}

type stubQuoter struct {
	prices []models.TokenPrice
	err    error
}

func (s *stubQuoter) LTP(context.Context, string, []string) ([]models.TokenPrice, error) {
	return s.prices, s.err
}

type stubInstruments struct {
	instruments []models.Instrument
	err         error
}

func (s *stubInstruments) Instruments(context.Context) ([]models.Instrument, error) {
	return s.instruments, s.err
}

type serverFixture struct {
	srv     *Server
	store   *catalog.Store
	quoter  *stubQuoter
	source  *stubInstruments
	fetcher *stubFetcher
}

func newFixture() *serverFixture {
	cfg := &config.Config{
		Purity: config.PurityConfig{Gold22Ratio: 0.89, Gold18Ratio: 0.76},
	}
	fetcher := &stubFetcher{text: "1 GOLD 999 IMP AMD 72000 72100 72500 71800\n"}
	vendors := []config.FeedConfig{{
		Name:    "arihant",
		Source:  "Arihant",
		URL:     "http://feeds.test/arihant",
		Parser:  "dealer",
		Markers: []string{"GOLD 999"},
		Primary: true,
	}}
	agg := market.NewAggregator(fetcher, vendors, time.Minute, nil)

	store := catalog.NewStore()
	quoter := &stubQuoter{prices: []models.TokenPrice{
		{SymbolToken: store.Selected().GoldToken, LTP: 72150},
		{SymbolToken: store.Selected().SilverToken, LTP: 91230},
	}}
	prices := live.NewService(stubSessions{}, quoter, store, cfg.Purity, nil)

	source := &stubInstruments{}
	refresher := catalog.NewRefresher(source, store, nil)

	srv := NewServer(cfg, Deps{
		Market:    agg,
		Prices:    prices,
		Contracts: store,
		Refresher: refresher,
	})
	return &serverFixture{srv: srv, store: store, quoter: quoter, source: source, fetcher: fetcher}
}

func doRequest(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture()
	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := doRequest(t, f.srv, http.MethodGet, path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body["status"] != "ok" || body["market"] == "" {
			t.Errorf("%s: body %v", path, body)
		}
	}
}

func TestMarketPrices(t *testing.T) {
	f := newFixture()
	rec := doRequest(t, f.srv, http.MethodGet, "/api/v1/prices/market")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}

	var book models.MarketPriceBook
	if err := json.Unmarshal(rec.Body.Bytes(), &book); err != nil {
		t.Fatal(err)
	}
	quotes := book.Dealers["arihant"]
	if len(quotes) != 1 || quotes[0].Product != "GOLD 999 IMP AMD" {
		t.Errorf("dealers: %+v", book.Dealers)
	}
}

func TestMarketPricesFeedDown(t *testing.T) {
	f := newFixture()
	f.fetcher.err = errors.New("connection refused")

	rec := doRequest(t, f.srv, http.MethodGet, "/api/v1/prices/market")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status: got %d, want 502", rec.Code)
	}
}

func TestLivePricesInlineFetch(t *testing.T) {
	f := newFixture()
	rec := doRequest(t, f.srv, http.MethodGet, "/api/v1/prices/live")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}

	var body livePriceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Prices.Gold != 72150 || body.Prices.Silver != 91230 {
		t.Errorf("prices: %+v", body.Prices)
	}
	if body.Retail.Gold24Carat <= body.Prices.Gold {
		t.Errorf("retail 24K should include GST: %+v", body.Retail)
	}
	if body.UpdatedAt == "" {
		t.Error("missing updated_at")
	}
}

func TestLivePricesUnavailable(t *testing.T) {
	f := newFixture()
	f.quoter.err = errors.New("broker down")

	rec := doRequest(t, f.srv, http.MethodGet, "/api/v1/prices/live")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", rec.Code)
	}
}

func TestLivePricesServesLastGood(t *testing.T) {
	f := newFixture()
	// Prime the latest store, then break the broker.
	if rec := doRequest(t, f.srv, http.MethodGet, "/api/v1/prices/live"); rec.Code != http.StatusOK {
		t.Fatalf("prime: %d", rec.Code)
	}
	f.quoter.err = errors.New("broker down")

	rec := doRequest(t, f.srv, http.MethodGet, "/api/v1/prices/live")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want last good price", rec.Code)
	}
	var body livePriceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Prices.Gold != 72150 {
		t.Errorf("last good price: %+v", body.Prices)
	}
}

func TestContracts(t *testing.T) {
	f := newFixture()
	rec := doRequest(t, f.srv, http.MethodGet, "/api/v1/contracts")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var body contractsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Gold) == 0 || len(body.Silver) == 0 {
		t.Errorf("contracts empty: %+v", body)
	}
	if body.Selected.GoldToken == "" {
		t.Errorf("selected: %+v", body.Selected)
	}
}

func TestContractsRefresh(t *testing.T) {
	f := newFixture()
	f.source.instruments = []models.Instrument{
		{Token: "1", Name: "GOLD", Expiry: "05DEC2026", ExchSeg: "MCX", InstrumentType: "FUTCOM"},
	}

	rec := doRequest(t, f.srv, http.MethodPost, "/api/v1/contracts/refresh")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var body contractsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Gold) != 1 || body.Gold[0].Token != "1" {
		t.Errorf("gold after refresh: %+v", body.Gold)
	}
}

func TestContractsRefreshUpstreamDown(t *testing.T) {
	f := newFixture()
	f.source.err = errors.New("master unavailable")

	rec := doRequest(t, f.srv, http.MethodPost, "/api/v1/contracts/refresh")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status: got %d, want 502", rec.Code)
	}
}

func TestContractsSelectNoEligible(t *testing.T) {
	f := newFixture()
	f.store.ReplaceGold(nil)
	f.store.ReplaceSilver(nil)

	rec := doRequest(t, f.srv, http.MethodPost, "/api/v1/contracts/select")
	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", rec.Code)
	}
}

func TestWebSocketPricePush(t *testing.T) {
	f := newFixture()
	go f.srv.wsHub.Run()

	httpSrv := httptest.NewServer(f.srv.Router())
	defer httpSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws/prices"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// Wait for the hub to register the client before publishing.
	deadline := time.Now().Add(time.Second)
	for f.srv.wsHub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	f.srv.PublishPrice(models.LivePrice{Gold: 72150, Silver: 91230})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "price" {
		t.Errorf("type: got %q", msg.Type)
	}
	data, ok := msg.Data.(map[string]any)
	if !ok {
		t.Fatalf("data: %T", msg.Data)
	}
	prices, ok := data["prices"].(map[string]any)
	if !ok || prices["gold"].(float64) != 72150 {
		t.Errorf("payload: %+v", data)
	}
}
