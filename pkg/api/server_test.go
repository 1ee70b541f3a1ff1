package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/tseutils/pkg/app/core/instrument"
	"github.com/uhyunpark/tseutils/pkg/app/core/orderbook"
	"github.com/uhyunpark/tseutils/pkg/metrics"
)

const foladISIN = "IRO1FOLD0001"

func setupServer(t *testing.T) (*Server, *httptest.Server, *metrics.Metrics) {
	t.Helper()

	reg := instrument.NewRegistry()
	in := instrument.New(instrument.Identification{
		ISIN:        foladISIN,
		TsetmcCode:  "46348559193224090",
		Ticker:      "فولاد",
		NamePersian: "فولاد مباركه اصفهان",
	})
	l := instrument.DefaultOrderLimitations()
	l.MaxPriceThreshold = 5390
	l.MinPriceThreshold = 4890
	l.Nsc = instrument.NscAllowed
	in.SetLimitations(l)

	updated := time.Date(2023, 9, 11, 9, 0, 0, 0, time.UTC)
	in.SetClientType(instrument.ClientType{NaturalBuyNum: 10, NaturalBuyVolume: 1000, LegalBuyVolume: 500}, updated)
	in.OrderBook.Set([]orderbook.BookRow{
		{DemandNum: 3, DemandVolume: 100, DemandPrice: 5390, SupplyNum: 1, SupplyVolume: 50, SupplyPrice: 5400},
	})
	in.DeepOrderBook.UpdateBuyRow(3, 100, 5390)
	in.DeepOrderBook.UpdateBuyRow(2, 70, 5380)
	in.DeepOrderBook.UpdateSellRow(1, 50, 5400)
	require.NoError(t, reg.Register(in))

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)
	s := NewServer(reg, WithMetrics(m, promReg))

	ctx, cancel := context.WithCancel(context.Background())
	go s.Hub().Run(ctx)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return s, srv, m
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestGetInstruments(t *testing.T) {
	_, srv, _ := setupServer(t)

	var list []InstrumentInfo
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/instruments", &list))
	require.Len(t, list, 1)
	assert.Equal(t, foladISIN, list[0].ISIN)
	assert.Equal(t, "http://www.tsetmc.com/instInfo/46348559193224090", list[0].URL)
	assert.True(t, list[0].HasBuyQueue)
	assert.False(t, list[0].HasSellQueue)
	assert.Equal(t, "A", list[0].Nsc)
	assert.Equal(t, instrument.NscAllowed.Label(), list[0].NscLabel)
}

func TestGetInstrumentNotFound(t *testing.T) {
	_, srv, _ := setupServer(t)

	var e ErrorResponse
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/v1/instruments/IRO1XXXX0001", &e))
	assert.Equal(t, "instrument not found", e.Error)
	assert.Contains(t, e.Message, "IRO1XXXX0001")

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/v1/instruments/IRO1XXXX0001/orderbook", nil))
}

func TestGetOrderbook(t *testing.T) {
	_, srv, _ := setupServer(t)

	var book DeepBookSnapshot
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/instruments/"+foladISIN+"/orderbook", &book))
	require.Len(t, book.Bids, 2)
	require.Len(t, book.Asks, 1)
	assert.Equal(t, int64(5390), book.Bids[0].Price)
	assert.Equal(t, int64(5380), book.Bids[1].Price)
	assert.Equal(t, int64(5395), book.MidPrice)
}

func TestGetBestLimitsAndClientType(t *testing.T) {
	_, srv, _ := setupServer(t)

	var bl BestLimitsSnapshot
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/instruments/"+foladISIN+"/bestlimits", &bl))
	require.Len(t, bl.Rows, 1)
	assert.Equal(t, int64(5400), bl.Rows[0].SupplyPrice)

	var ct ClientTypeSnapshot
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/instruments/"+foladISIN+"/clienttype", &ct))
	assert.Equal(t, int64(1500), ct.TradeVolume)
	assert.Equal(t, int64(100), ct.NaturalBuyPerCapita)
	assert.Equal(t, time.Date(2023, 9, 11, 9, 0, 0, 0, time.UTC).UnixMilli(), ct.UpdatedAt)
}

func TestHealthAndMetrics(t *testing.T) {
	_, srv, _ := setupServer(t)

	var health map[string]any
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(1), health["instruments"])

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tseutils_ws_clients")
}

func TestCORS(t *testing.T) {
	_, srv, _ := setupServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestWebSocketSubscribe(t *testing.T) {
	s, srv, m := setupServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(WSSubscribeRequest{
		Op:       "subscribe",
		Channels: []string{"orderbook:" + foladISIN, "clienttype:" + foladISIN},
	}))
	require.Eventually(t, func() bool {
		return s.hub.subscribers("clienttype:"+foladISIN) == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.WSClients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	s.BroadcastInstrument(foladISIN)
	s.BroadcastInstrument("unknown")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var book OrderbookUpdate
	require.NoError(t, conn.ReadJSON(&book))
	assert.Equal(t, "orderbook", book.Type)
	assert.Equal(t, foladISIN, book.ISIN)
	assert.Len(t, book.Bids, 2)

	var ct ClientTypeUpdate
	require.NoError(t, conn.ReadJSON(&ct))
	assert.Equal(t, "clienttype", ct.Type)
	assert.Equal(t, int64(1500), ct.TradeVolume)

	require.NoError(t, conn.WriteJSON(WSSubscribeRequest{
		Op:       "unsubscribe",
		Channels: []string{"orderbook:" + foladISIN},
	}))
	require.Eventually(t, func() bool {
		return s.hub.subscribers("orderbook:"+foladISIN) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
