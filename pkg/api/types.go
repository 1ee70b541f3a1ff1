package api

import (
	"github.com/uhyunpark/tseutils/pkg/app/core/instrument"
	"github.com/uhyunpark/tseutils/pkg/app/core/orderbook"
)

// API response types for REST endpoints and WebSocket messages

// ==============================
// REST Response Types
// ==============================

// InstrumentInfo is an instrument's identification and daily trading state
type InstrumentInfo struct {
	ISIN         string                      `json:"isin"`
	TsetmcCode   string                      `json:"tsetmcCode"`
	Ticker       string                      `json:"ticker"`
	NamePersian  string                      `json:"namePersian,omitempty"`
	NameEnglish  string                      `json:"nameEnglish,omitempty"`
	URL          string                      `json:"url"`
	Nsc          string                      `json:"nsc,omitempty"`      // e.g. "A"
	NscLabel     string                      `json:"nscLabel,omitempty"` // Persian label
	HasBuyQueue  bool                        `json:"hasBuyQueue"`
	HasSellQueue bool                        `json:"hasSellQueue"`
	Limitations  instrument.OrderLimitations `json:"limitations"`
	Candle       instrument.TradeCandle      `json:"candle"`
}

// DeepBookSnapshot is every price level of an instrument
type DeepBookSnapshot struct {
	ISIN      string          `json:"isin"`
	Bids      []orderbook.Row `json:"bids"` // Sorted high to low
	Asks      []orderbook.Row `json:"asks"` // Sorted low to high
	MidPrice  int64           `json:"midPrice"`
	Timestamp int64           `json:"timestamp"` // Unix milliseconds
}

// BestLimitsSnapshot is the top rows TSETMC publishes
type BestLimitsSnapshot struct {
	ISIN      string              `json:"isin"`
	Rows      []orderbook.BookRow `json:"rows"`
	UpdatedAt int64               `json:"updatedAt"` // Unix milliseconds
}

// ClientTypeSnapshot is the natural/legal split of today's trades
type ClientTypeSnapshot struct {
	ISIN                 string                `json:"isin"`
	ClientType           instrument.ClientType `json:"clientType"`
	TradeVolume          int64                 `json:"tradeVolume"`
	NaturalBuyPerCapita  int64                 `json:"naturalBuyPerCapita"`
	NaturalSellPerCapita int64                 `json:"naturalSellPerCapita"`
	UpdatedAt            int64                 `json:"updatedAt"` // Unix milliseconds
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by client to subscribe to channels
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // e.g., ["orderbook:IRO1FOLD0001", "clienttype:IRO1FOLD0001"]
}

// OrderbookUpdate is broadcast after every feed refresh
type OrderbookUpdate struct {
	Type string `json:"type"` // "orderbook"
	DeepBookSnapshot
}

// ClientTypeUpdate is broadcast after every feed refresh
type ClientTypeUpdate struct {
	Type string `json:"type"` // "clienttype"
	ClientTypeSnapshot
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
