package tsetmc

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/tseutils/pkg/app/core/instrument"
	"github.com/uhyunpark/tseutils/pkg/app/core/orderbook"
)

func (c *Client) InstrumentIdentityRaw(ctx context.Context, tsetmcCode string) (map[string]any, error) {
	return c.getRaw(ctx, "instrument_identity", "api/Instrument/GetInstrumentIdentity/"+tsetmcCode)
}

// InstrumentIdentity fetches the identification of an instrument
func (c *Client) InstrumentIdentity(ctx context.Context, tsetmcCode string) (Identity, error) {
	var resp struct {
		InstrumentIdentity rawIdentity `json:"instrumentIdentity"`
	}
	if err := c.get(ctx, "instrument_identity", "api/Instrument/GetInstrumentIdentity/"+tsetmcCode, &resp); err != nil {
		return Identity{}, err
	}
	return resp.InstrumentIdentity.toIdentity(tsetmcCode), nil
}

func (c *Client) InstrumentSearchRaw(ctx context.Context, value string) (map[string]any, error) {
	return c.getRaw(ctx, "instrument_search", "api/Instrument/GetInstrumentSearch/"+url.PathEscape(value))
}

// InstrumentSearch searches instruments by ticker or name
func (c *Client) InstrumentSearch(ctx context.Context, value string) ([]SearchItem, error) {
	var resp struct {
		InstrumentSearch []rawSearchItem `json:"instrumentSearch"`
	}
	if err := c.get(ctx, "instrument_search", "api/Instrument/GetInstrumentSearch/"+url.PathEscape(value), &resp); err != nil {
		return nil, err
	}
	out := make([]SearchItem, 0, len(resp.InstrumentSearch))
	for _, r := range resp.InstrumentSearch {
		out = append(out, SearchItem{
			Ticker:      r.Ticker,
			NamePersian: r.NamePersian,
			TsetmcCode:  r.InsCode,
			MarketTitle: r.FlowTitle,
			IsActive:    r.LastDate != 0,
		})
	}
	return out, nil
}

func (c *Client) ClosingPriceInfoRaw(ctx context.Context, tsetmcCode string) (map[string]any, error) {
	return c.getRaw(ctx, "closing_price_info", "api/ClosingPrice/GetClosingPriceInfo/"+tsetmcCode)
}

// ClosingPriceInfo fetches the intraday trade candle and trading status
func (c *Client) ClosingPriceInfo(ctx context.Context, tsetmcCode string) (ClosingPriceInfo, error) {
	var resp struct {
		ClosingPriceInfo rawClosingPriceInfo `json:"closingPriceInfo"`
	}
	if err := c.get(ctx, "closing_price_info", "api/ClosingPrice/GetClosingPriceInfo/"+tsetmcCode, &resp); err != nil {
		return ClosingPriceInfo{}, err
	}
	r := resp.ClosingPriceInfo
	nsc, err := instrument.ParseNsc(r.InstrumentState.CEtaval)
	if err != nil {
		return ClosingPriceInfo{}, fmt.Errorf("closing_price_info %s: %w", tsetmcCode, err)
	}
	return ClosingPriceInfo{
		TradeCandle: r.toCandle(parseDateTime(r.FinalLastDate, r.HEven)),
		Nsc:         nsc,
	}, nil
}

func (c *Client) InstrumentInfoRaw(ctx context.Context, tsetmcCode string) (map[string]any, error) {
	return c.getRaw(ctx, "instrument_info", "api/Instrument/GetInstrumentInfo/"+tsetmcCode)
}

// InstrumentInfo fetches the instrument homepage data
func (c *Client) InstrumentInfo(ctx context.Context, tsetmcCode string) (InstrumentInfo, error) {
	var resp struct {
		InstrumentInfo rawInstrumentInfo `json:"instrumentInfo"`
	}
	if err := c.get(ctx, "instrument_info", "api/Instrument/GetInstrumentInfo/"+tsetmcCode, &resp); err != nil {
		return InstrumentInfo{}, err
	}
	r := resp.InstrumentInfo
	info := InstrumentInfo{
		Identity: r.rawIdentity.toIdentity(tsetmcCode),
		BigQuantityParams: instrument.BigQuantityParams{
			BaseVolume:  int64(r.BaseVol),
			TotalShares: int64(r.TotalShares),
		},
		PriceThresholds:           instrument.PriceRange{MaxPrice: int64(r.StaticThreshold.Max), MinPrice: int64(r.StaticThreshold.Min)},
		PriceRangeWeekly:          instrument.PriceRange{MaxPrice: int64(r.MaxWeek), MinPrice: int64(r.MinWeek)},
		PriceRangeAnnual:          instrument.PriceRange{MaxPrice: int64(r.MaxYear), MinPrice: int64(r.MinYear)},
		AverageTradeVolumeMonthly: int64(r.AvgVolumeMonth),
	}
	if s := strings.TrimSpace(r.LiquidPercent); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return InstrumentInfo{}, fmt.Errorf("instrument_info %s: liquid percentage: %w", tsetmcCode, err)
		}
		info.LiquidPercentage = &d
	}
	return info, nil
}

func (c *Client) ClientTypeRaw(ctx context.Context, tsetmcCode string) (map[string]any, error) {
	return c.getRaw(ctx, "client_type", "api/ClientType/GetClientType/"+tsetmcCode+"/1/0")
}

// ClientType fetches today's natural/legal split of trades
func (c *Client) ClientType(ctx context.Context, tsetmcCode string) (instrument.ClientType, error) {
	var resp struct {
		ClientType rawClientType `json:"clientType"`
	}
	if err := c.get(ctx, "client_type", "api/ClientType/GetClientType/"+tsetmcCode+"/1/0", &resp); err != nil {
		return instrument.ClientType{}, err
	}
	return resp.ClientType.toClientType(), nil
}

func (c *Client) BestLimitsRaw(ctx context.Context, tsetmcCode string) (map[string]any, error) {
	return c.getRaw(ctx, "best_limits", "api/BestLimits/"+tsetmcCode)
}

// BestLimits fetches the top rows of the order book, best row first
func (c *Client) BestLimits(ctx context.Context, tsetmcCode string) ([]orderbook.BookRow, error) {
	var resp struct {
		BestLimits []rawBestLimit `json:"bestLimits"`
	}
	if err := c.get(ctx, "best_limits", "api/BestLimits/"+tsetmcCode, &resp); err != nil {
		return nil, err
	}
	raw := resp.BestLimits
	sort.SliceStable(raw, func(i, j int) bool { return raw[i].Number < raw[j].Number })

	rows := make([]orderbook.BookRow, len(raw))
	for i, r := range raw {
		rows[i] = r.toRow()
	}
	return rows, nil
}

func (c *Client) ClosingPriceDailyListRaw(ctx context.Context, tsetmcCode string) (map[string]any, error) {
	return c.getRaw(ctx, "closing_price_daily", "api/ClosingPrice/GetClosingPriceDailyList/"+tsetmcCode+"/0")
}

// ClosingPriceDailyList fetches the daily candles, oldest first
func (c *Client) ClosingPriceDailyList(ctx context.Context, tsetmcCode string) ([]ClosingPriceDaily, error) {
	var resp struct {
		ClosingPriceDaily []rawClosingPriceDaily `json:"closingPriceDaily"`
	}
	if err := c.get(ctx, "closing_price_daily", "api/ClosingPrice/GetClosingPriceDailyList/"+tsetmcCode+"/0", &resp); err != nil {
		return nil, err
	}
	// TSETMC sends newest first
	n := len(resp.ClosingPriceDaily)
	out := make([]ClosingPriceDaily, n)
	for i, r := range resp.ClosingPriceDaily {
		at := parseDateTime(r.DEven, r.HEven)
		out[n-1-i] = ClosingPriceDaily{
			TradeCandle: r.toCandle(at),
			Date:        parseDate(r.DEven),
		}
	}
	return out, nil
}

func (c *Client) TradeIntradayListRaw(ctx context.Context, tsetmcCode string) (map[string]any, error) {
	return c.getRaw(ctx, "trade_intraday", "api/Trade/GetTrade/"+tsetmcCode)
}

// TradeIntradayList fetches today's trades
func (c *Client) TradeIntradayList(ctx context.Context, tsetmcCode string) ([]TradeIntraday, error) {
	var resp struct {
		Trade []rawTrade `json:"trade"`
	}
	if err := c.get(ctx, "trade_intraday", "api/Trade/GetTrade/"+tsetmcCode, &resp); err != nil {
		return nil, err
	}
	out := make([]TradeIntraday, 0, len(resp.Trade))
	for _, r := range resp.Trade {
		out = append(out, TradeIntraday{
			Index:      int64(r.Index),
			Price:      int64(r.Price),
			Volume:     int64(r.Volume),
			Time:       clockOf(r.HEven),
			IsCanceled: r.Canceled != 0,
		})
	}
	return out, nil
}

func (c *Client) IndexHistoryRaw(ctx context.Context, tsetmcCode string) (map[string]any, error) {
	return c.getRaw(ctx, "index_history", "api/Index/GetIndexB2History/"+tsetmcCode)
}

// IndexHistory fetches the daily values of an index
func (c *Client) IndexHistory(ctx context.Context, tsetmcCode string) ([]IndexDaily, error) {
	var resp struct {
		IndexB2 []rawIndexDaily `json:"indexB2"`
	}
	if err := c.get(ctx, "index_history", "api/Index/GetIndexB2History/"+tsetmcCode, &resp); err != nil {
		return nil, err
	}
	out := make([]IndexDaily, 0, len(resp.IndexB2))
	for _, r := range resp.IndexB2 {
		out = append(out, IndexDaily{
			Date:  parseDate(r.DEven),
			Min:   r.Min,
			Max:   r.Max,
			Close: r.Close,
		})
	}
	return out, nil
}
