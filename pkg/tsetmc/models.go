package tsetmc

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/tseutils/pkg/app/core/instrument"
	"github.com/uhyunpark/tseutils/pkg/app/core/orderbook"
)

// Identity is the identification of an instrument with its market classification
type Identity struct {
	instrument.Identification
	MarketCode     int64  `json:"marketCode"`
	MarketTitle    string `json:"marketTitle"`
	SectorCode     int64  `json:"sectorCode"`
	SectorTitle    string `json:"sectorTitle"`
	SubSectorCode  int64  `json:"subSectorCode,omitempty"`
	SubSectorTitle string `json:"subSectorTitle,omitempty"`
	TypeID         int64  `json:"typeId"`
}

func (r rawIdentity) toIdentity(tsetmcCode string) Identity {
	id := Identity{
		Identification: instrument.Identification{
			ISIN:        r.InstrumentID,
			TsetmcCode:  tsetmcCode,
			Ticker:      r.Ticker,
			NamePersian: r.NamePersian,
			NameEnglish: r.NameEnglish,
		},
		MarketCode:  int64(r.MarketCode),
		MarketTitle: r.MarketTitle,
		SectorCode:  int64(r.Sector.Code),
		SectorTitle: r.Sector.Title,
		TypeID:      int64(r.TypeID),
	}
	if r.SubSector != nil {
		id.SubSectorCode = int64(r.SubSector.Code)
		id.SubSectorTitle = r.SubSector.Title
	}
	return id
}

// SearchItem is one result of an instrument search
type SearchItem struct {
	Ticker      string `json:"ticker"`
	NamePersian string `json:"namePersian"`
	TsetmcCode  string `json:"tsetmcCode"`
	MarketTitle string `json:"marketTitle"`
	IsActive    bool   `json:"isActive"`
}

func (s SearchItem) String() string {
	return fmt.Sprintf("%s <%s>", s.Ticker, s.TsetmcCode)
}

func (r rawCandle) toCandle(lastTrade time.Time) instrument.TradeCandle {
	return instrument.TradeCandle{
		PriceRange: instrument.PriceRange{
			MaxPrice: int64(r.PriceMax),
			MinPrice: int64(r.PriceMin),
		},
		TradeNum:      int64(r.TradeNum),
		TradeValue:    int64(r.TradeValue),
		TradeVolume:   int64(r.TradeVolume),
		PreviousPrice: int64(r.PriceYesterday),
		OpenPrice:     int64(r.PriceFirst),
		ClosePrice:    int64(r.ClosePrice),
		LastPrice:     int64(r.LastPrice),
		LastTradeAt:   lastTrade,
	}
}

// ClosingPriceInfo is the intraday candle with the instrument's trading status
type ClosingPriceInfo struct {
	instrument.TradeCandle
	Nsc instrument.Nsc `json:"nsc"`
}

// InstrumentInfo is the instrument homepage data
type InstrumentInfo struct {
	Identity
	instrument.BigQuantityParams

	PriceThresholds           instrument.PriceRange `json:"priceThresholds"`
	PriceRangeWeekly          instrument.PriceRange `json:"priceRangeWeekly"`
	PriceRangeAnnual          instrument.PriceRange `json:"priceRangeAnnual"`
	AverageTradeVolumeMonthly int64                 `json:"averageTradeVolumeMonthly"`
	// nil when TSETMC does not publish it
	LiquidPercentage *decimal.Decimal `json:"liquidPercentage,omitempty"`
}

// Limitations returns the daily order limitations implied by the static thresholds
func (i InstrumentInfo) Limitations() instrument.OrderLimitations {
	l := instrument.DefaultOrderLimitations()
	l.MaxPriceThreshold = i.PriceThresholds.MaxPrice
	l.MinPriceThreshold = i.PriceThresholds.MinPrice
	return l
}

func (r rawClientType) toClientType() instrument.ClientType {
	return instrument.ClientType{
		LegalBuyNum:       int64(r.LegalBuyNum),
		LegalBuyVolume:    int64(r.LegalBuyVolume),
		LegalSellNum:      int64(r.LegalSellNum),
		LegalSellVolume:   int64(r.LegalSellVolume),
		NaturalBuyNum:     int64(r.NaturalBuyNum),
		NaturalBuyVolume:  int64(r.NaturalBuyVolume),
		NaturalSellNum:    int64(r.NaturalSellNum),
		NaturalSellVolume: int64(r.NaturalSellVolume),
	}
}

func (r rawBestLimit) toRow() orderbook.BookRow {
	return orderbook.BookRow{
		DemandNum:    int64(r.DemandNum),
		DemandVolume: int64(r.DemandVolume),
		DemandPrice:  int64(r.DemandPrice),
		SupplyNum:    int64(r.SupplyNum),
		SupplyVolume: int64(r.SupplyVolume),
		SupplyPrice:  int64(r.SupplyPrice),
	}
}

// ClosingPriceDaily is the trade candle of a single past day
type ClosingPriceDaily struct {
	instrument.TradeCandle
	Date time.Time `json:"date"`
}

// TradeIntraday is a single trade of the current day
type TradeIntraday struct {
	Index      int64         `json:"index"`
	Price      int64         `json:"price"`
	Volume     int64         `json:"volume"`
	Time       time.Duration `json:"time"` // since midnight, Tehran time
	IsCanceled bool          `json:"isCanceled"`
}

// IndexDaily holds the values of an index on one day
type IndexDaily struct {
	Date  time.Time       `json:"date"`
	Min   decimal.Decimal `json:"min"`
	Max   decimal.Decimal `json:"max"`
	Close decimal.Decimal `json:"close"`
}

// ToIndex converts the day into an instrument.Index for id
func (d IndexDaily) ToIndex(id instrument.IndexIdentification) instrument.Index {
	return instrument.Index{
		Identification: id,
		MinValue:       d.Min,
		MaxValue:       d.Max,
		LastValue:      d.Close,
		Date:           d.Date,
	}
}
