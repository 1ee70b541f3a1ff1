package instrument

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Nsc is the trading status of an instrument set by the market supervisor
type Nsc string

const (
	NscAllowed           Nsc = "A"
	NscAllowedBlocked    Nsc = "AG"
	NscAllowedReserved   Nsc = "AR"
	NscAllowedSuspended  Nsc = "AS"
	NscForbidden         Nsc = "I"
	NscForbiddenBlocked  Nsc = "IG"
	NscForbiddenReserved Nsc = "IR"
	NscForbiddenStopped  Nsc = "IS"
)

var nscLabels = map[Nsc]string{
	NscAllowed:           "مجاز",
	NscAllowedBlocked:    "مجاز مسدود",
	NscAllowedReserved:   "مجاز محفوظ",
	NscAllowedSuspended:  "مجاز متوقف",
	NscForbidden:         "ممنوع",
	NscForbiddenBlocked:  "ممنوع مسدود",
	NscForbiddenReserved: "ممنوع محفوظ",
	NscForbiddenStopped:  "ممنوع متوقف",
}

// Label is the Persian name of the status
func (n Nsc) Label() string { return nscLabels[n] }

// Tradable reports whether orders can match (plain "A" status)
func (n Nsc) Tradable() bool { return n == NscAllowed }

// ParseNsc accepts the status code (as TSETMC sends it, possibly space padded) or its Persian label
func ParseNsc(v string) (Nsc, error) {
	v = strings.TrimSpace(v)
	if _, ok := nscLabels[Nsc(v)]; ok {
		return Nsc(v), nil
	}
	for code, label := range nscLabels {
		if label == v {
			return code, nil
		}
	}
	return "", fmt.Errorf("unknown nsc %q", v)
}

// Identification holds the identifiers of a tradable instrument
type Identification struct {
	ISIN        string `json:"isin"`
	TsetmcCode  string `json:"tsetmcCode"`
	Ticker      string `json:"ticker"`
	NamePersian string `json:"namePersian,omitempty"`
	NameEnglish string `json:"nameEnglish,omitempty"`
	IsObsolete  bool   `json:"isObsolete"`
}

func (id Identification) String() string {
	return fmt.Sprintf("%s [%s]", id.Ticker, id.ISIN)
}

// ClientType splits traded num/volume between natural and legal investors
type ClientType struct {
	LegalBuyNum       int64 `json:"legalBuyNum"`
	LegalBuyVolume    int64 `json:"legalBuyVolume"`
	LegalSellNum      int64 `json:"legalSellNum"`
	LegalSellVolume   int64 `json:"legalSellVolume"`
	NaturalBuyNum     int64 `json:"naturalBuyNum"`
	NaturalBuyVolume  int64 `json:"naturalBuyVolume"`
	NaturalSellNum    int64 `json:"naturalSellNum"`
	NaturalSellVolume int64 `json:"naturalSellVolume"`
}

// TradeVolume returns the total traded volume
func (c ClientType) TradeVolume() int64 {
	return c.LegalBuyVolume + c.NaturalBuyVolume
}

// NaturalBuyPerCapita returns average buy volume per natural buyer, 0 if none
func (c ClientType) NaturalBuyPerCapita() int64 {
	if c.NaturalBuyNum == 0 {
		return 0
	}
	return c.NaturalBuyVolume / c.NaturalBuyNum
}

// NaturalSellPerCapita returns average sell volume per natural seller, 0 if none
func (c ClientType) NaturalSellPerCapita() int64 {
	if c.NaturalSellNum == 0 {
		return 0
	}
	return c.NaturalSellVolume / c.NaturalSellNum
}

type PriceRange struct {
	MaxPrice int64 `json:"maxPrice"`
	MinPrice int64 `json:"minPrice"`
}

// Contains reports whether price is inside the range (inclusive)
func (r PriceRange) Contains(price int64) bool {
	return price >= r.MinPrice && price <= r.MaxPrice
}

// TradeCandle holds current or point in time trade data of an instrument
type TradeCandle struct {
	PriceRange

	TradeNum    int64 `json:"tradeNum"`
	TradeValue  int64 `json:"tradeValue"`
	TradeVolume int64 `json:"tradeVolume"`

	PreviousPrice int64     `json:"previousPrice"`
	OpenPrice     int64     `json:"openPrice"`
	ClosePrice    int64     `json:"closePrice"`
	LastPrice     int64     `json:"lastPrice"`
	OpenTradeAt   time.Time `json:"openTradeAt,omitempty"`
	LastTradeAt   time.Time `json:"lastTradeAt,omitempty"`
}

// OrderLimitations are the daily limits for trading an instrument
type OrderLimitations struct {
	// static price thresholds for the day
	MaxPriceThreshold int64 `json:"maxPriceThreshold"`
	MinPriceThreshold int64 `json:"minPriceThreshold"`
	PriceTick         int64 `json:"priceTick"`

	MaxBuyOrderQuantity  int64 `json:"maxBuyOrderQuantity"`
	MaxSellOrderQuantity int64 `json:"maxSellOrderQuantity"`
	LotSize              int64 `json:"lotSize"`

	Nsc Nsc `json:"nsc,omitempty"`
}

// DefaultOrderLimitations returns limits with unit tick and lot size
func DefaultOrderLimitations() OrderLimitations {
	return OrderLimitations{PriceTick: 1, LotSize: 1}
}

// ValidPrice checks price is within thresholds and on the tick grid.
// Zero thresholds mean unknown and are not enforced.
func (l OrderLimitations) ValidPrice(price int64) bool {
	if price <= 0 {
		return false
	}
	if l.MaxPriceThreshold > 0 && price > l.MaxPriceThreshold {
		return false
	}
	if l.MinPriceThreshold > 0 && price < l.MinPriceThreshold {
		return false
	}
	if l.PriceTick > 1 && price%l.PriceTick != 0 {
		return false
	}
	return true
}

// BigQuantityParams holds the base volume and share count used to size big trades
type BigQuantityParams struct {
	BaseVolume  int64 `json:"baseVolume"`
	TotalShares int64 `json:"totalShares"`
}

// IndexIdentification identifies a market index, for example the overall index
type IndexIdentification struct {
	TsetmcCode  string `json:"tsetmcCode"`
	PersianName string `json:"persianName"`
}

func (id IndexIdentification) String() string {
	return fmt.Sprintf("%s [%s]", id.PersianName, id.TsetmcCode)
}

// Index holds the values of an index for one day
type Index struct {
	Identification IndexIdentification `json:"identification"`
	MinValue       decimal.Decimal     `json:"minValue"`
	MaxValue       decimal.Decimal     `json:"maxValue"`
	LastValue      decimal.Decimal     `json:"lastValue"`
	Date           time.Time           `json:"date,omitempty"`
}

func (ix Index) String() string { return ix.Identification.String() }

// ChangePercent returns the change of LastValue against prev in percent, rounded to 2 places
func (ix Index) ChangePercent(prev decimal.Decimal) decimal.Decimal {
	if prev.IsZero() {
		return decimal.Zero
	}
	return ix.LastValue.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(2)
}
