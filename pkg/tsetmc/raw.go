package tsetmc

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// number decodes TSETMC numeric fields, which come as JSON numbers
// (often with a ".0" fraction) or as space-padded strings.
type number int64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "", "null", "false":
		*n = 0
		return nil
	case "true":
		*n = 1
		return nil
	}
	if v, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		*n = number(v)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("tsetmc: bad number %q", b)
	}
	*n = number(f)
	return nil
}

var tehran = loadTehran()

func loadTehran() *time.Location {
	loc, err := time.LoadLocation("Asia/Tehran")
	if err != nil {
		return time.FixedZone("IRST", 3*3600+30*60)
	}
	return loc
}

// Tehran returns the exchange's time zone
func Tehran() *time.Location { return tehran }

// parseDateTime decodes a yyyymmdd date and an hhmmss time in Tehran time.
// A zero date gives the zero time.
func parseDateTime(d, t number) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Date(
		int(d/10000), time.Month(d/100%100), int(d%100),
		int(t/10000), int(t/100%100), int(t%100), 0, tehran,
	)
}

func parseDate(d number) time.Time { return parseDateTime(d, 0) }

// clockOf returns the hhmmss time as a duration since midnight
func clockOf(t number) time.Duration {
	return time.Duration(t/10000)*time.Hour +
		time.Duration(t/100%100)*time.Minute +
		time.Duration(t%100)*time.Second
}

type rawIdentity struct {
	InstrumentID string `json:"instrumentID"`
	Ticker       string `json:"lVal18AFC"`
	NamePersian  string `json:"lVal30"`
	NameEnglish  string `json:"lVal18"`
	MarketTitle  string `json:"cgrValCotTitle"`
	MarketCode   number `json:"cComVal"`
	Sector       struct {
		Code  number `json:"cSecVal"`
		Title string `json:"lSecVal"`
	} `json:"sector"`
	SubSector *struct {
		Code  number `json:"cSoSecVal"`
		Title string `json:"lSoSecVal"`
	} `json:"subSector"`
	TypeID number `json:"yVal"`
}

type rawSearchItem struct {
	Ticker      string `json:"lVal18AFC"`
	NamePersian string `json:"lVal30"`
	InsCode     string `json:"insCode"`
	FlowTitle   string `json:"flowTitle"`
	LastDate    number `json:"lastDate"`
}

type rawCandle struct {
	PriceYesterday number `json:"priceYesterday"`
	PriceFirst     number `json:"priceFirst"`
	LastPrice      number `json:"pDrCotVal"`
	ClosePrice     number `json:"pClosing"`
	PriceMax       number `json:"priceMax"`
	PriceMin       number `json:"priceMin"`
	TradeNum       number `json:"zTotTran"`
	TradeValue     number `json:"qTotCap"`
	TradeVolume    number `json:"qTotTran5J"`
	HEven          number `json:"hEven"`
}

type rawClosingPriceInfo struct {
	rawCandle
	FinalLastDate   number `json:"finalLastDate"`
	InstrumentState struct {
		CEtaval string `json:"cEtaval"`
	} `json:"instrumentState"`
}

type rawClosingPriceDaily struct {
	rawCandle
	DEven number `json:"dEven"`
}

type rawInstrumentInfo struct {
	rawIdentity
	BaseVol         number `json:"baseVol"`
	TotalShares     number `json:"zTitad"`
	StaticThreshold struct {
		Max number `json:"psGelStaMax"`
		Min number `json:"psGelStaMin"`
	} `json:"staticThreshold"`
	MaxWeek        number `json:"maxWeek"`
	MinWeek        number `json:"minWeek"`
	MaxYear        number `json:"maxYear"`
	MinYear        number `json:"minYear"`
	AvgVolumeMonth number `json:"qTotTran5JAvg"`
	LiquidPercent  string `json:"kAjCapValCpsIdx"`
}

type rawClientType struct {
	LegalBuyNum       number `json:"buy_CountN"`
	LegalBuyVolume    number `json:"buy_N_Volume"`
	LegalSellNum      number `json:"sell_CountN"`
	LegalSellVolume   number `json:"sell_N_Volume"`
	NaturalBuyNum     number `json:"buy_CountI"`
	NaturalBuyVolume  number `json:"buy_I_Volume"`
	NaturalSellNum    number `json:"sell_CountI"`
	NaturalSellVolume number `json:"sell_I_Volume"`
}

type rawBestLimit struct {
	Number       number `json:"number"`
	DemandNum    number `json:"zOrdMeDem"`
	DemandVolume number `json:"qTitMeDem"`
	DemandPrice  number `json:"pMeDem"`
	SupplyNum    number `json:"zOrdMeOf"`
	SupplyVolume number `json:"qTitMeOf"`
	SupplyPrice  number `json:"pMeOf"`
}

type rawTrade struct {
	Price    number `json:"pTran"`
	Volume   number `json:"qTitTran"`
	Index    number `json:"nTran"`
	HEven    number `json:"hEven"`
	Canceled number `json:"canceled"`
}

type rawIndexDaily struct {
	Min   decimal.Decimal `json:"xNivInuPbMresIbs"`
	Max   decimal.Decimal `json:"xNivInuPhMresIbs"`
	Close decimal.Decimal `json:"xNivInuClMresIbs"`
	DEven number          `json:"dEven"`
}
