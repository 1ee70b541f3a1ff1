package instrument

import (
	"fmt"
	"sync"
	"time"

	"github.com/uhyunpark/tseutils/pkg/app/core/orderbook"
)

const tsetmcInstrumentURL = "http://www.tsetmc.com/instInfo/"

// Realtime is a point in time copy of an instrument's market data
type Realtime struct {
	OrderBook  []orderbook.BookRow `json:"orderBook"`
	ClientType ClientType          `json:"clientType"`
	Candle     TradeCandle         `json:"candle"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// Instrument holds all available data of a tradable instrument.
//
// Identification is fixed at creation. Daily parameters and realtime data
// are guarded by mu; the order books have their own locks.
type Instrument struct {
	Identification Identification

	OrderBook     *orderbook.OrderBook
	DeepOrderBook *orderbook.DeepOrderBook

	mu          sync.Mutex
	bigQuantity BigQuantityParams
	limitations OrderLimitations
	clientType  ClientType
	candle      TradeCandle
	updatedAt   time.Time
}

func New(id Identification) *Instrument {
	return &Instrument{
		Identification: id,
		OrderBook:      orderbook.NewOrderBook(orderbook.DefaultRowCount),
		DeepOrderBook:  orderbook.NewDeepOrderBook(),
		bigQuantity:    BigQuantityParams{BaseVolume: 1},
		limitations:    DefaultOrderLimitations(),
	}
}

func (in *Instrument) ISIN() string { return in.Identification.ISIN }

func (in *Instrument) String() string { return in.Identification.String() }

// TsetmcURL returns the TSETMC page of the instrument
func (in *Instrument) TsetmcURL() string {
	return tsetmcInstrumentURL + in.Identification.TsetmcCode
}

// TickerWithTsetmcLink returns an HTML anchor of the ticker linking to its TSETMC page
func (in *Instrument) TickerWithTsetmcLink() string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, in.TsetmcURL(), in.Identification.Ticker)
}

func (in *Instrument) SetLimitations(l OrderLimitations) {
	in.mu.Lock()
	in.limitations = l
	in.mu.Unlock()
}

func (in *Instrument) Limitations() OrderLimitations {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.limitations
}

func (in *Instrument) SetBigQuantityParams(p BigQuantityParams) {
	in.mu.Lock()
	in.bigQuantity = p
	in.mu.Unlock()
}

func (in *Instrument) BigQuantityParams() BigQuantityParams {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.bigQuantity
}

// SetClientType stores the latest client type and marks the instrument updated at t
func (in *Instrument) SetClientType(c ClientType, t time.Time) {
	in.mu.Lock()
	in.clientType = c
	in.updatedAt = t
	in.mu.Unlock()
}

func (in *Instrument) ClientType() ClientType {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.clientType
}

// SetCandle stores the latest intraday candle and marks the instrument updated at t
func (in *Instrument) SetCandle(c TradeCandle, t time.Time) {
	in.mu.Lock()
	in.candle = c
	in.updatedAt = t
	in.mu.Unlock()
}

func (in *Instrument) Candle() TradeCandle {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.candle
}

// Realtime returns a copy of the instrument's market data
func (in *Instrument) Realtime() Realtime {
	rows := in.OrderBook.Rows()

	in.mu.Lock()
	defer in.mu.Unlock()
	return Realtime{
		OrderBook:  rows,
		ClientType: in.clientType,
		Candle:     in.candle,
		UpdatedAt:  in.updatedAt,
	}
}

// HasBuyQueue reports whether the best bid sits on the upper price threshold
func (in *Instrument) HasBuyQueue() bool {
	top, ok := in.OrderBook.Top()
	if !ok || top.DemandPrice == 0 {
		return false
	}
	return top.DemandPrice == in.Limitations().MaxPriceThreshold
}

// HasSellQueue reports whether the best ask sits on the lower price threshold
func (in *Instrument) HasSellQueue() bool {
	top, ok := in.OrderBook.Top()
	if !ok || top.SupplyPrice == 0 {
		return false
	}
	return top.SupplyPrice == in.Limitations().MinPriceThreshold
}

// Derivative is an instrument written on another one
type Derivative struct {
	*Instrument
	Underlying *Instrument
}

// Option is an option contract
type Option struct {
	Derivative
	ExerciseDate  time.Time
	ExercisePrice int64
	LotSize       int64
}

func NewOption(id Identification, underlying *Instrument, exerciseDate time.Time, exercisePrice, lotSize int64) *Option {
	return &Option{
		Derivative:    Derivative{Instrument: New(id), Underlying: underlying},
		ExerciseDate:  exerciseDate,
		ExercisePrice: exercisePrice,
		LotSize:       lotSize,
	}
}

// DaysToExercise returns whole calendar days from now until the exercise date, 0 once passed
func (o *Option) DaysToExercise(now time.Time) int {
	if !o.ExerciseDate.After(now) {
		return 0
	}
	y1, m1, d1 := now.Date()
	y2, m2, d2 := o.ExerciseDate.In(now.Location()).Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// Moneyness returns underlying last price minus exercise price.
// Positive means a call is in the money.
func (o *Option) Moneyness() int64 {
	if o.Underlying == nil {
		return 0
	}
	return o.Underlying.Candle().LastPrice - o.ExercisePrice
}
