package trader

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MicroTrade is a single fill reported by the OMS for an order
type MicroTrade struct {
	ID       uuid.UUID `json:"id"` // local id, assigned on receipt
	ISIN     string    `json:"isin" validate:"required"`
	Side     Side      `json:"side" validate:"oneof=1 -1"`
	Quantity int64     `json:"quantity" validate:"gt=0"`
	Price    int64     `json:"price" validate:"gte=0"`
	Time     time.Time `json:"time"`
	HTN      string    `json:"htn,omitempty"` // trade number in the market kernel
}

// NewMicroTrade creates a fill with a fresh local id
func NewMicroTrade(isin string, side Side, quantity, price int64, at time.Time) MicroTrade {
	return MicroTrade{
		ID:       uuid.New(),
		ISIN:     isin,
		Side:     side,
		Quantity: quantity,
		Price:    price,
		Time:     at,
	}
}

// TradeLog is the append-only list of fills of one order.
// It has its own lock, separate from the order registry.
type TradeLog struct {
	mu     sync.Mutex
	trades []MicroTrade
}

func (l *TradeLog) Append(t MicroTrade) {
	l.mu.Lock()
	l.trades = append(l.trades, t)
	l.mu.Unlock()
}

// Snapshot returns a copy of the fills in arrival order
func (l *TradeLog) Snapshot() []MicroTrade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]MicroTrade, len(l.trades))
	copy(out, l.trades)
	return out
}

func (l *TradeLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.trades)
}

// Order is one order of a trader account as last reported by the OMS.
//
// Copies of an Order share its trade log.
type Order struct {
	OMSID    string `json:"omsId" validate:"required"`
	ISIN     string `json:"isin" validate:"required"`
	Side     Side   `json:"side" validate:"oneof=1 -1"`
	ClientID string `json:"clientId,omitempty"` // maps the OMS order to the one sent by the client
	HON      string `json:"hon,omitempty"`      // position of the order in the market kernel

	State OrderState `json:"state"`
	Lock  OrderLock  `json:"lock"`

	Price             int64 `json:"price" validate:"gte=0"`
	Quantity          int64 `json:"quantity" validate:"gte=0"`
	RemainingQuantity int64 `json:"remainingQuantity" validate:"gte=0"`
	ExecutedQuantity  int64 `json:"executedQuantity" validate:"gte=0"`
	BlockedCredit     int64 `json:"blockedCredit"`

	Validity       ValidityType `json:"validity"`
	CreatedAt      time.Time    `json:"createdAt"`
	ExpirationDate time.Time    `json:"expirationDate,omitempty"` // only for GOOD_TILL_DATE

	trades *TradeLog
}

// NewOrder creates an order with the fields every OMS reports
func NewOrder(omsID, isin string, side Side, quantity, price int64) Order {
	return Order{
		OMSID:    omsID,
		ISIN:     isin,
		Side:     side,
		Quantity: quantity,
		Price:    price,
		trades:   &TradeLog{},
	}
}

// AddTrade appends a fill to the order's trade log
func (o *Order) AddTrade(t MicroTrade) {
	if o.trades == nil {
		o.trades = &TradeLog{}
	}
	o.trades.Append(t)
}

// Trades returns a copy of the order's fills
func (o Order) Trades() []MicroTrade {
	if o.trades == nil {
		return []MicroTrade{}
	}
	return o.trades.Snapshot()
}

// IsActive reports whether the order is resting in the market
func (o Order) IsActive() bool { return o.State.IsActive() }

func (o Order) String() string {
	return fmt.Sprintf("%s|%s|%s|%s|P:%d,Q:%d", o.Side, o.State, o.OMSID, o.ISIN, o.Price, o.Quantity)
}
