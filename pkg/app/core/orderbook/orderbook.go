package orderbook

import (
	"fmt"
	"sort"

	"github.com/uhyunpark/tseutils/pkg/app/core/keyed"
)

// Row is the aggregated resting-order info at one price level
type Row struct {
	Num    int64 `json:"num"`    // number of orders at this price
	Volume int64 `json:"volume"` // total quantity at this price
	Price  int64 `json:"price"`  // price in rials
}

func (r Row) String() string {
	return fmt.Sprintf("%d @ %d", r.Volume, r.Price)
}

func rowPrice(r Row) int64 { return r.Price }

// DeepOrderBook holds every price level of an instrument on both sides.
// Each side has its own lock; no operation ever holds both.
type DeepOrderBook struct {
	buys  *keyed.Store[int64, Row]
	sells *keyed.Store[int64, Row]
}

func NewDeepOrderBook() *DeepOrderBook {
	return &DeepOrderBook{
		buys:  keyed.New(rowPrice),
		sells: keyed.New(rowPrice),
	}
}

// UpdateBuyRow updates the buy level at price if it exists and adds it if not
func (ob *DeepOrderBook) UpdateBuyRow(num, volume, price int64) {
	_ = ob.buys.Upsert(Row{Num: num, Volume: volume, Price: price})
}

// UpdateSellRow updates the sell level at price if it exists and adds it if not
func (ob *DeepOrderBook) UpdateSellRow(num, volume, price int64) {
	_ = ob.sells.Upsert(Row{Num: num, Volume: volume, Price: price})
}

// RemoveBuyRow removes a single buy level. Unknown prices are ignored.
func (ob *DeepOrderBook) RemoveBuyRow(price int64) {
	ob.buys.Remove(price)
}

// RemoveSellRow removes a single sell level. Unknown prices are ignored.
func (ob *DeepOrderBook) RemoveSellRow(price int64) {
	ob.sells.Remove(price)
}

func (ob *DeepOrderBook) EmptyBuyRows()  { ob.buys.Clear() }
func (ob *DeepOrderBook) EmptySellRows() { ob.sells.Clear() }

// SyncBuyRows replaces the whole buy side with rows in one step
func (ob *DeepOrderBook) SyncBuyRows(rows []Row) {
	_ = ob.buys.Replace(rows)
}

// SyncSellRows replaces the whole sell side with rows in one step
func (ob *DeepOrderBook) SyncSellRows(rows []Row) {
	_ = ob.sells.Replace(rows)
}

// GetBuyRows returns a copy of all buy levels sorted high to low (best bid first)
func (ob *DeepOrderBook) GetBuyRows() []Row {
	rows := ob.buys.GetAll(nil)
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Price > rows[j].Price
	})
	return rows
}

// GetSellRows returns a copy of all sell levels sorted low to high (best ask first)
func (ob *DeepOrderBook) GetSellRows() []Row {
	rows := ob.sells.GetAll(nil)
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Price < rows[j].Price
	})
	return rows
}

// Depth returns the number of buy and sell levels
func (ob *DeepOrderBook) Depth() (buys, sells int) {
	return ob.buys.Len(), ob.sells.Len()
}

// BestBid returns the highest buy level
func (ob *DeepOrderBook) BestBid() (Row, bool) {
	var best Row
	ok := false
	for _, r := range ob.buys.GetAll(nil) {
		if !ok || r.Price > best.Price {
			best, ok = r, true
		}
	}
	return best, ok
}

// BestAsk returns the lowest sell level
func (ob *DeepOrderBook) BestAsk() (Row, bool) {
	var best Row
	ok := false
	for _, r := range ob.sells.GetAll(nil) {
		if !ok || r.Price < best.Price {
			best, ok = r, true
		}
	}
	return best, ok
}

// MidPrice returns the average of best bid and best ask.
// Returns 0 if the book is empty or one-sided.
func (ob *DeepOrderBook) MidPrice() int64 {
	bid, ok := ob.BestBid()
	if !ok {
		return 0
	}
	ask, ok := ob.BestAsk()
	if !ok {
		return 0
	}
	return (bid.Price + ask.Price) / 2
}
