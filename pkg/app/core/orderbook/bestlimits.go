package orderbook

import (
	"fmt"
	"sync"
)

// DefaultRowCount is the number of levels TSETMC publishes as best limits
const DefaultRowCount = 5

// BookRow is one line of a top-N order book: demand on one side, supply on the other
type BookRow struct {
	DemandNum    int64 `json:"demandNum"`
	DemandVolume int64 `json:"demandVolume"`
	DemandPrice  int64 `json:"demandPrice"`
	SupplyNum    int64 `json:"supplyNum"`
	SupplyVolume int64 `json:"supplyVolume"`
	SupplyPrice  int64 `json:"supplyPrice"`
}

func (r BookRow) String() string {
	return fmt.Sprintf("%d %d %d | %d %d %d",
		r.SupplyNum, r.SupplyVolume, r.SupplyPrice,
		r.DemandPrice, r.DemandVolume, r.DemandNum)
}

// Demand returns the buy side of the row as a deep book level
func (r BookRow) Demand() Row {
	return Row{Num: r.DemandNum, Volume: r.DemandVolume, Price: r.DemandPrice}
}

// Supply returns the sell side of the row as a deep book level
func (r BookRow) Supply() Row {
	return Row{Num: r.SupplyNum, Volume: r.SupplyVolume, Price: r.SupplyPrice}
}

// OrderBook holds the top N rows of an instrument's orders on both sides
type OrderBook struct {
	mu   sync.Mutex
	rows []BookRow
}

// NewOrderBook creates a book with rowCount empty rows
func NewOrderBook(rowCount int) *OrderBook {
	if rowCount <= 0 {
		rowCount = DefaultRowCount
	}
	return &OrderBook{rows: make([]BookRow, rowCount)}
}

// Set replaces all rows
func (ob *OrderBook) Set(rows []BookRow) {
	cp := make([]BookRow, len(rows))
	copy(cp, rows)

	ob.mu.Lock()
	ob.rows = cp
	ob.mu.Unlock()
}

// Rows returns a copy of the rows, best level first
func (ob *OrderBook) Rows() []BookRow {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	cp := make([]BookRow, len(ob.rows))
	copy(cp, ob.rows)
	return cp
}

// Top returns the best row, or false if the book has no rows
func (ob *OrderBook) Top() (BookRow, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	if len(ob.rows) == 0 {
		return BookRow{}, false
	}
	return ob.rows[0], true
}

// SplitSides converts best-limit rows into deep book levels.
// Empty levels (zero price) are dropped.
func SplitSides(rows []BookRow) (buys, sells []Row) {
	for _, r := range rows {
		if r.DemandPrice > 0 {
			buys = append(buys, r.Demand())
		}
		if r.SupplyPrice > 0 {
			sells = append(sells, r.Supply())
		}
	}
	return buys, sells
}
