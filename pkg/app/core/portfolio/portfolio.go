package portfolio

import (
	"fmt"

	"github.com/uhyunpark/tseutils/pkg/app/core/keyed"
	"github.com/uhyunpark/tseutils/pkg/util"
)

// Cash holds the cash and credit in an account's portfolio (all values in rials)
type Cash struct {
	FreeBalance         int64 `json:"freeBalance"`
	BlockedBalance      int64 `json:"blockedBalance"`      // blocked for open buy orders
	AccountingRemainder int64 `json:"accountingRemainder"` // settled balance reported by the broker
	CreditLimit         int64 `json:"creditLimit"`
}

// AllBalance returns net balance of the account without credit
func (c Cash) AllBalance() int64 {
	return c.FreeBalance + c.BlockedBalance
}

// Security is a holding of a single instrument
type Security struct {
	ISIN string `json:"isin" validate:"required"`

	// Quantity is signed: positive = long, negative = short
	Quantity int64 `json:"quantity"`

	PositionOpenPrice    *int64 `json:"positionOpenPrice,omitempty"`
	InstrumentLastPrice  *int64 `json:"instrumentLastPrice,omitempty"`
	InstrumentClosePrice *int64 `json:"instrumentClosePrice,omitempty"`
}

func (s Security) String() string {
	return fmt.Sprintf("%d of %s", s.Quantity, s.ISIN)
}

func cloneSecurity(s Security) Security {
	s.PositionOpenPrice = cloneInt(s.PositionOpenPrice)
	s.InstrumentLastPrice = cloneInt(s.InstrumentLastPrice)
	s.InstrumentClosePrice = cloneInt(s.InstrumentClosePrice)
	return s
}

func cloneInt(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func newSecurityStore() *keyed.Store[string, Security] {
	return keyed.New(
		func(s Security) string { return s.ISIN },
		keyed.WithValidator(func(s Security) error { return util.ValidateStruct(s) }),
		keyed.WithClone(cloneSecurity),
	)
}

// Portfolio is a trader account's cash, assets and positions.
//
// Assets are instruments where a net short is not allowed (shares, funds).
// Positions are instruments where it is (options, futures).
// The two collections are locked independently.
//
// Cash is not guarded: it is written by a single pusher at low frequency.
type Portfolio struct {
	Cash Cash

	assets    *keyed.Store[string, Security]
	positions *keyed.Store[string, Security]
}

func New() *Portfolio {
	return &Portfolio{
		assets:    newSecurityStore(),
		positions: newSecurityStore(),
	}
}

// HasAsset checks if portfolio holds any asset of isin
func (p *Portfolio) HasAsset(isin string) bool {
	return p.assets.Contains(isin)
}

// GetAsset returns a copy of the asset for isin
func (p *Portfolio) GetAsset(isin string) (Security, bool) {
	return p.assets.Get(isin)
}

// GetAssetQuantity returns the held quantity of isin, or 0 if none
func (p *Portfolio) GetAssetQuantity(isin string) int64 {
	s, _ := p.assets.Get(isin)
	return s.Quantity
}

// GetAllAssets returns a copy of every asset
func (p *Portfolio) GetAllAssets() []Security {
	return p.assets.GetAll(nil)
}

func (p *Portfolio) RemoveAsset(isin string) {
	p.assets.Remove(isin)
}

// EmptyAssets removes all assets from the portfolio
func (p *Portfolio) EmptyAssets() {
	p.assets.Clear()
}

// UpdateAsset overwrites the asset with the same ISIN or adds it
func (p *Portfolio) UpdateAsset(s Security) error {
	return p.assets.Upsert(s)
}

// UpdateAssetWith edits the stored asset in place; returns false if isin is not held
func (p *Portfolio) UpdateAssetWith(isin string, fn func(*Security)) (bool, error) {
	return p.assets.Update(isin, fn)
}

// HasPosition checks if portfolio holds any position of isin
func (p *Portfolio) HasPosition(isin string) bool {
	return p.positions.Contains(isin)
}

// GetPosition returns a copy of the position for isin
func (p *Portfolio) GetPosition(isin string) (Security, bool) {
	return p.positions.Get(isin)
}

// GetPositionQuantity returns the position quantity of isin, or 0 if none
func (p *Portfolio) GetPositionQuantity(isin string) int64 {
	s, _ := p.positions.Get(isin)
	return s.Quantity
}

// GetAllPositions returns a copy of every position
func (p *Portfolio) GetAllPositions() []Security {
	return p.positions.GetAll(nil)
}

func (p *Portfolio) RemovePosition(isin string) {
	p.positions.Remove(isin)
}

// EmptyPositions removes all positions from the portfolio
func (p *Portfolio) EmptyPositions() {
	p.positions.Clear()
}

// UpdatePosition overwrites the position with the same ISIN or adds it
func (p *Portfolio) UpdatePosition(s Security) error {
	return p.positions.Upsert(s)
}

// UpdatePositionWith edits the stored position in place; returns false if isin is not held
func (p *Portfolio) UpdatePositionWith(isin string, fn func(*Security)) (bool, error) {
	return p.positions.Update(isin, fn)
}

// MarketValue sums quantity × last price over assets and positions.
// Holdings without a last price are skipped.
func (p *Portfolio) MarketValue() int64 {
	var total int64
	for _, s := range p.assets.GetAll(nil) {
		if s.InstrumentLastPrice != nil {
			total += s.Quantity * *s.InstrumentLastPrice
		}
	}
	for _, s := range p.positions.GetAll(nil) {
		if s.InstrumentLastPrice != nil {
			total += s.Quantity * *s.InstrumentLastPrice
		}
	}
	return total
}
