package trader

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/uhyunpark/tseutils/pkg/app/core/keyed"
	"github.com/uhyunpark/tseutils/pkg/util"
)

// ErrOrderNotFound is returned when a fill arrives for an order the registry never saw
var ErrOrderNotFound = errors.New("order not found")

// Registry holds the orders of a trader account keyed by OMS id.
//
// Orders are added by data pushers. Clients send new orders through a Session.
type Registry struct {
	orders *keyed.Store[string, Order]
}

func NewRegistry() *Registry {
	return &Registry{
		orders: keyed.New(
			func(o Order) string { return o.OMSID },
			keyed.WithValidator(func(o Order) error { return util.ValidateStruct(o) }),
		),
	}
}

func withLog(o Order) Order {
	if o.trades == nil {
		o.trades = &TradeLog{}
	}
	return o
}

// AddOrder adds a new order; fails if the OMS id is already registered
func (r *Registry) AddOrder(o Order) error {
	return r.orders.Insert(withLog(o))
}

// UpsertOrder replaces the state of a known order, or adds it.
// A replaced order keeps its existing trade log.
func (r *Registry) UpsertOrder(o Order) error {
	for {
		found, err := r.orders.Update(o.OMSID, func(cur *Order) {
			log := cur.trades
			*cur = o
			cur.trades = log
		})
		if err != nil || found {
			return err
		}
		err = r.orders.Insert(withLog(o))
		if !errors.Is(err, keyed.ErrDuplicateKey) {
			return err
		}
		// lost a race with another pusher; apply as an update
	}
}

// EditOrder applies fn to the stored order. Returns false if omsID is unknown.
// fn must not change the OMS id.
func (r *Registry) EditOrder(omsID string, fn func(*Order)) (bool, error) {
	return r.orders.Update(omsID, fn)
}

// GetOrder returns a copy of the order with the given OMS id
func (r *Registry) GetOrder(omsID string) (Order, bool) {
	return r.orders.Get(omsID)
}

// GetOrderBy returns the first order, in arrival order, matching pred
func (r *Registry) GetOrderBy(pred func(Order) bool) (Order, bool) {
	return r.orders.GetBy(pred)
}

// GetOrders returns every order matching pred. A nil pred returns all orders.
func (r *Registry) GetOrders(pred func(Order) bool) []Order {
	return r.orders.GetAll(pred)
}

// ActiveOrders returns the orders resting in the market
func (r *Registry) ActiveOrders() []Order {
	return r.orders.GetAll(Order.IsActive)
}

func (r *Registry) RemoveOrder(omsID string) {
	r.orders.Remove(omsID)
}

func (r *Registry) EmptyOrders() {
	r.orders.Clear()
}

func (r *Registry) Len() int {
	return r.orders.Len()
}

// AddTrade appends a fill to the order with the given OMS id.
// The registry lock is released before the order's trade log is locked.
func (r *Registry) AddTrade(omsID string, t MicroTrade) error {
	if err := util.ValidateStruct(t); err != nil {
		return fmt.Errorf("%w: %v", keyed.ErrInvalidRecord, err)
	}
	o, ok := r.orders.Get(omsID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, omsID)
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	o.trades.Append(t)
	return nil
}
