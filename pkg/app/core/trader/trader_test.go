package trader

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/uhyunpark/tseutils/pkg/app/core/instrument"
)

type fakeSession struct {
	acct       *Account
	failFirst  int
	connects   int
	disconnErr error
}

func (f *fakeSession) Connect(ctx context.Context) error {
	f.connects++
	if f.connects <= f.failFirst {
		return errors.New("login rejected")
	}
	return nil
}

func (f *fakeSession) ConnectLooper(ctx context.Context, interval time.Duration, maxTrial int) error {
	return f.acct.ConnectLoop(ctx, f.Connect, interval, maxTrial)
}

func (f *fakeSession) Disconnect(ctx context.Context) error { return f.disconnErr }

func (f *fakeSession) ServerTime(ctx context.Context) (time.Time, error) { return time.Time{}, nil }

func (f *fakeSession) PullTraderData(ctx context.Context) error { return nil }

func (f *fakeSession) SubscribeInstruments(ctx context.Context, instruments []*instrument.Instrument) error {
	for _, in := range instruments {
		if err := f.acct.Instruments.Register(in); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSession) OrderSend(ctx context.Context, o Order) error { return nil }

func (f *fakeSession) OrderCancel(ctx context.Context, o Order) error { return nil }

func (f *fakeSession) OrderEdit(ctx context.Context, o Order, quantity, price int64) error {
	return nil
}

var _ Session = (*fakeSession)(nil)

func testAccount() *Account {
	return NewAccount(Credentials{
		API:      TradingAPI{BrokerTitle: "Mofid", OMSTitle: "Easy"},
		Username: "trader1",
	}, nil)
}

func TestAccountString(t *testing.T) {
	a := testAccount()
	if a.String() != "trader1@Mofid" {
		t.Errorf("String = %s", a.String())
	}
	a.Identification.DisplayName = "Ali"
	if a.String() != "Ali@Mofid" {
		t.Errorf("String = %s", a.String())
	}
	if a.Credentials.API.String() != "Easy - Mofid" {
		t.Errorf("api = %s", a.Credentials.API.String())
	}
}

func TestConnectLoop(t *testing.T) {
	ctx := context.Background()

	a := testAccount()
	s := &fakeSession{acct: a, failFirst: 2}
	if err := s.ConnectLooper(ctx, time.Millisecond, 5); err != nil {
		t.Fatalf("ConnectLooper: %v", err)
	}
	if s.connects != 3 || a.State() != Connected {
		t.Errorf("connects=%d state=%s", s.connects, a.State())
	}
	if err := s.ConnectLooper(ctx, time.Millisecond, 5); err == nil {
		t.Error("connecting a connected account should fail")
	}

	if err := a.Close(ctx, s); err != nil || a.State() != LoggedOut {
		t.Errorf("Close = %v, state %s", err, a.State())
	}

	b := testAccount()
	s = &fakeSession{acct: b, failFirst: 10}
	if err := s.ConnectLooper(ctx, time.Millisecond, 3); err == nil {
		t.Fatal("expected failure after max trials")
	}
	if s.connects != 3 || b.State() != NoLogin {
		t.Errorf("connects=%d state=%s", s.connects, b.State())
	}

	s.disconnErr = errors.New("timeout")
	if err := b.Close(ctx, s); err == nil || b.State() != NoLogin {
		t.Errorf("failed Close = %v, state %s", err, b.State())
	}
}

func TestSubscribedInstrument(t *testing.T) {
	a := testAccount()
	s := &fakeSession{acct: a}
	in := instrument.New(instrument.Identification{ISIN: testISIN, Ticker: "فولاد"})
	if err := s.SubscribeInstruments(context.Background(), []*instrument.Instrument{in}); err != nil {
		t.Fatal(err)
	}
	if got, ok := a.SubscribedInstrument(testISIN); !ok || got != in {
		t.Error("subscribed instrument not found")
	}
	if _, ok := a.SubscribedInstrument("IRO1NONE0001"); ok {
		t.Error("unknown instrument found")
	}
}

func TestConnectionStatePredicates(t *testing.T) {
	tests := []struct {
		state      ConnectionState
		stable     bool
		canConnect bool
	}{
		{NoLogin, true, true},
		{Connecting, false, false},
		{Connected, true, false},
		{Reconnecting, false, false},
		{ConnectionBroken, false, false},
		{LoggedOut, true, true},
	}
	for _, tt := range tests {
		if tt.state.IsStable() != tt.stable || tt.state.CanRequestConnect() != tt.canConnect {
			t.Errorf("%s: stable=%v canConnect=%v", tt.state, tt.state.IsStable(), tt.state.CanRequestConnect())
		}
	}
	if s, err := ParseConnectionState("متصل"); err != nil || s != Connected {
		t.Errorf("parse label = %s, %v", s, err)
	}
}

func TestEnumLabelsAndParse(t *testing.T) {
	if Buy.Label() != "خرید" || Sell.Label() != "فروش" {
		t.Error("side labels")
	}
	if s, err := ParseSide("فروش"); err != nil || s != Sell {
		t.Errorf("ParseSide = %s, %v", s, err)
	}
	if _, err := ParseSide("HOLD"); err == nil {
		t.Error("expected error for unknown side")
	}

	if !StateActive.IsActive() || StateExecuted.IsActive() {
		t.Error("IsActive")
	}
	if st, err := ParseOrderState("حذف شده"); err != nil || st != StateCanceled {
		t.Errorf("ParseOrderState = %s, %v", st, err)
	}
	if _, err := ParseOrderState("UNKNOWN"); err == nil {
		t.Error("UNKNOWN must not parse")
	}
	if v, err := ParseValidityType("FILL_OR_KILL"); err != nil || v.Label() != "اجرا و حذف" {
		t.Errorf("ParseValidityType = %s, %v", v, err)
	}
	if l, err := ParseOrderLock("قفل برای ویرایش"); err != nil || l != LockForEdition || !l.IsLocked() {
		t.Errorf("ParseOrderLock = %s, %v", l, err)
	}
}

func TestOrderJSON(t *testing.T) {
	o := NewOrder("77", testISIN, Sell, 10, 1500)
	o.State = StateActive
	o.Validity = ValidityDay

	b, err := json.Marshal(o)
	if err != nil {
		t.Fatal(err)
	}
	var got Order
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.Side != Sell || got.State != StateActive || got.Validity != ValidityDay || got.Price != 1500 {
		t.Errorf("decoded = %+v from %s", got, b)
	}
	if o.String() != "SELL|ACTIVE|77|IRO1FOLD0001|P:1500,Q:10" {
		t.Errorf("String = %s", o.String())
	}
}
