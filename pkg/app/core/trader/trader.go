package trader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/uhyunpark/tseutils/pkg/app/core/instrument"
	"github.com/uhyunpark/tseutils/pkg/app/core/portfolio"
	"github.com/uhyunpark/tseutils/pkg/util"
)

// Session is the OMS-specific side of a trader account.
// Each implementation talks to a single broker through a single OMS.
type Session interface {
	// Connect does a single login attempt
	Connect(ctx context.Context) error
	// ConnectLooper retries Connect until it succeeds or maxTrial attempts fail
	ConnectLooper(ctx context.Context, interval time.Duration, maxTrial int) error
	Disconnect(ctx context.Context) error

	ServerTime(ctx context.Context) (time.Time, error)

	// PullTraderData fetches portfolio and orders with a pull request
	PullTraderData(ctx context.Context) error
	// SubscribeInstruments asks the OMS pusher for realtime data of instruments
	SubscribeInstruments(ctx context.Context, instruments []*instrument.Instrument) error

	// OrderSend sends a new order. The order is a request only; it enters the
	// registry when the OMS pushes it back.
	OrderSend(ctx context.Context, o Order) error
	OrderCancel(ctx context.Context, o Order) error
	OrderEdit(ctx context.Context, o Order, quantity, price int64) error
}

// TradingAPI is a single OMS at a single broker
type TradingAPI struct {
	BrokerTitle string `json:"brokerTitle"`
	OMSTitle    string `json:"omsTitle"`
	OMSDomain   string `json:"omsDomain"`
}

func (a TradingAPI) String() string {
	return fmt.Sprintf("%s - %s", a.OMSTitle, a.BrokerTitle)
}

// Credentials of a single trader account.
// Password is optional since some OMSs work with long-lived tokens.
type Credentials struct {
	API      TradingAPI `json:"api"`
	Username string     `json:"username"`
	Password string     `json:"-"`
}

// Identification of the trader behind an account.
// DisplayName is used in logs; Username is used when it is empty.
type Identification struct {
	DBID        int64  `json:"dbId,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	BourseCode  string `json:"bourseCode,omitempty"`
	OMSCode     string `json:"omsCode,omitempty"`
}

// Account holds the data of a single trader account.
// An OMS adapter implements Session and keeps Portfolio, Orders and
// Instruments current from its pushers.
type Account struct {
	Credentials    Credentials
	Identification Identification

	Portfolio   *portfolio.Portfolio
	Orders      *Registry
	Instruments *instrument.Registry // subscribed instruments

	mu    sync.Mutex
	state ConnectionState

	log *zap.SugaredLogger
}

func NewAccount(creds Credentials, log *zap.SugaredLogger) *Account {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Account{
		Credentials: creds,
		Portfolio:   portfolio.New(),
		Orders:      NewRegistry(),
		Instruments: instrument.NewRegistry(),
		state:       NoLogin,
		log:         log,
	}
}

func (a *Account) String() string {
	name := a.Identification.DisplayName
	if name == "" {
		name = a.Credentials.Username
	}
	return fmt.Sprintf("%s@%s", name, a.Credentials.API.BrokerTitle)
}

func (a *Account) State() ConnectionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// SetState changes the connection state and returns the previous one
func (a *Account) SetState(s ConnectionState) ConnectionState {
	a.mu.Lock()
	prev := a.state
	a.state = s
	a.mu.Unlock()

	if prev != s {
		a.log.Infow("connection_state", "account", a.String(), "from", prev.String(), "to", s.String())
	}
	return prev
}

// SubscribedInstrument returns the subscribed instrument with the given ISIN
func (a *Account) SubscribedInstrument(isin string) (*instrument.Instrument, bool) {
	in, err := a.Instruments.Get(isin)
	if err != nil {
		return nil, false
	}
	return in, true
}

// ConnectLoop retries connect with exponential backoff starting at interval
// until it succeeds, maxTrial attempts fail or ctx is done. Session
// implementations can use it for ConnectLooper.
func (a *Account) ConnectLoop(ctx context.Context, connect func(context.Context) error, interval time.Duration, maxTrial int) error {
	if !a.State().CanRequestConnect() {
		return fmt.Errorf("account %s cannot connect in state %s", a, a.State())
	}
	a.SetState(Connecting)

	attempt := 0
	err := util.Retry(ctx, maxTrial, util.NewBackoff(interval, 10*interval), nil, func(ctx context.Context) error {
		attempt++
		err := connect(ctx)
		if err != nil {
			a.log.Warnw("connect_failed", "account", a.String(), "attempt", attempt, "err", err)
			a.SetState(Reconnecting)
		}
		return err
	})
	if err != nil {
		a.SetState(NoLogin)
		return fmt.Errorf("connect %s after %d attempts: %w", a, attempt, err)
	}
	a.SetState(Connected)
	return nil
}

// Close disconnects the session and marks the account logged out.
// A failed disconnect is logged and returned.
func (a *Account) Close(ctx context.Context, s Session) error {
	if err := s.Disconnect(ctx); err != nil {
		a.log.Errorw("disconnect_failed", "account", a.String(), "err", err)
		return fmt.Errorf("disconnect %s: %w", a, err)
	}
	a.SetState(LoggedOut)
	return nil
}
