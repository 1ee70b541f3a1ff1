package trader

import (
	"fmt"
	"strings"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	}
	return fmt.Sprintf("Side(%d)", int8(s))
}

// Label is the Persian name shown in broker UIs
func (s Side) Label() string {
	switch s {
	case Buy:
		return "خرید"
	case Sell:
		return "فروش"
	}
	return ""
}

func (s Side) Valid() bool { return s == Buy || s == Sell }

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	v, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSide accepts the upper-case name or the Persian label
func ParseSide(v string) (Side, error) {
	switch strings.TrimSpace(v) {
	case "BUY", "خرید":
		return Buy, nil
	case "SELL", "فروش":
		return Sell, nil
	}
	return 0, fmt.Errorf("unknown side %q", v)
}

// OrderState is the lifecycle state of an order on the OMS
type OrderState int8

const (
	StateUnknown OrderState = iota
	StateSentToCore
	StateActive
	StateExecuted
	StateCanceled
	StateError
)

var orderStateNames = [...]struct{ name, label string }{
	StateUnknown:    {"UNKNOWN", ""},
	StateSentToCore: {"SENT_TO_CORE", "ارسال به هسته"},
	StateActive:     {"ACTIVE", "فعال"},
	StateExecuted:   {"EXECUTED", "اجرا شده"},
	StateCanceled:   {"CANCELED", "حذف شده"},
	StateError:      {"ERROR", "خطا"},
}

func (s OrderState) String() string {
	if int(s) < len(orderStateNames) && s >= 0 {
		return orderStateNames[s].name
	}
	return fmt.Sprintf("OrderState(%d)", int8(s))
}

func (s OrderState) Label() string {
	if int(s) < len(orderStateNames) && s >= 0 {
		return orderStateNames[s].label
	}
	return ""
}

// IsActive reports whether the order is resting in the market
func (s OrderState) IsActive() bool { return s == StateActive }

func (s OrderState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *OrderState) UnmarshalText(b []byte) error {
	v, err := ParseOrderState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func ParseOrderState(v string) (OrderState, error) {
	v = strings.TrimSpace(v)
	for i, n := range orderStateNames {
		if i > 0 && (v == n.name || v == n.label) {
			return OrderState(i), nil
		}
	}
	return StateUnknown, fmt.Errorf("unknown order state %q", v)
}

type ValidityType int8

const (
	ValidityUnknown ValidityType = iota
	ValidityDay
	ValidityGoodTillCancel
	ValidityGoodTillDate
	ValidityFillOrKill
)

var validityNames = [...]struct{ name, label string }{
	ValidityUnknown:        {"UNKNOWN", ""},
	ValidityDay:            {"DAY", "روز"},
	ValidityGoodTillCancel: {"GOOD_TILL_CANCEL", "معتبر تا لغو"},
	ValidityGoodTillDate:   {"GOOD_TILL_DATE", "معتبر تا تاریخ"},
	ValidityFillOrKill:     {"FILL_OR_KILL", "اجرا و حذف"},
}

func (v ValidityType) String() string {
	if int(v) < len(validityNames) && v >= 0 {
		return validityNames[v].name
	}
	return fmt.Sprintf("ValidityType(%d)", int8(v))
}

func (v ValidityType) Label() string {
	if int(v) < len(validityNames) && v >= 0 {
		return validityNames[v].label
	}
	return ""
}

func (v ValidityType) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *ValidityType) UnmarshalText(b []byte) error {
	p, err := ParseValidityType(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

func ParseValidityType(v string) (ValidityType, error) {
	v = strings.TrimSpace(v)
	for i, n := range validityNames {
		if i > 0 && (v == n.name || v == n.label) {
			return ValidityType(i), nil
		}
	}
	return ValidityUnknown, fmt.Errorf("unknown validity type %q", v)
}

// OrderLock marks an order with a pending create/edit/cancel request
type OrderLock int8

const (
	Unlock OrderLock = iota
	LockForCreation
	LockForEdition
	LockForCancelation
)

var lockNames = [...]struct{ name, label string }{
	Unlock:             {"UNLOCK", "آزاد"},
	LockForCreation:    {"LOCK_FOR_CREATION", "قفل برای ایجاد"},
	LockForEdition:     {"LOCK_FOR_EDITION", "قفل برای ویرایش"},
	LockForCancelation: {"LOCK_FOR_CANCELATION", "قفل برای حذف"},
}

func (l OrderLock) String() string {
	if int(l) < len(lockNames) && l >= 0 {
		return lockNames[l].name
	}
	return fmt.Sprintf("OrderLock(%d)", int8(l))
}

func (l OrderLock) Label() string {
	if int(l) < len(lockNames) && l >= 0 {
		return lockNames[l].label
	}
	return ""
}

// IsLocked reports whether a request on the order is still in flight
func (l OrderLock) IsLocked() bool { return l != Unlock }

func (l OrderLock) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *OrderLock) UnmarshalText(b []byte) error {
	p, err := ParseOrderLock(string(b))
	if err != nil {
		return err
	}
	*l = p
	return nil
}

func ParseOrderLock(v string) (OrderLock, error) {
	v = strings.TrimSpace(v)
	for i, n := range lockNames {
		if v == n.name || v == n.label {
			return OrderLock(i), nil
		}
	}
	return Unlock, fmt.Errorf("unknown order lock %q", v)
}

// ConnectionState is the login state of a trader account on its OMS
type ConnectionState int8

const (
	NoLogin ConnectionState = iota
	Connecting
	Connected
	Reconnecting
	ConnectionBroken
	LoggedOut
)

var connStateNames = [...]struct{ name, label string }{
	NoLogin:          {"NO_LOGIN", "وارد نشده"},
	Connecting:       {"CONNECTING", "در حال اتصال"},
	Connected:        {"CONNECTED", "متصل"},
	Reconnecting:     {"RECONNECTING", "در حال اتصال مجدد"},
	ConnectionBroken: {"CONNECTION_BROKEN", "قطع اتصال"},
	LoggedOut:        {"LOGGED_OUT", "خارج شده"},
}

func (c ConnectionState) String() string {
	if int(c) < len(connStateNames) && c >= 0 {
		return connStateNames[c].name
	}
	return fmt.Sprintf("ConnectionState(%d)", int8(c))
}

func (c ConnectionState) Label() string {
	if int(c) < len(connStateNames) && c >= 0 {
		return connStateNames[c].label
	}
	return ""
}

// IsStable reports whether no connect or disconnect is in progress
func (c ConnectionState) IsStable() bool {
	return c == NoLogin || c == Connected || c == LoggedOut
}

// CanRequestConnect reports whether the connection is down and stable
func (c ConnectionState) CanRequestConnect() bool {
	return c == NoLogin || c == LoggedOut
}

func (c ConnectionState) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func ParseConnectionState(v string) (ConnectionState, error) {
	v = strings.TrimSpace(v)
	for i, n := range connStateNames {
		if v == n.name || v == n.label {
			return ConnectionState(i), nil
		}
	}
	return NoLogin, fmt.Errorf("unknown connection state %q", v)
}
