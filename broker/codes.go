package broker

// RejectCode classifies an order submission result. The set is fixed
// so callers can branch on it; Reason gives the operator-facing text.
type RejectCode int

const (
	Done RejectCode = iota
	Requote
	Rejected
	Canceled
	InvalidVolume
	InvalidStops
	TradingDisabled
	NoMoney
	AutoTradingOff
	Disconnected
	Unknown
)

func (c RejectCode) String() string {
	switch c {
	case Done:
		return "DONE"
	case Requote:
		return "REQUOTE"
	case Rejected:
		return "REJECTED"
	case Canceled:
		return "CANCELED"
	case InvalidVolume:
		return "INVALID_VOLUME"
	case InvalidStops:
		return "INVALID_STOPS"
	case TradingDisabled:
		return "TRADING_DISABLED"
	case NoMoney:
		return "NO_MONEY"
	case AutoTradingOff:
		return "AUTOTRADING_OFF"
	case Disconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Reason returns the human explanation sent with order-error
// notifications.
func (c RejectCode) Reason() string {
	switch c {
	case Requote:
		return "requote: price moved too fast"
	case Rejected:
		return "order rejected, possibly a broker-side restriction"
	case Canceled:
		return "order canceled"
	case InvalidVolume:
		return "invalid lot size, check the configured lot"
	case InvalidStops:
		return "invalid stop/target price, check the configured point distances"
	case TradingDisabled:
		return "trading disabled: market closed or under maintenance"
	case NoMoney:
		return "insufficient margin: lower the lot or deposit"
	case AutoTradingOff:
		return "automated trading is disabled in the terminal"
	case Disconnected:
		return "terminal disconnected"
	default:
		return "unknown error: connection trouble, server fault or broker restriction"
	}
}

// OK reports a successful fill.
func (r OrderResult) OK() bool { return r.Code == Done }
