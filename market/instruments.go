package market

// InstrumentMeta describes the contract conventions needed to convert
// between price distance, points and account-currency profit.
type InstrumentMeta struct {
	Name         string
	Point        float64 // smallest quoted price increment
	Digits       int     // decimal places in quoted prices
	ContractSize float64 // units of the base asset per 1.0 lot
	MinLot       float64

	// PointValue is the account-currency value of a one point move for a
	// 0.01 lot position. Used by the backtester's fill model.
	PointValue float64
}

// Instruments is the set of tradable symbols the engine knows about.
var Instruments = map[string]InstrumentMeta{
	"XAUUSD": {
		Name:         "XAUUSD",
		Point:        0.01,
		Digits:       2,
		ContractSize: 100,
		MinLot:       0.01,
		PointValue:   1,
	},
	"GOLD#": {
		Name:         "GOLD#",
		Point:        0.01,
		Digits:       2,
		ContractSize: 100,
		MinLot:       0.01,
		PointValue:   1,
	},
	"USDJPY": {
		Name:         "USDJPY",
		Point:        0.001,
		Digits:       3,
		ContractSize: 100000,
		MinLot:       0.01,
		PointValue:   1,
	},
}

// Meta returns metadata for symbol, falling back to XAUUSD conventions
// for unknown symbols so point math stays well-defined.
func Meta(symbol string) InstrumentMeta {
	if m, ok := Instruments[symbol]; ok {
		return m
	}
	m := Instruments["XAUUSD"]
	m.Name = symbol
	return m
}
