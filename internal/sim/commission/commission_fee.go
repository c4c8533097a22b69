package commission

// CommissionFee computes the commission charged for executing a given share
// quantity, in USD. The simulator charges it once at entry and once at settlement.
type CommissionFee interface {
	// Calculate the commission fee for a given quantity and returns the fee in USD
	Calculate(quantity float64) float64
}

type Broker string

const (
	BrokerZero              Broker = "zero_commission"
	BrokerInteractiveBroker Broker = "interactive_broker"
)

var AllBrokers = []any{
	BrokerZero,
	BrokerInteractiveBroker,
}

// GetCommissionFeeHandler returns the fee model for a broker. Unknown brokers
// fall back to zero commission so the replay stays a pure price model.
func GetCommissionFeeHandler(broker Broker) CommissionFee {
	switch broker {
	case BrokerInteractiveBroker:
		return NewInteractiveBrokerCommissionFee()
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}
