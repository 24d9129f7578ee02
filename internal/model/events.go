package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderEvent reports a change to a routed order back to the caller.
type OrderEvent struct {
	OrderID      string          `json:"orderId"`
	Status       OrderStatus     `json:"status"`
	Message      string          `json:"message,omitempty"`
	FillQuantity decimal.Decimal `json:"fillQuantity"`
	FillPrice    decimal.Decimal `json:"fillPrice"`
	Time         time.Time       `json:"time"`
}

// Tick is a single market data observation for one instrument.
type Tick struct {
	Symbol    string          `json:"symbol"`
	BidPrice  decimal.Decimal `json:"bidPrice"`
	BidSize   decimal.Decimal `json:"bidSize"`
	AskPrice  decimal.Decimal `json:"askPrice"`
	AskSize   decimal.Decimal `json:"askSize"`
	LastPrice decimal.Decimal `json:"lastPrice"`
	LastSize  decimal.Decimal `json:"lastSize"`
	Time      time.Time       `json:"time"`
}

type BrokerageMessageType int

const (
	BrokerageMessageInformation BrokerageMessageType = iota
	BrokerageMessageWarning
	BrokerageMessageError
)

// BrokerageMessage is an out-of-band notice from the counterparty that is
// not tied to a specific order event, such as a cancel reject explanation.
type BrokerageMessage struct {
	Type BrokerageMessageType
	Code string
	Text string
}

// FixError is an unrecoverable session-level failure surfaced to the caller
// after reconnection attempts are exhausted.
type FixError struct {
	Message string
}

func (e FixError) Error() string {
	return e.Message
}
