package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction int

const (
	DirectionBuy Direction = iota
	DirectionSell
)

func (d Direction) String() string {
	switch d {
	case DirectionBuy:
		return "Buy"
	case DirectionSell:
		return "Sell"
	default:
		return "Unknown"
	}
}

type OrderType int

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
	OrderTypeStopMarket
	OrderTypeStopLimit
	OrderTypeMarketOnClose
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "Market"
	case OrderTypeLimit:
		return "Limit"
	case OrderTypeStopMarket:
		return "StopMarket"
	case OrderTypeStopLimit:
		return "StopLimit"
	case OrderTypeMarketOnClose:
		return "MarketOnClose"
	default:
		return "Unknown"
	}
}

type TimeInForce int

const (
	TimeInForceDay TimeInForce = iota
	TimeInForceGoodTilCanceled
)

type OrderStatus int

const (
	OrderStatusNew OrderStatus = iota
	OrderStatusSubmitted
	OrderStatusPartiallyFilled
	OrderStatusFilled
	OrderStatusCanceled
	OrderStatusCancelPending
	OrderStatusUpdateSubmitted
	OrderStatusInvalid
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusNew:
		return "New"
	case OrderStatusSubmitted:
		return "Submitted"
	case OrderStatusPartiallyFilled:
		return "PartiallyFilled"
	case OrderStatusFilled:
		return "Filled"
	case OrderStatusCanceled:
		return "Canceled"
	case OrderStatusCancelPending:
		return "CancelPending"
	case OrderStatusUpdateSubmitted:
		return "UpdateSubmitted"
	case OrderStatusInvalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// Closed reports whether the status is terminal for the order lifecycle.
func (s OrderStatus) Closed() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusInvalid:
		return true
	default:
		return false
	}
}

// OrderProperties carries the per-order routing overrides a caller may set.
type OrderProperties struct {
	Exchange        string
	ExchangePostfix string
}

type Order struct {
	ID          string
	Symbol      Symbol
	Direction   Direction
	Quantity    decimal.Decimal
	Type        OrderType
	LimitPrice  decimal.Decimal
	StopPrice   decimal.Decimal
	TimeInForce TimeInForce
	Time        time.Time
	Status      OrderStatus
	Properties  OrderProperties

	// BrokerIDs holds every client order identifier sent to the counterparty
	// for this order, oldest first. The last entry is the live one.
	BrokerIDs []string
}

func (o *Order) AbsQuantity() decimal.Decimal {
	return o.Quantity.Abs()
}

// LatestBrokerID returns the most recently assigned client order ID, or ""
// when the order has not yet been routed.
func (o *Order) LatestBrokerID() string {
	if len(o.BrokerIDs) == 0 {
		return ""
	}
	return o.BrokerIDs[len(o.BrokerIDs)-1]
}
