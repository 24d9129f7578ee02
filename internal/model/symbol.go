package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SecurityType int

const (
	SecurityTypeEquity SecurityType = iota
	SecurityTypeOption
	SecurityTypeFuture
)

func (t SecurityType) String() string {
	switch t {
	case SecurityTypeEquity:
		return "Equity"
	case SecurityTypeOption:
		return "Option"
	case SecurityTypeFuture:
		return "Future"
	default:
		return "Unknown"
	}
}

type OptionRight int

const (
	OptionRightCall OptionRight = iota
	OptionRightPut
)

// Symbol identifies a tradable instrument together with the contract
// details derivative orders need on the wire.
type Symbol struct {
	Ticker       string
	SecurityType SecurityType

	// Derivative contract details. Zero values for equities.
	Underlying string
	Expiry     time.Time
	Strike     decimal.Decimal
	Right      OptionRight
	Multiplier decimal.Decimal

	// PrimaryExchange is the listing venue for equities, used when the
	// order carries no explicit exchange override.
	PrimaryExchange string
}
