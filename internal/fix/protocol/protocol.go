// Package protocol defines the seams between the FIX transport, the
// counterparty-specific message handling, and the controllers that expose
// trading operations to the rest of the process.
package protocol

import (
	"github.com/quickfixgo/quickfix"

	"fixgateway/internal/model"
)

// Director owns the set of live session handlers and dispatches every
// message the transport delivers to the handler for its session.
type Director interface {
	// AreSessionsReady reports whether every expected session is logged on
	// and has completed recovery. It is false while no session exists.
	AreSessionsReady() bool

	// Handle dispatches an application-level message. Failures are logged
	// and must never tear down the session.
	Handle(msg *quickfix.Message, sessionID quickfix.SessionID)

	// HandleAdminMessage observes inbound admin traffic, such as logouts
	// carrying a sequence number hint.
	HandleAdminMessage(msg *quickfix.Message, sessionID quickfix.SessionID)

	// EnrichOutbound decorates outgoing admin messages before they are sent.
	EnrichOutbound(msg *quickfix.Message)

	OnLogon(sessionID quickfix.SessionID)
	OnLogout(sessionID quickfix.SessionID)
}

// SessionHandler processes the messages of a single FIX session.
type SessionHandler interface {
	// Crack routes a message to the typed handler for its message type.
	Crack(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError

	// IsReady reports whether the session has finished its post-logon
	// recovery and can accept outbound requests.
	IsReady() bool
}

// OutboundBrokerageHandler sends order flow to the counterparty. Every
// operation reports success as a boolean and never panics on bad input.
type OutboundBrokerageHandler interface {
	PlaceOrder(order *model.Order) bool
	UpdateOrder(order *model.Order) bool
	CancelOrder(order *model.Order) bool
	RequestOpenOrders() bool
}

// OutboundMarketDataHandler manages market data subscriptions.
type OutboundMarketDataHandler interface {
	SubscribeToSymbol(symbol model.Symbol) bool
	UnsubscribeFromSymbol(symbol model.Symbol) bool
}
