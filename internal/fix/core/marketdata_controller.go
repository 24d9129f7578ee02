package core

import (
	"sync"

	"fixgateway/internal/fix/protocol"
	"fixgateway/internal/model"
	"fixgateway/pkg/collector"
	"fixgateway/pkg/logs"
)

// MarketDataController bridges subscription requests and inbound ticks
// between the caller and the live market data session handler.
type MarketDataController struct {
	mu      sync.RWMutex
	handler protocol.OutboundMarketDataHandler

	tickListener func(model.Tick)
}

func NewMarketDataController() *MarketDataController {
	return &MarketDataController{}
}

func (c *MarketDataController) Register(handler protocol.OutboundMarketDataHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler != nil {
		panic("a market data handler is already registered")
	}
	c.handler = handler
}

func (c *MarketDataController) Unregister(handler protocol.OutboundMarketDataHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler != handler {
		panic("unregistering a market data handler that is not registered")
	}
	c.handler = nil
}

func (c *MarketDataController) currentHandler() protocol.OutboundMarketDataHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handler
}

func (c *MarketDataController) Subscribe(symbol model.Symbol) bool {
	handler := c.currentHandler()
	if handler == nil {
		logs.Log.Error().Str("symbol", symbol.Ticker).Msg("cannot subscribe, no market data session")
		return false
	}
	return handler.SubscribeToSymbol(symbol)
}

func (c *MarketDataController) Unsubscribe(symbol model.Symbol) bool {
	handler := c.currentHandler()
	if handler == nil {
		logs.Log.Error().Str("symbol", symbol.Ticker).Msg("cannot unsubscribe, no market data session")
		return false
	}
	return handler.UnsubscribeFromSymbol(symbol)
}

// Receive publishes a tick to the listener.
func (c *MarketDataController) Receive(tick model.Tick) {
	collector.MarketDataTickCounter.Inc()
	if c.tickListener != nil {
		c.tickListener(tick)
	}
}

func (c *MarketDataController) SetTickListener(fn func(model.Tick)) {
	c.tickListener = fn
}
