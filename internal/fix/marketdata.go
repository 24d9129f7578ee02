package fix

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix42/marketdataincrementalrefresh"
	"github.com/quickfixgo/fix42/marketdatarequest"
	"github.com/quickfixgo/fix42/marketdatarequestreject"
	"github.com/quickfixgo/fix42/marketdatasnapshotfullrefresh"
	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"

	"fixgateway/internal/fix/core"
	"fixgateway/internal/model"
	"fixgateway/internal/symbols"
	"fixgateway/pkg/logs"
)

// subscriptionEntry accumulates the latest quote state for one subscribed
// instrument. Incremental updates only carry the sides that changed, so the
// previous values are reconciled into every emitted tick.
type subscriptionEntry struct {
	symbol model.Symbol

	mu        sync.Mutex
	bidPrice  decimal.Decimal
	bidSize   decimal.Decimal
	askPrice  decimal.Decimal
	askSize   decimal.Decimal
	lastPrice decimal.Decimal
	lastSize  decimal.Decimal
}

func (e *subscriptionEntry) apply(entryType enum.MDEntryType, price, size decimal.Decimal) {
	switch entryType {
	case enum.MDEntryType_BID:
		e.bidPrice, e.bidSize = price, size
	case enum.MDEntryType_OFFER:
		e.askPrice, e.askSize = price, size
	case enum.MDEntryType_TRADE:
		e.lastPrice, e.lastSize = price, size
	}
}

func (e *subscriptionEntry) tick(at time.Time) model.Tick {
	return model.Tick{
		Symbol:    e.symbol.Ticker,
		BidPrice:  e.bidPrice,
		BidSize:   e.bidSize,
		AskPrice:  e.askPrice,
		AskSize:   e.askSize,
		LastPrice: e.lastPrice,
		LastSize:  e.lastSize,
		Time:      at,
	}
}

// MarketDataHandler is the session handler for the quote stream. It issues
// top-of-book snapshot-plus-updates subscriptions and turns refreshes into
// ticks.
type MarketDataHandler struct {
	sessionHandler

	session    core.Session
	controller *core.MarketDataController
	mapper     *symbols.Mapper

	nextRequestID atomic.Int64

	mu            sync.Mutex
	subscriptions map[string]*subscriptionEntry
	requestIDs    map[string]string
}

func NewMarketDataHandler(session core.Session, controller *core.MarketDataController, mapper *symbols.Mapper) *MarketDataHandler {
	h := &MarketDataHandler{
		session:       session,
		controller:    controller,
		mapper:        mapper,
		subscriptions: make(map[string]*subscriptionEntry),
		requestIDs:    make(map[string]string),
	}
	h.init("market-data")
	h.router.AddRoute(marketdatasnapshotfullrefresh.Route(h.onSnapshot))
	h.router.AddRoute(marketdataincrementalrefresh.Route(h.onIncrementalRefresh))
	h.router.AddRoute(marketdatarequestreject.Route(h.onRequestReject))

	controller.Register(h)
	return h
}

// SubscribeToSymbol requests top-of-book snapshot plus incremental updates
// for the symbol. Request IDs increase monotonically so replies always map
// back to exactly one subscription.
func (h *MarketDataHandler) SubscribeToSymbol(symbol model.Symbol) bool {
	securityType, err := h.mapper.BrokerageSecurityType(symbol.SecurityType)
	if err != nil {
		logs.Log.Error().Err(err).Str("symbol", symbol.Ticker).Msg("cannot subscribe")
		return false
	}

	requestID := strconv.FormatInt(h.nextRequestID.Add(1), 10)
	ticker := h.mapper.BrokerageSymbol(symbol)

	msg := h.newRequest(requestID, enum.SubscriptionRequestType_SNAPSHOT_PLUS_UPDATES, ticker, securityType, symbol)

	h.mu.Lock()
	// A repeated subscribe supersedes the previous request for the ticker,
	// so drop its entry instead of leaving it to collect stale updates.
	if previousID, ok := h.requestIDs[ticker]; ok {
		delete(h.subscriptions, previousID)
	}
	h.subscriptions[requestID] = &subscriptionEntry{symbol: symbol}
	h.requestIDs[ticker] = requestID
	h.mu.Unlock()

	if !h.session.Send(msg) {
		h.mu.Lock()
		delete(h.subscriptions, requestID)
		delete(h.requestIDs, ticker)
		h.mu.Unlock()
		return false
	}
	return true
}

// UnsubscribeFromSymbol cancels the live subscription for the symbol using
// the request ID it was opened with.
func (h *MarketDataHandler) UnsubscribeFromSymbol(symbol model.Symbol) bool {
	ticker := h.mapper.BrokerageSymbol(symbol)

	h.mu.Lock()
	requestID, ok := h.requestIDs[ticker]
	if ok {
		delete(h.subscriptions, requestID)
		delete(h.requestIDs, ticker)
	}
	h.mu.Unlock()

	if !ok {
		logs.Log.Warn().Str("symbol", symbol.Ticker).Msg("unsubscribe for a symbol that is not subscribed")
		return false
	}

	securityType, err := h.mapper.BrokerageSecurityType(symbol.SecurityType)
	if err != nil {
		logs.Log.Error().Err(err).Str("symbol", symbol.Ticker).Msg("cannot unsubscribe")
		return false
	}

	msg := h.newRequest(requestID, enum.SubscriptionRequestType_DISABLE_PREVIOUS_SNAPSHOT_PLUS_UPDATE_REQUEST, ticker, securityType, symbol)
	return h.session.Send(msg)
}

func (h *MarketDataHandler) newRequest(requestID string, subType enum.SubscriptionRequestType, ticker string, securityType enum.SecurityType, symbol model.Symbol) marketdatarequest.MarketDataRequest {
	msg := marketdatarequest.New(
		field.NewMDReqID(requestID),
		field.NewSubscriptionRequestType(subType),
		field.NewMarketDepth(1),
	)
	msg.SetMDUpdateType(enum.MDUpdateType_INCREMENTAL_REFRESH)

	entryTypes := marketdatarequest.NewNoMDEntryTypesRepeatingGroup()
	for _, t := range []enum.MDEntryType{enum.MDEntryType_BID, enum.MDEntryType_OFFER, enum.MDEntryType_TRADE} {
		entryTypes.Add().SetMDEntryType(t)
	}
	msg.SetNoMDEntryTypes(entryTypes)

	exchange := symbol.PrimaryExchange
	if exchange == "" {
		exchange = smartExchange
	}

	relatedSym := marketdatarequest.NewNoRelatedSymRepeatingGroup()
	row := relatedSym.Add()
	row.SetSymbol(ticker)
	row.SetSecurityType(securityType)
	row.SetSecurityExchange(exchange)
	msg.SetNoRelatedSym(relatedSym)

	return msg
}

func (h *MarketDataHandler) entryForRequest(requestID string) *subscriptionEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.subscriptions[requestID]
}

func (h *MarketDataHandler) onSnapshot(msg marketdatasnapshotfullrefresh.MarketDataSnapshotFullRefresh, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	requestID, err := msg.GetMDReqID()
	if err != nil {
		return err
	}

	entry := h.entryForRequest(requestID)
	if entry == nil {
		logs.Log.Warn().Str("mdReqID", requestID).Msg("snapshot for an unknown subscription")
		return nil
	}

	group, err := msg.GetNoMDEntries()
	if err != nil {
		return err
	}

	entry.mu.Lock()
	for i := 0; i < group.Len(); i++ {
		row := group.Get(i)
		entryType, err := row.GetMDEntryType()
		if err != nil {
			continue
		}
		price, _ := row.GetMDEntryPx()
		size, _ := row.GetMDEntrySize()
		entry.apply(entryType, price, size)
	}
	tick := entry.tick(time.Now().UTC())
	entry.mu.Unlock()

	h.controller.Receive(tick)
	return nil
}

func (h *MarketDataHandler) onIncrementalRefresh(msg marketdataincrementalrefresh.MarketDataIncrementalRefresh, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	group, err := msg.GetNoMDEntries()
	if err != nil {
		return err
	}

	requestID := ""
	if msg.HasMDReqID() {
		requestID, _ = msg.GetMDReqID()
	}

	touched := make(map[*subscriptionEntry]bool)
	for i := 0; i < group.Len(); i++ {
		row := group.Get(i)

		entry := h.entryForRequest(requestID)
		if entry == nil && row.HasSymbol() {
			if ticker, err := row.GetSymbol(); err == nil {
				h.mu.Lock()
				if id, ok := h.requestIDs[ticker]; ok {
					entry = h.subscriptions[id]
				}
				h.mu.Unlock()
			}
		}
		if entry == nil {
			continue
		}

		entryType, err := row.GetMDEntryType()
		if err != nil {
			continue
		}
		price, _ := row.GetMDEntryPx()
		size, _ := row.GetMDEntrySize()

		entry.mu.Lock()
		entry.apply(entryType, price, size)
		entry.mu.Unlock()
		touched[entry] = true
	}

	now := time.Now().UTC()
	for entry := range touched {
		entry.mu.Lock()
		tick := entry.tick(now)
		entry.mu.Unlock()
		h.controller.Receive(tick)
	}
	return nil
}

func (h *MarketDataHandler) onRequestReject(msg marketdatarequestreject.MarketDataRequestReject, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	requestID, _ := msg.GetMDReqID()

	text := ""
	if msg.HasText() {
		text, _ = msg.GetText()
	}

	logs.Log.Error().Str("mdReqID", requestID).Str("text", text).Msg("market data request rejected")

	h.mu.Lock()
	if entry, ok := h.subscriptions[requestID]; ok {
		delete(h.subscriptions, requestID)
		delete(h.requestIDs, h.mapper.BrokerageSymbol(entry.symbol))
	}
	h.mu.Unlock()
	return nil
}
