package brokerage

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/fix42/executionreport"
	"github.com/quickfixgo/fix42/ordercancelreject"

	"fixgateway/internal/fix"
	"fixgateway/internal/fix/core"
	"fixgateway/internal/fixutil"
	"fixgateway/internal/model"
	"fixgateway/internal/repositories"
	"fixgateway/internal/symbols"
	"fixgateway/pkg/kafka/producer"
	"fixgateway/pkg/logs"
)

// Brokerage is the top-level facade: it owns the FIX connection and turns
// raw counterparty messages into order events, ticks, and notices for the
// caller.
type Brokerage struct {
	config     *fix.Config
	mapper     *symbols.Mapper
	controller *core.BrokerageController
	marketData *core.MarketDataController
	director   *fix.Director
	connection *fix.Connection
	orders     *repositories.OrderRepository

	journal      *producer.Producer
	journalTopic string

	orderEventListener func(model.OrderEvent)
	tickListener       func(model.Tick)
	messageListener    func(model.BrokerageMessage)
	errorListener      func(model.FixError)

	mu       sync.Mutex
	disposed bool
}

type Option func(*Brokerage)

// WithJournal publishes every order event to the topic.
func WithJournal(journal *producer.Producer, topic string) Option {
	return func(b *Brokerage) {
		b.journal = journal
		b.journalTopic = topic
	}
}

func New(config *fix.Config, orders *repositories.OrderRepository, opts ...Option) *Brokerage {
	mapper := symbols.NewMapper()

	b := &Brokerage{
		config:     config,
		mapper:     mapper,
		controller: core.NewBrokerageController(mapper),
		marketData: core.NewMarketDataController(),
		orders:     orders,
	}

	b.director = fix.NewDirector(config, mapper, b.controller, b.marketData)
	b.connection = fix.NewConnection(config, b.director)
	b.director.BindRegistry(b.connection)

	b.controller.SetExecutionListener(b.onExecutionReport)
	b.controller.SetCancelRejectListener(b.onCancelReject)
	b.controller.SetOpenOrdersListener(b.onOpenOrdersReceived)
	b.marketData.SetTickListener(b.onTick)
	b.connection.SetErrorListener(b.onError)

	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Brokerage) SetOrderEventListener(fn func(model.OrderEvent)) { b.orderEventListener = fn }
func (b *Brokerage) SetTickListener(fn func(model.Tick))             { b.tickListener = fn }
func (b *Brokerage) SetMessageListener(fn func(model.BrokerageMessage)) {
	b.messageListener = fn
}
func (b *Brokerage) SetErrorListener(fn func(model.FixError)) { b.errorListener = fn }

// Connect establishes the FIX sessions and blocks until they are ready.
func (b *Brokerage) Connect() error {
	return b.connection.Initialize()
}

func (b *Brokerage) Disconnect() {
	b.connection.Terminate()
}

func (b *Brokerage) Close() error {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return nil
	}
	b.disposed = true
	b.mu.Unlock()

	err := b.connection.Close()
	if b.journal != nil {
		if cerr := b.journal.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (b *Brokerage) IsConnected() bool {
	return b.connection.IsReady()
}

func (b *Brokerage) SessionCount() int {
	return b.director.SessionCount()
}

// PlaceOrder routes the order and records it, including the client order
// ID assigned during routing.
func (b *Brokerage) PlaceOrder(order *model.Order) bool {
	if !b.controller.PlaceOrder(order) {
		return false
	}
	b.saveOrder(order)
	return true
}

func (b *Brokerage) UpdateOrder(order *model.Order) bool {
	if !b.controller.UpdateOrder(order) {
		return false
	}
	b.saveOrder(order)
	return true
}

func (b *Brokerage) CancelOrder(order *model.Order) bool {
	return b.controller.CancelOrder(order)
}

func (b *Brokerage) RequestOpenOrders() bool {
	return b.controller.RequestOpenOrders()
}

func (b *Brokerage) GetOpenOrders() []*model.Order {
	return b.controller.GetOpenOrders()
}

func (b *Brokerage) Subscribe(symbol model.Symbol) bool {
	return b.marketData.Subscribe(symbol)
}

func (b *Brokerage) Unsubscribe(symbol model.Symbol) bool {
	return b.marketData.Unsubscribe(symbol)
}

func (b *Brokerage) saveOrder(order *model.Order) {
	if b.orders == nil {
		return
	}
	if err := b.orders.Save(order); err != nil {
		logs.Log.Error().Err(err).Str("order", order.ID).Msg("failed to persist order")
	}
}

// onExecutionReport translates a counterparty execution report into an
// order event against the locally tracked order.
func (b *Brokerage) onExecutionReport(msg executionreport.ExecutionReport) {
	status := fixutil.OrderStatusFromExecution(msg)

	clOrdID, err := msg.GetClOrdID()
	if err != nil {
		logs.Log.Warn().Msg("execution report without ClOrdID, dropping")
		return
	}

	// Cancel and replace responses carry the request ID in ClOrdID; the
	// original order is named by OrigClOrdID.
	lookupID := clOrdID
	if msg.HasOrigClOrdID() {
		if origClOrdID, err := msg.GetOrigClOrdID(); err == nil && origClOrdID != "" {
			lookupID = origClOrdID
		}
	}

	eventTime := time.Now().UTC()
	if msg.HasTransactTime() {
		if transactTime, err := msg.GetTransactTime(); err == nil {
			eventTime = transactTime
		}
	}

	event := model.OrderEvent{
		OrderID: b.resolveOrderID(lookupID, clOrdID),
		Status:  status,
		Time:    eventTime,
	}

	switch status {
	case model.OrderStatusFilled, model.OrderStatusPartiallyFilled:
		if msg.HasLastShares() {
			event.FillQuantity, _ = msg.GetLastShares()
		}
		if msg.HasLastPx() {
			event.FillPrice, _ = msg.GetLastPx()
		}
		if status == model.OrderStatusPartiallyFilled {
			if leavesQty, err := msg.GetLeavesQty(); err == nil {
				event.Message = fmt.Sprintf("Partial fill: %s remaining", leavesQty.String())
			}
		}
	case model.OrderStatusInvalid:
		if msg.HasText() {
			text, _ := msg.GetText()
			event.Message = fmt.Sprintf("Order rejected: %s", text)
		}
	}

	logs.Log.Info().
		Str("orderId", event.OrderID).
		Str("status", status.String()).
		Msg("order event")

	b.journalEvent(event)
	if b.orderEventListener != nil {
		b.orderEventListener(event)
	}
}

// resolveOrderID maps a counterparty client order ID back to the local
// order it belongs to, falling back to the wire ID for orders the process
// never routed, such as those placed before a restart.
func (b *Brokerage) resolveOrderID(lookupID, clOrdID string) string {
	if b.orders != nil {
		if order, err := b.orders.GetByBrokerID(lookupID); err == nil && order != nil {
			return order.ID
		}
		if lookupID != clOrdID {
			if order, err := b.orders.GetByBrokerID(clOrdID); err == nil && order != nil {
				return order.ID
			}
		}
	}
	return lookupID
}

// onCancelReject surfaces a rejected cancel or replace as a warning so the
// caller knows the working order is unchanged.
func (b *Brokerage) onCancelReject(msg ordercancelreject.OrderCancelReject) {
	origClOrdID, _ := msg.GetOrigClOrdID()

	reason := "unknown reason"
	if msg.HasCxlRejReason() {
		if rejReason, err := msg.GetCxlRejReason(); err == nil {
			reason = cancelRejectReason(rejReason)
		}
	}

	responseTo := "order cancel request"
	if respTo, err := msg.GetCxlRejResponseTo(); err == nil &&
		respTo == enum.CxlRejResponseTo_ORDER_CANCEL_REPLACE_REQUEST {
		responseTo = "order cancel replace request"
	}

	text := fmt.Sprintf("Rejected %s for order %s: %s", responseTo, b.resolveOrderID(origClOrdID, origClOrdID), reason)
	if msg.HasText() {
		if extra, err := msg.GetText(); err == nil && extra != "" {
			text = fmt.Sprintf("%s (%s)", text, extra)
		}
	}

	logs.Log.Warn().Msg(text)
	if b.messageListener != nil {
		b.messageListener(model.BrokerageMessage{
			Type: model.BrokerageMessageWarning,
			Code: "CancelReject",
			Text: text,
		})
	}
}

func cancelRejectReason(reason enum.CxlRejReason) string {
	switch reason {
	case enum.CxlRejReason_TOO_LATE_TO_CANCEL:
		return "too late to cancel"
	case enum.CxlRejReason_UNKNOWN_ORDER:
		return "unknown order"
	case enum.CxlRejReason_BROKER:
		return "broker option"
	case enum.CxlRejReason_ORDER_ALREADY_IN_PENDING_CANCEL_OR_PENDING_REPLACE_STATUS:
		return "order already in pending status"
	default:
		return "unknown reason"
	}
}

func (b *Brokerage) onOpenOrdersReceived() {
	logs.Log.Info().Msg("open orders response received")
}

func (b *Brokerage) onTick(tick model.Tick) {
	if b.tickListener != nil {
		b.tickListener(tick)
	}
}

func (b *Brokerage) onError(err model.FixError) {
	logs.Log.Error().Str("error", err.Message).Msg("unrecoverable FIX error")
	if b.errorListener != nil {
		b.errorListener(err)
	}
}

func (b *Brokerage) journalEvent(event model.OrderEvent) {
	if b.journal == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logs.Log.Error().Err(err).Msg("failed to encode order event")
		return
	}
	if err := b.journal.Publish(b.journalTopic, payload); err != nil {
		logs.Log.Error().Err(err).Msg("failed to journal order event")
	}
}
