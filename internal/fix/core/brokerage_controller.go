package core

import (
	"sync"
	"time"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/fix42/executionreport"
	"github.com/quickfixgo/fix42/ordercancelreject"

	"fixgateway/internal/fix/protocol"
	"fixgateway/internal/fixutil"
	"fixgateway/internal/model"
	"fixgateway/internal/symbols"
	"fixgateway/pkg/logs"
)

// BrokerageController bridges order flow between the caller and whichever
// order routing session handler is currently registered. It keeps the last
// execution report per client order ID so open orders can be rebuilt after
// a reconnect.
type BrokerageController struct {
	mapper *symbols.Mapper

	mu         sync.RWMutex
	handler    protocol.OutboundBrokerageHandler
	executions map[string]executionreport.ExecutionReport

	executionListener    func(executionreport.ExecutionReport)
	cancelRejectListener func(ordercancelreject.OrderCancelReject)
	openOrdersListener   func()
}

func NewBrokerageController(mapper *symbols.Mapper) *BrokerageController {
	return &BrokerageController{
		mapper:     mapper,
		executions: make(map[string]executionreport.ExecutionReport),
	}
}

// Register installs the handler for the live order routing session. Wiring
// two handlers at once is a programming error.
func (c *BrokerageController) Register(handler protocol.OutboundBrokerageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler != nil {
		panic("a brokerage handler is already registered")
	}
	c.handler = handler
}

// Unregister removes the handler for a session that logged out. The handler
// must be the one previously registered.
func (c *BrokerageController) Unregister(handler protocol.OutboundBrokerageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler != handler {
		panic("unregistering a brokerage handler that is not registered")
	}
	c.handler = nil
}

func (c *BrokerageController) currentHandler() protocol.OutboundBrokerageHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handler
}

func (c *BrokerageController) PlaceOrder(order *model.Order) bool {
	handler := c.currentHandler()
	if handler == nil {
		logs.Log.Error().Str("order", order.ID).Msg("cannot place order, no order routing session")
		return false
	}
	return handler.PlaceOrder(order)
}

func (c *BrokerageController) UpdateOrder(order *model.Order) bool {
	handler := c.currentHandler()
	if handler == nil {
		logs.Log.Error().Str("order", order.ID).Msg("cannot update order, no order routing session")
		return false
	}
	return handler.UpdateOrder(order)
}

func (c *BrokerageController) CancelOrder(order *model.Order) bool {
	handler := c.currentHandler()
	if handler == nil {
		logs.Log.Error().Str("order", order.ID).Msg("cannot cancel order, no order routing session")
		return false
	}
	return handler.CancelOrder(order)
}

func (c *BrokerageController) RequestOpenOrders() bool {
	handler := c.currentHandler()
	if handler == nil {
		logs.Log.Error().Msg("cannot request open orders, no order routing session")
		return false
	}
	return handler.RequestOpenOrders()
}

// Receive records an execution report and forwards it to the listener.
// Rejected orders are evicted so they never resurface as open orders.
// Status-style reports answering an open orders request are stored and
// signaled but not forwarded, they describe no state change.
func (c *BrokerageController) Receive(msg executionreport.ExecutionReport) {
	clOrdID, err := msg.GetClOrdID()
	if err != nil {
		logs.Log.Warn().Msg("execution report without ClOrdID")
	} else {
		ordStatus, _ := msg.GetOrdStatus()

		c.mu.Lock()
		if ordStatus == enum.OrdStatus_REJECTED {
			delete(c.executions, clOrdID)
		} else {
			c.executions[clOrdID] = msg
		}
		c.mu.Unlock()
	}

	if msg.HasExecTransType() {
		if transType, err := msg.GetExecTransType(); err == nil && transType == enum.ExecTransType_STATUS {
			c.OnOpenOrdersReceived()
			return
		}
	}

	if c.executionListener != nil {
		c.executionListener(msg)
	}
}

// ReceiveCancelReject forwards a cancel reject to the listener.
func (c *BrokerageController) ReceiveCancelReject(msg ordercancelreject.OrderCancelReject) {
	if c.cancelRejectListener != nil {
		c.cancelRejectListener(msg)
	}
}

// OnOpenOrdersReceived signals that the counterparty finished answering an
// open orders request.
func (c *BrokerageController) OnOpenOrdersReceived() {
	if c.openOrdersListener != nil {
		c.openOrdersListener()
	}
}

func (c *BrokerageController) SetExecutionListener(fn func(executionreport.ExecutionReport)) {
	c.executionListener = fn
}

func (c *BrokerageController) SetCancelRejectListener(fn func(ordercancelreject.OrderCancelReject)) {
	c.cancelRejectListener = fn
}

func (c *BrokerageController) SetOpenOrdersListener(fn func()) {
	c.openOrdersListener = fn
}

// GetOpenOrders rebuilds the orders that are still working from the stored
// execution reports.
func (c *BrokerageController) GetOpenOrders() []*model.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	orders := make([]*model.Order, 0, len(c.executions))
	for clOrdID, msg := range c.executions {
		status := fixutil.OrderStatusFromExecution(msg)
		if status.Closed() {
			continue
		}

		order, err := c.convertOrder(clOrdID, msg)
		if err != nil {
			logs.Log.Warn().Err(err).Str("clOrdID", clOrdID).Msg("skipping unconvertible execution report")
			continue
		}
		order.Status = status
		orders = append(orders, order)
	}
	return orders
}

func (c *BrokerageController) convertOrder(clOrdID string, msg executionreport.ExecutionReport) (*model.Order, error) {
	ticker, err := msg.GetSymbol()
	if err != nil {
		return nil, err
	}

	securityType := model.SecurityTypeEquity
	if msg.HasSecurityType() {
		wireType, err := msg.GetSecurityType()
		if err != nil {
			return nil, err
		}
		mapped, mapErr := c.mapper.SecurityTypeFromWire(wireType)
		if mapErr != nil {
			return nil, mapErr
		}
		securityType = mapped
	}

	side, err := msg.GetSide()
	if err != nil {
		return nil, err
	}
	direction := model.DirectionBuy
	if side == enum.Side_SELL {
		direction = model.DirectionSell
	}

	quantity, err := msg.GetOrderQty()
	if err != nil {
		return nil, err
	}

	wireOrdType, err := msg.GetOrdType()
	if err != nil {
		return nil, err
	}
	orderType, typeErr := fixutil.OrderTypeFromWire(wireOrdType)
	if typeErr != nil {
		return nil, typeErr
	}

	order := &model.Order{
		ID: clOrdID,
		Symbol: model.Symbol{
			Ticker:       ticker,
			SecurityType: securityType,
		},
		Direction: direction,
		Quantity:  quantity,
		Type:      orderType,
		Time:      time.Now().UTC(),
		BrokerIDs: []string{clOrdID},
	}

	if msg.HasPrice() {
		if price, err := msg.GetPrice(); err == nil {
			order.LimitPrice = price
		}
	}
	if msg.HasStopPx() {
		if stopPx, err := msg.GetStopPx(); err == nil {
			order.StopPrice = stopPx
		}
	}
	if msg.HasTimeInForce() {
		if tif, err := msg.GetTimeInForce(); err == nil {
			order.TimeInForce = fixutil.TimeInForceFromWire(tif)
		}
	}
	if msg.HasTransactTime() {
		if transactTime, err := msg.GetTransactTime(); err == nil {
			order.Time = transactTime
		}
	}

	return order, nil
}
