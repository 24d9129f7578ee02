package fix

import (
	"time"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix42/executionreport"
	"github.com/quickfixgo/fix42/newordersingle"
	"github.com/quickfixgo/fix42/ordercancelreject"
	"github.com/quickfixgo/fix42/ordercancelreplacerequest"
	"github.com/quickfixgo/fix42/ordercancelrequest"
	"github.com/quickfixgo/fix42/orderstatusrequest"
	"github.com/quickfixgo/quickfix"

	"fixgateway/internal/fix/core"
	"fixgateway/internal/fixutil"
	"fixgateway/internal/model"
	"fixgateway/internal/symbols"
	"fixgateway/pkg/collector"
	"fixgateway/pkg/logs"
)

const (
	smartExchange   = "SMART"
	priceScale      = 2
	quantityScale   = 0
	multiplierScale = 0
)

// exchangeDestinations maps known venue names to the destination codes the
// counterparty routes on.
var exchangeDestinations = map[string]string{
	"AMEX":     "AMEX",
	"ARCA":     "ARCA",
	"BATS":     "BATS",
	"BATS Y":   "BATSYX",
	"EDGA":     "EDGA",
	"EDGX":     "EDGX",
	"IEX":      "IEX",
	"NASDAQ":   "NASDAQ",
	"NASDAQBX": "NASDAQBX",
	"NYSE":     "NYSE",
	"OTCX":     "OTCX",
	"PHLX":     "PHLX",
	"SMART":    "SMART",
}

// OrderRoutingHandler is the session handler for the order flow stream. It
// emits NewOrderSingle, cancel and replace requests, and feeds execution
// reports back through the brokerage controller.
type OrderRoutingHandler struct {
	sessionHandler

	session    core.Session
	controller *core.BrokerageController
	mapper     *symbols.Mapper
	account    string
}

func NewOrderRoutingHandler(session core.Session, controller *core.BrokerageController, mapper *symbols.Mapper, account string) *OrderRoutingHandler {
	h := &OrderRoutingHandler{
		session:    session,
		controller: controller,
		mapper:     mapper,
		account:    account,
	}
	h.init("order-routing")
	h.router.AddRoute(executionreport.Route(h.onExecutionReport))
	h.router.AddRoute(ordercancelreject.Route(h.onOrderCancelReject))

	// Order routing needs no recovery phase, the session is usable as soon
	// as it is logged on.
	h.markReady()

	controller.Register(h)
	return h
}

// PlaceOrder sends a NewOrderSingle for the order and records the assigned
// client order ID on it. Unsupported field combinations are logged and
// reported as failure, they never panic.
func (h *OrderRoutingHandler) PlaceOrder(order *model.Order) bool {
	side, err := fixutil.Side(order.Direction)
	if err != nil {
		logs.Log.Error().Err(err).Str("order", order.ID).Msg("cannot place order")
		return false
	}

	ordType, err := fixutil.OrderType(order.Type)
	if err != nil {
		logs.Log.Error().Err(err).Str("order", order.ID).Msg("cannot place order")
		return false
	}

	tif, err := fixutil.TimeInForce(order.TimeInForce, order.Type)
	if err != nil {
		logs.Log.Error().Err(err).Str("order", order.ID).Msg("cannot place order")
		return false
	}

	securityType, err := h.mapper.BrokerageSecurityType(order.Symbol.SecurityType)
	if err != nil {
		logs.Log.Error().Err(err).Str("order", order.ID).Msg("cannot place order")
		return false
	}

	clOrdID := NextOrderID()
	msg := newordersingle.New(
		field.NewClOrdID(clOrdID),
		field.NewHandlInst(enum.HandlInst_AUTOMATED_EXECUTION_ORDER_PUBLIC_BROKER_INTERVENTION_OK),
		field.NewSymbol(h.mapper.BrokerageSymbol(order.Symbol)),
		field.NewSide(side),
		field.NewTransactTime(time.Now().UTC()),
		field.NewOrdType(ordType),
	)

	msg.SetOrderQty(order.AbsQuantity(), quantityScale)
	msg.SetTimeInForce(tif)
	msg.SetRule80A(enum.Rule80A_AGENCY_SINGLE_ORDER)
	msg.SetSecurityType(securityType)
	msg.SetExDestination(enum.ExDestination(h.orderExchange(order)))
	if h.account != "" {
		msg.SetAccount(h.account)
	}

	if !h.setPrices(msg.Body, order) {
		return false
	}

	if order.Symbol.SecurityType != model.SecurityTypeEquity {
		if !h.setContractFields(msg, order) {
			return false
		}
	}

	order.BrokerIDs = append(order.BrokerIDs, clOrdID)

	collector.OutgoingOrderCounter.WithLabelValues("place").Inc()
	return h.session.Send(msg)
}

// UpdateOrder sends a cancel/replace referencing the order's most recent
// client order ID and records the replacement ID.
func (h *OrderRoutingHandler) UpdateOrder(order *model.Order) bool {
	origClOrdID := order.LatestBrokerID()
	if origClOrdID == "" {
		logs.Log.Error().Str("order", order.ID).Msg("cannot update order without a broker ID")
		return false
	}

	side, err := fixutil.Side(order.Direction)
	if err != nil {
		logs.Log.Error().Err(err).Str("order", order.ID).Msg("cannot update order")
		return false
	}

	ordType, err := fixutil.OrderType(order.Type)
	if err != nil {
		logs.Log.Error().Err(err).Str("order", order.ID).Msg("cannot update order")
		return false
	}

	clOrdID := NextOrderID()
	msg := ordercancelreplacerequest.New(
		field.NewOrigClOrdID(origClOrdID),
		field.NewClOrdID(clOrdID),
		field.NewHandlInst(enum.HandlInst_AUTOMATED_EXECUTION_ORDER_PUBLIC_BROKER_INTERVENTION_OK),
		field.NewSymbol(h.mapper.BrokerageSymbol(order.Symbol)),
		field.NewSide(side),
		field.NewTransactTime(time.Now().UTC()),
		field.NewOrdType(ordType),
	)

	msg.SetOrderQty(order.AbsQuantity(), quantityScale)

	if !h.setPrices(msg.Body, order) {
		return false
	}

	order.BrokerIDs = append(order.BrokerIDs, clOrdID)

	collector.OutgoingOrderCounter.WithLabelValues("update").Inc()
	return h.session.Send(msg)
}

// CancelOrder sends a cancel request referencing the order's most recent
// client order ID.
func (h *OrderRoutingHandler) CancelOrder(order *model.Order) bool {
	origClOrdID := order.LatestBrokerID()
	if origClOrdID == "" {
		logs.Log.Error().Str("order", order.ID).Msg("cannot cancel order without a broker ID")
		return false
	}

	side, err := fixutil.Side(order.Direction)
	if err != nil {
		logs.Log.Error().Err(err).Str("order", order.ID).Msg("cannot cancel order")
		return false
	}

	msg := ordercancelrequest.New(
		field.NewOrigClOrdID(origClOrdID),
		field.NewClOrdID(NextOrderID()),
		field.NewSymbol(h.mapper.BrokerageSymbol(order.Symbol)),
		field.NewSide(side),
		field.NewTransactTime(time.Now().UTC()),
	)

	collector.OutgoingOrderCounter.WithLabelValues("cancel").Inc()
	return h.session.Send(msg)
}

// RequestOpenOrders asks the counterparty to replay the working orders as
// status-style execution reports.
func (h *OrderRoutingHandler) RequestOpenOrders() bool {
	msg := orderstatusrequest.New(
		field.NewClOrdID(NextOrderID()),
		field.NewSymbol("*"),
		field.NewSide(enum.Side_BUY),
	)

	collector.OutgoingOrderCounter.WithLabelValues("status").Inc()
	return h.session.Send(msg)
}

func (h *OrderRoutingHandler) setPrices(body *quickfix.Body, order *model.Order) bool {
	switch order.Type {
	case model.OrderTypeMarket, model.OrderTypeMarketOnClose:
	case model.OrderTypeLimit:
		body.Set(field.NewPrice(order.LimitPrice, priceScale))
	case model.OrderTypeStopMarket:
		body.Set(field.NewStopPx(order.StopPrice, priceScale))
	case model.OrderTypeStopLimit:
		body.Set(field.NewPrice(order.LimitPrice, priceScale))
		body.Set(field.NewStopPx(order.StopPrice, priceScale))
	default:
		logs.Log.Error().Str("order", order.ID).Str("type", order.Type.String()).Msg("unsupported order type")
		return false
	}
	return true
}

func (h *OrderRoutingHandler) setContractFields(msg newordersingle.NewOrderSingle, order *model.Order) bool {
	maturity, err := fixutil.MaturityMonthYear(order.Symbol)
	if err != nil {
		logs.Log.Error().Err(err).Str("order", order.ID).Msg("cannot place order")
		return false
	}

	msg.SetMaturityMonthYear(maturity)
	msg.SetMaturityDay(fixutil.MaturityDay(order.Symbol))
	if !order.Symbol.Multiplier.IsZero() {
		msg.SetContractMultiplier(order.Symbol.Multiplier, multiplierScale)
	}

	if order.Symbol.SecurityType == model.SecurityTypeOption {
		putOrCall := enum.PutOrCall_CALL
		if order.Symbol.Right == model.OptionRightPut {
			putOrCall = enum.PutOrCall_PUT
		}
		msg.SetPutOrCall(putOrCall)
		msg.SetStrikePrice(order.Symbol.Strike.Round(fixutil.StrikeDecimalPlaces), fixutil.StrikeDecimalPlaces)
	}
	return true
}

// orderExchange resolves the destination: an explicit per-order override
// wins, then the equity's primary listing, and anything unknown falls back
// to smart routing. A configured postfix is appended last.
func (h *OrderRoutingHandler) orderExchange(order *model.Order) string {
	exchange := order.Properties.Exchange
	if exchange == "" && order.Symbol.SecurityType == model.SecurityTypeEquity {
		exchange = order.Symbol.PrimaryExchange
	}

	destination, ok := exchangeDestinations[exchange]
	if !ok {
		destination = smartExchange
	}

	if order.Properties.ExchangePostfix != "" {
		destination += "." + order.Properties.ExchangePostfix
	}
	return destination
}

func (h *OrderRoutingHandler) onExecutionReport(msg executionreport.ExecutionReport, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	collector.ExecutionReportCounter.Inc()
	h.controller.Receive(msg)
	return nil
}

func (h *OrderRoutingHandler) onOrderCancelReject(msg ordercancelreject.OrderCancelReject, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	collector.CancelRejectCounter.Inc()
	h.controller.ReceiveCancelReject(msg)
	return nil
}
