package fixutil

import (
	"fmt"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/fix42/executionreport"

	"fixgateway/internal/model"
)

// StrikeDecimalPlaces bounds the precision of option strike prices on the
// wire; counterparties reject strikes with more than three decimals.
const StrikeDecimalPlaces = 3

// Side maps an order direction to the FIX side.
func Side(d model.Direction) (enum.Side, error) {
	switch d {
	case model.DirectionBuy:
		return enum.Side_BUY, nil
	case model.DirectionSell:
		return enum.Side_SELL, nil
	default:
		return "", fmt.Errorf("unsupported order direction: %d", d)
	}
}

// TimeInForce maps an order's time in force to the FIX value. Market orders
// never rest, so good-til-canceled collapses to day.
func TimeInForce(tif model.TimeInForce, orderType model.OrderType) (enum.TimeInForce, error) {
	switch tif {
	case model.TimeInForceDay:
		return enum.TimeInForce_DAY, nil
	case model.TimeInForceGoodTilCanceled:
		if orderType == model.OrderTypeMarket || orderType == model.OrderTypeMarketOnClose {
			return enum.TimeInForce_DAY, nil
		}
		return enum.TimeInForce_GOOD_TILL_CANCEL, nil
	default:
		return "", fmt.Errorf("unsupported time in force: %d", tif)
	}
}

func TimeInForceFromWire(tif enum.TimeInForce) model.TimeInForce {
	if tif == enum.TimeInForce_GOOD_TILL_CANCEL {
		return model.TimeInForceGoodTilCanceled
	}
	return model.TimeInForceDay
}

// OrderType maps an order type to the FIX OrdType value.
func OrderType(t model.OrderType) (enum.OrdType, error) {
	switch t {
	case model.OrderTypeMarket:
		return enum.OrdType_MARKET, nil
	case model.OrderTypeLimit:
		return enum.OrdType_LIMIT, nil
	case model.OrderTypeStopMarket:
		return enum.OrdType_STOP, nil
	case model.OrderTypeStopLimit:
		return enum.OrdType_STOP_LIMIT, nil
	case model.OrderTypeMarketOnClose:
		return enum.OrdType_MARKET_ON_CLOSE, nil
	default:
		return "", fmt.Errorf("unsupported order type: %s", t)
	}
}

func OrderTypeFromWire(t enum.OrdType) (model.OrderType, error) {
	switch t {
	case enum.OrdType_MARKET:
		return model.OrderTypeMarket, nil
	case enum.OrdType_LIMIT:
		return model.OrderTypeLimit, nil
	case enum.OrdType_STOP:
		return model.OrderTypeStopMarket, nil
	case enum.OrdType_STOP_LIMIT:
		return model.OrderTypeStopLimit, nil
	case enum.OrdType_MARKET_ON_CLOSE:
		return model.OrderTypeMarketOnClose, nil
	default:
		return 0, fmt.Errorf("unsupported wire order type: %s", string(t))
	}
}

// OrderStatusFromExecution derives the order status from an execution
// report. Status-style reports carry the meaningful value in OrdStatus, so
// that value is substituted before mapping; the two tag domains share their
// character values for every status we handle.
func OrderStatusFromExecution(msg executionreport.ExecutionReport) model.OrderStatus {
	execType, err := msg.GetExecType()
	if err != nil {
		return model.OrderStatusInvalid
	}

	if execType == enum.ExecType_ORDER_STATUS {
		ordStatus, err := msg.GetOrdStatus()
		if err != nil {
			return model.OrderStatusInvalid
		}
		execType = enum.ExecType(ordStatus)
	}

	switch execType {
	case enum.ExecType_NEW:
		return model.OrderStatusSubmitted
	case enum.ExecType_PARTIAL_FILL:
		return model.OrderStatusPartiallyFilled
	case enum.ExecType_FILL:
		return model.OrderStatusFilled
	case enum.ExecType_CANCELED:
		return model.OrderStatusCanceled
	case enum.ExecType_REPLACED:
		return model.OrderStatusUpdateSubmitted
	case enum.ExecType_PENDING_CANCEL:
		return model.OrderStatusCancelPending
	case enum.ExecType_REJECTED:
		return model.OrderStatusInvalid
	case enum.ExecType_TRADE:
		cumQty, err := msg.GetCumQty()
		if err != nil {
			return model.OrderStatusInvalid
		}
		orderQty, err := msg.GetOrderQty()
		if err != nil {
			return model.OrderStatusInvalid
		}
		if cumQty.LessThan(orderQty) {
			return model.OrderStatusPartiallyFilled
		}
		return model.OrderStatusFilled
	default:
		return model.OrderStatusInvalid
	}
}

// MaturityMonthYear formats the contract expiry as YYYYMM for derivative
// orders.
func MaturityMonthYear(s model.Symbol) (string, error) {
	if s.SecurityType == model.SecurityTypeEquity {
		return "", fmt.Errorf("maturity requested for equity symbol %s", s.Ticker)
	}
	if s.Expiry.IsZero() {
		return "", fmt.Errorf("symbol %s has no expiry", s.Ticker)
	}
	return fmt.Sprintf("%04d%02d", s.Expiry.Year(), int(s.Expiry.Month())), nil
}

func MaturityDay(s model.Symbol) int {
	return s.Expiry.Day()
}
