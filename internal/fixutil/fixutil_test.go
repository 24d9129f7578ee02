package fixutil

import (
	"testing"
	"time"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix42/executionreport"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixgateway/internal/model"
)

func newExecutionReport(execType enum.ExecType, ordStatus enum.OrdStatus) executionreport.ExecutionReport {
	return executionreport.New(
		field.NewOrderID("ORD-1"),
		field.NewExecID("EXEC-1"),
		field.NewExecTransType(enum.ExecTransType_NEW),
		field.NewExecType(execType),
		field.NewOrdStatus(ordStatus),
		field.NewSymbol("AAPL"),
		field.NewSide(enum.Side_BUY),
		field.NewLeavesQty(decimal.Zero, 0),
		field.NewCumQty(decimal.Zero, 0),
		field.NewAvgPx(decimal.Zero, 0),
	)
}

func TestSide(t *testing.T) {
	side, err := Side(model.DirectionBuy)
	require.NoError(t, err)
	assert.Equal(t, enum.Side_BUY, side)

	side, err = Side(model.DirectionSell)
	require.NoError(t, err)
	assert.Equal(t, enum.Side_SELL, side)

	_, err = Side(model.Direction(99))
	assert.Error(t, err)
}

func TestTimeInForce(t *testing.T) {
	tests := []struct {
		name      string
		tif       model.TimeInForce
		orderType model.OrderType
		want      enum.TimeInForce
	}{
		{"day limit", model.TimeInForceDay, model.OrderTypeLimit, enum.TimeInForce_DAY},
		{"gtc limit", model.TimeInForceGoodTilCanceled, model.OrderTypeLimit, enum.TimeInForce_GOOD_TILL_CANCEL},
		{"gtc market collapses to day", model.TimeInForceGoodTilCanceled, model.OrderTypeMarket, enum.TimeInForce_DAY},
		{"gtc market on close collapses to day", model.TimeInForceGoodTilCanceled, model.OrderTypeMarketOnClose, enum.TimeInForce_DAY},
		{"gtc stop limit", model.TimeInForceGoodTilCanceled, model.OrderTypeStopLimit, enum.TimeInForce_GOOD_TILL_CANCEL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TimeInForce(tt.tif, tt.orderType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderTypeRoundTrip(t *testing.T) {
	for _, orderType := range []model.OrderType{
		model.OrderTypeMarket,
		model.OrderTypeLimit,
		model.OrderTypeStopMarket,
		model.OrderTypeStopLimit,
		model.OrderTypeMarketOnClose,
	} {
		wire, err := OrderType(orderType)
		require.NoError(t, err)

		back, err := OrderTypeFromWire(wire)
		require.NoError(t, err)
		assert.Equal(t, orderType, back)
	}

	_, err := OrderType(model.OrderType(99))
	assert.Error(t, err)
}

func TestOrderStatusFromExecution(t *testing.T) {
	tests := []struct {
		name     string
		execType enum.ExecType
		want     model.OrderStatus
	}{
		{"new", enum.ExecType_NEW, model.OrderStatusSubmitted},
		{"partial fill", enum.ExecType_PARTIAL_FILL, model.OrderStatusPartiallyFilled},
		{"fill", enum.ExecType_FILL, model.OrderStatusFilled},
		{"canceled", enum.ExecType_CANCELED, model.OrderStatusCanceled},
		{"replace", enum.ExecType_REPLACED, model.OrderStatusUpdateSubmitted},
		{"pending cancel", enum.ExecType_PENDING_CANCEL, model.OrderStatusCancelPending},
		{"rejected", enum.ExecType_REJECTED, model.OrderStatusInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := newExecutionReport(tt.execType, enum.OrdStatus_NEW)
			assert.Equal(t, tt.want, OrderStatusFromExecution(msg))
		})
	}
}

func TestOrderStatusFromExecutionTrade(t *testing.T) {
	msg := newExecutionReport(enum.ExecType_TRADE, enum.OrdStatus_PARTIALLY_FILLED)
	msg.SetOrderQty(decimal.NewFromInt(100), 0)
	msg.SetCumQty(decimal.NewFromInt(40), 0)
	assert.Equal(t, model.OrderStatusPartiallyFilled, OrderStatusFromExecution(msg))

	msg.SetCumQty(decimal.NewFromInt(100), 0)
	assert.Equal(t, model.OrderStatusFilled, OrderStatusFromExecution(msg))
}

func TestOrderStatusFromExecutionOrderStatusSubstitutesOrdStatus(t *testing.T) {
	msg := newExecutionReport(enum.ExecType_ORDER_STATUS, enum.OrdStatus_PARTIALLY_FILLED)
	assert.Equal(t, model.OrderStatusPartiallyFilled, OrderStatusFromExecution(msg))

	msg = newExecutionReport(enum.ExecType_ORDER_STATUS, enum.OrdStatus_CANCELED)
	assert.Equal(t, model.OrderStatusCanceled, OrderStatusFromExecution(msg))
}

func TestMaturityMonthYear(t *testing.T) {
	symbol := model.Symbol{
		Ticker:       "AAPL 261218P00123000",
		SecurityType: model.SecurityTypeOption,
		Underlying:   "AAPL",
		Expiry:       time.Date(2026, time.December, 18, 0, 0, 0, 0, time.UTC),
	}

	maturity, err := MaturityMonthYear(symbol)
	require.NoError(t, err)
	assert.Equal(t, "202612", maturity)
	assert.Equal(t, 18, MaturityDay(symbol))

	_, err = MaturityMonthYear(model.Symbol{Ticker: "AAPL", SecurityType: model.SecurityTypeEquity})
	assert.Error(t, err)

	_, err = MaturityMonthYear(model.Symbol{Ticker: "ES", SecurityType: model.SecurityTypeFuture})
	assert.Error(t, err)
}
