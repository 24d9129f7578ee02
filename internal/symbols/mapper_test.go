package symbols

import (
	"testing"

	"github.com/quickfixgo/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixgateway/internal/model"
)

func TestSecurityTypeRoundTrip(t *testing.T) {
	mapper := NewMapper()

	for _, securityType := range []model.SecurityType{
		model.SecurityTypeEquity,
		model.SecurityTypeOption,
		model.SecurityTypeFuture,
	} {
		wire, err := mapper.BrokerageSecurityType(securityType)
		require.NoError(t, err)

		back, err := mapper.SecurityTypeFromWire(wire)
		require.NoError(t, err)
		assert.Equal(t, securityType, back)
	}
}

func TestUnsupportedSecurityType(t *testing.T) {
	mapper := NewMapper()

	_, err := mapper.BrokerageSecurityType(model.SecurityType(99))
	assert.Error(t, err)

	_, err = mapper.SecurityTypeFromWire(enum.SecurityType_WARRANT)
	assert.Error(t, err)
}

func TestBrokerageSymbol(t *testing.T) {
	mapper := NewMapper()

	assert.Equal(t, "AAPL", mapper.BrokerageSymbol(model.Symbol{
		Ticker:       "AAPL",
		SecurityType: model.SecurityTypeEquity,
	}))

	// Derivatives trade by root, the contract fields go in dedicated tags.
	assert.Equal(t, "AAPL", mapper.BrokerageSymbol(model.Symbol{
		Ticker:       "AAPL 261218P00123000",
		SecurityType: model.SecurityTypeOption,
		Underlying:   "AAPL",
	}))
}
