package symbols

import (
	"fmt"

	"github.com/quickfixgo/enum"

	"fixgateway/internal/model"
)

// Mapper translates between internal symbols and the representation the
// counterparty expects on the wire.
type Mapper struct {
	toFix   map[model.SecurityType]enum.SecurityType
	fromFix map[enum.SecurityType]model.SecurityType
}

func NewMapper() *Mapper {
	m := &Mapper{
		toFix: map[model.SecurityType]enum.SecurityType{
			model.SecurityTypeEquity: enum.SecurityType_COMMON_STOCK,
			model.SecurityTypeOption: enum.SecurityType_OPTION,
			model.SecurityTypeFuture: enum.SecurityType_FUTURE,
		},
		fromFix: make(map[enum.SecurityType]model.SecurityType),
	}
	for k, v := range m.toFix {
		m.fromFix[v] = k
	}
	return m
}

// BrokerageSymbol returns the wire ticker for a symbol. Option and future
// tickers carry the root, the contract fields travel in dedicated tags.
func (m *Mapper) BrokerageSymbol(s model.Symbol) string {
	if s.SecurityType != model.SecurityTypeEquity && s.Underlying != "" {
		return s.Underlying
	}
	return s.Ticker
}

func (m *Mapper) BrokerageSecurityType(t model.SecurityType) (enum.SecurityType, error) {
	v, ok := m.toFix[t]
	if !ok {
		return "", fmt.Errorf("unsupported security type: %s", t)
	}
	return v, nil
}

func (m *Mapper) SecurityTypeFromWire(t enum.SecurityType) (model.SecurityType, error) {
	v, ok := m.fromFix[t]
	if !ok {
		return 0, fmt.Errorf("unsupported wire security type: %s", string(t))
	}
	return v, nil
}
