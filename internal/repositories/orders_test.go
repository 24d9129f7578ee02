package repositories

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixgateway/internal/model"
)

func TestOrderRepository(t *testing.T) {
	repo, err := NewOrderRepository()
	require.NoError(t, err)

	order := &model.Order{
		ID:        "1",
		Symbol:    model.Symbol{Ticker: "AAPL", SecurityType: model.SecurityTypeEquity},
		Quantity:  decimal.NewFromInt(100),
		BrokerIDs: []string{"CL-1"},
	}
	require.NoError(t, repo.Save(order))

	got, err := repo.GetByID("1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "AAPL", got.Symbol.Ticker)

	got, err = repo.GetByBrokerID("CL-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "1", got.ID)

	got, err = repo.GetByBrokerID("CL-404")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrderRepositorySaveAgainIndexesNewBrokerIDs(t *testing.T) {
	repo, err := NewOrderRepository()
	require.NoError(t, err)

	order := &model.Order{ID: "1", BrokerIDs: []string{"CL-1"}}
	require.NoError(t, repo.Save(order))

	order.BrokerIDs = append(order.BrokerIDs, "CL-2")
	require.NoError(t, repo.Save(order))

	got, err := repo.GetByBrokerID("CL-2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "1", got.ID)
}

func TestOrderRepositoryAllAndDelete(t *testing.T) {
	repo, err := NewOrderRepository()
	require.NoError(t, err)

	first := &model.Order{ID: "1", BrokerIDs: []string{"CL-1"}}
	second := &model.Order{ID: "2", BrokerIDs: []string{"CL-2"}}
	require.NoError(t, repo.Save(first))
	require.NoError(t, repo.Save(second))

	all, err := repo.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.Delete(first))
	all, err = repo.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
