package repositories

import (
	"fmt"

	"github.com/hashicorp/go-memdb"

	"fixgateway/internal/model"
)

const ordersTable = "orders"

var orderSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		ordersTable: {
			Name: ordersTable,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"broker_id": {
					Name:         "broker_id",
					AllowMissing: true,
					Indexer:      &memdb.StringSliceFieldIndex{Field: "BrokerIDs"},
				},
			},
		},
	},
}

// OrderRepository is the in-memory order book of record, indexed by order
// ID and by every client order ID ever sent for the order.
type OrderRepository struct {
	db *memdb.MemDB
}

func NewOrderRepository() (*OrderRepository, error) {
	db, err := memdb.NewMemDB(orderSchema)
	if err != nil {
		return nil, fmt.Errorf("creating order store: %w", err)
	}
	return &OrderRepository{db: db}, nil
}

// Save inserts or replaces the order. Call it again after mutating broker
// IDs so the index stays current.
func (r *OrderRepository) Save(order *model.Order) error {
	txn := r.db.Txn(true)
	if err := txn.Insert(ordersTable, order); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

func (r *OrderRepository) GetByID(id string) (*model.Order, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(ordersTable, "id", id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return raw.(*model.Order), nil
}

// GetByBrokerID finds the order a counterparty-facing client order ID
// belongs to.
func (r *OrderRepository) GetByBrokerID(brokerID string) (*model.Order, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(ordersTable, "broker_id", brokerID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return raw.(*model.Order), nil
}

func (r *OrderRepository) All() ([]*model.Order, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(ordersTable, "id")
	if err != nil {
		return nil, err
	}

	var orders []*model.Order
	for raw := it.Next(); raw != nil; raw = it.Next() {
		orders = append(orders, raw.(*model.Order))
	}
	return orders, nil
}

func (r *OrderRepository) Delete(order *model.Order) error {
	txn := r.db.Txn(true)
	if err := txn.Delete(ordersTable, order); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}
