package fix

import (
	"context"
	"testing"

	"github.com/quickfixgo/quickfix"
	"github.com/stretchr/testify/assert"
)

type fakeInitiator struct {
	stops int
}

func (f *fakeInitiator) Start() error { return nil }
func (f *fakeInitiator) Stop()        { f.stops++ }

func newTestConnection() *Connection {
	director, _ := newTestDirector()
	return NewConnection(testConfig(), director)
}

func TestTerminateBeforeInitialize(t *testing.T) {
	connection := newTestConnection()

	connection.Terminate()
	connection.Terminate()

	assert.False(t, connection.started)
	assert.Nil(t, connection.initiator)
}

func TestTerminateTwiceStopsInitiatorOnce(t *testing.T) {
	connection := newTestConnection()

	initiator := &fakeInitiator{}
	connection.initiator = initiator
	connection.started = true
	connection.OnCreate(orderRoutingSessionID())

	ctx, cancel := context.WithCancel(context.Background())
	connection.cancelMonitor = cancel
	connection.monitorDone = make(chan struct{})
	go func() {
		<-ctx.Done()
		close(connection.monitorDone)
	}()

	connection.Terminate()
	connection.Terminate()

	assert.Equal(t, 1, initiator.stops)
	assert.False(t, connection.started)
	assert.Nil(t, connection.initiator)
	assert.False(t, connection.IsKnownSession(orderRoutingSessionID()))
}

func TestInitializeAfterCloseFails(t *testing.T) {
	connection := newTestConnection()

	assert.NoError(t, connection.Close())
	assert.NoError(t, connection.Close())

	err := connection.Initialize()
	assert.Error(t, err)
}

var _ quickfix.Application = (*Connection)(nil)
