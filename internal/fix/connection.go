package fix

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quickfixgo/quickfix"

	"fixgateway/internal/fix/protocol"
	"fixgateway/internal/model"
	"fixgateway/pkg/collector"
	"fixgateway/pkg/logs"
)

const (
	logonTimeout    = 60 * time.Second
	logonPollPeriod = time.Second
	monitorPeriod   = time.Minute
	maxReconnects   = 5
)

type initiatorHandle interface {
	Start() error
	Stop()
}

// Connection owns one quickfix initiator and its sessions. It implements
// the engine's application callbacks, delegating protocol decisions to the
// director, and keeps the connection alive with a background monitor that
// rotates the sender identity on every reconnect attempt.
type Connection struct {
	config   *Config
	director protocol.Director

	mu        sync.Mutex
	sessions  map[quickfix.SessionID]bool
	initiator initiatorHandle
	started   bool
	disposed  bool

	errorListener func(model.FixError)

	cancelMonitor context.CancelFunc
	monitorDone   chan struct{}
}

func NewConnection(config *Config, director protocol.Director) *Connection {
	return &Connection{
		config:   config,
		director: director,
		sessions: make(map[quickfix.SessionID]bool),
	}
}

// SetErrorListener installs the callback invoked when reconnection gives
// up for good.
func (c *Connection) SetErrorListener(fn func(model.FixError)) {
	c.errorListener = fn
}

// OnCreate registers the session so wrappers can be constructed for it.
func (c *Connection) OnCreate(sessionID quickfix.SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[sessionID]; !ok {
		c.sessions[sessionID] = false
	}
}

func (c *Connection) OnLogon(sessionID quickfix.SessionID) {
	c.mu.Lock()
	c.sessions[sessionID] = true
	c.mu.Unlock()

	c.director.OnLogon(sessionID)
}

func (c *Connection) OnLogout(sessionID quickfix.SessionID) {
	c.mu.Lock()
	c.sessions[sessionID] = false
	c.mu.Unlock()

	c.director.OnLogout(sessionID)
}

func (c *Connection) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {
	c.director.EnrichOutbound(msg)
}

func (c *Connection) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return nil
}

func (c *Connection) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	c.director.HandleAdminMessage(msg, sessionID)
	return nil
}

func (c *Connection) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	c.director.Handle(msg, sessionID)
	return nil
}

// IsKnownSession reports whether the engine ever created the session.
func (c *Connection) IsKnownSession(sessionID quickfix.SessionID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sessions[sessionID]
	return ok
}

// IsLoggedOn reports whether the session is currently logged on.
func (c *Connection) IsLoggedOn(sessionID quickfix.SessionID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[sessionID]
}

// Initialize connects, waits for every session to become ready, and starts
// the connection monitor. It fails when readiness does not arrive within
// the logon timeout.
func (c *Connection) Initialize() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return fmt.Errorf("connection is disposed")
	}
	c.mu.Unlock()

	if err := c.start(); err != nil {
		return err
	}

	if !c.waitUntilReady(logonTimeout) {
		c.stop()
		return fmt.Errorf("timed out waiting for FIX sessions to become ready")
	}

	// The identity rotation restarts from the plain comp ID once a logon
	// succeeds.
	c.config.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelMonitor = cancel
	c.monitorDone = make(chan struct{})
	go c.monitor(ctx)

	logs.Log.Info().Msg("FIX connection established")
	return nil
}

func (c *Connection) start() error {
	settings, err := c.config.SessionSettings()
	if err != nil {
		return fmt.Errorf("building session settings: %w", err)
	}

	initiator, err := quickfix.NewInitiator(c, quickfix.NewMemoryStoreFactory(), settings, NewLogFactory(c.config.LogFixMessages))
	if err != nil {
		return fmt.Errorf("creating initiator: %w", err)
	}

	if err := initiator.Start(); err != nil {
		return fmt.Errorf("starting initiator: %w", err)
	}

	c.mu.Lock()
	c.initiator = initiator
	c.started = true
	c.mu.Unlock()
	return nil
}

func (c *Connection) stop() {
	c.mu.Lock()
	initiator := c.initiator
	running := c.started
	c.initiator = nil
	c.started = false
	c.sessions = make(map[quickfix.SessionID]bool)
	c.mu.Unlock()

	if running && initiator != nil {
		initiator.Stop()
	}
}

func (c *Connection) waitUntilReady(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.IsReady() {
			return true
		}
		time.Sleep(logonPollPeriod)
	}
	return c.IsReady()
}

// IsReady reports whether every session is logged on and recovered.
func (c *Connection) IsReady() bool {
	return c.allLoggedOn() && c.director.AreSessionsReady()
}

func (c *Connection) allLoggedOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.sessions) == 0 {
		return false
	}
	for _, loggedOn := range c.sessions {
		if !loggedOn {
			return false
		}
	}
	return true
}

// monitor watches session health and reconnects with a rotated sender
// identity. After the retry budget is exhausted the failure is surfaced to
// the error listener.
func (c *Connection) monitor(ctx context.Context) {
	defer close(c.monitorDone)

	ticker := time.NewTicker(monitorPeriod)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if c.IsReady() {
			failures = 0
			continue
		}

		logs.Log.Warn().Int("attempt", failures+1).Msg("FIX sessions are down, reconnecting")
		c.stop()

		if err := c.start(); err != nil {
			logs.Log.Error().Err(err).Msg("reconnect failed")
		} else if c.waitUntilReady(logonTimeout) {
			c.config.Reset()
			failures = 0
			logs.Log.Info().Msg("FIX connection re-established")
			continue
		}

		failures++
		if failures >= maxReconnects {
			collector.SessionErrorCounter.Inc()
			if c.errorListener != nil {
				c.errorListener(model.FixError{Message: "failed to re-establish FIX sessions"})
			}
			return
		}
	}
}

// Terminate stops the monitor and the initiator. Safe to call repeatedly.
func (c *Connection) Terminate() {
	if c.cancelMonitor != nil {
		c.cancelMonitor()
		<-c.monitorDone
		c.cancelMonitor = nil
	}
	c.stop()
}

// Close terminates the connection and marks it unusable.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	c.mu.Unlock()

	c.Terminate()
	return nil
}
