package fix

import (
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"

	"fixgateway/internal/fix/core"
	"fixgateway/internal/fix/protocol"
	"fixgateway/internal/symbols"
	"fixgateway/pkg/collector"
	"fixgateway/pkg/logs"
)

// SequenceHintParser extracts the sequence number the counterparty expects
// from a logout text, returning 0 when the text carries no hint.
type SequenceHintParser func(text string) int

var expectedSeqNumPattern = regexp.MustCompile(`expected\s+([0-9]+)`)

// ParseExpectedSeqNum is the default hint parser. Counterparties phrase
// sequence gap logouts as "... expected <N> ...".
func ParseExpectedSeqNum(text string) int {
	match := expectedSeqNumPattern.FindStringSubmatch(text)
	if match == nil {
		return 0
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return n
}

// Director creates a session handler per logged-on session and dispatches
// every inbound message to the handler owning its session. It also carries
// the sequence recovery state: when a logout names the expected sequence
// number, the next logon requests a sequence reset so both sides realign.
type Director struct {
	config     *Config
	mapper     *symbols.Mapper
	registry   core.SessionRegistry
	brokerage  *core.BrokerageController
	marketData *core.MarketDataController

	hintParser SequenceHintParser

	mu       sync.RWMutex
	handlers map[quickfix.SessionID]protocol.SessionHandler

	pendingReset atomic.Bool
}

func NewDirector(config *Config, mapper *symbols.Mapper, brokerage *core.BrokerageController, marketData *core.MarketDataController) *Director {
	return &Director{
		config:     config,
		mapper:     mapper,
		brokerage:  brokerage,
		marketData: marketData,
		hintParser: ParseExpectedSeqNum,
		handlers:   make(map[quickfix.SessionID]protocol.SessionHandler),
	}
}

// BindRegistry attaches the session registry. The registry is the
// connection, which in turn needs the director, so it is bound after both
// exist and before the connection starts.
func (d *Director) BindRegistry(registry core.SessionRegistry) {
	d.registry = registry
}

// SetSequenceHintParser replaces the logout text parser. Exists for
// counterparties that phrase the hint differently.
func (d *Director) SetSequenceHintParser(parser SequenceHintParser) {
	d.hintParser = parser
}

// AreSessionsReady reports whether every live session has completed its
// post-logon recovery. No sessions means not ready.
func (d *Director) AreSessionsReady() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.handlers) == 0 {
		return false
	}
	for sessionID, handler := range d.handlers {
		if !d.registry.IsLoggedOn(sessionID) || !handler.IsReady() {
			return false
		}
	}
	return true
}

// OnLogon builds the handler variant for the session's comp ID pair. An
// unknown pair is logged and left without a handler; its messages will be
// dropped.
func (d *Director) OnLogon(sessionID quickfix.SessionID) {
	session, err := core.NewQuickFixSession(d.registry, sessionID)
	if err != nil {
		logs.Log.Error().Err(err).Str("session", sessionID.String()).Msg("logon for an unknown session")
		return
	}

	var handler protocol.SessionHandler
	switch {
	case d.config.MatchesOrderRouting(sessionID):
		handler = NewOrderRoutingHandler(session, d.brokerage, d.mapper, d.config.Account)
	case d.config.MatchesMarketData(sessionID):
		handler = NewMarketDataHandler(session, d.marketData, d.mapper)
	default:
		logs.Log.Error().Str("session", sessionID.String()).Msg("logon for an unrecognized comp ID pair")
		return
	}

	d.mu.Lock()
	d.handlers[sessionID] = handler
	d.mu.Unlock()

	// A successful logon means any pending sequence realignment happened.
	d.pendingReset.Store(false)

	logs.Log.Info().Str("session", sessionID.String()).Msg("session logged on")
}

// OnLogout tears down the session's handler and releases its controller
// registration.
func (d *Director) OnLogout(sessionID quickfix.SessionID) {
	d.mu.Lock()
	handler, ok := d.handlers[sessionID]
	delete(d.handlers, sessionID)
	d.mu.Unlock()

	if !ok {
		return
	}

	switch h := handler.(type) {
	case *OrderRoutingHandler:
		d.brokerage.Unregister(h)
	case *MarketDataHandler:
		d.marketData.Unregister(h)
	}

	logs.Log.Info().Str("session", sessionID.String()).Msg("session logged out")
}

// Handle dispatches an application-level message to the session's handler.
// Messages for sessions without a handler are dropped, and a failing
// handler never takes the session down with it.
func (d *Director) Handle(msg *quickfix.Message, sessionID quickfix.SessionID) {
	msgType, _ := msg.Header.GetString(tag.MsgType)
	collector.IncomingAppCounter.WithLabelValues(msgType).Inc()

	d.mu.RLock()
	handler, ok := d.handlers[sessionID]
	d.mu.RUnlock()

	if !ok {
		collector.DroppedMessageCounter.Inc()
		logs.Log.Warn().Str("session", sessionID.String()).Str("msgType", msgType).Msg("dropping message for a session without a handler")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logs.Log.Error().Interface("panic", r).Str("session", sessionID.String()).Str("msgType", msgType).Msg("message handler panicked")
		}
	}()

	if err := handler.Crack(msg, sessionID); err != nil {
		logs.Log.Error().Err(err).Str("session", sessionID.String()).Str("msgType", msgType).Msg("failed to handle message")
	}
}

// HandleAdminMessage observes inbound admin traffic. A logout carrying the
// counterparty's expected sequence number arms a sequence reset for the
// next logon attempt.
func (d *Director) HandleAdminMessage(msg *quickfix.Message, sessionID quickfix.SessionID) {
	msgType, _ := msg.Header.GetString(tag.MsgType)
	collector.IncomingAdminCounter.WithLabelValues(msgType).Inc()

	switch enum.MsgType(msgType) {
	case enum.MsgType_HEARTBEAT:
		logs.Log.Trace().Str("session", sessionID.String()).Msg("heartbeat")
	case enum.MsgType_LOGOUT:
		text, err := msg.Body.GetString(tag.Text)
		if err != nil {
			return
		}
		if expected := d.hintParser(text); expected > 0 {
			d.pendingReset.Store(true)
			logs.Log.Warn().
				Str("session", sessionID.String()).
				Int("expectedSeqNum", expected).
				Msg("logout carried a sequence number hint, next logon will reset sequence numbers")
		}
	}
}

// EnrichOutbound decorates outgoing logons with the fields the
// counterparty requires, and requests a sequence reset when the previous
// logout reported a gap. The reset happens here and nowhere else.
func (d *Director) EnrichOutbound(msg *quickfix.Message) {
	msgType, err := msg.Header.GetString(tag.MsgType)
	if err != nil || enum.MsgType(msgType) != enum.MsgType_LOGON {
		return
	}

	msg.Body.Set(field.NewEncryptMethod(enum.EncryptMethod_NONE_OTHER))
	if d.config.OnBehalfOfCompID != "" {
		msg.Header.Set(field.NewOnBehalfOfCompID(d.config.OnBehalfOfCompID))
	}

	if d.pendingReset.Load() {
		msg.Body.Set(field.NewResetSeqNumFlag(true))
		logs.Log.Warn().Msg("requesting sequence number reset on logon")
	}
}

// SessionCount returns the number of live handlers. Used by the ops
// endpoints.
func (d *Director) SessionCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers)
}
