package fix

import (
	"testing"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix42/news"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixgateway/internal/fix/core"
	"fixgateway/internal/symbols"
)

type fakeRegistry struct {
	known    map[quickfix.SessionID]bool
	loggedOn map[quickfix.SessionID]bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		known:    make(map[quickfix.SessionID]bool),
		loggedOn: make(map[quickfix.SessionID]bool),
	}
}

func (r *fakeRegistry) IsKnownSession(sessionID quickfix.SessionID) bool { return r.known[sessionID] }
func (r *fakeRegistry) IsLoggedOn(sessionID quickfix.SessionID) bool     { return r.loggedOn[sessionID] }

func (r *fakeRegistry) add(sessionID quickfix.SessionID, loggedOn bool) {
	r.known[sessionID] = true
	r.loggedOn[sessionID] = loggedOn
}

func orderRoutingSessionID() quickfix.SessionID {
	return quickfix.SessionID{BeginString: "FIX.4.2", SenderCompID: "CLIENT", TargetCompID: "BROKER"}
}

func marketDataSessionID() quickfix.SessionID {
	return quickfix.SessionID{BeginString: "FIX.4.2", SenderCompID: "CLIENT-MD", TargetCompID: "BROKER-MD"}
}

func newTestDirector() (*Director, *fakeRegistry) {
	config := testConfig()
	config.MarketDataSenderCompID = "CLIENT-MD"
	config.MarketDataTargetCompID = "BROKER-MD"
	config.OnBehalfOfCompID = "ONBEHALF"

	mapper := symbols.NewMapper()
	registry := newFakeRegistry()
	director := NewDirector(config, mapper, core.NewBrokerageController(mapper), core.NewMarketDataController())
	director.BindRegistry(registry)
	return director, registry
}

func logoutMessage(text string) *quickfix.Message {
	msg := quickfix.NewMessage()
	msg.Header.Set(field.NewMsgType(enum.MsgType_LOGOUT))
	if text != "" {
		msg.Body.Set(field.NewText(text))
	}
	return msg
}

func logonMessage() *quickfix.Message {
	msg := quickfix.NewMessage()
	msg.Header.Set(field.NewMsgType(enum.MsgType_LOGON))
	return msg
}

func TestAreSessionsReadyFalseWithoutSessions(t *testing.T) {
	director, _ := newTestDirector()
	assert.False(t, director.AreSessionsReady())
}

func TestOnLogonCreatesHandlerVariants(t *testing.T) {
	director, registry := newTestDirector()

	ordSession := orderRoutingSessionID()
	registry.add(ordSession, true)
	director.OnLogon(ordSession)

	// Order routing needs no recovery phase.
	assert.True(t, director.AreSessionsReady())

	mdSession := marketDataSessionID()
	registry.add(mdSession, true)
	director.OnLogon(mdSession)
	assert.Equal(t, 2, director.SessionCount())

	// The market data session gates readiness until recovery completes.
	assert.False(t, director.AreSessionsReady())

	recovery := news.New(field.NewHeadline("Recovery Complete"))
	director.Handle(recovery.ToMessage(), mdSession)
	assert.True(t, director.AreSessionsReady())
}

func TestOnLogonWithRotatedSenderCompID(t *testing.T) {
	director, registry := newTestDirector()

	sessionID := quickfix.SessionID{BeginString: "FIX.4.2", SenderCompID: "CLIENT-3", TargetCompID: "BROKER"}
	registry.add(sessionID, true)
	director.OnLogon(sessionID)

	assert.Equal(t, 1, director.SessionCount())
	assert.True(t, director.AreSessionsReady())
}

func TestOnLogonUnknownCompIDPair(t *testing.T) {
	director, registry := newTestDirector()

	sessionID := quickfix.SessionID{BeginString: "FIX.4.2", SenderCompID: "STRANGER", TargetCompID: "NOBODY"}
	registry.add(sessionID, true)
	director.OnLogon(sessionID)

	assert.Equal(t, 0, director.SessionCount())
	assert.False(t, director.AreSessionsReady())
}

func TestReadinessRequiresLoggedOnTransport(t *testing.T) {
	director, registry := newTestDirector()

	sessionID := orderRoutingSessionID()
	registry.add(sessionID, true)
	director.OnLogon(sessionID)
	require.True(t, director.AreSessionsReady())

	registry.loggedOn[sessionID] = false
	assert.False(t, director.AreSessionsReady())
}

func TestOnLogoutRemovesHandler(t *testing.T) {
	director, registry := newTestDirector()

	sessionID := orderRoutingSessionID()
	registry.add(sessionID, true)
	director.OnLogon(sessionID)
	require.Equal(t, 1, director.SessionCount())

	director.OnLogout(sessionID)
	assert.Equal(t, 0, director.SessionCount())
	assert.False(t, director.AreSessionsReady())

	// A second logon must be able to register a fresh handler.
	director.OnLogon(sessionID)
	assert.Equal(t, 1, director.SessionCount())
}

func TestHandleDropsMessagesForUnknownSession(t *testing.T) {
	director, _ := newTestDirector()

	recovery := news.New(field.NewHeadline("Recovery Complete"))
	director.Handle(recovery.ToMessage(), orderRoutingSessionID())
	assert.False(t, director.AreSessionsReady())
}

func TestSequenceHintArmsResetOnNextLogon(t *testing.T) {
	director, _ := newTestDirector()
	sessionID := orderRoutingSessionID()

	director.HandleAdminMessage(logoutMessage("MsgSeqNum too low, expected 105 but received 3"), sessionID)

	logon := logonMessage()
	director.EnrichOutbound(logon)

	flag, err := logon.Body.GetString(tag.ResetSeqNumFlag)
	require.NoError(t, err)
	assert.Equal(t, "Y", flag)
}

func TestLogoutWithoutHintDoesNotArmReset(t *testing.T) {
	director, _ := newTestDirector()

	director.HandleAdminMessage(logoutMessage("normal logout"), orderRoutingSessionID())

	logon := logonMessage()
	director.EnrichOutbound(logon)
	assert.False(t, logon.Body.Has(tag.ResetSeqNumFlag))
}

func TestSuccessfulLogonClearsPendingReset(t *testing.T) {
	director, registry := newTestDirector()
	sessionID := orderRoutingSessionID()

	director.HandleAdminMessage(logoutMessage("expected 42"), sessionID)

	registry.add(sessionID, true)
	director.OnLogon(sessionID)

	logon := logonMessage()
	director.EnrichOutbound(logon)
	assert.False(t, logon.Body.Has(tag.ResetSeqNumFlag))
}

func TestEnrichOutboundLogonFields(t *testing.T) {
	director, _ := newTestDirector()

	logon := logonMessage()
	director.EnrichOutbound(logon)

	encryptMethod, err := logon.Body.GetString(tag.EncryptMethod)
	require.NoError(t, err)
	assert.Equal(t, "0", encryptMethod)

	onBehalfOf, err := logon.Header.GetString(tag.OnBehalfOfCompID)
	require.NoError(t, err)
	assert.Equal(t, "ONBEHALF", onBehalfOf)
}

func TestEnrichOutboundIgnoresNonLogon(t *testing.T) {
	director, _ := newTestDirector()

	msg := logoutMessage("")
	director.EnrichOutbound(msg)
	assert.False(t, msg.Body.Has(tag.EncryptMethod))
}

func TestParseExpectedSeqNum(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"MsgSeqNum too low, expected 105 but received 3", 105},
		{"expected 1", 1},
		{"Expected 7", 0},
		{"no hint here", 0},
		{"", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseExpectedSeqNum(tt.text), tt.text)
	}
}

func TestSetSequenceHintParser(t *testing.T) {
	director, _ := newTestDirector()
	director.SetSequenceHintParser(func(text string) int {
		if text == "gap" {
			return 9
		}
		return 0
	})

	director.HandleAdminMessage(logoutMessage("gap"), orderRoutingSessionID())

	logon := logonMessage()
	director.EnrichOutbound(logon)
	assert.True(t, logon.Body.Has(tag.ResetSeqNumFlag))
}
