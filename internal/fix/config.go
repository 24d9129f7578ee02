package fix

import (
	"fmt"
	"strings"

	"github.com/quickfixgo/quickfix"
)

const (
	beginString = quickfix.BeginStringFIX42

	// MaxSenderSessionIDs bounds the rotating sender comp ID suffix before
	// it wraps back to the plain identity.
	MaxSenderSessionIDs = 15
)

// Config holds everything needed to connect to the counterparty. The
// order routing session is required; the market data session exists only
// when its comp IDs are set.
type Config struct {
	SenderCompID string
	TargetCompID string

	MarketDataSenderCompID string
	MarketDataTargetCompID string

	Host string
	Port int

	OnBehalfOfCompID   string
	Account            string
	DataDictionaryPath string
	HeartbeatInterval  int
	LogFixMessages     bool

	// senderSessionID tracks the rotation state. -1 means the plain
	// SenderCompID; 0..MaxSenderSessionIDs-1 select a "-N" suffix.
	senderSessionID int
}

func NewConfig() *Config {
	return &Config{HeartbeatInterval: 30, senderSessionID: -1}
}

// NextSenderCompID returns the sender comp ID for the next connection
// attempt. The first attempt uses the configured identity as-is; each
// retry appends a numeric suffix so a stuck prior session on the
// counterparty side cannot block the logon, wrapping after the limit.
func (c *Config) NextSenderCompID() string {
	id := c.senderCompID()

	c.senderSessionID++
	if c.senderSessionID >= MaxSenderSessionIDs {
		c.senderSessionID = -1
	}

	return id
}

// Reset rewinds the rotation so the next connection attempt starts from
// the plain sender comp ID again. Called after every successful logon.
func (c *Config) Reset() {
	c.senderSessionID = -1
}

func (c *Config) senderCompID() string {
	if c.senderSessionID < 0 {
		return c.SenderCompID
	}
	return fmt.Sprintf("%s-%d", c.SenderCompID, c.senderSessionID)
}

// MatchesOrderRouting reports whether a session belongs to the order
// routing stream, accounting for the rotation suffix.
func (c *Config) MatchesOrderRouting(sessionID quickfix.SessionID) bool {
	return senderMatches(c.SenderCompID, sessionID.SenderCompID) &&
		sessionID.TargetCompID == c.TargetCompID
}

// MatchesMarketData reports whether a session belongs to the market data
// stream.
func (c *Config) MatchesMarketData(sessionID quickfix.SessionID) bool {
	if c.MarketDataSenderCompID == "" {
		return false
	}
	return senderMatches(c.MarketDataSenderCompID, sessionID.SenderCompID) &&
		sessionID.TargetCompID == c.MarketDataTargetCompID
}

func senderMatches(configured, actual string) bool {
	return actual == configured || strings.HasPrefix(actual, configured+"-")
}

// SessionSettings renders the quickfix configuration for the next
// connection attempt and parses it. Rotation advances on every call, so
// each attempt presents a fresh sender identity.
func (c *Config) SessionSettings() (*quickfix.Settings, error) {
	idx := c.senderSessionID
	sender := c.NextSenderCompID()
	mdSender := c.MarketDataSenderCompID
	if mdSender != "" && idx >= 0 {
		mdSender = fmt.Sprintf("%s-%d", c.MarketDataSenderCompID, idx)
	}

	heartbeat := c.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 30
	}

	var b strings.Builder
	b.WriteString("[DEFAULT]\n")
	b.WriteString("ConnectionType=initiator\n")
	b.WriteString("ReconnectInterval=30\n")
	b.WriteString("LogonTimeout=15\n")
	fmt.Fprintf(&b, "HeartBtInt=%d\n", heartbeat)
	b.WriteString("StartTime=00:00:00\n")
	b.WriteString("EndTime=00:00:00\n")
	fmt.Fprintf(&b, "SocketConnectHost=%s\n", c.Host)
	fmt.Fprintf(&b, "SocketConnectPort=%d\n", c.Port)
	if c.DataDictionaryPath != "" {
		b.WriteString("UseDataDictionary=Y\n")
		fmt.Fprintf(&b, "DataDictionary=%s\n", c.DataDictionaryPath)
	} else {
		b.WriteString("UseDataDictionary=N\n")
	}

	b.WriteString("\n[SESSION]\n")
	fmt.Fprintf(&b, "BeginString=%s\n", beginString)
	fmt.Fprintf(&b, "SenderCompID=%s\n", sender)
	fmt.Fprintf(&b, "TargetCompID=%s\n", c.TargetCompID)

	if c.MarketDataSenderCompID != "" {
		b.WriteString("\n[SESSION]\n")
		fmt.Fprintf(&b, "BeginString=%s\n", beginString)
		fmt.Fprintf(&b, "SenderCompID=%s\n", mdSender)
		fmt.Fprintf(&b, "TargetCompID=%s\n", c.MarketDataTargetCompID)
	}

	return quickfix.ParseSettings(strings.NewReader(b.String()))
}
