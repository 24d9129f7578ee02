package fix

import (
	"fmt"
	"testing"

	"github.com/quickfixgo/quickfix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	config := NewConfig()
	config.SenderCompID = "CLIENT"
	config.TargetCompID = "BROKER"
	config.Host = "127.0.0.1"
	config.Port = 5001
	return config
}

func TestNextSenderCompIDRotation(t *testing.T) {
	config := testConfig()

	assert.Equal(t, "CLIENT", config.NextSenderCompID())
	for i := 0; i < MaxSenderSessionIDs; i++ {
		assert.Equal(t, fmt.Sprintf("CLIENT-%d", i), config.NextSenderCompID())
	}

	// Past the limit the rotation wraps back to the plain identity.
	assert.Equal(t, "CLIENT", config.NextSenderCompID())
	assert.Equal(t, "CLIENT-0", config.NextSenderCompID())
}

func TestReset(t *testing.T) {
	config := testConfig()
	config.NextSenderCompID()
	config.NextSenderCompID()

	config.Reset()
	assert.Equal(t, "CLIENT", config.NextSenderCompID())
}

func TestMatchesOrderRouting(t *testing.T) {
	config := testConfig()

	tests := []struct {
		sender string
		target string
		want   bool
	}{
		{"CLIENT", "BROKER", true},
		{"CLIENT-0", "BROKER", true},
		{"CLIENT-14", "BROKER", true},
		{"CLIENTX", "BROKER", false},
		{"CLIENT", "OTHER", false},
		{"OTHER", "BROKER", false},
	}

	for _, tt := range tests {
		sessionID := quickfix.SessionID{
			BeginString:  "FIX.4.2",
			SenderCompID: tt.sender,
			TargetCompID: tt.target,
		}
		assert.Equal(t, tt.want, config.MatchesOrderRouting(sessionID), "%s->%s", tt.sender, tt.target)
	}
}

func TestMatchesMarketData(t *testing.T) {
	config := testConfig()
	assert.False(t, config.MatchesMarketData(quickfix.SessionID{SenderCompID: "CLIENT", TargetCompID: "BROKER"}))

	config.MarketDataSenderCompID = "CLIENT-MD"
	config.MarketDataTargetCompID = "BROKER-MD"
	assert.True(t, config.MatchesMarketData(quickfix.SessionID{SenderCompID: "CLIENT-MD", TargetCompID: "BROKER-MD"}))
	assert.False(t, config.MatchesMarketData(quickfix.SessionID{SenderCompID: "CLIENT-MD", TargetCompID: "BROKER"}))
}

func TestSessionSettings(t *testing.T) {
	config := testConfig()
	config.MarketDataSenderCompID = "CLIENT-MD"
	config.MarketDataTargetCompID = "BROKER-MD"

	settings, err := config.SessionSettings()
	require.NoError(t, err)
	assert.Len(t, settings.SessionSettings(), 2)

	// The next render rotates the sender identity.
	settings, err = config.SessionSettings()
	require.NoError(t, err)

	found := false
	for sessionID := range settings.SessionSettings() {
		if sessionID.SenderCompID == "CLIENT-0" {
			found = true
		}
	}
	assert.True(t, found, "expected a rotated sender comp ID")
}
