package fix

import (
	"strings"

	"github.com/quickfixgo/quickfix"

	"fixgateway/pkg/logs"
)

// logFactory adapts the process logger to the quickfix logging interface.
// Heartbeats and raw market data frames are filtered out, they drown
// everything else at full depth.
type logFactory struct {
	logFixMessages bool
}

func NewLogFactory(logFixMessages bool) quickfix.LogFactory {
	return logFactory{logFixMessages: logFixMessages}
}

func (f logFactory) Create() (quickfix.Log, error) {
	return sessionLog{logFixMessages: f.logFixMessages}, nil
}

func (f logFactory) CreateSessionLog(sessionID quickfix.SessionID) (quickfix.Log, error) {
	return sessionLog{session: sessionID.String(), logFixMessages: f.logFixMessages}, nil
}

type sessionLog struct {
	session        string
	logFixMessages bool
}

func (l sessionLog) OnIncoming(data []byte) {
	if msg := l.printable(data); msg != "" {
		logs.Log.Debug().Str("session", l.session).Str("dir", "in").Msg(msg)
	}
}

func (l sessionLog) OnOutgoing(data []byte) {
	if msg := l.printable(data); msg != "" {
		logs.Log.Debug().Str("session", l.session).Str("dir", "out").Msg(msg)
	}
}

func (l sessionLog) OnEvent(msg string) {
	logs.Log.Info().Str("session", l.session).Msg(msg)
}

func (l sessionLog) OnEventf(format string, args ...interface{}) {
	logs.Log.Info().Str("session", l.session).Msgf(format, args...)
}

func (l sessionLog) printable(data []byte) string {
	if !l.logFixMessages {
		return ""
	}

	msg := string(data)
	for _, noisy := range []string{"\x0135=0\x01", "\x0135=W\x01", "\x0135=X\x01"} {
		if strings.Contains(msg, noisy) {
			return ""
		}
	}
	return strings.ReplaceAll(msg, "\x01", "|")
}
