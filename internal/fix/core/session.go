package core

import (
	"errors"
	"fmt"

	"github.com/quickfixgo/quickfix"

	"fixgateway/pkg/logs"
)

// ErrSessionNotFound is returned when a session wrapper is requested for a
// session the transport has never created.
var ErrSessionNotFound = errors.New("session not found")

// SessionRegistry answers whether a session exists and whether it is
// currently logged on. The connection implements it.
type SessionRegistry interface {
	IsKnownSession(sessionID quickfix.SessionID) bool
	IsLoggedOn(sessionID quickfix.SessionID) bool
}

// Session sends messages on one FIX session.
type Session interface {
	Send(msg quickfix.Messagable) bool
}

// QuickFixSession routes outbound messages through the engine's session
// lookup, refusing to send while the session is logged off.
type QuickFixSession struct {
	registry  SessionRegistry
	sessionID quickfix.SessionID
}

func NewQuickFixSession(registry SessionRegistry, sessionID quickfix.SessionID) (*QuickFixSession, error) {
	if !registry.IsKnownSession(sessionID) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID.String())
	}
	return &QuickFixSession{registry: registry, sessionID: sessionID}, nil
}

func (s *QuickFixSession) Send(msg quickfix.Messagable) bool {
	if !s.registry.IsLoggedOn(s.sessionID) {
		logs.Log.Warn().Str("session", s.sessionID.String()).Msg("dropping outbound message, session is logged off")
		return false
	}

	if err := quickfix.SendToTarget(msg, s.sessionID); err != nil {
		logs.Log.Error().Err(err).Str("session", s.sessionID.String()).Msg("failed to send message")
		return false
	}
	return true
}
