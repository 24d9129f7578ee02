package fix

import (
	"strings"
	"sync/atomic"

	"github.com/quickfixgo/fix42/businessmessagereject"
	"github.com/quickfixgo/fix42/news"
	"github.com/quickfixgo/quickfix"

	"fixgateway/pkg/logs"
)

const recoveryCompleteHeadline = "recovery complete"

// sessionHandler carries the behavior every session type shares: message
// cracking, the post-logon readiness gate, and the counterparty's News and
// BusinessMessageReject notifications.
type sessionHandler struct {
	router *quickfix.MessageRouter
	name   string
	ready  atomic.Bool
}

// init wires the shared routes. It must run on the embedded field of the
// concrete handler so the route closures observe its readiness state.
func (h *sessionHandler) init(name string) {
	h.router = quickfix.NewMessageRouter()
	h.name = name
	h.router.AddRoute(news.Route(h.onNews))
	h.router.AddRoute(businessmessagereject.Route(h.onBusinessMessageReject))
}

func (h *sessionHandler) Crack(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return h.router.Route(msg, sessionID)
}

func (h *sessionHandler) IsReady() bool {
	return h.ready.Load()
}

func (h *sessionHandler) markReady() {
	h.ready.Store(true)
}

// onNews flips the readiness gate when the counterparty announces that
// post-logon recovery has finished. Anything else is informational.
func (h *sessionHandler) onNews(msg news.News, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	headline, err := msg.GetHeadline()
	if err != nil {
		return err
	}

	if strings.EqualFold(headline, recoveryCompleteHeadline) {
		h.markReady()
		logs.Log.Info().Str("handler", h.name).Str("session", sessionID.String()).Msg("session recovery completed")
		return nil
	}

	logs.Log.Info().Str("handler", h.name).Str("headline", headline).Msg("news received")
	return nil
}

func (h *sessionHandler) onBusinessMessageReject(msg businessmessagereject.BusinessMessageReject, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	refMsgType, _ := msg.GetRefMsgType()

	text := ""
	if msg.HasText() {
		text, _ = msg.GetText()
	}

	logs.Log.Error().
		Str("handler", h.name).
		Str("session", sessionID.String()).
		Str("refMsgType", refMsgType).
		Str("text", text).
		Msg("business message reject received")
	return nil
}
