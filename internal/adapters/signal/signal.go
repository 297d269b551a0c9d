// Package signal is the websocket adapter: it owns the sockets and
// translates tagged frames into relay operations.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/app"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/core"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type WSController struct {
	Relay     *app.Relay
	ReadLimit int64
}

func NewWSController(relay *app.Relay, readLimit int64) *WSController {
	return &WSController{Relay: relay, ReadLimit: readLimit}
}

type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the socket, resolves the token and starts the pumps.
// Auth failures still upgrade so the peer receives an error frame before
// the close.
func (ctl *WSController) HandleWS(ctx context.Context, c *gin.Context) {
	raw := c.Query("token")
	log.Info().Str("module", "signal").Str("token", raw).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	ctx, cancel := context.WithCancel(ctx)

	sess, err := ctl.Relay.Resolve(ctx, raw, conn)
	if err != nil {
		var authErr *app.AuthError
		msg := "connection rejected"
		if errors.As(err, &authErr) {
			msg = string(authErr.Reason)
		}
		log.Warn().Err(err).Str("module", "signal").Str("token", raw).Msg("auth rejected")
		// Write pump is not running yet; the error frame must go out
		// before the close, so write it directly.
		frame := core.MustFrame(core.ErrorEvent{Type: core.EventError, Message: msg})
		_ = ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
		_ = ws.WriteMessage(websocket.TextMessage, frame)
		conn.Close()
		cancel()
		return
	}

	go ctl.writePump(ctx, conn)
	ctl.welcome(conn, sess)
	ctl.Relay.Bcast.Roster()

	go ctl.readPump(ctx, cancel, sess.Token, conn)
}

// welcome sends the handshake frames in their fixed order:
// connection_success, then the mute state, then the users snapshot.
func (ctl *WSController) welcome(conn *WsConn, sess *domain.Session) {
	ctl.sendJSON(conn, map[string]any{"type": core.EventConnectionSuccess})
	ctl.sendJSON(conn, core.MuteStateEvent{
		Type:             core.EventMuteState,
		GlobalMuteActive: ctl.Relay.State.GlobalMute(),
	})
	roster := ctl.Relay.State.Roster()
	ctl.sendJSON(conn, core.UsersEvent{
		Type:  core.EventUsers,
		Count: len(roster),
		List:  roster,
	})
}
