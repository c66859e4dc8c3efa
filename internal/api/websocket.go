package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 1 << 16
	sendBuffer     = 64
)

var (
	errConnClosed     = errors.New("connection closed")
	errSendBufferFull = errors.New("send buffer full")
)

// wsConn adapts a websocket to hub.Conn. Writes go through a buffered
// channel drained by writePump; a slow client that fills it gets dropped.
type wsConn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws, send: make(chan []byte, sendBuffer), done: make(chan struct{})}
}

func (c *wsConn) Send(b []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	default:
		_ = c.Close()
		return errSendBufferFull
	}
}

func (c *wsConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case b := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (c *wsConn) readPump(ctx context.Context, participantID string, arena Arena) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		msgType, frame, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Warn("websocket read failed", logging.Fields{
					constants.LogFieldParticipantID: participantID,
					"error":                         err.Error(),
				})
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		arena.Handle(ctx, participantID, frame)
	}
}

// ServeWS upgrades the request and runs the connection until it closes.
func (h *GameHandler) ServeWS(c *gin.Context) {
	pid := c.GetString(constants.CtxParticipantID)
	name := c.GetString(constants.CtxParticipantName)
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		logging.Warn(constants.ErrUpgradeFailed, logging.Fields{
			constants.LogFieldParticipantID: pid,
			"error":                         err.Error(),
		})
		return
	}
	conn := newWSConn(ws)
	go conn.writePump()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.arena.Connected(pid, name, conn)
	conn.readPump(ctx, pid, h.arena)
	h.arena.Disconnected(pid, conn)
	_ = conn.Close()
}
