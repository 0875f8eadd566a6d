package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 1024

	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsClient is one browser tab listening for a session's pushes.
type wsClient struct {
	conn    *websocket.Conn
	send    chan []byte
	session *Session
	log     zerolog.Logger
}

// wsHandler upgrades the connection and registers it with the session. The
// current board and score are queued first so a reconnecting tab catches up.
func (app *App) wsHandler(c *gin.Context) {
	sess, err := app.currentSession(c)
	if err != nil {
		app.renderUnavailable(c, err)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logWarn("Session %s: websocket upgrade: %v", sess.ID, err)
		return
	}

	client := &wsClient{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		session: sess,
		log:     zerolog.Ctx(c.Request.Context()).With().Str("session", sess.ID).Logger(),
	}
	sess.addClient(client)

	// A session swept between lookup and registration has a closed machine;
	// the client would never hear from it again.
	snap, err := sess.Machine.Snapshot(c.Request.Context())
	if err != nil {
		client.log.Warn().Err(err).Msg("websocket rejected")
		sess.removeClient(client)
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, ErrorGameUnavailable))
		conn.Close()
		return
	}
	if msg, err := sess.renderer.PushBoard(snap); err == nil {
		sess.sendTo(client, msg)
	}
	if msg, err := sess.renderer.PushScore(snap.Score, false); err == nil {
		sess.sendTo(client, msg)
	}

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection. The page never sends game input over the
// socket, so anything read is discarded; the loop exists for pongs and close.
func (c *wsClient) readPump() {
	defer func() {
		c.session.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read")
			}
			return
		}
	}
}

// writePump pumps messages from the send channel to the connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The session closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) addClient(c *wsClient) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Session) removeClient(c *wsClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Session) sendTo(c *wsClient, msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		safeSend(c.send, msg)
	}
}

func (s *Session) broadcast(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		safeSend(c.send, msg)
	}
}

func (s *Session) clientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// safeSend queues data without blocking. A client that is not keeping up
// misses the message. Callers hold the session lock, so ch is never closed
// underneath the send.
func safeSend(ch chan []byte, data []byte) {
	select {
	case ch <- data:
	default:
	}
}
