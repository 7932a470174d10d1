package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"log/slog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Session is one subscriber's end of the hub: a buffered channel drained
// by a single writer goroutine, so events arrive in publish order.
type Session struct {
	hub       *Hub
	send      chan []byte
	topics    []string
	closeOnce sync.Once
}

// Messages exposes the event stream. Used directly in tests; production
// sessions are drained by ServeConn.
func (s *Session) Messages() <-chan []byte {
	return s.send
}

// Close detaches the session from every topic.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.hub.unsubscribe(s)
		close(s.send)
	})
}

// ServeConn pumps hub events to the websocket connection until the peer
// disconnects. It blocks; the caller owns the connection afterwards.
func (s *Session) ServeConn(conn *websocket.Conn) {
	defer s.Close()
	defer conn.Close()

	// Reader only watches for the peer closing.
	go func() {
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.Close()
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-s.send:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Debug("Websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
