package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pefman/pokedex-duel/internal/session"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 4096
)

type clientIn struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

var errUnknownType = errors.New("unknown message type")

// decode maps a browser message onto a session action.
func decode(in clientIn) (session.Msg, error) {
	switch in.Type {
	case "select":
		var body struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(in.Data, &body); err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
		return session.Select{Name: body.Name}, nil
	case "start":
		return session.Start{}, nil
	case "move":
		var body struct {
			Slot int `json:"slot"`
		}
		if err := json.Unmarshal(in.Data, &body); err != nil {
			return nil, fmt.Errorf("move: %w", err)
		}
		return session.Move{Slot: body.Slot}, nil
	case "flee":
		return session.Flee{}, nil
	case "endgame":
		return session.Acknowledge{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownType, in.Type)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, fresh := s.sessions.open(r)
	var hdr http.Header
	if fresh {
		hdr = http.Header{}
		hdr.Add("Set-Cookie", sessionCookie(sess.id).String())
	}
	conn, err := s.upgrader.Upgrade(w, r, hdr)
	if err != nil {
		s.log.Warn("ws upgrade", zap.Error(err))
		return
	}
	log := s.log.With(zap.String("session", sess.id))
	log.Debug("ws: connect", zap.String("remote", r.RemoteAddr))

	c := sess.hub.join()
	done := make(chan struct{})
	defer func() {
		close(done)
		sess.hub.leave(c)
		sess.touch(s.sessions.now())
		_ = conn.Close()
		log.Debug("ws: closed")
	}()
	go s.writer(conn, c, done, log)

	conn.SetReadLimit(maxMessageSize)
	for {
		var in clientIn
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("ws: read error", zap.Error(err))
			}
			return
		}
		sess.touch(s.sessions.now())
		msg, err := decode(in)
		if err != nil {
			log.Debug("ws: bad message", zap.String("type", in.Type), zap.Error(err))
			c.notify(serverMsg{Type: "error", Error: err.Error()})
			continue
		}
		sess.ctrl.Send(msg)
	}
}

// writer is the only goroutine writing to conn.
func (s *Server) writer(conn *websocket.Conn, c *client, done <-chan struct{}, log *zap.Logger) {
	for {
		var out serverMsg
		select {
		case <-done:
			return
		case p := <-c.pages:
			out = serverMsg{Type: "page", Data: &p}
		case n := <-c.notices:
			out = n
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(out); err != nil {
			log.Debug("ws: write error", zap.Error(err))
			_ = conn.Close()
			return
		}
	}
}
