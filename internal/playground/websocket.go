package playground

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vango-dev/primitives/internal/errors"
	"github.com/vango-dev/primitives/internal/scenario"
)

// Frame types sent by the server.
const (
	FrameHello = "hello"
	FrameStep  = "step"
	FrameError = "error"
)

// ClientFrame is a message from the client. Items replaces the session's
// source list.
type ClientFrame struct {
	Name     string   `json:"name,omitempty"`
	Items    []string `json:"items"`
	Fallback *string  `json:"fallback,omitempty"`
}

// ServerFrame is a message to the client.
type ServerFrame struct {
	Type    string               `json:"type"`
	Session string               `json:"session"`
	Step    *scenario.StepReport `json:"step,omitempty"`
	Error   *errors.Error        `json:"error,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		s.fail(w, http.StatusServiceUnavailable, errors.New("E403").WithDetail("server is shutting down"))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request.
		s.logger.Warn("websocket upgrade failed", zap.Error(errors.New("E402").Wrap(err)))
		return
	}

	id := uuid.NewString()
	log := s.logger.With(zap.String("session", id))

	s.mu.Lock()
	s.conns[id] = conn
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.SessionOpened()
	}

	// The first frame may set a fallback, so the session is created lazily.
	var sess *scenario.Session
	defer func() {
		var disposed int
		if sess != nil {
			disposed = len(sess.Close())
		}
		s.mu.Lock()
		delete(s.conns, id)
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.SessionClosed()
		}
		_ = conn.Close()
		log.Info("session closed", zap.Int("disposed", disposed))
	}()

	conn.SetReadLimit(s.cfg.MaxMessageBytes)
	log.Info("session opened", zap.String("remote", r.RemoteAddr))
	if err := s.send(conn, ServerFrame{Type: FrameHello, Session: id}); err != nil {
		return
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("session read failed", zap.Error(err))
			}
			return
		}

		var in ClientFrame
		if err := json.Unmarshal(msg, &in); err != nil {
			if s.sendError(conn, id, errors.New("E401").WithDetail(err.Error())) != nil {
				return
			}
			continue
		}
		if len(in.Items) > s.cfg.MaxItems {
			e := errors.New("E401").WithDetailf("%d items, the limit is %d", len(in.Items), s.cfg.MaxItems)
			if s.sendError(conn, id, e) != nil {
				return
			}
			continue
		}

		if sess == nil {
			opts := []scenario.SessionOption{
				scenario.WithObserver(s.observer(r.Context())),
				scenario.WithListName(sessionList),
			}
			if in.Fallback != nil {
				opts = append(opts, scenario.WithFallback(*in.Fallback))
			}
			sess = scenario.NewSession("ws-"+id, opts...)
		}

		step, err := sess.Step(in.Name, in.Items)
		if err != nil {
			_ = s.sendError(conn, id, errors.FromError(err, "E403"))
			return
		}
		if err := s.send(conn, ServerFrame{Type: FrameStep, Session: id, Step: &step}); err != nil {
			log.Debug("session write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) sendError(conn *websocket.Conn, id string, err *errors.Error) error {
	return s.send(conn, ServerFrame{Type: FrameError, Session: id, Error: err})
}

func (s *Server) send(conn *websocket.Conn, f ServerFrame) error {
	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	return conn.WriteJSON(f)
}
