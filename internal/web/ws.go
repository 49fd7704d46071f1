package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lexiqai/rag-agent/internal/observability"
	"github.com/lexiqai/rag-agent/internal/report"
)

const (
	writeWait = 10 * time.Second
	doneEvent = "done"
)

var upgrader = websocket.Upgrader{
	// Same-origin is not enforced; the API is CORS-open as well
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// wsSink streams each reported event to the client as it happens
type wsSink struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	logger zerolog.Logger
	closed bool
}

func (s *wsSink) Report(kind report.Kind, text string) {
	s.send(report.Event{Kind: kind, Content: text})
}

func (s *wsSink) send(ev report.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(ev); err != nil {
		s.logger.Warn().Err(err).Msg("WebSocket write failed")
		s.closed = true
	}
}

// handleChatWS serves one connection; each text frame is a ChatRequest answered by
// a stream of events followed by a "done" event.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to upgrade connection to WebSocket")
		return
	}
	defer conn.Close()

	sessionID := observability.NewCorrelationID()
	logger := observability.WithCorrelationID(sessionID).With().Str("component", "web").Logger()
	sink := &wsSink{conn: conn, logger: logger}
	logger.Info().Msg("WebSocket chat session started")

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("WebSocket read error")
			}
			logger.Info().Msg("WebSocket chat session ended")
			return
		}

		var req ChatRequest
		if err := json.Unmarshal(message, &req); err != nil {
			// plain text frames are treated as the question itself
			req.Message = string(message)
		}

		question := strings.TrimSpace(req.Message)
		if question == "" {
			sink.Report(report.Error, emptyMessageError)
		} else if _, err := s.runTurn(r.Context(), req.Mode, question, sink); err != nil {
			logger.Error().Err(err).Msg("Chat turn failed")
		}
		sink.send(report.Event{Kind: doneEvent})

		sink.mu.Lock()
		closed := sink.closed
		sink.mu.Unlock()
		if closed {
			return
		}
	}
}
