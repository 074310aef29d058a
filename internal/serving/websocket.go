package serving

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"repeat-purchase-lab/internal/domain"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsCloseTimeout = time.Second
)

// checkOrigin accepts requests without an Origin header, same-host origins
// and the configured allowlist.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if s.origins["*"] || s.origins[strings.ToLower(strings.TrimRight(origin, "/"))] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// predictStream scores one feature record per text message until the client
// disconnects. A bad record gets an error reply; the connection stays open.
func (s *Server) predictStream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if !s.track(conn) {
		closeGoingAway(conn)
		return
	}
	defer s.untrack(conn)

	s.m.WSConnections.Inc()
	defer s.m.WSConnections.Dec()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("websocket read failed", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		reply := s.streamReply(data)
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			s.log.Warn("websocket write failed", "error", err)
			return
		}
	}
}

func (s *Server) streamReply(data []byte) any {
	start := time.Now()

	rec, err := decodeRecord(data)
	if err != nil {
		s.m.RecordPrediction(EndpointWebsocket, start, err)
		return ErrorResponse{Error: err.Error(), Code: CodeBadRequest}
	}

	probs, err := s.score([]domain.FeatureRecord{rec})
	s.m.RecordPrediction(EndpointWebsocket, start, err)
	if err != nil {
		return ErrorResponse{Error: err.Error(), Code: CodeInternal}
	}
	return PredictResponse{Probability: probs[0]}
}

func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.streams[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.streams, conn)
}

// CloseStreams sends a going-away close frame to every open stream and closes
// it. Streams opened afterwards are closed right after the upgrade.
// http.Server.Shutdown does not track hijacked connections, so register this
// with RegisterOnShutdown.
func (s *Server) CloseStreams() {
	s.mu.Lock()
	s.closing = true
	conns := make([]*websocket.Conn, 0, len(s.streams))
	for c := range s.streams {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		closeGoingAway(c)
		_ = c.Close()
	}
	if len(conns) > 0 {
		s.log.Info("closed websocket streams", "count", len(conns))
	}
}

func closeGoingAway(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsCloseTimeout))
}
