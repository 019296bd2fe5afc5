package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"maturix/internal/gateway/repository/session"
	"maturix/internal/gateway/service/processor"
)

const (
	watchWriteWait = 10 * time.Second
	watchPongWait  = 60 * time.Second
	watchPingEvery = (watchPongWait * 9) / 10
)

var watchUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// HandleWatch streams processing progress for one session over a websocket.
// The client receives the current status snapshot on connect, then one
// message per pipeline event until the run reaches a terminal state.
func (s *Service) HandleWatch(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.PathValue("sesionId"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "sesionId es requerido")
		return
	}

	st, err := s.processor.Status(r.Context(), sessionID)
	if err != nil {
		if processor.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Sesión no encontrada")
			return
		}
		s.logger.Printf("watch: session %s: %v", sessionID, err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	conn, err := watchUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(watchPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchPongWait))
	})

	// Reader goroutine: discards client frames and signals disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	writeSnapshot := func(v any) bool {
		if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
			return false
		}
		return conn.WriteJSON(v) == nil
	}

	if !writeSnapshot(toStatusJSON(st)) {
		return
	}
	if st.State == session.StateFinalized || st.State == session.StateError {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(watchWriteWait))
		return
	}

	events := s.processor.Subscribe(sessionID)
	defer s.processor.Unsubscribe(sessionID, events)

	pinger := time.NewTicker(watchPingEvery)
	defer pinger.Stop()

	for {
		select {
		case ev, open := <-events:
			if !open {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(watchWriteWait))
				return
			}
			if !writeSnapshot(ev) {
				return
			}
		case <-pinger.C:
			if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
