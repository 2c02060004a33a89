package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"telemachus-gateway/internal/metrics"
	"telemachus-gateway/internal/models"
)

const (
	streamWriteWait  = 5 * time.Second
	streamBufferSize = 16
)

// StreamHandler обрабатывает GET /stream/{field} - WebSocket-поток измерений поля.
// Поле опрашивается с периодом Poller, каждое полученное значение отправляется
// клиенту кадром {timestamp, value} и записывается в историю.
func (h *Handler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	field := mux.Vars(r)["field"]

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Stream upgrade failed for %s: %v", field, err)
		metrics.RequestsTotal.WithLabelValues(endpointStream, r.Method, "400").Inc()
		return
	}
	defer conn.Close()
	metrics.RequestsTotal.WithLabelValues(endpointStream, r.Method, "101").Inc()

	h.streams.Add(1)
	metrics.ActiveStreams.Inc()
	defer func() {
		h.streams.Add(-1)
		metrics.ActiveStreams.Dec()
	}()

	// Медленный клиент теряет кадры, а не задерживает опрос
	samples := make(chan models.Sample, streamBufferSize)
	unsubscribe := h.poller.Subscribe(field, func(s models.Sample) {
		select {
		case samples <- s:
		default:
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case s := <-samples:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(s); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("Stream write for %s failed: %v", field, err)
				}
				return
			}
		}
	}
}
