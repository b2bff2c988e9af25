package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wisdomcircle/circled/internal/logging"
	"github.com/wisdomcircle/circled/internal/models"
)

const heartbeatInterval = 15 * time.Second

// handleMessageStream serves the live feed as server-sent events. The
// stream carries only messages posted after the connection opened;
// clients fetch history from GET /api/messages first and drop any
// overlap by message id.
func (s *Server) handleMessageStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, s.logger, models.TransportError("stream", fmt.Errorf("streaming unsupported")))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Buffered so a stalled client drops events instead of blocking
	// the feed's dispatch goroutine.
	events := make(chan models.Message, 64)
	sub := s.chat.Subscribe(func(m models.Message) {
		select {
		case events <- m:
		default:
			s.logger.Warn().Int64("message_id", m.ID).Msg("slow sse client, event dropped")
		}
	})
	if sub == nil {
		return
	}
	defer s.chat.Unsubscribe(sub)

	log := logging.WithSession(sub.ID())
	log.Debug().Msg("sse stream opened")
	defer log.Debug().Msg("sse stream closed")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case m := <-events:
			payload, err := json.Marshal(m)
			if err != nil {
				log.Error().Err(err).Msg("encoding sse event")
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
