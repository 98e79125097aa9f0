package chi

import (
	"net/http"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-viewer/stream"
)

// streamWebhooks handles GET /api/webhook-stream
// The connection stays open until the client leaves or the hub drops it
func (a *api) streamWebhooks() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		sink := stream.NewSSEWriter(w, a.writeTimeout)
		defer sink.Close()

		sub, err := a.hub.Subscribe(sink)
		if err != nil {
			logger := httplog.LogEntry(r.Context())
			logger.Warn().Err(err).Msg("stream subscribe failed")
			return
		}
		defer a.hub.Unsubscribe(sub)

		select {
		case <-r.Context().Done():
		case <-sub.Done():
		}
	})
}
