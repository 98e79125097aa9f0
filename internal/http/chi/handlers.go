package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-viewer/stream"
	"github.com/marcelsud/webhook-viewer/webhook"
	"github.com/rs/zerolog"
)

const (
	DefaultListLimit    = 50
	DefaultMaxBodyBytes = 1 << 20
	requestTimeout      = 30 * time.Second
)

// Broadcaster is the part of the stream hub the HTTP layer needs
type Broadcaster interface {
	Subscribe(sink stream.Sink) (*stream.Subscriber, error)
	Unsubscribe(sub *stream.Subscriber)
	PublishAdded(rec webhook.Record) int
	PublishDeleted(ids []string) int
}

// Recorder receives counters about captured webhooks and stream deliveries
type Recorder interface {
	RecordStored(ctx context.Context, tier webhook.Tier)
	RecordBroadcast(ctx context.Context, eventType string, delivered int)
}

// Options tunes the API; zero values fall back to the defaults
type Options struct {
	Logger         *zerolog.Logger
	ListLimit      int
	MaxBodyBytes   int64
	WriteTimeout   time.Duration
	Metrics        Recorder
	MetricsHandler http.Handler
	Now            func() time.Time
}

type api struct {
	service      webhook.UseCase
	hub          Broadcaster
	metrics      Recorder
	listLimit    int
	maxBodyBytes int64
	writeTimeout time.Duration
	now          func() time.Time
}

// Handlers sets up the webhook viewer API routes
func Handlers(ctx context.Context, webhookService webhook.UseCase, hub Broadcaster, opts Options) *chi.Mux {
	logger := httplog.NewLogger("webhook-viewer", httplog.Options{
		JSON: true,
	})
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	a := &api{
		service:      webhookService,
		hub:          hub,
		metrics:      opts.Metrics,
		listLimit:    opts.ListLimit,
		maxBodyBytes: opts.MaxBodyBytes,
		writeTimeout: opts.WriteTimeout,
		now:          opts.Now,
	}
	if a.metrics == nil {
		a.metrics = nopRecorder{}
	}
	if a.listLimit <= 0 {
		a.listLimit = DefaultListLimit
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = DefaultMaxBodyBytes
	}
	if a.writeTimeout <= 0 {
		a.writeTimeout = stream.DefaultWriteTimeout
	}
	if a.now == nil {
		a.now = time.Now
	}

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	// Long-lived; must not be cut off by the request timeout
	r.Get("/api/webhook-stream", a.streamWebhooks().ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/health", a.health().ServeHTTP)
		if opts.MetricsHandler != nil {
			r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
		}

		// Any method, any sub-path
		r.Handle("/api/webhook", a.captureWebhook())
		r.Handle("/api/webhook/*", a.captureWebhook())

		r.Route("/api/webhooks", func(r chi.Router) {
			r.Get("/", a.listWebhooks().ServeHTTP)
			r.Delete("/", a.deleteWebhooks().ServeHTTP)
			r.Get("/{id}", a.getWebhook().ServeHTTP)
		})
	})

	return r
}

type nopRecorder struct{}

func (nopRecorder) RecordStored(context.Context, webhook.Tier)   {}
func (nopRecorder) RecordBroadcast(context.Context, string, int) {}
