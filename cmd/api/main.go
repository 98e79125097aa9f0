package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"

	"github.com/marcelsud/webhook-viewer/config"
	"github.com/marcelsud/webhook-viewer/internal/http/chi"
	"github.com/marcelsud/webhook-viewer/metrics"
	"github.com/marcelsud/webhook-viewer/stream"
	"github.com/marcelsud/webhook-viewer/webhook"
	"github.com/marcelsud/webhook-viewer/webhook/memory"
	"github.com/marcelsud/webhook-viewer/webhook/redis"
)

const TIMEOUT = 30 * time.Second

/* “a porta de entrada e saída da minha aplicação”
* Porque a porta de entrada? É no arquivo main.go, que vai ser compilado para gerar o executável da aplicação,
* onde é feita toda a “amarração” dos demais pacotes.
* É nele onde iniciamos as dependências, fazemos as configurações e a invocação dos pacotes que desempenham a lógica de negócio.

* E porque ele é a porta de saída da aplicação?
* https://eltonminetto.dev/post/2022-07-06-error-handling-cli-applications-golang/
 */

/*
 * As importações devem ser feitas apenas em uma direção: para baixo. O aplicativo (api, cli) importa camadas de negócios,
 * que importam a camada de armazenamento
 */

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	logger := httplog.NewLogger("webhook-viewer", httplog.Options{
		JSON:     true,
		LogLevel: cfg.LogLevel,
	})

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	buffer := memory.NewBuffer(cfg.BufferCapacity)

	// Without REDIS_URL the service runs from memory only
	var durable webhook.Repository
	var counter metrics.Counter
	if cfg.RedisURL != "" {
		repo, err := redis.NewRepository(redis.Config{
			URL:            cfg.RedisURL,
			RecordTTL:      cfg.RecordTTL(),
			CommandTimeout: cfg.CommandTimeout(),
			HealthTimeout:  cfg.HealthCheckTimeout(),
		}, logger.With().Str("component", "redis").Logger())
		if err != nil {
			return err
		}
		defer closeRepository(repo, logger)
		durable = repo
		counter = repo
	} else {
		logger.Warn().Msg("REDIS_URL not set, webhooks are kept in memory only")
	}

	s := webhook.NewService(buffer, durable,
		webhook.WithHealthCheckTTL(cfg.HealthCheckTTL()),
		webhook.WithLogger(logger.With().Str("component", "storage").Logger()),
	)

	hub := stream.NewHub(
		stream.WithHeartbeatInterval(cfg.HeartbeatInterval()),
		stream.WithLogger(logger.With().Str("component", "stream").Logger()),
	)

	exporter, err := metrics.NewOTelExporter(metrics.NewStoreCollector(buffer, counter, hub, s))
	if err != nil {
		return err
	}
	defer exporter.Shutdown(context.Background())

	// Warm the tier decision so the first request does not pay for it
	logger.Info().Str("storage", s.Decide(ctx).String()).Msg("storage tier selected")

	r := chi.Handlers(ctx, s, hub, chi.Options{
		Logger:         &logger,
		ListLimit:      cfg.ListDefaultLimit,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Metrics:        exporter,
		MetricsHandler: exporter.ServeHTTP(),
	})
	srv := &http.Server{
		ReadTimeout: 30 * time.Second,
		// Streams are long-lived; per-write deadlines are set by the SSE writer
		WriteTimeout: 0,
		Addr:         cfg.Addr(),
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, hub, ctx, errShutdown)
	logger.Info().Str("port", cfg.Port).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	err = <-errShutdown
	if err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func shutdown(server *http.Server, hub *stream.Hub, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	// Release the open streams first, Shutdown waits for their handlers
	hub.Close()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	}
}

func closeRepository(repo *redis.Repository, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := repo.Close(ctx); err != nil {
		logger.Error().Err(err).Msg("closing Redis")
	}
}
