package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"octopus-backend/configs"
	"octopus-backend/internal/conversation"
	"octopus-backend/internal/events"
	"octopus-backend/internal/kafka"
	"octopus-backend/internal/media"
	"octopus-backend/internal/message"
	"octopus-backend/internal/migrate"
	"octopus-backend/internal/push"
	"octopus-backend/internal/shared/db"
	"octopus-backend/internal/shared/httpx"
	"octopus-backend/internal/shared/logx"
	"octopus-backend/internal/social"
	"octopus-backend/internal/users"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

func initOTEL(ctx context.Context, env string) func(context.Context) error {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "otel-collector:4318"
	}
	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		log.Fatal().Err(err).Msg("otel exporter")
	}
	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("octopus-backend"),
		attribute.String("deployment.environment", env),
	))
	ratio := 1.0
	if s := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); s != "" {
		if f, e := strconv.ParseFloat(s, 64); e == nil && f >= 0 && f <= 1 {
			ratio = f
		}
	}
	tp := trace.NewTracerProvider(
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(ratio))),
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown
}

func main() {
	cfg, err := configs.Load()
	if err != nil {
		// Refuse to start rather than run without push credentials.
		logx.Init("prod")
		log.Fatal().Err(err).Msg("config")
	}
	logx.Init(cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelShutdown := initOTEL(ctx, cfg.Env)
	defer func() {
		c, cc := context.WithTimeout(context.Background(), 5*time.Second)
		defer cc()
		_ = otelShutdown(c)
	}()

	store, err := db.Open(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("db open")
	}
	defer store.Close()

	if err := migrate.AutoMigrateAll(store); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, profile cache disabled")
		rdb = nil
	}

	msgFeed := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMessages)
	defer msgFeed.Close()
	notifFeed := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicNotifications)
	defer notifFeed.Close()

	sender, err := push.NewFCMSender(ctx, cfg.FCMCredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("push provider")
	}

	storage, err := media.New(media.Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseSSL:    cfg.S3UseSSL,
		Bucket:    cfg.S3Bucket,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("object storage")
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		log.Warn().Err(err).Msg("ensure bucket")
	}

	// Wire repos & services
	msgRepo := message.NewRepository(store)
	convRepo := conversation.NewRepository(store)
	convSvc := conversation.NewService(msgRepo, convRepo, msgFeed)

	tokenRepo := push.NewRepository(store)
	pushSvc := push.NewService(tokenRepo, sender)

	socialRepo := social.NewRepository(store)
	socialSvc := social.NewService(socialRepo, notifFeed)

	profiles := users.NewClient(cfg.UserAPIURL, cfg.UserAPIKey, rdb)
	bridge := events.NewBridge(pushSvc, profiles, convSvc, socialSvc, cfg.DeliveryWorkers)

	msgConsumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.TopicMessages, bridge.HandleMessageEvent)
	defer msgConsumer.Close()
	notifConsumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.TopicNotifications, bridge.HandleNotificationEvent)
	defer notifConsumer.Close()

	ch := conversation.NewHandler(convSvc)
	ph := push.NewHandler(pushSvc)
	sh := social.NewHandler(socialSvc)
	mh := media.NewHandler(storage)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("GET /health", httpx.Wrap(func(w http.ResponseWriter, r *http.Request) error {
		database := "connected"
		code := http.StatusOK
		status := "ok"
		if err := store.Ping(r.Context()); err != nil {
			database, status, code = "disconnected", "error", http.StatusInternalServerError
		}
		httpx.WriteJSON(w, map[string]any{
			"status":    status,
			"service":   "octopus-backend",
			"database":  database,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}, code)
		return nil
	}))

	mux.Handle("GET /api/messages", httpx.Wrap(ch.ListMessages))
	mux.Handle("POST /api/messages", httpx.Wrap(ch.SendMessage))
	mux.Handle("PATCH /api/messages/seen", httpx.Wrap(ch.MarkSeen))
	mux.Handle("GET /api/messages/unread-count", httpx.Wrap(ch.UnreadCount))
	mux.Handle("GET /api/conversations", httpx.Wrap(ch.ListConversations))

	mux.Handle("POST /api/push/register", httpx.Wrap(ph.Register))
	mux.Handle("POST /api/push/unregister", httpx.Wrap(ph.Unregister))
	mux.Handle("POST /api/push/send", httpx.Wrap(ph.Send))
	mux.Handle("POST /api/push/test", httpx.Wrap(ph.SendTest))

	mux.Handle("POST /api/notifications", httpx.Wrap(sh.Create))
	mux.Handle("GET /api/notifications", httpx.Wrap(sh.List))
	mux.Handle("PATCH /api/notifications/{id}/read", httpx.Wrap(sh.MarkRead))

	mux.Handle("POST /api/media/upload-url", httpx.Wrap(mh.UploadURL))

	srv := &http.Server{
		Addr:              cfg.AppPort,
		Handler:           otelhttp.NewHandler(httpx.CORS(mux), "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.AppPort).Msg("octopus-backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	// Subscribe after a short settle delay so the consumers don't race
	// service bootstrap.
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(cfg.ConsumerSettleDelay):
		}
		go func() {
			if err := msgConsumer.Run(ctx); err != nil {
				log.Error().Err(err).Msg("message consumer stopped")
			}
		}()
		go func() {
			if err := notifConsumer.Run(ctx); err != nil {
				log.Error().Err(err).Msg("notification consumer stopped")
			}
		}()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
	cancel()
	bridge.Drain(shCtx)
}
