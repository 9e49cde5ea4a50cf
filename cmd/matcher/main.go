package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/skyops/skycourier/configs"
	"github.com/skyops/skycourier/internal/application/usecase/matching"
	"github.com/skyops/skycourier/internal/infra/database"
	"github.com/skyops/skycourier/internal/infra/event"
	"github.com/skyops/skycourier/internal/infra/storage"
	"github.com/skyops/skycourier/pkg/logger"
	"github.com/skyops/skycourier/pkg/metrics"
	"github.com/skyops/skycourier/pkg/otel"
)

func main() {
	config, err := configs.LoadConfig(".")
	if err != nil {
		panic(err)
	}

	isProd := config.Env == "production"
	log := logger.NewLogger("matcher", isProd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if config.OTELCollector != "" {
		shutdown, err := otel.InitProvider(ctx, "skycourier-matcher", config.OTELCollector)
		if err != nil {
			panic(err)
		}
		defer shutdown()
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.DBHost, config.DBPort, config.DBUser, config.DBPassword, config.DBName)

	db, err := sql.Open(config.DBDriver, dsn)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	if err = db.Ping(); err != nil {
		panic(err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: config.RedisHost + ":" + config.RedisPort,
	})
	defer rdb.Close()

	conn, err := amqp.Dial(config.AMQPURL)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	registry := prometheus.NewRegistry()
	m := metrics.NewPrometheusMetrics(registry, "matcher")

	go serveMetrics(log, registry, config.MetricsPort)

	orderRepository := database.NewOrderRepository(db)
	droneRepository := database.NewDroneRepository(db)
	placeRepository := database.NewPlaceRepository(db)

	var matchOrder matching.UseCase = matching.NewUseCase(
		orderRepository,
		droneRepository,
		placeRepository,
		config.MatchRadiusKm,
		log,
	)
	matchOrder = &matching.MetricsDecorator{Next: matchOrder, Metrics: m}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "match-order",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	handler := event.NewOrderCreatedHandler(matchOrder, m, log)
	handler = event.WrapExponentialBackoff(log, m, "match-order", 3, 100*time.Millisecond, handler)
	handler = event.WrapResilientConsumer(m, "match-order", 10*time.Second, cb, handler)
	handler = event.WrapIdempotency(log, storage.NewRedisAdapter(rdb), "match-order", 24*time.Hour, handler)

	retryDelay := time.Duration(config.InboxRetryDelayMillis) * time.Millisecond
	consumer := event.NewConsumer(conn, handler, config.InboxPrefetch, retryDelay, log)

	log.Info(ctx, "matcher consuming", logger.String("queue", config.InboxQueue))
	if err := consumer.Start(ctx, config.InboxQueue); err != nil && ctx.Err() == nil {
		panic(err)
	}
}

func serveMetrics(log logger.Logger, registry *prometheus.Registry, port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Error(context.Background(), "metrics server stopped", logger.WithError(err))
	}
}
