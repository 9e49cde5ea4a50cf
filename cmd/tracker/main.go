package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skyops/skycourier/configs"
	"github.com/skyops/skycourier/internal/application/usecase/lifecycle"
	"github.com/skyops/skycourier/internal/infra/database"
	"github.com/skyops/skycourier/internal/infra/stream"
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
	log := logger.NewLogger("tracker", isProd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if config.OTELCollector != "" {
		shutdown, err := otel.InitProvider(ctx, "skycourier-tracker", config.OTELCollector)
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

	registry := prometheus.NewRegistry()
	m := metrics.NewPrometheusMetrics(registry, "tracker")

	go serveMetrics(log, registry, config.MetricsPort)

	orderRepository := database.NewOrderRepository(db)
	droneRepository := database.NewDroneRepository(db)
	placeRepository := database.NewPlaceRepository(db)

	var advance lifecycle.UseCase = lifecycle.NewUseCase(
		orderRepository,
		droneRepository,
		placeRepository,
		config.TrackRadiusM,
		config.PickupProximity,
		config.DropoffProximity,
		log,
	)
	advance = &lifecycle.MetricsDecorator{Next: advance, Metrics: m}

	brokers := strings.Split(config.KafkaBrokers, ",")

	if err := stream.EnsureTopic(brokers, config.TelemetryTopic, int32(config.TelemetryPartitions)); err != nil {
		panic(err)
	}

	handler := stream.NewTelemetryHandler(advance, m, log)

	group, err := stream.NewConsumerGroup(brokers, config.TelemetryGroup, config.TelemetryTopic, handler, log)
	if err != nil {
		panic(err)
	}
	defer group.Close()

	log.Info(ctx, "tracker consuming",
		logger.String("topic", config.TelemetryTopic),
		logger.String("group", config.TelemetryGroup),
	)
	if err := group.Run(ctx); err != nil && ctx.Err() == nil {
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
