package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"

	"github.com/skyops/skycourier/configs"
	"github.com/skyops/skycourier/internal/application/usecase/orders"
	"github.com/skyops/skycourier/internal/infra/database"
	"github.com/skyops/skycourier/internal/infra/event"
	"github.com/skyops/skycourier/internal/infra/web/handler"
	"github.com/skyops/skycourier/internal/infra/web/middleware"
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
	log := logger.NewLogger("api", isProd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if config.OTELCollector != "" {
		shutdown, err := otel.InitProvider(ctx, "skycourier-api", config.OTELCollector)
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

	ch, err := conn.Channel()
	if err != nil {
		panic(err)
	}
	defer ch.Close()

	registry := prometheus.NewRegistry()
	m := metrics.NewPrometheusMetrics(registry, "api")

	orderRepository := database.NewOrderRepository(db)
	droneRepository := database.NewDroneRepository(db)
	placeRepository := database.NewPlaceRepository(db)
	outboxRepository := database.NewOutboxRepository(db)

	var createOrder orders.CreateUseCase = orders.NewCreateUseCase(orderRepository, placeRepository)
	createOrder = &orders.CreateMetricsDecorator{Next: createOrder, Metrics: m}

	orderHandler := handler.NewOrderHandler(createOrder, orderRepository)
	droneHandler := handler.NewDroneHandler(droneRepository)
	placeHandler := handler.NewPlaceHandler(placeRepository)

	publisher, err := event.NewPublisher(ch, config.InboxQueue)
	if err != nil {
		panic(err)
	}
	relay := event.NewOutboxRelay(outboxRepository, publisher, log, m,
		config.OutboxBatchSize, config.OutboxWorkers)
	go relay.Run(ctx)
	go relay.RunRescuer(ctx)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 50,
		Burst:             100,
		CleanupInterval:   time.Minute,
		ClientTimeout:     3 * time.Minute,
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(otelchi.Middleware("skycourier-api", otelchi.WithChiRoutes(r)))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.MetricsWrapper(m))
	r.Use(rateLimiter.Handler(log))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/orders", orderHandler.Create)
		r.Get("/orders", orderHandler.List)
		r.Get("/orders/{order_id}", orderHandler.Get)
		r.Delete("/orders/{order_id}", orderHandler.Delete)

		r.Post("/drones", droneHandler.Create)
		r.Get("/drones", droneHandler.List)
		r.Get("/drones/{drone_id}", droneHandler.Get)
		r.Delete("/drones/{drone_id}", droneHandler.Delete)

		r.Post("/stores", placeHandler.CreateStore)
		r.Get("/stores/{store_id}", placeHandler.GetStore)
		r.Post("/users", placeHandler.CreateUser)
		r.Get("/users/{user_id}", placeHandler.GetUser)
	})

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Handle("/health", handler.NewHealthHandler("skycourier-api",
		handler.WithPostgres(db),
		handler.WithRedis(rdb),
		handler.WithRabbitMQ(config.AMQPURL),
	))

	server := &http.Server{
		Addr:    ":" + config.WebServerPort,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	log.Info(ctx, "api listening", logger.String("port", config.WebServerPort))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		panic(err)
	}
}
