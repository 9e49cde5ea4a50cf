package main

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/skyops/skycourier/configs"
	"github.com/skyops/skycourier/internal/infra/database"
	"github.com/skyops/skycourier/internal/infra/simulator"
	"github.com/skyops/skycourier/internal/infra/stream"
	"github.com/skyops/skycourier/pkg/logger"
)

func main() {
	config, err := configs.LoadConfig(".")
	if err != nil {
		panic(err)
	}

	isProd := config.Env == "production"
	log := logger.NewLogger("simulator", isProd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	brokers := strings.Split(config.KafkaBrokers, ",")

	if err := stream.EnsureTopic(brokers, config.TelemetryTopic, int32(config.TelemetryPartitions)); err != nil {
		panic(err)
	}

	producer, err := stream.NewProducer(brokers, config.TelemetryTopic)
	if err != nil {
		panic(err)
	}
	defer producer.Close()

	sim := simulator.New(
		database.NewDroneRepository(db),
		database.NewOrderRepository(db),
		database.NewPlaceRepository(db),
		producer,
		time.Duration(config.SimTickMillis)*time.Millisecond,
		config.SimJitterDeg,
		config.SimStepDeg,
		log,
	)

	log.Info(ctx, "simulator running",
		logger.String("topic", config.TelemetryTopic),
		logger.Int("tick_ms", config.SimTickMillis),
	)
	if err := sim.Run(ctx); err != nil && ctx.Err() == nil {
		panic(err)
	}
}
