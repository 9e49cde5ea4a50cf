package configs

import "github.com/spf13/viper"

type Conf struct {
	Env           string `mapstructure:"APP_ENV"`
	DBDriver      string `mapstructure:"DB_DRIVER"`
	DBHost        string `mapstructure:"DB_HOST"`
	DBPort        string `mapstructure:"DB_PORT"`
	DBUser        string `mapstructure:"DB_USER"`
	DBPassword    string `mapstructure:"DB_PASSWORD"`
	DBName        string `mapstructure:"DB_NAME"`
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	WebServerPort string `mapstructure:"WEB_SERVER_PORT"`
	MetricsPort   string `mapstructure:"METRICS_PORT"`
	AMQPURL       string `mapstructure:"AMQP_URL"`
	OTELCollector string `mapstructure:"OTEL_COLLECTOR_ADDR"`

	// Event inbox (order-created queue)
	InboxQueue            string `mapstructure:"INBOX_QUEUE"`
	InboxPrefetch         int    `mapstructure:"INBOX_PREFETCH"`
	InboxRetryDelayMillis int    `mapstructure:"INBOX_RETRY_DELAY_MILLIS"`

	// Telemetry stream
	KafkaBrokers        string `mapstructure:"KAFKA_BROKERS"`
	TelemetryTopic      string `mapstructure:"TELEMETRY_TOPIC"`
	TelemetryGroup      string `mapstructure:"TELEMETRY_GROUP"`
	TelemetryPartitions int    `mapstructure:"TELEMETRY_PARTITIONS"`

	// Distance contract: thresholds must be in the unit of the radius they
	// are checked against (meters by default).
	MatchRadiusKm     float64 `mapstructure:"MATCH_RADIUS_KM"`
	TrackRadiusM      float64 `mapstructure:"TRACK_RADIUS_M"`
	PickupProximity   float64 `mapstructure:"PICKUP_PROXIMITY"`
	DropoffProximity  float64 `mapstructure:"DROPOFF_PROXIMITY"`

	// Simulator
	SimTickMillis  int     `mapstructure:"SIM_TICK_MILLIS"`
	SimJitterDeg   float64 `mapstructure:"SIM_JITTER_DEG"`
	SimStepDeg     float64 `mapstructure:"SIM_STEP_DEG"`

	// Outbox relay
	OutboxBatchSize int `mapstructure:"OUTBOX_BATCH_SIZE"`
	OutboxWorkers   int `mapstructure:"OUTBOX_WORKERS"`
}

func LoadConfig(path string) (*Conf, error) {
	var cfg *Conf

	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("METRICS_PORT", "2112")
	viper.SetDefault("INBOX_QUEUE", "orders.created")
	viper.SetDefault("INBOX_PREFETCH", 10)
	viper.SetDefault("INBOX_RETRY_DELAY_MILLIS", 1000)
	viper.SetDefault("TELEMETRY_TOPIC", "drone.location")
	viper.SetDefault("TELEMETRY_GROUP", "skycourier-tracker")
	viper.SetDefault("TELEMETRY_PARTITIONS", 4)
	viper.SetDefault("MATCH_RADIUS_KM", 6371)
	viper.SetDefault("TRACK_RADIUS_M", 6371000)
	viper.SetDefault("PICKUP_PROXIMITY", 5)
	viper.SetDefault("DROPOFF_PROXIMITY", 5)
	viper.SetDefault("SIM_TICK_MILLIS", 2000)
	viper.SetDefault("SIM_JITTER_DEG", 0.001)
	viper.SetDefault("SIM_STEP_DEG", 0.0005)
	viper.SetDefault("OUTBOX_BATCH_SIZE", 100)
	viper.SetDefault("OUTBOX_WORKERS", 10)

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
