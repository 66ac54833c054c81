package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App         App         `yaml:"app"`
	HTTP        HTTP        `yaml:"http"`
	Postgres    Postgres    `yaml:"postgres"`
	Redis       Redis       `yaml:"redis"`
	Kafka       Kafka       `yaml:"kafka"`
	Outbox      Outbox      `yaml:"outbox"`
	Fulfillment Fulfillment `yaml:"fulfillment"`
	Auth        Auth        `yaml:"auth"`
	GroupOrder  GroupOrder  `yaml:"group_order"`
	Telemetry   Telemetry   `yaml:"telemetry"`
}

type App struct {
	Name      string `yaml:"name"       env:"APP_NAME"       env-default:"group-ordering"`
	LogLevel  string `yaml:"log_level"  env:"APP_LOG_LEVEL"  env-default:"info"`
	LogPretty bool   `yaml:"log_pretty" env:"APP_LOG_PRETTY" env-default:"false"`
}

type HTTP struct {
	Port            int           `yaml:"port"             env:"HTTP_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"HTTP_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"HTTP_WRITE_TIMEOUT"    env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type Postgres struct {
	DSN             string        `yaml:"dsn"                env:"POSTGRES_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"POSTGRES_MAX_CONNS"          env-default:"20"`
	MinConns        int32         `yaml:"min_conns"          env:"POSTGRES_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"POSTGRES_MAX_CONN_LIFETIME"  env-default:"30m"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"POSTGRES_MAX_CONN_IDLE_TIME" env-default:"5m"`
}

type Redis struct {
	Addr     string        `yaml:"addr"     env:"REDIS_ADDR"     env-default:"localhost:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
	TTL      time.Duration `yaml:"ttl"      env:"REDIS_TTL"      env-default:"30s"`
}

type Kafka struct {
	Brokers          string `yaml:"brokers"              env:"KAFKA_BROKERS"              env-default:"localhost:29092"`
	ConsumerGroup    string `yaml:"consumer_group"       env:"KAFKA_CONSUMER_GROUP"       env-default:"group-ordering"`
	EventTopic       string `yaml:"event_topic"          env:"KAFKA_EVENT_TOPIC"          env-default:"group-order-events"`
	StatusTopic      string `yaml:"status_topic"         env:"KAFKA_STATUS_TOPIC"         env-default:"main-order-status"`
	Acks             string `yaml:"acks"                 env:"KAFKA_ACKS"                 env-default:"all"`
	LingerMs         int    `yaml:"linger_ms"            env:"KAFKA_LINGER_MS"            env-default:"10"`
	Compression      string `yaml:"compression"          env:"KAFKA_COMPRESSION"          env-default:"lz4"`
	SessionTimeoutMs int    `yaml:"session_timeout_ms"   env:"KAFKA_SESSION_TIMEOUT_MS"   env-default:"30000"`
	MaxPollInterval  int    `yaml:"max_poll_interval_ms" env:"KAFKA_MAX_POLL_INTERVAL_MS" env-default:"300000"`
}

type Outbox struct {
	BatchSize    int           `yaml:"batch_size"    env:"OUTBOX_BATCH_SIZE"    env-default:"100"`
	PollInterval time.Duration `yaml:"poll_interval" env:"OUTBOX_POLL_INTERVAL" env-default:"500ms"`
}

type Fulfillment struct {
	BaseURL    string        `yaml:"base_url"    env:"FULFILLMENT_BASE_URL"    env-required:"true"`
	Timeout    time.Duration `yaml:"timeout"     env:"FULFILLMENT_TIMEOUT"     env-default:"5s"`
	MaxRetries int           `yaml:"max_retries" env:"FULFILLMENT_MAX_RETRIES" env-default:"3"`
	Backoff    time.Duration `yaml:"backoff"     env:"FULFILLMENT_BACKOFF"     env-default:"500ms"`
}

type Auth struct {
	JWTSecret     string        `yaml:"jwt_secret"     env:"AUTH_JWT_SECRET"     env-required:"true"`
	TokenDuration time.Duration `yaml:"token_duration" env:"AUTH_TOKEN_DURATION" env-default:"24h"`
}

type GroupOrder struct {
	Currency           string        `yaml:"currency"             env:"GROUP_ORDER_CURRENCY"             env-default:"GBP"`
	ExpiresIn          time.Duration `yaml:"expires_in"           env:"GROUP_ORDER_EXPIRES_IN"           env-default:"24h"`
	ShareTTL           time.Duration `yaml:"share_ttl"            env:"GROUP_ORDER_SHARE_TTL"            env-default:"720h"`
	ShareBaseURL       string        `yaml:"share_base_url"       env:"GROUP_ORDER_SHARE_BASE_URL"       env-default:"https://cribnosh.com"`
	SelectionMinBudget int64         `yaml:"selection_min_budget" env:"GROUP_ORDER_SELECTION_MIN_BUDGET" env-default:"0"`
	AutoCloseOnReady   bool          `yaml:"auto_close_on_ready"  env:"GROUP_ORDER_AUTO_CLOSE_ON_READY"  env-default:"false"`
	SweepInterval      time.Duration `yaml:"sweep_interval"       env:"GROUP_ORDER_SWEEP_INTERVAL"       env-default:"1m"`
}

type Telemetry struct {
	MetricsPort int `yaml:"metrics_port" env:"TELEMETRY_METRICS_PORT" env-default:"9090"`
}

func MustLoad(path string) *Config {
	if path == "" {
		panic("Config path is not set")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		panic(fmt.Sprintf("file does not exists: %s: %v", path, err))
	}

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		panic(fmt.Sprintf("reading config: %s: %v", path, err))
	}

	return &cfg
}
