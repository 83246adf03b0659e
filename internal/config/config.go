package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

var (
	// ErrReadConfig ошибка чтения файла конфигурации
	ErrReadConfig = errors.New("config: failed to read config file")
	// ErrInvalidConfig некорректное значение в конфигурации
	ErrInvalidConfig = errors.New("config: invalid config")
)

// Config конфигурация сервиса
type Config struct {
	Server        ServerConfig        `toml:"server"`
	Database      DatabaseConfig      `toml:"database"`
	Logs          LogsConfig          `toml:"logs"`
	Metrics       MetricsConfig       `toml:"metrics"`
	Tracing       TracingConfig       `toml:"tracing"`
	Salon         SalonConfig         `toml:"salon"`
	Booking       BookingConfig       `toml:"booking"`
	Reminders     RemindersConfig     `toml:"reminders"`
	Cache         CacheConfig         `toml:"cache"`
	Redis         RedisConfig         `toml:"redis"`
	Kafka         KafkaConfig         `toml:"kafka"`
	Worker        WorkerConfig        `toml:"worker"`
	Sweeps        SweepsConfig        `toml:"sweeps"`
	Payments      PaymentsConfig      `toml:"payments"`
	Calendar      CalendarConfig      `toml:"calendar"`
	Notifications NotificationsConfig `toml:"notifications"`
	Telegram      TelegramConfig      `toml:"telegram"`
	Line          LineConfig          `toml:"line"`
	Email         EmailConfig         `toml:"email"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки подключения к Postgres
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig настройки Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// TracingConfig настройки OpenTelemetry
type TracingConfig struct {
	Enabled      bool    `toml:"enabled"`
	OTLPEndpoint string  `toml:"otlp_endpoint"`
	SampleRatio  float64 `toml:"sample_ratio"`
}

// SalonConfig параметры салона
type SalonConfig struct {
	Timezone        string `toml:"timezone"`
	SlotStepMinutes int    `toml:"slot_step_minutes"`
	Currency        string `toml:"currency"`

	location *time.Location
}

// Location часовой пояс салона
func (s SalonConfig) Location() *time.Location {
	if s.location == nil {
		return time.UTC
	}
	return s.location
}

// BookingConfig параметры жизненного цикла записи
type BookingConfig struct {
	HoldTimeout      Duration `toml:"hold_timeout"`
	CompleteGrace    Duration `toml:"complete_grace"`
	MinNoticeMinutes int      `toml:"min_notice_minutes"`
}

// RemindersConfig параметры рассылки напоминаний
type RemindersConfig struct {
	Lookahead    Duration `toml:"lookahead"`
	SendInterval Duration `toml:"send_interval"`
	ClaimTTL     Duration `toml:"claim_ttl"`
	BatchSize    int      `toml:"batch_size"`
}

// CacheConfig параметры кэша слотов
type CacheConfig struct {
	Enabled  bool     `toml:"enabled"`
	SlotsTTL Duration `toml:"slots_ttl"`
}

// RedisConfig подключение к Redis; пустой адрес отключает Redis
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// KafkaConfig публикация событий жизненного цикла; без брокеров публикация отключена
type KafkaConfig struct {
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

// WorkerConfig очередь фоновых задач
type WorkerConfig struct {
	Workers     int      `toml:"workers"`
	QueueSize   int      `toml:"queue_size"`
	TaskTimeout Duration `toml:"task_timeout"`
}

// SweepsConfig запуск фоновых проходов
type SweepsConfig struct {
	Token   string   `toml:"token"`
	LockTTL Duration `toml:"lock_ttl"`
}

// PaymentsConfig платежный провайдер (Stripe)
type PaymentsConfig struct {
	SecretKey        string   `toml:"secret_key"`
	WebhookSecret    string   `toml:"webhook_secret"`
	WebhookTolerance Duration `toml:"webhook_tolerance"`
	SuccessURL       string   `toml:"success_url"`
	CancelURL        string   `toml:"cancel_url"`
	Timeout          Duration `toml:"timeout"`
}

// CalendarConfig OAuth клиент Google Calendar
type CalendarConfig struct {
	Enabled      bool     `toml:"enabled"`
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	Timeout      Duration `toml:"timeout"`
}

// NotificationsConfig общие параметры отправки уведомлений
type NotificationsConfig struct {
	Timeout Duration `toml:"timeout"`
}

// TelegramConfig Telegram Bot API
type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
	APIURL   string `toml:"api_url"`
}

// LineConfig LINE Messaging API
type LineConfig struct {
	ChannelToken string `toml:"channel_token"`
	APIURL       string `toml:"api_url"`
}

// EmailConfig SMTP
type EmailConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

// Duration длительность в формате time.ParseDuration ("15m", "24h")
type Duration struct {
	time.Duration
}

// UnmarshalText реализует encoding.TextUnmarshaler для toml
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText реализует encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load загружает конфигурацию из файла, применяет значения по умолчанию и переменные окружения
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadConfig, path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse разбирает конфигурацию из строки (используется в тестах)
func Parse(data string) (*Config, error) {
	cfg := Default()

	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadConfig, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет значения и загружает часовой пояс салона
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port=%d", ErrInvalidConfig, c.Server.HTTPPort)
	}

	loc, err := time.LoadLocation(c.Salon.Timezone)
	if err != nil {
		return fmt.Errorf("%w: salon.timezone=%q: %v", ErrInvalidConfig, c.Salon.Timezone, err)
	}
	c.Salon.location = loc

	if c.Salon.SlotStepMinutes < 5 || c.Salon.SlotStepMinutes > 24*60 {
		return fmt.Errorf("%w: salon.slot_step_minutes=%d", ErrInvalidConfig, c.Salon.SlotStepMinutes)
	}
	if c.Booking.HoldTimeout.Duration <= 0 {
		return fmt.Errorf("%w: booking.hold_timeout must be positive", ErrInvalidConfig)
	}
	if c.Booking.MinNoticeMinutes < 0 {
		return fmt.Errorf("%w: booking.min_notice_minutes must not be negative", ErrInvalidConfig)
	}
	if c.Reminders.Lookahead.Duration <= 0 || c.Reminders.ClaimTTL.Duration <= 0 {
		return fmt.Errorf("%w: reminders.lookahead and reminders.claim_ttl must be positive", ErrInvalidConfig)
	}
	if c.Reminders.BatchSize <= 0 {
		return fmt.Errorf("%w: reminders.batch_size must be positive", ErrInvalidConfig)
	}
	if c.Worker.Workers <= 0 || c.Worker.QueueSize <= 0 {
		return fmt.Errorf("%w: worker.workers and worker.queue_size must be positive", ErrInvalidConfig)
	}
	if c.Kafka.Topic == "" && len(c.Kafka.Brokers) > 0 {
		return fmt.Errorf("%w: kafka.topic is required when brokers are set", ErrInvalidConfig)
	}

	return nil
}

// Default конфигурация по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			DBName:          "salon",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{Level: "info"},
		Metrics: MetricsConfig{
			Enabled:     true,
			Path:        "/metrics",
			ServiceName: "salon-scheduler",
		},
		Tracing: TracingConfig{SampleRatio: 1},
		Salon: SalonConfig{
			Timezone:        "UTC",
			SlotStepMinutes: 30,
			Currency:        "usd",
		},
		Booking: BookingConfig{
			HoldTimeout:   Duration{15 * time.Minute},
			CompleteGrace: Duration{time.Hour},
		},
		Reminders: RemindersConfig{
			Lookahead:    Duration{24 * time.Hour},
			SendInterval: Duration{200 * time.Millisecond},
			ClaimTTL:     Duration{10 * time.Minute},
			BatchSize:    200,
		},
		Cache: CacheConfig{
			Enabled:  true,
			SlotsTTL: Duration{time.Minute},
		},
		Kafka: KafkaConfig{Topic: "salon.appointments"},
		Worker: WorkerConfig{
			Workers:     4,
			QueueSize:   256,
			TaskTimeout: Duration{30 * time.Second},
		},
		Sweeps: SweepsConfig{LockTTL: Duration{5 * time.Minute}},
		Payments: PaymentsConfig{
			WebhookTolerance: Duration{5 * time.Minute},
			Timeout:          Duration{10 * time.Second},
		},
		Calendar:      CalendarConfig{Timeout: Duration{10 * time.Second}},
		Notifications: NotificationsConfig{Timeout: Duration{10 * time.Second}},
		Telegram:      TelegramConfig{APIURL: "https://api.telegram.org"},
		Line:          LineConfig{APIURL: "https://api.line.me"},
		Email:         EmailConfig{Port: 587},
	}
}

// applyEnv подставляет секреты из окружения
func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"SALON_DB_PASSWORD":           &c.Database.Password,
		"SALON_REDIS_PASSWORD":        &c.Redis.Password,
		"SALON_SWEEPS_TOKEN":          &c.Sweeps.Token,
		"SALON_STRIPE_SECRET_KEY":     &c.Payments.SecretKey,
		"SALON_STRIPE_WEBHOOK_SECRET": &c.Payments.WebhookSecret,
		"SALON_GOOGLE_CLIENT_SECRET":  &c.Calendar.ClientSecret,
		"SALON_TELEGRAM_BOT_TOKEN":    &c.Telegram.BotToken,
		"SALON_LINE_CHANNEL_TOKEN":    &c.Line.ChannelToken,
		"SALON_SMTP_PASSWORD":         &c.Email.Password,
	}
	for env, target := range overrides {
		if v, ok := os.LookupEnv(env); ok {
			*target = v
		}
	}
}
