package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"coachbook/pkg/client"
	"coachbook/pkg/logger"
)

var timeOfDayRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	KafkaBrokers       []string
	KafkaEventsTopic   string
	KafkaRepliesTopic  string
	KafkaDLQTopic      string
	KafkaConsumerGroup string

	WaiverServiceURL string
	RequireWaiver    bool

	// Booking policy. Notice and buffer apply to client self-service
	// slot generation only; the trainer grid deliberately skips them.
	MinNoticeHours         int
	CancelNoticeHours      int
	BufferMinutes          int
	SlotIntervalMinutes    int
	LookaheadDays          int
	GraceMinutes           int
	DefaultDurationMinutes int
	DayStart               string
	DayEnd                 string
	Timezone               string

	SweepInterval  time.Duration
	SweepBatchSize int

	Location *time.Location

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		KafkaBrokers:       splitAndTrim(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers)),
		KafkaEventsTopic:   getEnvStr(EnvKafkaEventsTopic, DefaultKafkaEventsTopic),
		KafkaRepliesTopic:  getEnvStr(EnvKafkaRepliesTopic, DefaultKafkaRepliesTopic),
		KafkaDLQTopic:      getEnvStr(EnvKafkaDLQTopic, DefaultKafkaDLQTopic),
		KafkaConsumerGroup: getEnvStr(EnvKafkaConsumerGroup, DefaultKafkaConsumerGroup),

		WaiverServiceURL: getEnvStr(EnvWaiverServiceURL, ""),
		RequireWaiver:    getEnvBool(EnvRequireWaiver, DefaultRequireWaiver),

		MinNoticeHours:         getEnvNum(EnvMinNoticeHours, DefaultMinNoticeHours),
		CancelNoticeHours:      getEnvNum(EnvCancelNoticeHours, DefaultCancelNoticeHours),
		BufferMinutes:          getEnvNum(EnvBufferMinutes, DefaultBufferMinutes),
		SlotIntervalMinutes:    getEnvNum(EnvSlotIntervalMinutes, DefaultSlotIntervalMinutes),
		LookaheadDays:          getEnvNum(EnvLookaheadDays, DefaultLookaheadDays),
		GraceMinutes:           getEnvNum(EnvGraceMinutes, DefaultGraceMinutes),
		DefaultDurationMinutes: getEnvNum(EnvDefaultDurationMinutes, DefaultDefaultDurationMinutes),
		DayStart:               getEnvStr(EnvDayStart, DefaultDayStart),
		DayEnd:                 getEnvStr(EnvDayEnd, DefaultDayEnd),
		Timezone:               getEnvStr(EnvTimezone, DefaultTimezone),

		SweepInterval:  getEnvDuration(EnvSweepInterval, DefaultSweepInterval),
		SweepBatchSize: getEnvNum(EnvSweepBatchSize, DefaultSweepBatchSize),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, logger.INFO),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.New(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	for name, d := range map[string]time.Duration{
		"RequestTimeout":  cfg.RequestTimeout,
		"IdempotencyTTL":  cfg.IdempotencyTTL,
		"ReadTimeout":     cfg.ReadTimeout,
		"WriteTimeout":    cfg.WriteTimeout,
		"IdleTimeout":     cfg.IdleTimeout,
		"ShutdownTimeout": cfg.ShutdownTimeout,
		"SweepInterval":   cfg.SweepInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if len(cfg.KafkaBrokers) == 0 {
		errs = append(errs, "KafkaBrokers cannot be empty")
	}

	if cfg.MinNoticeHours < 0 {
		errs = append(errs, fmt.Sprintf("MinNoticeHours cannot be negative, got: %d", cfg.MinNoticeHours))
	}
	if cfg.CancelNoticeHours < 0 {
		errs = append(errs, fmt.Sprintf("CancelNoticeHours cannot be negative, got: %d", cfg.CancelNoticeHours))
	}
	if cfg.BufferMinutes < 0 {
		errs = append(errs, fmt.Sprintf("BufferMinutes cannot be negative, got: %d", cfg.BufferMinutes))
	}
	if cfg.SlotIntervalMinutes <= 0 {
		errs = append(errs, fmt.Sprintf("SlotIntervalMinutes must be positive, got: %d", cfg.SlotIntervalMinutes))
	}
	if cfg.LookaheadDays < 1 || cfg.LookaheadDays > 365 {
		errs = append(errs, fmt.Sprintf("LookaheadDays must be between 1 and 365, got: %d", cfg.LookaheadDays))
	}
	if cfg.GraceMinutes < 0 {
		errs = append(errs, fmt.Sprintf("GraceMinutes cannot be negative, got: %d", cfg.GraceMinutes))
	}
	if cfg.DefaultDurationMinutes <= 0 {
		errs = append(errs, fmt.Sprintf("DefaultDurationMinutes must be positive, got: %d", cfg.DefaultDurationMinutes))
	}
	if cfg.SweepBatchSize <= 0 {
		errs = append(errs, fmt.Sprintf("SweepBatchSize must be positive, got: %d", cfg.SweepBatchSize))
	}

	if !timeOfDayRegex.MatchString(cfg.DayStart) {
		errs = append(errs, fmt.Sprintf("DayStart must be in HH:MM format (00:00-23:59), got: %s", cfg.DayStart))
	}
	if !timeOfDayRegex.MatchString(cfg.DayEnd) {
		errs = append(errs, fmt.Sprintf("DayEnd must be in HH:MM format (00:00-23:59), got: %s", cfg.DayEnd))
	}
	if timeOfDayRegex.MatchString(cfg.DayStart) && timeOfDayRegex.MatchString(cfg.DayEnd) && cfg.DayStart >= cfg.DayEnd {
		errs = append(errs, fmt.Sprintf("DayStart (%s) must be before DayEnd (%s)", cfg.DayStart, cfg.DayEnd))
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		errs = append(errs, fmt.Sprintf("Timezone is not a valid IANA zone, got: %s", cfg.Timezone))
	} else {
		cfg.Location = loc
	}

	if len(errs) > 0 {
		msg := "Configuration validation failed:\n"
		for i, e := range errs {
			msg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", msg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"port", cfg.Port,
		"kafka_brokers", cfg.KafkaBrokers,
		"kafka_events_topic", cfg.KafkaEventsTopic,
		"kafka_replies_topic", cfg.KafkaRepliesTopic,
		"waiver_service_set", cfg.WaiverServiceURL != "",
		"require_waiver", cfg.RequireWaiver,
		"min_notice_hours", cfg.MinNoticeHours,
		"cancel_notice_hours", cfg.CancelNoticeHours,
		"buffer_minutes", cfg.BufferMinutes,
		"slot_interval_minutes", cfg.SlotIntervalMinutes,
		"lookahead_days", cfg.LookaheadDays,
		"default_duration_minutes", cfg.DefaultDurationMinutes,
		"day_start", cfg.DayStart,
		"day_end", cfg.DayEnd,
		"timezone", cfg.Timezone,
		"sweep_interval", cfg.SweepInterval,
		"sweep_batch_size", cfg.SweepBatchSize,
	)
}

// redactMongoURI hides credentials embedded in the connection string.
func redactMongoURI(uri string) string {
	re := regexp.MustCompile(`(mongodb(\+srv)?://)([^:@/]+):([^@/]+)@`)
	return re.ReplaceAllString(uri, "${1}***:***@")
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
