package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "coachbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultKafkaBrokers       = "localhost:9092"
	DefaultKafkaEventsTopic   = "booking-events"
	DefaultKafkaRepliesTopic  = "booking-replies"
	DefaultKafkaDLQTopic      = "dlq-scheduling"
	DefaultKafkaConsumerGroup = "coachbook-confirmations"

	DefaultRequireWaiver = true

	DefaultMinNoticeHours         = 24
	DefaultCancelNoticeHours      = 12
	DefaultBufferMinutes          = 15
	DefaultSlotIntervalMinutes    = 15
	DefaultLookaheadDays          = 30
	DefaultGraceMinutes           = 5
	DefaultDefaultDurationMinutes = 60
	DefaultDayStart               = "06:00"
	DefaultDayEnd                 = "21:00"
	DefaultTimezone               = "Australia/Brisbane"

	DefaultSweepInterval  = 60 * time.Second
	DefaultSweepBatchSize = 100

	DefaultPaginationLimit = 50
	MaxPaginationLimit     = 100
)

// NormalizePaginationLimit clamps a caller-provided limit into the
// supported range, substituting the default for missing values.
func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		return DefaultPaginationLimit
	}
	if limit > MaxPaginationLimit {
		return MaxPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	if offset < 0 {
		return 0
	}
	return offset
}
