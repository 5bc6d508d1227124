package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvKafkaBrokers       = "KAFKA_BROKERS"
	EnvKafkaEventsTopic   = "KAFKA_EVENTS_TOPIC"
	EnvKafkaRepliesTopic  = "KAFKA_REPLIES_TOPIC"
	EnvKafkaDLQTopic      = "KAFKA_DLQ_TOPIC"
	EnvKafkaConsumerGroup = "KAFKA_CONSUMER_GROUP"

	EnvWaiverServiceURL = "WAIVER_SERVICE_URL"
	EnvRequireWaiver    = "REQUIRE_WAIVER"

	EnvMinNoticeHours         = "MIN_NOTICE_HOURS"
	EnvCancelNoticeHours      = "CANCEL_NOTICE_HOURS"
	EnvBufferMinutes          = "BUFFER_MINUTES"
	EnvSlotIntervalMinutes    = "SLOT_INTERVAL_MINUTES"
	EnvLookaheadDays          = "LOOKAHEAD_DAYS"
	EnvGraceMinutes           = "GRACE_MINUTES"
	EnvDefaultDurationMinutes = "DEFAULT_DURATION_MINUTES"
	EnvDayStart               = "DAY_START"
	EnvDayEnd                 = "DAY_END"
	EnvTimezone               = "TIMEZONE"

	EnvSweepInterval  = "SWEEP_INTERVAL"
	EnvSweepBatchSize = "SWEEP_BATCH_SIZE"
)
