package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "lockerd"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultExpirationSweepInterval = 1 * time.Minute
	DefaultReminderSweepInterval   = 5 * time.Minute
	DefaultReminderLeadTime        = 1 * time.Hour
	DefaultAdmissionLockTTL        = 10 * time.Second

	DefaultSMTPHost = "localhost"
	DefaultSMTPPort = 1025
	DefaultSMTPFrom = "noreply@locker.local"

	DefaultJWTTTL = 24 * time.Hour

	DefaultEventsTopic = "locker.reservations"

	DefaultPaginationLimit = 100
)
