package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "bookingd"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	// Three attempts per requester per window mirrors the upstream product
	// behaviour; tests shrink both knobs.
	DefaultRateLimitAttempts = 3
	DefaultRateLimitWindow   = 1 * time.Minute

	// A lock older than the TTL is considered leaked by a request that never
	// finished and is reclaimed by the sweep.
	DefaultSlotLockTTL   = 2 * time.Minute
	DefaultSweepInterval = 5 * time.Minute

	DefaultBusyCacheTTL = 5 * time.Minute

	DefaultKafkaTopic = "booking.events"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
