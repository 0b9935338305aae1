package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type Config struct {
	// Application
	Version     string
	Environment string
	InstanceID  string
	Port        int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Storage collaborator
	// memory: zones and cameras seeded from SeedFile, detections kept in process
	// postgres: gorm + PostGIS
	StoreDriver  string
	DatabaseURL  string
	SeedFile     string
	DBMaxConns   int
	DBSlowQuery  time.Duration

	// Zone lookup
	// memory: in-process index refreshed from the store
	// postgis: ST_Contains / ST_DWithin queries against the database
	ZoneLookup          string
	ZoneRefreshInterval time.Duration
	DefaultNearbyMeters float64

	// Detection workers
	DetectionWorkerType string
	ClassesOfInterest   map[int]string

	// Dispatch
	FrameRateLimit float64 // frames per second per camera, 0 disables
	FrameRateBurst int
	FrameCacheSize int
	FrameCacheTTL  time.Duration

	// Connections
	SessionSendBuffer int
	ObserverBuffer    int
	WSReadLimit       int64
	WSPingInterval    time.Duration

	// Pipeline
	PipelineConcurrency int64

	// AI Processing (synchronous gRPC detector)
	AIGRPCURL    string
	AIGRPCMethod string
	AITimeout    time.Duration

	// Snapshots
	// local: SnapshotDir, minio: object store, none: disabled
	SnapshotStore   string
	SnapshotDir     string
	SnapshotQuality int
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioSecure     bool

	// External event sink
	// none | nats | kafka
	EventSink string

	// NATS (for mirroring events)
	NatsURL            string
	NatsSubjectPrefix  string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int

	// Kafka (for mirroring events)
	KafkaBrokers []string
	KafkaTopic   string

	// Alerting
	AlertZoneCategories []string
	AlertsCooldown      time.Duration

	// Swagger Configuration
	SwaggerHost string

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

// defaultClasses mirrors the COCO ids the inference workers report.
var defaultClasses = "0:person,1:bicycle,2:car,3:motorcycle,14:bird,15:cat,16:dog,17:horse,18:sheep,19:cow,20:elephant,21:bear,22:zebra,23:giraffe"

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found or error loading .env file, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		InstanceID:  getEnv("INSTANCE_ID", "control-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// Storage
		StoreDriver: getEnv("STORE_DRIVER", "memory"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SeedFile:    getEnv("SEED_FILE", "seed.yaml"),
		DBMaxConns:  getEnvInt("DB_MAX_CONNS", 20),
		DBSlowQuery: getEnvDuration("DB_SLOW_QUERY", 100*time.Millisecond),

		// Zone lookup
		ZoneLookup:          getEnv("ZONE_LOOKUP", "memory"),
		ZoneRefreshInterval: getEnvDuration("ZONE_REFRESH_INTERVAL", 30*time.Second),
		DefaultNearbyMeters: getEnvFloat("DEFAULT_NEARBY_METERS", 5000),

		// Detection workers
		DetectionWorkerType: getEnv("DETECTION_WORKER_TYPE", "yolo_inference"),
		ClassesOfInterest:   ParseClasses(getEnv("CLASSES_OF_INTEREST", defaultClasses)),

		// Dispatch
		FrameRateLimit: getEnvFloat("FRAME_RATE_LIMIT", 0),
		FrameRateBurst: getEnvInt("FRAME_RATE_BURST", 5),
		FrameCacheSize: getEnvInt("FRAME_CACHE_SIZE", 256),
		FrameCacheTTL:  getEnvDuration("FRAME_CACHE_TTL", 30*time.Second),

		// Connections
		SessionSendBuffer: getEnvInt("SESSION_SEND_BUFFER", 64),
		ObserverBuffer:    getEnvInt("OBSERVER_BUFFER", 32),
		WSReadLimit:       int64(getEnvInt("WS_READ_LIMIT", 8*1024*1024)),
		WSPingInterval:    getEnvDuration("WS_PING_INTERVAL", 25*time.Second),

		// Pipeline
		PipelineConcurrency: int64(getEnvInt("PIPELINE_CONCURRENCY", 16)),

		// AI Processing
		AIGRPCURL:    getEnv("AI_GRPC_URL", ""),
		AIGRPCMethod: getEnv("AI_GRPC_METHOD", "/detection.DetectionService/InferDetection"),
		AITimeout:    getEnvDuration("AI_TIMEOUT", 5*time.Second),

		// Snapshots
		SnapshotStore:   getEnv("SNAPSHOT_STORE", "local"),
		SnapshotDir:     getEnv("SNAPSHOT_DIR", "./snapshots"),
		SnapshotQuality: getEnvInt("SNAPSHOT_QUALITY", 90),
		MinioEndpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:  getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:  getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:     getEnv("MINIO_BUCKET", "snapshots"),
		MinioSecure:     getEnvBool("MINIO_SECURE", false),

		// Event sink
		EventSink: getEnv("EVENT_SINK", "none"),

		// NATS
		NatsURL:            getNatsURL(),
		NatsSubjectPrefix:  getEnv("NATS_SUBJECT_PREFIX", "surveillance"),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited

		// Kafka
		KafkaBrokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "surveillance-events"),

		// Alerting
		AlertZoneCategories: getEnvList("ALERT_ZONE_CATEGORIES", []string{"core"}),
		AlertsCooldown:      getEnvDuration("ALERTS_COOLDOWN", 10*time.Second),

		SwaggerHost: getEnv("SWAGGER_HOST", "localhost:8000"),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// ParseClasses parses "id:name,id:name" into an allow-list. Entries without an
// id ("tiger") are keyed by negative ids so name matching still works.
func ParseClasses(raw string) map[int]string {
	classes := make(map[int]string)
	next := -1
	for _, entry := range lo.Compact(lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})) {
		id, name, found := strings.Cut(entry, ":")
		if !found {
			classes[next] = strings.ToLower(entry)
			next--
			continue
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil {
			log.Warn().Str("entry", entry).Msg("Invalid class entry, skipping")
			continue
		}
		classes[parsed] = strings.ToLower(strings.TrimSpace(name))
	}
	return classes
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return lo.Compact(lo.Map(strings.Split(value, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}

// Helper functions for Docker environment detection
func isRunningInDocker() bool {
	if os.Getenv("DOCKER_CONTAINER") == "true" {
		return true
	}

	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	return false
}

// getNatsURL returns the appropriate NATS URL based on environment
func getNatsURL() string {
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		return envURL
	}

	// If running in Docker, use service name; otherwise use localhost
	if isRunningInDocker() {
		return "nats://nats:4222"
	}

	return "nats://localhost:4222"
}
