package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rostertag/internal/intelligence/roster_extractor"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost        = "0.0.0.0"
	DefaultServerPort        = 8080
	DefaultServerMode        = "release"
	DefaultReadTimeout       = 30 * time.Second
	DefaultWriteTimeout      = 60 * time.Second
	DefaultMaxBodySize       = 32 << 20
	DefaultShutdownTimeout   = 15 * time.Second
	DefaultDBHost            = "localhost"
	DefaultDBPort            = 5432
	DefaultDBName            = "rostertag"
	DefaultDBMaxConns        = 10
	DefaultRedisAddr         = "localhost:6379"
	DefaultRedisKeyPrefix    = "rostertag:"
	DefaultResultTTL         = 24 * time.Hour
	DefaultKafkaBroker       = "localhost:9092"
	DefaultKafkaGroupID      = "rostertag-workers"
	DefaultRequestTopic      = "rostertag.extract.request"
	DefaultResultTopic       = "rostertag.extract.result"
	DefaultDLQTopic          = "rostertag.extract.dlq"
	DefaultKafkaMaxRetries   = 3
	DefaultMinIOEndpoint     = "localhost:9000"
	DefaultMinIOBucket       = "rostertag"
	DefaultMetricsNamespace  = "rostertag"
	DefaultMetricsPath       = "/metrics"
	DefaultLogLevel          = logging.LevelInfo
	DefaultLogFormat         = "json"
	DefaultWorkerConcurrency = 2
	DefaultWorkerHealthAddr  = ":9090"
	DefaultJobTimeout        = 10 * time.Minute
)

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// It runs after unmarshalling and before Validate() so that optional but
// defaulted fields are never seen as missing.
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with its default.  Fields
// already set by the caller are left unchanged.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// ── Extraction ────────────────────────────────────────────────────────────
	// Zero is meaningful for most engine knobs, so only a wholly unset section
	// is replaced.
	if cfg.Extraction.TextColumn == "" && cfg.Extraction.NumMaxLen == 0 {
		cfg.Extraction = roster_extractor.DefaultExtractionConfig()
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.ResultTTL == 0 {
		cfg.Redis.ResultTTL = DefaultResultTTL
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.RequestTopic == "" {
		cfg.Kafka.RequestTopic = DefaultRequestTopic
	}
	if cfg.Kafka.ResultTopic == "" {
		cfg.Kafka.ResultTopic = DefaultResultTopic
	}
	if cfg.Kafka.DLQTopic == "" {
		cfg.Kafka.DLQTopic = DefaultDLQTopic
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = DefaultKafkaMaxRetries
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.HealthAddr == "" {
		cfg.Worker.HealthAddr = DefaultWorkerHealthAddr
	}
	if cfg.Worker.JobTimeout == 0 {
		cfg.Worker.JobTimeout = DefaultJobTimeout
	}
}

// registerDefaults declares every key on v.  Viper only binds environment
// variables for keys it knows about, so this is what makes a file-less
// LoadFromEnv work.
func registerDefaults(v *viper.Viper) {
	ex := roster_extractor.DefaultExtractionConfig()

	v.SetDefault("server.host", DefaultServerHost)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.mode", DefaultServerMode)
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
	v.SetDefault("server.max_body_size", DefaultMaxBodySize)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("server.rate_limit_rps", 0)
	v.SetDefault("server.rate_limit_burst", 0)

	v.SetDefault("extraction.stem_threshold", ex.StemThreshold)
	v.SetDefault("extraction.max_suffix_len", ex.MaxSuffixLen)
	v.SetDefault("extraction.num_min_len", ex.NumMinLen)
	v.SetDefault("extraction.num_max_len", ex.NumMaxLen)
	v.SetDefault("extraction.alpha_letters", ex.AlphaLetters)
	v.SetDefault("extraction.alpha_tokens", []string{})
	v.SetDefault("extraction.special_num_lengths", []int{})
	v.SetDefault("extraction.case_insensitive", ex.CaseInsensitive)
	v.SetDefault("extraction.text_column", ex.TextColumn)
	v.SetDefault("extraction.notes_column", ex.NotesColumn)
	v.SetDefault("extraction.workers", ex.Workers)
	v.SetDefault("extraction.match_timeout", ex.MatchTimeout)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.output_paths", []string{"stdout"})
	v.SetDefault("log.error_output_paths", []string{"stderr"})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)
	v.SetDefault("metrics.path", DefaultMetricsPath)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", DefaultDBHost)
	v.SetDefault("database.port", DefaultDBPort)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.db_name", DefaultDBName)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", DefaultDBMaxConns)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 10*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 0)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.result_ttl", DefaultResultTTL)
	v.SetDefault("redis.key_prefix", DefaultRedisKeyPrefix)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{DefaultKafkaBroker})
	v.SetDefault("kafka.group_id", DefaultKafkaGroupID)
	v.SetDefault("kafka.request_topic", DefaultRequestTopic)
	v.SetDefault("kafka.result_topic", DefaultResultTopic)
	v.SetDefault("kafka.dlq_topic", DefaultDLQTopic)
	v.SetDefault("kafka.max_retries", DefaultKafkaMaxRetries)
	v.SetDefault("kafka.retry_backoff", time.Second)
	v.SetDefault("kafka.min_bytes", 1)
	v.SetDefault("kafka.max_bytes", 10<<20)
	v.SetDefault("kafka.max_wait", time.Second)
	v.SetDefault("kafka.auto_create_topics", false)
	v.SetDefault("kafka.num_partitions", 3)
	v.SetDefault("kafka.replication_factor", 1)

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", DefaultMinIOEndpoint)
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", DefaultMinIOBucket)
	v.SetDefault("minio.region", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.presign_expiry", 15*time.Minute)
	v.SetDefault("minio.result_retention_days", 0)

	v.SetDefault("worker.concurrency", DefaultWorkerConcurrency)
	v.SetDefault("worker.health_addr", DefaultWorkerHealthAddr)
	v.SetDefault("worker.job_timeout", DefaultJobTimeout)
}

// Default returns a fully-defaulted Config matching what Load produces with
// no file and no environment.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Metrics.Enabled = true
	cfg.Database.AutoMigrate = true
	return cfg
}

//Personal.AI order the ending
