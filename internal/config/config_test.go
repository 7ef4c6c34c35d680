package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/rostertag/internal/config"
)

// validConfig returns a Config that passes Validate() with every optional
// infrastructure section switched on.
func validConfig() *config.Config {
	cfg := config.Default()
	cfg.Database.Enabled = true
	cfg.Database.User = "rostertag"
	cfg.Redis.Enabled = true
	cfg.Kafka.Enabled = true
	cfg.MinIO.Enabled = true
	return cfg
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validConfig().Validate())
	assert.NoError(t, config.Default().Validate())
}

func TestConfig_Validate_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"server port zero", func(c *config.Config) { c.Server.Port = 0 }, "server.port"},
		{"server port too large", func(c *config.Config) { c.Server.Port = 65536 }, "server.port"},
		{"server mode", func(c *config.Config) { c.Server.Mode = "production" }, "server.mode"},
		{"rate limit", func(c *config.Config) { c.Server.RateLimitRPS = -1 }, "rate limit"},
		{"numeric bounds", func(c *config.Config) { c.Extraction.NumMinLen = 9 }, "extraction"},
		{"text column", func(c *config.Config) { c.Extraction.TextColumn = "" }, "extraction"},
		{"log level", func(c *config.Config) { c.Log.Level = "verbose" }, "log.level"},
		{"log format", func(c *config.Config) { c.Log.Format = "xml" }, "log.format"},
		{"database host", func(c *config.Config) { c.Database.Host = "" }, "database.host"},
		{"database port", func(c *config.Config) { c.Database.Port = 0 }, "database.port"},
		{"database user", func(c *config.Config) { c.Database.User = "" }, "database.user"},
		{"database name", func(c *config.Config) { c.Database.DBName = "" }, "database.db_name"},
		{"database max conns", func(c *config.Config) { c.Database.MaxConns = 0 }, "database.max_conns"},
		{"redis addr", func(c *config.Config) { c.Redis.Addr = "" }, "redis.addr"},
		{"redis db", func(c *config.Config) { c.Redis.DB = -1 }, "redis.db"},
		{"kafka brokers", func(c *config.Config) { c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"kafka group", func(c *config.Config) { c.Kafka.GroupID = "" }, "kafka.group_id"},
		{"kafka topics", func(c *config.Config) { c.Kafka.ResultTopic = "" }, "kafka.request_topic"},
		{"kafka retries", func(c *config.Config) { c.Kafka.MaxRetries = -1 }, "kafka.max_retries"},
		{"minio endpoint", func(c *config.Config) { c.MinIO.Endpoint = "" }, "minio.endpoint"},
		{"minio bucket", func(c *config.Config) { c.MinIO.Bucket = "" }, "minio.bucket"},
		{"worker concurrency", func(c *config.Config) { c.Worker.Concurrency = 0 }, "worker.concurrency"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_Validate_DisabledSectionsSkipped(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Database.User = ""
	cfg.Redis.Addr = ""
	cfg.Kafka.Brokers = nil
	cfg.MinIO.Bucket = ""
	assert.NoError(t, cfg.Validate())
}

func TestServerConfig_Addr(t *testing.T) {
	t.Parallel()
	s := config.ServerConfig{Host: "127.0.0.1", Port: 8081}
	assert.Equal(t, "127.0.0.1:8081", s.Addr())
}

func TestConfig_SubStructs_ZeroValues(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	assert.Equal(t, 0, cfg.Server.Port)
	assert.Equal(t, "", cfg.Server.Mode)
	assert.Equal(t, "", cfg.Database.Host)
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.Nil(t, cfg.Kafka.Brokers)
	assert.Equal(t, "", cfg.Log.Level)
	assert.Equal(t, "", cfg.Extraction.TextColumn)
	assert.Equal(t, 0, cfg.Worker.Concurrency)
}
