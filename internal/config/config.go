package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisPass string
	RedisDB   int

	IdempTTLSecs int

	LogLevel  string
	LogFormat string // "json" or "console"

	Conductor ConductorConfig
}

// ConductorConfig configures the orchestrator client and the worker loops.
// An empty BaseURL (or Enabled=false) leaves the client in offline mode.
type ConductorConfig struct {
	BaseURL      string
	KeyID        string
	KeySecret    string
	Enabled      bool
	WorkerID     string
	PollInterval time.Duration
	ErrorBackoff time.Duration
	// Paths to the workflow / task definition JSON documents registered at
	// API startup. Empty means skip registration.
	WorkflowDefPath string
	TaskDefsPath    string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getenvBool(k string, d bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return d
}

func defaultWorkerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return host + "_loanwf"
}

func Load() *Config {
	c := &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "loanworkflow"),
		MySQLUser: getenv("MYSQL_USER", "loanworkflow"),
		MySQLPass: getenv("MYSQL_PASS", "loanworkflow"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		RedisPass:    getenv("REDIS_PASS", ""),
		RedisDB:      getenvInt("REDIS_DB", 0),
		IdempTTLSecs: getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),
	}

	baseURL := getenv("CONDUCTOR_BASE_URL", "")
	c.Conductor = ConductorConfig{
		BaseURL:         baseURL,
		KeyID:           getenv("CONDUCTOR_KEY_ID", ""),
		KeySecret:       getenv("CONDUCTOR_KEY_SECRET", ""),
		Enabled:         getenvBool("CONDUCTOR_ENABLED", baseURL != ""),
		WorkerID:        getenv("CONDUCTOR_WORKER_ID", defaultWorkerID()),
		PollInterval:    time.Duration(getenvInt("CONDUCTOR_POLL_INTERVAL_MS", 1000)) * time.Millisecond,
		ErrorBackoff:    time.Duration(getenvInt("CONDUCTOR_ERROR_BACKOFF_MS", 2000)) * time.Millisecond,
		WorkflowDefPath: getenv("CONDUCTOR_WORKFLOW_DEF", ""),
		TaskDefsPath:    getenv("CONDUCTOR_TASKDEFS", ""),
	}
	return c
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.Conductor.Enabled && c.Conductor.BaseURL == "" {
		return errors.New("CONDUCTOR_ENABLED set without CONDUCTOR_BASE_URL")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
