// Package config holds the process-level configuration (§6.4):
// worker pool size, per-task timeout, upload limits, and the transport
// bind address. It is loaded once at startup and injected into the
// components that need it — never read ambiently from globals.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the fully-resolved process configuration.
type Config struct {
	MaxConcurrentTasks int
	TaskTimeout        time.Duration
	UploadMaxBytes     int64
	AllowedExtensions  []string
	ListenHost         string
	ListenPort         int
	UploadsDir         string
	ResultsDir         string
}

// Default returns the documented defaults: 5 concurrent tasks, a one-hour
// per-task budget, a 100 MiB upload ceiling, and the three supported
// tabular extensions.
func Default() Config {
	return Config{
		MaxConcurrentTasks: 5,
		TaskTimeout:        time.Hour,
		UploadMaxBytes:     100 << 20,
		AllowedExtensions:  []string{".csv", ".xlsx", ".xls"},
		ListenHost:         "0.0.0.0",
		ListenPort:         8080,
		UploadsDir:         "./data/uploads",
		ResultsDir:         "./data/results",
	}
}

// FromEnv overlays environment variables onto a base Config (typically
// Default()). Unset variables leave the corresponding field unchanged.
func FromEnv(base Config) (Config, error) {
	cfg := base

	if v := os.Getenv("RECONCILED_MAX_CONCURRENT_TASKS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("RECONCILED_MAX_CONCURRENT_TASKS: %w", err)
		}
		cfg.MaxConcurrentTasks = n
	}
	if v := os.Getenv("RECONCILED_TASK_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("RECONCILED_TASK_TIMEOUT_SECONDS: %w", err)
		}
		cfg.TaskTimeout = time.Duration(n) * time.Second
	}
	if v := os.Getenv("RECONCILED_UPLOAD_MAX_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("RECONCILED_UPLOAD_MAX_BYTES: %w", err)
		}
		cfg.UploadMaxBytes = n
	}
	if v := os.Getenv("RECONCILED_ALLOWED_EXTENSIONS"); v != "" {
		cfg.AllowedExtensions = strings.Split(v, ",")
	}
	if v := os.Getenv("RECONCILED_LISTEN_HOST"); v != "" {
		cfg.ListenHost = v
	}
	if v := os.Getenv("RECONCILED_LISTEN_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("RECONCILED_LISTEN_PORT: %w", err)
		}
		cfg.ListenPort = n
	}
	if v := os.Getenv("RECONCILED_UPLOADS_DIR"); v != "" {
		cfg.UploadsDir = v
	}
	if v := os.Getenv("RECONCILED_RESULTS_DIR"); v != "" {
		cfg.ResultsDir = v
	}

	return cfg, nil
}

// Addr formats the listen address for net/http's ListenAndServe.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ListenHost, c.ListenPort)
}

// ExtensionAllowed reports whether ext (including leading dot) is in the
// configured allow-list, case-insensitively.
func (c Config) ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(ext)
	for _, a := range c.AllowedExtensions {
		if strings.ToLower(a) == ext {
			return true
		}
	}
	return false
}
