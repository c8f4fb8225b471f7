package backend

import (
	"fmt"
	"time"

	"holdings/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite holds holdings for the sqlite backend and snapshots for all.
	SQLiteDBPath string

	// Memory backend seed directory, also used to seed an empty SQLite store.
	DataDirectory string

	// REST backend
	UpstreamURL          string
	UpstreamTimeout      time.Duration
	UpstreamEnvelopePath string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	RESTBackend   BackendType = "rest"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, RESTBackend:
		return true
	default:
		return false
	}
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:                 backendType,
		SQLiteDBPath:         appConfig.SQLiteDBPath,
		DataDirectory:        appConfig.DataDirectory,
		UpstreamURL:          appConfig.UpstreamURL,
		UpstreamTimeout:      appConfig.UpstreamTimeout,
		UpstreamEnvelopePath: appConfig.UpstreamEnvelopePath,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case RESTBackend:
		if c.UpstreamURL == "" {
			return fmt.Errorf("upstream URL is required for rest backend")
		}
		if c.UpstreamTimeout <= 0 {
			return fmt.Errorf("upstream timeout must be positive for rest backend")
		}
	case MemoryBackend:
		// DataDirectory defaults to "data" if empty
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, RESTBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
