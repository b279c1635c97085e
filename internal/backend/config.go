package backend

import (
	"fmt"
	"path/filepath"

	"freelanceflow/internal/config"
)

// BackendType names a store implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string { return string(bt) }

func (bt BackendType) IsValid() bool {
	return bt == SQLiteBackend || bt == MemoryBackend
}

// Config selects and locates a store. DataDirectory is where the memory
// backend mirrors aggregates; empty keeps it purely in memory.
type Config struct {
	Type          BackendType
	SQLiteDBPath  string
	DataDirectory string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s (want one of %v)", appConfig.DataBackend, GetBackendTypeStrings())
	}

	dataDir := "data"
	if appConfig.SQLiteDBPath != "" {
		dataDir = filepath.Dir(appConfig.SQLiteDBPath)
	}

	return Config{
		Type:          backendType,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		DataDirectory: dataDir,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	return nil
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := []BackendType{SQLiteBackend, MemoryBackend}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
