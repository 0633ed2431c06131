package pipeline

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lexibase/lexgraph/lock"
	"github.com/lexibase/lexgraph/store"
)

// Config selects the backing store, the concept lock and the log level of
// a pipeline run. Scoring weights are deliberately not configurable: they
// are part of the stored data format.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Lock    LockConfig    `yaml:"lock"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig selects and parameterizes the graph store backend.
type StoreConfig struct {
	// Backend is one of "memory", "redis" or "sqlite". Defaults to
	// "memory".
	Backend string `yaml:"backend"`

	// Redis holds connection settings for the "redis" backend.
	Redis RedisConfig `yaml:"redis"`

	// SQLite holds settings for the "sqlite" backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// RedisConfig holds the redis backend settings.
type RedisConfig struct {
	// URL is a redis connection URL (redis://host:port/db).
	URL string `yaml:"url"`

	// Namespace prefixes every key. Defaults to "lexgraph".
	Namespace string `yaml:"namespace"`
}

// SQLiteConfig holds the sqlite backend settings.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`
}

// LockConfig selects and parameterizes the concept-creation lock.
type LockConfig struct {
	// Backend is "local" for the in-process keyed mutex or "etcd" for
	// the distributed lock. Defaults to "local".
	Backend string `yaml:"backend"`

	// Etcd holds connection settings for the "etcd" backend.
	Etcd EtcdLockConfig `yaml:"etcd"`
}

// EtcdLockConfig holds the etcd lock settings. TTL is the lease TTL in
// seconds.
type EtcdLockConfig struct {
	Endpoints []string `yaml:"endpoints"`
	Namespace string   `yaml:"namespace"`
	TTL       int      `yaml:"ttl"`
}

// LoggingConfig holds the log settings.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn" or "error". Defaults to
	// "info".
	Level string `yaml:"level"`
}

// DefaultConfig returns the zero-infrastructure configuration: in-memory
// store, in-process lock, info-level logging.
func DefaultConfig() Config {
	return Config{
		Store:   StoreConfig{Backend: "memory"},
		Lock:    LockConfig{Backend: "local"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads and validates a YAML config file. Missing fields keep
// their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the backend selectors and their required parameters.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case "", "memory":
	case "redis":
		if c.Store.Redis.URL == "" {
			return fmt.Errorf("store backend %q requires redis.url", c.Store.Backend)
		}
	case "sqlite":
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("store backend %q requires sqlite.path", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	switch c.Lock.Backend {
	case "", "local":
	case "etcd":
		if len(c.Lock.Etcd.Endpoints) == 0 {
			return fmt.Errorf("lock backend %q requires etcd.endpoints", c.Lock.Backend)
		}
	default:
		return fmt.Errorf("unknown lock backend %q", c.Lock.Backend)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

// OpenStore builds the graph store the config selects.
func (c Config) OpenStore() (store.GraphStore, error) {
	switch c.Store.Backend {
	case "", "memory":
		return store.NewMemStore(), nil
	case "redis":
		return store.NewRedisStore(store.RedisOptions{
			URL:       c.Store.Redis.URL,
			Namespace: c.Store.Redis.Namespace,
		})
	case "sqlite":
		return store.NewSQLiteStoreWithDSN(c.Store.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
}

// OpenLocker builds the concept lock the config selects.
func (c Config) OpenLocker() (lock.Locker, error) {
	switch c.Lock.Backend {
	case "", "local":
		return lock.NewKeyedMutex(), nil
	case "etcd":
		return lock.NewEtcdLocker(lock.EtcdConfig{
			Endpoints: c.Lock.Etcd.Endpoints,
			Namespace: c.Lock.Etcd.Namespace,
			TTL:       c.Lock.Etcd.TTL,
		})
	default:
		return nil, fmt.Errorf("unknown lock backend %q", c.Lock.Backend)
	}
}

// SlogLevel maps the configured level name to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
