package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvPath        = "LITEDB_PATH"
	EnvBusyTimeout = "LITEDB_BUSY_TIMEOUT"
	EnvTxLock      = "LITEDB_TXLOCK"
	EnvForeignKeys = "LITEDB_FOREIGN_KEYS"
	EnvTrace       = "LITEDB_TRACE"
)

// Config holds the settings of a session.
type Config struct {
	Path        string // database file, or ":memory:"
	BusyTimeout int    // milliseconds to wait on a locked database
	TxLock      string // deferred, immediate or exclusive
	ForeignKeys bool
	Trace       bool // log session transitions
}

// Default returns the configuration used for unset variables.
func Default(path string) *Config {
	return &Config{
		Path:        path,
		BusyTimeout: 5000,
		TxLock:      "deferred",
	}
}

// Load reads the given .env files (".env" when none is given, a missing
// file is not an error) and the process environment, which takes
// precedence over the files.
func Load(files ...string) (*Config, error) {
	vars, err := godotenv.Read(files...)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read env: %w", err)
		}
		vars = map[string]string{}
	}
	for _, key := range []string{EnvPath, EnvBusyTimeout, EnvTxLock, EnvForeignKeys, EnvTrace} {
		if v, ok := os.LookupEnv(key); ok {
			vars[key] = v
		}
	}

	cfg := Default(vars[EnvPath])
	if cfg.Path == "" {
		return nil, fmt.Errorf("%s is not set", EnvPath)
	}
	if strings.ContainsAny(cfg.Path, "?#") {
		return nil, fmt.Errorf("invalid %s %q: '?' and '#' are reserved in a DSN", EnvPath, cfg.Path)
	}
	if v := vars[EnvBusyTimeout]; v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return nil, fmt.Errorf("invalid %s %q", EnvBusyTimeout, v)
		}
		cfg.BusyTimeout = ms
	}
	if v := vars[EnvTxLock]; v != "" {
		switch lock := strings.ToLower(v); lock {
		case "deferred", "immediate", "exclusive":
			cfg.TxLock = lock
		default:
			return nil, fmt.Errorf("invalid %s %q", EnvTxLock, v)
		}
	}
	if cfg.ForeignKeys, err = parseBool(vars, EnvForeignKeys); err != nil {
		return nil, err
	}
	if cfg.Trace, err = parseBool(vars, EnvTrace); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseBool(vars map[string]string, key string) (bool, error) {
	v := vars[key]
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, v)
	}
	return b, nil
}

// DSN renders the go-sqlite3 data source name. The path is used as is, so
// it must not contain '?' or '#'; Load rejects such paths.
func (c *Config) DSN() string {
	q := url.Values{}
	q.Set("_busy_timeout", strconv.Itoa(c.BusyTimeout))
	if c.TxLock != "" {
		q.Set("_txlock", c.TxLock)
	}
	if c.ForeignKeys {
		q.Set("_foreign_keys", "1")
	}
	return c.Path + "?" + q.Encode()
}
