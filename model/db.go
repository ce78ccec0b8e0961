package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/pelletier/go-toml/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the database access layer.
type Store struct {
	db     *gorm.DB
	Config *Config
}

// Config is read from config.toml.
type Config struct {
	AllowedOrigins []string
	CookieSecret   string
	Mode           string
	PageSize       int
	Port           int
	Redis          redisConfig
	Servers        map[string]server
	Source         string // "db" or "http"
	Upstream       upstreamConfig
}

type server struct {
	Database   string
	DBName     string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     int
	DBLogger   string
}

type upstreamConfig struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

type redisConfig struct {
	Addr       string
	Password   string
	DB         int
	TTLSeconds int
}

// LoadConfig reads and decodes a TOML configuration file and applies
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err = toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills unset values.
func (cfg *Config) ApplyDefaults() {
	if cfg.Mode == "" {
		cfg.Mode = "production"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Source == "" {
		cfg.Source = "db"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.Upstream.TimeoutSeconds <= 0 {
		cfg.Upstream.TimeoutSeconds = 15
	}
	if cfg.Redis.TTLSeconds <= 0 {
		cfg.Redis.TTLSeconds = 60
	}
}

// Server returns the database settings for the active mode.
func (cfg *Config) Server() (server, bool) {
	svr, ok := cfg.Servers[cfg.Mode]
	return svr, ok
}

// shared helper for GORM logger
func gormLoggerFor(cfg *Config, svr server) *gorm.Config {
	gormConfig := &gorm.Config{}
	switch svr.DBLogger {
	case "info":
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	case "silent":
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	default:
		if cfg.Mode == "development" {
			gormConfig.Logger = logger.Default.LogMode(logger.Info)
		} else {
			gormConfig.Logger = logger.Default.LogMode(logger.Silent)
		}
	}
	return gormConfig
}

// PostgresDSN builds the libpq connection string for svr.
func PostgresDSN(svr server) string {
	port := svr.DBPort
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		svr.DBHost, svr.DBUser, svr.DBPassword, svr.DBName, port)
}

// InitDatabase opens the database configured for cfg.Mode. SQLite schemas
// are migrated on open.
func InitDatabase(cfg *Config) (*Store, error) {
	svr, ok := cfg.Server()
	if !ok {
		return nil, fmt.Errorf("no database configured for mode %q", cfg.Mode)
	}

	var (
		db  *gorm.DB
		err error
	)
	switch svr.Database {
	case "sqlite", "sqlite3":
		filename := filepath.Join("db", svr.DBName)
		if err = os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
			return nil, err
		}
		fmt.Println("Use server sqlite and database", filename)
		db, err = gorm.Open(sqlite.Open(filename), gormLoggerFor(cfg, svr))
	case "postgresql", "postgres":
		fmt.Println("Use server postgresql and database", svr.DBName)
		db, err = gorm.Open(postgres.Open(PostgresDSN(svr)), gormLoggerFor(cfg, svr))
	default:
		return nil, fmt.Errorf("database %q not implemented", svr.Database)
	}
	if err != nil {
		return nil, err
	}
	s := NewStore(db, cfg)
	// postgres schemas are managed by the migrate command
	if svr.Database == "sqlite" || svr.Database == "sqlite3" {
		if err = s.AutoMigrate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewStore wraps an open gorm connection.
func NewStore(db *gorm.DB, cfg *Config) *Store {
	if cfg == nil {
		cfg = &Config{}
		cfg.ApplyDefaults()
	}
	return &Store{db: db, Config: cfg}
}

// AutoMigrate creates or updates all tables.
func (s *Store) AutoMigrate() error {
	for _, m := range []any{&User{}, &Lead{}, &ContactPoint{}, &APIToken{}} {
		if err := s.db.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto migrate %T: %w", m, err)
		}
	}
	return nil
}
