// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/chat-relay/backend/internal/repository"
)

// Config holds every setting of the chat relay server.
type Config struct {
	Port      int    `env:"PORT,default=3000" validate:"min=1,max=65535"`
	StaticDir string `env:"STATIC_DIR,default=public"`
	GinMode   string `env:"GIN_MODE,default=release" validate:"oneof=debug release test"`
	LogLevel  string `env:"LOG_LEVEL,default=INFO" validate:"required"`

	// Comma separated; "*" accepts every origin.
	AllowedOrigins string `env:"ALLOWED_ORIGINS,default=*"`

	StoreDriver string `env:"STORE_DRIVER,default=sqlite" validate:"oneof=memory sqlite badger bolt mongo"`
	SQLitePath  string `env:"SQLITE_PATH,default=data/chat.db" validate:"required_if=StoreDriver sqlite"`
	BadgerPath  string `env:"BADGER_PATH,default=data/badger" validate:"required_if=StoreDriver badger"`
	BoltPath    string `env:"BOLT_PATH,default=data/chat.bolt" validate:"required_if=StoreDriver bolt"`

	MongoURI            string        `env:"MONGODB_URI,default=mongodb://localhost:27017/chatdb" validate:"required_if=StoreDriver mongo"`
	MongoDatabase       string        `env:"MONGODB_DATABASE,default=chatdb" validate:"required_if=StoreDriver mongo"`
	MongoConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT,default=10s" validate:"gt=0"`

	HistoryLimit   int `env:"HISTORY_LIMIT,default=50" validate:"min=1,max=1000"`
	MemoryCapacity int `env:"MEMORY_CAPACITY,default=1000" validate:"min=1"`
}

var validate = validator.New()

// Load reads an optional .env file, then the process environment.
// Variables already set in the environment win over the file.
func Load(dotenvFiles ...string) (*Config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load dotenv: %w", err)
	}
	return FromEnviron()
}

// FromEnviron builds the configuration from the process environment only.
func FromEnviron() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural constraints on the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Address returns the listen address for the HTTP server.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Origins splits AllowedOrigins into its entries.
func (c *Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// StoreOptions maps the configuration onto the repository options.
func (c *Config) StoreOptions() repository.Options {
	return repository.Options{
		Driver:              c.StoreDriver,
		SQLitePath:          c.SQLitePath,
		BadgerPath:          c.BadgerPath,
		BoltPath:            c.BoltPath,
		MongoURI:            c.MongoURI,
		MongoDatabase:       c.MongoDatabase,
		MongoConnectTimeout: c.MongoConnectTimeout,
		MemoryCapacity:      c.MemoryCapacity,
	}
}
