package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLConfig holds the configuration for MySQL connection pool
type MySQLConfig struct {
	// DSN is the data source name
	// Format: "user:password@tcp(host:port)/dbname?parseTime=true&loc=Local"
	DSN string `yaml:"dsn"`

	// MaxOpenConnections is the maximum number of open connections to the database
	// Default: 25
	MaxOpenConnections int `yaml:"maxOpenConnections"`

	// MaxIdleConnections is the maximum number of connections in the idle connection pool
	// Default: 5
	MaxIdleConnections int `yaml:"maxIdleConnections"`

	// ConnMaxLifetime is the maximum amount of time a connection may be reused
	// Default: 5 minutes
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`

	// ConnMaxIdleTime is the maximum amount of time a connection may be idle
	// Default: 10 minutes
	ConnMaxIdleTime time.Duration `yaml:"connMaxIdleTime"`
}

// DefaultMySQLConfig returns the default MySQL configuration
func DefaultMySQLConfig() *MySQLConfig {
	return &MySQLConfig{
		MaxOpenConnections: 25,
		MaxIdleConnections: 5,
		ConnMaxLifetime:    5 * time.Minute,
		ConnMaxIdleTime:    10 * time.Minute,
	}
}

// MySQL wraps a MySQL connection pool.
type MySQL struct {
	db     *sql.DB
	config *MySQLConfig
}

// NewMySQL creates a new MySQL database connection with connection pool
// DSN format: "user:password@tcp(host:port)/dbname?parseTime=true&loc=Local"
func NewMySQL(dsn string) (*MySQL, error) {
	config := DefaultMySQLConfig()
	config.DSN = dsn
	return NewMySQLWithConfig(config)
}

// NewMySQLWithConfig creates a new MySQL database connection with custom configuration
func NewMySQLWithConfig(config *MySQLConfig) (*MySQL, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.DSN == "" {
		return nil, fmt.Errorf("DSN cannot be empty")
	}

	if config.MaxOpenConnections == 0 {
		config.MaxOpenConnections = 25
	}
	if config.MaxIdleConnections == 0 {
		config.MaxIdleConnections = 5
	}
	if config.ConnMaxLifetime == 0 {
		config.ConnMaxLifetime = 5 * time.Minute
	}
	if config.ConnMaxIdleTime == 0 {
		config.ConnMaxIdleTime = 10 * time.Minute
	}

	db, err := sql.Open("mysql", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql connection: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConnections)
	db.SetMaxIdleConns(config.MaxIdleConnections)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}

	return &MySQL{db: db, config: config}, nil
}

// DB returns the underlying sql.DB for query execution.
func (m *MySQL) DB() *sql.DB {
	return m.db
}

// Ping verifies the database connection is alive.
func (m *MySQL) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// Close closes the connection pool.
func (m *MySQL) Close() error {
	return m.db.Close()
}
