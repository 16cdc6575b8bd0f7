package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type DatabaseType string

const (
	DatabaseTypeSQLite     DatabaseType = "sqlite"
	DatabaseTypePostgreSQL DatabaseType = "postgres"
)

// sqliteParams keeps readers from blocking the single writer.
const sqliteParams = "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"

// DatabaseConfig selects the store. Only the section matching Type is read.
type DatabaseConfig struct {
	Type     DatabaseType   `json:"type"`
	SQLite   SQLiteConfig   `json:"sqlite"`
	Postgres PostgresConfig `json:"postgres"`
}

type SQLiteConfig struct {
	Path string `json:"path"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
	TimeZone string `json:"timeZone"`
}

func (p PostgresConfig) dsn() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		p.Host, p.Username, p.Password, p.Database, p.Port, p.SSLMode, p.TimeZone)
}

func (p PostgresConfig) validate() error {
	required := []struct{ name, value string }{
		{"host", p.Host},
		{"database name", p.Database},
		{"username", p.Username},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.Errorf("postgres %s is required", r.name)
		}
	}
	if p.Port <= 0 || p.Port > math.MaxUint16 {
		return errors.Errorf("postgres port %d out of range", p.Port)
	}
	return nil
}

// GetDSN returns the driver connection string for the selected store.
func (c *DatabaseConfig) GetDSN() string {
	if c.IsPostgreSQL() {
		return c.Postgres.dsn()
	}
	return c.SQLite.Path + sqliteParams
}

// GetDatabaseConfig reads the store selection from ASKBOARD_DB_* and ASKBOARD_PG_*.
func GetDatabaseConfig() *DatabaseConfig {
	cfg := NewSQLiteConfig(GetDBPath())
	cfg.Type = DatabaseType(conf.GetString("db_type"))
	cfg.Postgres = PostgresConfig{
		Host:     conf.GetString("pg_host"),
		Port:     conf.GetInt("pg_port"),
		Database: conf.GetString("pg_name"),
		Username: conf.GetString("pg_user"),
		Password: conf.GetString("pg_password"),
		SSLMode:  conf.GetString("pg_sslmode"),
		TimeZone: conf.GetString("pg_timezone"),
	}
	return cfg
}

func NewSQLiteConfig(path string) *DatabaseConfig {
	return &DatabaseConfig{Type: DatabaseTypeSQLite, SQLite: SQLiteConfig{Path: path}}
}

func (c *DatabaseConfig) ValidateConfig() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return errors.New("sqlite path is required")
		}
		return nil
	case DatabaseTypePostgreSQL:
		return c.Postgres.validate()
	}
	return errors.Errorf("unsupported database type %q", c.Type)
}

func (c *DatabaseConfig) IsPostgreSQL() bool {
	return c.Type == DatabaseTypePostgreSQL
}

func (c *DatabaseConfig) IsSQLite() bool {
	return c.Type == DatabaseTypeSQLite
}

// EnsureDirectoryExists creates the parent folder of the sqlite file.
func (c *DatabaseConfig) EnsureDirectoryExists() error {
	if !c.IsSQLite() {
		return nil
	}
	return os.MkdirAll(filepath.Dir(c.SQLite.Path), 0o755)
}
