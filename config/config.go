// Package config provides process-level configuration for askboard: name and
// version, debug mode, log level and the on-disk locations of the database
// and log files. Values come from ASKBOARD_* environment variables, optionally
// loaded from a .env file in the working directory.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

//go:embed version
var version string

//go:embed name
var name string

const envPrefix = "ASKBOARD"

var conf *viper.Viper

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

func init() {
	Load("")
}

// Load (re)reads the environment. An empty dotEnvPath means ".env" in the
// working directory; a missing file is not an error.
func Load(dotEnvPath string) {
	if dotEnvPath == "" {
		dotEnvPath = ".env"
	}
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			fmt.Fprintf(os.Stderr, "config: load %s: %v\n", dotEnvPath, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetDefault("debug", false)
	v.SetDefault("log_level", string(Info))
	v.SetDefault("log_folder", "/var/log/askboard")
	v.SetDefault("db_folder", "/etc/askboard")
	v.SetDefault("db_path", "")
	v.SetDefault("db_type", string(DatabaseTypeSQLite))
	v.SetDefault("pg_host", "localhost")
	v.SetDefault("pg_port", 5432)
	v.SetDefault("pg_name", "askboard")
	v.SetDefault("pg_user", "askboard")
	v.SetDefault("pg_password", "")
	v.SetDefault("pg_sslmode", "disable")
	v.SetDefault("pg_timezone", "UTC")
	v.AutomaticEnv()
	conf = v
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	return LogLevel(conf.GetString("log_level"))
}

func IsDebug() bool {
	return conf.GetBool("debug")
}

func GetDBFolderPath() string {
	return conf.GetString("db_folder")
}

// GetDBPath returns the sqlite file path. ASKBOARD_DB_PATH wins over the
// folder setting.
func GetDBPath() string {
	if p := conf.GetString("db_path"); p != "" {
		return p
	}
	return filepath.Join(GetDBFolderPath(), GetName()+".db")
}

func GetLogFolder() string {
	return conf.GetString("log_folder")
}
