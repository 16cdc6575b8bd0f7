// Package database opens the askboard store, migrates the schema and seeds
// the default accounts on first launch.
package database

import (
	"github.com/askboard/askboard/config"
	"github.com/askboard/askboard/database/model"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

var seedUsers = []model.User{
	{Username: "admin", Password: "admin123", Role: model.RoleAdmin},
	{Username: "student", Password: "1234", Role: model.RoleStudent},
	{Username: "teacher", Password: "teach123", Role: model.RoleTeacher},
}

var seedClassroom = model.Classroom{Subject: "Math 101", Teacher: "teacher"}

func initModels(tx *gorm.DB) error {
	models := []any{
		&model.User{},
		&model.Classroom{},
		&model.Question{},
		&model.Enrollment{},
		&model.Vote{},
		&model.Setting{},
	}
	for _, m := range models {
		if err := tx.AutoMigrate(m); err != nil {
			return errors.Wrapf(err, "auto migrate %T", m)
		}
	}
	return nil
}

// initData seeds the default accounts and classroom when the user table is empty.
func initData(tx *gorm.DB) error {
	empty, err := isTableEmpty(tx, "users")
	if err != nil {
		return errors.Wrap(err, "check users table")
	}
	if !empty {
		return nil
	}
	return tx.Transaction(func(tx *gorm.DB) error {
		users := make([]model.User, len(seedUsers))
		copy(users, seedUsers)
		if err := tx.Create(&users).Error; err != nil {
			return errors.Wrap(err, "seed users")
		}
		classroom := seedClassroom
		if err := tx.Create(&classroom).Error; err != nil {
			return errors.Wrap(err, "seed classroom")
		}
		return nil
	})
}

func isTableEmpty(tx *gorm.DB, tableName string) (bool, error) {
	var count int64
	err := tx.Table(tableName).Count(&count).Error
	return count == 0, err
}

// Open connects to the configured store, migrates the schema and seeds
// default data. It does not touch the package-level handle.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectoryExists(); err != nil {
		return nil, errors.Wrap(err, "create database folder")
	}

	var gormLogger logger.Interface
	if config.IsDebug() {
		gormLogger = logger.Default
	} else {
		gormLogger = logger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	}

	var dialector gorm.Dialector
	if cfg.IsPostgreSQL() {
		dialector = postgres.Open(cfg.GetDSN())
	} else {
		dialector = sqlite.Open(cfg.GetDSN())
	}

	conn, err := gorm.Open(dialector, c)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	if cfg.IsSQLite() {
		if err := conn.Exec("PRAGMA temp_store = MEMORY;").Error; err != nil {
			return nil, err
		}
	}

	if err := initModels(conn); err != nil {
		return nil, err
	}
	if err := initData(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// InitDB opens the store and makes it the package-level handle returned by GetDB.
func InitDB(cfg *config.DatabaseConfig) error {
	conn, err := Open(cfg)
	if err != nil {
		return err
	}
	db = conn
	return nil
}

func CloseDB() error {
	if db == nil {
		return nil
	}
	if err := Checkpoint(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return db
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Checkpoint flushes the sqlite WAL into the main database file. It is a
// no-op on other dialects.
func Checkpoint(conn *gorm.DB) error {
	if conn.Dialector.Name() != "sqlite" {
		return nil
	}
	return conn.Exec("PRAGMA wal_checkpoint;").Error
}
