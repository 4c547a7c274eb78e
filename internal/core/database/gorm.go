package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
)

type Opts struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string
}

var ErrUnsupportedDriver = gorm.ErrInvalidDB

// NewGorm opens the store. Single-row conditional updates (the change-password
// swap) rely on the driver reporting affected rows, which both dialects do.
func NewGorm(o Opts) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch o.Driver {
	case "postgres":
		dial = postgres.Open(o.DSN)
	case "mysql":
		dial = mysql.Open(mysqlDSN(o.DSN, o.Username, o.Password))
	default:
		return nil, ErrUnsupportedDriver
	}

	lvl := logger.Warn
	switch o.LogLevel {
	case "silent":
		lvl = logger.Silent
	case "error":
		lvl = logger.Error
	case "info":
		lvl = logger.Info
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(lvl),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)

	return db.Session(&gorm.Session{
		PrepareStmt:            true,
		SkipDefaultTransaction: true, // every write here is a single statement
	}), nil
}

// mysqlDSN injects credential overrides into a go-sql-driver DSN and ensures
// parseTime, leaving already-complete DSNs alone.
func mysqlDSN(in, user, pass string) string {
	in = strings.TrimSpace(in)
	if in == "" || strings.Contains(in, "@") || user == "" {
		if in != "" && !strings.Contains(in, "parseTime") {
			in += dsnSep(in) + "parseTime=true"
		}
		return in
	}
	cred := user
	if pass != "" {
		cred += ":" + pass
	}
	out := fmt.Sprintf("%s@%s", cred, in)
	if !strings.Contains(out, "parseTime") {
		out += dsnSep(out) + "parseTime=true"
	}
	return out
}

func dsnSep(dsn string) string {
	if strings.Contains(dsn, "?") {
		return "&"
	}
	return "?"
}
