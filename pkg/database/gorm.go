package database

import (
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type options struct {
	logLevel        logger.LogLevel
	maxIdleConns    int
	maxOpenConns    int
	connMaxLifetime time.Duration
}

type Option func(*options)

// WithLogLevel overrides the SQL log level (default: Warn, so slow queries still show).
func WithLogLevel(level logger.LogLevel) Option {
	return func(o *options) { o.logLevel = level }
}

func WithPool(maxIdle, maxOpen int, maxLifetime time.Duration) Option {
	return func(o *options) {
		o.maxIdleConns = maxIdle
		o.maxOpenConns = maxOpen
		o.connMaxLifetime = maxLifetime
	}
}

func newLogger(level logger.LogLevel) logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)
}

// NewGormDBFromDSN opens a postgres connection for the coaching store.
func NewGormDBFromDSN(dsn string, opts ...Option) (*gorm.DB, error) {
	o := options{
		logLevel:        logger.Warn,
		maxIdleConns:    5,
		maxOpenConns:    25,
		connMaxLifetime: time.Hour,
	}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger(o.logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(o.maxIdleConns)
	sqlDB.SetMaxOpenConns(o.maxOpenConns)
	sqlDB.SetConnMaxLifetime(o.connMaxLifetime)

	return db, nil
}
