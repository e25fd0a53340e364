package main

import (
	"fmt"

	"tax-harvest-go/internal/config"
	"tax-harvest-go/internal/database"
	"tax-harvest-go/internal/harvest"
	"tax-harvest-go/internal/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds what a database-backed command needs.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	db     *gorm.DB
	engine *harvest.Engine
}

func bootstrap() (config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("could not load config: %w", err)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func newApp(opts ...harvest.Option) (*app, error) {
	cfg, log, err := bootstrap()
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		engine: harvest.NewEngine(log, &cfg, db, opts...),
	}, nil
}

func (a *app) Close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = a.log.Sync()
}

// withApp runs fn against a freshly opened app and closes it afterwards.
func withApp(fn func(a *app) error, opts ...harvest.Option) error {
	a, err := newApp(opts...)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// withRegimeApp runs fn against an app that has no database, for the
// regime commands.
func withRegimeApp(fn func(a *app) error) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	a := &app{cfg: cfg, log: log, engine: harvest.NewRegimeEngine(log)}
	defer a.Close()
	return fn(a)
}
