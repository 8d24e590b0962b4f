// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package connectors

import (
	"context"
	"fmt"
	"time"

	"github.com/alteraai/config"
	"github.com/alteraai/pkg/commons"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

type PostgresConnector interface {
	Connect(ctx context.Context) error
	Name() string
	IsConnected(ctx context.Context) bool
	Disconnect(ctx context.Context) error
	DB(ctx context.Context) *gorm.DB
}

type postgresConnector struct {
	cfg    *config.PostgresConfig
	logger commons.Logger
	db     *gorm.DB
}

func NewPostgresConnector(cfg *config.PostgresConfig, logger commons.Logger) PostgresConnector {
	return &postgresConnector{cfg: cfg, logger: logger}
}

// NewPostgresConnectorFromDB wraps an already opened gorm handle, used by
// tests running against sqlite or sqlmock.
func NewPostgresConnectorFromDB(db *gorm.DB, logger commons.Logger) PostgresConnector {
	return &postgresConnector{db: db, logger: logger}
}

func (p *postgresConnector) Dsn() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		p.cfg.Host, p.cfg.Auth.User, p.cfg.Auth.Password, p.cfg.DBName, p.cfg.Port, p.cfg.SslMode)
}

func (p *postgresConnector) Connect(ctx context.Context) error {
	db, err := gorm.Open(postgres.Open(p.Dsn()), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	if err != nil {
		p.logger.Errorf("unable to open postgres connection %v", err)
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(p.cfg.MaxOpenConnection)
	sqlDB.SetMaxIdleConns(p.cfg.MaxIdealConnection)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	p.db = db
	p.logger.Infof("postgres connected to %s:%d/%s", p.cfg.Host, p.cfg.Port, p.cfg.DBName)
	return nil
}

func (p *postgresConnector) Name() string {
	return "postgres"
}

func (p *postgresConnector) IsConnected(ctx context.Context) bool {
	if p.db == nil {
		return false
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return false
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		p.logger.Errorf("postgres ping failed %v", err)
		return false
	}
	return true
}

func (p *postgresConnector) Disconnect(ctx context.Context) error {
	if p.db == nil {
		return nil
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *postgresConnector) DB(ctx context.Context) *gorm.DB {
	return p.db.WithContext(ctx)
}
