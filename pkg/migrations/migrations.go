// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/connectors"
)

//go:embed sql/*.sql
var files embed.FS

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Versions lists the embedded migration versions in ascending order.
func Versions() ([]uint, error) {
	src, err := iofs.New(files, "sql")
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var out []uint
	v, err := src.First()
	for err == nil {
		out = append(out, v)
		v, err = src.Next(v)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return out, nil
}

// Run applies (or rolls back) every embedded migration on the connector's
// database. An already current schema is not an error.
func Run(ctx context.Context, pg connectors.PostgresConnector, logger commons.Logger, dir Direction) error {
	sqlDB, err := pg.DB(ctx).DB()
	if err != nil {
		return fmt.Errorf("unable to get sql handle: %w", err)
	}
	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("unable to create migration driver: %w", err)
	}
	src, err := iofs.New(files, "sql")
	if err != nil {
		return fmt.Errorf("unable to read embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("unable to create migrator: %w", err)
	}

	switch dir {
	case Up:
		err = m.Up()
	case Down:
		err = m.Down()
	default:
		return fmt.Errorf("unknown migration direction %q", dir)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Infof("schema already %s to date", dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", dir, err)
	}
	version, dirty, _ := m.Version()
	logger.Infof("schema migrated %s to version %d (dirty=%v)", dir, version, dirty)
	return nil
}
