// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	personaApi "github.com/alteraai/api/persona-api/api"
	internal_background "github.com/alteraai/api/persona-api/internal/background"
	internal_metrics "github.com/alteraai/api/persona-api/internal/metrics"
	internal_objecturl "github.com/alteraai/api/persona-api/internal/objecturl"
	persona_routers "github.com/alteraai/api/persona-api/router"
	"github.com/alteraai/config"
	elevenlabs_client "github.com/alteraai/pkg/clients/elevenlabs"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/connectors"
	storage_files "github.com/alteraai/pkg/storages/file-storage"
	"github.com/alteraai/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 15 * time.Second
	// finalized takes kept playable in memory at once
	objectUrlCapacity = 512
)

type AppRunner struct {
	engine   *gin.Engine
	cfg      *config.AppConfig
	logger   commons.Logger
	postgres connectors.PostgresConnector
	redis    connectors.RedisConnector

	registry *prometheus.Registry
	metrics  *internal_metrics.Metrics
	runner   internal_background.Runner
	api      *personaApi.PersonaApi
}

func (app *AppRunner) ResolveConfig() error {
	vConfig, err := config.InitConfig()
	if err != nil {
		return fmt.Errorf("unable to read config: %w", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	app.cfg = cfg
	return nil
}

func (app *AppRunner) Logging() error {
	logger, err := commons.NewApplicationLogger(
		commons.Name(app.cfg.Name),
		commons.Path(app.cfg.LogPath),
		commons.Level(app.cfg.LogLevel),
	)
	if err != nil {
		return err
	}
	app.logger = logger
	return nil
}

func (app *AppRunner) Postgres(ctx context.Context) error {
	app.postgres = connectors.NewPostgresConnector(&app.cfg.PostgresConfig, app.logger)
	return app.postgres.Connect(ctx)
}

// AllConnectors connects postgres and redis concurrently.
func (app *AppRunner) AllConnectors(ctx context.Context) error {
	app.postgres = connectors.NewPostgresConnector(&app.cfg.PostgresConfig, app.logger)
	app.redis = connectors.NewRedisConnector(&app.cfg.RedisConfig, app.logger)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.postgres.Connect(gCtx) })
	g.Go(func() error { return app.redis.Connect(gCtx) })
	return g.Wait()
}

func (app *AppRunner) AllServices() error {
	app.registry = prometheus.NewRegistry()
	app.metrics = internal_metrics.MustNewMetrics(app.registry)

	storage, err := storage_files.NewStorage(app.cfg.AssetStoreConfig, app.logger)
	if err != nil {
		return err
	}
	voices := elevenlabs_client.NewClient(app.cfg.ElevenLabsConfig, app.logger,
		elevenlabs_client.WithObserver(app.metrics.ObserveUpstream))

	bg := app.cfg.BackgroundConfig
	app.runner, err = internal_background.NewRunner(app.logger, bg.Workers, bg.MaxAttempts,
		internal_background.WithMetrics(app.metrics))
	if err != nil {
		return err
	}
	urls, err := internal_objecturl.NewRegistry(app.logger, objectUrlCapacity)
	if err != nil {
		return err
	}
	app.api = personaApi.NewPersonaApi(app.cfg, app.logger,
		app.postgres, app.redis, storage, voices, app.runner, urls, app.metrics)
	return nil
}

func (app *AppRunner) AllMiddlewares() {
	if utils.FromEnvironmentStr(app.cfg.Env).IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	app.engine = gin.New()
	app.engine.Use(gin.Recovery())
	app.engine.Use(personaApi.RequestId())
	app.engine.Use(personaApi.RequestLogger(app.logger, app.metrics))
	app.engine.Use(personaApi.Cors(app.cfg.AllowedOrigins()))
}

func (app *AppRunner) AllRouters() {
	persona_routers.HealthCheckRoutes(app.cfg, app.engine, app.logger, app.postgres, app.redis)
	persona_routers.MetricsRoutes(app.engine, app.registry)
	persona_routers.PersonaRoutes(app.engine, app.logger, app.api)
}

// Serve blocks until ctx is done, then drains requests and background work.
func (app *AppRunner) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", app.cfg.Host, app.cfg.Port),
		Handler: app.engine,
	}
	errCh := make(chan error, 1)
	go func() {
		app.logger.Infof("%s %s listening on %s", app.cfg.Name, app.cfg.Version, server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	app.logger.Infof("shutting down %s", app.cfg.Name)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Errorf("http server shutdown: %v", err)
	}
	if err := app.runner.Shutdown(shutdownCtx); err != nil {
		app.logger.Errorf("background runner shutdown: %v", err)
	}
	return nil
}

func (app *AppRunner) Close(ctx context.Context) {
	for _, c := range []interface {
		Name() string
		Disconnect(context.Context) error
	}{app.postgres, app.redis} {
		if c == nil {
			continue
		}
		if err := c.Disconnect(ctx); err != nil {
			app.logger.Warnf("unable to disconnect %s: %v", c.Name(), err)
		}
	}
	if app.logger != nil {
		_ = app.logger.Sync()
	}
}
