// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package connectors

import (
	"context"
	"fmt"

	"github.com/alteraai/config"
	"github.com/alteraai/pkg/commons"
	"github.com/redis/go-redis/v9"
)

type RedisConnector interface {
	Connect(ctx context.Context) error
	Name() string
	IsConnected(ctx context.Context) bool
	Disconnect(ctx context.Context) error
	GetConnection() *redis.Client
}

type redisConnector struct {
	cfg    *config.RedisConfig
	logger commons.Logger
	client *redis.Client
}

func NewRedisConnector(cfg *config.RedisConfig, logger commons.Logger) RedisConnector {
	return &redisConnector{cfg: cfg, logger: logger}
}

// NewRedisConnectorFromClient wraps an existing client (redismock in tests).
func NewRedisConnectorFromClient(client *redis.Client, logger commons.Logger) RedisConnector {
	return &redisConnector{client: client, logger: logger}
}

func (r *redisConnector) Connect(ctx context.Context) error {
	r.client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", r.cfg.Host, r.cfg.Port),
		Password: r.cfg.Password,
		DB:       r.cfg.Db,
		PoolSize: r.cfg.MaxConnection,
	})
	if err := r.client.Ping(ctx).Err(); err != nil {
		r.logger.Errorf("unable to connect redis %v", err)
		return err
	}
	r.logger.Infof("redis connected to %s:%d", r.cfg.Host, r.cfg.Port)
	return nil
}

func (r *redisConnector) Name() string {
	return "redis"
}

func (r *redisConnector) IsConnected(ctx context.Context) bool {
	if r.client == nil {
		return false
	}
	return r.client.Ping(ctx).Err() == nil
}

func (r *redisConnector) Disconnect(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *redisConnector) GetConnection() *redis.Client {
	return r.client
}
