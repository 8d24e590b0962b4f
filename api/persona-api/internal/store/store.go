// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	internal_interview "github.com/alteraai/api/persona-api/internal/interview"
	internal_wizard "github.com/alteraai/api/persona-api/internal/wizard"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/connectors"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "altera"

	// wizard and interview state survive a closed tab for a week
	DefaultStateTTL = 7 * 24 * time.Hour
)

// optimistic writers give up after this many lost races on the same key
const maxUpdateAttempts = 8

var (
	ErrRedisUnavailable = errors.New("redis connection not available")
	ErrUpdateConflict   = errors.New("state changed concurrently, update abandoned")
)

// ProgressMutator turns the stored progress into the next one. The argument is
// nil when nothing is stored yet. It may be called more than once.
type ProgressMutator func(p *internal_interview.Progress) (*internal_interview.Progress, error)

func WizardKey(userId, flow string) string {
	return fmt.Sprintf("%s:wizard:%s:%s", keyPrefix, userId, flow)
}

func ProgressKey(userId string) string {
	return fmt.Sprintf("%s:interview:%s", keyPrefix, userId)
}

func ProfileKey(userId string) string {
	return fmt.Sprintf("%s:profile:%s", keyPrefix, userId)
}

func RevokedKey(tokenKey string) string {
	return fmt.Sprintf("%s:revoked:%s", keyPrefix, tokenKey)
}

// WizardStore keeps the position of a user inside each wizard flow.
type WizardStore interface {
	// Load returns nil without error when the user never entered the flow.
	Load(ctx context.Context, userId, flow string) (*internal_wizard.State, error)
	Save(ctx context.Context, userId string, st internal_wizard.State) error
	Delete(ctx context.Context, userId, flow string) error
}

type ProgressStore interface {
	Load(ctx context.Context, userId string) (*internal_interview.Progress, error)
	Save(ctx context.Context, userId string, p *internal_interview.Progress) error
	// Update applies fn to the latest stored progress and writes the result
	// only if nobody else wrote in between.
	Update(ctx context.Context, userId string, fn ProgressMutator) (*internal_interview.Progress, error)
	Delete(ctx context.Context, userId string) error
}

type ProfileCache interface {
	Get(ctx context.Context, userId string) (*internal_entity.Profile, error)
	Set(ctx context.Context, profile *internal_entity.Profile) error
	Delete(ctx context.Context, userId string) error
}

// Revocations remembers signed-out tokens until they would expire anyway.
type Revocations interface {
	Revoke(ctx context.Context, tokenKey string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenKey string) (bool, error)
}

type redisStore struct {
	redis  connectors.RedisConnector
	logger commons.Logger
	ttl    time.Duration
}

func newRedisStore(redis connectors.RedisConnector, logger commons.Logger, ttl time.Duration) *redisStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &redisStore{redis: redis, logger: logger, ttl: ttl}
}

func NewWizardStore(redis connectors.RedisConnector, logger commons.Logger) WizardStore {
	return newRedisStore(redis, logger, DefaultStateTTL)
}

func NewProgressStore(redis connectors.RedisConnector, logger commons.Logger) ProgressStore {
	return &progressStore{newRedisStore(redis, logger, DefaultStateTTL)}
}

func NewProfileCache(redis connectors.RedisConnector, logger commons.Logger, ttl time.Duration) ProfileCache {
	return &profileCache{newRedisStore(redis, logger, ttl)}
}

func NewRevocations(redis connectors.RedisConnector, logger commons.Logger) Revocations {
	return newRedisStore(redis, logger, DefaultStateTTL)
}

func (s *redisStore) client() (*redis.Client, error) {
	if s.redis == nil || s.redis.GetConnection() == nil {
		return nil, ErrRedisUnavailable
	}
	return s.redis.GetConnection(), nil
}

// get decodes the JSON value at key into out; found is false on a miss.
func (s *redisStore) get(ctx context.Context, key string, out interface{}) (bool, error) {
	c, err := s.client()
	if err != nil {
		return false, err
	}
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warnf("dropping undecodable value at %s: %v", key, err)
		return false, nil
	}
	return true, nil
}

func (s *redisStore) set(ctx context.Context, key string, v interface{}) error {
	c, err := s.client()
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.Set(ctx, key, string(data), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	s.logger.Debugf("stored %s (%d bytes)", key, len(data))
	return nil
}

func (s *redisStore) del(ctx context.Context, key string) error {
	c, err := s.client()
	if err != nil {
		return err
	}
	if err := c.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *redisStore) Load(ctx context.Context, userId, flow string) (*internal_wizard.State, error) {
	var st internal_wizard.State
	found, err := s.get(ctx, WizardKey(userId, flow), &st)
	if err != nil || !found {
		return nil, err
	}
	return &st, nil
}

func (s *redisStore) Save(ctx context.Context, userId string, st internal_wizard.State) error {
	return s.set(ctx, WizardKey(userId, st.Flow), st)
}

func (s *redisStore) Delete(ctx context.Context, userId, flow string) error {
	return s.del(ctx, WizardKey(userId, flow))
}

func (s *redisStore) Revoke(ctx context.Context, tokenKey string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c, err := s.client()
	if err != nil {
		return err
	}
	if err := c.Set(ctx, RevokedKey(tokenKey), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *redisStore) IsRevoked(ctx context.Context, tokenKey string) (bool, error) {
	c, err := s.client()
	if err != nil {
		return false, err
	}
	n, err := c.Exists(ctx, RevokedKey(tokenKey)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

type progressStore struct {
	*redisStore
}

func (s *progressStore) Load(ctx context.Context, userId string) (*internal_interview.Progress, error) {
	var p internal_interview.Progress
	found, err := s.get(ctx, ProgressKey(userId), &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (s *progressStore) Save(ctx context.Context, userId string, p *internal_interview.Progress) error {
	return s.set(ctx, ProgressKey(userId), p)
}

func (s *progressStore) Update(ctx context.Context, userId string, fn ProgressMutator) (*internal_interview.Progress, error) {
	c, err := s.client()
	if err != nil {
		return nil, err
	}
	key := ProgressKey(userId)
	var next *internal_interview.Progress
	txf := func(tx *redis.Tx) error {
		var current *internal_interview.Progress
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("failed to read %s: %w", key, err)
		default:
			var p internal_interview.Progress
			if err := json.Unmarshal(raw, &p); err != nil {
				s.logger.Warnf("dropping undecodable value at %s: %v", key, err)
			} else {
				current = &p
			}
		}
		next, err = fn(current)
		if err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(data), s.ttl)
			return nil
		})
		return err
	}
	for i := 0; i < maxUpdateAttempts; i++ {
		err := c.Watch(ctx, txf, key)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
		s.logger.Debugf("lost race on %s, retrying (%d)", key, i+1)
	}
	return nil, fmt.Errorf("%w: %s", ErrUpdateConflict, key)
}

func (s *progressStore) Delete(ctx context.Context, userId string) error {
	return s.del(ctx, ProgressKey(userId))
}

type profileCache struct {
	*redisStore
}

func (s *profileCache) Get(ctx context.Context, userId string) (*internal_entity.Profile, error) {
	var p internal_entity.Profile
	found, err := s.get(ctx, ProfileKey(userId), &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (s *profileCache) Set(ctx context.Context, profile *internal_entity.Profile) error {
	return s.set(ctx, ProfileKey(profile.Id), profile)
}

func (s *profileCache) Delete(ctx context.Context, userId string) error {
	return s.del(ctx, ProfileKey(userId))
}
