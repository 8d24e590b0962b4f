// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_session

import (
	"context"
	"errors"
	"fmt"
	"time"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	internal_services "github.com/alteraai/api/persona-api/internal/service"
	internal_store "github.com/alteraai/api/persona-api/internal/store"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/types"
)

var (
	ErrNoSession    = errors.New("no active session")
	ErrTokenRevoked = errors.New("token has been signed out")
)

// Provider resolves the signed-in user once per request and keeps their
// profile cached between requests.
type Provider interface {
	Authenticate(ctx context.Context, token string) (*types.UserPrinciple, error)
	Current(ctx context.Context, principle *types.UserPrinciple) (*internal_entity.Profile, error)
	Refresh(ctx context.Context, principle *types.UserPrinciple) (*internal_entity.Profile, error)
	Clear(ctx context.Context, principle *types.UserPrinciple) error
}

type provider struct {
	logger      commons.Logger
	verifier    types.TokenVerifier
	profiles    internal_services.ProfileService
	cache       internal_store.ProfileCache
	revocations internal_store.Revocations
	now         func() time.Time
}

func NewProvider(logger commons.Logger,
	verifier types.TokenVerifier,
	profiles internal_services.ProfileService,
	cache internal_store.ProfileCache,
	revocations internal_store.Revocations,
) Provider {
	return &provider{
		logger:      logger,
		verifier:    verifier,
		profiles:    profiles,
		cache:       cache,
		revocations: revocations,
		now:         time.Now,
	}
}

func (p *provider) Authenticate(ctx context.Context, token string) (*types.UserPrinciple, error) {
	principle, err := p.verifier.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	revoked, err := p.revocations.IsRevoked(ctx, principle.RevocationKey())
	if err != nil {
		// a cache outage must not sign everybody out
		p.logger.Warnf("unable to check revocation for user %s: %v", principle.UserId, err)
		return principle, nil
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return principle, nil
}

func (p *provider) Current(ctx context.Context, principle *types.UserPrinciple) (*internal_entity.Profile, error) {
	if principle == nil {
		return nil, ErrNoSession
	}
	cached, err := p.cache.Get(ctx, principle.UserId)
	if err != nil {
		p.logger.Warnf("profile cache read failed for user %s: %v", principle.UserId, err)
	}
	if cached != nil {
		return cached, nil
	}
	profile, err := p.profiles.Ensure(ctx, principle.UserId, principle.Email)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, profile); err != nil {
		p.logger.Warnf("profile cache write failed for user %s: %v", principle.UserId, err)
	}
	return profile, nil
}

func (p *provider) Refresh(ctx context.Context, principle *types.UserPrinciple) (*internal_entity.Profile, error) {
	if principle == nil {
		return nil, ErrNoSession
	}
	if err := p.cache.Delete(ctx, principle.UserId); err != nil {
		p.logger.Warnf("profile cache delete failed for user %s: %v", principle.UserId, err)
	}
	return p.Current(ctx, principle)
}

// Clear signs the token out until it would have expired on its own.
func (p *provider) Clear(ctx context.Context, principle *types.UserPrinciple) error {
	if principle == nil {
		return ErrNoSession
	}
	if err := p.cache.Delete(ctx, principle.UserId); err != nil {
		p.logger.Warnf("profile cache delete failed for user %s: %v", principle.UserId, err)
	}
	ttl := principle.ExpiresAt.Sub(p.now())
	if err := p.revocations.Revoke(ctx, principle.RevocationKey(), ttl); err != nil {
		return err
	}
	p.logger.Infof("user %s signed out", principle.UserId)
	return nil
}
