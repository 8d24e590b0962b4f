// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package types

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const CTX_AUTH_PRINCIPLE = "__auth_principle"

type principleKey struct{}

var ErrInvalidToken = errors.New("invalid or expired token")

// UserPrinciple is the authenticated caller resolved from a bearer token.
type UserPrinciple struct {
	UserId    string
	Email     string
	Token     string
	TokenId   string
	ExpiresAt time.Time
}

func (p *UserPrinciple) GetUserId() string {
	return p.UserId
}

// RevocationKey identifies the token in the revocation list; tokens without
// a jti fall back to the raw token.
func (p *UserPrinciple) RevocationKey() string {
	if p.TokenId != "" {
		return p.TokenId
	}
	return p.Token
}

// Claims mirror the access tokens issued by the auth backend.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type TokenVerifier interface {
	Verify(token string) (*UserPrinciple, error)
}

type hmacVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) TokenVerifier {
	return &hmacVerifier{secret: []byte(secret)}
}

func (v *hmacVerifier) Verify(token string) (*UserPrinciple, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	p := &UserPrinciple{
		UserId:  claims.Subject,
		Email:   claims.Email,
		Token:   token,
		TokenId: claims.ID,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

func WithAuthPrinciple(ctx context.Context, p *UserPrinciple) context.Context {
	return context.WithValue(ctx, principleKey{}, p)
}

func GetAuthPrinciple(ctx context.Context) (*UserPrinciple, bool) {
	p, ok := ctx.Value(principleKey{}).(*UserPrinciple)
	return p, ok && p != nil
}

func SetAuthPrincipleGin(c *gin.Context, p *UserPrinciple) {
	c.Set(CTX_AUTH_PRINCIPLE, p)
	c.Request = c.Request.WithContext(WithAuthPrinciple(c.Request.Context(), p))
}

func GetAuthPrincipleGin(c *gin.Context) (*UserPrinciple, bool) {
	v, ok := c.Get(CTX_AUTH_PRINCIPLE)
	if !ok {
		return nil, false
	}
	p, ok := v.(*UserPrinciple)
	return p, ok && p != nil
}
