package internal_services

import (
	"context"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
)

type ProfileService interface {
	Get(ctx context.Context, userId string) (*internal_entity.Profile, error)
	// Ensure returns the profile of userId, creating a standard one on first sign-in.
	Ensure(ctx context.Context, userId, email string) (*internal_entity.Profile, error)
	Update(ctx context.Context, userId string, fullName string, workRole internal_entity.WorkRole) (*internal_entity.Profile, error)
}
