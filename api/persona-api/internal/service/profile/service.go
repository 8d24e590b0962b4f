// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_profile_service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	internal_services "github.com/alteraai/api/persona-api/internal/service"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/connectors"
	"github.com/alteraai/pkg/utils"
	"gorm.io/gorm"
)

type profileService struct {
	logger   commons.Logger
	postgres connectors.PostgresConnector
}

func NewProfileService(logger commons.Logger, postgres connectors.PostgresConnector) internal_services.ProfileService {
	return &profileService{
		logger:   logger,
		postgres: postgres,
	}
}

func (s *profileService) Get(ctx context.Context, userId string) (*internal_entity.Profile, error) {
	db := s.postgres.DB(ctx)
	var profile internal_entity.Profile
	if err := db.Where("id = ?", userId).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile %s: %w", userId, internal_services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load profile %s: %w", userId, err)
	}
	return &profile, nil
}

func (s *profileService) Ensure(ctx context.Context, userId, email string) (*internal_entity.Profile, error) {
	db := s.postgres.DB(ctx)
	profile := internal_entity.Profile{
		Email:    email,
		UserRole: internal_entity.UserRoleStandard,
		WorkRole: internal_entity.WorkRoleOther,
	}
	profile.Id = userId
	if err := db.Where("id = ?", userId).FirstOrCreate(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure profile %s: %w", userId, err)
	}
	return &profile, nil
}

func (s *profileService) Update(ctx context.Context, userId string, fullName string, workRole internal_entity.WorkRole) (*internal_entity.Profile, error) {
	if utils.IsEmpty(fullName) {
		return nil, internal_services.Invalid("Name required")
	}
	if !workRole.Valid() {
		return nil, internal_services.Invalid("Select your role")
	}
	db := s.postgres.DB(ctx)
	tx := db.Model(&internal_entity.Profile{}).
		Where("id = ?", userId).
		Updates(map[string]interface{}{
			"full_name":    strings.TrimSpace(fullName),
			"work_role":    workRole,
			"updated_date": time.Now(),
		})
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to update profile %s: %w", userId, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, fmt.Errorf("profile %s: %w", userId, internal_services.ErrNotFound)
	}
	s.logger.Debugf("updated profile %s", userId)
	return s.Get(ctx, userId)
}
