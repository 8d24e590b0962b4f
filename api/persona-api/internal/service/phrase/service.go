// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_phrase_service

import (
	"context"
	"fmt"
	"strings"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	internal_services "github.com/alteraai/api/persona-api/internal/service"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/connectors"
	"github.com/alteraai/pkg/utils"
)

type phraseService struct {
	logger   commons.Logger
	postgres connectors.PostgresConnector
}

func NewPhraseService(logger commons.Logger, postgres connectors.PostgresConnector) internal_services.PhraseService {
	return &phraseService{
		logger:   logger,
		postgres: postgres,
	}
}

func (s *phraseService) GetAll(ctx context.Context, userId string) ([]*internal_entity.SavedPhrase, error) {
	db := s.postgres.DB(ctx)
	var phrases []*internal_entity.SavedPhrase
	if err := db.Where("user_id = ?", userId).Order("created_date DESC").Find(&phrases).Error; err != nil {
		return nil, fmt.Errorf("failed to list phrases of user %s: %w", userId, err)
	}
	return phrases, nil
}

func (s *phraseService) Create(ctx context.Context, userId, phrase, phraseContext string) (*internal_entity.SavedPhrase, error) {
	if utils.IsEmpty(phrase) {
		return nil, internal_services.Invalid("Phrase required")
	}
	db := s.postgres.DB(ctx)
	p := &internal_entity.SavedPhrase{
		UserId:  userId,
		Phrase:  strings.TrimSpace(phrase),
		Context: strings.TrimSpace(phraseContext),
	}
	if err := db.Create(p).Error; err != nil {
		return nil, fmt.Errorf("failed to save phrase for user %s: %w", userId, err)
	}
	return p, nil
}

func (s *phraseService) Delete(ctx context.Context, userId, phraseId string) error {
	db := s.postgres.DB(ctx)
	tx := db.Where("id = ? AND user_id = ?", phraseId, userId).Delete(&internal_entity.SavedPhrase{})
	if tx.Error != nil {
		return fmt.Errorf("failed to delete phrase %s: %w", phraseId, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("phrase %s: %w", phraseId, internal_services.ErrNotFound)
	}
	s.logger.Debugf("deleted phrase %s of user %s", phraseId, userId)
	return nil
}
