// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_persona_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	internal_services "github.com/alteraai/api/persona-api/internal/service"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/connectors"
	"gorm.io/gorm"
)

type personaService struct {
	logger   commons.Logger
	postgres connectors.PostgresConnector
}

func NewPersonaService(logger commons.Logger, postgres connectors.PostgresConnector) internal_services.PersonaService {
	return &personaService{
		logger:   logger,
		postgres: postgres,
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return internal_services.ErrNotFound
	}
	return err
}

func (s *personaService) GetForUser(ctx context.Context, userId string) (*internal_entity.Persona, error) {
	db := s.postgres.DB(ctx)
	var persona internal_entity.Persona
	if err := db.Where("user_id = ?", userId).First(&persona).Error; err != nil {
		return nil, fmt.Errorf("persona for user %s: %w", userId, notFound(err))
	}
	return &persona, nil
}

func (s *personaService) Get(ctx context.Context, personaId, userId string) (*internal_entity.Persona, error) {
	db := s.postgres.DB(ctx)
	var persona internal_entity.Persona
	tx := db.
		Preload("Traits", func(db *gorm.DB) *gorm.DB { return db.Order("created_date ASC") }).
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("event_date DESC") }).
		Where("id = ? AND user_id = ?", personaId, userId).
		First(&persona)
	if tx.Error != nil {
		return nil, fmt.Errorf("persona %s: %w", personaId, notFound(tx.Error))
	}
	return &persona, nil
}

func (s *personaService) GetById(ctx context.Context, personaId string) (*internal_entity.Persona, error) {
	db := s.postgres.DB(ctx)
	var persona internal_entity.Persona
	tx := db.
		Preload("Traits", func(db *gorm.DB) *gorm.DB { return db.Order("created_date ASC") }).
		Where("id = ?", personaId).
		First(&persona)
	if tx.Error != nil {
		return nil, fmt.Errorf("persona %s: %w", personaId, notFound(tx.Error))
	}
	return &persona, nil
}

// CreateWithConsent starts a persona for userId. A user owns at most one persona.
func (s *personaService) CreateWithConsent(ctx context.Context, userId string) (*internal_entity.Persona, error) {
	db := s.postgres.DB(ctx)
	now := time.Now()
	persona := &internal_entity.Persona{
		UserId:           userId,
		Status:           internal_entity.PersonaInProgress,
		ConsentGiven:     true,
		ConsentTimestamp: &now,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&internal_entity.Persona{}).Where("user_id = ?", userId).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return internal_services.ErrConflict
		}
		return tx.Create(persona).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create persona for user %s: %w", userId, err)
	}
	s.logger.Debugf("created persona %s for user %s", persona.Id, userId)
	return persona, nil
}

func (s *personaService) UpdateStatus(ctx context.Context, personaId string, status internal_entity.PersonaStatus) error {
	db := s.postgres.DB(ctx)
	tx := db.Model(&internal_entity.Persona{}).
		Where("id = ?", personaId).
		Updates(map[string]interface{}{
			"status":       status,
			"updated_date": time.Now(),
		})
	if tx.Error != nil {
		return fmt.Errorf("failed to update persona %s status: %w", personaId, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("persona %s: %w", personaId, internal_services.ErrNotFound)
	}
	s.logger.Debugf("persona %s status=%s", personaId, status)
	return nil
}

// SetAgent attaches agentId to the persona only when userId owns it.
func (s *personaService) SetAgent(ctx context.Context, personaId, userId, agentId string) error {
	db := s.postgres.DB(ctx)
	tx := db.Model(&internal_entity.Persona{}).
		Where("id = ? AND user_id = ?", personaId, userId).
		Updates(map[string]interface{}{
			"agent_id":     agentId,
			"updated_date": time.Now(),
		})
	if tx.Error != nil {
		return fmt.Errorf("failed to set agent on persona %s: %w", personaId, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("persona %s: %w", personaId, internal_services.ErrNotFound)
	}
	return nil
}

func (s *personaService) Activate(ctx context.Context, personaId, voiceProfileId, agentId string) error {
	db := s.postgres.DB(ctx)
	tx := db.Model(&internal_entity.Persona{}).
		Where("id = ?", personaId).
		Updates(map[string]interface{}{
			"status":           internal_entity.PersonaActive,
			"voice_profile_id": voiceProfileId,
			"agent_id":         agentId,
			"updated_date":     time.Now(),
		})
	if tx.Error != nil {
		return fmt.Errorf("failed to activate persona %s: %w", personaId, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("persona %s: %w", personaId, internal_services.ErrNotFound)
	}
	s.logger.Infof("persona %s active with voice %s and agent %s", personaId, voiceProfileId, agentId)
	return nil
}

// SaveRecording keeps one recording per question; a re-record replaces it.
func (s *personaService) SaveRecording(ctx context.Context, personaId string, questionIndex, durationSeconds int, recordingUrl string) (*internal_entity.VoiceRecording, error) {
	if questionIndex < 0 {
		return nil, internal_services.Invalid("Question index must not be negative")
	}
	if durationSeconds <= 0 {
		return nil, internal_services.Invalid("Recording is empty")
	}
	db := s.postgres.DB(ctx)
	var recording internal_entity.VoiceRecording
	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("persona_id = ? AND question_index = ?", personaId, questionIndex).First(&recording).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			recording = internal_entity.VoiceRecording{
				PersonaId:       personaId,
				QuestionIndex:   questionIndex,
				DurationSeconds: durationSeconds,
				RecordingUrl:    recordingUrl,
			}
			return tx.Create(&recording).Error
		case err != nil:
			return err
		}
		recording.DurationSeconds = durationSeconds
		recording.RecordingUrl = recordingUrl
		return tx.Model(&recording).Updates(map[string]interface{}{
			"duration_seconds": durationSeconds,
			"recording_url":    recordingUrl,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save recording %d of persona %s: %w", questionIndex, personaId, err)
	}
	s.logger.Debugf("saved recording persona=%s question=%d duration=%d", personaId, questionIndex, durationSeconds)
	return &recording, nil
}

func (s *personaService) GetAllRecording(ctx context.Context, personaId string) ([]*internal_entity.VoiceRecording, error) {
	db := s.postgres.DB(ctx)
	var recordings []*internal_entity.VoiceRecording
	if err := db.Where("persona_id = ?", personaId).Order("question_index ASC").Find(&recordings).Error; err != nil {
		return nil, fmt.Errorf("failed to list recordings of persona %s: %w", personaId, err)
	}
	return recordings, nil
}

func (s *personaService) GetAllWithConsent(ctx context.Context) ([]*internal_services.PersonaListing, error) {
	db := s.postgres.DB(ctx)
	var listings []*internal_services.PersonaListing
	tx := db.Table("ai_personas").
		Select("ai_personas.id, ai_personas.user_id, ai_personas.status, ai_personas.consent_timestamp, ai_personas.agent_id, ai_personas.updated_date, " +
			"profiles.full_name AS owner_name, profiles.work_role AS owner_work_role").
		Joins("JOIN profiles ON profiles.id = ai_personas.user_id").
		Where("ai_personas.consent_given = ?", true).
		Order("ai_personas.updated_date DESC").
		Scan(&listings)
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to list consenting personas: %w", tx.Error)
	}
	return listings, nil
}
