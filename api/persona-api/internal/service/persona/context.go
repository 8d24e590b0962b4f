// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_persona_service

import (
	"context"
	"fmt"
	"strings"
	"time"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	internal_services "github.com/alteraai/api/persona-api/internal/service"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/connectors"
	"github.com/alteraai/pkg/utils"
)

type personaContextService struct {
	logger   commons.Logger
	postgres connectors.PostgresConnector
}

func NewPersonaContextService(logger commons.Logger, postgres connectors.PostgresConnector) internal_services.PersonaContextService {
	return &personaContextService{
		logger:   logger,
		postgres: postgres,
	}
}

func validateTrait(trait, category string) error {
	if utils.IsEmpty(trait) {
		return internal_services.Invalid("Trait required")
	}
	if !internal_entity.ValidTraitCategory(category) {
		return internal_services.Invalid("Unknown trait category")
	}
	return nil
}

func validateEvent(title string, eventDate *time.Time) error {
	if utils.IsEmpty(title) {
		return internal_services.Invalid("Title required")
	}
	if eventDate == nil || eventDate.IsZero() {
		return internal_services.Invalid("Date required")
	}
	return nil
}

func (s *personaContextService) GetAllTrait(ctx context.Context, personaId string) ([]*internal_entity.PersonaTrait, error) {
	db := s.postgres.DB(ctx)
	var traits []*internal_entity.PersonaTrait
	if err := db.Where("persona_id = ?", personaId).Order("created_date ASC").Find(&traits).Error; err != nil {
		return nil, fmt.Errorf("failed to list traits of persona %s: %w", personaId, err)
	}
	return traits, nil
}

func (s *personaContextService) CreateTrait(ctx context.Context, personaId, trait, category string) (*internal_entity.PersonaTrait, error) {
	if err := validateTrait(trait, category); err != nil {
		return nil, err
	}
	db := s.postgres.DB(ctx)
	t := &internal_entity.PersonaTrait{
		PersonaId: personaId,
		Trait:     strings.TrimSpace(trait),
		Category:  category,
	}
	if err := db.Create(t).Error; err != nil {
		return nil, fmt.Errorf("failed to create trait on persona %s: %w", personaId, err)
	}
	s.logger.Debugf("created trait %s on persona %s", t.Id, personaId)
	return t, nil
}

func (s *personaContextService) UpdateTrait(ctx context.Context, personaId, traitId, trait, category string) (*internal_entity.PersonaTrait, error) {
	if err := validateTrait(trait, category); err != nil {
		return nil, err
	}
	db := s.postgres.DB(ctx)
	tx := db.Model(&internal_entity.PersonaTrait{}).
		Where("id = ? AND persona_id = ?", traitId, personaId).
		Updates(map[string]interface{}{
			"trait":    strings.TrimSpace(trait),
			"category": category,
		})
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to update trait %s: %w", traitId, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, fmt.Errorf("trait %s: %w", traitId, internal_services.ErrNotFound)
	}
	var updated internal_entity.PersonaTrait
	if err := db.Where("id = ?", traitId).First(&updated).Error; err != nil {
		return nil, fmt.Errorf("failed to reload trait %s: %w", traitId, notFound(err))
	}
	return &updated, nil
}

func (s *personaContextService) DeleteTrait(ctx context.Context, personaId, traitId string) error {
	db := s.postgres.DB(ctx)
	tx := db.Where("id = ? AND persona_id = ?", traitId, personaId).Delete(&internal_entity.PersonaTrait{})
	if tx.Error != nil {
		return fmt.Errorf("failed to delete trait %s: %w", traitId, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("trait %s: %w", traitId, internal_services.ErrNotFound)
	}
	s.logger.Debugf("deleted trait %s from persona %s", traitId, personaId)
	return nil
}

func (s *personaContextService) GetAllEvent(ctx context.Context, personaId string) ([]*internal_entity.PersonaContextEvent, error) {
	db := s.postgres.DB(ctx)
	var events []*internal_entity.PersonaContextEvent
	if err := db.Where("persona_id = ?", personaId).Order("event_date DESC").Order("created_date DESC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events of persona %s: %w", personaId, err)
	}
	return events, nil
}

func (s *personaContextService) CreateEvent(ctx context.Context, personaId, title string, eventDate *time.Time, description string) (*internal_entity.PersonaContextEvent, error) {
	if err := validateEvent(title, eventDate); err != nil {
		return nil, err
	}
	db := s.postgres.DB(ctx)
	e := &internal_entity.PersonaContextEvent{
		PersonaId:   personaId,
		Title:       strings.TrimSpace(title),
		EventDate:   eventDate.UTC(),
		Description: strings.TrimSpace(description),
	}
	if err := db.Create(e).Error; err != nil {
		return nil, fmt.Errorf("failed to create event on persona %s: %w", personaId, err)
	}
	s.logger.Debugf("created event %s on persona %s", e.Id, personaId)
	return e, nil
}

func (s *personaContextService) UpdateEvent(ctx context.Context, personaId, eventId, title string, eventDate *time.Time, description string) (*internal_entity.PersonaContextEvent, error) {
	if err := validateEvent(title, eventDate); err != nil {
		return nil, err
	}
	db := s.postgres.DB(ctx)
	tx := db.Model(&internal_entity.PersonaContextEvent{}).
		Where("id = ? AND persona_id = ?", eventId, personaId).
		Updates(map[string]interface{}{
			"title":       strings.TrimSpace(title),
			"event_date":  eventDate.UTC(),
			"description": strings.TrimSpace(description),
		})
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", eventId, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, fmt.Errorf("event %s: %w", eventId, internal_services.ErrNotFound)
	}
	var updated internal_entity.PersonaContextEvent
	if err := db.Where("id = ?", eventId).First(&updated).Error; err != nil {
		return nil, fmt.Errorf("failed to reload event %s: %w", eventId, notFound(err))
	}
	return &updated, nil
}

func (s *personaContextService) DeleteEvent(ctx context.Context, personaId, eventId string) error {
	db := s.postgres.DB(ctx)
	tx := db.Where("id = ? AND persona_id = ?", eventId, personaId).Delete(&internal_entity.PersonaContextEvent{})
	if tx.Error != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventId, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("event %s: %w", eventId, internal_services.ErrNotFound)
	}
	s.logger.Debugf("deleted event %s from persona %s", eventId, personaId)
	return nil
}
