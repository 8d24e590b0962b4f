// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_simulation_service

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

type simulationService struct {
	logger   commons.Logger
	postgres connectors.PostgresConnector
}

func NewSimulationService(logger commons.Logger, postgres connectors.PostgresConnector) internal_services.SimulationService {
	return &simulationService{
		logger:   logger,
		postgres: postgres,
	}
}

func (s *simulationService) Create(ctx context.Context, simulation *internal_entity.Simulation) (*internal_entity.Simulation, error) {
	if !simulation.Theme.Valid() {
		return nil, internal_services.Invalid("Select a conversation theme")
	}
	if !simulation.Emotion.Valid() {
		return nil, internal_services.Invalid("Select how you are feeling")
	}
	if simulation.TranscriptStatus == "" {
		simulation.TranscriptStatus = internal_entity.TranscriptPending
	}
	simulation.IsUsingPersona = simulation.PersonaId != nil && *simulation.PersonaId != ""
	db := s.postgres.DB(ctx)
	if err := db.Create(simulation).Error; err != nil {
		return nil, fmt.Errorf("failed to create simulation for user %s: %w", simulation.UserId, err)
	}
	s.logger.Debugf("created simulation %s for user %s", simulation.Id, simulation.UserId)
	return simulation, nil
}

func (s *simulationService) GetAll(ctx context.Context, userId string) ([]*internal_entity.Simulation, error) {
	db := s.postgres.DB(ctx)
	var simulations []*internal_entity.Simulation
	if err := db.Where("user_id = ?", userId).Order("created_date DESC").Find(&simulations).Error; err != nil {
		return nil, fmt.Errorf("failed to list simulations of user %s: %w", userId, err)
	}
	return simulations, nil
}

func (s *simulationService) Get(ctx context.Context, simulationId, userId string) (*internal_entity.Simulation, error) {
	db := s.postgres.DB(ctx)
	var simulation internal_entity.Simulation
	tx := db.
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_date ASC") }).
		Where("id = ? AND user_id = ?", simulationId, userId).
		First(&simulation)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("simulation %s: %w", simulationId, internal_services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load simulation %s: %w", simulationId, tx.Error)
	}
	return &simulation, nil
}

// SaveTranscript replaces the messages of a simulation and marks its
// transcript saved. Messages keep the order they are given in.
func (s *simulationService) SaveTranscript(ctx context.Context, simulationId string, messages []*internal_entity.SimulationMessage) error {
	db := s.postgres.DB(ctx)
	base := time.Now()
	for i, m := range messages {
		m.SimulationId = simulationId
		if m.CreatedDate.IsZero() {
			m.CreatedDate = base.Add(time.Duration(i) * time.Millisecond)
		}
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("simulation_id = ?", simulationId).Delete(&internal_entity.SimulationMessage{}).Error; err != nil {
			return err
		}
		if len(messages) > 0 {
			if err := tx.Create(&messages).Error; err != nil {
				return err
			}
		}
		return tx.Model(&internal_entity.Simulation{}).
			Where("id = ?", simulationId).
			Update("transcript_status", internal_entity.TranscriptSaved).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save transcript of simulation %s: %w", simulationId, err)
	}
	s.logger.Debugf("saved %d transcript messages on simulation %s", len(messages), simulationId)
	return nil
}

func (s *simulationService) UpdateTranscriptStatus(ctx context.Context, simulationId string, status internal_entity.TranscriptStatus) error {
	db := s.postgres.DB(ctx)
	tx := db.Model(&internal_entity.Simulation{}).
		Where("id = ?", simulationId).
		Update("transcript_status", status)
	if tx.Error != nil {
		return fmt.Errorf("failed to update transcript status of simulation %s: %w", simulationId, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("simulation %s: %w", simulationId, internal_services.ErrNotFound)
	}
	return nil
}
