package internal_services

import (
	"context"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
)

type SimulationService interface {
	Create(ctx context.Context, simulation *internal_entity.Simulation) (*internal_entity.Simulation, error)
	GetAll(ctx context.Context, userId string) ([]*internal_entity.Simulation, error)
	// Get loads a simulation owned by userId with its messages in spoken order.
	Get(ctx context.Context, simulationId, userId string) (*internal_entity.Simulation, error)

	SaveTranscript(ctx context.Context, simulationId string, messages []*internal_entity.SimulationMessage) error
	UpdateTranscriptStatus(ctx context.Context, simulationId string, status internal_entity.TranscriptStatus) error
}

type PhraseService interface {
	GetAll(ctx context.Context, userId string) ([]*internal_entity.SavedPhrase, error)
	Create(ctx context.Context, userId, phrase, phraseContext string) (*internal_entity.SavedPhrase, error)
	Delete(ctx context.Context, userId, phraseId string) error
}
