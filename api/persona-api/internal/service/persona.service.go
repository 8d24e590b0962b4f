package internal_services

import (
	"context"
	"time"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
)

// PersonaListing is a consenting persona joined with its owner, as shown to HR.
type PersonaListing struct {
	Id               string                        `json:"id"`
	UserId           string                        `json:"userId"`
	Status           internal_entity.PersonaStatus `json:"status"`
	ConsentTimestamp *time.Time                    `json:"consentTimestamp"`
	AgentId          string                        `json:"agentId"`
	UpdatedDate      time.Time                     `json:"updatedDate"`
	OwnerName        string                        `json:"ownerName"`
	OwnerWorkRole    internal_entity.WorkRole      `json:"ownerWorkRole"`
}

type PersonaService interface {
	GetForUser(ctx context.Context, userId string) (*internal_entity.Persona, error)
	// Get loads a persona owned by userId with its traits and events.
	Get(ctx context.Context, personaId, userId string) (*internal_entity.Persona, error)
	GetById(ctx context.Context, personaId string) (*internal_entity.Persona, error)
	CreateWithConsent(ctx context.Context, userId string) (*internal_entity.Persona, error)

	UpdateStatus(ctx context.Context, personaId string, status internal_entity.PersonaStatus) error
	SetAgent(ctx context.Context, personaId, userId, agentId string) error
	Activate(ctx context.Context, personaId, voiceProfileId, agentId string) error

	SaveRecording(ctx context.Context, personaId string, questionIndex, durationSeconds int, recordingUrl string) (*internal_entity.VoiceRecording, error)
	GetAllRecording(ctx context.Context, personaId string) ([]*internal_entity.VoiceRecording, error)

	GetAllWithConsent(ctx context.Context) ([]*PersonaListing, error)
}

type PersonaContextService interface {
	GetAllTrait(ctx context.Context, personaId string) ([]*internal_entity.PersonaTrait, error)
	CreateTrait(ctx context.Context, personaId, trait, category string) (*internal_entity.PersonaTrait, error)
	UpdateTrait(ctx context.Context, personaId, traitId, trait, category string) (*internal_entity.PersonaTrait, error)
	DeleteTrait(ctx context.Context, personaId, traitId string) error

	// GetAllEvent lists events newest event date first.
	GetAllEvent(ctx context.Context, personaId string) ([]*internal_entity.PersonaContextEvent, error)
	CreateEvent(ctx context.Context, personaId, title string, eventDate *time.Time, description string) (*internal_entity.PersonaContextEvent, error)
	UpdateEvent(ctx context.Context, personaId, eventId, title string, eventDate *time.Time, description string) (*internal_entity.PersonaContextEvent, error)
	DeleteEvent(ctx context.Context, personaId, eventId string) error
}
