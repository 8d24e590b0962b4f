// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_builder

import (
	"context"
	"errors"
	"sync"
	"testing"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	internal_services "github.com/alteraai/api/persona-api/internal/service"
	internal_persona_service "github.com/alteraai/api/persona-api/internal/service/persona"
	internal_profile_service "github.com/alteraai/api/persona-api/internal/service/profile"
	elevenlabs_client "github.com/alteraai/pkg/clients/elevenlabs"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/connectors"
	storage_files "github.com/alteraai/pkg/storages/file-storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

type fakeVoices struct {
	mu        sync.Mutex
	voiceReq  elevenlabs_client.CreateVoiceRequest
	agentReq  elevenlabs_client.CreateAgentRequest
	voiceErr  error
	agentErr  error
	agentCall int
}

func (f *fakeVoices) CreateVoice(ctx context.Context, req elevenlabs_client.CreateVoiceRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voiceReq = req
	if f.voiceErr != nil {
		return "", f.voiceErr
	}
	return "voice-123", nil
}

func (f *fakeVoices) CreateAgent(ctx context.Context, req elevenlabs_client.CreateAgentRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agentCall++
	f.agentReq = req
	if f.agentErr != nil {
		return "", f.agentErr
	}
	return "agent-456", nil
}

func (f *fakeVoices) TextToSpeech(ctx context.Context, voiceId, text string) ([]byte, error) {
	return nil, errors.New("not used")
}

func (f *fakeVoices) SignedURL(ctx context.Context, agentId string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeVoices) Conversation(ctx context.Context, conversationId string) (*elevenlabs_client.Conversation, error) {
	return nil, errors.New("not used")
}

type fixture struct {
	builder  *Builder
	personas internal_services.PersonaService
	traits   internal_services.PersonaContextService
	storage  storage_files.Storage
	voices   *fakeVoices
	postgres connectors.PostgresConnector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, err := commons.NewApplicationLogger(commons.Name("test-builder"), commons.Path(t.TempDir()))
	require.NoError(t, err)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gorm_logger.Default.LogMode(gorm_logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(internal_entity.All()...))

	pg := connectors.NewPostgresConnectorFromDB(db, logger)
	f := &fixture{
		personas: internal_persona_service.NewPersonaService(logger, pg),
		traits:   internal_persona_service.NewPersonaContextService(logger, pg),
		storage:  storage_files.NewLocalStorage(afero.NewMemMapFs(), logger),
		voices:   &fakeVoices{},
		postgres: pg,
	}
	f.builder = NewBuilder(logger, f.personas, internal_profile_service.NewProfileService(logger, pg), f.storage, f.voices)
	return f
}

func (f *fixture) persona(t *testing.T, recordings int) *internal_entity.Persona {
	t.Helper()
	ctx := context.Background()
	profile := &internal_entity.Profile{Email: "ana@altera.ai", FullName: "Ana Lopez", UserRole: internal_entity.UserRoleStandard, WorkRole: internal_entity.WorkRoleManager}
	profile.Id = "user-1"
	require.NoError(t, f.postgres.DB(ctx).Create(profile).Error)

	p, err := f.personas.CreateWithConsent(ctx, "user-1")
	require.NoError(t, err)
	for i := 0; i < recordings; i++ {
		key := storage_files.RecordingKey(p.Id, i)
		require.NoError(t, f.storage.Store(ctx, key, []byte{byte(i), 1, 2, 3}, "audio/wav"))
		_, err := f.personas.SaveRecording(ctx, p.Id, i, 60+i, key)
		require.NoError(t, err)
	}
	return p
}

func (f *fixture) status(t *testing.T, personaId string) internal_entity.PersonaStatus {
	t.Helper()
	p, err := f.personas.GetById(context.Background(), personaId)
	require.NoError(t, err)
	return p.Status
}

func TestBuild_ActivatesPersona(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.persona(t, 3)
	_, err := f.traits.CreateTrait(ctx, p.Id, "Direct but kind", "Communication style")
	require.NoError(t, err)

	require.NoError(t, f.builder.Build(ctx, p.Id))

	loaded, err := f.personas.GetById(ctx, p.Id)
	require.NoError(t, err)
	assert.Equal(t, internal_entity.PersonaActive, loaded.Status)
	assert.Equal(t, "voice-123", loaded.VoiceProfileId)
	assert.Equal(t, "agent-456", loaded.AgentId)

	require.Len(t, f.voices.voiceReq.Files, 3)
	assert.Equal(t, "question-00.wav", f.voices.voiceReq.Files[0].Name)
	assert.Equal(t, []byte{2, 1, 2, 3}, f.voices.voiceReq.Files[2].Data)
	assert.Equal(t, "Ana Lopez persona", f.voices.voiceReq.Name)

	assert.Equal(t, "voice-123", f.voices.agentReq.VoiceId)
	assert.Contains(t, f.voices.agentReq.Prompt, "Ana Lopez")
	assert.Contains(t, f.voices.agentReq.Prompt, "Direct but kind (Communication style)")
}

func TestBuild_FailsWithoutRecordings(t *testing.T) {
	f := newFixture(t)
	p := f.persona(t, 0)

	err := f.builder.Build(context.Background(), p.Id)
	assert.ErrorIs(t, err, ErrNoRecordings)
	assert.Equal(t, internal_entity.PersonaFailed, f.status(t, p.Id))
	assert.Zero(t, f.voices.agentCall)
}

func TestBuild_UpstreamFailureMarksFailed(t *testing.T) {
	f := newFixture(t)
	p := f.persona(t, 2)
	f.voices.agentErr = elevenlabs_client.APIError{Operation: "create_agent", StatusCode: 500, Detail: "boom"}

	err := f.builder.Build(context.Background(), p.Id)
	var apiErr elevenlabs_client.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, internal_entity.PersonaFailed, f.status(t, p.Id))
}

func TestBuild_MissingAudioMarksFailed(t *testing.T) {
	f := newFixture(t)
	p := f.persona(t, 1)
	require.NoError(t, f.storage.Delete(context.Background(), storage_files.RecordingKey(p.Id, 0)))

	err := f.builder.Build(context.Background(), p.Id)
	assert.ErrorIs(t, err, storage_files.ErrObjectNotFound)
	assert.Equal(t, internal_entity.PersonaFailed, f.status(t, p.Id))
}
