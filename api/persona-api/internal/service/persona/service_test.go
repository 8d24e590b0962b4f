package internal_persona_service

import (
	"context"
	"testing"
	"time"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	internal_services "github.com/alteraai/api/persona-api/internal/service"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/connectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

func newTestPostgres(t *testing.T) (connectors.PostgresConnector, commons.Logger) {
	t.Helper()
	logger, err := commons.NewApplicationLogger(commons.Name("test-persona-service"), commons.Path(t.TempDir()))
	require.NoError(t, err)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gorm_logger.Default.LogMode(gorm_logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(internal_entity.All()...))
	return connectors.NewPostgresConnectorFromDB(db, logger), logger
}

func createProfile(t *testing.T, pg connectors.PostgresConnector, userId, name string, role internal_entity.WorkRole) {
	t.Helper()
	p := &internal_entity.Profile{Email: userId + "@altera.ai", FullName: name, UserRole: internal_entity.UserRoleStandard, WorkRole: role}
	p.Id = userId
	require.NoError(t, pg.DB(context.Background()).Create(p).Error)
}

func TestCreateWithConsent(t *testing.T) {
	pg, logger := newTestPostgres(t)
	svc := NewPersonaService(logger, pg)
	ctx := context.Background()

	persona, err := svc.CreateWithConsent(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, persona.Id)
	assert.Equal(t, internal_entity.PersonaInProgress, persona.Status)
	assert.True(t, persona.ConsentGiven)
	require.NotNil(t, persona.ConsentTimestamp)

	_, err = svc.CreateWithConsent(ctx, "user-1")
	assert.ErrorIs(t, err, internal_services.ErrConflict)

	loaded, err := svc.GetForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, persona.Id, loaded.Id)

	_, err = svc.GetForUser(ctx, "user-2")
	assert.ErrorIs(t, err, internal_services.ErrNotFound)
}

func TestGet_ScopedToOwner(t *testing.T) {
	pg, logger := newTestPostgres(t)
	svc := NewPersonaService(logger, pg)
	ctx := context.Background()

	persona, err := svc.CreateWithConsent(ctx, "owner")
	require.NoError(t, err)

	_, err = svc.Get(ctx, persona.Id, "someone-else")
	assert.ErrorIs(t, err, internal_services.ErrNotFound)

	loaded, err := svc.Get(ctx, persona.Id, "owner")
	require.NoError(t, err)
	assert.Equal(t, "owner", loaded.UserId)
}

func TestStatusTransitions(t *testing.T) {
	pg, logger := newTestPostgres(t)
	svc := NewPersonaService(logger, pg)
	ctx := context.Background()

	persona, err := svc.CreateWithConsent(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, persona.Id, internal_entity.PersonaProcessing))
	loaded, err := svc.GetById(ctx, persona.Id)
	require.NoError(t, err)
	assert.Equal(t, internal_entity.PersonaProcessing, loaded.Status)

	require.NoError(t, svc.Activate(ctx, persona.Id, "voice-1", "agent-1"))
	loaded, err = svc.GetById(ctx, persona.Id)
	require.NoError(t, err)
	assert.True(t, loaded.IsReady())
	assert.Equal(t, "voice-1", loaded.VoiceProfileId)
	assert.Equal(t, "agent-1", loaded.AgentId)

	assert.ErrorIs(t, svc.UpdateStatus(ctx, "missing", internal_entity.PersonaFailed), internal_services.ErrNotFound)
}

func TestSetAgent_RequiresOwnership(t *testing.T) {
	pg, logger := newTestPostgres(t)
	svc := NewPersonaService(logger, pg)
	ctx := context.Background()

	persona, err := svc.CreateWithConsent(ctx, "owner")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.SetAgent(ctx, persona.Id, "intruder", "agent-x"), internal_services.ErrNotFound)
	require.NoError(t, svc.SetAgent(ctx, persona.Id, "owner", "agent-1"))

	loaded, err := svc.GetById(ctx, persona.Id)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", loaded.AgentId)
}

func TestSaveRecording_ReplacesPerQuestion(t *testing.T) {
	pg, logger := newTestPostgres(t)
	svc := NewPersonaService(logger, pg)
	ctx := context.Background()

	_, err := svc.SaveRecording(ctx, "p1", 1, 60, "recordings/p1/question-01.wav")
	require.NoError(t, err)
	_, err = svc.SaveRecording(ctx, "p1", 0, 90, "recordings/p1/question-00.wav")
	require.NoError(t, err)
	_, err = svc.SaveRecording(ctx, "p1", 1, 75, "recordings/p1/question-01.wav")
	require.NoError(t, err)

	recordings, err := svc.GetAllRecording(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, recordings, 2)
	assert.Equal(t, 0, recordings[0].QuestionIndex)
	assert.Equal(t, 1, recordings[1].QuestionIndex)
	assert.Equal(t, 75, recordings[1].DurationSeconds)

	_, err = svc.SaveRecording(ctx, "p1", 2, 0, "x")
	assert.ErrorIs(t, err, internal_services.ErrValidation)
}

func TestGetAllWithConsent(t *testing.T) {
	pg, logger := newTestPostgres(t)
	svc := NewPersonaService(logger, pg)
	ctx := context.Background()

	createProfile(t, pg, "u1", "Ana", internal_entity.WorkRoleManager)
	createProfile(t, pg, "u2", "Ben", internal_entity.WorkRoleLeadership)
	createProfile(t, pg, "u3", "Cy", internal_entity.WorkRoleOther)

	first, err := svc.CreateWithConsent(ctx, "u1")
	require.NoError(t, err)
	second, err := svc.CreateWithConsent(ctx, "u2")
	require.NoError(t, err)

	// a persona without consent never reaches HR
	noConsent := &internal_entity.Persona{UserId: "u3", Status: internal_entity.PersonaInProgress}
	require.NoError(t, pg.DB(ctx).Create(noConsent).Error)

	later := time.Now().Add(time.Hour)
	require.NoError(t, pg.DB(ctx).Model(&internal_entity.Persona{}).Where("id = ?", first.Id).Update("updated_date", later).Error)

	listings, err := svc.GetAllWithConsent(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, first.Id, listings[0].Id)
	assert.Equal(t, "Ana", listings[0].OwnerName)
	assert.Equal(t, internal_entity.WorkRoleManager, listings[0].OwnerWorkRole)
	assert.Equal(t, second.Id, listings[1].Id)
	assert.Equal(t, "Ben", listings[1].OwnerName)
}
