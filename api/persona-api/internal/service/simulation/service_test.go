package internal_simulation_service

import (
	"context"
	"testing"
	"time"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	internal_services "github.com/alteraai/api/persona-api/internal/service"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/connectors"
	"github.com/alteraai/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

func newTestPostgres(t *testing.T) (connectors.PostgresConnector, commons.Logger) {
	t.Helper()
	logger, err := commons.NewApplicationLogger(commons.Name("test-simulation-service"), commons.Path(t.TempDir()))
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

func TestCreate_Validation(t *testing.T) {
	pg, logger := newTestPostgres(t)
	svc := NewSimulationService(logger, pg)
	ctx := context.Background()

	_, err := svc.Create(ctx, &internal_entity.Simulation{UserId: "u1", Theme: "gossip", Emotion: internal_entity.EmotionCalmUnsure})
	assert.Equal(t, "Select a conversation theme", internal_services.HumanMessage(err, ""))

	_, err = svc.Create(ctx, &internal_entity.Simulation{UserId: "u1", Theme: internal_entity.ThemeConflict, Emotion: "bored"})
	assert.ErrorIs(t, err, internal_services.ErrValidation)

	sim, err := svc.Create(ctx, &internal_entity.Simulation{
		UserId:    "u1",
		Theme:     internal_entity.ThemeFeedback,
		Emotion:   internal_entity.EmotionAnxious,
		UserRole:  "Manager",
		OtherRole: "Direct report",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sim.Id)
	assert.False(t, sim.IsUsingPersona)
	assert.Equal(t, internal_entity.TranscriptPending, sim.TranscriptStatus)

	withPersona, err := svc.Create(ctx, &internal_entity.Simulation{
		UserId:    "u1",
		PersonaId: utils.Ptr("p1"),
		Theme:     internal_entity.ThemeWorkload,
		Emotion:   internal_entity.EmotionConfident,
	})
	require.NoError(t, err)
	assert.True(t, withPersona.IsUsingPersona)

	all, err := svc.GetAll(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSaveTranscript_OrdersMessages(t *testing.T) {
	pg, logger := newTestPostgres(t)
	svc := NewSimulationService(logger, pg)
	ctx := context.Background()

	now := time.Now()
	sim, err := svc.Create(ctx, &internal_entity.Simulation{
		UserId:         "u1",
		Theme:          internal_entity.ThemePerformance,
		Emotion:        internal_entity.EmotionGuilty,
		ConversationId: "conv-1",
		CompletedAt:    &now,
	})
	require.NoError(t, err)

	messages := []*internal_entity.SimulationMessage{
		{Role: internal_entity.MessageRoleAssistant, Content: "Hi, you wanted to talk?"},
		{Role: internal_entity.MessageRoleUser, Content: "Yes, about the last sprint."},
		{Role: internal_entity.MessageRoleAssistant, Content: "Sure."},
	}
	require.NoError(t, svc.SaveTranscript(ctx, sim.Id, messages))

	loaded, err := svc.Get(ctx, sim.Id, "u1")
	require.NoError(t, err)
	assert.Equal(t, internal_entity.TranscriptSaved, loaded.TranscriptStatus)
	require.Len(t, loaded.Messages, 3)
	assert.Equal(t, "Hi, you wanted to talk?", loaded.Messages[0].Content)
	assert.Equal(t, internal_entity.MessageRoleUser, loaded.Messages[1].Role)
	assert.Equal(t, "Sure.", loaded.Messages[2].Content)

	_, err = svc.Get(ctx, sim.Id, "u2")
	assert.ErrorIs(t, err, internal_services.ErrNotFound)
}

func TestUpdateTranscriptStatus(t *testing.T) {
	pg, logger := newTestPostgres(t)
	svc := NewSimulationService(logger, pg)
	ctx := context.Background()

	sim, err := svc.Create(ctx, &internal_entity.Simulation{UserId: "u1", Theme: internal_entity.ThemeOther, Emotion: internal_entity.EmotionOther})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateTranscriptStatus(ctx, sim.Id, internal_entity.TranscriptFailed))
	loaded, err := svc.Get(ctx, sim.Id, "u1")
	require.NoError(t, err)
	assert.Equal(t, internal_entity.TranscriptFailed, loaded.TranscriptStatus)

	assert.ErrorIs(t, svc.UpdateTranscriptStatus(ctx, "missing", internal_entity.TranscriptSaved), internal_services.ErrNotFound)
}
