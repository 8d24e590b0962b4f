package internal_phrase_service

import (
	"context"
	"testing"

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
	logger, err := commons.NewApplicationLogger(commons.Name("test-phrase-service"), commons.Path(t.TempDir()))
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

func TestPhrases(t *testing.T) {
	pg, logger := newTestPostgres(t)
	svc := NewPhraseService(logger, pg)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", "", "")
	assert.Equal(t, "Phrase required", internal_services.HumanMessage(err, ""))

	p, err := svc.Create(ctx, "u1", "I hear you, let's find a way forward.", "conflict")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u2", "Not mine", "")
	require.NoError(t, err)

	mine, err := svc.GetAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "conflict", mine[0].Context)

	assert.ErrorIs(t, svc.Delete(ctx, "u2", p.Id), internal_services.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "u1", p.Id))

	mine, err = svc.GetAll(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, mine)
}
