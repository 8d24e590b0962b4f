// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	internal_interview "github.com/alteraai/api/persona-api/internal/interview"
	internal_wizard "github.com/alteraai/api/persona-api/internal/wizard"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/connectors"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedRedis(t *testing.T) (connectors.RedisConnector, redismock.ClientMock, commons.Logger) {
	t.Helper()
	logger, err := commons.NewApplicationLogger(commons.Name("test-store"), commons.Path(t.TempDir()))
	require.NoError(t, err)
	client, mock := redismock.NewClientMock()
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return connectors.NewRedisConnectorFromClient(client, logger), mock, logger
}

func encode(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestWizardStore_RoundTrip(t *testing.T) {
	rc, mock, logger := newMockedRedis(t)
	store := NewWizardStore(rc, logger)
	ctx := context.Background()

	key := WizardKey("u1", internal_wizard.FlowPersona)
	mock.ExpectGet(key).RedisNil()
	st, err := store.Load(ctx, "u1", internal_wizard.FlowPersona)
	require.NoError(t, err)
	assert.Nil(t, st)

	saved := internal_wizard.State{
		Flow:      internal_wizard.FlowPersona,
		Current:   internal_wizard.StepInterview,
		Payload:   map[string]string{"consent": "true", "micTested": "true"},
		UpdatedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	mock.ExpectSet(key, encode(t, saved), DefaultStateTTL).SetVal("OK")
	require.NoError(t, store.Save(ctx, "u1", saved))

	mock.ExpectGet(key).SetVal(encode(t, saved))
	st, err = store.Load(ctx, "u1", internal_wizard.FlowPersona)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, internal_wizard.StepInterview, st.Current)
	assert.Equal(t, "true", st.Payload["micTested"])

	mock.ExpectDel(key).SetVal(1)
	require.NoError(t, store.Delete(ctx, "u1", internal_wizard.FlowPersona))
}

func TestWizardStore_Errors(t *testing.T) {
	rc, mock, logger := newMockedRedis(t)
	store := NewWizardStore(rc, logger)
	ctx := context.Background()

	key := WizardKey("u1", internal_wizard.FlowDemo)
	mock.ExpectGet(key).SetErr(errors.New("connection reset"))
	_, err := store.Load(ctx, "u1", internal_wizard.FlowDemo)
	assert.Error(t, err)

	// garbage is treated as a fresh start
	mock.ExpectGet(key).SetVal("{not json")
	st, err := store.Load(ctx, "u1", internal_wizard.FlowDemo)
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestProgressStore(t *testing.T) {
	rc, mock, logger := newMockedRedis(t)
	store := NewProgressStore(rc, logger)
	ctx := context.Background()

	p := internal_interview.NewProgress(10, 600)
	require.NoError(t, p.Record(internal_interview.Answer{QuestionIndex: 2, DurationSeconds: 75, UploadTaskID: "task-1"}))

	key := ProgressKey("u1")
	mock.ExpectSet(key, encode(t, p), DefaultStateTTL).SetVal("OK")
	require.NoError(t, store.Save(ctx, "u1", p))

	mock.ExpectGet(key).SetVal(encode(t, p))
	loaded, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 75, loaded.TotalSeconds())
	assert.Equal(t, "task-1", loaded.Answers[2].UploadTaskID)

	mock.ExpectDel(key).SetVal(1)
	require.NoError(t, store.Delete(ctx, "u1"))
}

func TestProgressStore_UpdateStartsFresh(t *testing.T) {
	rc, mock, logger := newMockedRedis(t)
	store := NewProgressStore(rc, logger)
	key := ProgressKey("u1")

	want := internal_interview.NewProgress(10, 600)
	require.NoError(t, want.Record(internal_interview.Answer{QuestionIndex: 0, DurationSeconds: 40}))

	mock.ExpectWatch(key)
	mock.ExpectGet(key).RedisNil()
	mock.ExpectTxPipeline()
	mock.ExpectSet(key, encode(t, want), DefaultStateTTL).SetVal("OK")
	mock.ExpectTxPipelineExec()

	got, err := store.Update(context.Background(), "u1", func(p *internal_interview.Progress) (*internal_interview.Progress, error) {
		assert.Nil(t, p)
		next := internal_interview.NewProgress(10, 600)
		return next, next.Record(internal_interview.Answer{QuestionIndex: 0, DurationSeconds: 40})
	})
	require.NoError(t, err)
	assert.Equal(t, 40, got.TotalSeconds())
}

func TestProgressStore_UpdateRetriesOnConcurrentWrite(t *testing.T) {
	rc, mock, logger := newMockedRedis(t)
	store := NewProgressStore(rc, logger)
	key := ProgressKey("u1")

	seen := internal_interview.NewProgress(10, 600)
	require.NoError(t, seen.Record(internal_interview.Answer{QuestionIndex: 0, DurationSeconds: 40}))
	// written by another request between our read and our exec
	raced := internal_interview.NewProgress(10, 600)
	require.NoError(t, raced.Record(internal_interview.Answer{QuestionIndex: 0, DurationSeconds: 40}))
	require.NoError(t, raced.Record(internal_interview.Answer{QuestionIndex: 1, DurationSeconds: 50}))

	answer := internal_interview.Answer{QuestionIndex: 2, DurationSeconds: 60}
	lost := internal_interview.NewProgress(10, 600)
	require.NoError(t, lost.Record(seen.Answers[0]))
	require.NoError(t, lost.Record(answer))
	final := internal_interview.NewProgress(10, 600)
	require.NoError(t, final.Record(raced.Answers[0]))
	require.NoError(t, final.Record(raced.Answers[1]))
	require.NoError(t, final.Record(answer))

	mock.ExpectWatch(key)
	mock.ExpectGet(key).SetVal(encode(t, seen))
	mock.ExpectTxPipeline()
	mock.ExpectSet(key, encode(t, lost), DefaultStateTTL).SetVal("OK")
	mock.ExpectTxPipelineExec().SetErr(redis.TxFailedErr)
	mock.ExpectWatch(key)
	mock.ExpectGet(key).SetVal(encode(t, raced))
	mock.ExpectTxPipeline()
	mock.ExpectSet(key, encode(t, final), DefaultStateTTL).SetVal("OK")
	mock.ExpectTxPipelineExec()

	calls := 0
	got, err := store.Update(context.Background(), "u1", func(p *internal_interview.Progress) (*internal_interview.Progress, error) {
		calls++
		require.NotNil(t, p)
		return p, p.Record(answer)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{0, 1, 2}, got.Answered())
	assert.Equal(t, 150, got.TotalSeconds())
}

func TestProgressStore_UpdateKeepsStateOnRejectedChange(t *testing.T) {
	rc, mock, logger := newMockedRedis(t)
	store := NewProgressStore(rc, logger)
	key := ProgressKey("u1")

	mock.ExpectWatch(key)
	mock.ExpectGet(key).SetVal(encode(t, internal_interview.NewProgress(10, 600)))

	_, err := store.Update(context.Background(), "u1", func(p *internal_interview.Progress) (*internal_interview.Progress, error) {
		return p, p.Record(internal_interview.Answer{QuestionIndex: 12, DurationSeconds: 5})
	})
	assert.ErrorIs(t, err, internal_interview.ErrQuestionOutOfRange)
}

func TestProfileCache(t *testing.T) {
	rc, mock, logger := newMockedRedis(t)
	cache := NewProfileCache(rc, logger, 15*time.Minute)
	ctx := context.Background()

	profile := &internal_entity.Profile{Email: "ana@altera.ai", FullName: "Ana", UserRole: internal_entity.UserRoleHR}
	profile.Id = "u1"

	mock.ExpectGet(ProfileKey("u1")).RedisNil()
	cached, err := cache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, cached)

	mock.ExpectSet(ProfileKey("u1"), encode(t, profile), 15*time.Minute).SetVal("OK")
	require.NoError(t, cache.Set(ctx, profile))

	mock.ExpectGet(ProfileKey("u1")).SetVal(encode(t, profile))
	cached, err = cache.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "u1", cached.Id)
	assert.True(t, cached.UserRole.CanManagePersonas())

	mock.ExpectDel(ProfileKey("u1")).SetVal(1)
	require.NoError(t, cache.Delete(ctx, "u1"))
}

func TestRevocations(t *testing.T) {
	rc, mock, logger := newMockedRedis(t)
	rev := NewRevocations(rc, logger)
	ctx := context.Background()

	mock.ExpectSet(RevokedKey("jti-1"), "1", time.Minute).SetVal("OK")
	require.NoError(t, rev.Revoke(ctx, "jti-1", time.Minute))

	// an already expired token needs no entry
	require.NoError(t, rev.Revoke(ctx, "jti-2", -time.Second))

	mock.ExpectExists(RevokedKey("jti-1")).SetVal(1)
	revoked, err := rev.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mock.ExpectExists(RevokedKey("jti-3")).SetVal(0)
	revoked, err = rev.IsRevoked(ctx, "jti-3")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestUnavailableRedis(t *testing.T) {
	logger, err := commons.NewApplicationLogger(commons.Name("test-store"), commons.Path(t.TempDir()))
	require.NoError(t, err)
	store := NewWizardStore(connectors.NewRedisConnectorFromClient(nil, logger), logger)
	_, err = store.Load(context.Background(), "u1", internal_wizard.FlowPersona)
	assert.ErrorIs(t, err, ErrRedisUnavailable)
}
