// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package persona_api

import (
	"errors"
	"net/http"
	"time"

	internal_recorder "github.com/alteraai/api/persona-api/internal/audio/recorder"
	internal_background "github.com/alteraai/api/persona-api/internal/background"
	internal_builder "github.com/alteraai/api/persona-api/internal/builder"
	internal_interview "github.com/alteraai/api/persona-api/internal/interview"
	internal_metrics "github.com/alteraai/api/persona-api/internal/metrics"
	internal_objecturl "github.com/alteraai/api/persona-api/internal/objecturl"
	internal_processing "github.com/alteraai/api/persona-api/internal/processing"
	internal_services "github.com/alteraai/api/persona-api/internal/service"
	internal_persona_service "github.com/alteraai/api/persona-api/internal/service/persona"
	internal_phrase_service "github.com/alteraai/api/persona-api/internal/service/phrase"
	internal_profile_service "github.com/alteraai/api/persona-api/internal/service/profile"
	internal_simulation_service "github.com/alteraai/api/persona-api/internal/service/simulation"
	internal_session "github.com/alteraai/api/persona-api/internal/session"
	internal_store "github.com/alteraai/api/persona-api/internal/store"
	internal_wizard "github.com/alteraai/api/persona-api/internal/wizard"
	"github.com/alteraai/config"
	elevenlabs_client "github.com/alteraai/pkg/clients/elevenlabs"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/connectors"
	storage_files "github.com/alteraai/pkg/storages/file-storage"
	"github.com/alteraai/pkg/types"
	"github.com/alteraai/pkg/utils"
	"github.com/gin-gonic/gin"
)

// PersonaApi serves every authenticated route of the coaching app.
type PersonaApi struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	postgres connectors.PostgresConnector
	redis    connectors.RedisConnector

	storage storage_files.Storage
	voices  elevenlabs_client.Client
	runner  internal_background.Runner
	urls    internal_objecturl.Registry
	metrics *internal_metrics.Metrics

	profileService        internal_services.ProfileService
	personaService        internal_services.PersonaService
	personaContextService internal_services.PersonaContextService
	simulationService     internal_services.SimulationService
	phraseService         internal_services.PhraseService

	wizardStore   internal_store.WizardStore
	progressStore internal_store.ProgressStore
	session       internal_session.Provider
	builder       *internal_builder.Builder
	demoBounds    internal_interview.DemoBounds
	recorderOpts  []internal_recorder.Option
}

type Option func(*PersonaApi)

func WithWizardStore(s internal_store.WizardStore) Option {
	return func(a *PersonaApi) { a.wizardStore = s }
}

func WithProgressStore(s internal_store.ProgressStore) Option {
	return func(a *PersonaApi) { a.progressStore = s }
}

func WithSessionProvider(p internal_session.Provider) Option {
	return func(a *PersonaApi) { a.session = p }
}

// WithRecorderOptions applies opts to every streamed recorder, after the
// per-request ones.
func WithRecorderOptions(opts ...internal_recorder.Option) Option {
	return func(a *PersonaApi) { a.recorderOpts = append(a.recorderOpts, opts...) }
}

func NewPersonaApi(cfg *config.AppConfig, logger commons.Logger,
	postgres connectors.PostgresConnector,
	redis connectors.RedisConnector,
	storage storage_files.Storage,
	voices elevenlabs_client.Client,
	runner internal_background.Runner,
	urls internal_objecturl.Registry,
	metrics *internal_metrics.Metrics,
	opts ...Option,
) *PersonaApi {
	a := &PersonaApi{
		cfg:                   cfg,
		logger:                logger,
		postgres:              postgres,
		redis:                 redis,
		storage:               storage,
		voices:                voices,
		runner:                runner,
		urls:                  urls,
		metrics:               metrics,
		profileService:        internal_profile_service.NewProfileService(logger, postgres),
		personaService:        internal_persona_service.NewPersonaService(logger, postgres),
		personaContextService: internal_persona_service.NewPersonaContextService(logger, postgres),
		simulationService:     internal_simulation_service.NewSimulationService(logger, postgres),
		phraseService:         internal_phrase_service.NewPhraseService(logger, postgres),
		wizardStore:           internal_store.NewWizardStore(redis, logger),
		progressStore:         internal_store.NewProgressStore(redis, logger),
		demoBounds: internal_interview.DemoBounds{
			MinSeconds: cfg.InterviewConfig.DemoMinSeconds,
			MaxSeconds: cfg.InterviewConfig.DemoMaxSeconds,
		},
	}
	a.session = internal_session.NewProvider(logger,
		types.NewTokenVerifier(cfg.Secret),
		a.profileService,
		internal_store.NewProfileCache(redis, logger, time.Duration(cfg.RedisConfig.SessionTTLSecs)*time.Second),
		internal_store.NewRevocations(redis, logger),
	)
	for _, opt := range opts {
		opt(a)
	}
	a.builder = internal_builder.NewBuilder(logger, a.personaService, a.profileService, storage, voices)
	return a
}

func (a *PersonaApi) poller(maxWait time.Duration) *internal_processing.Poller {
	pc := a.cfg.ProcessingConfig
	return internal_processing.NewPoller(a.logger,
		time.Duration(pc.InitialIntervalMs)*time.Millisecond,
		time.Duration(pc.MaxIntervalMs)*time.Millisecond,
		maxWait,
	)
}

// principle returns the authenticated caller, answering 401 when there is none.
func (a *PersonaApi) principle(c *gin.Context) (*types.UserPrinciple, bool) {
	p, ok := types.GetAuthPrincipleGin(c)
	if !ok {
		utils.Unauthenticated(c)
		return nil, false
	}
	return p, true
}

const genericHumanMessage = "Something went wrong, please try again."

// fail maps err onto the response envelope. Technical detail is logged,
// the caller only sees a stable reason and a human message.
func (a *PersonaApi) fail(c *gin.Context, operation string, err error) {
	var (
		apiErr  elevenlabs_client.APIError
		timeErr *internal_interview.TimeError
	)
	switch {
	case errors.As(err, &timeErr):
		utils.Error(c, http.StatusBadRequest, "more_time_needed", timeErr.Error())
	case errors.Is(err, internal_interview.ErrIncompleteInterview):
		utils.Error(c, http.StatusBadRequest, "incomplete_interview", "Please answer every question before completing the interview.")
	case errors.Is(err, internal_interview.ErrQuestionOutOfRange):
		utils.Error(c, http.StatusBadRequest, "invalid_question", "That question does not exist.")
	case errors.Is(err, internal_interview.ErrNoRecording),
		errors.Is(err, internal_interview.ErrInvalidDuration),
		errors.Is(err, internal_interview.ErrDurationMismatch),
		errors.Is(err, internal_interview.ErrRecordingTooShort),
		errors.Is(err, internal_interview.ErrRecordingTooLong):
		utils.Error(c, http.StatusBadRequest, "invalid_recording", err.Error())
	case errors.Is(err, errPersonaLocked):
		utils.Error(c, http.StatusConflict, "persona_locked", "Your persona is already being created.")
	case errors.Is(err, internal_store.ErrUpdateConflict):
		utils.Error(c, http.StatusConflict, "try_again", "Your answer was not saved, please try again.")
	case errors.Is(err, internal_services.ErrValidation):
		utils.Error(c, http.StatusBadRequest, "validation_failed", internal_services.HumanMessage(err, genericHumanMessage))
	case errors.Is(err, internal_services.ErrNotFound):
		utils.Error(c, http.StatusNotFound, "not_found", "We couldn't find what you were looking for.")
	case errors.Is(err, internal_services.ErrConflict):
		utils.Error(c, http.StatusConflict, "already_exists", "This already exists.")
	case errors.Is(err, internal_wizard.ErrUnknownFlow),
		errors.Is(err, internal_wizard.ErrUnknownStep):
		utils.Error(c, http.StatusBadRequest, "unknown_step", "That step does not exist.")
	case errors.Is(err, internal_wizard.ErrTransitionNotAllowed),
		errors.Is(err, internal_wizard.ErrNoPreviousStep):
		utils.Error(c, http.StatusConflict, "transition_not_allowed", "You can't go there from this step.")
	case errors.Is(err, internal_wizard.ErrConsentRequired),
		errors.Is(err, internal_wizard.ErrMicTestRequired),
		errors.Is(err, internal_wizard.ErrVoiceRequired),
		errors.Is(err, internal_wizard.ErrDurationRequired):
		utils.Error(c, http.StatusBadRequest, "step_incomplete", err.Error())
	case errors.As(err, &apiErr):
		a.logger.Errorf("%s failed upstream: %v", operation, err)
		utils.Error(c, http.StatusBadGateway, "upstream_failed", "The voice service is unavailable right now, please try again.")
	case errors.Is(err, internal_session.ErrNoSession),
		errors.Is(err, internal_session.ErrTokenRevoked):
		utils.Unauthenticated(c)
	default:
		a.logger.Errorf("%s failed: %v", operation, err)
		utils.Error(c, http.StatusInternalServerError, "internal_error", genericHumanMessage)
		return
	}
	a.logger.Debugf("%s rejected: %v", operation, err)
}

// upstreamFail answers 502 for any failure talking to the voice service.
func (a *PersonaApi) upstreamFail(c *gin.Context, operation string, err error) {
	a.logger.Errorf("%s failed upstream: %v", operation, err)
	utils.Error(c, http.StatusBadGateway, "upstream_failed", "The voice service is unavailable right now, please try again.")
}
