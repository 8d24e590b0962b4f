// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package persona_routers

import (
	personaApi "github.com/alteraai/api/persona-api/api"
	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	"github.com/alteraai/pkg/commons"
	"github.com/gin-gonic/gin"
)

func SessionApiRoute(engine *gin.Engine, logger commons.Logger, api *personaApi.PersonaApi) {
	logger.Info("SessionApiRoute added to engine.")
	apiv1 := engine.Group("/v1/session", api.Authenticated())
	{
		apiv1.GET("", api.GetSession)
		apiv1.POST("/refresh", api.RefreshSession)
		apiv1.POST("/sign-out", api.SignOut)
		apiv1.PUT("/profile", api.UpdateProfile)
	}
}

func WizardApiRoute(engine *gin.Engine, logger commons.Logger, api *personaApi.PersonaApi) {
	logger.Info("WizardApiRoute added to engine.")
	apiv1 := engine.Group("/v1/wizard", api.Authenticated())
	{
		apiv1.GET("/:flow", api.GetWizard)
		apiv1.POST("/:flow/advance", api.AdvanceWizard)
		apiv1.POST("/:flow/back", api.BackWizard)
		apiv1.DELETE("/:flow", api.ResetWizard)
	}
}

func InterviewApiRoute(engine *gin.Engine, logger commons.Logger, api *personaApi.PersonaApi) {
	logger.Info("InterviewApiRoute added to engine.")
	apiv1 := engine.Group("/v1/interview", api.Authenticated())
	{
		apiv1.GET("/questions", api.GetQuestions)
		apiv1.POST("/answers/:index", api.SubmitAnswer)
		apiv1.GET("/progress", api.GetProgress)
		apiv1.POST("/complete", api.CompleteInterview)
	}
}

func RecordingApiRoute(engine *gin.Engine, logger commons.Logger, api *personaApi.PersonaApi) {
	logger.Info("RecordingApiRoute added to engine.")
	apiv1 := engine.Group("/v1/recording", api.Authenticated())
	{
		apiv1.GET("/mic-level", api.MicLevel)
		apiv1.GET("/stream", api.StreamRecording)
		apiv1.GET("/blob/:id", api.GetRecordingBlob)
	}
}

func PersonaApiRoute(engine *gin.Engine, logger commons.Logger, api *personaApi.PersonaApi) {
	logger.Info("PersonaApiRoute added to engine.")
	apiv1 := engine.Group("/v1/persona", api.Authenticated())
	{
		apiv1.GET("", api.GetPersona)
		apiv1.POST("", api.CreatePersona)
		apiv1.GET("/:id/processing", api.GetProcessing)

		apiv1.GET("/:id/traits", api.GetAllTrait)
		apiv1.POST("/:id/traits", api.CreateTrait)
		apiv1.PUT("/:id/traits/:traitId", api.UpdateTrait)
		apiv1.DELETE("/:id/traits/:traitId", api.DeleteTrait)

		apiv1.GET("/:id/events", api.GetAllEvent)
		apiv1.POST("/:id/events", api.CreateEvent)
		apiv1.PUT("/:id/events/:eventId", api.UpdateEvent)
		apiv1.DELETE("/:id/events/:eventId", api.DeleteEvent)
	}

	admin := engine.Group("/v1/admin", api.Authenticated(), api.RequireRole(internal_entity.UserRoleHR, internal_entity.UserRoleAdmin))
	{
		admin.GET("/personas", api.GetAllPersonaWithConsent)
	}
}

func VoiceApiRoute(engine *gin.Engine, logger commons.Logger, api *personaApi.PersonaApi) {
	logger.Info("VoiceApiRoute added to engine.")
	apiv1 := engine.Group("/v1/voice", api.Authenticated())
	{
		apiv1.POST("/create", api.CreateVoice)
		apiv1.POST("/agent", api.CreateAgent)
		apiv1.POST("/tts", api.TextToSpeech)
		apiv1.POST("/session", api.CreateConversationSession)
		apiv1.GET("/conversation/:conversationId", api.GetConversation)
	}
}

func SimulationApiRoute(engine *gin.Engine, logger commons.Logger, api *personaApi.PersonaApi) {
	logger.Info("SimulationApiRoute added to engine.")
	apiv1 := engine.Group("/v1/simulations", api.Authenticated())
	{
		apiv1.POST("", api.CreateSimulation)
		apiv1.POST("/complete", api.CompleteSimulation)
		apiv1.GET("", api.GetAllSimulation)
		apiv1.GET("/:id", api.GetSimulation)
	}
}

func PhraseApiRoute(engine *gin.Engine, logger commons.Logger, api *personaApi.PersonaApi) {
	logger.Info("PhraseApiRoute added to engine.")
	apiv1 := engine.Group("/v1/phrases", api.Authenticated())
	{
		apiv1.GET("", api.GetAllPhrase)
		apiv1.POST("", api.CreatePhrase)
		apiv1.DELETE("/:id", api.DeletePhrase)
	}
}

// PersonaRoutes registers every authenticated route of the service.
func PersonaRoutes(engine *gin.Engine, logger commons.Logger, api *personaApi.PersonaApi) {
	SessionApiRoute(engine, logger, api)
	WizardApiRoute(engine, logger, api)
	InterviewApiRoute(engine, logger, api)
	RecordingApiRoute(engine, logger, api)
	PersonaApiRoute(engine, logger, api)
	VoiceApiRoute(engine, logger, api)
	SimulationApiRoute(engine, logger, api)
	PhraseApiRoute(engine, logger, api)
}
