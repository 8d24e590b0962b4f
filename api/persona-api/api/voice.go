// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package persona_api

import (
	"net/http"

	internal_audio "github.com/alteraai/api/persona-api/internal/audio"
	internal_builder "github.com/alteraai/api/persona-api/internal/builder"
	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	elevenlabs_client "github.com/alteraai/pkg/clients/elevenlabs"
	"github.com/alteraai/pkg/utils"
	"github.com/gin-gonic/gin"
)

const agentLanguage = "en"

type createAgentRequest struct {
	VoiceId   string `json:"voiceId" binding:"required,min=8,max=64,alphanum"`
	PersonaId string `json:"personaId"`
	Role      string `json:"role"`
}

type textToSpeechRequest struct {
	VoiceId string `json:"voiceId" binding:"required,min=8,max=64,alphanum"`
	Text    string `json:"text" binding:"required,min=1,max=2000"`
}

type signedUrlRequest struct {
	AgentId string `json:"agentId" binding:"required"`
}

// CreateVoice clones a voice from a single uploaded sample.
func (a *PersonaApi) CreateVoice(c *gin.Context) {
	if _, ok := a.principle(c); !ok {
		return
	}
	displayName := c.PostForm("displayName")
	if utils.IsEmpty(displayName) {
		utils.Error(c, http.StatusBadRequest, "invalid_request", "Please give the voice a name.")
		return
	}
	blob, err := readAudio(c)
	if err != nil || blob.Size() == 0 {
		utils.Error(c, http.StatusBadRequest, "invalid_recording", "Please record a sample first.")
		return
	}
	duration, err := measuredDuration(c, blob)
	if err != nil {
		a.fail(c, "CreateVoice", err)
		return
	}
	if err := a.demoBounds.Validate(true, duration); err != nil {
		a.fail(c, "CreateVoice", err)
		return
	}

	voiceId, err := a.voices.CreateVoice(c.Request.Context(), elevenlabs_client.CreateVoiceRequest{
		Name:        displayName,
		Description: c.PostForm("description"),
		Files: []elevenlabs_client.VoiceFile{{
			Name:        "sample.wav",
			ContentType: blob.MimeType,
			Data:        blob.Data,
		}},
	})
	if err != nil {
		a.upstreamFail(c, "CreateVoice", err)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"voiceId": voiceId, "durationSeconds": duration})
}

// CreateAgent builds a conversational agent on top of voiceId. When a persona
// is given its traits shape the prompt and the agent is stored on it.
func (a *PersonaApi) CreateAgent(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	var req createAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid_request", "A valid voice is required.")
		return
	}
	ctx := c.Request.Context()

	profile, err := a.profileService.Get(ctx, principle.UserId)
	if err != nil {
		a.fail(c, "CreateAgent", err)
		return
	}
	if req.Role != "" {
		if role := internal_entity.WorkRole(req.Role); role.Valid() {
			override := *profile
			override.WorkRole = role
			profile = &override
		} else {
			a.logger.Warnf("ignoring unknown agent role %q", req.Role)
		}
	}

	var traits []*internal_entity.PersonaTrait
	if req.PersonaId != "" {
		persona, err := a.personaService.Get(ctx, req.PersonaId, principle.UserId)
		if err != nil {
			a.fail(c, "CreateAgent", err)
			return
		}
		traits = persona.Traits
	}

	prompt, err := internal_builder.AgentPrompt(profile, traits)
	if err != nil {
		a.fail(c, "CreateAgent", err)
		return
	}
	agentId, err := a.voices.CreateAgent(ctx, elevenlabs_client.CreateAgentRequest{
		Prompt:       prompt,
		FirstMessage: internal_builder.DefaultFirstMessage,
		Language:     agentLanguage,
		VoiceId:      req.VoiceId,
	})
	if err != nil {
		a.upstreamFail(c, "CreateAgent", err)
		return
	}
	if req.PersonaId != "" {
		if err := a.personaService.SetAgent(ctx, req.PersonaId, principle.UserId, agentId); err != nil {
			a.logger.Errorf("agent %s created but not stored on persona %s: %v", agentId, req.PersonaId, err)
		}
	}
	utils.Success(c, http.StatusOK, gin.H{"agent_id": agentId})
}

func (a *PersonaApi) TextToSpeech(c *gin.Context) {
	if _, ok := a.principle(c); !ok {
		return
	}
	var req textToSpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid_request", "Text must be 1 to 2000 characters with a valid voice.")
		return
	}
	audio, err := a.voices.TextToSpeech(c.Request.Context(), req.VoiceId, req.Text)
	if err != nil {
		a.upstreamFail(c, "TextToSpeech", err)
		return
	}
	c.Data(http.StatusOK, internal_audio.MimeTypeMPEG, audio)
}

func (a *PersonaApi) CreateConversationSession(c *gin.Context) {
	if _, ok := a.principle(c); !ok {
		return
	}
	var req signedUrlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid_request", "An agent is required to start a conversation.")
		return
	}
	url, err := a.voices.SignedURL(c.Request.Context(), req.AgentId)
	if err != nil {
		a.upstreamFail(c, "CreateConversationSession", err)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"signed_url": url})
}

func (a *PersonaApi) GetConversation(c *gin.Context) {
	if _, ok := a.principle(c); !ok {
		return
	}
	conv, err := a.voices.Conversation(c.Request.Context(), c.Param("conversationId"))
	if err != nil {
		a.upstreamFail(c, "GetConversation", err)
		return
	}
	utils.Success(c, http.StatusOK, conv)
}
