// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package persona_api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	internal_background "github.com/alteraai/api/persona-api/internal/background"
	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	elevenlabs_client "github.com/alteraai/pkg/clients/elevenlabs"
	"github.com/alteraai/pkg/utils"
	"github.com/gin-gonic/gin"
)

const transcriptRoleAgent = "agent"

var errTranscriptNotReady = errors.New("conversation transcript not available yet")

type createSimulationRequest struct {
	PersonaId string `json:"personaId"`
	UserRole  string `json:"userRole"`
	OtherRole string `json:"otherRole"`
	Theme     string `json:"theme"`
	Emotion   string `json:"emotion"`
	Context   string `json:"context"`
}

type completeSimulationRequest struct {
	ConversationId string `json:"conversationId" binding:"required"`
	PersonaId      string `json:"personaId"`
	Theme          string `json:"theme"`
	Emotion        string `json:"emotion"`
	Context        string `json:"context"`
}

func (r createSimulationRequest) entity(userId string) *internal_entity.Simulation {
	sim := &internal_entity.Simulation{
		UserId:    userId,
		Theme:     internal_entity.ConversationTheme(r.Theme),
		Emotion:   internal_entity.Emotion(r.Emotion),
		Context:   strings.TrimSpace(r.Context),
		UserRole:  strings.TrimSpace(r.UserRole),
		OtherRole: strings.TrimSpace(r.OtherRole),
	}
	if r.PersonaId != "" {
		sim.PersonaId = utils.Ptr(r.PersonaId)
	}
	return sim
}

// transcriptMessages maps the voice service transcript onto simulation
// messages, the agent speaks as the assistant.
func transcriptMessages(entries []elevenlabs_client.TranscriptEntry) []*internal_entity.SimulationMessage {
	out := make([]*internal_entity.SimulationMessage, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Message) == "" {
			continue
		}
		role := internal_entity.MessageRoleUser
		if e.Role == transcriptRoleAgent {
			role = internal_entity.MessageRoleAssistant
		}
		out = append(out, &internal_entity.SimulationMessage{Role: role, Content: e.Message})
	}
	return out
}

func (a *PersonaApi) CreateSimulation(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	var req createSimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid_request", "Please describe the conversation you want to practice.")
		return
	}
	sim, err := a.simulationService.Create(c.Request.Context(), req.entity(principle.UserId))
	if err != nil {
		a.fail(c, "CreateSimulation", err)
		return
	}
	utils.Success(c, http.StatusCreated, sim)
}

// CompleteSimulation records a finished conversation and fetches its
// transcript in the background; the response does not wait for it.
func (a *PersonaApi) CompleteSimulation(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	var req completeSimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid_request", "The conversation could not be identified.")
		return
	}
	sim := createSimulationRequest{
		PersonaId: req.PersonaId,
		Theme:     req.Theme,
		Emotion:   req.Emotion,
		Context:   req.Context,
	}.entity(principle.UserId)
	sim.ConversationId = req.ConversationId
	sim.CompletedAt = utils.Ptr(time.Now().UTC())

	sim, err := a.simulationService.Create(c.Request.Context(), sim)
	if err != nil {
		a.fail(c, "CompleteSimulation", err)
		return
	}
	a.fetchTranscript(sim.Id, sim.ConversationId)
	utils.Success(c, http.StatusAccepted, gin.H{
		"simulation":        sim,
		"transcript_status": sim.TranscriptStatus,
	})
}

func (a *PersonaApi) fetchTranscript(simulationId, conversationId string) {
	_, err := a.runner.Submit("fetch_transcript", func(ctx context.Context) error {
		conv, err := a.voices.Conversation(ctx, conversationId)
		if err != nil {
			return err
		}
		messages := transcriptMessages(conv.Transcript)
		if len(messages) == 0 {
			return errTranscriptNotReady
		}
		return a.simulationService.SaveTranscript(ctx, simulationId, messages)
	}, func(info internal_background.TaskInfo) {
		if info.Status != internal_background.StatusFailed {
			return
		}
		if err := a.simulationService.UpdateTranscriptStatus(context.Background(), simulationId, internal_entity.TranscriptFailed); err != nil {
			a.logger.Errorf("unable to mark transcript of simulation %s failed: %v", simulationId, err)
		}
	})
	if err != nil {
		a.logger.Errorf("unable to schedule transcript fetch of simulation %s: %v", simulationId, err)
	}
}

func (a *PersonaApi) GetAllSimulation(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	sims, err := a.simulationService.GetAll(c.Request.Context(), principle.UserId)
	if err != nil {
		a.fail(c, "GetAllSimulation", err)
		return
	}
	utils.Success(c, http.StatusOK, sims)
}

func (a *PersonaApi) GetSimulation(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	sim, err := a.simulationService.Get(c.Request.Context(), c.Param("id"), principle.UserId)
	if err != nil {
		a.fail(c, "GetSimulation", err)
		return
	}
	utils.Success(c, http.StatusOK, sim)
}
