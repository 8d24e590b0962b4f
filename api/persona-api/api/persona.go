// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package persona_api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	internal_processing "github.com/alteraai/api/persona-api/internal/processing"
	internal_services "github.com/alteraai/api/persona-api/internal/service"
	internal_wizard "github.com/alteraai/api/persona-api/internal/wizard"
	"github.com/alteraai/pkg/utils"
	"github.com/gin-gonic/gin"
)

const eventDateLayout = "2006-01-02"

type createPersonaRequest struct {
	Consent bool `json:"consent"`
}

type traitRequest struct {
	Trait    string `json:"trait"`
	Category string `json:"category"`
}

type eventRequest struct {
	Title       string `json:"title"`
	EventDate   string `json:"eventDate"`
	Description string `json:"description"`
}

type processingResponse struct {
	PersonaId   string                        `json:"personaId"`
	Outcome     internal_processing.Outcome   `json:"outcome"`
	Status      internal_entity.PersonaStatus `json:"status"`
	Recoverable bool                          `json:"recoverable"`
}

func (a *PersonaApi) GetPersona(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	persona, err := a.personaService.GetForUser(ctx, principle.UserId)
	if err != nil {
		a.fail(c, "GetPersona", err)
		return
	}
	full, err := a.personaService.Get(ctx, persona.Id, principle.UserId)
	if err != nil {
		a.fail(c, "GetPersona", err)
		return
	}
	utils.Success(c, http.StatusOK, full)
}

func (a *PersonaApi) CreatePersona(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	var req createPersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Consent {
		a.fail(c, "CreatePersona", internal_wizard.ErrConsentRequired)
		return
	}
	ctx := c.Request.Context()
	persona, err := a.personaService.CreateWithConsent(ctx, principle.UserId)
	if err != nil {
		a.fail(c, "CreatePersona", err)
		return
	}
	// a new persona starts a new interview
	if err := a.progressStore.Delete(ctx, principle.UserId); err != nil {
		a.logger.Warnf("unable to clear interview progress of user %s: %v", principle.UserId, err)
	}
	utils.Success(c, http.StatusCreated, persona)
}

func outcomeOf(status internal_entity.PersonaStatus) internal_processing.Outcome {
	switch status {
	case internal_entity.PersonaActive:
		return internal_processing.Ready
	case internal_entity.PersonaFailed:
		return internal_processing.Failed
	}
	return internal_processing.StillProcessing
}

// GetProcessing reports the build outcome. With ?wait=N it long-polls up to N
// seconds (capped by configuration) until the build is ready or failed.
func (a *PersonaApi) GetProcessing(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	personaId := c.Param("id")
	wait, _ := strconv.Atoi(c.DefaultQuery("wait", "0"))
	if max := a.cfg.ProcessingConfig.MaxWaitSeconds; wait > max {
		wait = max
	}

	var status internal_entity.PersonaStatus
	query := func(ctx context.Context) (internal_processing.Outcome, error) {
		persona, err := a.personaService.Get(ctx, personaId, principle.UserId)
		if err != nil {
			return internal_processing.StillProcessing, err
		}
		status = persona.Status
		return outcomeOf(status), nil
	}

	// the first read also checks ownership, the poller would retry a 404
	outcome, err := query(ctx)
	if err != nil {
		a.fail(c, "GetProcessing", err)
		return
	}
	if !outcome.Terminal() && wait > 0 {
		if outcome, err = a.poller(time.Duration(wait)*time.Second).Wait(ctx, query); err != nil {
			a.fail(c, "GetProcessing", err)
			return
		}
	}
	if outcome == internal_processing.Ready {
		a.moveWizard(ctx, principle.UserId, internal_wizard.StepProcessing, internal_wizard.StepConfirmation)
	}
	utils.Success(c, http.StatusOK, processingResponse{
		PersonaId:   personaId,
		Outcome:     outcome,
		Status:      status,
		Recoverable: !outcome.Terminal(),
	})
}

// ownedPersona answers 404 unless the caller owns the persona in the path.
func (a *PersonaApi) ownedPersona(c *gin.Context, operation string) (string, bool) {
	principle, ok := a.principle(c)
	if !ok {
		return "", false
	}
	persona, err := a.personaService.Get(c.Request.Context(), c.Param("id"), principle.UserId)
	if err != nil {
		a.fail(c, operation, err)
		return "", false
	}
	return persona.Id, true
}

func (a *PersonaApi) GetAllTrait(c *gin.Context) {
	personaId, ok := a.ownedPersona(c, "GetAllTrait")
	if !ok {
		return
	}
	traits, err := a.personaContextService.GetAllTrait(c.Request.Context(), personaId)
	if err != nil {
		a.fail(c, "GetAllTrait", err)
		return
	}
	utils.Success(c, http.StatusOK, traits)
}

func (a *PersonaApi) CreateTrait(c *gin.Context) {
	personaId, ok := a.ownedPersona(c, "CreateTrait")
	if !ok {
		return
	}
	var req traitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.fail(c, "CreateTrait", internal_services.Invalid("Trait required"))
		return
	}
	trait, err := a.personaContextService.CreateTrait(c.Request.Context(), personaId, req.Trait, req.Category)
	if err != nil {
		a.fail(c, "CreateTrait", err)
		return
	}
	utils.Success(c, http.StatusCreated, trait)
}

func (a *PersonaApi) UpdateTrait(c *gin.Context) {
	personaId, ok := a.ownedPersona(c, "UpdateTrait")
	if !ok {
		return
	}
	var req traitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.fail(c, "UpdateTrait", internal_services.Invalid("Trait required"))
		return
	}
	trait, err := a.personaContextService.UpdateTrait(c.Request.Context(), personaId, c.Param("traitId"), req.Trait, req.Category)
	if err != nil {
		a.fail(c, "UpdateTrait", err)
		return
	}
	utils.Success(c, http.StatusOK, trait)
}

func (a *PersonaApi) DeleteTrait(c *gin.Context) {
	personaId, ok := a.ownedPersona(c, "DeleteTrait")
	if !ok {
		return
	}
	if err := a.personaContextService.DeleteTrait(c.Request.Context(), personaId, c.Param("traitId")); err != nil {
		a.fail(c, "DeleteTrait", err)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// eventDate parses the optional yyyy-mm-dd date of an event request.
func eventDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(eventDateLayout, raw)
	if err != nil {
		return nil, internal_services.Invalid("Use a date like 2025-01-31")
	}
	return &t, nil
}

func (a *PersonaApi) GetAllEvent(c *gin.Context) {
	personaId, ok := a.ownedPersona(c, "GetAllEvent")
	if !ok {
		return
	}
	events, err := a.personaContextService.GetAllEvent(c.Request.Context(), personaId)
	if err != nil {
		a.fail(c, "GetAllEvent", err)
		return
	}
	utils.Success(c, http.StatusOK, events)
}

func (a *PersonaApi) CreateEvent(c *gin.Context) {
	personaId, ok := a.ownedPersona(c, "CreateEvent")
	if !ok {
		return
	}
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.fail(c, "CreateEvent", internal_services.Invalid("Title required"))
		return
	}
	date, err := eventDate(req.EventDate)
	if err != nil {
		a.fail(c, "CreateEvent", err)
		return
	}
	event, err := a.personaContextService.CreateEvent(c.Request.Context(), personaId, req.Title, date, req.Description)
	if err != nil {
		a.fail(c, "CreateEvent", err)
		return
	}
	utils.Success(c, http.StatusCreated, event)
}

func (a *PersonaApi) UpdateEvent(c *gin.Context) {
	personaId, ok := a.ownedPersona(c, "UpdateEvent")
	if !ok {
		return
	}
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.fail(c, "UpdateEvent", internal_services.Invalid("Title required"))
		return
	}
	date, err := eventDate(req.EventDate)
	if err != nil {
		a.fail(c, "UpdateEvent", err)
		return
	}
	event, err := a.personaContextService.UpdateEvent(c.Request.Context(), personaId, c.Param("eventId"), req.Title, date, req.Description)
	if err != nil {
		a.fail(c, "UpdateEvent", err)
		return
	}
	utils.Success(c, http.StatusOK, event)
}

func (a *PersonaApi) DeleteEvent(c *gin.Context) {
	personaId, ok := a.ownedPersona(c, "DeleteEvent")
	if !ok {
		return
	}
	if err := a.personaContextService.DeleteEvent(c.Request.Context(), personaId, c.Param("eventId")); err != nil {
		a.fail(c, "DeleteEvent", err)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GetAllPersonaWithConsent lists consenting personas for HR and admins.
func (a *PersonaApi) GetAllPersonaWithConsent(c *gin.Context) {
	listing, err := a.personaService.GetAllWithConsent(c.Request.Context())
	if err != nil {
		a.fail(c, "GetAllPersonaWithConsent", err)
		return
	}
	utils.Success(c, http.StatusOK, listing)
}
