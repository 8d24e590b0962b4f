// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package persona_api

import (
	"net/http"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/utils"
	"github.com/gin-gonic/gin"
)

type sessionResponse struct {
	Profile       *internal_entity.Profile      `json:"profile"`
	PersonaStatus internal_entity.PersonaStatus `json:"personaStatus"`
	NeedsOnboard  bool                          `json:"needsOnboarding"`
}

func (a *PersonaApi) sessionView(c *gin.Context, profile *internal_entity.Profile) sessionResponse {
	out := sessionResponse{
		Profile:       profile,
		PersonaStatus: internal_entity.PersonaNotCreated,
		NeedsOnboard:  utils.IsEmpty(profile.FullName),
	}
	if persona, err := a.personaService.GetForUser(c.Request.Context(), profile.Id); err == nil {
		out.PersonaStatus = persona.Status
	}
	return out
}

func (a *PersonaApi) GetSession(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	profile, err := a.session.Current(c.Request.Context(), principle)
	if err != nil {
		a.fail(c, "GetSession", err)
		return
	}
	utils.Success(c, http.StatusOK, a.sessionView(c, profile))
}

func (a *PersonaApi) RefreshSession(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	profile, err := a.session.Refresh(c.Request.Context(), principle)
	if err != nil {
		a.fail(c, "RefreshSession", err)
		return
	}
	utils.Success(c, http.StatusOK, a.sessionView(c, profile))
}

func (a *PersonaApi) SignOut(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	if err := a.session.Clear(c.Request.Context(), principle); err != nil {
		a.fail(c, "SignOut", err)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"redirect": commons.SIGN_IN_ROUTE})
}

type onboardingRequest struct {
	FullName string                   `json:"fullName" binding:"required"`
	WorkRole internal_entity.WorkRole `json:"workRole" binding:"required"`
}

// UpdateProfile completes onboarding: name and workplace role.
func (a *PersonaApi) UpdateProfile(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	var req onboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "validation_failed", "Please enter your name and select your role.")
		return
	}
	if _, err := a.profileService.Update(c.Request.Context(), principle.UserId, req.FullName, req.WorkRole); err != nil {
		a.fail(c, "UpdateProfile", err)
		return
	}
	profile, err := a.session.Refresh(c.Request.Context(), principle)
	if err != nil {
		a.fail(c, "UpdateProfile", err)
		return
	}
	utils.Success(c, http.StatusOK, a.sessionView(c, profile))
}
