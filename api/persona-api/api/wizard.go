// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package persona_api

import (
	"context"
	"net/http"
	"time"

	internal_wizard "github.com/alteraai/api/persona-api/internal/wizard"
	"github.com/alteraai/pkg/utils"
	"github.com/gin-gonic/gin"
)

type wizardView struct {
	Flow       string                      `json:"flow"`
	Current    string                      `json:"current"`
	Index      int                         `json:"index"`
	Payload    map[string]string           `json:"payload"`
	Indicators []internal_wizard.Indicator `json:"indicators"`
	UpdatedAt  time.Time                   `json:"updatedAt"`
	BackTarget string                      `json:"backTarget,omitempty"`
}

func viewOf(ctrl *internal_wizard.Controller) wizardView {
	st := ctrl.State()
	return wizardView{
		Flow:       st.Flow,
		Current:    st.Current,
		Index:      ctrl.Index(),
		Payload:    st.Payload,
		Indicators: ctrl.Indicators(),
		UpdatedAt:  st.UpdatedAt,
	}
}

// definition returns the flow with the guards that need server state.
func (a *PersonaApi) definition(ctx context.Context, flow, userId string) (internal_wizard.Definition, error) {
	def, err := internal_wizard.Lookup(flow)
	if err != nil {
		return def, err
	}
	switch flow {
	case internal_wizard.FlowPersona:
		def = def.WithGuard(internal_wizard.StepInterview, func(map[string]string) error {
			progress, err := a.loadProgress(ctx, userId)
			if err != nil {
				return err
			}
			return progress.Finish()
		})
	case internal_wizard.FlowDemo:
		def = def.WithGuard(internal_wizard.StepRecording, internal_wizard.RequireDemoRecording(func(seconds int) error {
			return a.demoBounds.Validate(true, seconds)
		}))
	}
	return def, nil
}

func (a *PersonaApi) loadController(ctx context.Context, userId, flow string) (*internal_wizard.Controller, error) {
	def, err := a.definition(ctx, flow, userId)
	if err != nil {
		return nil, err
	}
	st, err := a.wizardStore.Load(ctx, userId, flow)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return internal_wizard.NewController(def), nil
	}
	ctrl, err := internal_wizard.Restore(def, *st)
	if err != nil {
		a.logger.Warnf("discarding stale %s wizard state of user %s: %v", flow, userId, err)
		return internal_wizard.NewController(def), nil
	}
	return ctrl, nil
}

func (a *PersonaApi) GetWizard(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	ctrl, err := a.loadController(c.Request.Context(), principle.UserId, c.Param("flow"))
	if err != nil {
		a.fail(c, "GetWizard", err)
		return
	}
	utils.Success(c, http.StatusOK, viewOf(ctrl))
}

type advanceRequest struct {
	To      string            `json:"to" binding:"required"`
	Payload map[string]string `json:"payload"`
}

func (a *PersonaApi) AdvanceWizard(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "validation_failed", "Choose the step to continue to.")
		return
	}
	ctx := c.Request.Context()
	ctrl, err := a.loadController(ctx, principle.UserId, c.Param("flow"))
	if err != nil {
		a.fail(c, "AdvanceWizard", err)
		return
	}
	if err := ctrl.Advance(req.To, req.Payload); err != nil {
		a.fail(c, "AdvanceWizard", err)
		return
	}
	if err := a.wizardStore.Save(ctx, principle.UserId, ctrl.State()); err != nil {
		a.fail(c, "AdvanceWizard", err)
		return
	}
	utils.Success(c, http.StatusOK, viewOf(ctrl))
}

func (a *PersonaApi) BackWizard(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	ctrl, err := a.loadController(ctx, principle.UserId, c.Param("flow"))
	if err != nil {
		a.fail(c, "BackWizard", err)
		return
	}
	target, err := ctrl.GoBack()
	if err != nil {
		a.fail(c, "BackWizard", err)
		return
	}
	view := viewOf(ctrl)
	if target != "" {
		view.BackTarget = target
		utils.Success(c, http.StatusOK, view)
		return
	}
	if err := a.wizardStore.Save(ctx, principle.UserId, ctrl.State()); err != nil {
		a.fail(c, "BackWizard", err)
		return
	}
	utils.Success(c, http.StatusOK, view)
}

func (a *PersonaApi) ResetWizard(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	flow := c.Param("flow")
	if _, err := internal_wizard.Lookup(flow); err != nil {
		a.fail(c, "ResetWizard", err)
		return
	}
	if err := a.wizardStore.Delete(c.Request.Context(), principle.UserId, flow); err != nil {
		a.fail(c, "ResetWizard", err)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"flow": flow})
}
