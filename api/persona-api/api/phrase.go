// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package persona_api

import (
	"net/http"

	"github.com/alteraai/pkg/utils"
	"github.com/gin-gonic/gin"
)

type phraseRequest struct {
	Phrase  string `json:"phrase"`
	Context string `json:"context"`
}

func (a *PersonaApi) GetAllPhrase(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	phrases, err := a.phraseService.GetAll(c.Request.Context(), principle.UserId)
	if err != nil {
		a.fail(c, "GetAllPhrase", err)
		return
	}
	utils.Success(c, http.StatusOK, phrases)
}

func (a *PersonaApi) CreatePhrase(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	var req phraseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid_request", "Phrase required")
		return
	}
	phrase, err := a.phraseService.Create(c.Request.Context(), principle.UserId, req.Phrase, req.Context)
	if err != nil {
		a.fail(c, "CreatePhrase", err)
		return
	}
	utils.Success(c, http.StatusCreated, phrase)
}

func (a *PersonaApi) DeletePhrase(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	if err := a.phraseService.Delete(c.Request.Context(), principle.UserId, c.Param("id")); err != nil {
		a.fail(c, "DeletePhrase", err)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"deleted": true})
}
