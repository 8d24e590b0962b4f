// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package persona_api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	internal_audio "github.com/alteraai/api/persona-api/internal/audio"
	internal_recorder "github.com/alteraai/api/persona-api/internal/audio/recorder"
	internal_background "github.com/alteraai/api/persona-api/internal/background"
	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	internal_interview "github.com/alteraai/api/persona-api/internal/interview"
	internal_wizard "github.com/alteraai/api/persona-api/internal/wizard"
	storage_files "github.com/alteraai/pkg/storages/file-storage"
	"github.com/alteraai/pkg/utils"
	backoff "github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
)

// upper bound of a single uploaded answer
const maxAnswerBytes = 64 << 20

type progressView struct {
	Questions        int                                  `json:"questions"`
	Answered         []int                                `json:"answered"`
	TotalSeconds     int                                  `json:"totalSeconds"`
	MinTotalSeconds  int                                  `json:"minTotalSeconds"`
	RemainingSeconds int                                  `json:"remainingSeconds"`
	TimePercent      int                                  `json:"timePercent"`
	CanComplete      bool                                 `json:"canComplete"`
	Uploads          map[int]internal_background.TaskInfo `json:"uploads"`
}

var errPersonaLocked = errors.New("persona is already being created")

func (a *PersonaApi) loadProgress(ctx context.Context, userId string) (*internal_interview.Progress, error) {
	p, err := a.progressStore.Load(ctx, userId)
	if err != nil {
		return nil, err
	}
	return a.currentRules(p), nil
}

// currentRules applies the configured interview rules to stored progress.
func (a *PersonaApi) currentRules(p *internal_interview.Progress) *internal_interview.Progress {
	if p == nil {
		p = internal_interview.NewProgress(len(internal_interview.PersonaQuestions), a.cfg.InterviewConfig.MinTotalSeconds)
	}
	p.Questions = len(internal_interview.PersonaQuestions)
	p.MinTotalSeconds = a.cfg.InterviewConfig.MinTotalSeconds
	return p
}

// commitAnswer records an answer into the latest stored progress, so answers
// kept by other requests of the same user survive.
func (a *PersonaApi) commitAnswer(userId string) internal_interview.CommitFunc {
	return func(ctx context.Context, ans internal_interview.Answer) (*internal_interview.Progress, error) {
		return a.progressStore.Update(ctx, userId, func(p *internal_interview.Progress) (*internal_interview.Progress, error) {
			p = a.currentRules(p)
			return p, p.Record(ans)
		})
	}
}

func acceptsAnswers(persona *internal_entity.Persona) error {
	if persona.Status != internal_entity.PersonaInProgress && persona.Status != internal_entity.PersonaFailed {
		return fmt.Errorf("%w: %s", errPersonaLocked, persona.Status)
	}
	return nil
}

// answerGate re-reads the persona right before an answer is kept; the
// interview may have been completed while the answer was recorded.
func (a *PersonaApi) answerGate(userId string) internal_interview.GateFunc {
	return func(ctx context.Context) error {
		persona, err := a.personaService.GetForUser(ctx, userId)
		if err != nil {
			return err
		}
		return acceptsAnswers(persona)
	}
}

// answerSession wires a session to the stored progress of userId.
func (a *PersonaApi) answerSession(userId, personaId string, progress *internal_interview.Progress, rec internal_recorder.Recorder) *internal_interview.Session {
	return internal_interview.NewSession(a.logger, internal_interview.PersonaQuestions, progress, rec, a.uploadAnswer(personaId),
		internal_interview.WithCommit(a.commitAnswer(userId)),
		internal_interview.WithGate(a.answerGate(userId)),
	)
}

// measuredDuration reads the optional client duration and checks it against
// the audio itself.
func measuredDuration(c *gin.Context, blob *internal_audio.Blob) (int, error) {
	claimed := 0
	if raw := c.PostForm("duration"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, internal_interview.ErrInvalidDuration
		}
		claimed = v
	}
	return internal_interview.MeasureDuration(blob, claimed)
}

func (a *PersonaApi) viewOfProgress(p *internal_interview.Progress) progressView {
	uploads := map[int]internal_background.TaskInfo{}
	for idx, ans := range p.Answers {
		if ans.UploadTaskID == "" {
			continue
		}
		if info, ok := a.runner.Status(ans.UploadTaskID); ok {
			uploads[idx] = info
		}
	}
	return progressView{
		Questions:        p.Questions,
		Answered:         p.Answered(),
		TotalSeconds:     p.TotalSeconds(),
		MinTotalSeconds:  p.MinTotalSeconds,
		RemainingSeconds: p.RemainingSeconds(),
		TimePercent:      p.TimePercent(),
		CanComplete:      p.Finish() == nil,
		Uploads:          uploads,
	}
}

// uploadAnswer stores answers in the background so the interview never
// waits on storage.
func (a *PersonaApi) uploadAnswer(personaId string) internal_interview.UploadFunc {
	return func(ctx context.Context, index int, blob *internal_audio.Blob, durationSeconds int) string {
		key := storage_files.RecordingKey(personaId, index)
		id, err := a.runner.Submit("upload_answer", func(ctx context.Context) error {
			if err := a.storage.Store(ctx, key, blob.Data, blob.MimeType); err != nil {
				return err
			}
			_, err := a.personaService.SaveRecording(ctx, personaId, index, durationSeconds, key)
			return err
		})
		if err != nil {
			a.logger.Errorf("unable to schedule upload of answer %d for persona %s: %v", index, personaId, err)
		}
		return id
	}
}

func (a *PersonaApi) GetQuestions(c *gin.Context) {
	switch flow := c.DefaultQuery("flow", internal_wizard.FlowPersona); flow {
	case internal_wizard.FlowPersona:
		utils.Success(c, http.StatusOK, gin.H{
			"flow":            flow,
			"questions":       internal_interview.PersonaQuestions,
			"minTotalSeconds": a.cfg.InterviewConfig.MinTotalSeconds,
		})
	case internal_wizard.FlowDemo:
		utils.Success(c, http.StatusOK, gin.H{
			"flow":       flow,
			"questions":  internal_interview.DemoPrompts,
			"minSeconds": a.demoBounds.MinSeconds,
			"maxSeconds": a.demoBounds.MaxSeconds,
		})
	default:
		a.fail(c, "GetQuestions", fmt.Errorf("%w: %q", internal_wizard.ErrUnknownFlow, flow))
	}
}

// readAudio reads the multipart "audio" part of the request.
func readAudio(c *gin.Context) (*internal_audio.Blob, error) {
	fh, err := c.FormFile("audio")
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxAnswerBytes))
	if err != nil {
		return nil, err
	}
	mime := fh.Header.Get(utils.HEADER_CONTENT_TYPE)
	if mime == "" || mime == "application/octet-stream" {
		mime = internal_audio.MimeTypeWAV
	}
	return &internal_audio.Blob{Data: data, MimeType: mime}, nil
}

func (a *PersonaApi) SubmitAnswer(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid_question", "That question does not exist.")
		return
	}
	blob, err := readAudio(c)
	if err != nil || blob.Size() == 0 {
		utils.Error(c, http.StatusBadRequest, "invalid_recording", "Please record an answer before saving.")
		return
	}
	duration, err := measuredDuration(c, blob)
	if err != nil {
		a.fail(c, "SubmitAnswer", err)
		return
	}

	ctx := c.Request.Context()
	persona, err := a.personaService.GetForUser(ctx, principle.UserId)
	if err != nil {
		a.fail(c, "SubmitAnswer", err)
		return
	}
	if err := acceptsAnswers(persona); err != nil {
		a.fail(c, "SubmitAnswer", err)
		return
	}
	progress, err := a.loadProgress(ctx, principle.UserId)
	if err != nil {
		a.fail(c, "SubmitAnswer", err)
		return
	}

	session := a.answerSession(principle.UserId, persona.Id, progress, nil)
	answer, err := session.Submit(ctx, index, blob, duration)
	if err != nil {
		a.fail(c, "SubmitAnswer", err)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{
		"answer":   answer,
		"progress": a.viewOfProgress(session.Progress()),
	})
}

func (a *PersonaApi) GetProgress(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	progress, err := a.loadProgress(c.Request.Context(), principle.UserId)
	if err != nil {
		a.fail(c, "GetProgress", err)
		return
	}
	utils.Success(c, http.StatusOK, a.viewOfProgress(progress))
}

// CompleteInterview validates the answers, moves the persona to processing
// and starts the build job.
func (a *PersonaApi) CompleteInterview(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	progress, err := a.loadProgress(ctx, principle.UserId)
	if err != nil {
		a.fail(c, "CompleteInterview", err)
		return
	}
	if err := progress.Finish(); err != nil {
		a.fail(c, "CompleteInterview", err)
		return
	}
	for _, idx := range progress.Answered() {
		info, ok := a.runner.Status(progress.Answers[idx].UploadTaskID)
		if !ok {
			continue
		}
		switch info.Status {
		case internal_background.StatusPending:
			utils.Error(c, http.StatusConflict, "uploads_pending", "Your answers are still uploading, please try again in a moment.")
			return
		case internal_background.StatusFailed:
			utils.Error(c, http.StatusConflict, "upload_failed",
				fmt.Sprintf("Your answer to question %d could not be saved, please record it again.", idx+1))
			return
		}
	}

	persona, err := a.personaService.GetForUser(ctx, principle.UserId)
	if err != nil {
		a.fail(c, "CompleteInterview", err)
		return
	}
	if err := acceptsAnswers(persona); err != nil {
		a.fail(c, "CompleteInterview", err)
		return
	}
	if err := a.personaService.UpdateStatus(ctx, persona.Id, internal_entity.PersonaProcessing); err != nil {
		a.fail(c, "CompleteInterview", err)
		return
	}
	a.moveWizard(ctx, principle.UserId, internal_wizard.StepInterview, internal_wizard.StepProcessing)

	personaId := persona.Id
	taskId, err := a.runner.Submit("build_persona", func(ctx context.Context) error {
		// the build marks the persona failed itself; retrying would flip it back
		if err := a.builder.Build(ctx, personaId); err != nil {
			return backoff.Permanent(err)
		}
		return nil
	})
	if err != nil {
		a.logger.Errorf("unable to schedule build of persona %s: %v", personaId, err)
		if uerr := a.personaService.UpdateStatus(ctx, personaId, internal_entity.PersonaFailed); uerr != nil {
			a.logger.Errorf("unable to mark persona %s failed: %v", personaId, uerr)
		}
		a.fail(c, "CompleteInterview", err)
		return
	}
	utils.Success(c, http.StatusAccepted, gin.H{
		"personaId": personaId,
		"status":    internal_entity.PersonaProcessing,
		"taskId":    taskId,
	})
}

// moveWizard advances the persona wizard from one step to the next when the
// user is still on from. Failures only cost the stored position.
func (a *PersonaApi) moveWizard(ctx context.Context, userId, from, to string) {
	ctrl, err := a.loadController(ctx, userId, internal_wizard.FlowPersona)
	if err != nil {
		a.logger.Warnf("unable to load wizard of user %s: %v", userId, err)
		return
	}
	if ctrl.Current() != from {
		return
	}
	if err := ctrl.Advance(to, nil); err != nil {
		a.logger.Warnf("unable to move wizard of user %s to %s: %v", userId, to, err)
		return
	}
	if err := a.wizardStore.Save(ctx, userId, ctrl.State()); err != nil {
		a.logger.Warnf("unable to save wizard of user %s: %v", userId, err)
	}
}
