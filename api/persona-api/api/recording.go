// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package persona_api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	internal_level "github.com/alteraai/api/persona-api/internal/audio/level"
	internal_recorder "github.com/alteraai/api/persona-api/internal/audio/recorder"
	internal_interview "github.com/alteraai/api/persona-api/internal/interview"
	internal_objecturl "github.com/alteraai/api/persona-api/internal/objecturl"
	internal_wizard "github.com/alteraai/api/persona-api/internal/wizard"
	"github.com/alteraai/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var recordingUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	commandStop   = "stop"
	commandCancel = "cancel"

	pipeBuffer = 64
)

var errCaptureCancelled = errors.New("capture cancelled by client")

type streamCommand struct {
	Type string `json:"type"`
}

type levelMessage struct {
	Type  string `json:"type"`
	Level int    `json:"level"`
}

type recordedMessage struct {
	Type               string                     `json:"type"`
	ElapsedSeconds     int                        `json:"elapsed"`
	MaxDurationReached bool                       `json:"maxDurationReached"`
	Url                string                     `json:"url,omitempty"`
	MimeType           string                     `json:"mimeType,omitempty"`
	Size               int                        `json:"size"`
	CanContinue        *bool                      `json:"canContinue,omitempty"`
	Answer             *internal_interview.Answer `json:"answer,omitempty"`
	Progress           *progressView              `json:"progress,omitempty"`
}

type streamErrorMessage struct {
	Type    string `json:"type"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// wsWriter serializes writes, gorilla allows one concurrent writer.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) send(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *wsWriter) close(code int, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
}

// MicLevel reports the input level of every binary frame the client sends.
func (a *PersonaApi) MicLevel(c *gin.Context) {
	if _, ok := a.principle(c); !ok {
		return
	}
	conn, err := recordingUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.logger.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	w := &wsWriter{conn: conn}
	analyzer := internal_level.NewAnalyzer(a.logger)
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				a.logger.Debugf("mic level stream ended: %v", err)
			}
			return
		}
		switch mt {
		case websocket.BinaryMessage:
			if err := w.send(levelMessage{Type: "level", Level: analyzer.Measure(data)}); err != nil {
				return
			}
		case websocket.TextMessage:
			var cmd streamCommand
			if json.Unmarshal(data, &cmd) == nil && cmd.Type == commandStop {
				w.close(websocket.CloseNormalClosure, "")
				return
			}
		}
	}
}

// StreamRecording captures LINEAR16 frames sent over the websocket into one
// finalized take. The take ends on a stop command, on the max duration or
// when the client closes the stream; a dropped connection discards it.
//
// With ?question=N the take is kept as the persona interview answer to that
// question, with ?flow=demo it is checked against the demo bounds.
func (a *PersonaApi) StreamRecording(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	flow := c.Query("flow")
	maxSeconds, _ := strconv.Atoi(c.DefaultQuery("maxSeconds", "0"))
	if flow == internal_wizard.FlowDemo && (maxSeconds <= 0 || maxSeconds > a.demoBounds.MaxSeconds) {
		maxSeconds = a.demoBounds.MaxSeconds
	}

	var session *internal_interview.Session
	pipe := internal_recorder.NewPipe(pipeBuffer)
	analyzer := internal_level.NewAnalyzer(a.logger)
	opts := append([]internal_recorder.Option{
		internal_recorder.WithMaxDuration(maxSeconds),
		internal_recorder.WithOwner(principle.UserId),
	}, a.recorderOpts...)
	rec := internal_recorder.NewRecorder(a.logger, pipe, a.urls, opts...)

	if q := c.Query("question"); q != "" {
		index, err := strconv.Atoi(q)
		if err != nil {
			a.fail(c, "StreamRecording", internal_interview.ErrQuestionOutOfRange)
			return
		}
		persona, err := a.personaService.GetForUser(ctx, principle.UserId)
		if err != nil {
			a.fail(c, "StreamRecording", err)
			return
		}
		if err := acceptsAnswers(persona); err != nil {
			a.fail(c, "StreamRecording", err)
			return
		}
		progress, err := a.loadProgress(ctx, principle.UserId)
		if err != nil {
			a.fail(c, "StreamRecording", err)
			return
		}
		session = a.answerSession(principle.UserId, persona.Id, progress, rec)
		if err := session.Goto(index); err != nil {
			a.fail(c, "StreamRecording", err)
			return
		}
	}

	conn, err := recordingUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.logger.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	w := &wsWriter{conn: conn}

	st, err := internal_recorder.Capture(ctx, rec, func(ctx context.Context) error {
		go func() {
			// unblock the read loop once the recorder stops on its own
			rec.Wait()
			_ = conn.SetReadDeadline(time.Now())
		}()
		return a.pump(ctx, conn, w, pipe, rec, analyzer)
	})
	if err != nil {
		if errors.Is(err, internal_recorder.ErrPermissionDenied) {
			_ = w.send(streamErrorMessage{Type: "error", Reason: "permission_denied", Message: "Microphone access is required to record."})
		}
		a.metrics.RecordingFinalized("discarded", 0)
		a.logger.Debugf("recording of user %s discarded: %v", principle.UserId, err)
		return
	}

	reason := "stopped"
	if st.MaxDurationReached {
		reason = "max_duration"
	}
	a.metrics.RecordingFinalized(reason, st.ElapsedSeconds)

	out := recordedMessage{
		Type:               "recorded",
		ElapsedSeconds:     st.ElapsedSeconds,
		MaxDurationReached: st.MaxDurationReached,
		Size:               st.CapturedAudio.Size(),
	}
	if session != nil {
		// keeping the answer resets the recorder, the take is only in storage now
		ans, err := session.Keep(ctx)
		if err != nil {
			rec.Reset()
			a.sendFailure(w, "StreamRecording", err)
			return
		}
		view := a.viewOfProgress(session.Progress())
		out.Answer = &ans
		out.Progress = &view
	} else {
		out.Url = st.PlayableUrl
		out.MimeType = st.CapturedAudio.MimeType
		if flow == internal_wizard.FlowDemo {
			can := a.demoBounds.CanContinue(st.HasRecording(), st.ElapsedSeconds)
			out.CanContinue = &can
		}
	}
	if err := w.send(out); err != nil {
		a.logger.Warnf("unable to deliver recording result to user %s: %v", principle.UserId, err)
		return
	}
	w.close(websocket.CloseNormalClosure, "")
}

// pump moves client frames into the pipe until the take ends.
func (a *PersonaApi) pump(ctx context.Context, conn *websocket.Conn, w *wsWriter, pipe *internal_recorder.Pipe, rec internal_recorder.Recorder, analyzer *internal_level.Analyzer) error {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if rec.State().HasRecording() {
				// recorder finalized at max duration
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				pipe.CloseWrite()
				rec.Wait()
				return nil
			}
			return err
		}
		switch mt {
		case websocket.BinaryMessage:
			if err := pipe.Write(ctx, data); err != nil {
				if errors.Is(err, internal_recorder.ErrStreamClosed) {
					return nil
				}
				return err
			}
			if err := w.send(levelMessage{Type: "level", Level: analyzer.Measure(data)}); err != nil {
				return err
			}
		case websocket.TextMessage:
			var cmd streamCommand
			if err := json.Unmarshal(data, &cmd); err != nil {
				a.logger.Debugf("ignoring malformed stream command: %v", err)
				continue
			}
			switch cmd.Type {
			case commandStop:
				return nil
			case commandCancel:
				return errCaptureCancelled
			}
		}
	}
}

func (a *PersonaApi) sendFailure(w *wsWriter, operation string, err error) {
	a.logger.Errorf("%s failed: %v", operation, err)
	reason, message := "internal_error", genericHumanMessage
	var timeErr *internal_interview.TimeError
	switch {
	case errors.As(err, &timeErr):
		reason, message = "more_time_needed", timeErr.Error()
	case errors.Is(err, internal_interview.ErrNoRecording):
		reason, message = "invalid_recording", "Please record an answer before saving."
	case errors.Is(err, errPersonaLocked):
		reason, message = "persona_locked", "Your persona is already being created."
	}
	_ = w.send(streamErrorMessage{Type: "error", Reason: reason, Message: message})
	w.close(websocket.CloseInternalServerErr, reason)
}

// GetRecordingBlob plays back a finalized take by its object url id.
func (a *PersonaApi) GetRecordingBlob(c *gin.Context) {
	principle, ok := a.principle(c)
	if !ok {
		return
	}
	blob, ok := a.urls.ResolveFor(principle.UserId, internal_objecturl.Scheme+c.Param("id"))
	if !ok {
		utils.Error(c, http.StatusNotFound, "not_found", "This recording is no longer available.")
		return
	}
	c.Data(http.StatusOK, blob.MimeType, blob.Data)
}
