// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_interview

import (
	"context"
	"fmt"
	"sync"
	"time"

	internal_audio "github.com/alteraai/api/persona-api/internal/audio"
	internal_recorder "github.com/alteraai/api/persona-api/internal/audio/recorder"
	"github.com/alteraai/pkg/commons"
)

type QuestionState string

const (
	QuestionIdle      QuestionState = "idle"
	QuestionRecording QuestionState = "recording"
	QuestionAnswered  QuestionState = "answered"
)

// UploadFunc hands a kept answer to storage and returns a task id the caller
// can poll. It must not block on the upload itself.
type UploadFunc func(ctx context.Context, index int, blob *internal_audio.Blob, durationSeconds int) string

// CommitFunc records ans into the authoritative progress and returns it. It
// may run against state that changed since the session was opened.
type CommitFunc func(ctx context.Context, ans Answer) (*Progress, error)

// GateFunc is asked before every kept answer whether answers are still accepted.
type GateFunc func(ctx context.Context) error

type SessionOption func(*Session)

func WithCommit(fn CommitFunc) SessionOption {
	return func(s *Session) { s.commit = fn }
}

func WithGate(fn GateFunc) SessionOption {
	return func(s *Session) { s.gate = fn }
}

// Session walks a user through the questions, one recording at a time.
type Session struct {
	logger    commons.Logger
	questions []string
	progress  *Progress
	recorder  internal_recorder.Recorder
	upload    UploadFunc
	commit    CommitFunc
	gate      GateFunc
	clock     func() time.Time

	mu      sync.Mutex
	current int
}

func NewSession(logger commons.Logger, questions []string, progress *Progress, rec internal_recorder.Recorder, upload UploadFunc, opts ...SessionOption) *Session {
	s := &Session{
		logger:    logger,
		questions: questions,
		progress:  progress,
		recorder:  rec,
		upload:    upload,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Current() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.questions[s.current]
}

// Goto selects a question directly, e.g. when resuming.
func (s *Session) Goto(index int) error {
	if index < 0 || index >= len(s.questions) {
		return ErrQuestionOutOfRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = index
	return nil
}

func (s *Session) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording() || s.current >= len(s.questions)-1 {
		return false
	}
	s.current++
	return true
}

func (s *Session) Previous() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording() || s.current == 0 {
		return false
	}
	s.current--
	return true
}

func (s *Session) QuestionState(index int) QuestionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index == s.current && s.recording() {
		return QuestionRecording
	}
	if s.progress.IsAnswered(index) {
		return QuestionAnswered
	}
	return QuestionIdle
}

func (s *Session) recording() bool {
	return s.recorder != nil && s.recorder.State().IsRecording
}

func (s *Session) StartAnswer(ctx context.Context) error {
	if s.recorder == nil {
		return internal_recorder.ErrPermissionDenied
	}
	return s.recorder.Start(ctx)
}

// StopAnswer finalizes the take, keeps it as the answer to the current
// question and schedules its upload. The recorder is reset afterwards.
func (s *Session) StopAnswer(ctx context.Context) (Answer, error) {
	if s.recorder == nil {
		return Answer{}, ErrNoRecording
	}
	s.recorder.Stop()
	return s.keep(ctx)
}

// Keep stores a take the recorder finalized on its own, e.g. on stream end.
func (s *Session) Keep(ctx context.Context) (Answer, error) {
	if s.recorder == nil {
		return Answer{}, ErrNoRecording
	}
	s.recorder.Wait()
	return s.keep(ctx)
}

func (s *Session) keep(ctx context.Context) (Answer, error) {
	st := s.recorder.State()
	if !st.HasRecording() {
		return Answer{}, ErrNoRecording
	}
	s.mu.Lock()
	index := s.current
	s.mu.Unlock()
	return s.Submit(ctx, index, st.CapturedAudio, st.ElapsedSeconds)
}

// Submit records an answer captured elsewhere (e.g. uploaded by the browser).
func (s *Session) Submit(ctx context.Context, index int, blob *internal_audio.Blob, durationSeconds int) (Answer, error) {
	if blob.Size() == 0 {
		return Answer{}, ErrNoRecording
	}
	if index < 0 || index >= len(s.questions) {
		return Answer{}, fmt.Errorf("%w: %d", ErrQuestionOutOfRange, index)
	}
	if durationSeconds < 0 {
		return Answer{}, ErrInvalidDuration
	}
	if s.gate != nil {
		if err := s.gate(ctx); err != nil {
			return Answer{}, err
		}
	}
	ans := Answer{
		QuestionIndex:   index,
		DurationSeconds: durationSeconds,
		RecordedAt:      s.clock(),
	}
	if s.upload != nil {
		ans.UploadTaskID = s.upload(ctx, index, blob, durationSeconds)
	}
	progress, err := s.record(ctx, ans)
	if err != nil {
		return Answer{}, err
	}
	total := progress.TotalSeconds()

	s.logger.Infof("question %d answered (%s), total %s", index+1, FormatDuration(durationSeconds), FormatDuration(total))
	if s.recorder != nil {
		s.recorder.Reset()
	}
	return ans, nil
}

func (s *Session) record(ctx context.Context, ans Answer) (*Progress, error) {
	if s.commit == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.progress.Record(ans); err != nil {
			return nil, err
		}
		return s.progress, nil
	}
	progress, err := s.commit(ctx, ans)
	if err != nil {
		if ans.UploadTaskID != "" {
			s.logger.Warnf("answer %d uploaded by %s but not recorded: %v", ans.QuestionIndex+1, ans.UploadTaskID, err)
		}
		return nil, err
	}
	s.mu.Lock()
	s.progress = progress
	s.mu.Unlock()
	return progress, nil
}

func (s *Session) Progress() *Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *Session) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.Finish()
}
