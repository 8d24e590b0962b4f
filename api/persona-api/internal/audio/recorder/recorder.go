// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	internal_audio "github.com/alteraai/api/persona-api/internal/audio"
	internal_objecturl "github.com/alteraai/api/persona-api/internal/objecturl"
	"github.com/alteraai/pkg/commons"
)

// State is a snapshot of one recording session.
//
// CapturedAudio is non-nil only after a completed stop since the last reset,
// and never while IsRecording is true.
type State struct {
	IsRecording        bool                 `json:"isRecording"`
	IsPaused           bool                 `json:"isPaused"`
	ElapsedSeconds     int                  `json:"elapsed"`
	CapturedAudio      *internal_audio.Blob `json:"-"`
	PlayableUrl        string               `json:"url,omitempty"`
	MaxDurationReached bool                 `json:"maxDurationReached"`
}

func (s State) HasRecording() bool {
	return s.CapturedAudio != nil
}

type Recorder interface {
	// Start requests the device and begins capturing. Starting while a capture
	// is running is a no-op.
	Start(ctx context.Context) error
	// Stop finalizes the capture and blocks until the device is released.
	// Stopping when idle is a no-op.
	Stop()
	// Reset discards any capture, revokes the playable URL and returns to the
	// initial state.
	Reset()
	State() State
	// Wait blocks until the running capture, if any, has been finalized.
	Wait()
}

type Option func(*audioRecorder)

// WithMaxDuration auto-stops the capture once elapsed reaches seconds.
func WithMaxDuration(seconds int) Option {
	return func(r *audioRecorder) { r.maxSeconds = seconds }
}

func WithTicker(f TickerFactory) Option {
	return func(r *audioRecorder) { r.newTicker = f }
}

func WithAudioConfig(cfg internal_audio.AudioConfig) Option {
	return func(r *audioRecorder) { r.audioConfig = cfg }
}

// WithOwner scopes playable URLs to the given user.
func WithOwner(userId string) Option {
	return func(r *audioRecorder) { r.owner = userId }
}

// WithOnStop registers fn to receive the state after every finalized capture.
// fn runs on the capture goroutine and must not call Stop or Reset.
func WithOnStop(fn func(State)) Option {
	return func(r *audioRecorder) { r.onStop = fn }
}

type audioRecorder struct {
	logger      commons.Logger
	mic         Microphone
	urls        internal_objecturl.Registry
	owner       string
	audioConfig internal_audio.AudioConfig
	maxSeconds  int
	newTicker   TickerFactory
	onStop      func(State)

	mu         sync.Mutex
	state      State
	starting   bool
	discarding bool
	stopCh     chan struct{}
	doneCh     chan struct{}
}

func NewRecorder(logger commons.Logger, mic Microphone, urls internal_objecturl.Registry, opts ...Option) Recorder {
	r := &audioRecorder{
		logger:      logger,
		mic:         mic,
		urls:        urls,
		audioConfig: internal_audio.DEFAULT_CAPTURE_CONFIG,
		newTicker:   SystemTicker,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *audioRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state.IsRecording || r.starting {
		r.mu.Unlock()
		return nil
	}
	r.starting = true
	r.mu.Unlock()

	stream, err := r.mic.Open(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.starting = false
	if err != nil {
		r.logger.Errorf("unable to open microphone: %v", err)
		if errors.Is(err, ErrPermissionDenied) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	r.urls.Revoke(r.state.PlayableUrl)
	r.state = State{IsRecording: true}
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	go r.capture(ctx, stream, r.newTicker(time.Second), r.stopCh, r.doneCh)
	r.logger.Debugf("recording started, max duration %ds", r.maxSeconds)
	return nil
}

func (r *audioRecorder) capture(ctx context.Context, stream AudioStream, ticker Ticker, stop, done chan struct{}) {
	defer close(done)
	released := false
	release := func() {
		if released {
			return
		}
		released = true
		ticker.Stop()
		if err := stream.Close(); err != nil {
			r.logger.Warnf("error while releasing microphone: %v", err)
		}
	}
	defer release()

	var pcm bytes.Buffer
	chunks := stream.Chunks()
	for {
		select {
		case <-stop:
			drain(chunks, &pcm)
			release()
			r.finalize(pcm.Bytes(), false)
			return
		case <-ctx.Done():
			release()
			r.finalize(pcm.Bytes(), false)
			return
		case data, ok := <-chunks:
			if !ok {
				release()
				r.finalize(pcm.Bytes(), false)
				return
			}
			pcm.Write(data)
		case <-ticker.C():
			r.mu.Lock()
			r.state.ElapsedSeconds++
			reached := r.maxSeconds > 0 && r.state.ElapsedSeconds >= r.maxSeconds
			r.mu.Unlock()
			if reached {
				drain(chunks, &pcm)
				release()
				r.finalize(pcm.Bytes(), true)
				return
			}
		}
	}
}

func drain(chunks <-chan []byte, pcm *bytes.Buffer) {
	for {
		select {
		case data, ok := <-chunks:
			if !ok {
				return
			}
			pcm.Write(data)
		default:
			return
		}
	}
}

func (r *audioRecorder) finalize(pcm []byte, maxReached bool) {
	r.mu.Lock()
	r.state.IsRecording = false
	r.state.IsPaused = false
	if r.discarding {
		r.mu.Unlock()
		return
	}
	blob := &internal_audio.Blob{
		Data:     internal_audio.EncodeWAV(r.audioConfig, pcm),
		MimeType: internal_audio.MimeTypeWAV,
	}
	r.state.CapturedAudio = blob
	r.state.PlayableUrl = r.urls.Create(r.owner, blob)
	r.state.MaxDurationReached = maxReached
	snapshot := r.state
	onStop := r.onStop
	r.mu.Unlock()

	r.logger.Debugf("recording finalized after %ds, %d bytes, max reached %v", snapshot.ElapsedSeconds, blob.Size(), maxReached)
	if onStop != nil {
		onStop(snapshot)
	}
}

func (r *audioRecorder) Stop() {
	r.mu.Lock()
	if !r.state.IsRecording || r.stopCh == nil {
		r.mu.Unlock()
		return
	}
	stop, done := r.stopCh, r.doneCh
	r.stopCh = nil
	r.mu.Unlock()

	close(stop)
	<-done
}

func (r *audioRecorder) Reset() {
	r.mu.Lock()
	r.discarding = true
	r.mu.Unlock()

	r.Stop()
	r.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.discarding = false
	r.urls.Revoke(r.state.PlayableUrl)
	r.state = State{}
}

func (r *audioRecorder) Wait() {
	r.mu.Lock()
	done := r.doneCh
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (r *audioRecorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Capture runs fn while rec is recording. The take is kept when fn returns
// nil and discarded otherwise; the device is released on every path.
func Capture(ctx context.Context, rec Recorder, fn func(ctx context.Context) error) (State, error) {
	if err := rec.Start(ctx); err != nil {
		return State{}, err
	}
	kept := false
	defer func() {
		if !kept {
			rec.Reset()
		}
	}()
	if err := fn(ctx); err != nil {
		return State{}, err
	}
	rec.Stop()
	kept = true
	return rec.State(), nil
}
