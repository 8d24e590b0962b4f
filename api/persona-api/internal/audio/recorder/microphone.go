// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_recorder

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrDeviceBusy       = errors.New("microphone already in use")
	ErrStreamClosed     = errors.New("audio stream closed")
)

// Microphone grants access to a capture device. Open blocks until the user
// answers the permission prompt or ctx is done.
type Microphone interface {
	Open(ctx context.Context) (AudioStream, error)
}

// AudioStream is an open hardware stream. Chunks is closed by the producer
// when the device stops delivering; Close releases the device.
type AudioStream interface {
	Chunks() <-chan []byte
	Close() error
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(d time.Duration) Ticker

type systemTicker struct {
	t *time.Ticker
}

func (s *systemTicker) C() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop()               { s.t.Stop() }

func SystemTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

// Pipe is a Microphone fed by a remote producer, e.g. frames arriving on a
// websocket. Write and CloseWrite must be called from a single goroutine.
type Pipe struct {
	mu     sync.Mutex
	buffer int
	denied bool
	stream *pipeStream
}

func NewPipe(buffer int) *Pipe {
	return &Pipe{buffer: buffer}
}

// Deny makes every following Open fail as if the user declined the prompt.
func (p *Pipe) Deny() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.denied = true
}

func (p *Pipe) Open(ctx context.Context) (AudioStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.denied {
		return nil, ErrPermissionDenied
	}
	if p.stream != nil && !p.stream.isClosed() {
		return nil, ErrDeviceBusy
	}
	p.stream = &pipeStream{
		ch:     make(chan []byte, p.buffer),
		closed: make(chan struct{}),
	}
	return p.stream, nil
}

func (p *Pipe) current() *pipeStream {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stream
}

// Write hands one chunk to the open stream, blocking while the consumer is
// behind. Returns ErrStreamClosed once the consumer released the device.
func (p *Pipe) Write(ctx context.Context, chunk []byte) error {
	s := p.current()
	if s == nil || s.isClosed() {
		return ErrStreamClosed
	}
	select {
	case s.ch <- chunk:
		return nil
	case <-s.closed:
		return ErrStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloseWrite signals the end of input for the current stream.
func (p *Pipe) CloseWrite() {
	s := p.current()
	if s == nil {
		return
	}
	s.endOnce.Do(func() { close(s.ch) })
}

type pipeStream struct {
	ch        chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	endOnce   sync.Once
}

func (s *pipeStream) Chunks() <-chan []byte { return s.ch }

func (s *pipeStream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func (s *pipeStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}
