// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_background

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	internal_metrics "github.com/alteraai/api/persona-api/internal/metrics"
	"github.com/alteraai/pkg/commons"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

var (
	ErrRunnerClosed = errors.New("background runner closed")
	ErrQueueFull    = errors.New("background queue full")
)

// Task is one side effect. Returning an error schedules a retry until the
// attempt budget is spent; wrap with backoff.Permanent to stop early.
type Task func(ctx context.Context) error

type TaskInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"lastError,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Hook observes the final status of a task, after its last attempt.
type Hook func(info TaskInfo)

type Runner interface {
	// Submit queues task and returns its id without waiting for it to run.
	Submit(name string, task Task, hooks ...Hook) (string, error)
	Status(id string) (TaskInfo, bool)
	// Shutdown stops accepting tasks and waits for queued ones to finish.
	Shutdown(ctx context.Context) error
}

type Option func(*runner)

func WithBackoff(factory func() backoff.BackOff) Option {
	return func(r *runner) { r.buildBackoff = factory }
}

func WithMetrics(m *internal_metrics.Metrics) Option {
	return func(r *runner) { r.metrics = m }
}

func WithQueueSize(n int) Option {
	return func(r *runner) { r.queueSize = n }
}

type job struct {
	id    string
	name  string
	task  Task
	hooks []Hook
}

type runner struct {
	logger       commons.Logger
	metrics      *internal_metrics.Metrics
	maxAttempts  int
	queueSize    int
	buildBackoff func() backoff.BackOff

	ctx    context.Context
	cancel context.CancelFunc
	queue  chan job
	wg     sync.WaitGroup

	mu       sync.RWMutex
	closed   bool
	statuses *lru.Cache[string, TaskInfo]
}

func NewRunner(logger commons.Logger, workers, maxAttempts int, opts ...Option) (Runner, error) {
	if workers <= 0 || maxAttempts <= 0 {
		return nil, fmt.Errorf("workers and attempts must be positive, got %d and %d", workers, maxAttempts)
	}
	r := &runner{
		logger:      logger,
		maxAttempts: maxAttempts,
		queueSize:   256,
		buildBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	statuses, err := lru.New[string, TaskInfo](4096)
	if err != nil {
		return nil, err
	}
	r.statuses = statuses
	r.queue = make(chan job, r.queueSize)
	r.ctx, r.cancel = context.WithCancel(context.Background())

	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.work()
	}
	return r, nil
}

func (r *runner) Submit(name string, task Task, hooks ...Hook) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return "", ErrRunnerClosed
	}
	j := job{id: uuid.NewString(), name: name, task: task, hooks: hooks}
	r.statuses.Add(j.id, TaskInfo{ID: j.id, Name: name, Status: StatusPending, UpdatedAt: time.Now()})
	select {
	case r.queue <- j:
		return j.id, nil
	default:
		r.finish(j, 0, StatusFailed, ErrQueueFull)
		return j.id, ErrQueueFull
	}
}

func (r *runner) Status(id string) (TaskInfo, bool) {
	return r.statuses.Get(id)
}

func (r *runner) work() {
	defer r.wg.Done()
	for j := range r.queue {
		r.run(j)
	}
}

func (r *runner) run(j job) {
	attempts := 0
	op := func() error {
		attempts++
		err := r.safeCall(j)
		if err != nil && attempts < r.maxAttempts {
			r.logger.Warnf("task %s (%s) attempt %d failed: %v", j.name, j.id, attempts, err)
			r.metrics.TaskRetried(j.name)
			r.update(j, attempts, StatusPending, err)
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(r.buildBackoff(), uint64(r.maxAttempts-1)), r.ctx)
	if err := backoff.Retry(op, b); err != nil {
		r.logger.Errorf("task %s (%s) failed after %d attempts: %v", j.name, j.id, attempts, err)
		r.finish(j, attempts, StatusFailed, err)
		return
	}
	r.finish(j, attempts, StatusDone, nil)
}

func (r *runner) safeCall(j job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = backoff.Permanent(fmt.Errorf("task panicked: %v", p))
		}
	}()
	return j.task(r.ctx)
}

func (r *runner) update(j job, attempts int, status Status, err error) {
	info := TaskInfo{ID: j.id, Name: j.name, Status: status, Attempts: attempts, UpdatedAt: time.Now()}
	if err != nil {
		info.LastError = err.Error()
	}
	r.statuses.Add(j.id, info)
}

func (r *runner) finish(j job, attempts int, status Status, err error) {
	r.update(j, attempts, status, err)
	r.metrics.TaskFinished(j.name, string(status))
	if len(j.hooks) == 0 {
		return
	}
	info, _ := r.statuses.Get(j.id)
	for _, h := range j.hooks {
		h(info)
	}
}

func (r *runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		// abort retries still sleeping, then let workers drain
		r.cancel()
		<-done
		return ctx.Err()
	}
}
