// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_processing

import (
	"context"
	"errors"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/alteraai/pkg/commons"
)

type Outcome string

const (
	StillProcessing Outcome = "processing"
	Ready           Outcome = "ready"
	Failed          Outcome = "failed"
)

// Terminal reports whether polling can stop at o.
func (o Outcome) Terminal() bool {
	return o == Ready || o == Failed
}

// StatusQuery reads the current job state once.
type StatusQuery func(ctx context.Context) (Outcome, error)

var errPending = errors.New("job still processing")

type Poller struct {
	logger       commons.Logger
	buildBackoff func() backoff.BackOff
}

// NewPoller polls with exponential backoff between initial and max, giving up
// after maxWait.
func NewPoller(logger commons.Logger, initial, max, maxWait time.Duration) *Poller {
	return NewPollerWithBackoff(logger, func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = initial
		b.MaxInterval = max
		b.MaxElapsedTime = maxWait
		return b
	})
}

func NewPollerWithBackoff(logger commons.Logger, factory func() backoff.BackOff) *Poller {
	return &Poller{logger: logger, buildBackoff: factory}
}

// Wait polls q until it reports a terminal outcome or the wait budget runs
// out. Running out is not an error: StillProcessing is returned so the caller
// can show a recoverable state and poll again later. Query errors are retried.
func (p *Poller) Wait(ctx context.Context, q StatusQuery) (Outcome, error) {
	outcome := StillProcessing
	attempts := 0
	op := func() error {
		attempts++
		o, err := q(ctx)
		if err != nil {
			p.logger.Warnf("status query failed on attempt %d: %v", attempts, err)
			return err
		}
		outcome = o
		if !o.Terminal() {
			return errPending
		}
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(p.buildBackoff(), ctx))
	if err == nil {
		p.logger.Debugf("job reached %s after %d polls", outcome, attempts)
		return outcome, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return StillProcessing, ctxErr
	}
	p.logger.Infof("job still processing after %d polls: %v", attempts, err)
	return StillProcessing, nil
}
