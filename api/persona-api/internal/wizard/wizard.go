// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_wizard

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownStep          = errors.New("unknown step")
	ErrTransitionNotAllowed = errors.New("transition not allowed")
	ErrNoPreviousStep       = errors.New("no previous step")
	ErrUnknownFlow          = errors.New("unknown flow")
)

// Guard decides whether the current step may be left, given the payload the
// flow would carry after the transition.
type Guard func(payload map[string]string) error

type Step struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	// Final steps and steps backed by running jobs cannot be left backwards.
	NoBack bool `json:"-"`
}

type Definition struct {
	Name       string
	Steps      []Step
	BackTarget string
	guards     map[string]Guard
}

// WithGuard returns a copy of d that runs g before leaving step.
func (d Definition) WithGuard(step string, g Guard) Definition {
	guards := make(map[string]Guard, len(d.guards)+1)
	for k, v := range d.guards {
		guards[k] = v
	}
	guards[step] = g
	d.guards = guards
	return d
}

func (d Definition) index(key string) int {
	for i, s := range d.Steps {
		if s.Key == key {
			return i
		}
	}
	return -1
}

// State is the persisted position of one user inside one flow.
type State struct {
	Flow      string            `json:"flow"`
	Current   string            `json:"current"`
	Payload   map[string]string `json:"payload"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type Indicator struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Number  int    `json:"number"`
	Reached bool   `json:"reached"`
	Current bool   `json:"current"`
}

type Controller struct {
	def   Definition
	state State
	clock func() time.Time
}

func NewController(def Definition) *Controller {
	c := &Controller{def: def, clock: time.Now}
	c.state = State{
		Flow:      def.Name,
		Current:   def.Steps[0].Key,
		Payload:   map[string]string{},
		UpdatedAt: c.clock(),
	}
	return c
}

// Restore resumes a controller from a persisted state.
func Restore(def Definition, st State) (*Controller, error) {
	if st.Flow != def.Name {
		return nil, fmt.Errorf("%w: state belongs to %q", ErrUnknownFlow, st.Flow)
	}
	if def.index(st.Current) < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, st.Current)
	}
	if st.Payload == nil {
		st.Payload = map[string]string{}
	}
	return &Controller{def: def, state: st, clock: time.Now}, nil
}

func (c *Controller) Current() string {
	return c.state.Current
}

func (c *Controller) Index() int {
	return c.def.index(c.state.Current)
}

func (c *Controller) State() State {
	st := c.state
	st.Payload = c.Payload()
	return st
}

func (c *Controller) Payload() map[string]string {
	out := make(map[string]string, len(c.state.Payload))
	for k, v := range c.state.Payload {
		out[k] = v
	}
	return out
}

// Advance moves to the next declared step, merging payload into the carried
// state. Skipping ahead or moving backwards is rejected.
func (c *Controller) Advance(to string, payload map[string]string) error {
	target := c.def.index(to)
	if target < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownStep, to)
	}
	current := c.Index()
	if target != current+1 {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, c.state.Current, to)
	}

	merged := c.Payload()
	for k, v := range payload {
		merged[k] = v
	}
	if g, ok := c.def.guards[c.state.Current]; ok {
		if err := g(merged); err != nil {
			return err
		}
	}
	c.state.Current = to
	c.state.Payload = merged
	c.state.UpdatedAt = c.clock()
	return nil
}

// GoBack moves to the previous step. At the first step it returns the
// definition's external back target instead.
func (c *Controller) GoBack() (string, error) {
	idx := c.Index()
	if idx == 0 {
		if c.def.BackTarget == "" {
			return "", ErrNoPreviousStep
		}
		return c.def.BackTarget, nil
	}
	if c.def.Steps[idx].NoBack {
		return "", fmt.Errorf("%w: %s is final", ErrTransitionNotAllowed, c.state.Current)
	}
	c.state.Current = c.def.Steps[idx-1].Key
	c.state.UpdatedAt = c.clock()
	return "", nil
}

func (c *Controller) Indicators() []Indicator {
	idx := c.Index()
	out := make([]Indicator, len(c.def.Steps))
	for i, s := range c.def.Steps {
		out[i] = Indicator{
			Key:     s.Key,
			Label:   s.Label,
			Number:  i + 1,
			Reached: i <= idx,
			Current: i == idx,
		}
	}
	return out
}
