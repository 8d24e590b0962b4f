// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_wizard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	FlowPersona = "persona"
	FlowDemo    = "demo"

	StepConsent      = "consent"
	StepMicTest      = "micTest"
	StepInterview    = "interview"
	StepRecording    = "recording"
	StepProcessing   = "processing"
	StepConfirmation = "confirmation"

	PayloadConsent   = "consent"
	PayloadMicTested = "micTested"
	PayloadVoiceID   = "voiceId"

	// seconds of the sample the demo voice was cloned from
	PayloadDurationSeconds = "durationSeconds"

	DashboardTarget = "/dashboard"
)

var (
	ErrConsentRequired  = errors.New("consent is required to continue")
	ErrMicTestRequired  = errors.New("a completed test recording is required")
	ErrVoiceRequired    = errors.New("a created voice is required")
	ErrDurationRequired = errors.New("the length of the voice sample is required")
)

func PersonaFlow() Definition {
	return Definition{
		Name: FlowPersona,
		Steps: []Step{
			{Key: StepConsent, Label: "Consent"},
			{Key: StepMicTest, Label: "Mic Test"},
			{Key: StepInterview, Label: "Interview"},
			{Key: StepProcessing, Label: "Processing", NoBack: true},
			{Key: StepConfirmation, Label: "Complete", NoBack: true},
		},
		BackTarget: DashboardTarget,
	}.
		WithGuard(StepConsent, requireFlag(PayloadConsent, ErrConsentRequired)).
		WithGuard(StepMicTest, requireFlag(PayloadMicTested, ErrMicTestRequired))
}

func DemoFlow() Definition {
	return Definition{
		Name: FlowDemo,
		Steps: []Step{
			{Key: StepConsent, Label: "Consent"},
			{Key: StepMicTest, Label: "Mic Test"},
			{Key: StepRecording, Label: "Recording"},
			{Key: StepConfirmation, Label: "Test Voice", NoBack: true},
		},
		BackTarget: DashboardTarget,
	}.
		WithGuard(StepConsent, requireFlag(PayloadConsent, ErrConsentRequired)).
		WithGuard(StepMicTest, requireFlag(PayloadMicTested, ErrMicTestRequired)).
		WithGuard(StepRecording, RequireDemoRecording(nil))
}

// RequireDemoRecording needs a created voice and the length of its sample.
// within, when set, checks the length against the demo bounds.
func RequireDemoRecording(within func(seconds int) error) Guard {
	return func(p map[string]string) error {
		if strings.TrimSpace(p[PayloadVoiceID]) == "" {
			return ErrVoiceRequired
		}
		seconds, err := strconv.Atoi(strings.TrimSpace(p[PayloadDurationSeconds]))
		if err != nil || seconds <= 0 {
			return ErrDurationRequired
		}
		if within != nil {
			return within(seconds)
		}
		return nil
	}
}

// Lookup returns the definition registered under name.
func Lookup(name string) (Definition, error) {
	switch name {
	case FlowPersona:
		return PersonaFlow(), nil
	case FlowDemo:
		return DemoFlow(), nil
	}
	return Definition{}, fmt.Errorf("%w: %q", ErrUnknownFlow, name)
}

func requireFlag(key string, err error) Guard {
	return func(p map[string]string) error {
		if p[key] != "true" {
			return err
		}
		return nil
	}
}
