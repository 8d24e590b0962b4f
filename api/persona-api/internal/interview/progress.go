// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_interview

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrMoreTimeNeeded      = errors.New("more time needed")
	ErrIncompleteInterview = errors.New("incomplete interview")
	ErrQuestionOutOfRange  = errors.New("question index out of range")
	ErrInvalidDuration     = errors.New("duration must not be negative")
	ErrNoRecording         = errors.New("no completed recording")
	ErrRecordingTooShort   = errors.New("recording too short")
	ErrRecordingTooLong    = errors.New("recording too long")
)

// TimeError reports how much recording is still missing before the interview
// can be completed.
type TimeError struct {
	Required int
	Recorded int
}

func (e *TimeError) Remaining() int {
	return e.Required - e.Recorded
}

func (e *TimeError) Error() string {
	return fmt.Sprintf("%s: please record at least %s total, current %s",
		ErrMoreTimeNeeded, FormatDuration(e.Required), FormatDuration(e.Recorded))
}

func (e *TimeError) Unwrap() error {
	return ErrMoreTimeNeeded
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

type Answer struct {
	QuestionIndex   int       `json:"questionIndex"`
	DurationSeconds int       `json:"durationSeconds"`
	UploadTaskID    string    `json:"uploadTaskId,omitempty"`
	RecordedAt      time.Time `json:"recordedAt"`
}

// Progress tracks the answers of one interview. Re-recording a question
// replaces its earlier answer, so the total only counts kept answers.
type Progress struct {
	Questions       int            `json:"questions"`
	MinTotalSeconds int            `json:"minTotalSeconds"`
	Answers         map[int]Answer `json:"answers"`
}

func NewProgress(questions, minTotalSeconds int) *Progress {
	return &Progress{
		Questions:       questions,
		MinTotalSeconds: minTotalSeconds,
		Answers:         map[int]Answer{},
	}
}

func (p *Progress) Record(ans Answer) error {
	if ans.QuestionIndex < 0 || ans.QuestionIndex >= p.Questions {
		return fmt.Errorf("%w: %d", ErrQuestionOutOfRange, ans.QuestionIndex)
	}
	if ans.DurationSeconds < 0 {
		return ErrInvalidDuration
	}
	if p.Answers == nil {
		p.Answers = map[int]Answer{}
	}
	p.Answers[ans.QuestionIndex] = ans
	return nil
}

func (p *Progress) IsAnswered(index int) bool {
	_, ok := p.Answers[index]
	return ok
}

func (p *Progress) Answered() []int {
	out := make([]int, 0, len(p.Answers))
	for i := range p.Answers {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (p *Progress) TotalSeconds() int {
	total := 0
	for _, a := range p.Answers {
		total += a.DurationSeconds
	}
	return total
}

func (p *Progress) RemainingSeconds() int {
	if r := p.MinTotalSeconds - p.TotalSeconds(); r > 0 {
		return r
	}
	return 0
}

// TimePercent is the share of the required time already recorded, capped at 100.
func (p *Progress) TimePercent() int {
	if p.MinTotalSeconds <= 0 {
		return 100
	}
	pct := p.TotalSeconds() * 100 / p.MinTotalSeconds
	if pct > 100 {
		return 100
	}
	return pct
}

// Finish checks the completion rules in order: recorded time, then coverage.
func (p *Progress) Finish() error {
	if total := p.TotalSeconds(); total < p.MinTotalSeconds {
		return &TimeError{Required: p.MinTotalSeconds, Recorded: total}
	}
	if len(p.Answers) < p.Questions {
		return fmt.Errorf("%w: %d of %d questions answered", ErrIncompleteInterview, len(p.Answers), p.Questions)
	}
	return nil
}

// DemoBounds limits the single demo recording.
type DemoBounds struct {
	MinSeconds int
	MaxSeconds int
}

func DefaultDemoBounds() DemoBounds {
	return DemoBounds{MinSeconds: DemoMinSeconds, MaxSeconds: DemoMaxSeconds}
}

func (b DemoBounds) Validate(hasRecording bool, elapsed int) error {
	switch {
	case !hasRecording:
		return ErrNoRecording
	case elapsed < b.MinSeconds:
		return fmt.Errorf("%w: minimum is %d seconds", ErrRecordingTooShort, b.MinSeconds)
	case elapsed > b.MaxSeconds:
		return fmt.Errorf("%w: maximum is %d seconds", ErrRecordingTooLong, b.MaxSeconds)
	}
	return nil
}

func (b DemoBounds) CanContinue(hasRecording bool, elapsed int) bool {
	return b.Validate(hasRecording, elapsed) == nil
}
