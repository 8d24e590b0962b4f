// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_level

import (
	"errors"
	"math"
	"sync"

	internal_audio "github.com/alteraai/api/persona-api/internal/audio"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/utils"
)

const (
	MinLevel = 0
	MaxLevel = 100
	// mic input rarely exceeds half scale, doubling spreads speech over the meter
	gain = 2.0
)

var ErrMalformedFrame = errors.New("frame is not LINEAR16 audio")

// Analyzer turns captured frames into an advisory 0-100 input level. It never
// fails the caller: a frame that cannot be analyzed reads as zero.
type Analyzer struct {
	logger commons.Logger
	mu     sync.Mutex
	last   int
}

func NewAnalyzer(logger commons.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// Measure returns the level of one frame and remembers it as the latest.
func (a *Analyzer) Measure(frame []byte) int {
	level, err := Level(frame)
	if err != nil {
		a.logger.Warnf("unable to analyze input level: %v", err)
		level = MinLevel
	}
	a.mu.Lock()
	a.last = level
	a.mu.Unlock()
	return level
}

func (a *Analyzer) Last() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Level computes the mean absolute amplitude of a LINEAR16 frame scaled to
// [MinLevel, MaxLevel].
func Level(frame []byte) (int, error) {
	if len(frame) == 0 || len(frame)%internal_audio.AudioBytesPerSample != 0 {
		return MinLevel, ErrMalformedFrame
	}
	samples := internal_audio.Samples(frame)
	for i, s := range samples {
		samples[i] = float32(math.Abs(float64(s)))
	}
	avg := float64(utils.AverageFloat32(samples))
	return int(math.Round(utils.Clamp(avg*MaxLevel*gain, MinLevel, MaxLevel))), nil
}
