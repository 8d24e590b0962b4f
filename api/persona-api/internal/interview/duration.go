// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_interview

import (
	"errors"
	"fmt"

	internal_audio "github.com/alteraai/api/persona-api/internal/audio"
)

// compressed takes (webm/opus, mp4) never go below 8 kbps
const MinEncodedBytesPerSecond = 1000

var ErrDurationMismatch = errors.New("recording is shorter than its reported duration")

// MeasureDuration settles how long an uploaded take really is. WAV takes are
// measured from their samples and the claimed duration is ignored; other
// encodings keep the claim only when the payload is large enough to hold it.
func MeasureDuration(blob *internal_audio.Blob, claimed int) (int, error) {
	if blob.Size() == 0 {
		return 0, ErrNoRecording
	}
	if internal_audio.IsWAV(blob.Data) {
		seconds, err := internal_audio.WAVSeconds(blob.Data)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrNoRecording, err)
		}
		if seconds == 0 {
			return 0, fmt.Errorf("%w: less than a second of audio", ErrNoRecording)
		}
		return seconds, nil
	}
	if claimed <= 0 {
		return 0, ErrNoRecording
	}
	if blob.Size() < claimed*MinEncodedBytesPerSecond {
		return 0, fmt.Errorf("%w: %d bytes cannot hold %s", ErrDurationMismatch, blob.Size(), FormatDuration(claimed))
	}
	return claimed, nil
}
