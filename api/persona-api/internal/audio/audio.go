// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	AudioBytesPerSample = 2  // LINEAR16 → 2 bytes per sample
	AudioBitsPerSample  = 16 // LINEAR16 → 16 bits per sample
	AudioPCMFormat      = 1  // WAV PCM format tag
	WAVHeaderSize       = 44

	MimeTypeWAV  = "audio/wav"
	MimeTypeMPEG = "audio/mpeg"
)

type AudioConfig struct {
	SampleRate uint32
	Channels   uint16
}

// capture format expected from the browser tap: 16 kHz mono LINEAR16
var DEFAULT_CAPTURE_CONFIG = AudioConfig{SampleRate: 16000, Channels: 1}

func (c AudioConfig) BytesPerSecond() int {
	return int(c.SampleRate) * int(c.Channels) * AudioBytesPerSample
}

// Blob is a finalized, playable piece of audio.
type Blob struct {
	Data     []byte
	MimeType string
}

func (b *Blob) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// EncodeWAV wraps raw LINEAR16 samples in a RIFF/WAVE container.
func EncodeWAV(cfg AudioConfig, pcmData []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(WAVHeaderSize + len(pcmData))

	buf.Write([]byte("RIFF"))
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcmData)))
	buf.Write([]byte("WAVE"))

	buf.Write([]byte("fmt "))
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(AudioPCMFormat))
	binary.Write(&buf, binary.LittleEndian, cfg.Channels)
	binary.Write(&buf, binary.LittleEndian, cfg.SampleRate)
	binary.Write(&buf, binary.LittleEndian, uint32(cfg.BytesPerSecond()))
	binary.Write(&buf, binary.LittleEndian, uint16(AudioBytesPerSample*int(cfg.Channels)))
	binary.Write(&buf, binary.LittleEndian, uint16(AudioBitsPerSample))

	buf.Write([]byte("data"))
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcmData)))
	buf.Write(pcmData)
	return buf.Bytes()
}

var (
	ErrNotWAV       = errors.New("not a wav container")
	ErrTruncatedWAV = errors.New("truncated wav data chunk")
)

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// ParseWAV walks the RIFF chunks and returns the stream format and its PCM
// payload. Only 16 bit PCM is accepted.
func ParseWAV(wav []byte) (AudioConfig, []byte, error) {
	var cfg AudioConfig
	if !IsWAV(wav) {
		return cfg, nil, ErrNotWAV
	}
	haveFormat := false
	for off := 12; off+8 <= len(wav); {
		id := string(wav[off : off+4])
		size := int(binary.LittleEndian.Uint32(wav[off+4 : off+8]))
		body := off + 8
		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(wav) {
				return cfg, nil, ErrNotWAV
			}
			if binary.LittleEndian.Uint16(wav[body:]) != AudioPCMFormat ||
				binary.LittleEndian.Uint16(wav[body+14:]) != AudioBitsPerSample {
				return cfg, nil, fmt.Errorf("%w: only 16 bit pcm is supported", ErrNotWAV)
			}
			cfg.Channels = binary.LittleEndian.Uint16(wav[body+2:])
			cfg.SampleRate = binary.LittleEndian.Uint32(wav[body+4:])
			haveFormat = cfg.Channels > 0 && cfg.SampleRate > 0
		case "data":
			if !haveFormat {
				return cfg, nil, ErrNotWAV
			}
			if size > len(wav)-body {
				return cfg, nil, ErrTruncatedWAV
			}
			return cfg, wav[body : body+size], nil
		}
		// chunks are word aligned
		off = body + size + size%2
	}
	return cfg, nil, ErrNotWAV
}

// DecodeWAV returns the PCM payload of a WAV container.
func DecodeWAV(wav []byte) ([]byte, error) {
	_, pcm, err := ParseWAV(wav)
	return pcm, err
}

// WAVSeconds measures the playing time of a WAV container in whole seconds,
// rounded down.
func WAVSeconds(wav []byte) (int, error) {
	cfg, pcm, err := ParseWAV(wav)
	if err != nil {
		return 0, err
	}
	return len(pcm) / cfg.BytesPerSecond(), nil
}

// Samples converts little endian LINEAR16 bytes to normalized floats in [-1, 1].
func Samples(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/AudioBytesPerSample)
	for i := range out {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		out[i] = float32(s) / 32768.0
	}
	return out
}
