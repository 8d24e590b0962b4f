package internal_audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWAV_Header(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	wav := EncodeWAV(DEFAULT_CAPTURE_CONFIG, pcm)

	require.Len(t, wav, WAVHeaderSize+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(wav[28:32]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
}

func TestDecodeWAV_RoundTrip(t *testing.T) {
	pcm := []byte{9, 8, 7, 6, 5, 4}
	out, err := DecodeWAV(EncodeWAV(DEFAULT_CAPTURE_CONFIG, pcm))
	require.NoError(t, err)
	assert.Equal(t, pcm, out)
}

func TestDecodeWAV_Rejects(t *testing.T) {
	_, err := DecodeWAV([]byte("short"))
	assert.Error(t, err)

	wav := EncodeWAV(DEFAULT_CAPTURE_CONFIG, []byte{1, 2})
	binary.LittleEndian.PutUint32(wav[40:44], 100)
	_, err = DecodeWAV(wav)
	assert.Error(t, err)
}

func TestSamples_Normalizes(t *testing.T) {
	pcm := make([]byte, 4)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(0x7FFF))
	var minVal int16 = -32768
	binary.LittleEndian.PutUint16(pcm[2:], uint16(minVal))

	s := Samples(pcm)
	require.Len(t, s, 2)
	assert.InDelta(t, 1.0, s[0], 0.001)
	assert.InDelta(t, -1.0, s[1], 0.001)
}

func TestBlobSize_Nil(t *testing.T) {
	var b *Blob
	assert.Equal(t, 0, b.Size())
}

func TestParseWAV_SkipsUnknownChunks(t *testing.T) {
	pcm := make([]byte, DEFAULT_CAPTURE_CONFIG.BytesPerSecond()*3)
	wav := EncodeWAV(DEFAULT_CAPTURE_CONFIG, pcm)

	// browsers often put a LIST chunk between fmt and data
	list := append([]byte("LIST"), 3, 0, 0, 0, 'a', 'b', 'c', 0)
	withList := append(append(append([]byte{}, wav[:36]...), list...), wav[36:]...)

	cfg, out, err := ParseWAV(withList)
	require.NoError(t, err)
	assert.Equal(t, DEFAULT_CAPTURE_CONFIG, cfg)
	assert.Len(t, out, len(pcm))

	seconds, err := WAVSeconds(withList)
	require.NoError(t, err)
	assert.Equal(t, 3, seconds)
}

func TestWAVSeconds_RoundsDown(t *testing.T) {
	pcm := make([]byte, DEFAULT_CAPTURE_CONFIG.BytesPerSecond()*10-2)
	seconds, err := WAVSeconds(EncodeWAV(DEFAULT_CAPTURE_CONFIG, pcm))
	require.NoError(t, err)
	assert.Equal(t, 9, seconds)

	_, err = WAVSeconds([]byte("x"))
	assert.ErrorIs(t, err, ErrNotWAV)
	assert.False(t, IsWAV([]byte("x")))
}
