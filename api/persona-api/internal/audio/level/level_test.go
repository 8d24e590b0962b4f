package internal_level

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alteraai/pkg/commons"
)

func frameOf(values ...int16) []byte {
	buf := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	return buf
}

func TestLevel(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  int
	}{
		{"silence", frameOf(0, 0, 0, 0), 0},
		{"quarter scale", frameOf(8192, -8192, 8192, -8192), 50},
		{"half scale saturates", frameOf(16384, -16384), 100},
		{"full scale clamps", frameOf(32767, -32768), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Level(tt.frame)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelMalformedFrame(t *testing.T) {
	_, err := Level(nil)
	assert.ErrorIs(t, err, ErrMalformedFrame)
	_, err = Level([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestAnalyzerDegradesToZero(t *testing.T) {
	logger, err := commons.NewApplicationLogger(commons.Name("test-level"), commons.Path(t.TempDir()))
	require.NoError(t, err)
	a := NewAnalyzer(logger)

	assert.Equal(t, 50, a.Measure(frameOf(8192, -8192)))
	assert.Equal(t, 50, a.Last())

	assert.Equal(t, 0, a.Measure([]byte{7}))
	assert.Equal(t, 0, a.Last())
}
