package elevenlabs_client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Hello, how are you?", "Hello, how are you?"},
		{"heading and emphasis", "# Title\nThis is **bold** and _soft_.", "Title This is bold and soft."},
		{"link and image", "See [docs](http://x) and ![logo](http://y)", "See docs and logo"},
		{"code", "Run `make` now\n```\nrm -rf\n```", "Run make now"},
		{"xml escaped", "a < b & c > d", "a &lt; b &amp; c &gt; d"},
		{"whitespace", "  many\n\n  spaces\t here ", "many spaces here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}
