package persona_api_test

import (
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	internal_audio "github.com/alteraai/api/persona-api/internal/audio"
	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	internal_interview "github.com/alteraai/api/persona-api/internal/interview"
	internal_objecturl "github.com/alteraai/api/persona-api/internal/objecturl"
	"github.com/alteraai/pkg/utils"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frame returns 100ms of LINEAR16 audio at a constant amplitude.
func frame(amplitude int16) []byte {
	samples := internal_audio.DEFAULT_CAPTURE_CONFIG.BytesPerSecond() / 10 / internal_audio.AudioBytesPerSample
	out := make([]byte, samples*internal_audio.AudioBytesPerSample)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(amplitude))
	}
	return out
}

func dial(t *testing.T, server *httptest.Server, path, userId string) *websocket.Conn {
	t.Helper()
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	url := "ws" + strings.TrimPrefix(server.URL, "http") + path + sep + "access_token=token-" + userId
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type streamResult struct {
	Type               string                     `json:"type"`
	Reason             string                     `json:"reason"`
	ElapsedSeconds     int                        `json:"elapsed"`
	MaxDurationReached bool                       `json:"maxDurationReached"`
	Url                string                     `json:"url"`
	CanContinue        *bool                      `json:"canContinue"`
	Answer             *internal_interview.Answer `json:"answer"`
	Progress           *struct {
		Answered     []int `json:"answered"`
		TotalSeconds int   `json:"totalSeconds"`
	} `json:"progress"`
}

// awaitResult skips level updates until the take is reported.
func awaitResult(t *testing.T, conn *websocket.Conn) streamResult {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var r streamResult
		require.NoError(t, conn.ReadJSON(&r))
		if r.Type != "level" {
			return r
		}
	}
}

func stop(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"stop"}`)))
}

func (f *fixture) openInterview(t *testing.T, userId string) internal_entity.Persona {
	t.Helper()
	f.profile(t, userId, "Ada", internal_entity.UserRoleStandard, internal_entity.WorkRoleManager)
	w, env := f.do(t, http.MethodPost, "/v1/persona", userId, map[string]bool{"consent": true})
	require.Equal(t, http.StatusCreated, w.Code)
	return decode[internal_entity.Persona](t, env)
}

func TestMicLevelStream(t *testing.T) {
	f := newFixture(t)
	server := httptest.NewServer(f.engine)
	defer server.Close()

	conn := dial(t, server, "/v1/recording/mic-level", "u1")
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, frame(8192)))
	var msg struct {
		Type  string `json:"type"`
		Level int    `json:"level"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "level", msg.Type)
	assert.Equal(t, 50, msg.Level)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, frame(0)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 0, msg.Level)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{1}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 0, msg.Level)
}

func TestStreamRecordingStopsAndServesBlob(t *testing.T) {
	f := newFixture(t)
	server := httptest.NewServer(f.engine)
	defer server.Close()

	conn := dial(t, server, "/v1/recording/stream", "u1")
	for i := 0; i < 5; i++ {
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, frame(4096)))
	}
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"stop"}`)))

	var result struct {
		Type               string `json:"type"`
		Url                string `json:"url"`
		MimeType           string `json:"mimeType"`
		Size               int    `json:"size"`
		MaxDurationReached bool   `json:"maxDurationReached"`
	}
	for {
		require.NoError(t, conn.ReadJSON(&result))
		if result.Type != "level" {
			break
		}
	}
	require.Equal(t, "recorded", result.Type)
	assert.False(t, result.MaxDurationReached)
	assert.Equal(t, internal_audio.MimeTypeWAV, result.MimeType)
	assert.Equal(t, internal_audio.WAVHeaderSize+5*len(frame(0)), result.Size)
	require.True(t, strings.HasPrefix(result.Url, internal_objecturl.Scheme))

	req := httptest.NewRequest(http.MethodGet, "/v1/recording/blob/"+internal_objecturl.ID(result.Url), nil)
	w, _ := f.serve(t, req, "u1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, internal_audio.MimeTypeWAV, w.Header().Get(utils.HEADER_CONTENT_TYPE))
	pcm, err := internal_audio.DecodeWAV(w.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, pcm, 5*len(frame(0)))

	// takes are only played back to the user who recorded them
	req = httptest.NewRequest(http.MethodGet, "/v1/recording/blob/"+internal_objecturl.ID(result.Url), nil)
	w, _ = f.serve(t, req, "u2")
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/recording/blob/unknown", nil)
	w, _ = f.serve(t, req, "u1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamRecordingRequiresToken(t *testing.T) {
	f := newFixture(t)
	server := httptest.NewServer(f.engine)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/recording/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStreamRecordingDemoStopsAtDemoMaximum(t *testing.T) {
	f := newFixture(t)
	server := httptest.NewServer(f.engine)
	defer server.Close()

	// the requested maximum is clamped to the 30 second demo bound
	conn := dial(t, server, "/v1/recording/stream?flow=demo&maxSeconds=999", "u1")
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, frame(4096)))
	f.ticker.tick(t, 30)

	result := awaitResult(t, conn)
	require.Equal(t, "recorded", result.Type)
	assert.True(t, result.MaxDurationReached)
	assert.Equal(t, 30, result.ElapsedSeconds)
	require.NotNil(t, result.CanContinue)
	assert.True(t, *result.CanContinue)
	assert.True(t, strings.HasPrefix(result.Url, internal_objecturl.Scheme))
}

func TestStreamRecordingDemoTooShortCannotContinue(t *testing.T) {
	f := newFixture(t)
	server := httptest.NewServer(f.engine)
	defer server.Close()

	conn := dial(t, server, "/v1/recording/stream?flow=demo", "u1")
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, frame(4096)))
	f.ticker.tick(t, 3)
	stop(t, conn)

	result := awaitResult(t, conn)
	require.Equal(t, "recorded", result.Type)
	assert.False(t, result.MaxDurationReached)
	assert.Equal(t, 3, result.ElapsedSeconds)
	require.NotNil(t, result.CanContinue)
	assert.False(t, *result.CanContinue)
}

func TestStreamRecordingKeepsAnswerAlongsideUploads(t *testing.T) {
	f := newFixture(t)
	f.openInterview(t, "u1")
	server := httptest.NewServer(f.engine)
	defer server.Close()

	conn := dial(t, server, "/v1/recording/stream?question=0", "u1")
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, frame(4096)))
	f.ticker.tick(t, 4)

	// question 1 is answered from another tab while question 0 is recording
	w, _ := f.upload(t, "/v1/interview/answers/1", "u1", nil, wav(6))
	require.Equal(t, http.StatusOK, w.Code)

	stop(t, conn)
	result := awaitResult(t, conn)
	require.Equal(t, "recorded", result.Type)
	assert.Empty(t, result.Url)
	require.NotNil(t, result.Answer)
	assert.Equal(t, 0, result.Answer.QuestionIndex)
	assert.Equal(t, 4, result.Answer.DurationSeconds)
	require.NotNil(t, result.Progress)
	assert.Equal(t, []int{0, 1}, result.Progress.Answered)
	assert.Equal(t, 10, result.Progress.TotalSeconds)

	w, env := f.do(t, http.MethodGet, "/v1/interview/progress", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"answered":[0,1]`)
}

func TestStreamRecordingRejectedOnceInterviewCompleted(t *testing.T) {
	f := newFixture(t)
	persona := f.openInterview(t, "u1")
	server := httptest.NewServer(f.engine)
	defer server.Close()

	conn := dial(t, server, "/v1/recording/stream?question=0", "u1")
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, frame(4096)))
	f.ticker.tick(t, 2)
	f.setStatus(t, persona.Id, internal_entity.PersonaProcessing)

	stop(t, conn)
	result := awaitResult(t, conn)
	assert.Equal(t, "error", result.Type)
	assert.Equal(t, "persona_locked", result.Reason)

	w, env := f.do(t, http.MethodGet, "/v1/interview/progress", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"answered":[]`)
}

func TestStreamRecordingRefusedForLockedPersona(t *testing.T) {
	f := newFixture(t)
	persona := f.openInterview(t, "u1")
	f.setStatus(t, persona.Id, internal_entity.PersonaProcessing)
	server := httptest.NewServer(f.engine)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/recording/stream?question=0&access_token=token-u1"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
