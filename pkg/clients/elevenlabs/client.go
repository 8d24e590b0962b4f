// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package elevenlabs_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/alteraai/config"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/utils"
)

const (
	pathAddVoice     = "/v1/voices/add"
	pathCreateAgent  = "/v1/convai/agents/create"
	pathTextToSpeech = "/v1/text-to-speech/{voiceId}"
	pathSignedURL    = "/v1/convai/conversation/get_signed_url"
	pathConversation = "/v1/convai/conversations/{conversationId}"

	headerApiKey = "xi-api-key"
)

var ErrEmptyResponse = errors.New("voice service returned no identifier")

// APIError is a non 2xx answer from the voice service.
type APIError struct {
	Operation  string `json:"operation"`
	StatusCode int    `json:"statusCode"`
	Detail     string `json:"detail"`
}

func (e APIError) Error() string {
	b, err := json.Marshal(e)
	if err != nil {
		return "undefined error"
	}
	return string(b)
}

type VoiceFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type CreateVoiceRequest struct {
	Name        string
	Description string
	Files       []VoiceFile
}

type CreateAgentRequest struct {
	Prompt       string
	FirstMessage string
	Language     string
	VoiceId      string
}

type TranscriptEntry struct {
	Role           string  `json:"role"`
	Message        string  `json:"message"`
	TimeInCallSecs float64 `json:"time_in_call_secs"`
}

type Conversation struct {
	ConversationId string            `json:"conversation_id"`
	AgentId        string            `json:"agent_id"`
	Status         string            `json:"status"`
	Transcript     []TranscriptEntry `json:"transcript"`
}

type Client interface {
	CreateVoice(ctx context.Context, req CreateVoiceRequest) (string, error)
	CreateAgent(ctx context.Context, req CreateAgentRequest) (string, error)
	TextToSpeech(ctx context.Context, voiceId, text string) ([]byte, error)
	SignedURL(ctx context.Context, agentId string) (string, error)
	Conversation(ctx context.Context, conversationId string) (*Conversation, error)
}

// Observer is told about every call, e.g. to record latency.
type Observer func(operation string, started time.Time, err error)

type Option func(*client)

func WithObserver(o Observer) Option {
	return func(c *client) { c.observe = o }
}

func WithHTTPClient(r *resty.Client) Option {
	return func(c *client) { c.rest = r }
}

type client struct {
	logger  commons.Logger
	cfg     config.ElevenLabsConfig
	rest    *resty.Client
	observe Observer
}

func NewClient(cfg config.ElevenLabsConfig, logger commons.Logger, opts ...Option) Client {
	c := &client{logger: logger, cfg: cfg, observe: func(string, time.Time, error) {}}
	for _, opt := range opts {
		opt(c)
	}
	if c.rest == nil {
		c.rest = resty.New()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c.rest.
		SetBaseURL(cfg.BaseUrl).
		SetTimeout(timeout).
		SetHeader(headerApiKey, cfg.ApiKey)
	return c
}

func (c *client) request(ctx context.Context) *resty.Request {
	return c.rest.R().SetContext(ctx)
}

func (c *client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		c.logger.Errorf("voice service %s failed: %v", op, err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		c.logger.Errorf("voice service %s returned %d: %s", op, resp.StatusCode(), resp.String())
		return APIError{Operation: op, StatusCode: resp.StatusCode(), Detail: resp.String()}
	}
	return nil
}

func (c *client) CreateVoice(ctx context.Context, req CreateVoiceRequest) (id string, err error) {
	defer func(started time.Time) { c.observe("create_voice", started, err) }(time.Now())
	if len(req.Files) == 0 {
		return "", errors.New("at least one audio sample is required")
	}

	r := c.request(ctx).SetMultipartFormData(map[string]string{
		"name":        req.Name,
		"description": req.Description,
	})
	for _, f := range req.Files {
		r.SetMultipartField("files", f.Name, f.ContentType, bytes.NewReader(f.Data))
	}
	var out struct {
		VoiceId string `json:"voice_id"`
	}
	resp, err := r.SetResult(&out).Post(pathAddVoice)
	if err = c.check("create_voice", resp, err); err != nil {
		return "", err
	}
	if utils.IsEmpty(out.VoiceId) {
		return "", ErrEmptyResponse
	}
	c.logger.Infof("voice created %s from %d samples", out.VoiceId, len(req.Files))
	return out.VoiceId, nil
}

func (c *client) CreateAgent(ctx context.Context, req CreateAgentRequest) (id string, err error) {
	defer func(started time.Time) { c.observe("create_agent", started, err) }(time.Now())
	language := req.Language
	if language == "" {
		language = "en"
	}
	body := map[string]interface{}{
		"conversation_config": map[string]interface{}{
			"agent": map[string]interface{}{
				"prompt":        map[string]interface{}{"prompt": req.Prompt},
				"first_message": req.FirstMessage,
				"language":      language,
			},
			"tts": map[string]interface{}{"voice_id": req.VoiceId},
		},
		"platform_settings": map[string]interface{}{
			"widget": map[string]interface{}{"variant": "full-screen"},
		},
	}
	var out struct {
		AgentId string `json:"agent_id"`
	}
	resp, err := c.request(ctx).SetBody(body).SetResult(&out).Post(pathCreateAgent)
	if err = c.check("create_agent", resp, err); err != nil {
		return "", err
	}
	if utils.IsEmpty(out.AgentId) {
		return "", ErrEmptyResponse
	}
	c.logger.Infof("agent created %s for voice %s", out.AgentId, req.VoiceId)
	return out.AgentId, nil
}

func (c *client) TextToSpeech(ctx context.Context, voiceId, text string) (audio []byte, err error) {
	defer func(started time.Time) { c.observe("text_to_speech", started, err) }(time.Now())
	resp, err := c.request(ctx).
		SetPathParam("voiceId", voiceId).
		SetHeader("Accept", "audio/mpeg").
		SetBody(map[string]string{
			"text":     NormalizeText(text),
			"model_id": c.cfg.TTSModel,
		}).
		Post(pathTextToSpeech)
	if err = c.check("text_to_speech", resp, err); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func (c *client) SignedURL(ctx context.Context, agentId string) (url string, err error) {
	defer func(started time.Time) { c.observe("signed_url", started, err) }(time.Now())
	var out struct {
		SignedUrl string `json:"signed_url"`
	}
	resp, err := c.request(ctx).
		SetQueryParam("agent_id", agentId).
		SetResult(&out).
		Get(pathSignedURL)
	if err = c.check("signed_url", resp, err); err != nil {
		return "", err
	}
	if utils.IsEmpty(out.SignedUrl) {
		return "", ErrEmptyResponse
	}
	return out.SignedUrl, nil
}

func (c *client) Conversation(ctx context.Context, conversationId string) (conv *Conversation, err error) {
	defer func(started time.Time) { c.observe("conversation", started, err) }(time.Now())
	var out Conversation
	resp, err := c.request(ctx).
		SetPathParam("conversationId", conversationId).
		SetResult(&out).
		Get(pathConversation)
	if err = c.check("conversation", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}
