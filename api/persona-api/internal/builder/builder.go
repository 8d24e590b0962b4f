// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_builder

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	internal_audio "github.com/alteraai/api/persona-api/internal/audio"
	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	internal_services "github.com/alteraai/api/persona-api/internal/service"
	elevenlabs_client "github.com/alteraai/pkg/clients/elevenlabs"
	"github.com/alteraai/pkg/commons"
	storage_files "github.com/alteraai/pkg/storages/file-storage"
	"golang.org/x/sync/errgroup"
)

var ErrNoRecordings = errors.New("persona has no recordings")

const fetchConcurrency = 4

// Builder turns the interview answers of a persona into a cloned voice and
// a conversational agent.
type Builder struct {
	logger   commons.Logger
	personas internal_services.PersonaService
	profiles internal_services.ProfileService
	storage  storage_files.Storage
	voices   elevenlabs_client.Client
}

func NewBuilder(logger commons.Logger,
	personas internal_services.PersonaService,
	profiles internal_services.ProfileService,
	storage storage_files.Storage,
	voices elevenlabs_client.Client,
) *Builder {
	return &Builder{
		logger:   logger,
		personas: personas,
		profiles: profiles,
		storage:  storage,
		voices:   voices,
	}
}

// Build runs the job for personaId. The persona ends up active, or failed
// when any step errors.
func (b *Builder) Build(ctx context.Context, personaId string) (err error) {
	start := time.Now()
	defer func() {
		b.logger.Benchmark("builder.Build", time.Since(start))
		if err == nil {
			return
		}
		b.logger.Errorf("persona %s build failed: %v", personaId, err)
		if uerr := b.personas.UpdateStatus(context.WithoutCancel(ctx), personaId, internal_entity.PersonaFailed); uerr != nil {
			b.logger.Errorf("unable to mark persona %s failed: %v", personaId, uerr)
		}
	}()

	persona, err := b.personas.GetById(ctx, personaId)
	if err != nil {
		return err
	}

	var (
		profile *internal_entity.Profile
		files   []elevenlabs_client.VoiceFile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := b.profiles.Get(gctx, persona.UserId)
		if err != nil {
			return fmt.Errorf("owner profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		f, err := b.loadRecordings(gctx, personaId)
		files = f
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	name := profile.FullName
	if name == "" {
		name = profile.Email
	}
	voiceId, err := b.voices.CreateVoice(ctx, elevenlabs_client.CreateVoiceRequest{
		Name:        fmt.Sprintf("%s persona", name),
		Description: fmt.Sprintf("Voice persona of %s (%s)", name, profile.WorkRole.Label()),
		Files:       files,
	})
	if err != nil {
		return fmt.Errorf("create voice: %w", err)
	}

	prompt, err := AgentPrompt(profile, persona.Traits)
	if err != nil {
		return err
	}
	agentId, err := b.voices.CreateAgent(ctx, elevenlabs_client.CreateAgentRequest{
		Prompt:       prompt,
		FirstMessage: DefaultFirstMessage,
		Language:     "en",
		VoiceId:      voiceId,
	})
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	return b.personas.Activate(ctx, personaId, voiceId, agentId)
}

func (b *Builder) loadRecordings(ctx context.Context, personaId string) ([]elevenlabs_client.VoiceFile, error) {
	recordings, err := b.personas.GetAllRecording(ctx, personaId)
	if err != nil {
		return nil, err
	}
	if len(recordings) == 0 {
		return nil, ErrNoRecordings
	}
	files := make([]elevenlabs_client.VoiceFile, len(recordings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, rec := range recordings {
		g.Go(func() error {
			data, err := b.storage.Get(gctx, rec.RecordingUrl)
			if err != nil {
				return fmt.Errorf("recording %d: %w", rec.QuestionIndex, err)
			}
			files[i] = elevenlabs_client.VoiceFile{
				Name:        path.Base(rec.RecordingUrl),
				ContentType: internal_audio.MimeTypeWAV,
				Data:        data,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	b.logger.Debugf("loaded %d recordings of persona %s", len(files), personaId)
	return files, nil
}
