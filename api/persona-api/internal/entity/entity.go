// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_entity

import (
	"time"

	gorm_model "github.com/alteraai/pkg/models/gorm"
)

// Profile shares its id with the authenticated user.
type Profile struct {
	gorm_model.Audited
	Email    string   `json:"email" gorm:"type:varchar(320);not null"`
	FullName string   `json:"fullName" gorm:"type:varchar(200);not null;default:''"`
	UserRole UserRole `json:"userRole" gorm:"type:varchar(20);not null;default:standard"`
	WorkRole WorkRole `json:"workRole" gorm:"type:varchar(40);not null;default:other"`
}

func (Profile) TableName() string {
	return "profiles"
}

type Persona struct {
	gorm_model.Audited
	UserId           string        `json:"userId" gorm:"type:varchar(36);not null;uniqueIndex"`
	Status           PersonaStatus `json:"status" gorm:"type:varchar(20);not null;default:not_created"`
	ConsentGiven     bool          `json:"consentGiven" gorm:"not null;default:false"`
	ConsentTimestamp *time.Time    `json:"consentTimestamp" gorm:"type:timestamp"`
	VoiceProfileId   string        `json:"voiceProfileId" gorm:"type:varchar(100);not null;default:''"`
	AgentId          string        `json:"agentId" gorm:"type:varchar(100);not null;default:''"`
	Transcription    string        `json:"transcription" gorm:"type:text;not null;default:''"`

	Traits []*PersonaTrait        `json:"traits,omitempty" gorm:"foreignKey:PersonaId"`
	Events []*PersonaContextEvent `json:"events,omitempty" gorm:"foreignKey:PersonaId"`
}

func (Persona) TableName() string {
	return "ai_personas"
}

func (p *Persona) IsReady() bool {
	return p.Status == PersonaActive
}

type PersonaTrait struct {
	gorm_model.Created
	PersonaId string `json:"personaId" gorm:"type:varchar(36);not null;index"`
	Trait     string `json:"trait" gorm:"type:text;not null"`
	Category  string `json:"category" gorm:"type:varchar(50);not null;default:''"`
}

func (PersonaTrait) TableName() string {
	return "persona_traits"
}

type PersonaContextEvent struct {
	gorm_model.Created
	PersonaId   string    `json:"personaId" gorm:"type:varchar(36);not null;index"`
	Title       string    `json:"title" gorm:"type:varchar(200);not null"`
	EventDate   time.Time `json:"eventDate" gorm:"type:date;not null"`
	Description string    `json:"description" gorm:"type:text;not null;default:''"`
}

func (PersonaContextEvent) TableName() string {
	return "persona_context_events"
}

type VoiceRecording struct {
	gorm_model.Created
	PersonaId       string `json:"personaId" gorm:"type:varchar(36);not null;index"`
	QuestionIndex   int    `json:"questionIndex" gorm:"not null"`
	DurationSeconds int    `json:"durationSeconds" gorm:"not null;default:0"`
	RecordingUrl    string `json:"recordingUrl" gorm:"type:text;not null"`
}

func (VoiceRecording) TableName() string {
	return "voice_recordings"
}

type Simulation struct {
	gorm_model.Created
	UserId           string            `json:"userId" gorm:"type:varchar(36);not null;index"`
	PersonaId        *string           `json:"personaId" gorm:"type:varchar(36)"`
	Theme            ConversationTheme `json:"theme" gorm:"type:varchar(30);not null"`
	Emotion          Emotion           `json:"emotion" gorm:"type:varchar(30);not null"`
	Context          string            `json:"context" gorm:"type:text;not null;default:''"`
	UserRole         string            `json:"userRole" gorm:"type:varchar(100);not null;default:''"`
	OtherRole        string            `json:"otherRole" gorm:"type:varchar(100);not null;default:''"`
	IsUsingPersona   bool              `json:"isUsingPersona" gorm:"not null;default:false"`
	ConversationId   string            `json:"conversationId" gorm:"type:varchar(100);not null;default:''"`
	TranscriptStatus TranscriptStatus  `json:"transcriptStatus" gorm:"type:varchar(20);not null;default:pending"`
	CompletedAt      *time.Time        `json:"completedAt" gorm:"type:timestamp"`

	Messages []*SimulationMessage `json:"messages,omitempty" gorm:"foreignKey:SimulationId"`
}

func (Simulation) TableName() string {
	return "simulations"
}

type SimulationMessage struct {
	gorm_model.Created
	SimulationId string      `json:"simulationId" gorm:"type:varchar(36);not null;index"`
	Role         MessageRole `json:"role" gorm:"type:varchar(20);not null"`
	Content      string      `json:"content" gorm:"type:text;not null"`
}

func (SimulationMessage) TableName() string {
	return "simulation_messages"
}

type SavedPhrase struct {
	gorm_model.Created
	UserId  string `json:"userId" gorm:"type:varchar(36);not null;index"`
	Phrase  string `json:"phrase" gorm:"type:text;not null"`
	Context string `json:"context" gorm:"type:text;not null;default:''"`
}

func (SavedPhrase) TableName() string {
	return "saved_phrases"
}

// All lists every table model, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Profile{},
		&Persona{},
		&PersonaTrait{},
		&PersonaContextEvent{},
		&VoiceRecording{},
		&Simulation{},
		&SimulationMessage{},
		&SavedPhrase{},
	}
}
