package internal_builder

import (
	"testing"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentPrompt(t *testing.T) {
	profile := &internal_entity.Profile{FullName: "Sam O'Neil", WorkRole: internal_entity.WorkRoleLeadership}
	traits := []*internal_entity.PersonaTrait{
		{Trait: "Thinks out loud", Category: "Communication style"},
		{Trait: "  "},
		{Trait: "Dislikes surprises"},
	}
	prompt, err := AgentPrompt(profile, traits)
	require.NoError(t, err)
	assert.Contains(t, prompt, "representing Sam O'Neil (role: Leadership)")
	assert.Contains(t, prompt, "senior leader")
	assert.Contains(t, prompt, "- Thinks out loud (Communication style)")
	assert.Contains(t, prompt, "- Dislikes surprises\n")
	assert.NotContains(t, prompt, "&#39;")
}

func TestAgentPrompt_Defaults(t *testing.T) {
	prompt, err := AgentPrompt(nil, nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "representing User.")
	assert.NotContains(t, prompt, "Personality traits")
}
