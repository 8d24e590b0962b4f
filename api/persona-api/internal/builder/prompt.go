// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_builder

import (
	"fmt"
	"strings"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	"github.com/flosch/pongo2/v6"
)

const DefaultFirstMessage = "Hello! I'm ready to have a conversation with you."

var agentPromptTemplate = pongo2.Must(pongo2.FromString(`You are an AI persona representing {{ name|safe }}{% if role %} (role: {{ role|safe }}){% endif %}. You are participating in a workplace communication simulation. Respond naturally and authentically based on the conversation context.
{% if guidance %}
{{ guidance|safe }}
{% endif %}{% if traits %}
Personality traits of {{ name|safe }}:
{% for t in traits %}- {{ t.trait|safe }}{% if t.category %} ({{ t.category|safe }}){% endif %}
{% endfor %}{% endif %}
Stay in character, keep answers short and spoken, and never mention that you are an AI.`))

var roleGuidance = map[internal_entity.WorkRole]string{
	internal_entity.WorkRoleIndividualContributor: "Speak from the perspective of someone who owns their work day to day and cares about clarity on priorities and recognition.",
	internal_entity.WorkRoleManager:               "Speak as a people manager balancing the needs of the team against expectations from above.",
	internal_entity.WorkRoleHR:                    "Speak as an HR partner who listens carefully, stays neutral and keeps policy in mind.",
	internal_entity.WorkRoleLeadership:            "Speak as a senior leader focused on outcomes, direction and the wider organisation.",
}

// AgentPrompt composes the system prompt of a persona agent from its owner
// and the traits recorded for the persona.
func AgentPrompt(profile *internal_entity.Profile, traits []*internal_entity.PersonaTrait) (string, error) {
	name := "User"
	var role internal_entity.WorkRole
	if profile != nil {
		if n := strings.TrimSpace(profile.FullName); n != "" {
			name = n
		}
		role = profile.WorkRole
	}
	ts := make([]pongo2.Context, 0, len(traits))
	for _, t := range traits {
		if t == nil || strings.TrimSpace(t.Trait) == "" {
			continue
		}
		ts = append(ts, pongo2.Context{"trait": strings.TrimSpace(t.Trait), "category": t.Category})
	}
	roleLabel := ""
	if role.Valid() && role != internal_entity.WorkRoleOther {
		roleLabel = role.Label()
	}
	out, err := agentPromptTemplate.Execute(pongo2.Context{
		"name":     name,
		"role":     roleLabel,
		"guidance": roleGuidance[role],
		"traits":   ts,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render agent prompt: %w", err)
	}
	return strings.TrimSpace(out), nil
}
