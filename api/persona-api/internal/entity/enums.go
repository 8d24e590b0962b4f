package internal_entity

type PersonaStatus string

const (
	PersonaNotCreated PersonaStatus = "not_created"
	PersonaInProgress PersonaStatus = "in_progress"
	PersonaProcessing PersonaStatus = "processing"
	PersonaActive     PersonaStatus = "active"
	PersonaFailed     PersonaStatus = "failed"
)

type UserRole string

const (
	UserRoleStandard UserRole = "standard"
	UserRoleHR       UserRole = "hr"
	UserRoleAdmin    UserRole = "admin"
)

func (r UserRole) CanManagePersonas() bool {
	return r == UserRoleHR || r == UserRoleAdmin
}

type WorkRole string

const (
	WorkRoleIndividualContributor WorkRole = "individual_contributor"
	WorkRoleManager               WorkRole = "manager"
	WorkRoleHR                    WorkRole = "hr"
	WorkRoleLeadership            WorkRole = "leadership"
	WorkRoleOther                 WorkRole = "other"
)

func (r WorkRole) Valid() bool {
	switch r {
	case WorkRoleIndividualContributor, WorkRoleManager, WorkRoleHR, WorkRoleLeadership, WorkRoleOther:
		return true
	}
	return false
}

// Label is the human readable role used in agent prompts and listings.
func (r WorkRole) Label() string {
	switch r {
	case WorkRoleIndividualContributor:
		return "Individual Contributor"
	case WorkRoleManager:
		return "Manager"
	case WorkRoleHR:
		return "HR"
	case WorkRoleLeadership:
		return "Leadership"
	case WorkRoleOther:
		return "Other"
	}
	return string(r)
}

type ConversationTheme string

const (
	ThemeFeedback       ConversationTheme = "feedback"
	ThemePerformance    ConversationTheme = "performance"
	ThemeConflict       ConversationTheme = "conflict"
	ThemeWorkload       ConversationTheme = "workload"
	ThemeChangeDecision ConversationTheme = "change_decision"
	ThemeOther          ConversationTheme = "other"
)

func (t ConversationTheme) Valid() bool {
	switch t {
	case ThemeFeedback, ThemePerformance, ThemeConflict, ThemeWorkload, ThemeChangeDecision, ThemeOther:
		return true
	}
	return false
}

type Emotion string

const (
	EmotionAnxious    Emotion = "anxious"
	EmotionGuilty     Emotion = "guilty"
	EmotionFrustrated Emotion = "frustrated"
	EmotionCalmUnsure Emotion = "calm_unsure"
	EmotionConfident  Emotion = "confident"
	EmotionOther      Emotion = "other"
)

func (e Emotion) Valid() bool {
	switch e {
	case EmotionAnxious, EmotionGuilty, EmotionFrustrated, EmotionCalmUnsure, EmotionConfident, EmotionOther:
		return true
	}
	return false
}

type TranscriptStatus string

const (
	TranscriptPending TranscriptStatus = "pending"
	TranscriptSaved   TranscriptStatus = "saved"
	TranscriptFailed  TranscriptStatus = "failed"
)

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

var TraitCategories = []string{
	"Communication style",
	"Stress response",
	"Feedback preference",
	"Work style",
	"Team dynamics",
	"Other",
}

func ValidTraitCategory(c string) bool {
	if c == "" {
		return true
	}
	for _, v := range TraitCategories {
		if v == c {
			return true
		}
	}
	return false
}
