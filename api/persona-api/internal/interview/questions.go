package internal_interview

const (
	MinTotalSeconds = 600
	DemoMinSeconds  = 10
	DemoMaxSeconds  = 30
)

var PersonaQuestions = []string{
	"Can you describe your role and your main responsibilities at work?",
	"How would you describe your communication style with colleagues?",
	"How do you usually react when there is a disagreement in your team?",
	"What makes you feel respected in a conversation at work?",
	"What typically frustrates you in communication at work?",
	"How do you prefer to receive feedback?",
	"How do you prefer to give feedback to others?",
	"Can you describe a recent challenging conversation and how you handled it?",
	"What are your values when it comes to teamwork and collaboration?",
	"Is there anything else about how you communicate that people should know?",
}

// DemoPrompts are answered together in a single recording.
var DemoPrompts = []string{
	"Can you briefly describe your role at work?",
	"How would you describe your communication style with others?",
	"What is one thing people should know about how you like to collaborate?",
}
