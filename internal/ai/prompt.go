package ai

// Prompt is one request to the text-generation service.
type Prompt struct {
	System   string
	Messages []Message
}

// Message is a role-tagged chat message. Role is "user" or "assistant".
type Message struct {
	Role    string
	Content string
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// UserPrompt builds a prompt with a single user message.
func UserPrompt(system, user string) Prompt {
	return Prompt{System: system, Messages: []Message{{Role: RoleUser, Content: user}}}
}

// Usage is the token accounting of one completion.
type Usage struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
