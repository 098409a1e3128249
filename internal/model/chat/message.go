package chat

// MessageRole identifies the speaker of a conversation turn.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message is a canonical conversation turn forwarded to the model.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// RawMessage is a history entry exactly as the client sent it. Role may hold
// any value, including "" when the field was missing or not a string.
type RawMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Fragment is one increment of generated text relayed to the client.
type Fragment struct {
	Text string `json:"chunk"`
}
