package chat

import "github.com/interviewfriend/relay/backend/internal/model/chat"

// Normalize converts client history into canonical messages. Entries whose
// role is neither user nor assistant are dropped; order is preserved.
func Normalize(raw []chat.RawMessage) []chat.Message {
	if len(raw) == 0 {
		return nil
	}

	out := make([]chat.Message, 0, len(raw))
	for _, msg := range raw {
		switch chat.MessageRole(msg.Role) {
		case chat.RoleUser:
			out = append(out, chat.Message{Role: chat.RoleUser, Content: msg.Content})
		case chat.RoleAssistant:
			out = append(out, chat.Message{Role: chat.RoleAssistant, Content: msg.Content})
		}
	}
	return out
}
