package chat

import (
	"encoding/json"

	"github.com/buger/jsonparser"
	log "github.com/sirupsen/logrus"

	"github.com/interviewfriend/relay/backend/internal/model/chat"
)

const previewRunes = 60

// Validate parses a /chat body and enforces the request invariants. A body
// that is not a JSON object is treated as {}. The history check runs before
// the role check.
func Validate(body []byte) (chat.Request, error) {
	if !json.Valid(body) {
		body = []byte("{}")
	}

	history, ok := parseHistory(body)
	if !ok || len(history) == 0 {
		return chat.Request{}, ErrInvalidHistory
	}
	if history[len(history)-1].Role != string(chat.RoleUser) {
		return chat.Request{}, ErrInvalidHistory
	}

	rawRole, _ := jsonparser.GetString(body, "role")
	role := chat.RequestRole(rawRole)
	if !role.Valid() {
		return chat.Request{}, ErrInvalidRole
	}

	req := chat.Request{Role: role, Messages: history}
	log.WithFields(log.Fields{
		"component": "chat",
		"role":      role,
	}).Infof("chat request: %s…", preview(req.LatestUserMessage()))

	return req, nil
}

// parseHistory extracts the messages array. It reports false when the field
// is absent or not an array. Elements that are not objects, or whose role or
// content are not strings, yield empty values.
func parseHistory(body []byte) ([]chat.RawMessage, bool) {
	value, dataType, _, err := jsonparser.Get(body, "messages")
	if err != nil || dataType != jsonparser.Array {
		return nil, false
	}

	history := make([]chat.RawMessage, 0, 8)
	_, err = jsonparser.ArrayEach(value, func(elem []byte, elemType jsonparser.ValueType, _ int, _ error) {
		var msg chat.RawMessage
		if elemType == jsonparser.Object {
			msg.Role, _ = jsonparser.GetString(elem, "role")
			msg.Content, _ = jsonparser.GetString(elem, "content")
		}
		history = append(history, msg)
	})
	if err != nil {
		return nil, false
	}
	return history, true
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewRunes {
		return s
	}
	return string(runes[:previewRunes])
}
