package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var errNotObject = errors.New("usecase: chat request body is not a JSON object")

// ParseChatMessage extracts the message from a chat request body. An empty
// body, or a JSON object without a message (or with a null one), yields "".
// Bodies that are not a JSON object, or whose message is not a string, are
// rejected.
func ParseChatMessage(body []byte) (string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return "", nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", fmt.Errorf("usecase: decode chat request: %w", err)
	}
	if fields == nil {
		return "", errNotObject
	}
	raw, ok := fields["message"]
	if !ok || string(raw) == "null" {
		return "", nil
	}
	var message string
	if err := json.Unmarshal(raw, &message); err != nil {
		return "", fmt.Errorf("usecase: decode chat message: %w", err)
	}
	return message, nil
}
