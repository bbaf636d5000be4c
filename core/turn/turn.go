// Package turn defines the conversation data model shared by the session
// store and the orchestrator.
package turn

import (
	"encoding/json"
	"fmt"
)

// Role identifies which side of the conversation produced a turn.
type Role string

const (
	RoleUser    Role = "user"
	RoleCouncil Role = "council"
)

// ModelResponse is one model's completion for a single council invocation.
// Order within a council turn follows the engine-reported order.
type ModelResponse struct {
	Model   string `json:"model"`
	Content string `json:"content"`
}

// Turn is one atomic unit of conversation history: either a user message or
// a bundle of model responses. Exactly one of Content (user) or Responses
// (council) is meaningful, discriminated by Role.
//
// The JSON encoding is the durable session format:
//
//	{"role": "user", "content": "..."}
//	{"role": "council", "responses": [{"model": "...", "content": "..."}]}
type Turn struct {
	Role      Role
	Content   string
	Responses []ModelResponse
}

// User creates a user turn carrying a single message.
func User(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// Council creates a council turn carrying the engine's responses.
func Council(responses []ModelResponse) Turn {
	return Turn{Role: RoleCouncil, Responses: responses}
}

// MarshalJSON emits only the fields relevant to the turn's role, so user
// turns never carry a responses key and council turns never carry content.
func (t Turn) MarshalJSON() ([]byte, error) {
	switch t.Role {
	case RoleUser:
		return json.Marshal(struct {
			Role    Role   `json:"role"`
			Content string `json:"content"`
		}{Role: t.Role, Content: t.Content})
	case RoleCouncil:
		responses := t.Responses
		if responses == nil {
			responses = []ModelResponse{}
		}
		return json.Marshal(struct {
			Role      Role            `json:"role"`
			Responses []ModelResponse `json:"responses"`
		}{Role: t.Role, Responses: responses})
	default:
		return nil, fmt.Errorf("unknown turn role: %q", t.Role)
	}
}

// UnmarshalJSON decodes both variants and rejects unknown roles, keeping the
// tagged union closed on the way in from durable storage.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role      Role            `json:"role"`
		Content   string          `json:"content"`
		Responses []ModelResponse `json:"responses"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Role {
	case RoleUser:
		*t = Turn{Role: RoleUser, Content: raw.Content}
	case RoleCouncil:
		*t = Turn{Role: RoleCouncil, Responses: raw.Responses}
	default:
		return fmt.Errorf("unknown turn role: %q", raw.Role)
	}
	return nil
}

// Clone returns a deep copy of the turn. Council responses are copied so the
// caller cannot mutate stored history through a returned slice.
func (t Turn) Clone() Turn {
	copied := t
	if t.Responses != nil {
		copied.Responses = make([]ModelResponse, len(t.Responses))
		copy(copied.Responses, t.Responses)
	}
	return copied
}

// CloneHistory deep-copies an ordered turn sequence.
func CloneHistory(history []Turn) []Turn {
	if history == nil {
		return nil
	}
	copied := make([]Turn, len(history))
	for i, t := range history {
		copied[i] = t.Clone()
	}
	return copied
}
