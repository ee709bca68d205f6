package events

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// AgentType identifies which specialist agent produced a message or is
// currently working on the turn.
type AgentType string

const (
	AgentOrchestrator AgentType = "orchestrator"
	AgentWeather      AgentType = "weather"
	AgentFieldData    AgentType = "field_data"
	AgentGuidebook    AgentType = "guidebook"
	AgentGeneral      AgentType = "general"
)

// Citation source categories.
const (
	CitationJMA       = "jma"
	CitationGuidebook = "guidebook"
	CitationFieldData = "field_data"
	CitationWeather   = "weather"
	CitationGeneral   = "general"
)

// Citation is one source reference attached to an assistant message.
type Citation struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Page       int            `json:"page,omitempty"`
	Confidence float64        `json:"confidence"`
	Text       string         `json:"text,omitempty"`
	Type       string         `json:"type"`
	URL        string         `json:"url,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ChatMessage is one entry in a reconstructed conversation.
type ChatMessage struct {
	ID         string         `json:"id"`
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Timestamp  time.Time      `json:"timestamp"`
	Citations  []Citation     `json:"citations,omitempty"`
	AgentType  AgentType      `json:"agentType,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// AgentStatus describes which agent is active and what it reports doing.
type AgentStatus struct {
	Current   AgentType `json:"current"`
	Thinking  string    `json:"thinking"`
	Progress  *int      `json:"progress,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewUserMessage(content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   strings.TrimSpace(content),
		Timestamp: time.Now(),
	}
}

func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Role:      RoleSystem,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func (m ChatMessage) IsUser() bool {
	return m.Role == RoleUser
}

func (m ChatMessage) IsAssistant() bool {
	return m.Role == RoleAssistant
}

func (m ChatMessage) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == ""
}

// AsCitation decodes a citation event's payload. The payload is carried
// verbatim in Raw, either nested under a "citation" key or inline beside
// the event tag. Missing IDs are filled in so the UI always has a key.
func (e StreamEvent) AsCitation() (Citation, error) {
	var wrapper struct {
		Citation *Citation `json:"citation"`
	}
	var c Citation
	if err := json.Unmarshal(e.Raw, &wrapper); err == nil && wrapper.Citation != nil {
		c = *wrapper.Citation
	} else {
		if err := json.Unmarshal(e.Raw, &c); err != nil {
			return Citation{}, err
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	// An inline payload's "type" key is the event tag, not a source category.
	if c.Type == "" || c.Type == TypeCitation {
		c.Type = CitationGeneral
	}
	return c, nil
}
