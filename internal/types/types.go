package types

import (
	"fmt"
	"time"
)

// Message is one turn of the conversation transcript
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a message stamped with the current time
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, CreatedAt: time.Now()}
}

// Validate ensures the message is valid
func (m *Message) Validate() error {
	if !m.Role.IsValid() {
		return fmt.Errorf("message.role: invalid value %q, must be one of: user, assistant", m.Role)
	}
	return nil
}

// Requirements is the summary produced once planning completes
type Requirements struct {
	Summary      string   `json:"summary"`      // Raw model text that signalled readiness
	Conversation []string `json:"conversation"` // Contents of all prior user/assistant turns
}

// ImportResults is the outcome of the most recent import-check pass
type ImportResults struct {
	Modules []string          `json:"modules"`
	Missing []string          `json:"missing"`
	Failed  map[string]string `json:"failed"`
	Success bool              `json:"success"`
}

// TestResults is the outcome of the most recent syntax-check pass
type TestResults struct {
	Success bool   `json:"success"`
	Mode    string `json:"mode"`
	Error   string `json:"error,omitempty"`
}

// SessionState is the accumulated workflow state of one session
type SessionState struct {
	ID             string         `json:"id"`
	Phase          Phase          `json:"phase"`
	Messages       []Message      `json:"messages"`
	Requirements   *Requirements  `json:"requirements,omitempty"`
	GeneratedCode  string         `json:"generated_code"`
	ImportResults  *ImportResults `json:"import_results,omitempty"`
	TestResults    *TestResults   `json:"test_results,omitempty"`
	IterationCount int            `json:"iteration_count"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewSessionState creates the initial state for a session id
func NewSessionState(id string) *SessionState {
	now := time.Now()
	return &SessionState{
		ID:        id,
		Phase:     PhasePlanning,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate ensures the session state is valid
func (s *SessionState) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("session.id: field is required")
	}
	if s.Phase == "" {
		s.Phase = PhasePlanning // Default to planning
	}
	if !s.Phase.IsValid() {
		return fmt.Errorf("session.phase: invalid value %q, must be one of: %v", s.Phase, AllPhases())
	}
	if s.IterationCount < 0 {
		return fmt.Errorf("session.iteration_count: must not be negative")
	}
	for i := range s.Messages {
		if err := s.Messages[i].Validate(); err != nil {
			return fmt.Errorf("session.messages[%d]: %w", i, err)
		}
	}
	return nil
}

// Tail returns the last n messages. The stored transcript is never truncated.
func (s *SessionState) Tail(n int) []Message {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// LastMessage returns the most recent message, or nil for an empty transcript
func (s *SessionState) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// Clone returns a deep copy of the state
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = append([]Message(nil), s.Messages...)
	if c.Messages == nil {
		c.Messages = []Message{}
	}
	if s.Requirements != nil {
		r := *s.Requirements
		r.Conversation = append([]string(nil), s.Requirements.Conversation...)
		c.Requirements = &r
	}
	if s.ImportResults != nil {
		c.ImportResults = s.ImportResults.Clone()
	}
	if s.TestResults != nil {
		t := *s.TestResults
		c.TestResults = &t
	}
	return &c
}

// Clone returns a deep copy of the import results
func (r *ImportResults) Clone() *ImportResults {
	if r == nil {
		return nil
	}
	c := &ImportResults{
		Modules: append([]string(nil), r.Modules...),
		Missing: append([]string(nil), r.Missing...),
		Success: r.Success,
	}
	if r.Failed != nil {
		c.Failed = make(map[string]string, len(r.Failed))
		for k, v := range r.Failed {
			c.Failed[k] = v
		}
	}
	return c
}
