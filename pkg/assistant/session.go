package assistant

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session accounts for one Ask call. Pass ThreadID back in a later Request to
// continue the conversation.
type Session struct {
	ID           string          `json:"id"`
	ThreadID     string          `json:"thread_id"`
	Cost         decimal.Decimal `json:"cost"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
}

func newSession() *Session {
	return &Session{
		ID:   uuid.NewString(),
		Cost: decimal.Zero,
	}
}

func (s *Session) add(cost decimal.Decimal, inputTokens, outputTokens int) {
	s.Cost = s.Cost.Add(cost)
	s.InputTokens += inputTokens
	s.OutputTokens += outputTokens
}
