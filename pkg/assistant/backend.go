package assistant

import (
	"context"

	"github.com/go-go-golems/muse/pkg/tools"
)

type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusExpired        RunStatus = "expired"
	RunStatusIncomplete     RunStatus = "incomplete"
)

// IsTerminalFailure reports whether the run can never reach completed.
func (s RunStatus) IsTerminalFailure() bool {
	switch s {
	case RunStatusFailed, RunStatusCancelled, RunStatusExpired, RunStatusIncomplete:
		return true
	}
	return false
}

// ResponseFormat is the run's output format directive. The empty value
// leaves the assistant's own setting in place.
type ResponseFormat string

const (
	ResponseFormatAuto       ResponseFormat = "auto"
	ResponseFormatText       ResponseFormat = "text"
	ResponseFormatJSONObject ResponseFormat = "json_object"
)

type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// ToolCall is a pending function call attached to a run in requires_action.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Run is a snapshot of a backend run.
type Run struct {
	ID        string
	ThreadID  string
	Status    RunStatus
	ToolCalls []ToolCall
	Usage     Usage
	LastError string
}

type ToolOutput struct {
	ToolCallID string
	Output     string
}

type Message struct {
	ID    string
	Role  string
	Texts []string
}

type AssistantSpec struct {
	Model        string
	Name         string
	Instructions string
	Tools        []tools.Definition
}

type RunRequest struct {
	AssistantID    string
	Model          string
	Tools          []tools.Definition
	ResponseFormat ResponseFormat
}

// Backend is the assistant/thread/run API the Runner drives.
type Backend interface {
	CreateAssistant(ctx context.Context, spec AssistantSpec) (string, error)
	UpdateAssistantInstructions(ctx context.Context, assistantID, model, instructions string) error
	CreateMessage(ctx context.Context, threadID, content string) error
	CreateRun(ctx context.Context, threadID string, req RunRequest) (*Run, error)
	// CreateThreadAndRun creates a thread holding prompt as its first user
	// message and starts a run on it.
	CreateThreadAndRun(ctx context.Context, req RunRequest, prompt string) (*Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (*Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error)
	// ListMessages returns the thread's messages, newest first.
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
}
