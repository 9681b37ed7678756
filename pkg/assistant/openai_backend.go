package assistant

import (
	"context"
	stderrors "errors"

	"github.com/pkg/errors"
	go_openai "github.com/sashabaranov/go-openai"

	"github.com/go-go-golems/muse/pkg/helpers"
	"github.com/go-go-golems/muse/pkg/tools"
)

// NewOpenAIClient builds a go-openai client. An empty baseURL keeps the
// library default.
func NewOpenAIClient(apiKey, baseURL string) *go_openai.Client {
	config := go_openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return go_openai.NewClientWithConfig(config)
}

// OpenAIBackend implements Backend on top of the OpenAI Assistants API.
type OpenAIBackend struct {
	client *go_openai.Client
}

var _ Backend = (*OpenAIBackend)(nil)

func NewOpenAIBackend(client *go_openai.Client) *OpenAIBackend {
	return &OpenAIBackend{client: client}
}

func (o *OpenAIBackend) CreateAssistant(ctx context.Context, spec AssistantSpec) (string, error) {
	req := go_openai.AssistantRequest{
		Model:        spec.Model,
		Name:         helpers.NonEmpty(spec.Name),
		Instructions: helpers.NonEmpty(spec.Instructions),
		Tools:        toAssistantTools(spec.Tools),
	}

	a, err := o.client.CreateAssistant(ctx, req)
	if err != nil {
		return "", wrapAPIError(err)
	}
	return a.ID, nil
}

func (o *OpenAIBackend) UpdateAssistantInstructions(ctx context.Context, assistantID, model, instructions string) error {
	_, err := o.client.ModifyAssistant(ctx, assistantID, go_openai.AssistantRequest{
		Model:        model,
		Instructions: helpers.Pointer(instructions),
	})
	return wrapAPIError(err)
}

func (o *OpenAIBackend) CreateMessage(ctx context.Context, threadID, content string) error {
	_, err := o.client.CreateMessage(ctx, threadID, go_openai.MessageRequest{
		Role:    string(go_openai.ThreadMessageRoleUser),
		Content: content,
	})
	return wrapAPIError(err)
}

func (o *OpenAIBackend) CreateRun(ctx context.Context, threadID string, req RunRequest) (*Run, error) {
	run, err := o.client.CreateRun(ctx, threadID, toRunRequest(req))
	if err != nil {
		return nil, wrapAPIError(err)
	}
	return fromRun(run), nil
}

func (o *OpenAIBackend) CreateThreadAndRun(ctx context.Context, req RunRequest, prompt string) (*Run, error) {
	run, err := o.client.CreateThreadAndRun(ctx, go_openai.CreateThreadAndRunRequest{
		RunRequest: toRunRequest(req),
		Thread: go_openai.ThreadRequest{
			Messages: []go_openai.ThreadMessage{
				{
					Role:    go_openai.ThreadMessageRoleUser,
					Content: prompt,
				},
			},
		},
	})
	if err != nil {
		return nil, wrapAPIError(err)
	}
	return fromRun(run), nil
}

func (o *OpenAIBackend) RetrieveRun(ctx context.Context, threadID, runID string) (*Run, error) {
	run, err := o.client.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return nil, wrapAPIError(err)
	}
	return fromRun(run), nil
}

func (o *OpenAIBackend) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
	req := go_openai.SubmitToolOutputsRequest{
		ToolOutputs: make([]go_openai.ToolOutput, 0, len(outputs)),
	}
	for _, out := range outputs {
		req.ToolOutputs = append(req.ToolOutputs, go_openai.ToolOutput{
			ToolCallID: out.ToolCallID,
			Output:     out.Output,
		})
	}

	run, err := o.client.SubmitToolOutputs(ctx, threadID, runID, req)
	if err != nil {
		return nil, wrapAPIError(err)
	}
	return fromRun(run), nil
}

func (o *OpenAIBackend) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	list, err := o.client.ListMessage(ctx, threadID, nil, helpers.Pointer("desc"), nil, nil, nil)
	if err != nil {
		return nil, wrapAPIError(err)
	}

	ret := make([]Message, 0, len(list.Messages))
	for _, m := range list.Messages {
		msg := Message{ID: m.ID, Role: m.Role}
		for _, c := range m.Content {
			if c.Type == "text" && c.Text != nil {
				msg.Texts = append(msg.Texts, c.Text.Value)
			}
		}
		ret = append(ret, msg)
	}
	return ret, nil
}

func toFunctionDefinition(def tools.Definition) *go_openai.FunctionDefinition {
	return &go_openai.FunctionDefinition{
		Name:        def.Name,
		Description: def.Description,
		Parameters:  def.Parameters,
	}
}

func toAssistantTools(defs []tools.Definition) []go_openai.AssistantTool {
	ret := make([]go_openai.AssistantTool, 0, len(defs))
	for _, def := range defs {
		ret = append(ret, go_openai.AssistantTool{
			Type:     go_openai.AssistantToolTypeFunction,
			Function: toFunctionDefinition(def),
		})
	}
	return ret
}

func toRunRequest(req RunRequest) go_openai.RunRequest {
	ret := go_openai.RunRequest{
		AssistantID: req.AssistantID,
		Model:       req.Model,
	}
	for _, def := range req.Tools {
		ret.Tools = append(ret.Tools, go_openai.Tool{
			Type:     go_openai.ToolTypeFunction,
			Function: toFunctionDefinition(def),
		})
	}

	switch req.ResponseFormat {
	case "":
	case ResponseFormatAuto:
		ret.ResponseFormat = string(ResponseFormatAuto)
	default:
		ret.ResponseFormat = go_openai.ReponseFormat{Type: string(req.ResponseFormat)}
	}
	return ret
}

func fromRun(run go_openai.Run) *Run {
	ret := &Run{
		ID:       run.ID,
		ThreadID: run.ThreadID,
		Status:   RunStatus(run.Status),
		Usage: Usage{
			PromptTokens:     run.Usage.PromptTokens,
			CompletionTokens: run.Usage.CompletionTokens,
		},
	}
	if run.LastError != nil {
		ret.LastError = run.LastError.Message
	}
	if run.RequiredAction != nil && run.RequiredAction.SubmitToolOutputs != nil {
		for _, tc := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
			ret.ToolCalls = append(ret.ToolCalls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}
	return ret
}

// wrapAPIError turns HTTP level failures into helpers.UpstreamError so that
// callers can match every backend failure with helpers.ErrUpstream.
func wrapAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *go_openai.APIError
	if stderrors.As(err, &apiErr) {
		return &helpers.UpstreamError{
			Service:    "openai",
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
		}
	}
	var reqErr *go_openai.RequestError
	if stderrors.As(err, &reqErr) {
		return &helpers.UpstreamError{
			Service:    "openai",
			StatusCode: reqErr.HTTPStatusCode,
			Body:       string(reqErr.Body),
		}
	}
	return errors.Wrap(err, "openai request failed")
}
