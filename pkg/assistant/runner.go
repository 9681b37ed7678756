// Package assistant drives an assistant/thread/run backend: it asks a
// question, answers the tool calls the run requests and returns the final
// reply together with token and cost accounting.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/muse/pkg/events"
	"github.com/go-go-golems/muse/pkg/helpers"
	"github.com/go-go-golems/muse/pkg/metrics"
	"github.com/go-go-golems/muse/pkg/pricing"
	"github.com/go-go-golems/muse/pkg/tools"
)

const DefaultPollInterval = time.Second

type Request struct {
	Model  string
	Prompt string
	// Instructions, when set, update the assistant (or create one when no
	// assistant id is known).
	Instructions string
	// Tools declared to the run. nil selects the runner's default tools.
	Tools          []tools.Definition
	ThreadID       string
	AssistantID    string
	AssistantName  string
	ResponseFormat ResponseFormat
}

type Result struct {
	Reply   string
	Session *Session
	// Outputs holds every tool output produced while polling, in call order
	// within each requires_action round.
	Outputs []any
}

type Runner struct {
	backend  Backend
	pricing  *pricing.Table
	registry *tools.Registry

	defaultAssistantID string
	defaultTools       []tools.Definition
	pollInterval       time.Duration
	pollTimeout        time.Duration
	maxPolls           int
	sleep              helpers.Sleeper
	now                func() time.Time
	sink               events.EventSink
	metrics            *metrics.Provider
}

type RunnerOption func(*Runner)

// WithDefaultAssistantID sets the assistant used when a request names none.
func WithDefaultAssistantID(id string) RunnerOption {
	return func(r *Runner) {
		r.defaultAssistantID = id
	}
}

func WithDefaultTools(defs []tools.Definition) RunnerOption {
	return func(r *Runner) {
		r.defaultTools = defs
	}
}

func WithPollInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithPollTimeout bounds the wall-clock time spent polling one run. Zero
// polls until the run completes.
func WithPollTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.pollTimeout = d
	}
}

// WithMaxPolls bounds the number of status fetches for one run. Zero polls
// until the run completes.
func WithMaxPolls(n int) RunnerOption {
	return func(r *Runner) {
		r.maxPolls = n
	}
}

func WithSleeper(s helpers.Sleeper) RunnerOption {
	return func(r *Runner) {
		r.sleep = s
	}
}

func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

func WithEventSink(sink events.EventSink) RunnerOption {
	return func(r *Runner) {
		r.sink = sink
	}
}

func WithMetrics(m *metrics.Provider) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

func NewRunner(backend Backend, table *pricing.Table, registry *tools.Registry, options ...RunnerOption) *Runner {
	r := &Runner{
		backend:      backend,
		pricing:      table,
		registry:     registry,
		defaultTools: tools.DefaultDefinitions(),
		pollInterval: DefaultPollInterval,
		sleep:        helpers.Sleep,
		now:          time.Now,
		sink:         events.NewNullSink(),
	}
	for _, o := range options {
		o(r)
	}
	if r.registry == nil {
		r.registry = tools.NewDefaultRegistry()
	}
	if r.pricing == nil {
		r.pricing = pricing.DefaultTable()
	}
	return r
}

// Ask runs one question against the assistant and blocks until the run
// completes, answering tool calls along the way.
func (r *Runner) Ask(ctx context.Context, req Request) (*Result, error) {
	if !r.pricing.Has(req.Model) {
		return nil, errors.Wrapf(ErrInvalidModel, "model %q", req.Model)
	}

	toolDefs := req.Tools
	if toolDefs == nil {
		toolDefs = r.defaultTools
	}

	session := newSession()
	logger := log.With().Str("session_id", session.ID).Str("model", req.Model).Logger()

	assistantID := req.AssistantID
	if assistantID == "" {
		assistantID = r.defaultAssistantID
	}

	if req.Instructions != "" {
		if assistantID != "" {
			if err := r.backend.UpdateAssistantInstructions(ctx, assistantID, req.Model, req.Instructions); err != nil {
				return nil, errors.Wrapf(err, "failed to update assistant %s", assistantID)
			}
			logger.Debug().Str("assistant_id", assistantID).Msg("updated assistant instructions")
		} else {
			if req.Model == "" {
				return nil, ErrMissingModel
			}
			name := req.AssistantName
			if name == "" {
				name = fmt.Sprintf("assistant-%d", r.now().Unix())
			}
			id, err := r.backend.CreateAssistant(ctx, AssistantSpec{
				Model:        req.Model,
				Name:         name,
				Instructions: req.Instructions,
				Tools:        toolDefs,
			})
			if err != nil {
				return nil, errors.Wrap(err, "failed to create assistant")
			}
			assistantID = id
			logger.Debug().Str("assistant_id", assistantID).Str("name", name).Msg("created assistant")
		}
	}

	if assistantID == "" {
		return nil, ErrMissingAssistant
	}

	runReq := RunRequest{
		AssistantID:    assistantID,
		Tools:          toolDefs,
		ResponseFormat: req.ResponseFormat,
	}

	var run *Run
	var err error
	if req.ThreadID != "" {
		if req.Prompt != "" {
			if err := r.backend.CreateMessage(ctx, req.ThreadID, req.Prompt); err != nil {
				return nil, errors.Wrapf(err, "failed to add message to thread %s", req.ThreadID)
			}
		}
		run, err = r.backend.CreateRun(ctx, req.ThreadID, runReq)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create run on thread %s", req.ThreadID)
		}
	} else {
		if req.Model == "" || req.Prompt == "" {
			return nil, ErrMissingPromptOrModel
		}
		runReq.Model = req.Model
		run, err = r.backend.CreateThreadAndRun(ctx, runReq, req.Prompt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create thread and run")
		}
	}

	logger = logger.With().Str("thread_id", run.ThreadID).Str("run_id", run.ID).Logger()
	logger.Debug().Str("status", string(run.Status)).Msg("run created")
	r.publish(session, events.EventTypeRunCreated, "", map[string]any{
		"run_id":       run.ID,
		"thread_id":    run.ThreadID,
		"assistant_id": assistantID,
	})

	run, outputs, err := r.poll(ctx, logger, session, run)
	if err != nil {
		return nil, err
	}

	messages, err := r.backend.ListMessages(ctx, run.ThreadID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list messages of thread %s", run.ThreadID)
	}
	reply, ok := firstText(messages)
	if !ok {
		return nil, errors.Wrapf(ErrEmptyReply, "thread %s", run.ThreadID)
	}

	cost, err := r.pricing.Estimate(req.Model, run.Usage.PromptTokens, run.Usage.CompletionTokens)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to estimate cost of run %s", run.ID)
	}

	session.ThreadID = run.ThreadID
	session.add(cost, run.Usage.PromptTokens, run.Usage.CompletionTokens)

	r.metrics.IncrementRuns(string(run.Status))
	r.metrics.AddCost(req.Model, cost)
	r.publish(session, events.EventTypeRunCompleted, "", map[string]any{
		"run_id":        run.ID,
		"thread_id":     run.ThreadID,
		"cost":          cost.String(),
		"input_tokens":  run.Usage.PromptTokens,
		"output_tokens": run.Usage.CompletionTokens,
	})
	logger.Info().
		Str("cost", cost.String()).
		Int("input_tokens", run.Usage.PromptTokens).
		Int("output_tokens", run.Usage.CompletionTokens).
		Int("tool_outputs", len(outputs)).
		Msg("run completed")

	return &Result{
		Reply:   reply,
		Session: session,
		Outputs: outputs,
	}, nil
}

// poll waits for run to complete, answering each requires_action round with
// a single tool output submission.
func (r *Runner) poll(ctx context.Context, logger zerolog.Logger, session *Session, run *Run) (*Run, []any, error) {
	pollCtx := ctx
	if r.pollTimeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, r.pollTimeout)
		defer cancel()
	}

	timedOut := func(err error) error {
		if ctx.Err() == nil && pollCtx.Err() != nil {
			return errors.Wrapf(ErrPollTimeout, "run %s after %s", run.ID, r.pollTimeout)
		}
		return err
	}

	var outputs []any
	polls := 0
	for run.Status != RunStatusCompleted {
		if run.Status.IsTerminalFailure() {
			r.metrics.IncrementRuns(string(run.Status))
			return nil, nil, &RunFailedError{RunID: run.ID, Status: run.Status, Message: run.LastError}
		}
		if r.maxPolls > 0 && polls >= r.maxPolls {
			return nil, nil, errors.Wrapf(ErrPollTimeout, "run %s still %s after %d polls", run.ID, run.Status, polls)
		}

		if err := r.sleep(pollCtx, r.pollInterval); err != nil {
			return nil, nil, timedOut(errors.Wrap(err, "interrupted while waiting for run"))
		}
		polls++

		next, err := r.backend.RetrieveRun(pollCtx, run.ThreadID, run.ID)
		if err != nil {
			return nil, nil, timedOut(errors.Wrapf(err, "failed to retrieve run %s", run.ID))
		}
		run = next
		r.metrics.IncrementRunPolls()
		logger.Debug().Str("status", string(run.Status)).Int("poll", polls).Msg("polled run")
		r.publish(session, events.EventTypeRunStatus, "", map[string]any{
			"run_id": run.ID,
			"status": string(run.Status),
			"poll":   polls,
		})

		if run.Status != RunStatusRequiresAction || len(run.ToolCalls) == 0 {
			continue
		}

		produced, submissions, err := r.resolveToolCalls(pollCtx, session, run.ToolCalls)
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, produced...)

		logger.Debug().Int("tool_outputs", len(submissions)).Msg("submitting tool outputs")
		submitted, err := r.backend.SubmitToolOutputs(pollCtx, run.ThreadID, run.ID, submissions)
		if err != nil {
			return nil, nil, timedOut(errors.Wrapf(err, "failed to submit tool outputs for run %s", run.ID))
		}
		run = submitted
	}

	return run, outputs, nil
}

// resolveToolCalls dispatches every call concurrently and joins them. The
// returned slices are in call order.
func (r *Runner) resolveToolCalls(ctx context.Context, session *Session, calls []ToolCall) ([]any, []ToolOutput, error) {
	produced := make([]any, len(calls))
	submissions := make([]ToolOutput, len(calls))

	ctx = events.WithEventSinks(ctx, r.sink)
	eg, ctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		eg.Go(func() error {
			r.publish(session, events.EventTypeToolCall, "", map[string]any{
				"call_id":   call.ID,
				"name":      call.Name,
				"arguments": call.Arguments,
			})

			out, err := r.registry.Dispatch(ctx, call.Name, call.Arguments)
			if err != nil {
				return errors.Wrapf(err, "tool call %s", call.ID)
			}
			encoded, err := json.Marshal(out)
			if err != nil {
				return errors.Wrapf(err, "failed to encode output of tool call %s", call.ID)
			}

			produced[i] = out
			submissions[i] = ToolOutput{ToolCallID: call.ID, Output: string(encoded)}

			r.metrics.IncrementToolCalls(call.Name)
			r.publish(session, events.EventTypeToolResult, "", map[string]any{
				"call_id": call.ID,
				"name":    call.Name,
				"output":  string(encoded),
			})
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	return produced, submissions, nil
}

func (r *Runner) publish(session *Session, type_ events.EventType, message string, data map[string]any) {
	events.Publish(r.sink, events.NewEvent(type_, message, data).WithSession(session.ID))
}

func firstText(messages []Message) (string, bool) {
	if len(messages) == 0 || len(messages[0].Texts) == 0 {
		return "", false
	}
	return messages[0].Texts[0], true
}
