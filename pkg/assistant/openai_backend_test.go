package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/muse/pkg/helpers"
	"github.com/go-go-golems/muse/pkg/pricing"
)

type fakeAssistantsAPI struct {
	mu sync.Mutex

	polls       int
	submitted   []map[string]any
	runBody     map[string]any
	modifyBody  map[string]any
	listedOrder string
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
	return m
}

func (f *fakeAssistantsAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/assistants/{assistant}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.modifyBody = decodeBody(t, r)
		f.mu.Unlock()
		writeJSON(t, w, map[string]any{"id": r.PathValue("assistant"), "object": "assistant"})
	})

	mux.HandleFunc("POST /v1/threads/runs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.runBody = decodeBody(t, r)
		f.mu.Unlock()
		writeJSON(t, w, map[string]any{"id": "run_1", "thread_id": "thread_1", "status": "queued"})
	})

	mux.HandleFunc("GET /v1/threads/{thread}/runs/{run}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.polls++
		polls := f.polls
		f.mu.Unlock()

		if polls == 1 {
			writeJSON(t, w, map[string]any{
				"id":        r.PathValue("run"),
				"thread_id": r.PathValue("thread"),
				"status":    "requires_action",
				"required_action": map[string]any{
					"type": "submit_tool_outputs",
					"submit_tool_outputs": map[string]any{
						"tool_calls": []map[string]any{
							{
								"id":   "call_1",
								"type": "function",
								"function": map[string]any{
									"name":      "creative_video_creator",
									"arguments": videoArgs,
								},
							},
						},
					},
				},
			})
			return
		}
		writeJSON(t, w, map[string]any{
			"id":        r.PathValue("run"),
			"thread_id": r.PathValue("thread"),
			"status":    "completed",
			"usage":     map[string]any{"prompt_tokens": 1000, "completion_tokens": 500, "total_tokens": 1500},
		})
	})

	mux.HandleFunc("POST /v1/threads/{thread}/runs/{run}/submit_tool_outputs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.submitted = append(f.submitted, decodeBody(t, r))
		f.mu.Unlock()
		writeJSON(t, w, map[string]any{"id": r.PathValue("run"), "thread_id": r.PathValue("thread"), "status": "queued"})
	})

	mux.HandleFunc("GET /v1/threads/{thread}/messages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.listedOrder = r.URL.Query().Get("order")
		f.mu.Unlock()
		writeJSON(t, w, map[string]any{
			"object": "list",
			"data": []map[string]any{
				{
					"id":   "msg_2",
					"role": "assistant",
					"content": []map[string]any{
						{"type": "text", "text": map[string]any{"value": "Your reel is not available.", "annotations": []any{}}},
					},
				},
				{
					"id":   "msg_1",
					"role": "user",
					"content": []map[string]any{
						{"type": "text", "text": map[string]any{"value": "make a video", "annotations": []any{}}},
					},
				},
			},
		})
	})

	mux.HandleFunc("POST /v1/threads/{thread}/messages", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"No thread found","type":"invalid_request_error"}}`))
	})

	return mux
}

func TestOpenAIBackendAsk(t *testing.T) {
	api := &fakeAssistantsAPI{}
	server := httptest.NewServer(api.handler(t))
	defer server.Close()

	backend := NewOpenAIBackend(NewOpenAIClient("sk-test", server.URL+"/v1"))
	r := NewRunner(backend, pricing.DefaultTable(), nil,
		WithDefaultAssistantID("asst_1"),
		WithPollInterval(time.Millisecond),
	)

	res, err := r.Ask(context.Background(), Request{
		Model:          "gpt-4o",
		Prompt:         "make a video",
		Instructions:   "you make videos",
		ResponseFormat: ResponseFormatJSONObject,
	})
	require.NoError(t, err)

	assert.Equal(t, "Your reel is not available.", res.Reply)
	assert.Equal(t, "0.0125", res.Session.Cost.String())
	assert.Equal(t, "thread_1", res.Session.ThreadID)

	api.mu.Lock()
	defer api.mu.Unlock()

	assert.Equal(t, "you make videos", api.modifyBody["instructions"])
	assert.Equal(t, "gpt-4o", api.modifyBody["model"])

	assert.Equal(t, "asst_1", api.runBody["assistant_id"])
	assert.Equal(t, map[string]any{"type": "json_object"}, api.runBody["response_format"])
	thread := api.runBody["thread"].(map[string]any)
	messages := thread["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "make a video", messages[0].(map[string]any)["content"])
	runTools := api.runBody["tools"].([]any)
	require.Len(t, runTools, 1)
	fn := runTools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "creative_video_creator", fn["name"])
	assert.Equal(t, "object", fn["parameters"].(map[string]any)["type"])

	require.Len(t, api.submitted, 1)
	outputs := api.submitted[0]["tool_outputs"].([]any)
	require.Len(t, outputs, 1)
	assert.Equal(t, "call_1", outputs[0].(map[string]any)["tool_call_id"])
	assert.Equal(t, `"not available"`, outputs[0].(map[string]any)["output"])

	assert.Equal(t, "desc", api.listedOrder)
}

func TestOpenAIBackendUpstreamError(t *testing.T) {
	api := &fakeAssistantsAPI{}
	server := httptest.NewServer(api.handler(t))
	defer server.Close()

	backend := NewOpenAIBackend(NewOpenAIClient("sk-test", server.URL+"/v1"))
	err := backend.CreateMessage(context.Background(), "thread_x", "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, helpers.ErrUpstream))

	var upstream *helpers.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusNotFound, upstream.StatusCode)
	assert.Equal(t, "openai", upstream.Service)
	assert.Contains(t, upstream.Body, "No thread found")
}
