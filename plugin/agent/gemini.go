package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/agenticdata/datachat/store"
)

const submitQueryTool = "submit_query"

// GeminiRunner drives a Gemini model through google.golang.org/genai. The
// cached master instructions become the system prompt and the session's
// persisted messages are replayed as history on every turn.
type GeminiRunner struct {
	client       *genai.Client
	model        string
	appName      string
	instructions string
	store        *store.Store
	logger       *slog.Logger
}

// NewGeminiRunner creates a runner bound to the given model and session store.
// instructions may be empty (startup prompt assembly failed); the agent then
// runs without schema context but the runner still works.
func NewGeminiRunner(ctx context.Context, apiKey, model, appName, instructions string, st *store.Store, logger *slog.Logger) (*GeminiRunner, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}
	return &GeminiRunner{
		client:       client,
		model:        model,
		appName:      appName,
		instructions: instructions,
		store:        st,
		logger:       logger,
	}, nil
}

func (r *GeminiRunner) AppName() string {
	return r.appName
}

// SetInstructions installs the system prompt. Called once after startup
// prompt assembly, before the first request is served.
func (r *GeminiRunner) SetInstructions(instructions string) {
	r.instructions = instructions
}

// Run implements Runner. The returned channel is fed by a goroutine that
// converts the Gemini response stream into Events; it stops on context
// cancellation, so an abandoned consumer does not leak the producer past the
// end of the request.
func (r *GeminiRunner) Run(ctx context.Context, userID, sessionID, message string) (<-chan Event, error) {
	sess, err := r.store.GetSession(ctx, &store.FindSession{
		UID:     &sessionID,
		AppName: &r.appName,
		UserID:  &userID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "look up session")
	}
	if sess == nil {
		return nil, errors.Errorf("unknown session %q for user %q", sessionID, userID)
	}

	history, err := r.store.ListSessionMessages(ctx, &store.FindSessionMessage{SessionID: sess.ID})
	if err != nil {
		return nil, errors.Wrap(err, "load session history")
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	if _, err := r.store.CreateSessionMessage(ctx, &store.CreateSessionMessage{
		SessionID: sess.ID,
		Role:      "user",
		Content:   message,
	}); err != nil {
		r.logger.Warn("failed to persist user message", "session", sessionID, "err", err)
	}

	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        submitQueryTool,
				Description: "Submit a finished BigQuery SQL query answering the user's question.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						SQLQueryArg: {
							Type:        genai.TypeString,
							Description: "The complete BigQuery Standard SQL query.",
						},
					},
					Required: []string{SQLQueryArg},
				},
			}},
		}},
	}
	if r.instructions != "" {
		config.SystemInstruction = genai.NewContentFromText(r.instructions, genai.RoleUser)
	}

	invocationID := uuid.New().String()[:8]
	r.logger.Debug("agent run started",
		"invocation", invocationID,
		"session", sessionID,
		"history", len(history),
	)

	out := make(chan Event)
	go func() {
		defer close(out)

		var transcript strings.Builder
		for resp, err := range r.client.Models.GenerateContentStream(ctx, r.model, contents, config) {
			if err != nil {
				r.logger.Error("generation failed", "invocation", invocationID, "err", err)
				r.send(ctx, out, ErrorEvent{Code: "GENERATION_FAILED", Message: err.Error()})
				return
			}
			ev, ok := toModelEvent(resp)
			if !ok {
				continue
			}
			for _, p := range ev.Parts {
				if p.Text != "" {
					transcript.WriteString(p.Text)
				}
				if sql := p.Call.SQL(); sql != "" {
					transcript.WriteString(sql)
				}
			}
			if !r.send(ctx, out, ev) {
				return
			}
		}

		if transcript.Len() > 0 {
			if _, err := r.store.CreateSessionMessage(context.WithoutCancel(ctx), &store.CreateSessionMessage{
				SessionID: sess.ID,
				Role:      "model",
				Content:   transcript.String(),
			}); err != nil {
				r.logger.Warn("failed to persist model message", "session", sessionID, "err", err)
			}
		}
	}()
	return out, nil
}

func (r *GeminiRunner) send(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// CountTokens reports the model's token count for text. Used by startup
// prompt assembly for its KPI line.
func (r *GeminiRunner) CountTokens(ctx context.Context, text string) (int32, error) {
	resp, err := r.client.Models.CountTokens(ctx, r.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil)
	if err != nil {
		return 0, errors.Wrap(err, "count tokens")
	}
	return resp.TotalTokens, nil
}

// toModelEvent converts one streamed response chunk into a ModelEvent.
// Chunks with no model content yield ok=false.
func toModelEvent(resp *genai.GenerateContentResponse) (ModelEvent, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return ModelEvent{}, false
	}
	content := resp.Candidates[0].Content
	if content == nil || content.Role != string(genai.RoleModel) || len(content.Parts) == 0 {
		return ModelEvent{}, false
	}
	ev := ModelEvent{Parts: make([]Part, 0, len(content.Parts))}
	for _, p := range content.Parts {
		part := Part{Text: p.Text}
		if p.FunctionCall != nil {
			part.Call = &ToolCall{
				Name: p.FunctionCall.Name,
				Args: p.FunctionCall.Args,
			}
		}
		if part.Text == "" && part.Call == nil {
			continue
		}
		ev.Parts = append(ev.Parts, part)
	}
	if len(ev.Parts) == 0 {
		return ModelEvent{}, false
	}
	return ev, true
}

var _ Runner = (*GeminiRunner)(nil)

// String implements fmt.Stringer for logging.
func (r *GeminiRunner) String() string {
	return fmt.Sprintf("gemini:%s", r.model)
}
