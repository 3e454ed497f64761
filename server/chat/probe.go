package chat

import (
	"context"
	"strings"

	"github.com/agenticdata/datachat/plugin/agent"
	"github.com/agenticdata/datachat/server/logger"
)

// AgentError is an error event surfaced verbatim by the test endpoint.
type AgentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ProbeResult is the outcome of a single-shot test question: exactly one of
// GeneratedSQL, Clarification, or AgentError is meaningful.
type ProbeResult struct {
	GeneratedSQL  string
	Clarification string
	AgentError    *AgentError
}

// Probe submits a question on a throwaway session and reports what the agent
// produced, stopping as soon as SQL or an error appears. Used by the test
// endpoint; no KPI record and no message assembly.
func (o *Orchestrator) Probe(ctx context.Context, userID, sessionID, question string) (*ProbeResult, error) {
	events, err := o.runner.Run(ctx, userID, sessionID, question)
	if err != nil {
		o.logs.Operational.Error("error in test query", "user", logger.Sanitize(userID))
		o.logs.Restricted.Error("test query run failed", "user", userID, "err", err)
		return nil, ErrInternal
	}

	result := &ProbeResult{}
	var text strings.Builder
	for ev := range events {
		switch e := ev.(type) {
		case agent.ErrorEvent:
			result.AgentError = &AgentError{Code: e.Code, Message: e.Message}
		case agent.ModelEvent:
			for _, part := range e.Parts {
				if part.Text != "" {
					text.WriteString(part.Text)
				}
				if sql := part.Call.SQL(); sql != "" {
					result.GeneratedSQL = sql
				}
			}
		}
		if result.GeneratedSQL != "" || result.AgentError != nil {
			break
		}
	}

	if result.GeneratedSQL == "" && result.AgentError == nil {
		result.Clarification = strings.TrimSpace(text.String())
	}
	return result, nil
}
