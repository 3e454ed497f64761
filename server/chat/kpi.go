package chat

import "log/slog"

// KPI field names recorded per request.
const (
	KPIUserID             = "user_id"
	KPISessionID          = "session_id"
	KPIQuestion           = "question"
	KPIRoundTrips         = "llm_round_trips"
	KPIGeneratedSQL       = "generated_sql"
	KPIAgentError         = "agent_error"
	KPIServerError        = "server_error"
	KPIClarificationAsked = "clarification_asked"
)

var kpiFields = []string{
	KPIUserID, KPISessionID, KPIQuestion, KPIRoundTrips,
	KPIGeneratedSQL, KPIAgentError, KPIServerError, KPIClarificationAsked,
}

// KPIRecord accumulates per-request telemetry. Every field reads as "N/A"
// until set. Records live for one request: logged at completion, then
// discarded, never persisted.
type KPIRecord struct {
	values map[string]string
}

// NewKPIRecord returns an empty record.
func NewKPIRecord() *KPIRecord {
	return &KPIRecord{values: make(map[string]string)}
}

// Set stores a field value.
func (k *KPIRecord) Set(field, value string) {
	k.values[field] = value
}

// Get returns a field value, defaulting to "N/A".
func (k *KPIRecord) Get(field string) string {
	if v, ok := k.values[field]; ok {
		return v
	}
	return "N/A"
}

// Log emits every known field in a stable order.
func (k *KPIRecord) Log(log *slog.Logger) {
	attrs := make([]any, 0, len(kpiFields)*2)
	for _, f := range kpiFields {
		attrs = append(attrs, f, k.Get(f))
	}
	log.Info("chat KPIs", attrs...)
}
