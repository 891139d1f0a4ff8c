package notify

import (
	"context"

	"go.uber.org/zap"
)

// AuditRecord mirrors the audit service contract: who did what to which row,
// with the before/after values that matter.
type AuditRecord struct {
	UserID    string         `json:"user_id"`
	Action    string         `json:"action"`
	Table     string         `json:"table"`
	RecordID  string         `json:"record_id"`
	OldValues map[string]any `json:"old_values,omitempty"`
	NewValues map[string]any `json:"new_values,omitempty"`
}

type Auditor interface {
	Record(ctx context.Context, rec AuditRecord)
}

// LogAuditor emits audit records as structured log lines; the audit service
// ingests them from the log pipeline. Persistence is owned elsewhere.
type LogAuditor struct {
	logger *zap.Logger
}

func NewLogAuditor(logger *zap.Logger) *LogAuditor {
	return &LogAuditor{logger: logger}
}

func (a *LogAuditor) Record(_ context.Context, rec AuditRecord) {
	a.logger.Info("audit",
		zap.String("user_id", rec.UserID),
		zap.String("action", rec.Action),
		zap.String("table", rec.Table),
		zap.String("record_id", rec.RecordID),
		zap.Any("old_values", rec.OldValues),
		zap.Any("new_values", rec.NewValues),
	)
}
