package jobs

import (
	"log/slog"

	"github.com/fundflow/fundflow/internal/audit"
)

const (
	// QueueDefault is the fallback queue name for background jobs.
	QueueDefault = "default"
	// QueueAudit carries audit:record tasks unless configured otherwise.
	QueueAudit = "audit"
)

// AuditHandler registers the audit persistence handler.
func AuditHandler(store audit.Inserter, observer audit.Observer, logger *slog.Logger) TaskHandler {
	return TaskHandler{
		Type:    audit.TaskRecord,
		Handler: audit.NewRecordHandler(store, observer, logger),
	}
}
