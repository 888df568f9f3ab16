// filepath: internal/audit/logger_auditor.go
package audit

import (
	"context"

	"simpatch/internal/patch"

	"github.com/sirupsen/logrus"
)

// Ensure LoggerAuditor implements patch.Auditor
var _ patch.Auditor = (*LoggerAuditor)(nil)

// LoggerAuditor writes audit events to the application log.
type LoggerAuditor struct {
	enabled bool
	logger  *logrus.Logger
}

// NewLoggerAuditor creates a new instance of LoggerAuditor.
func NewLoggerAuditor(enabled bool, logger *logrus.Logger) *LoggerAuditor {
	return &LoggerAuditor{enabled: enabled, logger: logger}
}

// Log records an event using logrus if auditing is enabled.
func (a *LoggerAuditor) Log(ctx context.Context, action string, actor string, resource string, details map[string]interface{}) {
	if !a.enabled || a.logger == nil {
		return
	}

	fields := logrus.Fields{
		"audit_action":   action,
		"audit_actor":    actor,
		"audit_resource": resource,
	}
	for k, v := range details {
		fields["detail."+k] = v
	}

	// fixed message, grep for it
	a.logger.WithContext(ctx).WithFields(fields).Info("AUDIT EVENT")
}
