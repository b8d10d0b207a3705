// Package notifier is the fire-and-forget notification collaborator.
// Delivery failures are logged and never block or fail the operation that
// triggered the notification.
package notifier

import "github.com/rs/zerolog/log"

// Template identifiers used by the core.
const (
	TemplateShiftApproved    = "shift_approved"
	TemplateShiftClaimed     = "shift_claimed"
	TemplateShiftCancelled   = "shift_cancelled"
	TemplateEmployeeRejected = "employee_rejected"
	TemplateInvoiceIssued    = "invoice_issued"
	TemplateWeekPaid         = "week_paid"
)

// Notifier sends a templated notification to a user.
type Notifier interface {
	Send(to int64, templateID string, params map[string]string)
}

// LogNotifier records notifications in the structured log instead of
// delivering them; the default until an email provider is wired in.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(to int64, templateID string, params map[string]string) {
	event := log.Info().Int64("to", to).Str("template", templateID)
	for k, v := range params {
		event = event.Str("param_"+k, v)
	}
	event.Msg("Notification sent")
}
