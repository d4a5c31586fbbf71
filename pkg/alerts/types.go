package alerts

import "context"

// Alert is one monitoring notification on its way out.
type Alert struct {
	// ID correlates log lines across notifiers for one dispatch.
	ID string

	// Subject and Body come straight from the monitoring system's
	// action, e.g. "PROBLEM: ..." and the expanded message template.
	Subject string
	Body    string

	// Unresolved holds preformatted lines describing alarms that have
	// not recovered yet, appended to chat messages as a list section.
	Unresolved []string

	// Host names the machine confirmed down, when the alert indicates
	// a host-down condition. Voice notifiers only act when it is set.
	Host string
}

// Notifier delivers alerts to an external channel.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers an alert. Implementations must be safe for
	// concurrent use.
	Send(ctx context.Context, alert Alert) error
}
