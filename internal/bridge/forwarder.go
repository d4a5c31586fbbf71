// Package bridge forwards monitoring alerts to the configured
// notification channels, enriched with the list of alarms that have
// not recovered yet.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/yunwei-afs/datascreen/pkg/alerts"
	"github.com/yunwei-afs/datascreen/pkg/zabbix"
)

// AlarmSource yields the monitoring system's unresolved alarms.
type AlarmSource interface {
	UnresolvedAlarms(ctx context.Context) ([]zabbix.Alarm, error)
}

// Forwarder fans one alert out to every configured notifier.
type Forwarder struct {
	source    AlarmSource
	notifiers []alerts.Notifier
	logger    *slog.Logger
}

// New creates a forwarder. source may be nil when no monitoring query
// is configured; alerts then go out without the unresolved list.
func New(source AlarmSource, notifiers []alerts.Notifier, logger *slog.Logger) *Forwarder {
	return &Forwarder{source: source, notifiers: notifiers, logger: logger}
}

var (
	problemPattern   = regexp.MustCompile(`PROBLEM`)
	agentPingPattern = regexp.MustCompile(`Agent ping`)
	hostLinePattern  = regexp.MustCompile(`>主机：.*`)
)

// Forward builds an alert from the subject and message handed over by
// the monitoring action and delivers it. A failing alarm query or
// notifier is logged and does not stop the remaining notifiers; the
// first failure is still reported to the caller.
func (f *Forwarder) Forward(ctx context.Context, subject, message string) error {
	alert := alerts.Alert{
		ID:      uuid.New().String(),
		Subject: subject,
		Body:    message,
		Host:    downedHost(subject, message),
	}

	if f.source != nil {
		alarms, err := f.source.UnresolvedAlarms(ctx)
		if err != nil {
			f.logger.Error("fetch unresolved alarms", "dispatch", alert.ID, "error", err)
		}
		for _, a := range alarms {
			alert.Unresolved = append(alert.Unresolved,
				fmt.Sprintf(">主机：%s  问题：%s\n", a.Host, a.Description))
		}
	}

	var firstErr error
	for _, n := range f.notifiers {
		if err := n.Send(ctx, alert); err != nil {
			f.logger.Error("notifier failed",
				"dispatch", alert.ID, "notifier", n.Name(), "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", n.Name(), err)
			}
			continue
		}
		f.logger.Info("alert delivered", "dispatch", alert.ID, "notifier", n.Name())
	}
	return firstErr
}

// downedHost extracts the host name from a host-down alert: subject
// matching PROBLEM, message matching Agent ping. Message templates
// wrap the host in angle brackets on a ">主机：" line; both the wrapped
// and the plain form are handled.
func downedHost(subject, message string) string {
	if !problemPattern.MatchString(subject) || !agentPingPattern.MatchString(message) {
		return ""
	}
	line := hostLinePattern.FindString(message)
	if line == "" {
		return ""
	}
	host := strings.TrimPrefix(line, ">主机：")
	if i := strings.IndexByte(host, '<'); i >= 0 {
		if j := strings.IndexByte(host[i+1:], '>'); j >= 0 {
			host = host[i+1 : i+1+j] // wrapped form: <host>
		} else {
			host = host[:i] // plain form with trailing markup
		}
	}
	if fields := strings.Fields(host); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
