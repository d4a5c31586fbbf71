package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yunwei-afs/datascreen/internal/bridge"
	"github.com/yunwei-afs/datascreen/internal/config"
	"github.com/yunwei-afs/datascreen/pkg/alerts"
	"github.com/yunwei-afs/datascreen/pkg/zabbix"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "datascreen",
	Short: "Tabular data screening and monitoring-alert forwarding",
	Long: `datascreen filters tabular datasets (CSV, XLSX, SQLite) with
column-predicate rules loaded from a JSON or YAML document, and
forwards monitoring alerts to a WeChat Work webhook with optional
voice-call escalation for host-down problems.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and returns the command error, letting main
// map it to an exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.datascreen/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initNotifiers creates alert notifiers from config.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.WeChat.Enabled && cfg.WeChat.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewWeChatNotifier(cfg.WeChat.WebhookURL))
	}

	if cfg.Voice.Enabled && cfg.Voice.AccessKeyID != "" {
		notifiers = append(notifiers, alerts.NewVoiceNotifier(
			cfg.Voice.Endpoint,
			cfg.Voice.AccessKeyID,
			cfg.Voice.AccessKeySecret,
			cfg.Voice.TtsCode,
			cfg.Voice.Numbers,
		))
	}

	return notifiers
}

// initAlarmSource creates the unresolved-alarm source, or nil when
// the monitoring query is not configured.
func initAlarmSource(cfg *config.Config) bridge.AlarmSource {
	if !cfg.Zabbix.Enabled || cfg.Zabbix.URL == "" {
		return nil
	}
	return zabbix.New(cfg.Zabbix.URL, cfg.Zabbix.Username, cfg.Zabbix.Password)
}
