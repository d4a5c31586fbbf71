package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yunwei-afs/datascreen/internal/bridge"
)

var notifyCmd = &cobra.Command{
	Use:   "notify SUBJECT MESSAGE",
	Short: "Forward a monitoring alert to the configured channels",
	Long: `Send an alert to the configured WeChat Work webhook, appending the
monitoring system's unresolved-alarm list. A PROBLEM alert reporting a
failed agent ping additionally places voice calls to the configured
numbers.`,
	Args: cobra.ExactArgs(2),
	RunE: runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}

func runNotify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	notifiers := initNotifiers(cfg)
	if len(notifiers) == 0 {
		return fmt.Errorf("no notification channels configured")
	}

	f := bridge.New(initAlarmSource(cfg), notifiers, logger)
	return f.Forward(cmd.Context(), args[0], args[1])
}
