package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/tenant-admin/internal/core/events"
	"github.com/frahmantamala/tenant-admin/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Audit event commands",
	Long:  `Inspect audit event types and publish a sample event through the audit logger`,
}

var listEventsCmd = &cobra.Command{
	Use:   "types",
	Short: "List the audit event types",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range events.AuditTypes {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
	},
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a sample audit event",
	Long:  `Publish a sample event to check the audit log output of the current logging settings`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventType := args[0]
		if !events.IsAuditType(eventType) {
			return fmt.Errorf("unknown event type %q, see `event types`", eventType)
		}

		log := logger.LoggerWrapper()
		bus := events.NewEventBus(log)
		bus.Subscribe(events.Wildcard, events.AuditLogger(log))

		evt := events.NewEvent(eventType, map[string]interface{}{
			"message": eventData,
			"source":  "cli",
		})
		if err := bus.PublishSync(cmd.Context(), evt); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}
		log.Info("sample event published", "event_type", eventType, "event_id", evt.ID)
		return nil
	},
}

var eventData string

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "sample audit event", "Event data message")

	eventCmd.AddCommand(listEventsCmd)
	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
