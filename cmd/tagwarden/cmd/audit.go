package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tagwarden/tagwarden/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Read the audit log, newest first",
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().String("start", "", "include entries at or after this date (YYYY-MM-DD)")
	auditCmd.Flags().String("end", "", "include entries at or before this date (YYYY-MM-DD)")
	auditCmd.Flags().String("actor", "", "filter by acting user")
	auditCmd.Flags().StringSlice("action", nil, "filter by action type (repeatable)")
	auditCmd.Flags().String("object-type", "", "filter by object type")

	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	filters := audit.Filters{}
	if start, _ := cmd.Flags().GetString("start"); start != "" {
		d, err := time.Parse("2006-01-02", start)
		if err != nil {
			return fmt.Errorf("invalid --start date %q: %w", start, err)
		}
		filters.Start = &d
	}
	if end, _ := cmd.Flags().GetString("end"); end != "" {
		d, err := time.Parse("2006-01-02", end)
		if err != nil {
			return fmt.Errorf("invalid --end date %q: %w", end, err)
		}
		// End of day so a date-only bound includes the whole day.
		d = d.Add(24*time.Hour - time.Second)
		filters.End = &d
	}
	filters.User, _ = cmd.Flags().GetString("actor")
	filters.ActionTypes, _ = cmd.Flags().GetStringSlice("action")
	filters.ObjectType, _ = cmd.Flags().GetString("object-type")

	entries, err := app.audit.Log(app.ctx(), filters)
	if err != nil {
		return err
	}

	for _, e := range entries {
		fmt.Printf("%s  %-12s %-10s %-12s %-30s old=%q new=%q %s\n",
			e.Timestamp.Format(time.RFC3339), e.User, e.ActionType,
			e.ObjectType, e.ObjectName, e.OldValue, e.NewValue, e.Notes)
	}
	return nil
}
