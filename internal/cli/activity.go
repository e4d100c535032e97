package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/clawdeck/internal/activity"
	"github.com/openclaw/clawdeck/internal/config"
)

var (
	activityKind  string
	activityLimit int
	activityPrune time.Duration
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the local action history",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dir, err := config.StateDir(cfg)
		if err != nil {
			return err
		}
		log, err := activity.Open(filepath.Join(dir, "activity.db"))
		if err != nil {
			return err
		}
		defer log.Close()

		if activityPrune > 0 {
			n, err := log.Prune(time.Now().Add(-activityPrune))
			if err != nil {
				return err
			}
			fmt.Printf("Pruned %d entries older than %s\n", n, activityPrune)
			return nil
		}

		var entries []activity.Entry
		if activityKind != "" {
			entries, err = log.ByKind(activityKind, activityLimit)
		} else {
			entries, err = log.Recent(activityLimit)
		}
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No activity recorded")
			return nil
		}
		for _, e := range entries {
			line := fmt.Sprintf("%s  %-16s", e.CreatedAt.Local().Format("Jan 02 15:04"), e.Kind)
			if e.DraftID > 0 {
				line += fmt.Sprintf("  draft=%d", e.DraftID)
			}
			if e.AgentID != "" {
				line += "  agent=" + e.AgentID
			}
			if e.Detail != "" {
				line += "  " + e.Detail
			}
			fmt.Println(line)
		}
		return nil
	},
}

// recordActivity appends one entry to the local history, silently skipping
// when the database is unavailable.
func recordActivity(cfg *config.Config, kind, agentID, detail string) {
	dir, err := config.StateDir(cfg)
	if err != nil {
		return
	}
	log, err := activity.Open(filepath.Join(dir, "activity.db"))
	if err != nil {
		return
	}
	defer log.Close()
	log.Record(kind, 0, agentID, detail)
}

func init() {
	activityCmd.Flags().StringVar(&activityKind, "kind", "", "Filter by entry kind (e.g. draft_approved)")
	activityCmd.Flags().IntVar(&activityLimit, "limit", 50, "Maximum entries to show")
	activityCmd.Flags().DurationVar(&activityPrune, "prune", 0, "Delete entries older than this duration instead of listing")
}
