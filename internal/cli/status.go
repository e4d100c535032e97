package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/clawdeck/internal/activity"
	"github.com/openclaw/clawdeck/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🏷️ ClawDeck Version")
		fmt.Printf("Version: %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show deck and backend status",
	RunE: func(cmd *cobra.Command, args []string) error {
		printHeader("📊 ClawDeck Status")
		fmt.Printf("Version: %s\n", version)

		path, err := config.ConfigPath()
		if err == nil {
			if _, statErr := os.Stat(path); statErr == nil {
				fmt.Println("Config:  ✓ Found (" + path + ")")
			} else {
				fmt.Println("Config:  ✗ Not found (defaults in effect)")
			}
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if authToken(cfg) != "" {
			fmt.Println("Auth:    ✓ Token present")
		} else {
			fmt.Println("Auth:    ✗ No token (run 'clawdeck login')")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		client := backendClient(cfg)
		if user, err := client.Me(ctx); err == nil {
			fmt.Printf("Backend: ✓ Reachable (%s, signed in as %s)\n", cfg.Server.BaseURL, user.Email)
		} else {
			fmt.Printf("Backend: ✗ Unreachable (%s): %v\n", cfg.Server.BaseURL, err)
		}

		if mon, err := client.GetMonitorStatus(ctx); err == nil {
			if mon.Enabled {
				last := "never"
				if mon.LastCheck > 0 {
					last = time.UnixMilli(mon.LastCheck).Format(time.RFC822)
				}
				fmt.Printf("Monitor: ✓ Enabled (last check %s, %d processed)\n", last, mon.ProcessedCount)
			} else {
				fmt.Println("Monitor: ✗ Disabled")
			}
		}

		if cfg.Voice.Enabled {
			if cfg.Voice.APIKey != "" {
				fmt.Println("Voice:   ✓ Enabled, API key found")
			} else {
				fmt.Println("Voice:   ✗ Enabled but no API key")
			}
		} else {
			fmt.Println("Voice:   ✗ Disabled")
		}

		fmt.Printf("Agents:  %d configured\n", len(cfg.Agents))
		return nil
	},
}

var monitorEnable bool
var monitorDisable bool

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Show or toggle the backend mailbox monitor",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		client := backendClient(cfg)

		if monitorEnable || monitorDisable {
			mon, err := client.ToggleMonitor(ctx, monitorEnable)
			if err != nil {
				return err
			}
			recordActivity(cfg, activity.KindMonitorToggled, "", fmt.Sprintf("enabled=%v", mon.Enabled))
			fmt.Printf("Monitor enabled: %v\n", mon.Enabled)
			return nil
		}

		mon, err := client.GetMonitorStatus(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Enabled:   %v\n", mon.Enabled)
		if mon.LastCheck > 0 {
			fmt.Printf("LastCheck: %s\n", time.UnixMilli(mon.LastCheck).Format(time.RFC822))
		}
		fmt.Printf("Processed: %d\n", mon.ProcessedCount)
		return nil
	},
}

func init() {
	monitorCmd.Flags().BoolVar(&monitorEnable, "enable", false, "Enable the mailbox monitor")
	monitorCmd.Flags().BoolVar(&monitorDisable, "disable", false, "Disable the mailbox monitor")
	monitorCmd.MarkFlagsMutuallyExclusive("enable", "disable")
}
