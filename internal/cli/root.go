package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/openclaw/clawdeck/internal/cli.version=1.2.3"
	version = "1.4.0"
	logo    = "\n" +
		"   ____ _                 ____            _\n" +
		"  / ___| | __ ___      __|  _ \\  ___  ___| | __\n" +
		" | |   | |/ _` \\ \\ /\\ / /| | | |/ _ \\/ __| |/ /\n" +
		" | |___| | (_| |\\ V  V / | |_| |  __/ (__|   <\n" +
		"  \\____|_|\\__,_| \\_/\\_/  |____/ \\___|\\___|_|\\_\\\n"
)

var rootCmd = &cobra.Command{
	Use:   "clawdeck",
	Short: "ClawDeck - Agent Operations Deck",
	Long:  color.CyanString(logo) + "\nA terminal deck for reviewing agent email drafts, chatting with agents, and hearing their replies.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(voiceCmd)
	rootCmd.AddCommand(monitorCmd)
}
