package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/openclaw/clawdeck/internal/activity"
	"github.com/openclaw/clawdeck/internal/bus"
	"github.com/openclaw/clawdeck/internal/config"
	"github.com/openclaw/clawdeck/internal/dashboard"
	"github.com/openclaw/clawdeck/internal/gateway"
	"github.com/openclaw/clawdeck/internal/mailstats"
	"github.com/openclaw/clawdeck/internal/state"
	"github.com/openclaw/clawdeck/internal/tui"
	"github.com/openclaw/clawdeck/internal/voice"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"deck"},
	Short:   "Open the interactive deck",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return runDashboard(cmd.Context(), cfg)
	},
}

func runDashboard(ctx context.Context, cfg *config.Config) error {
	stateDir, err := config.StateDir(cfg)
	if err != nil {
		return err
	}
	prefs := state.New(stateDir, state.DefaultPreferences())
	prefs.Load()
	defer prefs.Flush()

	b := bus.New()
	client := backendClient(cfg)

	var actLog *activity.Log
	if log, err := activity.Open(filepath.Join(stateDir, "activity.db")); err != nil {
		slog.Warn("activity log unavailable", "error", err)
	} else {
		actLog = log
		actLog.Attach(b)
		defer actLog.Close()
	}

	confirm := tui.NewDeferredConfirmer()
	toaster := tui.NewToaster()

	gw := gateway.NewManager(cfg.Gateway, b)
	defer gw.DisconnectAll()

	var voiceCtrl *voice.Controller
	var voiceSink dashboard.VoiceSink
	if cfg.Voice.Enabled && cfg.Voice.APIKey != "" {
		voiceCtrl = newVoiceController(cfg, b)
		voiceCtrl.SetAutoPlay(prefs.Get().AutoPlayEnabled)
		voiceCtrl.SetSpeed(prefs.Get().PlaybackSpeed)
		if agent := prefs.Get().ActiveAgentID; agent != "" {
			voiceCtrl.SwitchAgent(agent)
		}
		voiceSink = voiceCtrl
		defer voiceCtrl.Drain()
	}

	queue := dashboard.NewQueuePanel(client, prefs, b, confirm, toaster, actLog)
	chat := dashboard.NewChatPanel(gw, prefs, b, voiceSink)

	selector := dashboard.NewAgentSelector(cfg, prefs, b)
	poller := mailstats.NewPoller(cfg, selector.ApplyStats, selector.ApplyFailure)
	selector.SetPoller(poller)
	selector.Mount(ctx)
	defer selector.Unmount()

	tabs := dashboard.NewTabs(prefs, "queue")
	tabs.Register(queue)
	tabs.Register(chat)

	token := authToken(cfg)
	if cfg.Gateway.AuthToken != "" {
		token = cfg.Gateway.AuthToken
	}
	gw.ConnectPrimary(token)
	gw.ConnectSecondary()

	if err := tabs.Restore(ctx); err != nil {
		slog.Warn("restore tab failed", "error", err)
	}

	model := tui.NewModel(tui.Deps{
		Tabs:    tabs,
		Queue:   queue,
		Chat:    chat,
		Agents:  selector,
		Voice:   voiceCtrl,
		Gateway: gw,
		Prefs:   prefs,
		Confirm: confirm,
		Toaster: toaster,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.Bind(p, b)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run deck: %w", err)
	}
	return nil
}
