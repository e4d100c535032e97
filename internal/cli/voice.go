package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/clawdeck/internal/bus"
	"github.com/openclaw/clawdeck/internal/config"
	"github.com/openclaw/clawdeck/internal/voice"
)

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Text-to-speech utilities",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var voiceTestCmd = &cobra.Command{
	Use:   "test [agent]",
	Short: "Play a test phrase through an agent's voice",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Voice.APIKey == "" {
			return fmt.Errorf("no voice API key configured")
		}
		agentID := cfg.DefaultAgentID()
		if len(args) == 1 {
			agentID = args[0]
		}
		if _, ok := cfg.AgentByID(agentID); !ok {
			return fmt.Errorf("unknown agent %q", agentID)
		}

		ctrl := newVoiceController(cfg, bus.New())
		defer ctrl.Drain()
		fmt.Printf("Testing voice %s for %s...\n", ctrl.VoiceName(agentID), agentID)
		ctrl.TestVoice(agentID)
		return nil
	},
}

var voiceTestAllCmd = &cobra.Command{
	Use:   "test-all",
	Short: "Play the test phrase through every configured agent voice",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Voice.APIKey == "" {
			return fmt.Errorf("no voice API key configured")
		}

		ctrl := newVoiceController(cfg, bus.New())
		defer ctrl.Drain()
		for _, a := range cfg.Agents {
			if _, ok := cfg.Voice.Agents[a.ID]; !ok {
				continue
			}
			fmt.Printf("Testing voice %s for %s...\n", ctrl.VoiceName(a.ID), a.ID)
			ctrl.TestVoice(a.ID)
		}
		return nil
	},
}

var voiceListCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voices available from the TTS vendor",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Voice.APIKey == "" {
			return fmt.Errorf("no voice API key configured")
		}

		client := voice.NewResembleClient(cfg.Voice.BaseURL, cfg.Voice.VoicesURL, cfg.Voice.APIKey, nil)
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		voices, err := client.ListVoices(ctx)
		if err != nil {
			return err
		}
		printHeader("🎙️ Available Voices")
		for _, v := range voices {
			line := fmt.Sprintf("%-12s %s", v.UUID, v.Name)
			if v.Description != "" {
				line += "  - " + v.Description
			}
			fmt.Println(line)
		}
		fmt.Printf("\n%d voices\n", len(voices))
		return nil
	},
}

func newVoiceController(cfg *config.Config, b *bus.Bus) *voice.Controller {
	synth := voice.NewResembleClient(cfg.Voice.BaseURL, cfg.Voice.VoicesURL, cfg.Voice.APIKey, nil)
	return voice.NewController(cfg.Voice, synth, voice.NewExecPlayer(), b)
}

func init() {
	voiceCmd.AddCommand(voiceTestCmd)
	voiceCmd.AddCommand(voiceTestAllCmd)
	voiceCmd.AddCommand(voiceListCmd)
}
