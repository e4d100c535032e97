package activity

import (
	"fmt"

	"github.com/openclaw/clawdeck/internal/bus"
	"github.com/openclaw/clawdeck/internal/voice"
)

// Attach subscribes the log to the dashboard events worth keeping: agent
// switches, terminal connection failures and finished voice playback. Draft
// actions are recorded by the queue panel itself.
func (l *Log) Attach(b *bus.Bus) {
	b.Subscribe(bus.TopicAgentSwitched, func(payload any) {
		if agentID, ok := payload.(string); ok {
			l.Record(KindAgentSwitched, 0, agentID, "")
		}
	})
	b.Subscribe(bus.TopicPrimaryError, func(payload any) {
		l.Record(KindConnectionLost, 0, "", "queue socket: "+detailString(payload))
	})
	b.Subscribe(bus.TopicSecondaryErr, func(payload any) {
		l.Record(KindConnectionLost, 0, "", "chat socket: "+detailString(payload))
	})
	b.Subscribe(bus.TopicVoiceSpeaking, func(payload any) {
		ev, ok := payload.(voice.SpeakingEvent)
		if ok && !ev.Speaking {
			// Record on completion so interrupted items still show up once.
			l.Record(KindVoicePlayed, 0, ev.AgentID, "")
		}
	})
}

func detailString(payload any) string {
	switch v := payload.(type) {
	case nil:
		return ""
	case string:
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}
