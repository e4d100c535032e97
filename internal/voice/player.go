package voice

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Player turns synthesized audio bytes into sound. Play blocks until playback
// finishes, the context ends, or Stop is called.
type Player interface {
	Play(ctx context.Context, audio []byte, speed float64) error
	Stop()
}

// Local players tried in order. mpv and ffplay honor a speed filter, the rest
// play at natural rate.
var playerCommands = []struct {
	name string
	args func(path string, speed float64) []string
}{
	{"mpv", func(path string, speed float64) []string {
		return []string{"--no-video", "--really-quiet", fmt.Sprintf("--speed=%g", speed), path}
	}},
	{"ffplay", func(path string, speed float64) []string {
		return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-af", fmt.Sprintf("atempo=%g", speed), path}
	}},
	{"afplay", func(path string, speed float64) []string {
		return []string{"-r", fmt.Sprintf("%g", speed), path}
	}},
	{"aplay", func(path string, speed float64) []string {
		return []string{"-q", path}
	}},
}

// ExecPlayer shells out to the first audio player found on PATH.
type ExecPlayer struct {
	mu  sync.Mutex
	cmd *exec.Cmd
}

func NewExecPlayer() *ExecPlayer { return &ExecPlayer{} }

func (p *ExecPlayer) Play(ctx context.Context, audio []byte, speed float64) error {
	if speed <= 0 {
		speed = 1.0
	}

	tmp, err := os.CreateTemp("", "clawdeck-voice-*.audio")
	if err != nil {
		return err
	}
	path := tmp.Name()
	defer os.Remove(path)
	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		return err
	}
	tmp.Close()

	bin, args, err := findPlayer(path, speed)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.cmd = nil
		p.mu.Unlock()
	}()

	return cmd.Run()
}

// Stop kills the running player process, if any.
func (p *ExecPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
}

func findPlayer(path string, speed float64) (string, []string, error) {
	for _, c := range playerCommands {
		if bin, err := exec.LookPath(c.name); err == nil {
			return bin, c.args(path, speed), nil
		}
	}
	return "", nil, fmt.Errorf("no audio player found on PATH (tried %s)", playerNames())
}

func playerNames() string {
	names := make([]string, len(playerCommands))
	for i, c := range playerCommands {
		names[i] = c.name
	}
	return strings.Join(names, ", ")
}
