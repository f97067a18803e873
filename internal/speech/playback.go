package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Player spawns the loudspeaker playback binary for each WAV file and
// blocks until it exits. The playback binary and device string are both
// opaque external collaborators — this package only knows how to invoke
// them.
type Player struct {
	bin    string
	device string
}

// NewPlayer builds a Player that invokes bin with the given output device.
func NewPlayer(bin, device string) *Player {
	return &Player{bin: bin, device: device}
}

// Play runs the playback binary against wavPath and waits for it to exit.
// A non-zero exit code is reported as an error; the caller treats that as
// a failed chunk and continues to the next one.
func (p *Player) Play(ctx context.Context, wavPath string) error {
	cmd := exec.CommandContext(ctx, p.bin, "-D", p.device, wavPath)
	cmd.Stdout = io.Discard
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("playback %s: %w", wavPath, err)
	}
	return nil
}
