package brain

import (
	"context"
	"log"
	"time"

	"github.com/agalue/edna/internal/fsm"
	"github.com/agalue/edna/internal/pipeline"
	"github.com/fatih/color"
)

// Speaker is the subset of the Speech stage the Brain stage needs: given a
// reply, synthesize and play it, then report completion. It runs inline in
// the Brain worker's goroutine, after a reply is produced.
type Speaker interface {
	Speak(ctx context.Context, reply string)
}

// Stage is the dedicated Brain worker: it blocks on the command queue,
// drives the Chatter, and hands the reply to the Speech stage inline.
type Stage struct {
	chatter  Chatter
	machine  *fsm.Machine
	commands *pipeline.CommandQueue
	speaker  Speaker
	timeout  time.Duration
}

// NewStage wires a Stage around its collaborators. timeout bounds each
// Chat call; zero means no deadline beyond ctx's own.
func NewStage(chatter Chatter, machine *fsm.Machine, commands *pipeline.CommandQueue, speaker Speaker, timeout time.Duration) *Stage {
	return &Stage{chatter: chatter, machine: machine, commands: commands, speaker: speaker, timeout: timeout}
}

// Run blocks on the command queue until stop is closed, processing one
// command at a time.
func (s *Stage) Run(ctx context.Context, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case command, ok := <-s.commands.Chan():
			if !ok {
				return
			}
			s.process(ctx, command)
		}
	}
}

func (s *Stage) process(ctx context.Context, command string) {
	callCtx := ctx
	var cancel context.CancelFunc
	if s.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reply, err := s.chatter.Chat(callCtx, command)
	if err != nil {
		// A decode failure still produces a (marker) reply so the state
		// machine can return to AwaitSpeech via TtsDone.
		log.Printf("[%s] brain: LLM decode failure: %v", pipeline.TurnID(), err)
		reply = "I'm sorry, I had trouble thinking of a reply."
	}

	if reply == "" {
		s.machine.Dispatch(fsm.NoCommand, "empty reply")
		return
	}

	color.Yellow("EDNA: %s", reply)
	s.machine.Dispatch(fsm.ReplyReady, "")
	s.speaker.Speak(callCtx, reply)
}
