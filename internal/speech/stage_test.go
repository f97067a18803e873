package speech

import (
	"context"
	"fmt"
	"testing"

	"github.com/agalue/edna/internal/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSynth struct {
	enabled   bool
	calls     []string
	failOn    string
	nextPaths map[string]string
}

func (s *stubSynth) Enabled() bool { return s.enabled }

func (s *stubSynth) Synthesize(text string) (string, error) {
	s.calls = append(s.calls, text)
	if text == s.failOn {
		return "", fmt.Errorf("synth boom")
	}
	if s.nextPaths != nil {
		if p, ok := s.nextPaths[text]; ok {
			return p, nil
		}
	}
	return "/tmp/" + text + ".wav", nil
}

type stubPlayer struct {
	played []string
	failOn string
}

func (p *stubPlayer) Play(ctx context.Context, wavPath string) error {
	p.played = append(p.played, wavPath)
	if wavPath == p.failOn {
		return fmt.Errorf("playback boom")
	}
	return nil
}

func setupSpeaking(t *testing.T) *fsm.Machine {
	t.Helper()
	m := fsm.New(nil)
	m.Dispatch(fsm.Start, "")
	m.Dispatch(fsm.SpeechStart, "")
	m.Dispatch(fsm.SpeechEndQueued, "")
	m.Dispatch(fsm.TranscriptReady, "")
	m.Dispatch(fsm.ReplyReady, "")
	require.Equal(t, fsm.Speaking, m.State())
	return m
}

// TestFullTurnTwoChunksOneTtsDone checks that a reply split into two
// sentences produces two synthesis calls and two playback invocations, and
// that the TtsDone dispatch returns the machine to AwaitSpeech.
func TestFullTurnTwoChunksOneTtsDone(t *testing.T) {
	m := setupSpeaking(t)
	synth := &stubSynth{enabled: true}
	player := &stubPlayer{}
	stage := NewStage(synth, player, m)

	stage.Speak(context.Background(), "The sky is blue. Usually.")

	assert.Equal(t, []string{"The sky is blue.", "Usually."}, synth.calls)
	assert.Len(t, player.played, 2)
	assert.Equal(t, fsm.AwaitSpeech, m.State())
}

func TestSpeakContinuesPastSynthesisFailure(t *testing.T) {
	m := setupSpeaking(t)
	synth := &stubSynth{enabled: true, failOn: "Oops."}
	player := &stubPlayer{}
	stage := NewStage(synth, player, m)

	stage.Speak(context.Background(), "Oops. Still here.")

	assert.Equal(t, []string{"Oops.", "Still here."}, synth.calls)
	assert.Len(t, player.played, 1)
	assert.Equal(t, fsm.AwaitSpeech, m.State())
}

func TestSpeakContinuesPastPlaybackFailure(t *testing.T) {
	m := setupSpeaking(t)
	synth := &stubSynth{enabled: true}
	player := &stubPlayer{failOn: "/tmp/First..wav"}
	stage := NewStage(synth, player, m)

	stage.Speak(context.Background(), "First. Second.")

	assert.Len(t, player.played, 2)
	assert.Equal(t, fsm.AwaitSpeech, m.State())
}

func TestSpeakSkipsSynthesisWhenDisabled(t *testing.T) {
	m := setupSpeaking(t)
	synth := &stubSynth{enabled: false}
	player := &stubPlayer{}
	stage := NewStage(synth, player, m)

	stage.Speak(context.Background(), "Text only reply.")

	assert.Empty(t, synth.calls)
	assert.Empty(t, player.played)
	assert.Equal(t, fsm.AwaitSpeech, m.State())
}

func TestSpeakEmptyReplyStillDispatchesTtsDone(t *testing.T) {
	m := setupSpeaking(t)
	synth := &stubSynth{enabled: true}
	player := &stubPlayer{}
	stage := NewStage(synth, player, m)

	stage.Speak(context.Background(), "")

	assert.Equal(t, fsm.AwaitSpeech, m.State())
}
