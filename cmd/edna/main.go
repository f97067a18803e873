// Edna is a fully local, always-listening voice assistant: continuous
// microphone capture, voice activity segmentation, speech recognition,
// a local language model, and speech synthesis wired into one
// single-utterance-at-a-time pipeline.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/agalue/edna/internal/asr"
	"github.com/agalue/edna/internal/audio"
	"github.com/agalue/edna/internal/brain"
	"github.com/agalue/edna/internal/config"
	"github.com/agalue/edna/internal/fsm"
	"github.com/agalue/edna/internal/pipeline"
	"github.com/agalue/edna/internal/speech"
	"github.com/agalue/edna/internal/vad"
	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("edna: configuration error: %v", err)
	}

	logger := newLogger(cfg.Verbose)
	traceLogger := newTraceLogger(cfg.Verbose)
	logStartupSummary(cfg)

	modelWatcher, err := config.WatchModelDir(filepath.Dir(cfg.WhisperModel), func(event fsnotify.Event) {
		logger.Printf("edna: model directory changed: %s", event)
	})
	if err != nil {
		logger.Printf("edna: model directory watch unavailable: %v", err)
	} else {
		defer modelWatcher.Close()
	}

	machine := fsm.New(newTurnObserver(logger))

	detector := vad.NewEnergyDetector(cfg.VADAggressiveness)
	segmenter := vad.NewSegmenter(detector)
	segmenter.SetLogger(traceLogger.With().Str("component", "vad").Logger())

	capture, err := audio.NewMalgoSource(cfg.CaptureDevice)
	if err != nil {
		log.Fatalf("edna: open capture device %q: %v", cfg.CaptureDevice, err)
	}

	utterances := pipeline.NewUtteranceQueue()
	commands := pipeline.NewCommandQueue()
	captureLoop := audio.NewLoop(capture, segmenter, machine, utterances)
	captureLoop.SetLogger(traceLogger.With().Str("component", "audio").Logger())

	transcriber, err := asr.NewWhisperTranscriber(cfg.WhisperModel, "en")
	if err != nil {
		log.Fatalf("edna: load speech recognition model: %v", err)
	}
	defer transcriber.Close()
	asrStage := asr.NewStage(transcriber, machine, utterances, commands, cfg.Verbose)

	synth := speech.NewSynthesizer(cfg.SynthBin, cfg.SynthModel)
	if err := synth.Start(); err != nil {
		logger.Printf("edna: synthesis worker unavailable, replies will be text-only: %v", err)
	}
	defer synth.Stop()
	player := speech.NewPlayer("aplay", cfg.PlaybackDevice)
	speechStage := speech.NewStage(synth, player, machine)

	engine := brain.NewEngineHandle(nil, nil)
	if err := engine.Acquire(); err != nil {
		log.Fatalf("edna: acquire LLM engine: %v", err)
	}
	defer engine.Release()

	chatterCfg := brain.DefaultConfig()
	chatterCfg.Host = cfg.OllamaHost
	chatterCfg.Model = cfg.OllamaModel
	chatterCfg.SystemPrompt = cfg.SystemPrompt
	chatterCfg.Sampler.Temperature = float32(cfg.Temperature)
	chatterCfg.MaxNewTokens = cfg.MaxNewTokens

	chatter, err := brain.NewOllamaChatter(chatterCfg, engine)
	if err != nil {
		log.Fatalf("edna: create LLM chatter: %v", err)
	}
	brainStage := brain.NewStage(chatter, machine, commands, speechStage, 30*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	supervisor := pipeline.NewSupervisor(ctx)
	supervisor.RunWorker(asrStage.Run)
	supervisor.RunWorker(func(stop <-chan struct{}) {
		brainStage.Run(supervisor.Context(), stop)
	})
	supervisor.RunFatal(captureLoop.Run)

	machine.Dispatch(fsm.Start, "")
	color.Green("edna: listening (Ctrl+C to quit)")

	select {
	case sig := <-sigCh:
		logger.Printf("edna: received %s, shutting down", sig)
		supervisor.Stop()
	case <-supervisor.Context().Done():
		logger.Printf("edna: capture loop failed, shutting down")
	}

	capture.Close()

	exitCode := 0
	done := make(chan error, 1)
	go func() { done <- supervisor.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Printf("edna: %v", err)
			exitCode = 1
		}
	case <-time.After(5 * time.Second):
		logger.Printf("edna: shutdown timed out, forcing exit")
		exitCode = 1
	}

	os.Exit(exitCode)
}

// newLogger returns the plain stdlib logger used for user-facing status
// and state-transition lines.
func newLogger(verbose bool) *log.Logger {
	flags := log.Ltime
	if verbose {
		flags |= log.Lshortfile
	}
	return log.New(os.Stderr, "", flags)
}

// newTraceLogger returns the zerolog logger used for high-frequency
// per-frame diagnostics in internal/vad and internal/audio, kept separate
// from the user-facing transcript/reply lines on stdout. It is silent
// unless verbose is set.
func newTraceLogger(verbose bool) zerolog.Logger {
	level := zerolog.Disabled
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

// newTurnObserver returns an fsm.Observer that assigns a fresh correlation
// ID whenever a turn begins (AwaitSpeech to CapturingSpeech on SpeechStart),
// records it in internal/pipeline so the ASR and Brain stages can tag
// their own log lines with it, and logs every transition.
func newTurnObserver(logger *log.Logger) fsm.Observer {
	return func(from, to fsm.State, event fsm.Event, note string) {
		if event == fsm.SpeechStart {
			pipeline.SetTurnID(uuid.NewString()[:8])
		}
		turnID := pipeline.TurnID()
		if note != "" {
			logger.Printf("[%s] %s --%s(%s)--> %s", turnID, from, event, note, to)
		} else {
			logger.Printf("[%s] %s --%s--> %s", turnID, from, event, to)
		}
	}
}

// logStartupSummary prints the resolved configuration an operator needs to
// diagnose a misconfigured device or missing model before any device is
// opened.
func logStartupSummary(cfg *config.Config) {
	fmt.Fprintln(os.Stderr, "edna: starting with")
	fmt.Fprintf(os.Stderr, "  top dir:          %s\n", cfg.TopDir)
	fmt.Fprintf(os.Stderr, "  speech model:     %s (%s)\n", cfg.WhisperModel, existsMark(cfg.WhisperModel))
	fmt.Fprintf(os.Stderr, "  language model:   %s (%s)\n", cfg.LLMModel, existsMark(cfg.LLMModel))
	fmt.Fprintf(os.Stderr, "  synthesis worker: %s %s (%s)\n", cfg.SynthBin, cfg.SynthModel, existsMark(cfg.SynthBin))
	fmt.Fprintf(os.Stderr, "  capture device:   %s\n", cfg.CaptureDevice)
	fmt.Fprintf(os.Stderr, "  playback device:  %s\n", cfg.PlaybackDevice)
	fmt.Fprintf(os.Stderr, "  ollama:           %s (%s)\n", cfg.OllamaHost, cfg.OllamaModel)
}

func existsMark(path string) string {
	if _, err := os.Stat(filepath.Clean(path)); err != nil {
		return "missing"
	}
	return "found"
}
