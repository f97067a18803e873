// Package config resolves the environment variables and on-disk layout
// the assistant needs at startup, derives model/binary paths from
// EDNA_TOP_DIR, and validates that everything required actually exists
// before the pipeline opens any device.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fsnotify/fsnotify"
)

// Config holds everything resolved from the environment at startup. There
// are no command-line flags — the process takes its entire configuration
// from the environment, per the fixed no-flag CLI surface.
type Config struct {
	// TopDir is the root directory every model/binary path is derived
	// from (EDNA_TOP_DIR).
	TopDir string

	// WhisperModel is the speech recognition model path, derived from
	// TopDir unless overridden.
	WhisperModel string

	// LLMModel is the local language model path, derived from TopDir
	// unless overridden.
	LLMModel string

	// SynthBin is the synthesis worker subprocess binary (EDNA_TTS_COQUI_BIN).
	SynthBin string

	// SynthModel is the model name passed to the synthesis worker as its
	// command-line argument (EDNA_TTS_MODEL).
	SynthModel string

	// PlaybackDevice names the ALSA-style output device passed to the
	// playback binary for each synthesized chunk (EDNA_TTS_DEVICE).
	PlaybackDevice string

	// CaptureDevice names the ALSA-style input device the capture loop
	// opens (EDNA_CAPTURE_DEVICE). Defaults to "plughw:0,0".
	CaptureDevice string

	// OllamaHost is the base URL of the local Ollama server.
	OllamaHost string

	// OllamaModel is the model tag requested for every turn.
	OllamaModel string

	// SystemPrompt is prepended to every turn's request.
	SystemPrompt string

	// Temperature is the sampler chain's temperature stage input.
	Temperature float64

	// MaxNewTokens bounds how much the model is asked to generate per turn.
	MaxNewTokens int

	// VADAggressiveness is the opaque 0-3 knob passed to the voice
	// activity detector at construction.
	VADAggressiveness int

	// Verbose raises the structured logger to debug level and enables
	// per-frame diagnostic tracing.
	Verbose bool
}

// requiredEnv names the environment variables that have no sensible
// default and must be set for the process to start.
var requiredEnv = []string{
	"EDNA_TOP_DIR",
	"EDNA_TTS_COQUI_BIN",
	"EDNA_TTS_MODEL",
	"EDNA_TTS_DEVICE",
}

// Load resolves Config from the environment, derives model paths from
// EDNA_TOP_DIR, applies defaults for everything optional, and validates
// that required files and binaries exist on disk.
func Load() (*Config, error) {
	for _, name := range requiredEnv {
		if os.Getenv(name) == "" {
			return nil, fmt.Errorf("config: required environment variable %s is not set", name)
		}
	}

	cfg := &Config{
		TopDir:         os.Getenv("EDNA_TOP_DIR"),
		SynthBin:       os.Getenv("EDNA_TTS_COQUI_BIN"),
		SynthModel:     os.Getenv("EDNA_TTS_MODEL"),
		PlaybackDevice: os.Getenv("EDNA_TTS_DEVICE"),
		CaptureDevice:  envOr("EDNA_CAPTURE_DEVICE", "plughw:0,0"),

		OllamaHost:   envOr("EDNA_OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:  envOr("EDNA_OLLAMA_MODEL", "gemma3:1b"),
		SystemPrompt: envOr("EDNA_SYSTEM_PROMPT", "You are Edna, a concise voice assistant. Answer in 1-2 sentences."),

		Verbose: os.Getenv("EDNA_VERBOSE") == "1" || os.Getenv("EDNA_VERBOSE") == "true",
	}

	var err error
	if cfg.Temperature, err = envFloat("EDNA_TEMPERATURE", 0.7); err != nil {
		return nil, err
	}
	if cfg.MaxNewTokens, err = envInt("EDNA_MAX_NEW_TOKENS", 96); err != nil {
		return nil, err
	}
	if cfg.VADAggressiveness, err = envInt("EDNA_VAD_AGGRESSIVENESS", 2); err != nil {
		return nil, err
	}

	cfg.WhisperModel = envOr("EDNA_WHISPER_MODEL",
		filepath.Join(cfg.TopDir, "third_party", "whisper.cpp", "models", "ggml-base.en.bin"))
	cfg.LLMModel = envOr("EDNA_LLM_MODEL",
		filepath.Join(cfg.TopDir, "models", "Qwen2.5-2B-Instruct.Q6_K.gguf"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envFloat(name string, fallback float64) (float64, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	return f, nil
}

func envInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	return i, nil
}

// validate checks that every path Config resolved to actually exists
// before the pipeline tries to open a device or fork a subprocess.
func (c *Config) validate() error {
	if _, err := os.Stat(c.TopDir); err != nil {
		return fmt.Errorf("config: EDNA_TOP_DIR %q: %w", c.TopDir, err)
	}
	if _, err := os.Stat(c.SynthBin); err != nil {
		return fmt.Errorf("config: EDNA_TTS_COQUI_BIN %q: %w", c.SynthBin, err)
	}
	if _, err := os.Stat(c.WhisperModel); err != nil {
		return fmt.Errorf("config: speech recognition model %q: %w", c.WhisperModel, err)
	}
	if _, err := os.Stat(c.LLMModel); err != nil {
		return fmt.Errorf("config: language model %q: %w", c.LLMModel, err)
	}
	if c.VADAggressiveness < 0 || c.VADAggressiveness > 3 {
		return fmt.Errorf("config: EDNA_VAD_AGGRESSIVENESS must be 0-3, got %d", c.VADAggressiveness)
	}
	return nil
}

// WatchModelDir watches dir for changes and calls onChange with each
// event; cmd/edna passes the speech recognition model's directory and
// only logs the events. Failing to start the watcher is logged by the caller,
// never fatal — this is a convenience, not a correctness requirement.
func WatchModelDir(dir string, onChange func(fsnotify.Event)) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config: watch %s: %w", dir, err)
	}
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				onChange(event)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return watcher, nil
}
