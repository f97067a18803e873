package asr

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

var _ Transcriber = (*WhisperTranscriber)(nil)

// WhisperTranscriber implements Transcriber over the whisper.cpp CGO
// bindings. The model is loaded once at construction and shared by every
// call; each call opens its own context since a whisper.cpp context is not
// safe for concurrent use, guarded here by a mutex because the ASR stage
// is itself single-threaded but Close may race a late call during shutdown.
type WhisperTranscriber struct {
	model    whisperlib.Model
	language string

	mu sync.Mutex
}

// NewWhisperTranscriber loads the whisper.cpp model at modelPath. language
// is the BCP-47 code requested for every transcription (e.g. "en").
func NewWhisperTranscriber(modelPath, language string) (*WhisperTranscriber, error) {
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("asr: load whisper model %q: %w", modelPath, err)
	}
	return &WhisperTranscriber{model: model, language: language}, nil
}

// Transcribe decodes samples with a fresh context using the bindings'
// default parameters plus the configured language, and joins the
// resulting segment texts with spaces. Single-segment mode is not set, and
// no other decoding parameter is changed from the bindings' defaults. GPU
// acceleration, if any, is controlled by the build tags the bindings were
// compiled with, not a runtime parameter.
func (t *WhisperTranscriber) Transcribe(samples []float32) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("asr: create whisper context: %w", err)
	}

	if err := ctx.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("asr: set language %q: %w", t.language, err)
	}

	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("asr: process samples: %w", err)
	}

	var parts []string
	for {
		segment, err := ctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("asr: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " "), nil
}

// Close releases the underlying whisper.cpp model.
func (t *WhisperTranscriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.model != nil {
		return t.model.Close()
	}
	return nil
}
