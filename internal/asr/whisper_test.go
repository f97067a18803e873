package asr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWhisperTranscriberMissingModelFails(t *testing.T) {
	_, err := NewWhisperTranscriber("/nonexistent/ggml-base.en.bin", "en")
	assert.Error(t, err)
}
