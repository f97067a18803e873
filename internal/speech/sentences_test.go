package speech

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSentencesBasic(t *testing.T) {
	got := SplitSentences("The sky is blue. Usually.")
	assert.Equal(t, []string{"The sky is blue.", "Usually."}, got)
}

func TestSplitSentencesHandlesQuestionsAndExclamations(t *testing.T) {
	got := SplitSentences("Really? Yes! Okay.")
	assert.Equal(t, []string{"Really?", "Yes!", "Okay."}, got)
}

func TestSplitSentencesDropsEmptyFragments(t *testing.T) {
	got := SplitSentences("Hello.   .  World.   ")
	assert.Equal(t, []string{"Hello.", ".", "World."}, got)
}

func TestSplitSentencesNoTerminalPunctuationIsOneFragment(t *testing.T) {
	got := SplitSentences("just trailing off")
	assert.Equal(t, []string{"just trailing off"}, got)
}

func TestSplitSentencesSoftWrapsSingleLongFragment(t *testing.T) {
	word := strings.Repeat("a", 10)
	words := make([]string, 30)
	for i := range words {
		words[i] = word
	}
	long := strings.Join(words, " ") // > 180 chars, no terminal punctuation
	got := SplitSentences(long)

	assert.Greater(t, len(got), 1)
	for _, chunk := range got {
		assert.LessOrEqual(t, len([]rune(chunk)), SoftWrapWidth)
	}
	assert.Equal(t, long, strings.Join(got, " "))
}

func TestSplitSentencesEmptyInput(t *testing.T) {
	assert.Empty(t, SplitSentences(""))
	assert.Empty(t, SplitSentences("   "))
}
