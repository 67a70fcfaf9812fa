package summarise

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractiveSummary_PrefersHighFrequencyTermSentences(t *testing.T) {
	text := "Kubernetes Kubernetes Kubernetes automation rocks. " +
		"Totally unrelated filler text here. " +
		"Kubernetes Kubernetes Kubernetes scales well."

	out := extractiveSummary(text, 100)

	assert.Contains(t, out, "automation")
	assert.Contains(t, out, "scales")
	assert.NotContains(t, out, "unrelated filler")
}

func TestExtractiveSummary_PreservesOriginalSentenceOrder(t *testing.T) {
	text := "First sentence about golang golang golang. " +
		"Second sentence about golang golang. " +
		"Third sentence about golang."

	out := extractiveSummary(text, 1000)

	firstIdx := strings.Index(out, "First")
	secondIdx := strings.Index(out, "Second")
	thirdIdx := strings.Index(out, "Third")
	assert.True(t, firstIdx < secondIdx)
	assert.True(t, secondIdx < thirdIdx)
}

func TestExtractiveSummary_RespectsMaxLen(t *testing.T) {
	text := strings.Repeat("This is a moderately long sentence about testing summaries. ", 20)
	out := extractiveSummary(text, 50)
	assert.LessOrEqual(t, len(out), 50)
}

func TestExtractiveSummary_EmptyTextReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", extractiveSummary("", 100))
}

func TestExtractiveSummary_SingleSentenceShorterThanMaxLenIsUnchanged(t *testing.T) {
	out := extractiveSummary("A short sentence.", 200)
	assert.Equal(t, "A short sentence.", out)
}

func TestTokenFrequency_CountsCaseInsensitive(t *testing.T) {
	freq := tokenFrequency("Go go GO golang")
	assert.Equal(t, 3, freq["go"])
	assert.Equal(t, 1, freq["golang"])
}
