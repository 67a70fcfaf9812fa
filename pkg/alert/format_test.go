package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/store"
)

func TestFormatSlackPayload_IncludesBatchRefAndEachSummary(t *testing.T) {
	summaries := []*store.SummaryRecord{
		{ID: 1, SummaryText: "first summary"},
		{ID: 2, SummaryText: "second summary"},
	}

	out := formatSlackPayload(42, summaries)

	assert.Contains(t, out, "Batch #42")
	assert.Contains(t, out, "2 new relevant items")
	assert.Contains(t, out, "first summary")
	assert.Contains(t, out, "second summary")
}

func TestFormatSlackPayload_EmptyBatchStillFormatsHeader(t *testing.T) {
	out := formatSlackPayload(1, nil)
	assert.Contains(t, out, "Batch #1: 0 new relevant items")
}

func TestFormatEmailBody_HTMLEscapesSummaryText(t *testing.T) {
	summaries := []*store.SummaryRecord{
		{ID: 1, SummaryText: "<script>alert('xss')</script>"},
	}

	html, text := formatEmailBody(7, summaries)

	assert.NotContains(t, html, "<script>alert")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, text, "<script>alert('xss')</script>")
}

func TestFormatEmailBody_TextIncludesBatchRefAndSummaries(t *testing.T) {
	summaries := []*store.SummaryRecord{
		{ID: 1, SummaryText: "one"},
		{ID: 2, SummaryText: "two"},
	}

	_, text := formatEmailBody(9, summaries)

	assert.Contains(t, text, "Batch #9")
	assert.Contains(t, text, "- one")
	assert.Contains(t, text, "- two")
}
