package alert

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/store"
)

var digestTemplate = template.Must(template.New("digest").Parse(
	`<h1>Batch #{{.BatchRef}}</h1><ul>{{range .Summaries}}<li>{{.SummaryText}}</li>{{end}}</ul>`,
))

func formatSlackPayload(batchRef int64, summaries []*store.SummaryRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Batch #%d: %d new relevant items\n", batchRef, len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(&sb, "- %s\n", s.SummaryText)
	}
	return sb.String()
}

// formatEmailBody renders the HTML digest through html/template so
// summary text is autoescaped by construction, not by discipline.
func formatEmailBody(batchRef int64, summaries []*store.SummaryRecord) (html, text string) {
	var h strings.Builder
	_ = digestTemplate.Execute(&h, struct {
		BatchRef  int64
		Summaries []*store.SummaryRecord
	}{BatchRef: batchRef, Summaries: summaries})

	var t strings.Builder
	fmt.Fprintf(&t, "Batch #%d\n\n", batchRef)
	for _, s := range summaries {
		fmt.Fprintf(&t, "- %s\n", s.SummaryText)
	}
	return h.String(), t.String()
}
