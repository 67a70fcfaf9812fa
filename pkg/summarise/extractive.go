package summarise

import (
	"regexp"
	"strings"
)

var sentenceSplit = regexp.MustCompile(`(?:[.!?]+\s+|\n+)`)

// extractiveSummary implements the fallback used when the LLM path fails
// (§4.7): rank sentences by the sum of their tokens' frequencies across
// the whole text, then keep the top-ranked sentences, in original order,
// until maxLen is reached.
func extractiveSummary(text string, maxLen int) string {
	sentences := sentenceSplit.Split(text, -1)
	type scored struct {
		idx  int
		text string
		freq int
	}
	freq := tokenFrequency(text)
	ranked := make([]scored, 0, len(sentences))
	for i, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		score := 0
		for _, tok := range strings.Fields(strings.ToLower(s)) {
			score += freq[tok]
		}
		ranked = append(ranked, scored{idx: i, text: s, freq: score})
	}

	// Stable-sort descending by score, keeping original order on ties via
	// insertion sort — the input is small (one content item's sentences).
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].freq > ranked[j-1].freq; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	var kept []scored
	total := 0
	for _, r := range ranked {
		if total+len(r.text) > maxLen && len(kept) > 0 {
			continue
		}
		kept = append(kept, r)
		total += len(r.text)
		if total >= maxLen {
			break
		}
	}

	// Restore original sentence order for readability.
	for i := 1; i < len(kept); i++ {
		for j := i; j > 0 && kept[j].idx < kept[j-1].idx; j-- {
			kept[j], kept[j-1] = kept[j-1], kept[j]
		}
	}

	var sb strings.Builder
	for i, r := range kept {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(r.text)
	}
	out := sb.String()
	if len(out) > maxLen {
		out = out[:maxLen]
	}
	return out
}

func tokenFrequency(text string) map[string]int {
	freq := make(map[string]int)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		freq[tok]++
	}
	return freq
}
