package engine

import "strings"

// matchKnowledge scans curated entries for the one sharing the most tokens
// with the input. Only a strictly greater overlap displaces the current
// best, so on ties the first entry reaching the maximum wins.
func (e *Engine) matchKnowledge(normalized string) (string, bool) {
	inputTokens := Tokenize(normalized)
	if len(inputTokens) == 0 {
		return "", false
	}

	var best string
	bestOverlap := 0
	for _, entry := range e.store.Knowledge.Entries() {
		n := overlap(Tokenize(Normalize(entry.Pattern)), inputTokens)
		if n > 0 && n > bestOverlap {
			bestOverlap = n
			best = entry.Reply
		}
	}
	if bestOverlap == 0 {
		return "", false
	}
	return best, true
}

// matchLearned scans learned patterns in storage order and stops at the
// first pattern related to the input by substring containment in either
// direction. Within the matched pattern the highest-scored candidate wins,
// first one on ties. Later patterns are never consulted once one matches.
func (e *Engine) matchLearned(normalized string) (string, bool) {
	for _, pattern := range e.store.Learned.Patterns() {
		if !strings.Contains(normalized, pattern.Pattern) && !strings.Contains(pattern.Pattern, normalized) {
			continue
		}
		if len(pattern.Candidates) == 0 {
			// A pattern with no candidates cannot answer; keep scanning.
			continue
		}
		best := pattern.Candidates[0]
		for _, c := range pattern.Candidates[1:] {
			if c.Score > best.Score {
				best = c
			}
		}
		return best.Text, true
	}
	return "", false
}
