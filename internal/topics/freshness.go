// Package topics implements the freshness heuristics that keep the factory
// from remaking the same video twice. Matching is deliberately cheap and
// explainable: lowercase word sets minus stop words, with a fixed overlap
// threshold. Topics that went viral are exempt so sequels stay possible.
package topics

import (
	"sort"
	"strings"
)

// overlapThreshold is the number of shared meaningful words at which two
// topics count as the same topic.
const overlapThreshold = 3

// stopWords are ignored when comparing topic similarity.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "in": {}, "to": {}, "how": {},
	"why": {}, "what": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "i": {}, "you": {}, "we": {}, "they": {}, "it": {},
	"this": {}, "that": {}, "for": {}, "on": {}, "at": {}, "by": {},
	"with": {}, "from": {}, "and": {}, "or": {}, "but": {}, "do": {},
	"does": {}, "did": {}, "have": {}, "has": {}, "had": {}, "not": {},
	"no": {}, "so": {}, "if": {}, "as": {}, "can": {}, "will": {},
	"just": {}, "about": {}, "into": {}, "its": {}, "s": {}, "your": {},
}

// Words returns the meaningful lowercased words of a topic string.
func Words(topic string) map[string]struct{} {
	var b strings.Builder
	for _, r := range strings.ToLower(topic) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}

	words := make(map[string]struct{})
	for _, w := range strings.Fields(b.String()) {
		if _, stop := stopWords[w]; stop {
			continue
		}
		words[w] = struct{}{}
	}
	return words
}

// Key returns a canonical identity for a topic's word set, used to test
// membership in the pumped list regardless of word order or stop words.
func Key(topic string) string {
	words := Words(topic)
	sorted := make([]string, 0, len(words))
	for w := range words {
		sorted = append(sorted, w)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

// IsFresh reports whether a candidate topic is safe to use. A candidate is
// rejected when it overlaps by overlapThreshold meaningful words with a
// previously used topic that did not pump. Pumped topics never block a
// candidate: remixing proven winners is encouraged.
func IsFresh(candidate string, used, pumped []string) bool {
	candWords := Words(candidate)

	pumpedKeys := make(map[string]struct{}, len(pumped))
	for _, p := range pumped {
		pumpedKeys[Key(p)] = struct{}{}
	}

	for _, u := range used {
		if _, ok := pumpedKeys[Key(u)]; ok {
			continue
		}
		usedWords := Words(u)
		shared := 0
		for w := range candWords {
			if _, ok := usedWords[w]; ok {
				shared++
			}
		}
		if shared >= overlapThreshold {
			return false
		}
	}
	return true
}

// PickFresh walks a ranked candidate list and returns the first fresh
// topic; ok is false when every candidate is stale.
func PickFresh(candidates []string, used, pumped []string) (string, bool) {
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if IsFresh(candidate, used, pumped) {
			return candidate, true
		}
	}
	return "", false
}
