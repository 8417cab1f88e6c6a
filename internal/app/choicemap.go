package app

import (
	"math/rand"
	"sort"
)

// fixedChoiceLabels are used when a question's choice keys are exactly A-D.
var fixedChoiceLabels = []string{"A", "B", "C", "D"}

// choiceLabels returns the display labels for a question: the fixed A-D set
// when the original keys match it exactly, otherwise the sorted original keys.
func choiceLabels(choices map[string]string) []string {
	keys := make([]string, 0, len(choices))
	for key := range choices {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if len(keys) == len(fixedChoiceLabels) {
		fixed := true
		for _, label := range fixedChoiceLabels {
			if _, ok := choices[label]; !ok {
				fixed = false
				break
			}
		}
		if fixed {
			return append([]string(nil), fixedChoiceLabels...)
		}
	}
	return keys
}

// newChoiceMap builds a random bijection display label -> original choice key.
// Fisher-Yates over the original keys keeps the draw unbiased.
func newChoiceMap(rnd *rand.Rand, labels []string, choices map[string]string) map[string]string {
	keys := make([]string, 0, len(choices))
	for key := range choices {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for i := len(keys) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		keys[i], keys[j] = keys[j], keys[i]
	}

	m := make(map[string]string, len(labels))
	for i, label := range labels {
		m[label] = keys[i]
	}
	return m
}

// validChoiceMap reports whether a stored map is still a bijection from the
// current display labels onto the question's original keys. Stale maps (after
// a question edit, or from a corrupted document) are regenerated by the caller.
func validChoiceMap(m map[string]string, labels []string, choices map[string]string) bool {
	if len(m) != len(labels) {
		return false
	}
	seen := make(map[string]struct{}, len(m))
	for _, label := range labels {
		key, ok := m[label]
		if !ok {
			return false
		}
		if _, dup := seen[key]; dup {
			return false
		}
		if _, exists := choices[key]; !exists {
			return false
		}
		seen[key] = struct{}{}
	}
	return len(seen) == len(choices)
}

// resolveStoredLabel maps a raw stored answer to a current display label. The
// raw value is either a display label or, for documents written before label
// shuffling existed, an original choice key; anything else resolves to "".
func resolveStoredLabel(stored string, labels []string, choiceMap map[string]string) string {
	if stored == "" {
		return ""
	}
	for _, label := range labels {
		if label == stored {
			return label
		}
	}
	for _, label := range labels {
		if choiceMap[label] == stored {
			return label
		}
	}
	return ""
}

// labelForKey returns the display label currently mapped to an original key.
func labelForKey(choiceMap map[string]string, labels []string, key string) string {
	for _, label := range labels {
		if choiceMap[label] == key {
			return label
		}
	}
	return ""
}
