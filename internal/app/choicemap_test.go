package app

import (
	"math/rand"
	"testing"
)

func TestChoiceLabelsFixedSet(t *testing.T) {
	choices := map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"}
	labels := choiceLabels(choices)
	if len(labels) != 4 || labels[0] != "A" || labels[3] != "D" {
		t.Fatalf("expected A-D, got %v", labels)
	}
}

func TestChoiceLabelsSortedKeysWhenNotFixed(t *testing.T) {
	choices := map[string]string{"k3": "c", "k1": "a", "k2": "b"}
	labels := choiceLabels(choices)
	if len(labels) != 3 || labels[0] != "k1" || labels[1] != "k2" || labels[2] != "k3" {
		t.Fatalf("expected sorted keys, got %v", labels)
	}

	// A superset of A-D is not a perfect match either.
	choices = map[string]string{"A": "a", "B": "b", "C": "c", "D": "d", "E": "e"}
	labels = choiceLabels(choices)
	if len(labels) != 5 {
		t.Fatalf("expected all five keys, got %v", labels)
	}
}

func TestNewChoiceMapIsBijection(t *testing.T) {
	choices := map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"}
	labels := choiceLabels(choices)
	m := newChoiceMap(rand.New(rand.NewSource(7)), labels, choices)

	if !validChoiceMap(m, labels, choices) {
		t.Fatalf("generated map is not a valid bijection: %v", m)
	}
}

func TestValidChoiceMapRejectsBrokenMaps(t *testing.T) {
	choices := map[string]string{"A": "a", "B": "b"}
	labels := []string{"A", "B"}

	cases := []struct {
		name string
		m    map[string]string
	}{
		{"missing label", map[string]string{"A": "B"}},
		{"duplicate values", map[string]string{"A": "B", "B": "B"}},
		{"stale key", map[string]string{"A": "B", "B": "C"}},
		{"extra entry", map[string]string{"A": "A", "B": "B", "C": "A"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if validChoiceMap(tc.m, labels, choices) {
				t.Fatalf("map should be rejected: %v", tc.m)
			}
		})
	}
}

func TestResolveStoredLabel(t *testing.T) {
	labels := []string{"A", "B"}
	m := map[string]string{"A": "k2", "B": "k1"}

	if got := resolveStoredLabel("B", labels, m); got != "B" {
		t.Fatalf("display label must resolve to itself, got %q", got)
	}
	// Legacy documents stored the original key directly.
	if got := resolveStoredLabel("k1", labels, m); got != "B" {
		t.Fatalf("original key must resolve through the map, got %q", got)
	}
	if got := resolveStoredLabel("zzz", labels, m); got != "" {
		t.Fatalf("unknown value must resolve to empty, got %q", got)
	}
	if got := resolveStoredLabel("", labels, m); got != "" {
		t.Fatalf("empty value must resolve to empty, got %q", got)
	}
}

func TestLabelForKey(t *testing.T) {
	labels := []string{"A", "B"}
	m := map[string]string{"A": "k2", "B": "k1"}
	if got := labelForKey(m, labels, "k2"); got != "A" {
		t.Fatalf("expected A, got %q", got)
	}
	if got := labelForKey(m, labels, "missing"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
