package topics

import (
	"testing"
)

func TestWords(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		want  []string
	}{
		{"strips stop words", "how to be rich in 2024", []string{"rich", "2024"}},
		{"strips punctuation", "Trader lost EVERYTHING! (2021)", []string{"trader", "lost", "everything", "2021"}},
		{"empty", "", nil},
		{"only stop words", "the a an of", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Words(tt.topic)
			if len(got) != len(tt.want) {
				t.Fatalf("Words(%q) = %v, want %v", tt.topic, got, tt.want)
			}
			for _, w := range tt.want {
				if _, ok := got[w]; !ok {
					t.Errorf("Words(%q) missing %q", tt.topic, w)
				}
			}
		})
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"word order ignored", "dark psychology tricks", "tricks psychology dark", true},
		{"stop words ignored", "the dark psychology tricks", "dark psychology tricks", true},
		{"different words differ", "dark psychology tricks", "dark money tricks", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.a) == Key(tt.b); got != tt.same {
				t.Errorf("Key(%q) == Key(%q) = %v, want %v", tt.a, tt.b, got, tt.same)
			}
		})
	}
}

func TestIsFresh(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		used      []string
		pumped    []string
		want      bool
	}{
		{
			name:      "no history",
			candidate: "why your brain sabotages you",
			want:      true,
		},
		{
			name:      "rewording of a used topic is stale",
			candidate: "Trader lost it all in 2021",
			used:      []string{"Trader lost everything in 2021"},
			want:      false,
		},
		{
			name:      "two shared words is still fresh",
			candidate: "trader won big in 2021",
			used:      []string{"Trader lost everything in 2021"},
			want:      true,
		},
		{
			name:      "pumped topics never block",
			candidate: "Trader lost everything in 2021 part 2",
			used:      []string{"Trader lost everything in 2021"},
			pumped:    []string{"Trader lost everything in 2021"},
			want:      true,
		},
		{
			name:      "pumped match is order insensitive",
			candidate: "Trader lost everything in 2021 part 2",
			used:      []string{"Trader lost everything in 2021"},
			pumped:    []string{"lost everything 2021 trader"},
			want:      true,
		},
		{
			name:      "non-pumped sibling still blocks",
			candidate: "trader lost everything in 2021",
			used:      []string{"trader lost everything in 2021", "crypto trader lost everything overnight"},
			pumped:    []string{"crypto trader lost everything overnight"},
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFresh(tt.candidate, tt.used, tt.pumped); got != tt.want {
				t.Errorf("IsFresh(%q) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestPickFresh(t *testing.T) {
	used := []string{"Trader lost everything in 2021"}

	tests := []struct {
		name       string
		candidates []string
		want       string
		ok         bool
	}{
		{
			name:       "first fresh wins",
			candidates: []string{"Trader lost it all in 2021", "why rich people stay silent"},
			want:       "why rich people stay silent",
			ok:         true,
		},
		{
			name:       "empty candidates skipped",
			candidates: []string{"", "why rich people stay silent"},
			want:       "why rich people stay silent",
			ok:         true,
		},
		{
			name:       "all stale",
			candidates: []string{"Trader lost it all in 2021"},
			want:       "",
			ok:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PickFresh(tt.candidates, used, nil)
			if got != tt.want || ok != tt.ok {
				t.Errorf("PickFresh() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}
