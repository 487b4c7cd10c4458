package domain_test

import (
	"testing"

	"home-voice/internal/domain"
)

func TestParseActionLabel(t *testing.T) {
	tests := []struct {
		label string
		want  domain.Action
	}{
		{"turn on", domain.SwitchAction(domain.SwitchOn)},
		{"turn off", domain.SwitchAction(domain.SwitchOff)},
		{"switch", domain.SwitchAction(domain.SwitchOff)},
		{"increase", domain.GradientAction(domain.GradientMore)},
		{"decrease", domain.GradientAction(domain.GradientLess)},
		{"close", domain.GradientAction(domain.GradientMin)},
		{"open", domain.GradientAction(domain.GradientMax)},
		{"gradient", domain.GradientAction(domain.GradientMin)},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := domain.ParseActionLabel(tt.label)
			if !ok {
				t.Fatalf("label %q not recognized", tt.label)
			}
			if got != tt.want {
				t.Errorf("action: got %+v, want %+v", got, tt.want)
			}
		})
	}

	if _, ok := domain.ParseActionLabel("dance"); ok {
		t.Error("unknown label should not parse")
	}
}

func TestAction_SameFamily(t *testing.T) {
	on := domain.SwitchAction(domain.SwitchOn)
	off := domain.SwitchAction(domain.SwitchOff)
	open := domain.GradientAction(domain.GradientMax)

	if !on.SameFamily(off) {
		t.Error("switch on and switch off should share a family")
	}
	if on.SameFamily(open) {
		t.Error("switch and gradient should not share a family")
	}
	if on == off {
		t.Error("different polarities should not be equal")
	}
}

func TestSubject_Labels(t *testing.T) {
	for _, label := range domain.SubjectLabels() {
		s, ok := domain.ParseSubject(label)
		if !ok {
			t.Fatalf("subject label %q not parsed", label)
		}
		if s.Label() != label {
			t.Errorf("label: got %s, want %s", s.Label(), label)
		}
	}

	if domain.SubjectWindowBlinds.String() != "window blinds" {
		t.Errorf("display: got %q, want %q", domain.SubjectWindowBlinds.String(), "window blinds")
	}
}

func TestClassificationLabels_RejectsOverlap(t *testing.T) {
	_, err := domain.NewClassificationLabels(
		domain.IntentLabels(),
		[]string{"kitchen", "light"},
		domain.ActionLabels(),
		domain.SubjectLabels(),
	)
	if err == nil {
		t.Fatal("expected error for label in two groups")
	}
}

func TestClassificationLabels_Vocabulary(t *testing.T) {
	labels, err := domain.DefaultClassificationLabels([]string{"hallway"})
	if err != nil {
		t.Fatalf("building labels: %v", err)
	}

	vocab := labels.Vocabulary()
	want := 1 + len(domain.ActionLabels()) + len(domain.SubjectLabels()) + len(domain.IntentLabels())
	if len(vocab) != want {
		t.Fatalf("vocabulary size: got %d, want %d", len(vocab), want)
	}
	if vocab[0] != "hallway" {
		t.Errorf("first label: got %s, want hallway", vocab[0])
	}

	g, ok := labels.Group("question")
	if !ok || g != domain.GroupIntent {
		t.Errorf("question group: got %v (%t), want intent", g, ok)
	}
}
