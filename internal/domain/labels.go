package domain

import "fmt"

type LabelGroup int

const (
	GroupIntent LabelGroup = iota
	GroupLocation
	GroupAction
	GroupSubject
)

func (g LabelGroup) String() string {
	switch g {
	case GroupIntent:
		return "intent"
	case GroupLocation:
		return "location"
	case GroupAction:
		return "action"
	case GroupSubject:
		return "subject"
	default:
		return fmt.Sprintf("LabelGroup(%d)", int(g))
	}
}

// Score is one classifier output entry.
type Score struct {
	Label string
	Score float64
}

// ClassificationLabels partitions the classifier vocabulary into four
// disjoint groups. It is read-only after construction.
type ClassificationLabels struct {
	Intents   []string
	Locations []string
	Actions   []string
	Subjects  []string

	groups     map[string]LabelGroup
	index      map[string]int
	vocabulary []string
}

func NewClassificationLabels(intents, locations, actions, subjects []string) (*ClassificationLabels, error) {
	l := &ClassificationLabels{
		Intents:   append([]string(nil), intents...),
		Locations: append([]string(nil), locations...),
		Actions:   append([]string(nil), actions...),
		Subjects:  append([]string(nil), subjects...),
		groups:    make(map[string]LabelGroup),
		index:     make(map[string]int),
	}

	ordered := []struct {
		group  LabelGroup
		labels []string
	}{
		{GroupLocation, l.Locations},
		{GroupAction, l.Actions},
		{GroupSubject, l.Subjects},
		{GroupIntent, l.Intents},
	}

	for _, o := range ordered {
		for _, label := range o.labels {
			if prev, ok := l.groups[label]; ok {
				return nil, fmt.Errorf("label %q in both %s and %s groups", label, prev, o.group)
			}
			l.groups[label] = o.group
			l.index[label] = len(l.vocabulary)
			l.vocabulary = append(l.vocabulary, label)
		}
	}

	return l, nil
}

// DefaultClassificationLabels builds the standard vocabulary around the
// given locations.
func DefaultClassificationLabels(locations []string) (*ClassificationLabels, error) {
	return NewClassificationLabels(IntentLabels(), locations, ActionLabels(), SubjectLabels())
}

func (l *ClassificationLabels) Group(label string) (LabelGroup, bool) {
	g, ok := l.groups[label]
	return g, ok
}

// Index is the label's position in Vocabulary, or -1.
func (l *ClassificationLabels) Index(label string) int {
	if i, ok := l.index[label]; ok {
		return i
	}
	return -1
}

// Vocabulary is the flat label list: locations, actions, subjects, intents.
func (l *ClassificationLabels) Vocabulary() []string {
	return append([]string(nil), l.vocabulary...)
}
