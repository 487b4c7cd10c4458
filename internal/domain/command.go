package domain

import "fmt"

type ActionFamily int

const (
	ActionSwitch ActionFamily = iota
	ActionGradient
)

func (f ActionFamily) String() string {
	switch f {
	case ActionSwitch:
		return "switch"
	case ActionGradient:
		return "gradient"
	default:
		return fmt.Sprintf("ActionFamily(%d)", int(f))
	}
}

// ParseActionFamily maps a command-map keyword to its family.
func ParseActionFamily(keyword string) (ActionFamily, bool) {
	switch keyword {
	case "switch":
		return ActionSwitch, true
	case "gradient":
		return ActionGradient, true
	default:
		return 0, false
	}
}

type SwitchValue int

const (
	SwitchOff SwitchValue = iota
	SwitchOn
)

type GradientValue int

const (
	GradientMin GradientValue = iota
	GradientMax
	GradientLess
	GradientMore
)

// Action is either Switch(value) or Gradient(value). Build it with
// SwitchAction or GradientAction so the unused payload stays zero and
// == compares structurally.
type Action struct {
	Family   ActionFamily
	Switch   SwitchValue
	Gradient GradientValue
}

func SwitchAction(v SwitchValue) Action {
	return Action{Family: ActionSwitch, Switch: v}
}

func GradientAction(v GradientValue) Action {
	return Action{Family: ActionGradient, Gradient: v}
}

// DefaultAction is the action a bare family keyword stands for.
func DefaultAction(f ActionFamily) Action {
	if f == ActionGradient {
		return GradientAction(GradientMin)
	}
	return SwitchAction(SwitchOff)
}

// SameFamily compares the variant tag only and ignores the payload.
func (a Action) SameFamily(other Action) bool {
	return a.Family == other.Family
}

// String returns the past-tense phrase used in spoken feedback.
func (a Action) String() string {
	if a.Family == ActionSwitch {
		if a.Switch == SwitchOn {
			return "turned on"
		}
		return "turned off"
	}

	switch a.Gradient {
	case GradientMax:
		return "opened"
	case GradientMore:
		return "raised"
	case GradientLess:
		return "lowered"
	default:
		return "closed"
	}
}

var actionLabels = []struct {
	label  string
	action Action
}{
	{"turn on", SwitchAction(SwitchOn)},
	{"turn off", SwitchAction(SwitchOff)},
	{"increase", GradientAction(GradientMore)},
	{"decrease", GradientAction(GradientLess)},
	{"close", GradientAction(GradientMin)},
	{"open", GradientAction(GradientMax)},
}

// ActionLabels is the default action vocabulary offered to the classifier.
func ActionLabels() []string {
	labels := make([]string, len(actionLabels))
	for i, l := range actionLabels {
		labels[i] = l.label
	}
	return labels
}

// ParseActionLabel maps a classifier label to an action. The family
// keywords "switch" and "gradient" resolve to DefaultAction.
func ParseActionLabel(label string) (Action, bool) {
	for _, l := range actionLabels {
		if l.label == label {
			return l.action, true
		}
	}
	if f, ok := ParseActionFamily(label); ok {
		return DefaultAction(f), true
	}
	return Action{}, false
}

type Subject int

const (
	SubjectLight Subject = iota
	SubjectTeapot
	SubjectWindowBlinds
	SubjectTemperature
	SubjectVentilator
)

var subjects = []struct {
	subject Subject
	label   string
	display string
}{
	{SubjectLight, "light", "light"},
	{SubjectTeapot, "teapot", "teapot"},
	{SubjectWindowBlinds, "windowblinds", "window blinds"},
	{SubjectTemperature, "temperature", "temperature"},
	{SubjectVentilator, "ventilator", "ventilator"},
}

// Label is the canonical lowercase classifier label.
func (s Subject) Label() string {
	for _, e := range subjects {
		if e.subject == s {
			return e.label
		}
	}
	return fmt.Sprintf("subject(%d)", int(s))
}

func (s Subject) String() string {
	for _, e := range subjects {
		if e.subject == s {
			return e.display
		}
	}
	return fmt.Sprintf("Subject(%d)", int(s))
}

func ParseSubject(label string) (Subject, bool) {
	for _, e := range subjects {
		if e.label == label {
			return e.subject, true
		}
	}
	return 0, false
}

func SubjectLabels() []string {
	labels := make([]string, len(subjects))
	for i, e := range subjects {
		labels[i] = e.label
	}
	return labels
}

type Command struct {
	Location string
	Action   Action
	Subject  Subject
}

func (c Command) String() string {
	return fmt.Sprintf("%s %s in the %s", c.Action, c.Subject, c.Location)
}

// SupportedCommand is one registry entry: the action is matched by family
// only.
type SupportedCommand struct {
	Location string
	Family   ActionFamily
	Subject  Subject
}

// CommandMap is the parsed command configuration. Locations keeps every
// declared location in file order, including ones with no valid command.
type CommandMap struct {
	Locations []string
	Commands  []SupportedCommand
}
