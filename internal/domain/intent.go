package domain

type IntentKind int

const (
	IntentCommand IntentKind = iota
	IntentQuestion
)

// Intent is either a Command or a free-form Question.
type Intent struct {
	Kind     IntentKind
	Command  Command
	Question string
}

func CommandIntent(c Command) Intent {
	return Intent{Kind: IntentCommand, Command: c}
}

func QuestionIntent(text string) Intent {
	return Intent{Kind: IntentQuestion, Question: text}
}

const QuestionLabel = "question"

// IntentLabels is the intent vocabulary offered to the classifier.
func IntentLabels() []string {
	return []string{"command", QuestionLabel}
}

// FailureReason is the per-utterance failure that travels downstream
// instead of an intent.
type FailureReason int

const (
	FailureNone FailureReason = iota
	FailureUnknown
	FailureUnrecognized
	FailureUnsupported
)

func (r FailureReason) Error() string {
	switch r {
	case FailureNone:
		return "no failure"
	case FailureUnknown:
		return "classification failed"
	case FailureUnrecognized:
		return "unrecognized instruction"
	case FailureUnsupported:
		return "unsupported instruction"
	default:
		return "unknown failure"
	}
}

// Resolution is the outcome of one classification cycle. Failure is
// FailureNone exactly when Intent is valid.
type Resolution struct {
	UtteranceID string
	Instruction string
	Intent      Intent
	Confidence  float64
	Failure     FailureReason
}

func (r Resolution) OK() bool {
	return r.Failure == FailureNone
}
