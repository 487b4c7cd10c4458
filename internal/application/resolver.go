package application

import "home-voice/internal/domain"

const DefaultAcceptanceThreshold = 0.85

// IntentResolver turns classifier scores into a validated intent. It does
// no I/O and is deterministic for a given input.
type IntentResolver struct {
	labels    *domain.ClassificationLabels
	registry  *CommandRegistry
	threshold float64
}

func NewIntentResolver(labels *domain.ClassificationLabels, registry *CommandRegistry, threshold float64) *IntentResolver {
	if threshold <= 0 {
		threshold = DefaultAcceptanceThreshold
	}
	return &IntentResolver{
		labels:    labels,
		registry:  registry,
		threshold: threshold,
	}
}

func (r *IntentResolver) Threshold() float64 {
	return r.threshold
}

// Resolve interprets one score per vocabulary label. A question label
// above the threshold wins outright; otherwise the best label of each
// slot group forms the command, with the weakest slot as its confidence.
func (r *IntentResolver) Resolve(instruction string, scores []domain.Score) domain.Resolution {
	res := domain.Resolution{Instruction: instruction}

	var best [4]domain.Score
	var found [4]bool

	for _, s := range scores {
		group, ok := r.labels.Group(s.Label)
		if !ok {
			continue
		}

		if group == domain.GroupIntent {
			if s.Label == domain.QuestionLabel && s.Score > r.threshold {
				res.Intent = domain.QuestionIntent(instruction)
				res.Confidence = s.Score
				return res
			}
			continue
		}

		if !found[group] || r.better(s, best[group]) {
			best[group] = s
			found[group] = true
		}
	}

	if !found[domain.GroupLocation] || !found[domain.GroupAction] || !found[domain.GroupSubject] {
		res.Failure = domain.FailureUnrecognized
		return res
	}

	location := best[domain.GroupLocation]
	action := best[domain.GroupAction]
	subject := best[domain.GroupSubject]

	res.Confidence = min(location.Score, action.Score, subject.Score)
	if res.Confidence < r.threshold {
		res.Failure = domain.FailureUnrecognized
		return res
	}

	a, okAction := domain.ParseActionLabel(action.Label)
	sub, okSubject := domain.ParseSubject(subject.Label)
	if !okAction || !okSubject {
		res.Failure = domain.FailureUnsupported
		return res
	}

	cmd := domain.Command{Location: location.Label, Action: a, Subject: sub}
	if !r.registry.Supports(cmd) {
		res.Failure = domain.FailureUnsupported
		return res
	}

	res.Intent = domain.CommandIntent(cmd)
	return res
}

// better prefers the higher score, then the earlier vocabulary label.
func (r *IntentResolver) better(candidate, current domain.Score) bool {
	if candidate.Score != current.Score {
		return candidate.Score > current.Score
	}
	return r.labels.Index(candidate.Label) < r.labels.Index(current.Label)
}

func (r *IntentResolver) Labels() *domain.ClassificationLabels {
	return r.labels
}
