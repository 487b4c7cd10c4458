package application

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"home-voice/internal/domain"
)

const noAnswer = "I don't know"

// FeedbackGenerator turns a resolution into the sentence spoken back.
type FeedbackGenerator struct {
	answers AnswerGenerator
	intn    func(n int) int
	logger  *slog.Logger
}

func NewFeedbackGenerator(answers AnswerGenerator, logger *slog.Logger) *FeedbackGenerator {
	if answers == nil {
		answers = NoopAnswerer{}
	}
	return &FeedbackGenerator{
		answers: answers,
		intn:    rand.IntN,
		logger:  logger,
	}
}

// WithRand replaces the template picker.
func (g *FeedbackGenerator) WithRand(intn func(n int) int) *FeedbackGenerator {
	g.intn = intn
	return g
}

func (g *FeedbackGenerator) Generate(ctx context.Context, res domain.Resolution) string {
	if !res.OK() {
		return FailureMessage(res.Failure)
	}
	if res.Intent.Kind == domain.IntentQuestion {
		return g.answer(ctx, res.Intent.Question)
	}
	return g.confirm(res.Intent.Command)
}

func FailureMessage(reason domain.FailureReason) string {
	switch reason {
	case domain.FailureUnsupported:
		return "I don't know how to do this yet."
	case domain.FailureUnrecognized:
		return "I'm not sure I recognize your instruction"
	default:
		return "Sorry, something went wrong. Could you repeat that?"
	}
}

func (g *FeedbackGenerator) confirm(cmd domain.Command) string {
	action := cmd.Action.String()
	subject := "the " + cmd.Subject.String()
	location := "in the " + cmd.Location

	switch g.intn(5) {
	case 0:
		return fmt.Sprintf("I've %s %s %s", action, subject, location)
	case 1:
		return fmt.Sprintf("The %s %s has been %s", cmd.Subject, location, action)
	case 2:
		return fmt.Sprintf("The %s %s is now %s", cmd.Subject, location, action)
	case 3:
		return fmt.Sprintf("I've successfully %s %s %s", action, subject, location)
	default:
		return fmt.Sprintf("Done! The %s %s is now %s", cmd.Subject, location, action)
	}
}

// answer keeps the first sentence of the generated continuation.
func (g *FeedbackGenerator) answer(ctx context.Context, question string) string {
	text, err := g.answers.Answer(ctx, question)
	if err != nil {
		g.logger.Warn("answer generation failed", "error", err)
		return noAnswer
	}

	text = strings.TrimPrefix(strings.TrimSpace(text), strings.TrimSpace(question))
	text, _, _ = strings.Cut(text, ".")
	text = strings.TrimSpace(text)
	if text == "" {
		return noAnswer
	}
	return text
}
